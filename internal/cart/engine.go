// Package cart holds the cart/inventory engine: every cart line mutation and
// its matching stock-ledger adjustment happen in one atomic transition, so
// for each product
//
//	remaining + sum(cart quantities) == declared stock
//
// at all times, across all carts.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/olashile-studio/gallery-backend/pkg/errors"
	"github.com/olashile-studio/gallery-backend/pkg/logger"
)

// Line is one product (plus frame variant) in a cart.
type Line struct {
	Key        int             `json:"id"` // composite identity: product id + frame variant
	ProductID  int             `json:"productId"`
	Title      string          `json:"title"`
	UnitPrice  decimal.Decimal `json:"price"` // USD, frame surcharge included
	Quantity   int             `json:"quantity"`
	Frame      string          `json:"frame,omitempty"`
	FramePrice decimal.Decimal `json:"framePrice"`
}

// StockCounter is the remaining purchasable units of one product.
type StockCounter struct {
	ProductID int `json:"id"`
	Remaining int `json:"stock"`
}

// Snapshot pairs a cart's lines with the shared stock ledger. It is the unit
// of persistence and of API responses.
type Snapshot struct {
	Lines  []Line         `json:"cartItems"`
	Stocks []StockCounter `json:"productStocks"`
}

// LineKey encodes the composite line identity the storefront uses: the
// product id concatenated with the frame option index, or the bare product id
// for unframed adds.
func LineKey(productID, frameIndex int) int {
	if frameIndex < 0 {
		return productID
	}
	key, _ := strconv.Atoi(fmt.Sprintf("%d%d", productID, frameIndex))
	return key
}

// Engine serializes all cart/stock mutations behind one lock and persists
// the resulting snapshot before returning.
type Engine struct {
	mu    sync.Mutex
	store SnapshotStore
	logg  *logger.Logger

	declared map[int]int
	stocks   map[int]int
	carts    map[string][]Line
}

// NewEngine seeds the stock ledger from the persisted snapshot, falling back
// to the catalog-declared stock when nothing usable is stored (fail-open).
func NewEngine(ctx context.Context, store SnapshotStore, declared map[int]int, logg *logger.Logger) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("snapshot store required")
	}

	e := &Engine{
		store:    store,
		logg:     logg,
		declared: make(map[int]int, len(declared)),
		stocks:   make(map[int]int, len(declared)),
		carts:    make(map[string][]Line),
	}
	for id, stock := range declared {
		e.declared[id] = stock
		e.stocks[id] = stock
	}

	raw, err := store.Get(ctx, KeyStock)
	switch {
	case err == ErrNotFound:
		e.persistStock(ctx)
	case err != nil:
		if logg != nil {
			logg.Error(ctx, "failed to load stock snapshot, using catalog defaults", err)
		}
	default:
		var counters []StockCounter
		if uerr := json.Unmarshal(raw, &counters); uerr != nil {
			if logg != nil {
				logg.Error(ctx, "corrupt stock snapshot, using catalog defaults", uerr)
			}
		} else {
			for _, c := range counters {
				e.stocks[c.ProductID] = c.Remaining
			}
		}
	}

	return e, nil
}

// Add merges the line into the cart (or appends it) and reserves its
// quantity against the stock counter. A request exceeding the remaining
// stock is rejected, never clamped.
func (e *Engine) Add(ctx context.Context, cartID string, line Line) (Snapshot, error) {
	if line.Quantity < 1 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	remaining, known := e.stocks[line.ProductID]
	if !known {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown product %d", line.ProductID))
	}
	if line.Quantity > remaining {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("only %d unit(s) of product %d available", remaining, line.ProductID))
	}

	lines := e.cartLocked(ctx, cartID)
	merged := false
	for i := range lines {
		if lines[i].Key == line.Key {
			lines[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, line)
	}

	e.carts[cartID] = lines
	e.stocks[line.ProductID] = remaining - line.Quantity
	e.persistLocked(ctx, cartID)
	return e.snapshotLocked(cartID), nil
}

// Remove drops the line and releases its full reservation.
func (e *Engine) Remove(ctx context.Context, cartID string, lineKey int) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	lines := e.cartLocked(ctx, cartID)
	idx := indexOf(lines, lineKey)
	if idx < 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("line %d not in cart", lineKey))
	}

	removed := lines[idx]
	e.carts[cartID] = append(lines[:idx], lines[idx+1:]...)
	e.stocks[removed.ProductID] += removed.Quantity
	e.persistLocked(ctx, cartID)
	return e.snapshotLocked(cartID), nil
}

// UpdateQuantity rewrites a line's quantity, adjusting the stock counter by
// the delta in either direction. Quantities below 1 behave as Remove.
func (e *Engine) UpdateQuantity(ctx context.Context, cartID string, lineKey, quantity int) (Snapshot, error) {
	if quantity < 1 {
		return e.Remove(ctx, cartID, lineKey)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	lines := e.cartLocked(ctx, cartID)
	idx := indexOf(lines, lineKey)
	if idx < 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("line %d not in cart", lineKey))
	}

	line := lines[idx]
	delta := line.Quantity - quantity // positive releases stock, negative reserves more
	if delta < 0 && -delta > e.stocks[line.ProductID] {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("only %d unit(s) of product %d available", e.stocks[line.ProductID], line.ProductID))
	}

	lines[idx].Quantity = quantity
	e.carts[cartID] = lines
	e.stocks[line.ProductID] += delta
	e.persistLocked(ctx, cartID)
	return e.snapshotLocked(cartID), nil
}

// Clear releases every reservation and empties the cart. Used after order
// placement and on explicit abandon.
func (e *Engine) Clear(ctx context.Context, cartID string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, line := range e.cartLocked(ctx, cartID) {
		e.stocks[line.ProductID] += line.Quantity
	}
	e.carts[cartID] = nil
	e.persistLocked(ctx, cartID)
	return e.snapshotLocked(cartID), nil
}

// Total is the pure sum of unit price times quantity over the cart.
func (e *Engine) Total(ctx context.Context, cartID string) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := decimal.Zero
	for _, line := range e.cartLocked(ctx, cartID) {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// Stock reports the remaining units for a product, zero when unknown.
func (e *Engine) Stock(_ context.Context, productID int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stocks[productID]
}

// Get returns the current snapshot for a cart.
func (e *Engine) Get(ctx context.Context, cartID string) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cartLocked(ctx, cartID)
	return e.snapshotLocked(cartID)
}

// MarkSold records product ids in the independent sold-items marker. It does
// not touch the stock ledger.
func (e *Engine) MarkSold(ctx context.Context, productIDs []int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sold := map[string]bool{}
	if raw, err := e.store.Get(ctx, KeySold); err == nil {
		if uerr := json.Unmarshal(raw, &sold); uerr != nil {
			sold = map[string]bool{}
		}
	}
	for _, id := range productIDs {
		sold[strconv.Itoa(id)] = true
	}

	raw, err := json.Marshal(sold)
	if err != nil {
		return fmt.Errorf("encoding sold items: %w", err)
	}
	if err := e.store.Set(ctx, KeySold, raw, 0); err != nil {
		return fmt.Errorf("persisting sold items: %w", err)
	}
	return nil
}

func cartKey(cartID string) string {
	return KeyCart + ":" + cartID
}

// cartLocked loads a cart from the store on first touch; a read failure
// falls back to an empty cart rather than blocking (fail-open).
func (e *Engine) cartLocked(ctx context.Context, cartID string) []Line {
	if lines, ok := e.carts[cartID]; ok {
		return lines
	}

	var lines []Line
	raw, err := e.store.Get(ctx, cartKey(cartID))
	switch {
	case err == ErrNotFound:
	case err != nil:
		if e.logg != nil {
			e.logg.Error(ctx, "failed to load cart snapshot, starting empty", err)
		}
	default:
		if uerr := json.Unmarshal(raw, &lines); uerr != nil {
			if e.logg != nil {
				e.logg.Error(ctx, "corrupt cart snapshot, starting empty", uerr)
			}
			lines = nil
		}
	}

	e.carts[cartID] = lines
	return lines
}

// persistLocked writes the cart and stock snapshots. Write failures are
// logged, not surfaced: the in-memory transition already happened and the
// page must not crash over storage.
func (e *Engine) persistLocked(ctx context.Context, cartID string) {
	if raw, err := json.Marshal(e.carts[cartID]); err == nil {
		if serr := e.store.Set(ctx, cartKey(cartID), raw, 0); serr != nil && e.logg != nil {
			e.logg.Error(ctx, "failed to persist cart snapshot", serr)
		}
	}
	e.persistStock(ctx)
}

func (e *Engine) persistStock(ctx context.Context) {
	counters := e.stockCountersLocked()
	raw, err := json.Marshal(counters)
	if err != nil {
		return
	}
	if serr := e.store.Set(ctx, KeyStock, raw, 0); serr != nil && e.logg != nil {
		e.logg.Error(ctx, "failed to persist stock snapshot", serr)
	}
}

func (e *Engine) stockCountersLocked() []StockCounter {
	counters := make([]StockCounter, 0, len(e.stocks))
	for id, remaining := range e.stocks {
		counters = append(counters, StockCounter{ProductID: id, Remaining: remaining})
	}
	sort.Slice(counters, func(i, j int) bool { return counters[i].ProductID < counters[j].ProductID })
	return counters
}

func (e *Engine) snapshotLocked(cartID string) Snapshot {
	lines := make([]Line, len(e.carts[cartID]))
	copy(lines, e.carts[cartID])
	return Snapshot{Lines: lines, Stocks: e.stockCountersLocked()}
}

func indexOf(lines []Line, key int) int {
	for i, line := range lines {
		if line.Key == key {
			return i
		}
	}
	return -1
}
