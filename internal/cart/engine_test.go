package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/olashile-studio/gallery-backend/pkg/errors"
)

func newTestEngine(t *testing.T, declared map[int]int) (*Engine, SnapshotStore) {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	engine, err := NewEngine(context.Background(), store, declared, nil)
	require.NoError(t, err)
	return engine, store
}

func line(productID, frameIndex, qty int, price string) Line {
	return Line{
		Key:       LineKey(productID, frameIndex),
		ProductID: productID,
		Title:     "test artwork",
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

// checkConservation asserts remaining + cart quantities == declared for
// every product across all given carts.
func checkConservation(t *testing.T, e *Engine, declared map[int]int, cartIDs ...string) {
	t.Helper()
	ctx := context.Background()
	inCarts := map[int]int{}
	for _, id := range cartIDs {
		for _, l := range e.Get(ctx, id).Lines {
			inCarts[l.ProductID] += l.Quantity
		}
	}
	for productID, total := range declared {
		assert.Equal(t, total, e.Stock(ctx, productID)+inCarts[productID],
			"conservation violated for product %d", productID)
	}
}

func TestScenarioAddUpdateRemove(t *testing.T) {
	ctx := context.Background()
	declared := map[int]int{1: 3}
	engine, _ := newTestEngine(t, declared)

	// addToCart(A, qty=2) -> stock 1, total 200
	_, err := engine.Add(ctx, "c1", line(1, -1, 2, "100"))
	require.NoError(t, err)
	assert.Equal(t, 1, engine.Stock(ctx, 1))
	assert.True(t, engine.Total(ctx, "c1").Equal(decimal.NewFromInt(200)))

	// updateQuantity(A, 1) -> stock 2, total 100
	_, err = engine.UpdateQuantity(ctx, "c1", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, engine.Stock(ctx, 1))
	assert.True(t, engine.Total(ctx, "c1").Equal(decimal.NewFromInt(100)))

	// removeFromCart(A) -> stock 3, cart empty
	snap, err := engine.Remove(ctx, "c1", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, engine.Stock(ctx, 1))
	assert.Empty(t, snap.Lines)

	checkConservation(t, engine, declared, "c1")
}

func TestAddMergesSameLineIdentity(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t, map[int]int{2: 10})

	_, err := engine.Add(ctx, "c1", line(2, 0, 1, "775"))
	require.NoError(t, err)
	snap, err := engine.Add(ctx, "c1", line(2, 0, 2, "775"))
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 3, snap.Lines[0].Quantity)
	assert.Equal(t, 7, engine.Stock(ctx, 2))
}

func TestFrameVariantsAreDistinctLines(t *testing.T) {
	ctx := context.Background()
	declared := map[int]int{2: 10}
	engine, _ := newTestEngine(t, declared)

	_, err := engine.Add(ctx, "c1", line(2, 0, 1, "775")) // A0 frame
	require.NoError(t, err)
	snap, err := engine.Add(ctx, "c1", line(2, 3, 1, "700")) // A3 frame
	require.NoError(t, err)

	require.Len(t, snap.Lines, 2)
	// Both variants reserve against the same product counter.
	assert.Equal(t, 8, engine.Stock(ctx, 2))
	checkConservation(t, engine, declared, "c1")
}

func TestAddRejectsInsufficientStock(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t, map[int]int{3: 1})

	_, err := engine.Add(ctx, "c1", line(3, -1, 2, "520"))
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 1, engine.Stock(ctx, 3))
	assert.Empty(t, engine.Get(ctx, "c1").Lines)
}

func TestUpdateQuantityRejectsExceedingStock(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t, map[int]int{1: 3})

	_, err := engine.Add(ctx, "c1", line(1, -1, 2, "450"))
	require.NoError(t, err)

	_, err = engine.UpdateQuantity(ctx, "c1", 1, 5) // would need 3 more, only 1 left
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))

	// State untouched by the rejected transition.
	assert.Equal(t, 1, engine.Stock(ctx, 1))
	assert.Equal(t, 2, engine.Get(ctx, "c1").Lines[0].Quantity)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t, map[int]int{1: 3})

	_, err := engine.Add(ctx, "c1", line(1, -1, 2, "450"))
	require.NoError(t, err)

	snap, err := engine.UpdateQuantity(ctx, "c1", 1, 0)
	require.NoError(t, err)
	assert.Empty(t, snap.Lines)
	assert.Equal(t, 3, engine.Stock(ctx, 1))
}

func TestClearRestoresAllStock(t *testing.T) {
	ctx := context.Background()
	declared := map[int]int{1: 3, 2: 2}
	engine, _ := newTestEngine(t, declared)

	_, err := engine.Add(ctx, "c1", line(1, -1, 2, "450"))
	require.NoError(t, err)
	_, err = engine.Add(ctx, "c1", line(2, -1, 2, "675"))
	require.NoError(t, err)

	snap, err := engine.Clear(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, snap.Lines)
	assert.Equal(t, 3, engine.Stock(ctx, 1))
	assert.Equal(t, 2, engine.Stock(ctx, 2))
	assert.True(t, engine.Total(ctx, "c1").IsZero())
}

func TestStockSharedAcrossCarts(t *testing.T) {
	ctx := context.Background()
	declared := map[int]int{2: 2}
	engine, _ := newTestEngine(t, declared)

	_, err := engine.Add(ctx, "alice", line(2, -1, 1, "675"))
	require.NoError(t, err)
	_, err = engine.Add(ctx, "bob", line(2, -1, 1, "675"))
	require.NoError(t, err)

	// Third shopper is rejected: the counter is authoritative.
	_, err = engine.Add(ctx, "carol", line(2, -1, 1, "675"))
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))
	checkConservation(t, engine, declared, "alice", "bob", "carol")
}

func TestSnapshotRoundTripAcrossRestart(t *testing.T) {
	ctx := context.Background()
	declared := map[int]int{1: 30, 2: 2}
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	engine, err := NewEngine(ctx, store, declared, nil)
	require.NoError(t, err)
	_, err = engine.Add(ctx, "c1", line(1, 2, 3, "500"))
	require.NoError(t, err)
	before := engine.Get(ctx, "c1")

	// Simulate a page refresh: a fresh engine over the same store.
	reloaded, err := NewEngine(ctx, store, declared, nil)
	require.NoError(t, err)
	after := reloaded.Get(ctx, "c1")

	assert.Equal(t, before.Lines, after.Lines)
	assert.Equal(t, before.Stocks, after.Stocks)
	assert.Equal(t, 27, reloaded.Stock(ctx, 1))
}

func TestCorruptSnapshotFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyStock, []byte(`{"not":"a list"}`), 0))

	engine, err := NewEngine(ctx, store, map[int]int{1: 30}, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, engine.Stock(ctx, 1))
}

func TestUnknownProductStockIsZero(t *testing.T) {
	engine, _ := newTestEngine(t, map[int]int{1: 30})
	assert.Equal(t, 0, engine.Stock(context.Background(), 999))
}

func TestAddUnknownProductRejected(t *testing.T) {
	engine, _ := newTestEngine(t, map[int]int{1: 30})
	_, err := engine.Add(context.Background(), "c1", line(999, -1, 1, "10"))
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestMarkSoldIsIndependentOfStock(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, map[int]int{1: 30})

	require.NoError(t, engine.MarkSold(ctx, []int{1, 3}))
	require.NoError(t, engine.MarkSold(ctx, []int{2}))

	raw, err := store.Get(ctx, KeySold)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":true,"2":true,"3":true}`, string(raw))
	assert.Equal(t, 30, engine.Stock(ctx, 1))
}

func TestLineKeyEncoding(t *testing.T) {
	assert.Equal(t, 2, LineKey(2, -1))
	assert.Equal(t, 20, LineKey(2, 0))
	assert.Equal(t, 23, LineKey(2, 3))
	assert.Equal(t, 103, LineKey(10, 3))
}
