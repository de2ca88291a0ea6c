// Package orders ties checkout verification, receipt dispatch, and cart
// settlement into the order confirmation flow.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olashile-studio/gallery-backend/internal/cart"
	"github.com/olashile-studio/gallery-backend/internal/receipts"
)

// PendingOrder is the order context captured at session creation, held until
// payment verification settles it one way or the other.
type PendingOrder struct {
	CartID          string          `json:"cartId"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	ShippingAddress string          `json:"shippingAddress"`
	Items           []receipts.Item `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// PendingStore keeps pending orders keyed by checkout session id. Entries
// expire so abandoned checkouts do not accumulate.
type PendingStore struct {
	store cart.SnapshotStore
	ttl   time.Duration
}

func NewPendingStore(store cart.SnapshotStore, ttl time.Duration) *PendingStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PendingStore{store: store, ttl: ttl}
}

func pendingKey(sessionID string) string {
	return cart.KeyPending + ":" + sessionID
}

func (p *PendingStore) Save(ctx context.Context, sessionID string, order PendingOrder) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encoding pending order: %w", err)
	}
	return p.store.Set(ctx, pendingKey(sessionID), raw, p.ttl)
}

func (p *PendingStore) Load(ctx context.Context, sessionID string) (PendingOrder, error) {
	raw, err := p.store.Get(ctx, pendingKey(sessionID))
	if err != nil {
		return PendingOrder{}, err
	}
	var order PendingOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return PendingOrder{}, fmt.Errorf("decoding pending order: %w", err)
	}
	return order, nil
}

func (p *PendingStore) Delete(ctx context.Context, sessionID string) error {
	return p.store.Delete(ctx, pendingKey(sessionID))
}
