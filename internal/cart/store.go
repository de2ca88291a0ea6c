package cart

import (
	"context"
	"errors"
	"time"
)

// Logical keys mirror the browser storage the storefront grew out of, so the
// persisted state stays recognizable across backends.
const (
	KeyCart    = "artCart"
	KeyStock   = "artStock"
	KeySold    = "soldItems"
	KeyPending = "pendingOrder"
	KeyReceipt = "receiptSent"
)

// ErrNotFound is returned by Get for keys that were never written or have
// expired.
var ErrNotFound = errors.New("snapshot key not found")

// SnapshotStore is durable key-value storage for whole snapshots. The engine
// owns every write path; nothing else mutates cart or stock state.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes a value. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX writes only if the key is absent; reports whether it wrote.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}
