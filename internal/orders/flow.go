package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olashile-studio/gallery-backend/internal/cart"
	"github.com/olashile-studio/gallery-backend/internal/checkout"
	"github.com/olashile-studio/gallery-backend/internal/receipts"
	pkgerrors "github.com/olashile-studio/gallery-backend/pkg/errors"
	"github.com/olashile-studio/gallery-backend/pkg/logger"
)

// SessionVerifier retrieves a checkout session's recorded payment state.
type SessionVerifier interface {
	VerifySession(ctx context.Context, sessionID string) (checkout.VerifiedSession, error)
}

// ReceiptDispatcher sends the order confirmation emails.
type ReceiptDispatcher interface {
	Dispatch(ctx context.Context, order receipts.Order) error
}

// Confirmation is the settled outcome of a confirmed (or re-confirmed) order.
type Confirmation struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

// receiptRecord is what the exactly-once guard stores per session.
type receiptRecord struct {
	OrderID string    `json:"orderId"`
	SentAt  time.Time `json:"sentAt"`
}

// Flow settles a paid checkout session: dispatch receipts exactly once, mark
// the purchased products sold, clear the cart, drop the pending order.
type Flow struct {
	verifier   SessionVerifier
	dispatcher ReceiptDispatcher
	engine     *cart.Engine
	pending    *PendingStore
	store      cart.SnapshotStore
	logg       *logger.Logger
	now        func() time.Time
}

func NewFlow(verifier SessionVerifier, dispatcher ReceiptDispatcher, engine *cart.Engine, pending *PendingStore, store cart.SnapshotStore, logg *logger.Logger) *Flow {
	return &Flow{
		verifier:   verifier,
		dispatcher: dispatcher,
		engine:     engine,
		pending:    pending,
		store:      store,
		logg:       logg,
		now:        time.Now,
	}
}

func receiptKey(sessionID string) string {
	return cart.KeyReceipt + ":" + sessionID
}

// Confirm verifies the session with the processor and, if paid, runs the
// settlement steps. Re-confirming a settled session returns the recorded
// outcome instead of sending again.
func (f *Flow) Confirm(ctx context.Context, sessionID string) (Confirmation, error) {
	if sessionID == "" {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodeValidation, "Session ID is required")
	}

	verified, err := f.verifier.VerifySession(ctx, sessionID)
	if err != nil {
		return Confirmation{}, err
	}
	if !verified.Paid() {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodePrecondition,
			fmt.Sprintf("payment not completed, status is %q", verified.PaymentStatus))
	}

	pending, err := f.pending.Load(ctx, sessionID)
	if err == cart.ErrNotFound {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodeNotFound, "no pending order for this session")
	}
	if err != nil {
		return Confirmation{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading pending order")
	}

	record := receiptRecord{
		OrderID: fmt.Sprintf("ORD-%d", f.now().UnixMilli()),
		SentAt:  f.now(),
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return Confirmation{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding receipt record")
	}

	wrote, err := f.store.SetNX(ctx, receiptKey(sessionID), raw, 0)
	if err != nil {
		return Confirmation{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording receipt guard")
	}
	if !wrote {
		existing := f.recordedOutcome(ctx, sessionID)
		return Confirmation{Success: true, Message: "Receipt already sent", OrderID: existing}, nil
	}

	order := receipts.Order{
		OrderID:         record.OrderID,
		CustomerName:    pending.CustomerName,
		CustomerEmail:   pending.CustomerEmail,
		ShippingAddress: pending.ShippingAddress,
		Items:           pending.Items,
		Total:           pending.Total,
	}
	if err := f.dispatcher.Dispatch(ctx, order); err != nil {
		// Release the guard so the shopper can retry the confirmation.
		if derr := f.store.Delete(ctx, receiptKey(sessionID)); derr != nil && f.logg != nil {
			f.logg.Error(ctx, "failed to release receipt guard after dispatch failure", derr)
		}
		return Confirmation{}, err
	}

	f.settle(ctx, sessionID, pending)
	return Confirmation{Success: true, Message: "Order confirmed and receipt sent", OrderID: record.OrderID}, nil
}

// SendReceipt dispatches the confirmation emails for an order supplied
// directly by the storefront. When a session id is given the exactly-once
// guard applies, same as Confirm.
func (f *Flow) SendReceipt(ctx context.Context, sessionID string, order receipts.Order) (Confirmation, error) {
	if order.CustomerEmail == "" {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if order.OrderID == "" {
		order.OrderID = fmt.Sprintf("ORD-%d", f.now().UnixMilli())
	}

	if sessionID != "" {
		record := receiptRecord{OrderID: order.OrderID, SentAt: f.now()}
		raw, err := json.Marshal(record)
		if err != nil {
			return Confirmation{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding receipt record")
		}
		wrote, err := f.store.SetNX(ctx, receiptKey(sessionID), raw, 0)
		if err != nil {
			return Confirmation{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording receipt guard")
		}
		if !wrote {
			existing := f.recordedOutcome(ctx, sessionID)
			return Confirmation{Success: true, Message: "Receipt already sent", OrderID: existing}, nil
		}
	}

	if err := f.dispatcher.Dispatch(ctx, order); err != nil {
		if sessionID != "" {
			if derr := f.store.Delete(ctx, receiptKey(sessionID)); derr != nil && f.logg != nil {
				f.logg.Error(ctx, "failed to release receipt guard after dispatch failure", derr)
			}
		}
		return Confirmation{}, err
	}
	return Confirmation{Success: true, Message: "Receipt sent successfully", OrderID: order.OrderID}, nil
}

// settle runs the post-receipt bookkeeping. Failures here are logged, not
// surfaced: the customer already has their confirmation.
func (f *Flow) settle(ctx context.Context, sessionID string, pending PendingOrder) {
	if f.engine != nil {
		ids := productIDs(pending)
		if len(ids) > 0 {
			if err := f.engine.MarkSold(ctx, ids); err != nil && f.logg != nil {
				f.logg.Error(ctx, "failed to mark items sold", err)
			}
		}
		if pending.CartID != "" {
			if _, err := f.engine.Clear(ctx, pending.CartID); err != nil && f.logg != nil {
				f.logg.Error(ctx, "failed to clear cart after confirmation", err)
			}
		}
	}
	if err := f.pending.Delete(ctx, sessionID); err != nil && f.logg != nil {
		f.logg.Error(ctx, "failed to delete pending order", err)
	}
}

func (f *Flow) recordedOutcome(ctx context.Context, sessionID string) string {
	raw, err := f.store.Get(ctx, receiptKey(sessionID))
	if err != nil {
		return ""
	}
	var record receiptRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return ""
	}
	return record.OrderID
}

func productIDs(pending PendingOrder) []int {
	ids := make([]int, 0, len(pending.Items))
	for _, item := range pending.Items {
		if item.ProductID > 0 {
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}
