package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olashile-studio/gallery-backend/api/responses"
	"github.com/olashile-studio/gallery-backend/api/validators"
	checkoutsvc "github.com/olashile-studio/gallery-backend/internal/checkout"
	"github.com/olashile-studio/gallery-backend/internal/orders"
	"github.com/olashile-studio/gallery-backend/internal/receipts"
	pkgerrors "github.com/olashile-studio/gallery-backend/pkg/errors"
	"github.com/olashile-studio/gallery-backend/pkg/logger"
)

type checkoutItemRequest struct {
	ProductID int             `json:"productId,omitempty"`
	Title     string          `json:"title" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"required"`
	Quantity  int64           `json:"quantity" validate:"required,min=1"`
}

type createSessionRequest struct {
	Items              []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	CustomerEmail      string                `json:"customerEmail" validate:"required,email"`
	CustomerName       string                `json:"customerName,omitempty"`
	ShippingAddress    string                `json:"shippingAddress,omitempty"`
	SuccessURL         string                `json:"successUrl" validate:"required"`
	CancelURL          string                `json:"cancelUrl" validate:"required"`
	Currency           string                `json:"currency,omitempty"`
	CurrencyMultiplier int64                 `json:"currencyMultiplier,omitempty"`
	CartID             string                `json:"cartId,omitempty"`
}

// CreateCheckoutSession opens a hosted payment session for the submitted
// items and parks the order context as a pending order keyed by session id,
// so the confirmation flow can finish the job after the redirect.
func CreateCheckoutSession(svc *checkoutsvc.Service, pending *orders.PendingStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload createSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]checkoutsvc.Item, 0, len(payload.Items))
		total := decimal.Zero
		for _, item := range payload.Items {
			items = append(items, checkoutsvc.Item{
				Title:    item.Title,
				Price:    item.Price,
				Quantity: item.Quantity,
			})
			total = total.Add(item.Price.Mul(decimal.NewFromInt(item.Quantity)))
		}

		session, err := svc.CreateSession(r.Context(), checkoutsvc.CreateSessionInput{
			Items:              items,
			CustomerEmail:      payload.CustomerEmail,
			SuccessURL:         payload.SuccessURL,
			CancelURL:          payload.CancelURL,
			Currency:           payload.Currency,
			CurrencyMultiplier: payload.CurrencyMultiplier,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if pending != nil {
			order := orders.PendingOrder{
				CartID:          payload.CartID,
				CustomerName:    payload.CustomerName,
				CustomerEmail:   payload.CustomerEmail,
				ShippingAddress: payload.ShippingAddress,
				Items:           receiptItems(payload.Items),
				Total:           total,
				Currency:        payload.Currency,
				CreatedAt:       time.Now().UTC(),
			}
			if err := pending.Save(r.Context(), session.ID, order); err != nil && logg != nil {
				logg.Error(r.Context(), "failed to save pending order", err)
			}
		}

		responses.WriteJSON(w, http.StatusOK, session)
	}
}

// VerifyPayment reports the processor's recorded state of a session without
// interpretation.
func VerifyPayment(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		verified, err := svc.VerifySession(r.Context(), r.URL.Query().Get("session_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, verified)
	}
}

func receiptItems(in []checkoutItemRequest) []receipts.Item {
	out := make([]receipts.Item, 0, len(in))
	for _, item := range in {
		out = append(out, receipts.Item{
			ProductID: item.ProductID,
			Title:     item.Title,
			Price:     item.Price,
			Quantity:  int(item.Quantity),
		})
	}
	return out
}
