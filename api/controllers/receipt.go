package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/olashile-studio/gallery-backend/api/responses"
	"github.com/olashile-studio/gallery-backend/api/validators"
	"github.com/olashile-studio/gallery-backend/internal/orders"
	"github.com/olashile-studio/gallery-backend/internal/receipts"
	pkgerrors "github.com/olashile-studio/gallery-backend/pkg/errors"
	"github.com/olashile-studio/gallery-backend/pkg/logger"
)

type receiptItemRequest struct {
	ProductID int             `json:"productId,omitempty"`
	Title     string          `json:"title" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
}

type sendReceiptRequest struct {
	OrderID         string               `json:"orderId" validate:"required"`
	SessionID       string               `json:"sessionId,omitempty"`
	CustomerName    string               `json:"customerName" validate:"required"`
	CustomerEmail   string               `json:"customerEmail" validate:"required,email"`
	ShippingAddress string               `json:"shippingAddress" validate:"required"`
	Items           []receiptItemRequest `json:"items" validate:"required,min=1,dive"`
	Total           decimal.Decimal      `json:"total" validate:"required"`
}

// SendReceipt dispatches the confirmation emails for an order the storefront
// supplies directly.
func SendReceipt(flow *orders.Flow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flow == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		var payload sendReceiptRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]receipts.Item, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, receipts.Item{
				ProductID: item.ProductID,
				Title:     item.Title,
				Price:     item.Price,
				Quantity:  item.Quantity,
			})
		}

		out, err := flow.SendReceipt(r.Context(), payload.SessionID, receipts.Order{
			OrderID:         payload.OrderID,
			CustomerName:    payload.CustomerName,
			CustomerEmail:   payload.CustomerEmail,
			ShippingAddress: payload.ShippingAddress,
			Items:           items,
			Total:           payload.Total,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, out)
	}
}

// ConfirmOrder settles a paid session end to end.
func ConfirmOrder(flow *orders.Flow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flow == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		out, err := flow.Confirm(r.Context(), r.URL.Query().Get("session_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, out)
	}
}
