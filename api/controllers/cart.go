package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/olashile-studio/gallery-backend/api/responses"
	"github.com/olashile-studio/gallery-backend/api/validators"
	"github.com/olashile-studio/gallery-backend/internal/cart"
	"github.com/olashile-studio/gallery-backend/internal/catalog"
	pkgerrors "github.com/olashile-studio/gallery-backend/pkg/errors"
	"github.com/olashile-studio/gallery-backend/pkg/logger"
)

type addItemRequest struct {
	ProductID int    `json:"productId" validate:"required,min=1"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Frame     string `json:"frame,omitempty"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

type cartResponse struct {
	cart.Snapshot
	Total decimal.Decimal `json:"total"`
}

// AddCartItem resolves the product and frame variant server-side, so the
// client can never invent a price, and reserves the quantity against stock.
func AddCartItem(engine *cart.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID := chi.URLParam(r, "cartID")

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, ok := catalog.Lookup(payload.ProductID)
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeNotFound, "unknown product "+strconv.Itoa(payload.ProductID)))
			return
		}

		line := cart.Line{
			Key:       cart.LineKey(product.ID, -1),
			ProductID: product.ID,
			Title:     product.Title,
			UnitPrice: product.Price,
			Quantity:  payload.Quantity,
		}
		if payload.Frame != "" {
			frame, idx, ok := catalog.FrameByName(payload.Frame)
			if !ok {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown frame option "+payload.Frame))
				return
			}
			line.Key = cart.LineKey(product.ID, idx)
			line.Frame = frame.Name
			line.FramePrice = frame.Price
			line.UnitPrice = product.Price.Add(frame.Price)
		}

		snap, err := engine.Add(r.Context(), cartID, line)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, engine, cartID, snap)
	}
}

func UpdateCartItem(engine *cart.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID := chi.URLParam(r, "cartID")
		key, err := strconv.Atoi(chi.URLParam(r, "key"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line key must be an integer"))
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := engine.UpdateQuantity(r.Context(), cartID, key, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, engine, cartID, snap)
	}
}

func RemoveCartItem(engine *cart.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID := chi.URLParam(r, "cartID")
		key, err := strconv.Atoi(chi.URLParam(r, "key"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line key must be an integer"))
			return
		}

		snap, err := engine.Remove(r.Context(), cartID, key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, engine, cartID, snap)
	}
}

func ClearCart(engine *cart.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID := chi.URLParam(r, "cartID")
		snap, err := engine.Clear(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, engine, cartID, snap)
	}
}

func GetCart(engine *cart.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID := chi.URLParam(r, "cartID")
		writeCart(w, r, engine, cartID, engine.Get(r.Context(), cartID))
	}
}

func ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"products":     catalog.All(),
			"frameOptions": catalog.Frames(),
		})
	}
}

func ProductStock(engine *cart.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id must be an integer"))
			return
		}
		if _, ok := catalog.Lookup(id); !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "unknown product "+strconv.Itoa(id)))
			return
		}
		responses.WriteJSON(w, http.StatusOK, map[string]int{
			"id":    id,
			"stock": engine.Stock(r.Context(), id),
		})
	}
}

func writeCart(w http.ResponseWriter, r *http.Request, engine *cart.Engine, cartID string, snap cart.Snapshot) {
	responses.WriteJSON(w, http.StatusOK, cartResponse{
		Snapshot: snap,
		Total:    engine.Total(r.Context(), cartID),
	})
}
