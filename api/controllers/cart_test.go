package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/olashile-studio/gallery-backend/internal/cart"
	"github.com/olashile-studio/gallery-backend/internal/catalog"
)

func newCartRouter(t *testing.T) (*chi.Mux, *cart.Engine) {
	t.Helper()
	store, err := cart.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	engine, err := cart.NewEngine(context.Background(), store, catalog.DeclaredStock(), nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", ListProducts())
		r.Get("/products/{id}/stock", ProductStock(engine, nil))
		r.Route("/cart/{cartID}", func(r chi.Router) {
			r.Get("/", GetCart(engine, nil))
			r.Delete("/", ClearCart(engine, nil))
			r.Post("/items", AddCartItem(engine, nil))
			r.Patch("/items/{key}", UpdateCartItem(engine, nil))
			r.Delete("/items/{key}", RemoveCartItem(engine, nil))
		})
	})
	return r, engine
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeCart(t *testing.T, resp *httptest.ResponseRecorder) cartResponse {
	t.Helper()
	var out cartResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode cart response: %v", err)
	}
	return out
}

func stockOf(out cartResponse, productID int) int {
	for _, s := range out.Stocks {
		if s.ProductID == productID {
			return s.Remaining
		}
	}
	return -1
}

func TestAddCartItemReservesStock(t *testing.T) {
	r, _ := newCartRouter(t)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/cart/c1/items", `{"productId":2,"quantity":1,"frame":"A2"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	out := decodeCart(t, resp)
	if len(out.Lines) != 1 {
		t.Fatalf("expected 1 line got %d", len(out.Lines))
	}
	line := out.Lines[0]
	if line.Key != 22 {
		t.Fatalf("expected composite key 22 got %d", line.Key)
	}
	if line.Frame != "A2" {
		t.Fatalf("expected frame A2 got %q", line.Frame)
	}
	// 675 base + 50 surcharge, priced server-side.
	if line.UnitPrice.String() != "725" {
		t.Fatalf("expected unit price 725 got %s", line.UnitPrice)
	}
	if stockOf(out, 2) != 1 {
		t.Fatalf("expected remaining stock 1 got %d", stockOf(out, 2))
	}
	if out.Total.String() != "725" {
		t.Fatalf("expected total 725 got %s", out.Total)
	}
}

func TestAddCartItemInsufficientStock(t *testing.T) {
	r, _ := newCartRouter(t)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/cart/c1/items", `{"productId":3,"quantity":2}`)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	// Nothing was reserved.
	stock := doJSON(t, r, http.MethodGet, "/api/v1/products/3/stock", "")
	var body map[string]int
	if err := json.NewDecoder(stock.Body).Decode(&body); err != nil {
		t.Fatalf("decode stock: %v", err)
	}
	if body["stock"] != 1 {
		t.Fatalf("expected stock 1 got %d", body["stock"])
	}
}

func TestAddCartItemUnknownProduct(t *testing.T) {
	r, _ := newCartRouter(t)
	resp := doJSON(t, r, http.MethodPost, "/api/v1/cart/c1/items", `{"productId":99,"quantity":1}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAddCartItemUnknownFrame(t *testing.T) {
	r, _ := newCartRouter(t)
	resp := doJSON(t, r, http.MethodPost, "/api/v1/cart/c1/items", `{"productId":1,"quantity":1,"frame":"A9"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateCartItemQuantity(t *testing.T) {
	r, _ := newCartRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/cart/c1/items", `{"productId":2,"quantity":1}`)
	resp := doJSON(t, r, http.MethodPatch, "/api/v1/cart/c1/items/2", `{"quantity":2}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	out := decodeCart(t, resp)
	if out.Lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2 got %d", out.Lines[0].Quantity)
	}
	if stockOf(out, 2) != 0 {
		t.Fatalf("expected remaining stock 0 got %d", stockOf(out, 2))
	}
}

func TestUpdateCartItemToZeroRemovesLine(t *testing.T) {
	r, _ := newCartRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/cart/c1/items", `{"productId":2,"quantity":2}`)
	resp := doJSON(t, r, http.MethodPatch, "/api/v1/cart/c1/items/2", `{"quantity":0}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	out := decodeCart(t, resp)
	if len(out.Lines) != 0 {
		t.Fatalf("expected empty cart got %d lines", len(out.Lines))
	}
	if stockOf(out, 2) != 2 {
		t.Fatalf("expected stock restored to 2 got %d", stockOf(out, 2))
	}
}

func TestRemoveCartItemRestoresStock(t *testing.T) {
	r, _ := newCartRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/cart/c1/items", `{"productId":2,"quantity":2}`)
	resp := doJSON(t, r, http.MethodDelete, "/api/v1/cart/c1/items/2", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	out := decodeCart(t, resp)
	if stockOf(out, 2) != 2 {
		t.Fatalf("expected stock restored to 2 got %d", stockOf(out, 2))
	}
}

func TestRemoveMissingCartItem(t *testing.T) {
	r, _ := newCartRouter(t)
	resp := doJSON(t, r, http.MethodDelete, "/api/v1/cart/c1/items/2", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestClearCart(t *testing.T) {
	r, _ := newCartRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/cart/c1/items", `{"productId":1,"quantity":3}`)
	doJSON(t, r, http.MethodPost, "/api/v1/cart/c1/items", `{"productId":2,"quantity":1}`)

	resp := doJSON(t, r, http.MethodDelete, "/api/v1/cart/c1", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	out := decodeCart(t, resp)
	if len(out.Lines) != 0 {
		t.Fatalf("expected empty cart got %d lines", len(out.Lines))
	}
	if stockOf(out, 1) != 30 || stockOf(out, 2) != 2 {
		t.Fatalf("expected stock restored, got %d and %d", stockOf(out, 1), stockOf(out, 2))
	}
}

func TestListProducts(t *testing.T) {
	r, _ := newCartRouter(t)
	resp := doJSON(t, r, http.MethodGet, "/api/v1/products", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var body struct {
		Products     []catalog.Product     `json:"products"`
		FrameOptions []catalog.FrameOption `json:"frameOptions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	if len(body.Products) != 3 {
		t.Fatalf("expected 3 products got %d", len(body.Products))
	}
	if len(body.FrameOptions) != 4 {
		t.Fatalf("expected 4 frame options got %d", len(body.FrameOptions))
	}
}

func TestProductStockUnknownProduct(t *testing.T) {
	r, _ := newCartRouter(t)
	resp := doJSON(t, r, http.MethodGet, "/api/v1/products/99/stock", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
