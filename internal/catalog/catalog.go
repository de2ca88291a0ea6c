// Package catalog holds the static artwork catalog. It is the storefront's
// external data boundary: the engine seeds its stock ledger from the declared
// stock here and never writes back.
package catalog

import "github.com/shopspring/decimal"

// Product is one artwork in the shop.
type Product struct {
	ID     int             `json:"id"`
	Title  string          `json:"title"`
	Artist string          `json:"artist"`
	Price  decimal.Decimal `json:"price"` // base currency (USD)
	Image  string          `json:"image"`
	Stock  int             `json:"stock"`
}

// FrameOption is a print-size variant with a surcharge over the base price.
type FrameOption struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

var products = []Product{
	{ID: 1, Title: "Onídìrí", Artist: "Adisa Olashile", Price: decimal.NewFromInt(450), Image: "/image10.jpg", Stock: 30},
	{ID: 2, Title: "Shades of Innocence", Artist: "Adisa Olashile", Price: decimal.NewFromInt(675), Image: "/image6.jpg", Stock: 2},
	{ID: 3, Title: "Onídìrí (2)", Artist: "Adisa Olashile", Price: decimal.NewFromInt(520), Image: "/image9.jpg", Stock: 1},
}

var frameOptions = []FrameOption{
	{Name: "A0", Price: decimal.NewFromInt(100)},
	{Name: "A1", Price: decimal.NewFromInt(75)},
	{Name: "A2", Price: decimal.NewFromInt(50)},
	{Name: "A3", Price: decimal.NewFromInt(25)},
}

// All returns the full catalog.
func All() []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}

// Lookup returns a product by id.
func Lookup(id int) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Frames returns the available frame variants.
func Frames() []FrameOption {
	out := make([]FrameOption, len(frameOptions))
	copy(out, frameOptions)
	return out
}

// FrameByName resolves a frame variant; the boolean reports whether it exists.
func FrameByName(name string) (FrameOption, int, bool) {
	for i, f := range frameOptions {
		if f.Name == name {
			return f, i, true
		}
	}
	return FrameOption{}, -1, false
}

// DeclaredStock maps product id to the catalog-declared stock, the initial
// state of the inventory ledger.
func DeclaredStock() map[int]int {
	out := make(map[int]int, len(products))
	for _, p := range products {
		out[p.ID] = p.Stock
	}
	return out
}
