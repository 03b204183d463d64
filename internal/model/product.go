package model

import "github.com/shopspring/decimal"

// Product represents a catalogue product as known to the client. Cart lines
// embed a snapshot of this data rather than referencing it live.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Image    string          `json:"image,omitempty"`
	Category string          `json:"category,omitempty"`
}

// Snapshot converts the catalogue entry into the form embedded in a cart line.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Stock: p.Stock,
		Image: p.Image,
	}
}

// Bundle represents a fixed-price, fixed-composition purchasable group in
// the catalogue. Gift boxes share this shape; the Kind on the cart line
// distinguishes them.
type Bundle struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Components []Component     `json:"components,omitempty"`
}

// Snapshot converts the catalogue entry into the form embedded in a cart line.
func (b Bundle) Snapshot() BundleSnapshot {
	components := make([]Component, len(b.Components))
	copy(components, b.Components)
	return BundleSnapshot{
		ID:         b.ID,
		Name:       b.Name,
		Price:      b.Price,
		Components: components,
	}
}
