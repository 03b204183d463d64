package model

import "github.com/shopspring/decimal"

// Kind discriminates the three purchasable entity kinds a cart line can
// reference. Bundles and gift boxes are structurally identical but are
// distinct kinds: they live in separate backend collections and are never
// merged even if their IDs collide.
type Kind string

const (
	KindProduct Kind = "product"
	KindBundle  Kind = "bundle"
	KindGiftBox Kind = "giftbox"
)

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	return k == KindProduct || k == KindBundle || k == KindGiftBox
}

// ProductSnapshot is the product data embedded in a cart line. The price is
// the one captured at add-time or last refresh, not a live repricing lookup.
type ProductSnapshot struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
	Image string          `json:"image,omitempty"`
}

// Component is one entry in a bundle's fixed composition list.
type Component struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// BundleSnapshot is the bundle or gift-box data embedded in a cart line.
// The price is per bundle; component quantities do not affect it.
type BundleSnapshot struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Components []Component     `json:"components,omitempty"`
}

// LineItem is one entry in the cart: a tagged union over the three kinds.
// Exactly one of Product or Bundle is set; Bundle serves both bundle and
// gift-box lines, with Kind telling them apart.
type LineItem struct {
	Kind     Kind             `json:"kind"`
	Product  *ProductSnapshot `json:"product,omitempty"`
	Bundle   *BundleSnapshot  `json:"bundle,omitempty"`
	Quantity int              `json:"quantity"`
}

// LineKey is the unique identity of a cart line. A cart holds at most one
// line per key; repeated adds merge into the existing line.
type LineKey struct {
	Kind Kind
	ID   string
}

// Key returns the identifying key for the line. Lines missing their snapshot
// yield a key with an empty ID; such lines never match a well-formed key.
func (li LineItem) Key() LineKey {
	switch li.Kind {
	case KindProduct:
		if li.Product != nil {
			return LineKey{Kind: KindProduct, ID: li.Product.ID}
		}
	case KindBundle, KindGiftBox:
		if li.Bundle != nil {
			return LineKey{Kind: li.Kind, ID: li.Bundle.ID}
		}
	}
	return LineKey{Kind: li.Kind}
}

// Clone returns a deep copy of the line item.
func (li LineItem) Clone() LineItem {
	out := li
	if li.Product != nil {
		p := *li.Product
		out.Product = &p
	}
	if li.Bundle != nil {
		b := *li.Bundle
		b.Components = make([]Component, len(li.Bundle.Components))
		copy(b.Components, li.Bundle.Components)
		out.Bundle = &b
	}
	return out
}

// Cart is the client-resident mirror of the user's server cart. Total and
// ItemCount are derived from Lines on every settle, never stored
// independently of their derivation.
type Cart struct {
	Lines     []LineItem      `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

// Clone returns a deep copy of the cart, suitable for mutation snapshots.
func (c Cart) Clone() Cart {
	out := c
	out.Lines = make([]LineItem, len(c.Lines))
	for i, li := range c.Lines {
		out.Lines[i] = li.Clone()
	}
	return out
}

// FindLine returns the index of the line matching key, or -1.
func (c Cart) FindLine(key LineKey) int {
	for i, li := range c.Lines {
		if li.Key() == key {
			return i
		}
	}
	return -1
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}
