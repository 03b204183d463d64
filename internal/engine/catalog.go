package engine

import (
	"sync"

	"storefront-cart/internal/model"
)

// Catalog supplies best-available local data when the coordinator appends an
// optimistic line for an item the cart has not seen yet. A miss is fine: the
// optimistic line carries a zero-price placeholder that the post-refetch
// settle corrects.
type Catalog interface {
	// Product looks up a catalogue product by ID.
	Product(id string) (model.Product, bool)

	// Bundle looks up a catalogue bundle or gift box by kind and ID.
	Bundle(kind model.Kind, id string) (model.Bundle, bool)
}

// MemoryCatalog is an in-memory Catalog fed from product/bundle listings as
// the host application browses them.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]model.Product
	bundles  map[model.LineKey]model.Bundle
}

// NewMemoryCatalog creates an empty in-memory catalogue.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		products: make(map[string]model.Product),
		bundles:  make(map[model.LineKey]model.Bundle),
	}
}

// PutProduct records a catalogue product.
func (c *MemoryCatalog) PutProduct(p model.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

// PutBundle records a catalogue bundle or gift box under its kind.
func (c *MemoryCatalog) PutBundle(kind model.Kind, b model.Bundle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bundles[model.LineKey{Kind: kind, ID: b.ID}] = b
}

func (c *MemoryCatalog) Product(id string) (model.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	return p, ok
}

func (c *MemoryCatalog) Bundle(kind model.Kind, id string) (model.Bundle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bundles[model.LineKey{Kind: kind, ID: id}]
	return b, ok
}
