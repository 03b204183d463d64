package engine

import (
	"context"
	"sync"

	"storefront-cart/internal/api"
	"storefront-cart/internal/model"
	"storefront-cart/internal/store"

	"github.com/rs/zerolog"
)

// Coordinator runs every cart mutation through a single optimistic-update
// contract: validate, snapshot, project locally so the UI updates at once,
// dispatch the one remote call for the intent and kind, then settle by
// refetching server truth on success or rolling back to the snapshot on
// failure. It is the only writer of the cart store.
//
// Mutations against the cart are serialized: a second mutation waits for the
// first to settle, so a rollback can never revert over another mutation's
// optimistic write.
type Coordinator struct {
	store   *store.Store
	client  api.Client
	catalog Catalog
	logger  zerolog.Logger

	// mu serializes the snapshot/settle cycle per cart.
	mu sync.Mutex
}

// NewCoordinator creates a new mutation coordinator. catalog may be nil;
// optimistic appends then carry zero-price placeholders until settle.
func NewCoordinator(st *store.Store, client api.Client, catalog Catalog, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:   st,
		client:  client,
		catalog: catalog,
		logger:  logger.With().Str("component", "mutation-coordinator").Logger(),
	}
}

// Add adds quantity units of the identified item, merging into an existing
// line for the same kind and ID rather than duplicating it.
func (c *Coordinator) Add(ctx context.Context, kind model.Kind, id string, quantity int) error {
	if err := validateRef(kind, id); err != nil {
		return err
	}
	if quantity < 1 {
		return model.ErrInvalidQuantity
	}

	key := model.LineKey{Kind: kind, ID: id}
	return c.mutate(ctx, "add", nil,
		func(cart model.Cart) model.Cart {
			if i := cart.FindLine(key); i >= 0 {
				cart.Lines[i].Quantity += quantity
				return cart
			}
			cart.Lines = append(cart.Lines, c.optimisticLine(kind, id, quantity))
			return cart
		},
		func(ctx context.Context) error {
			return c.client.AddItem(ctx, kind, id, quantity)
		})
}

// UpdateQuantity sets the quantity on an existing line.
func (c *Coordinator) UpdateQuantity(ctx context.Context, kind model.Kind, id string, quantity int) error {
	if err := validateRef(kind, id); err != nil {
		return err
	}
	if quantity < 1 {
		return model.ErrInvalidQuantity
	}

	key := model.LineKey{Kind: kind, ID: id}
	return c.mutate(ctx, "update", requireLine(key),
		func(cart model.Cart) model.Cart {
			if i := cart.FindLine(key); i >= 0 {
				cart.Lines[i].Quantity = quantity
			}
			return cart
		},
		func(ctx context.Context) error {
			return c.client.UpdateItem(ctx, kind, id, quantity)
		})
}

// Remove removes the identified line from the cart.
func (c *Coordinator) Remove(ctx context.Context, kind model.Kind, id string) error {
	if err := validateRef(kind, id); err != nil {
		return err
	}

	key := model.LineKey{Kind: kind, ID: id}
	return c.mutate(ctx, "remove", requireLine(key),
		func(cart model.Cart) model.Cart {
			filtered := cart.Lines[:0]
			for _, line := range cart.Lines {
				if line.Key() != key {
					filtered = append(filtered, line)
				}
			}
			cart.Lines = filtered
			return cart
		},
		func(ctx context.Context) error {
			return c.client.RemoveItem(ctx, kind, id)
		})
}

// Clear empties the cart. Clearing an already-empty cart succeeds.
func (c *Coordinator) Clear(ctx context.Context) error {
	return c.mutate(ctx, "clear", nil,
		func(cart model.Cart) model.Cart {
			cart.Lines = nil
			return cart
		},
		func(ctx context.Context) error {
			return c.client.ClearCart(ctx)
		})
}

// Refresh replaces the store with the canonical server cart.
func (c *Coordinator) Refresh(ctx context.Context) error {
	serverCart, err := c.client.FetchCart(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cart refresh failed")
		return err
	}
	c.store.Replace(serverCart)
	return nil
}

// mutate runs one mutation through the snapshot / optimistic-write / remote
// call / settle cycle. On remote failure the store is restored to the exact
// pre-mutation snapshot and the classified error returned; callers only need
// to branch on "did it roll back".
//
// precheck runs against the snapshot under the serialization mutex, so it
// sees the same cart the projection will. A check done before mutate could
// pass against a cart another mutation is about to replace.
func (c *Coordinator) mutate(
	ctx context.Context,
	intent string,
	precheck func(model.Cart) error,
	project func(model.Cart) model.Cart,
	remote func(context.Context) error,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger := c.logger.With().Str("intent", intent).Logger()

	prev := c.store.Get()

	if precheck != nil {
		if err := precheck(prev); err != nil {
			return err
		}
	}

	optimistic, ok := safeProject(prev.Clone(), project, logger)
	if !ok {
		// A projection crash means malformed line data; a stale cart beats a
		// crashed one, so leave prev in place and report nothing.
		return nil
	}
	c.store.Replace(optimistic)

	if err := remote(ctx); err != nil {
		logger.Warn().Err(err).Msg("remote call failed, rolling back")
		c.store.Replace(prev)
		return err
	}

	// Server truth wins on settle: stock checks, repricing or gift
	// thresholds may have changed the authoritative cart in ways the
	// optimistic projection cannot know.
	serverCart, err := c.client.FetchCart(ctx)
	if err != nil {
		// The mutation itself succeeded, so rolling back would diverge from
		// the server. Keep the optimistic view and surface the fetch error;
		// the next refresh reconciles.
		logger.Warn().Err(err).Msg("settle refetch failed, keeping optimistic state")
		return err
	}
	c.store.Replace(serverCart)

	logger.Debug().Msg("mutation settled")
	return nil
}

// optimisticLine builds the line appended by an optimistic add, filled from
// the catalogue when an entry exists.
func (c *Coordinator) optimisticLine(kind model.Kind, id string, quantity int) model.LineItem {
	line := model.LineItem{Kind: kind, Quantity: quantity}

	switch kind {
	case model.KindProduct:
		if c.catalog != nil {
			if p, ok := c.catalog.Product(id); ok {
				snapshot := p.Snapshot()
				line.Product = &snapshot
				return line
			}
		}
		line.Product = &model.ProductSnapshot{ID: id}
	case model.KindBundle, model.KindGiftBox:
		if c.catalog != nil {
			if b, ok := c.catalog.Bundle(kind, id); ok {
				snapshot := b.Snapshot()
				line.Bundle = &snapshot
				return line
			}
		}
		line.Bundle = &model.BundleSnapshot{ID: id}
	}
	return line
}

// safeProject applies the projection, converting a panic into a logged
// no-op.
func safeProject(cart model.Cart, project func(model.Cart) model.Cart, logger zerolog.Logger) (out model.Cart, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("projection panicked, leaving cart untouched")
			ok = false
		}
	}()
	return project(cart), true
}

// requireLine is the precheck for mutations that target an existing line.
func requireLine(key model.LineKey) func(model.Cart) error {
	return func(cart model.Cart) error {
		if cart.FindLine(key) < 0 {
			return model.ErrLineNotFound
		}
		return nil
	}
}

// validateRef rejects unknown kinds and empty IDs before any store write or
// network call.
func validateRef(kind model.Kind, id string) error {
	if !kind.Valid() {
		return model.ErrInvalidKind
	}
	if id == "" {
		return model.ErrLineNotFound
	}
	return nil
}
