package store

import (
	"sync"

	"storefront-cart/internal/model"
	"storefront-cart/internal/pricing"

	"github.com/rs/zerolog"
)

// Subscriber receives a copy of the cart after every store write.
type Subscriber func(model.Cart)

// Store holds the session's cart: the single shared view that every consumer
// reads and only the mutation coordinator writes. It performs no I/O. Every
// write recomputes Total and ItemCount from the lines via the pricer, so a
// server summary with stale or missing aggregates can never be trusted into
// the client view.
type Store struct {
	mu          sync.RWMutex
	cart        model.Cart
	populated   bool
	subscribers map[int]Subscriber
	nextSubID   int
	pricer      *pricing.Pricer
	logger      zerolog.Logger
}

// New creates an empty, unpopulated store. The store stays unpopulated until
// the first Replace (the initial fetch after login).
func New(pricer *pricing.Pricer, logger zerolog.Logger) *Store {
	return &Store{
		subscribers: make(map[int]Subscriber),
		pricer:      pricer,
		logger:      logger.With().Str("component", "cart-store").Logger(),
	}
}

// Get returns a deep copy of the current cart, settled or in-flight
// optimistic. Callers cannot alias internal state through the copy.
func (s *Store) Get() model.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Populated reports whether the store has been filled by at least one
// Replace since creation or the last Reset.
func (s *Store) Populated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.populated
}

// Replace atomically swaps the whole cart, recomputing aggregates from the
// lines, and notifies subscribers synchronously.
func (s *Store) Replace(cart model.Cart) {
	s.mu.Lock()
	cart = cart.Clone()
	cart.Total = s.pricer.CartTotal(cart.Lines)
	cart.ItemCount = s.pricer.ItemCount(cart.Lines)
	s.cart = cart
	s.populated = true
	subs, snapshot := s.snapshotSubscribersLocked()
	s.mu.Unlock()

	s.logger.Debug().
		Int("lines", len(snapshot.Lines)).
		Str("total", snapshot.Total.String()).
		Int("item_count", snapshot.ItemCount).
		Msg("cart replaced")

	for _, notify := range subs {
		notify(snapshot)
	}
}

// ApplyOptimistic projects the current cart through a pure function and
// stores the result, recomputing aggregates. Used by the coordinator before
// a remote call returns so the UI reflects the change immediately.
func (s *Store) ApplyOptimistic(project func(model.Cart) model.Cart) {
	s.mu.Lock()
	next := project(s.cart.Clone())
	next.Total = s.pricer.CartTotal(next.Lines)
	next.ItemCount = s.pricer.ItemCount(next.Lines)
	s.cart = next
	s.populated = true
	subs, snapshot := s.snapshotSubscribersLocked()
	s.mu.Unlock()

	for _, notify := range subs {
		notify(snapshot)
	}
}

// Reset tears the store down to its unpopulated state (logout). Subscribers
// are notified with the empty cart so badges drop to zero.
func (s *Store) Reset() {
	s.mu.Lock()
	s.cart = model.Cart{}
	s.populated = false
	subs, snapshot := s.snapshotSubscribersLocked()
	s.mu.Unlock()

	s.logger.Debug().Msg("cart store reset")

	for _, notify := range subs {
		notify(snapshot)
	}
}

// Subscribe registers a subscriber and returns its unsubscribe function.
// Subscribers are invoked synchronously, outside the store lock, with a
// private copy of the cart.
func (s *Store) Subscribe(sub Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = sub

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// snapshotSubscribersLocked copies the subscriber list and the cart while
// the lock is held, so notification can run outside it.
func (s *Store) snapshotSubscribersLocked() ([]Subscriber, model.Cart) {
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	return subs, s.cart.Clone()
}
