package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshWindow is the minimum interval between unconditional cart
// refetches.
const DefaultRefreshWindow = 3 * time.Second

// RefreshThrottle rate-limits unconditional cart refetches. Several UI
// consumers (nav badge, cart page) each ask for a fresh cart on mount or
// focus; without coalescing that produces bursts of identical requests.
// Calls inside the window are dropped, not queued; the prior settle is
// considered fresh enough. Concurrent calls outside the window collapse
// into a single in-flight refetch.
type RefreshThrottle struct {
	window  time.Duration
	refresh func(context.Context) error
	logger  zerolog.Logger

	mu    sync.Mutex
	last  time.Time
	group singleflight.Group
}

// NewRefreshThrottle creates a throttle around refresh. A non-positive
// window falls back to DefaultRefreshWindow.
func NewRefreshThrottle(window time.Duration, refresh func(context.Context) error, logger zerolog.Logger) *RefreshThrottle {
	if window <= 0 {
		window = DefaultRefreshWindow
	}
	return &RefreshThrottle{
		window:  window,
		refresh: refresh,
		logger:  logger.With().Str("component", "refresh-throttle").Logger(),
	}
}

// RequestRefresh triggers a cart refetch unless one settled within the
// window. Dropped and coalesced calls return nil. The window only stamps on
// a successful refetch, so a failed one does not suppress the next attempt.
func (t *RefreshThrottle) RequestRefresh(ctx context.Context) error {
	t.mu.Lock()
	if !t.last.IsZero() && time.Since(t.last) < t.window {
		t.mu.Unlock()
		t.logger.Debug().Msg("refresh dropped, inside throttle window")
		return nil
	}
	t.mu.Unlock()

	_, err, shared := t.group.Do("cart-refresh", func() (interface{}, error) {
		return nil, t.flight(ctx)
	})

	if shared {
		t.logger.Debug().Msg("refresh coalesced with in-flight call")
	}
	return err
}

// flight runs one refetch and stamps the window on success. The window is
// re-checked here because a caller can pass the check in RequestRefresh
// just as the previous winner stamps; its flight then starts after the
// stamp and must not refetch back-to-back.
func (t *RefreshThrottle) flight(ctx context.Context) error {
	t.mu.Lock()
	if !t.last.IsZero() && time.Since(t.last) < t.window {
		t.mu.Unlock()
		t.logger.Debug().Msg("refresh dropped, window stamped while queued")
		return nil
	}
	t.mu.Unlock()

	if err := t.refresh(ctx); err != nil {
		return err
	}

	t.mu.Lock()
	t.last = time.Now()
	t.mu.Unlock()
	return nil
}
