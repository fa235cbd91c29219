// Package location acquires device positions with permission, timeout, and
// caching semantics.
package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/swipewise/internal/common"
	"github.com/Veraticus/swipewise/internal/model"
	"github.com/Veraticus/swipewise/internal/service"
)

const (
	defaultCacheTTL   = 30 * time.Second
	defaultFixTimeout = 10 * time.Second

	// maxAcceptableAccuracy is the accuracy ceiling in meters beyond which
	// a fix is too coarse to identify a merchant from.
	maxAcceptableAccuracy = 100.0
)

// Resolver acquires device positions. It owns a single-entry cache so that
// repeated resolutions within the TTL issue no device query.
type Resolver struct {
	device   service.DeviceLocator
	cached   *model.Position
	cachedAt time.Time
	ttl      time.Duration
	timeout  time.Duration
	mu       sync.Mutex
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCacheTTL overrides the position cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Resolver) { r.ttl = ttl }
}

// WithFixTimeout overrides the bounded wait for a fresh fix.
func WithFixTimeout(timeout time.Duration) Option {
	return func(r *Resolver) { r.timeout = timeout }
}

// NewResolver creates a resolver over the given device API.
func NewResolver(device service.DeviceLocator, opts ...Option) *Resolver {
	r := &Resolver{
		device:  device,
		ttl:     defaultCacheTTL,
		timeout: defaultFixTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the current position, serving from cache when the last fix
// is younger than the TTL. It fails with common.ErrPermissionDenied or
// common.ErrTimeout.
func (r *Resolver) Resolve(ctx context.Context) (model.Position, error) {
	if err := r.ensurePermission(ctx); err != nil {
		return model.Position{}, err
	}

	if pos, ok := r.fromCache(); ok {
		slog.Debug("Serving position from cache",
			"age", time.Since(r.cachedAt),
			"latitude", pos.Latitude,
			"longitude", pos.Longitude)
		return pos, nil
	}

	fixCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pos, err := r.device.CurrentPosition(fixCtx)
	if err != nil {
		// Degraded fallback: a stale last-known fix beats no fix at all.
		last, lastErr := r.device.LastKnownPosition(ctx)
		if lastErr == nil {
			slog.Warn("Fresh fix unavailable, using last known position", "error", err)
			last.FromCache = false
			return last, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return model.Position{}, fmt.Errorf("%w after %s", common.ErrTimeout, r.timeout)
		}
		return model.Position{}, fmt.Errorf("%w: %v", common.ErrTimeout, err)
	}

	if pos.CapturedAt.IsZero() {
		pos.CapturedAt = time.Now()
	}
	pos.FromCache = false

	r.mu.Lock()
	r.cached = &pos
	r.cachedAt = time.Now()
	r.mu.Unlock()

	return pos, nil
}

// ensurePermission checks the grant and requests it at most once.
func (r *Resolver) ensurePermission(ctx context.Context) error {
	status, err := r.device.PermissionStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read location permission: %w", err)
	}
	if status == service.PermissionGranted {
		return nil
	}

	status, err = r.device.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("failed to request location permission: %w", err)
	}
	if status != service.PermissionGranted {
		return common.ErrPermissionDenied
	}
	return nil
}

// fromCache returns a live cache entry, if any, flagged FromCache.
func (r *Resolver) fromCache() (model.Position, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached == nil || time.Since(r.cachedAt) > r.ttl {
		return model.Position{}, false
	}

	pos := *r.cached
	pos.FromCache = true
	return pos, true
}

// ClearCache evicts the cached position. Used by retry flows.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
	r.cachedAt = time.Time{}
}

// IsAccuracyAcceptable reports whether a fix is precise enough to identify a
// merchant: accuracy must be present and at most 100 meters.
func IsAccuracyAcceptable(accuracy *float64) bool {
	return accuracy != nil && *accuracy <= maxAcceptableAccuracy
}
