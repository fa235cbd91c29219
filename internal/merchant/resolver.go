package merchant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/swipewise/internal/common"
	"github.com/Veraticus/swipewise/internal/model"
	"github.com/Veraticus/swipewise/internal/service"
)

const defaultCacheTTL = 5 * time.Minute

// Resolver detects nearby merchants and classifies them. It owns a TTL cache
// keyed by rounded coordinate cell so repeated detections at the same spot
// skip the external lookup.
type Resolver struct {
	places service.PlacesSearcher
	cache  *resultCache
}

// NewResolver creates a resolver over the given nearby-places lookup.
func NewResolver(places service.PlacesSearcher) *Resolver {
	return NewResolverWithTTL(places, defaultCacheTTL)
}

// NewResolverWithTTL creates a resolver with a custom cache TTL.
func NewResolverWithTTL(places service.PlacesSearcher, ttl time.Duration) *Resolver {
	return &Resolver{
		places: places,
		cache:  newResultCache(ttl),
	}
}

// Detect looks up merchants near the coordinate and classifies each one,
// preserving the lookup's own ranking. It fails with common.ErrNoResults when
// the lookup errors or returns nothing.
func (r *Resolver) Detect(ctx context.Context, lat, lng float64, radiusMeters int) ([]model.Merchant, error) {
	key := cellKey(lat, lng)

	if merchants, ok := r.cache.get(key); ok {
		slog.Debug("Serving merchants from cache", "cell", key, "count", len(merchants))
		return merchants, nil
	}

	candidates, err := r.places.NearbySearch(ctx, lat, lng, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNoResults, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w within %dm", common.ErrNoResults, radiusMeters)
	}

	merchants := make([]model.Merchant, len(candidates))
	for i, candidate := range candidates {
		merchants[i] = model.Merchant{
			Candidate:      candidate,
			Classification: Classify(candidate.RawTypes),
		}
	}

	r.cache.set(key, merchants)

	slog.Info("Detected nearby merchants",
		"cell", key,
		"count", len(merchants),
		"top", merchants[0].Candidate.Name,
		"category", merchants[0].Classification.CategoryID)

	return merchants, nil
}

// ClearCache drops all cached detection results. Used by retry flows.
func (r *Resolver) ClearCache() {
	r.cache.clear()
}

// Close stops the cache's cleanup goroutine.
func (r *Resolver) Close() {
	r.cache.close()
}

// cellKey buckets a coordinate into a ~11m grid cell. Fixes within the same
// cell share a cache entry.
func cellKey(lat, lng float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lng)
}
