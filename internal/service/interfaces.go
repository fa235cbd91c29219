// Package service defines the interfaces for all external collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/swipewise/internal/model"
)

// PermissionStatus is the state of the location permission grant.
type PermissionStatus string

// Permission states reported by the device.
const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// DeviceLocator is the device geolocation API: permission handling plus
// one-shot and last-known position fetches.
type DeviceLocator interface {
	PermissionStatus(ctx context.Context) (PermissionStatus, error)
	RequestPermission(ctx context.Context) (PermissionStatus, error)
	CurrentPosition(ctx context.Context) (model.Position, error)
	LastKnownPosition(ctx context.Context) (model.Position, error)
}

// PlacesSearcher looks up nearby places for a coordinate and radius. The
// returned order is the searcher's own ranking and is preserved downstream.
type PlacesSearcher interface {
	NearbySearch(ctx context.Context, lat, lng float64, radiusMeters int) ([]model.MerchantCandidate, error)
}

// Recommender fetches the ranked card recommendations for a category.
type Recommender interface {
	Recommend(ctx context.Context, category model.Category) ([]model.Recommendation, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	GetMonthTransactions(ctx context.Context, userID, cardID string, month time.Time) ([]model.Transaction, error)
	GetCapRows(ctx context.Context, cardID string) ([]model.CapRow, error)
	GetCards(ctx context.Context) ([]model.Card, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Lifecycle publishes app foreground-return events. Subscribers receive the
// wall-clock time the app returned to the foreground.
type Lifecycle interface {
	SubscribeForeground(fn func(at time.Time)) (unsubscribe func())
}

// Analytics is a fire-and-forget event sink. Track must never block the
// caller; delivery is best-effort.
type Analytics interface {
	Track(event string, props map[string]any)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
