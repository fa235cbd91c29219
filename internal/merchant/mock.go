package merchant

import (
	"context"

	"github.com/Veraticus/swipewise/internal/model"
)

// MockSearcher is a mock implementation of service.PlacesSearcher for testing.
type MockSearcher struct {
	// Functions that can be set by tests to control behavior
	NearbySearchFn func(ctx context.Context, lat, lng float64, radiusMeters int) ([]model.MerchantCandidate, error)

	// Call tracking
	NearbySearchCalls []NearbySearchCall
}

// NearbySearchCall records the parameters of a NearbySearch call.
type NearbySearchCall struct {
	Lat          float64
	Lng          float64
	RadiusMeters int
}

// NewMockSearcher creates a new mock places searcher.
func NewMockSearcher() *MockSearcher {
	return &MockSearcher{
		NearbySearchCalls: []NearbySearchCall{},
	}
}

// NearbySearch implements service.PlacesSearcher.
func (m *MockSearcher) NearbySearch(ctx context.Context, lat, lng float64, radiusMeters int) ([]model.MerchantCandidate, error) {
	m.NearbySearchCalls = append(m.NearbySearchCalls, NearbySearchCall{
		Lat:          lat,
		Lng:          lng,
		RadiusMeters: radiusMeters,
	})

	if m.NearbySearchFn != nil {
		return m.NearbySearchFn(ctx, lat, lng, radiusMeters)
	}

	return []model.MerchantCandidate{}, nil
}
