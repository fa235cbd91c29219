package flow

import (
	"context"
	"sync"
	"time"

	"github.com/Veraticus/swipewise/internal/model"
	"github.com/Veraticus/swipewise/internal/wallet"
)

// MockLocation is a mock LocationResolver for testing.
type MockLocation struct {
	ResolveFn func(ctx context.Context) (model.Position, error)

	ResolveCalls    int
	ClearCacheCalls int
}

// Resolve implements LocationResolver.
func (m *MockLocation) Resolve(ctx context.Context) (model.Position, error) {
	m.ResolveCalls++
	if m.ResolveFn != nil {
		return m.ResolveFn(ctx)
	}
	acc := 12.0
	return model.Position{Latitude: 1.2802, Longitude: 103.8443, Accuracy: &acc}, nil
}

// ClearCache implements LocationResolver.
func (m *MockLocation) ClearCache() {
	m.ClearCacheCalls++
}

// MockMerchants is a mock MerchantResolver for testing.
type MockMerchants struct {
	DetectFn func(ctx context.Context, lat, lng float64, radiusMeters int) ([]model.Merchant, error)

	DetectCalls []int // radius per call
}

// Detect implements MerchantResolver.
func (m *MockMerchants) Detect(ctx context.Context, lat, lng float64, radiusMeters int) ([]model.Merchant, error) {
	m.DetectCalls = append(m.DetectCalls, radiusMeters)
	if m.DetectFn != nil {
		return m.DetectFn(ctx, lat, lng, radiusMeters)
	}
	return []model.Merchant{
		{
			Candidate: model.MerchantCandidate{Name: "Maxwell Food Centre", PlaceID: "place-1", RawTypes: []string{"restaurant", "food"}},
			Classification: model.ClassificationResult{
				CategoryID:   model.CategoryDining,
				CategoryName: model.CategoryDining.DisplayName(),
				Confidence:   model.ConfidenceHigh,
			},
		},
	}, nil
}

// MockRecommender is a mock service.Recommender for testing.
type MockRecommender struct {
	RecommendFn func(ctx context.Context, category model.Category) ([]model.Recommendation, error)

	mu             sync.Mutex
	RecommendCalls []model.Category
}

// Recommend implements service.Recommender.
func (m *MockRecommender) Recommend(ctx context.Context, category model.Category) ([]model.Recommendation, error) {
	m.mu.Lock()
	m.RecommendCalls = append(m.RecommendCalls, category)
	m.mu.Unlock()

	if m.RecommendFn != nil {
		return m.RecommendFn(ctx, category)
	}
	return []model.Recommendation{
		{CardID: "card-1", CardName: "Horizon Miles Visa", Bank: "Horizon", EarnRateMPD: 4.0, BaseRateMPD: 1.2, IsRecommended: true},
		{CardID: "card-2", CardName: "Atlas Rewards", Bank: "Atlas", EarnRateMPD: 2.0, BaseRateMPD: 1.0},
	}, nil
}

// Calls returns a snapshot of the recorded categories.
func (m *MockRecommender) Calls() []model.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Category(nil), m.RecommendCalls...)
}

// MockStorage is a mock service.Storage for testing.
type MockStorage struct {
	SaveTransactionFn      func(ctx context.Context, txn *model.Transaction) error
	GetMonthTransactionsFn func(ctx context.Context, userID, cardID string, month time.Time) ([]model.Transaction, error)
	GetCapRowsFn           func(ctx context.Context, cardID string) ([]model.CapRow, error)
	GetCardsFn             func(ctx context.Context) ([]model.Card, error)

	Saved []model.Transaction
}

// SaveTransaction implements service.Storage.
func (m *MockStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if m.SaveTransactionFn != nil {
		if err := m.SaveTransactionFn(ctx, txn); err != nil {
			return err
		}
	}
	m.Saved = append(m.Saved, *txn)
	return nil
}

// GetMonthTransactions implements service.Storage.
func (m *MockStorage) GetMonthTransactions(ctx context.Context, userID, cardID string, month time.Time) ([]model.Transaction, error) {
	if m.GetMonthTransactionsFn != nil {
		return m.GetMonthTransactionsFn(ctx, userID, cardID, month)
	}
	return append([]model.Transaction(nil), m.Saved...), nil
}

// GetCapRows implements service.Storage.
func (m *MockStorage) GetCapRows(ctx context.Context, cardID string) ([]model.CapRow, error) {
	if m.GetCapRowsFn != nil {
		return m.GetCapRowsFn(ctx, cardID)
	}
	return nil, nil
}

// GetCards implements service.Storage.
func (m *MockStorage) GetCards(ctx context.Context) ([]model.Card, error) {
	if m.GetCardsFn != nil {
		return m.GetCardsFn(ctx)
	}
	return nil, nil
}

// Migrate implements service.Storage.
func (m *MockStorage) Migrate(_ context.Context) error { return nil }

// Close implements service.Storage.
func (m *MockStorage) Close() error { return nil }

// MockWallet is a mock WalletBridge for testing.
type MockWallet struct {
	IsAvailableFn func(ctx context.Context) bool
	OpenFn        func(ctx context.Context) wallet.OpenResult

	IsAvailableCalls int
	OpenCalls        int
	FallbackCards    []string
}

// IsAvailable implements WalletBridge.
func (m *MockWallet) IsAvailable(ctx context.Context) bool {
	m.IsAvailableCalls++
	if m.IsAvailableFn != nil {
		return m.IsAvailableFn(ctx)
	}
	return true
}

// Open implements WalletBridge.
func (m *MockWallet) Open(ctx context.Context) wallet.OpenResult {
	m.OpenCalls++
	if m.OpenFn != nil {
		return m.OpenFn(ctx)
	}
	return wallet.OpenResult{Platform: "ios", Success: true}
}

// ShowFallback implements WalletBridge.
func (m *MockWallet) ShowFallback(cardName string) {
	m.FallbackCards = append(m.FallbackCards, cardName)
}

// RecordingAnalytics captures tracked events for assertions.
type RecordingAnalytics struct {
	mu     sync.Mutex
	events []TrackedEvent
}

// TrackedEvent is one captured analytics event.
type TrackedEvent struct {
	Props map[string]any
	Name  string
}

// Track implements service.Analytics.
func (a *RecordingAnalytics) Track(event string, props map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, TrackedEvent{Name: event, Props: props})
}

// Events returns a snapshot of the captured events.
func (a *RecordingAnalytics) Events() []TrackedEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]TrackedEvent(nil), a.events...)
}

// Names returns the captured event names in order.
func (a *RecordingAnalytics) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, len(a.events))
	for i, e := range a.events {
		names[i] = e.Name
	}
	return names
}

// ManualLifecycle is a service.Lifecycle tests can fire by hand.
type ManualLifecycle struct {
	mu          sync.Mutex
	subscribers map[int]func(at time.Time)
	next        int
}

// SubscribeForeground implements service.Lifecycle.
func (l *ManualLifecycle) SubscribeForeground(fn func(at time.Time)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subscribers == nil {
		l.subscribers = make(map[int]func(at time.Time))
	}
	id := l.next
	l.next++
	l.subscribers[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subscribers, id)
	}
}

// Fire delivers a foreground-return event to all subscribers.
func (l *ManualLifecycle) Fire(at time.Time) {
	l.mu.Lock()
	fns := make([]func(time.Time), 0, len(l.subscribers))
	for _, fn := range l.subscribers {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(at)
	}
}

// SubscriberCount reports the number of live subscriptions.
func (l *ManualLifecycle) SubscriberCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subscribers)
}
