package flow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/swipewise/internal/common"
	"github.com/Veraticus/swipewise/internal/model"
	"github.com/Veraticus/swipewise/internal/wallet"
)

type fixture struct {
	location    *MockLocation
	merchants   *MockMerchants
	recommender *MockRecommender
	wallet      *MockWallet
	storage     *MockStorage
	analytics   *RecordingAnalytics
	lifecycle   *ManualLifecycle
	controller  *Controller
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		location:    &MockLocation{},
		merchants:   &MockMerchants{},
		recommender: &MockRecommender{},
		wallet:      &MockWallet{},
		storage:     &MockStorage{},
		analytics:   &RecordingAnalytics{},
		lifecycle:   &ManualLifecycle{},
	}
	if cfg.UserID == "" {
		cfg.UserID = "user-1"
	}
	f.controller = NewController(
		f.location, f.merchants, f.recommender, f.wallet,
		f.storage, f.analytics, f.lifecycle, cfg,
	)
	return f
}

// advanceToLogging drives a fixture through the happy path up to the logging
// state.
func advanceToLogging(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.controller.Start(ctx))
	require.NoError(t, f.controller.ConfirmCategory(ctx))
	require.NoError(t, f.controller.OpenWallet(ctx))
	f.controller.WalletReturned(time.Now())
	require.Equal(t, StateLogging, f.controller.State())
}

func TestStart_HappyPath(t *testing.T) {
	f := newFixture(Config{})
	require.NoError(t, f.controller.Start(context.Background()))

	assert.Equal(t, StateConfirming, f.controller.State())
	assert.Equal(t, model.CategoryDining, f.controller.Category())
	require.Len(t, f.merchants.DetectCalls, 1)
	assert.Equal(t, 150, f.merchants.DetectCalls[0])
}

func TestStart_WidensRadiusOnCoarseAccuracy(t *testing.T) {
	f := newFixture(Config{})
	f.location.ResolveFn = func(_ context.Context) (model.Position, error) {
		acc := 80.0 // acceptable but coarse
		return model.Position{Latitude: 1.3, Longitude: 103.8, Accuracy: &acc}, nil
	}

	require.NoError(t, f.controller.Start(context.Background()))
	require.Len(t, f.merchants.DetectCalls, 1)
	assert.Equal(t, 500, f.merchants.DetectCalls[0])
}

func TestStart_Failures(t *testing.T) {
	t.Run("permission denied", func(t *testing.T) {
		f := newFixture(Config{})
		f.location.ResolveFn = func(_ context.Context) (model.Position, error) {
			return model.Position{}, common.ErrPermissionDenied
		}

		err := f.controller.Start(context.Background())
		require.Error(t, err)
		failure := f.controller.Failure()
		require.NotNil(t, failure)
		assert.ErrorIs(t, failure.Err, common.ErrPermissionDenied)
		assert.NotEmpty(t, failure.RetryLabel)
		assert.NotEmpty(t, failure.ManualLabel)
	})

	t.Run("unacceptable accuracy", func(t *testing.T) {
		f := newFixture(Config{})
		f.location.ResolveFn = func(_ context.Context) (model.Position, error) {
			acc := 450.0
			return model.Position{Latitude: 1.3, Longitude: 103.8, Accuracy: &acc}, nil
		}

		err := f.controller.Start(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrLowAccuracy)
		assert.Empty(t, f.merchants.DetectCalls)
	})

	t.Run("no merchants found", func(t *testing.T) {
		f := newFixture(Config{})
		f.merchants.DetectFn = func(_ context.Context, _, _ float64, _ int) ([]model.Merchant, error) {
			return nil, common.ErrNoResults
		}

		err := f.controller.Start(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrNoResults)
	})
}

func TestRetry_ClearsCachesAndSideTables(t *testing.T) {
	f := newFixture(Config{})
	calls := 0
	f.location.ResolveFn = func(_ context.Context) (model.Position, error) {
		calls++
		if calls == 1 {
			return model.Position{}, common.ErrTimeout
		}
		acc := 10.0
		return model.Position{Latitude: 1.3, Longitude: 103.8, Accuracy: &acc}, nil
	}

	require.Error(t, f.controller.Start(context.Background()))
	require.NotNil(t, f.controller.Failure())

	require.NoError(t, f.controller.Retry(context.Background()))
	assert.Nil(t, f.controller.Failure())
	assert.Equal(t, 1, f.location.ClearCacheCalls)
	assert.Equal(t, StateConfirming, f.controller.State())
}

func TestManualFallback(t *testing.T) {
	f := newFixture(Config{})
	f.merchants.DetectFn = func(_ context.Context, _, _ float64, _ int) ([]model.Merchant, error) {
		return nil, common.ErrNoResults
	}

	require.Error(t, f.controller.Start(context.Background()))
	require.NoError(t, f.controller.ManualFallback())

	assert.Equal(t, StateConfirming, f.controller.State())
	assert.Empty(t, f.controller.Merchants())

	// The user picks a category by hand and the flow proceeds as usual.
	require.NoError(t, f.controller.OverrideCategory(context.Background(), model.CategoryGroceries))
	assert.Equal(t, StateResult, f.controller.State())
	assert.Equal(t, model.CategoryGroceries, f.controller.Category())
}

func TestConfirm_NoRecommendations(t *testing.T) {
	f := newFixture(Config{})
	f.recommender.RecommendFn = func(_ context.Context, _ model.Category) ([]model.Recommendation, error) {
		return []model.Recommendation{}, nil
	}

	require.NoError(t, f.controller.Start(context.Background()))
	err := f.controller.ConfirmCategory(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoRecommendations)
	require.NotNil(t, f.controller.Failure())
}

func TestBackgroundRecommendation(t *testing.T) {
	t.Run("prefetch populates before confirmation", func(t *testing.T) {
		f := newFixture(Config{})
		fetched := make(chan struct{}, 1)
		f.recommender.RecommendFn = func(_ context.Context, _ model.Category) ([]model.Recommendation, error) {
			defer func() {
				select {
				case fetched <- struct{}{}:
				default:
				}
			}()
			return []model.Recommendation{{CardID: "prefetched"}}, nil
		}

		require.NoError(t, f.controller.Start(context.Background()))
		<-fetched

		assert.Eventually(t, func() bool {
			recs := f.controller.Recommendations()
			return len(recs) == 1 && recs[0].CardID == "prefetched"
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, StateConfirming, f.controller.State())
	})

	t.Run("late prefetch never overrides the synchronous result", func(t *testing.T) {
		f := newFixture(Config{})
		release := make(chan struct{})
		bgStarted := make(chan struct{})
		var callSeq atomic.Int32
		f.recommender.RecommendFn = func(_ context.Context, _ model.Category) ([]model.Recommendation, error) {
			if callSeq.Add(1) == 1 {
				// Background prefetch: hold until the user has confirmed.
				close(bgStarted)
				<-release
				return []model.Recommendation{{CardID: "stale-background"}}, nil
			}
			return []model.Recommendation{{CardID: "user-triggered"}}, nil
		}

		require.NoError(t, f.controller.Start(context.Background()))
		<-bgStarted
		require.NoError(t, f.controller.ConfirmCategory(context.Background()))
		require.Equal(t, StateResult, f.controller.State())

		close(release)

		// Give the stale goroutine every chance to misbehave.
		assert.Never(t, func() bool {
			recs := f.controller.Recommendations()
			return len(recs) > 0 && recs[0].CardID == "stale-background"
		}, 100*time.Millisecond, 5*time.Millisecond)
	})

	t.Run("prefetch failure is silent", func(t *testing.T) {
		f := newFixture(Config{})
		bgDone := make(chan struct{})
		var callSeq atomic.Int32
		f.recommender.RecommendFn = func(_ context.Context, _ model.Category) ([]model.Recommendation, error) {
			if callSeq.Add(1) == 1 {
				close(bgDone)
				return nil, errors.New("upstream down")
			}
			return []model.Recommendation{{CardID: "card-1", CardName: "Horizon Miles Visa"}}, nil
		}

		require.NoError(t, f.controller.Start(context.Background()))
		<-bgDone
		assert.Nil(t, f.controller.Failure())

		require.NoError(t, f.controller.ConfirmCategory(context.Background()))
		assert.Equal(t, StateResult, f.controller.State())
	})
}

func TestSelectAlternative(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()
	require.NoError(t, f.controller.Start(ctx))
	require.NoError(t, f.controller.ConfirmCategory(ctx))

	recs := f.controller.Recommendations()
	require.Len(t, recs, 2)
	first, second := recs[0].CardID, recs[1].CardID

	require.NoError(t, f.controller.SelectAlternative(1))
	swapped := f.controller.Recommendations()
	assert.Equal(t, second, swapped[0].CardID)
	assert.Equal(t, first, swapped[1].CardID)

	assert.Error(t, f.controller.SelectAlternative(0))
	assert.Error(t, f.controller.SelectAlternative(5))
}

func TestWallet(t *testing.T) {
	t.Run("return within window advances to logging", func(t *testing.T) {
		f := newFixture(Config{})
		ctx := context.Background()
		require.NoError(t, f.controller.Start(ctx))
		require.NoError(t, f.controller.ConfirmCategory(ctx))
		require.NoError(t, f.controller.OpenWallet(ctx))
		require.Equal(t, StateWallet, f.controller.State())
		assert.Equal(t, 1, f.lifecycle.SubscriberCount())

		f.lifecycle.Fire(time.Now())
		assert.Equal(t, StateLogging, f.controller.State())
		assert.Equal(t, 0, f.lifecycle.SubscriberCount(), "must unsubscribe on leaving wallet")
	})

	t.Run("return beyond window is ignored", func(t *testing.T) {
		f := newFixture(Config{WalletReturnWindow: 60 * time.Second})
		ctx := context.Background()
		require.NoError(t, f.controller.Start(ctx))
		require.NoError(t, f.controller.ConfirmCategory(ctx))
		require.NoError(t, f.controller.OpenWallet(ctx))

		f.lifecycle.Fire(time.Now().Add(2 * time.Minute))
		assert.Equal(t, StateWallet, f.controller.State())

		// A fresh, timely return still works.
		f.lifecycle.Fire(time.Now())
		assert.Equal(t, StateLogging, f.controller.State())
	})

	t.Run("manual continuation from wallet", func(t *testing.T) {
		f := newFixture(Config{})
		ctx := context.Background()
		require.NoError(t, f.controller.Start(ctx))
		require.NoError(t, f.controller.ConfirmCategory(ctx))
		require.NoError(t, f.controller.OpenWallet(ctx))

		require.NoError(t, f.controller.ContinueToLogging())
		assert.Equal(t, StateLogging, f.controller.State())
		assert.Equal(t, 0, f.lifecycle.SubscriberCount())
	})

	t.Run("failed open falls back and proceeds to logging", func(t *testing.T) {
		f := newFixture(Config{})
		f.wallet.OpenFn = func(_ context.Context) wallet.OpenResult {
			return wallet.OpenResult{Platform: "linux", Error: "no wallet integration"}
		}
		ctx := context.Background()
		require.NoError(t, f.controller.Start(ctx))
		require.NoError(t, f.controller.ConfirmCategory(ctx))
		require.NoError(t, f.controller.OpenWallet(ctx))

		assert.Equal(t, StateLogging, f.controller.State())
		require.Len(t, f.wallet.FallbackCards, 1)
		assert.Equal(t, "Horizon Miles Visa", f.wallet.FallbackCards[0])
	})
}

func TestSubmit(t *testing.T) {
	t.Run("requires a positive amount", func(t *testing.T) {
		f := newFixture(Config{})
		advanceToLogging(t, f)

		err := f.controller.Submit(context.Background())
		require.Error(t, err)
		assert.Equal(t, StateLogging, f.controller.State())
		assert.Empty(t, f.storage.Saved)
	})

	t.Run("persist failure keeps the amount for resubmission", func(t *testing.T) {
		f := newFixture(Config{})
		failing := true
		f.storage.SaveTransactionFn = func(_ context.Context, _ *model.Transaction) error {
			if failing {
				return errors.New("disk full")
			}
			return nil
		}
		advanceToLogging(t, f)

		f.controller.PressDigit('4')
		f.controller.PressDigit('2')

		err := f.controller.Submit(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrPersistFailure)
		assert.Equal(t, StateLogging, f.controller.State())
		assert.Equal(t, "42", f.controller.AmountString())

		failing = false
		require.NoError(t, f.controller.Submit(context.Background()))
		assert.Equal(t, StateSuccess, f.controller.State())
	})

	t.Run("skip exits without persisting", func(t *testing.T) {
		f := newFixture(Config{})
		advanceToLogging(t, f)

		require.NoError(t, f.controller.SkipLogging())
		assert.True(t, f.controller.Done())
		assert.Empty(t, f.storage.Saved)
	})
}

func TestEndToEnd(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	dining := model.CategoryDining
	f.storage.GetCapRowsFn = func(_ context.Context, cardID string) ([]model.CapRow, error) {
		return []model.CapRow{
			{CardID: cardID, CategoryID: &dining, Amount: decimal.RequireFromString("500")},
		}, nil
	}
	f.storage.GetMonthTransactionsFn = func(_ context.Context, _, cardID string, _ time.Time) ([]model.Transaction, error) {
		prior := model.Transaction{
			CardID:     cardID,
			CategoryID: model.CategoryDining,
			Amount:     decimal.RequireFromString("100"),
			Date:       time.Now(),
		}
		return append([]model.Transaction{prior}, f.storage.Saved...), nil
	}

	require.NoError(t, f.controller.Start(ctx))
	require.NoError(t, f.controller.ConfirmCategory(ctx))
	require.NoError(t, f.controller.OpenWallet(ctx))
	f.controller.WalletReturned(time.Now())

	for _, key := range "42" {
		f.controller.PressDigit(key)
	}
	f.controller.PressDecimal()
	for _, key := range "50" {
		f.controller.PressDigit(key)
	}
	require.NoError(t, f.controller.Submit(ctx))

	assert.Equal(t, StateSuccess, f.controller.State())

	require.Len(t, f.storage.Saved, 1)
	saved := f.storage.Saved[0]
	assert.Equal(t, "42.50", saved.Amount.StringFixed(2))
	assert.Equal(t, model.CategoryDining, saved.CategoryID)
	assert.Equal(t, "Maxwell Food Centre", saved.MerchantName)
	assert.NotEmpty(t, saved.Hash)

	summary := f.controller.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, "42.50", summary.Amount.StringFixed(2))
	assert.Equal(t, "Horizon Miles Visa", summary.CardName)
	assert.Equal(t, 4.0, summary.EarnRateMPD)
	assert.Equal(t, 1.2, summary.BaseRateMPD)
	require.True(t, summary.CapState.Capped())
	assert.Equal(t, "357.50", summary.CapState.RemainingCap.StringFixed(2))

	names := f.analytics.Names()
	assert.Contains(t, names, "flow_started")
	assert.Contains(t, names, "merchant_identified")
	assert.Contains(t, names, "recommendations_shown")
	assert.Contains(t, names, "wallet_opened")
	assert.Contains(t, names, "transaction_logged")
}
