package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/swipewise/internal/common"
	"github.com/Veraticus/swipewise/internal/flow"
	"github.com/Veraticus/swipewise/internal/model"
	"github.com/Veraticus/swipewise/internal/wallet"
)

func newTestController(loc *flow.MockLocation, walletBridge *flow.MockWallet) (*flow.Controller, *flow.MockStorage) {
	store := &flow.MockStorage{}
	controller := flow.NewController(
		loc,
		&flow.MockMerchants{},
		&flow.MockRecommender{},
		walletBridge,
		store,
		nil,
		nil,
		flow.Config{UserID: "user-1"},
	)
	return controller, store
}

func TestPrompter_HappyPath(t *testing.T) {
	// Confirm the detected merchant, open the wallet, return, log 42.50.
	input := strings.NewReader("\nw\n\n42.50\n")
	var output bytes.Buffer

	controller, store := newTestController(&flow.MockLocation{}, &flow.MockWallet{})
	prompter := NewPrompter(input, &output)

	err := prompter.Run(context.Background(), controller)
	require.NoError(t, err)

	require.Len(t, store.Saved, 1)
	assert.Equal(t, "42.5", store.Saved[0].Amount.String())
	assert.Equal(t, "card-1", store.Saved[0].CardID)

	text := output.String()
	assert.Contains(t, text, "Maxwell Food Centre")
	assert.Contains(t, text, "Horizon Miles Visa")
	assert.Contains(t, text, "Logged!")
}

func TestPrompter_SkipLogging(t *testing.T) {
	// Skip the wallet with [l], then skip logging with [k]; nothing persists.
	input := strings.NewReader("\nl\nk\n")
	var output bytes.Buffer

	controller, store := newTestController(&flow.MockLocation{}, &flow.MockWallet{})
	prompter := NewPrompter(input, &output)

	err := prompter.Run(context.Background(), controller)
	require.NoError(t, err)

	assert.Empty(t, store.Saved)
	assert.True(t, controller.Done())
	assert.NotContains(t, output.String(), "Logged!")
}

func TestPrompter_FailureOverlayManualFallback(t *testing.T) {
	// Detection fails; [m] drops into manual category selection with
	// general, then override to dining via the menu.
	loc := &flow.MockLocation{
		ResolveFn: func(_ context.Context) (model.Position, error) {
			return model.Position{}, common.ErrPermissionDenied
		},
	}
	input := strings.NewReader("m\n1\nl\nk\n")
	var output bytes.Buffer

	controller, _ := newTestController(loc, &flow.MockWallet{})
	prompter := NewPrompter(input, &output)

	err := prompter.Run(context.Background(), controller)
	require.NoError(t, err)

	assert.Equal(t, model.CategoryDining, controller.Category())
	assert.Contains(t, output.String(), "[m]")
}

func TestPrompter_FailureOverlayQuit(t *testing.T) {
	loc := &flow.MockLocation{
		ResolveFn: func(_ context.Context) (model.Position, error) {
			return model.Position{}, common.ErrTimeout
		},
	}
	input := strings.NewReader("q\n")
	var output bytes.Buffer

	controller, _ := newTestController(loc, &flow.MockWallet{})
	prompter := NewPrompter(input, &output)

	err := prompter.Run(context.Background(), controller)
	require.NoError(t, err)
	assert.True(t, controller.Done())
}

func TestPrompter_WalletFallbackStillLogs(t *testing.T) {
	// The wallet cannot open; the flow shows the fallback and heads to
	// logging anyway.
	walletBridge := &flow.MockWallet{
		OpenFn: func(_ context.Context) wallet.OpenResult {
			return wallet.OpenResult{Platform: "web", Error: "no wallet integration"}
		},
	}
	input := strings.NewReader("\nw\n12\n")
	var output bytes.Buffer

	controller, store := newTestController(&flow.MockLocation{}, walletBridge)
	prompter := NewPrompter(input, &output)

	err := prompter.Run(context.Background(), controller)
	require.NoError(t, err)

	require.Len(t, store.Saved, 1)
	assert.Equal(t, []string{"Horizon Miles Visa"}, walletBridge.FallbackCards)
}
