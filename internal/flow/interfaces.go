package flow

import (
	"context"

	"github.com/Veraticus/swipewise/internal/model"
	"github.com/Veraticus/swipewise/internal/wallet"
)

// LocationResolver defines the contract for acquiring device positions.
type LocationResolver interface {
	Resolve(ctx context.Context) (model.Position, error)
	ClearCache()
}

// MerchantResolver defines the contract for nearby-merchant detection.
type MerchantResolver interface {
	Detect(ctx context.Context, lat, lng float64, radiusMeters int) ([]model.Merchant, error)
}

// WalletBridge defines the contract for the platform wallet hand-off.
type WalletBridge interface {
	IsAvailable(ctx context.Context) bool
	Open(ctx context.Context) wallet.OpenResult
	ShowFallback(cardName string)
}
