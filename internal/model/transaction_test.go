package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransaction_GenerateHash(t *testing.T) {
	base := Transaction{
		Date:         time.Date(2026, 8, 31, 12, 30, 0, 0, time.UTC),
		CardID:       "card-1",
		CategoryID:   CategoryDining,
		MerchantName: "Maxwell Food Centre",
		Amount:       decimal.RequireFromString("42.50"),
	}

	t.Run("deterministic", func(t *testing.T) {
		other := base
		assert.Equal(t, base.GenerateHash(), other.GenerateHash())
	})

	t.Run("ignores ID", func(t *testing.T) {
		other := base
		other.ID = "txn-different"
		assert.Equal(t, base.GenerateHash(), other.GenerateHash())
	})

	t.Run("amount changes hash", func(t *testing.T) {
		other := base
		other.Amount = decimal.RequireFromString("42.51")
		assert.NotEqual(t, base.GenerateHash(), other.GenerateHash())
	})

	t.Run("scale does not change hash", func(t *testing.T) {
		// 42.5 and 42.50 are the same money; the hash uses fixed-point.
		other := base
		other.Amount = decimal.RequireFromString("42.5")
		assert.Equal(t, base.GenerateHash(), other.GenerateHash())
	})

	t.Run("card changes hash", func(t *testing.T) {
		other := base
		other.CardID = "card-2"
		assert.NotEqual(t, base.GenerateHash(), other.GenerateHash())
	})
}
