package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single logged spend.
type Transaction struct {
	Date         time.Time
	ID           string
	UserID       string
	CardID       string
	CategoryID   Category
	MerchantName string
	Hash         string
	Amount       decimal.Decimal
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		t.Date.Format("2006-01-02T15:04:05"),
		t.Amount.StringFixed(2),
		t.CardID,
		t.CategoryID,
		t.MerchantName)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
