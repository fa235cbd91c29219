package model

import "github.com/shopspring/decimal"

// CapRow is a configured monthly reward-earning ceiling for a card. A nil
// CategoryID means the cap applies to all spend on the card.
type CapRow struct {
	CategoryID *Category
	CardID     string
	Amount     decimal.Decimal
}

// CapState is the derived cap remainder for a card/category pair. Both
// fields are nil when the card is uncapped.
type CapState struct {
	CapAmount    *decimal.Decimal
	RemainingCap *decimal.Decimal
}

// Capped reports whether a cap applies.
func (s CapState) Capped() bool {
	return s.CapAmount != nil
}
