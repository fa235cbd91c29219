package model

import "github.com/shopspring/decimal"

// Card represents a payment card known to the system.
type Card struct {
	ID   string
	Name string
	Bank string
}

// Recommendation is a single ranked card suggestion returned by the
// recommendation service. The cap fields are a snapshot from ranking time;
// logging always recomputes them from ground truth.
type Recommendation struct {
	CardID           string
	CardName         string
	Bank             string
	ConditionsNote   string
	MonthlyCapAmount *decimal.Decimal
	RemainingCap     *decimal.Decimal
	EarnRateMPD      float64
	BaseRateMPD      float64
	IsRecommended    bool
}
