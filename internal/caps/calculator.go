// Package caps computes monthly spending-cap remainders from ground-truth
// transaction sums.
package caps

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/swipewise/internal/model"
)

// Remaining computes the cap state for a card/category pair in the given
// calendar month. The most specific applicable cap row wins: an exact
// category match beats a category-agnostic row. With no applicable row the
// card is uncapped and both outputs are nil. The remainder never goes
// negative.
func Remaining(rows []model.CapRow, txns []model.Transaction, cardID string, category model.Category, month time.Time) model.CapState {
	row := selectRow(rows, cardID, category)
	if row == nil {
		return model.CapState{}
	}

	spent := decimal.Zero
	for _, txn := range txns {
		if txn.CardID != cardID || !sameMonth(txn.Date, month) {
			continue
		}
		// Category-agnostic caps sum across all of the card's spend.
		if row.CategoryID != nil && txn.CategoryID != category {
			continue
		}
		spent = spent.Add(txn.Amount)
	}

	remaining := row.Amount.Sub(spent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	capAmount := row.Amount
	return model.CapState{
		CapAmount:    &capAmount,
		RemainingCap: &remaining,
	}
}

// selectRow picks the most specific cap row for the card: exact category
// first, then the category-agnostic row.
func selectRow(rows []model.CapRow, cardID string, category model.Category) *model.CapRow {
	var agnostic *model.CapRow
	for i := range rows {
		row := &rows[i]
		if row.CardID != cardID {
			continue
		}
		if row.CategoryID != nil && *row.CategoryID == category {
			return row
		}
		if row.CategoryID == nil && agnostic == nil {
			agnostic = row
		}
	}
	return agnostic
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
