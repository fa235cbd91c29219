package flow

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxTransactionAmount is the largest amount the keypad accepts.
var maxTransactionAmount = decimal.RequireFromString("99999.99")

// AmountEditor implements the keypad amount-entry policy: digits append, a
// decimal point is accepted at most once with up to two fractional digits,
// backspace removes the last character, and any edit that would exceed the
// maximum amount is rejected leaving the prior string unchanged.
type AmountEditor struct {
	raw string
}

// PressDigit appends a digit when the result stays within policy.
func (e *AmountEditor) PressDigit(d rune) {
	if d < '0' || d > '9' {
		return
	}
	e.tryCommit(e.raw + string(d))
}

// PressDecimal appends the decimal point. A leading point becomes "0.".
func (e *AmountEditor) PressDecimal() {
	if strings.Contains(e.raw, ".") {
		return
	}
	if e.raw == "" {
		e.tryCommit("0.")
		return
	}
	e.tryCommit(e.raw + ".")
}

// Backspace removes the last character. On an empty entry it is a no-op.
func (e *AmountEditor) Backspace() {
	if e.raw == "" {
		return
	}
	e.raw = e.raw[:len(e.raw)-1]
}

// Reset clears the entry.
func (e *AmountEditor) Reset() {
	e.raw = ""
}

// String returns the raw entry as typed.
func (e *AmountEditor) String() string {
	return e.raw
}

// Amount parses the entry, treating empty or partial input as zero.
func (e *AmountEditor) Amount() decimal.Decimal {
	raw := strings.TrimSuffix(e.raw, ".")
	if raw == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// tryCommit accepts the candidate only when it honors the entry policy.
func (e *AmountEditor) tryCommit(candidate string) {
	if whole, frac, found := strings.Cut(candidate, "."); found {
		if len(frac) > 2 || whole == "" {
			return
		}
	}

	value, err := decimal.NewFromString(strings.TrimSuffix(candidate, "."))
	if err != nil || value.GreaterThan(maxTransactionAmount) {
		return
	}

	e.raw = candidate
}
