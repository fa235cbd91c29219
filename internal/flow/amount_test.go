package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func press(e *AmountEditor, keys string) {
	for _, k := range keys {
		if k == '.' {
			e.PressDecimal()
			continue
		}
		e.PressDigit(k)
	}
}

func TestAmountEditor(t *testing.T) {
	tests := []struct {
		name string
		keys string
		want string
	}{
		{name: "digits append", keys: "4250", want: "4250"},
		{name: "decimal entry", keys: "42.50", want: "42.50"},
		{name: "second decimal point ignored", keys: "42.5.0", want: "42.50"},
		{name: "third fraction digit rejected", keys: "1.234", want: "1.23"},
		{name: "leading decimal becomes zero point", keys: ".75", want: "0.75"},
		{name: "maximum amount accepted", keys: "99999.99", want: "99999.99"},
		{name: "sixth integer digit rejected", keys: "999999", want: "99999"},
		{name: "non-digit keys ignored", keys: "4a2", want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e AmountEditor
			press(&e, tt.keys)
			assert.Equal(t, tt.want, e.String())
		})
	}
}

func TestAmountEditor_Backspace(t *testing.T) {
	t.Run("removes the last character", func(t *testing.T) {
		var e AmountEditor
		press(&e, "42.5")
		e.Backspace()
		assert.Equal(t, "42.", e.String())
		e.Backspace()
		assert.Equal(t, "42", e.String())
	})

	t.Run("no-op on empty entry", func(t *testing.T) {
		var e AmountEditor
		e.Backspace()
		assert.Equal(t, "", e.String())
	})

	t.Run("reopens rejected edits", func(t *testing.T) {
		var e AmountEditor
		press(&e, "99999")
		e.PressDigit('1') // would exceed the cap
		assert.Equal(t, "99999", e.String())
		e.Backspace()
		e.PressDigit('1')
		assert.Equal(t, "99991", e.String())
	})
}

func TestAmountEditor_Amount(t *testing.T) {
	t.Run("empty entry is zero", func(t *testing.T) {
		var e AmountEditor
		assert.True(t, e.Amount().IsZero())
	})

	t.Run("trailing decimal point parses", func(t *testing.T) {
		var e AmountEditor
		press(&e, "42.")
		assert.Equal(t, "42.00", e.Amount().StringFixed(2))
	})

	t.Run("cents parse exactly", func(t *testing.T) {
		var e AmountEditor
		press(&e, "42.50")
		assert.Equal(t, "42.50", e.Amount().StringFixed(2))
	})
}
