// Package categorize assigns spending categories to transactions. Two
// strategies exist behind the same contract: a deterministic keyword matcher
// and a Gemini-backed classifier that falls back to the keyword matcher
// whenever the model misbehaves.
package categorize

import (
	"context"

	"github.com/shopspring/decimal"
)

// Categorizer maps a transaction's descriptive fields to a category label.
// Implementations never fail: they fall back to a deterministic answer
// instead of returning an error.
type Categorizer interface {
	Categorize(ctx context.Context, name, merchantName string, amount decimal.Decimal) string
}

const (
	FoodAndDining  = "Food & Dining"
	Transportation = "Transportation"
	Shopping       = "Shopping"
	Entertainment  = "Entertainment"
	Utilities      = "Utilities"
	Healthcare     = "Healthcare"
	Banking        = "Banking & Financial"
	Income         = "Income"
	Test           = "Test Transactions"
	Other          = "Other"
)

// Labels is the closed set of category labels either strategy may produce.
func Labels() []string {
	return []string{
		FoodAndDining,
		Transportation,
		Shopping,
		Entertainment,
		Utilities,
		Healthcare,
		Banking,
		Income,
		Test,
		Other,
	}
}
