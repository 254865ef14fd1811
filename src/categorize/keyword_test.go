package categorize

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestKeywordCategorize(t *testing.T) {
	tests := []struct {
		name         string
		txnName      string
		merchantName string
		amount       string
		want         string
	}{
		{"starbucks is food", "Starbucks #123", "", "-12.50", FoodAndDining},
		{"uber eats beats uber", "Uber Eats Order", "", "-20.00", FoodAndDining},
		{"uber ride is transportation", "Uber Trip Helsinki", "", "-14.30", Transportation},
		{"gas station", "Shell Gas Station", "", "-41.00", Transportation},
		{"amazon is shopping", "AMZN Mktp", "Amazon", "-33.10", Shopping},
		{"netflix is entertainment", "Netflix.com", "", "-15.99", Entertainment},
		{"electric bill", "City Electric Co", "", "-120.00", Utilities},
		{"pharmacy", "CVS Pharmacy", "", "-8.45", Healthcare},
		{"atm withdrawal", "ATM Withdrawal Main St", "", "-100.00", Banking},
		{"positive unmatched is income", "ACME Payroll", "", "2500.00", Income},
		{"sandbox pattern", "Plaid Sandbox Demo", "", "-5.00", Test},
		{"unmatched expense is other", "Mystery Vendor", "", "-7.00", Other},
		{"merchant name matches too", "POS PURCHASE 0042", "Chevron", "-52.00", Transportation},
	}

	var k Keyword
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			got := k.Categorize(context.Background(), tt.txnName, tt.merchantName, amount)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeywordNeverReturnsIncomeForExpense(t *testing.T) {
	var k Keyword
	names := []string{"Mystery Vendor", "Paycheck Reversal", "Salary Adjustment", ""}
	for _, name := range names {
		got := k.Categorize(context.Background(), name, "", decimal.RequireFromString("-10.00"))
		assert.NotEqual(t, Income, got, "name %q", name)
	}
}

func TestKeywordGroupPriorityIsStable(t *testing.T) {
	var k Keyword
	// "gas" appears in both Transportation and could plausibly be a
	// utility; the Transportation group is evaluated first.
	got := k.Categorize(context.Background(), "Gas bill", "", decimal.RequireFromString("-60.00"))
	assert.Equal(t, Transportation, got)
}
