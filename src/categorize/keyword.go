package categorize

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// keywordGroups are evaluated in order; the first group with a matching
// keyword wins. Order matters: "gas" must hit Transportation before
// Utilities gets a look at "gas" the utility.
var keywordGroups = []struct {
	label    string
	keywords []string
}{
	{FoodAndDining, []string{
		"mcdonalds", "starbucks", "restaurant", "food", "dining", "grubhub",
		"doordash", "uber eats", "pizza", "burger", "coffee", "cafe", "bakery", "deli",
	}},
	{Transportation, []string{
		"uber", "lyft", "taxi", "gas", "shell", "exxon", "chevron", "parking",
		"metro", "bus", "train", "subway", "airport", "car", "auto",
	}},
	{Shopping, []string{
		"amazon", "walmart", "target", "costco", "best buy", "apple", "nike",
		"adidas", "store", "shop", "mall", "outlet", "retail",
	}},
	{Entertainment, []string{
		"netflix", "spotify", "hulu", "disney", "movie", "theater", "concert",
		"game", "entertainment", "amusement", "park", "zoo", "museum",
	}},
	{Utilities, []string{
		"electric", "water", "internet", "phone", "cable", "utility", "power",
		"energy", "heating", "cooling",
	}},
	{Healthcare, []string{
		"pharmacy", "doctor", "hospital", "medical", "dental", "vision",
		"health", "clinic", "physician", "therapy",
	}},
	{Banking, []string{
		"bank", "atm", "withdrawal", "deposit", "transfer", "payment", "fee",
		"interest", "credit", "debit",
	}},
}

var sandboxKeywords = []string{"plaid", "sandbox", "test", "demo"}

// Keyword is the deterministic baseline strategy. It needs no network and is
// the fallback for every other strategy.
type Keyword struct{}

func (Keyword) Categorize(_ context.Context, name, merchantName string, amount decimal.Decimal) string {
	haystack := strings.ToLower(name)
	if merchantName != "" {
		haystack += " " + strings.ToLower(merchantName)
	}

	for _, group := range keywordGroups {
		for _, keyword := range group.keywords {
			if strings.Contains(haystack, keyword) {
				return group.label
			}
		}
	}

	if amount.IsPositive() {
		return Income
	}

	for _, keyword := range sandboxKeywords {
		if strings.Contains(haystack, keyword) {
			return Test
		}
	}

	return Other
}
