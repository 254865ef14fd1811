package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction amounts are signed: negative is money out (an expense),
// positive is money in. Categorization and summary math rely on this.
type Transaction struct {
	ID            int64           `json:"id"`
	AccountID     int64           `json:"account_id"`
	TransactionID string          `json:"transaction_id"` // aggregator-assigned, unique
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Name          string          `json:"name"`
	MerchantName  *string         `json:"merchant_name"`
	Category      *string         `json:"category"`
	Pending       bool            `json:"pending"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type CategorySummary struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}
