package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnDelta is one unit of change in a provider sync response.
type TxnDelta struct {
	TransactionID string
	AccountID     string // external account id
	Amount        decimal.Decimal
	Date          time.Time
	Name          string
	MerchantName  string
	Category      string // provider-supplied, empty when absent
	Pending       bool
}

// SyncPage is one page of the provider's delta stream. HasMore means the
// caller must call again with NextCursor before the page set is complete.
type SyncPage struct {
	Added      []TxnDelta
	Modified   []TxnDelta
	Removed    []string // external transaction ids
	NextCursor string
	HasMore    bool
}

type AccountSnapshot struct {
	AccountID      string
	Name           string
	OfficialName   string
	Mask           string
	Type           string
	Subtype        string
	CurrentBalance decimal.Decimal
}

type SyncResult struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
	Skipped  int `json:"skipped"`
}
