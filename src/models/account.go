package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID             int64           `json:"id"`
	ItemID         int64           `json:"item_id"`
	AccountID      string          `json:"account_id"` // aggregator-assigned, unique
	Name           string          `json:"name"`
	OfficialName   *string         `json:"official_name"`
	Mask           *string         `json:"mask"`
	Type           string          `json:"type"`
	Subtype        string          `json:"subtype"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
