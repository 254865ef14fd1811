package models

import "time"

// Item is one user's link to a financial institution via the aggregator.
// SyncCursor is only valid for the (AccessToken, ItemID) pair it was issued
// for; replacing either clears it.
type Item struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	AccessToken     string     `json:"-"`
	ItemID          string     `json:"item_id"`
	InstitutionID   string     `json:"institution_id"`
	SyncCursor      string     `json:"-"`
	CursorUpdatedAt *time.Time `json:"cursor_updated_at"`
	CreatedAt       time.Time  `json:"created_at"`
}
