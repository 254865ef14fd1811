package models

import "time"

// AutoRule maps transactions whose name contains one of Keywords to Category.
// Rules run after the categorizer, highest Priority first; the first match wins.
type AutoRule struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Keywords  []string  `json:"keywords"`
	Category  string    `json:"category"`
	Priority  int       `json:"priority"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
