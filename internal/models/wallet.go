package models

import "time"

// Wallet is a user's spendable point balance. A missing row means zero.
type Wallet struct {
	UserID    string    `json:"user_id"`
	Points    int64     `json:"points"`
	UpdatedAt time.Time `json:"updated_at"`
}
