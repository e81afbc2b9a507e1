package models

import (
	"encoding/json"
	"time"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type Payment struct {
	OrderID    string          `json:"order_id"`
	Provider   string          `json:"provider"`
	UserID     string          `json:"user_id"`
	WorkID     string          `json:"work_id"`
	EpisodeID  string          `json:"episode_id"`
	OrderName  string          `json:"order_name"`
	Amount     int64           `json:"amount"`
	Currency   string          `json:"currency"`
	Points     int64           `json:"points"`
	Status     PaymentStatus   `json:"status"`
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SettleOutcome describes what a conditional settlement update did.
type SettleOutcome string

const (
	SettleApplied        SettleOutcome = "settled"
	SettleAlreadySettled SettleOutcome = "already_settled"
	SettleNotFound       SettleOutcome = "not_found"
	SettleIgnored        SettleOutcome = "ignored"
	SettleMarkedFailed   SettleOutcome = "marked_failed"
)
