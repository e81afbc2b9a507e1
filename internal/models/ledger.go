package models

import "time"

type LedgerKind string

const (
	LedgerCredit LedgerKind = "credit"
	LedgerDebit  LedgerKind = "debit"
)

type LedgerReason string

const (
	ReasonSettlement LedgerReason = "settlement"
	ReasonUnlock     LedgerReason = "unlock"
	ReasonManual     LedgerReason = "manual"
)

// LedgerEntry is an append-only record of one wallet mutation.
type LedgerEntry struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Kind         LedgerKind   `json:"kind"`
	Reason       LedgerReason `json:"reason"`
	Reference    string       `json:"reference"`
	Points       int64        `json:"points"`
	BalanceAfter int64        `json:"balance_after"`
	CreatedAt    time.Time    `json:"created_at"`
}
