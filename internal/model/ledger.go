package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID        int64     `json:"id"`
	ProfileID int64     `json:"profile_id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type TransactionType string

const (
	TxEarning    TransactionType = "earning"
	TxDeduction  TransactionType = "deduction"
	TxBonus      TransactionType = "bonus"
	TxPenalty    TransactionType = "penalty"
	TxPayout     TransactionType = "payout"
	TxAdjustment TransactionType = "adjustment"
	TxTransfer   TransactionType = "transfer"
)

// Transaction is a single signed monetary entry on an account. At most
// one transaction references any given completion record; transfers come
// in pairs sharing a TransferGroupID.
type Transaction struct {
	ID              int64           `json:"id"`
	AccountID       int64           `json:"account_id"`
	RecordID        *int64          `json:"record_id"`
	Amount          decimal.Decimal `json:"amount"`
	Type            TransactionType `json:"type"`
	Description     string          `json:"description"`
	Date            time.Time       `json:"date"`
	TransferGroupID *string         `json:"transfer_group_id"`
	CreatedAt       time.Time       `json:"created_at"`
}
