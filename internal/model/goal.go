package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingsGoal is display-only: progress is computed against the owning
// account's balance, never written back into the ledger.
type SavingsGoal struct {
	ID           int64           `json:"id"`
	ProfileID    int64           `json:"profile_id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Priority     int             `json:"priority"`
	IsPrimary    bool            `json:"is_primary"`
	Completed    bool            `json:"completed"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
