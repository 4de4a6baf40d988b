package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ScheduleKind string

const (
	ScheduleSpecificDays    ScheduleKind = "specific_days"
	ScheduleWeeklyFrequency ScheduleKind = "weekly_frequency"
)

// Task is a recurring household task definition. Days is a 7-bit
// day-of-week mask interpreted by the schedule package (bit 0 = Sunday).
type Task struct {
	ID           int64           `json:"id"`
	OwnerID      *int64          `json:"owner_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	EarnValue    decimal.Decimal `json:"earn_value"`
	PenaltyValue decimal.Decimal `json:"penalty_value"`
	Kind         ScheduleKind    `json:"kind"`
	Days         int             `json:"days"`
	WeeklyTarget int             `json:"weekly_target"`
	StartDate    *time.Time      `json:"start_date"`
	EndDate      *time.Time      `json:"end_date"`
	Repeatable   bool            `json:"repeatable"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type OverrideKind string

const (
	OverrideAdd    OverrideKind = "add"
	OverrideRemove OverrideKind = "remove"
	OverrideMove   OverrideKind = "move"
)

// ScheduleOverride is a one-off deviation from a task's weekly schedule
// for exactly one date. At most one override exists per (task, date).
type ScheduleOverride struct {
	ID        int64        `json:"id"`
	TaskID    int64        `json:"task_id"`
	Date      time.Time    `json:"date"`
	Kind      OverrideKind `json:"kind"`
	CreatedBy *int64       `json:"created_by"`
	CreatedAt time.Time    `json:"created_at"`
}

type CompletionStatus string

const (
	StatusPending       CompletionStatus = "pending"
	StatusCompleted     CompletionStatus = "completed"
	StatusApproved      CompletionStatus = "approved"
	StatusMissed        CompletionStatus = "missed"
	StatusSkipped       CompletionStatus = "skipped"
	StatusHelpRequested CompletionStatus = "help_requested"
)

// CompletionRecord logs one task instance per (task, date). Its status
// lifecycle drives ledger reconciliation.
type CompletionRecord struct {
	ID        int64            `json:"id"`
	TaskID    int64            `json:"task_id"`
	Date      time.Time        `json:"date"`
	Status    CompletionStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
