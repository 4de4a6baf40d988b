package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BonusKind string

const (
	BonusPointMultiplier      BonusKind = "point_multiplier"
	BonusPenaltyReduction     BonusKind = "penalty_reduction"
	BonusOneTimeForgiveness   BonusKind = "one_time_forgiveness"
	BonusDoublePointDay       BonusKind = "double_point_day"
	BonusStreakProtection     BonusKind = "streak_protection"
	BonusReminderSuppression  BonusKind = "reminder_suppression"
	BonusEarlyCashOut         BonusKind = "early_cash_out"
	BonusTrustIncrease        BonusKind = "trust_increase"
	BonusProfileBadge         BonusKind = "profile_badge"
	BonusUnlockTier           BonusKind = "unlock_tier"
	BonusImmediatePoints      BonusKind = "immediate_bonus_points"
)

type CriteriaKind string

const (
	CriteriaApprovedCount    CriteriaKind = "approved_count"
	CriteriaStreakLength     CriteriaKind = "streak_length"
	CriteriaBalanceThreshold CriteriaKind = "balance_threshold"
)

// Achievement declares a criteria descriptor plus at most one bonus kind
// with its raw configuration payload (flat string key/value map). The
// payload is interpreted per bonus kind at grant time.
type Achievement struct {
	ID                int64             `json:"id"`
	Code              string            `json:"code"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	CriteriaKind      CriteriaKind      `json:"criteria_kind"`
	CriteriaThreshold int               `json:"criteria_threshold"`
	BonusKind         BonusKind         `json:"bonus_kind"`
	BonusConfig       map[string]string `json:"bonus_config"`
	CreatedAt         time.Time         `json:"created_at"`
}

// BonusGrant is the stateful record of a bonus unlocked by an
// achievement. The configuration is parsed once at grant time and
// snapshotted here in typed form; the raw payload is never re-read.
type BonusGrant struct {
	ID            int64           `json:"id"`
	ProfileID     int64           `json:"profile_id"`
	AchievementID int64           `json:"achievement_id"`
	Kind          BonusKind       `json:"kind"`
	Multiplier    decimal.Decimal `json:"multiplier"`
	ReductionPct  decimal.Decimal `json:"reduction_pct"`
	Amount        decimal.Decimal `json:"amount"`
	ThresholdCut  decimal.Decimal `json:"threshold_cut"`
	LevelIncrease int             `json:"level_increase"`
	BadgeKey      string          `json:"badge_key"`
	Active        bool            `json:"active"`
	ExpiresAt     *time.Time      `json:"expires_at"`
	RemainingUses *int            `json:"remaining_uses"`
	GrantedAt     time.Time       `json:"granted_at"`
	LastUsedAt    *time.Time      `json:"last_used_at"`
}
