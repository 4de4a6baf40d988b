// Package bonus maintains per-profile reward bonuses earned from
// achievements: granting, stacking with caps, one-time-use consumption,
// and expiration.
package bonus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jshauns81/daily-bread/internal/clock"
	"github.com/jshauns81/daily-bread/internal/keymutex"
	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/money"
	"github.com/jshauns81/daily-bread/internal/store"
)

// Stacking caps. Bonuses multiply/add freely up to these limits.
var (
	multiplierCap = decimal.NewFromInt(2)
	reductionCap  = decimal.NewFromInt(75)
	two           = decimal.NewFromInt(2)
	hundred       = decimal.NewFromInt(100)
)

// Summary aggregates a profile's currently active bonuses into the
// modifiers the reconciler and UI consume.
type Summary struct {
	Multiplier           decimal.Decimal `json:"multiplier"`
	PenaltyReductionPct  decimal.Decimal `json:"penalty_reduction_pct"`
	ForgivenessUses      int             `json:"forgiveness_uses"`
	DoublePointDayUses   int             `json:"double_point_day_uses"`
	StreakProtectionUses int             `json:"streak_protection_uses"`
	ReminderSuppression  bool            `json:"reminder_suppression"`
	CashOutThresholdCut  decimal.Decimal `json:"cash_out_threshold_cut"`
	TrustIncrease        int             `json:"trust_increase"`
	Badges               []string        `json:"badges"`
}

type Engine struct {
	achievements *store.AchievementStore
	ledger       *store.LedgerStore
	clk          clock.Clock
	locks        *keymutex.KeyMutex
	logger       *slog.Logger
}

func NewEngine(as *store.AchievementStore, ls *store.LedgerStore, clk clock.Clock, logger *slog.Logger) *Engine {
	return &Engine{
		achievements: as,
		ledger:       ls,
		clk:          clk,
		locks:        keymutex.New(),
		logger:       logger,
	}
}

// Grant awards an achievement's bonus to a profile. It is idempotent
// per (profile, achievement): a pair that already has a grant is left
// untouched. The bonus configuration is parsed here, once, and
// snapshotted in typed form on the grant row.
func (e *Engine) Grant(profileID int64, achievement model.Achievement) error {
	e.locks.Lock(profileKey(profileID))
	defer e.locks.Unlock(profileKey(profileID))

	existing, err := e.achievements.GetGrant(profileID, achievement.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	now := e.clk.Now()
	cfg := ParseConfig(achievement.BonusConfig)
	grant := model.BonusGrant{
		ProfileID:     profileID,
		AchievementID: achievement.ID,
		Kind:          achievement.BonusKind,
		Multiplier:    cfg.Multiplier,
		ReductionPct:  cfg.ReductionPct,
		Amount:        cfg.Amount,
		ThresholdCut:  cfg.ThresholdCut,
		LevelIncrease: cfg.Level,
		BadgeKey:      cfg.BadgeKey,
		Active:        true,
		GrantedAt:     now,
	}

	switch achievement.BonusKind {
	case model.BonusPointMultiplier, model.BonusPenaltyReduction,
		model.BonusReminderSuppression, model.BonusEarlyCashOut:
		exp := now.Add(time.Duration(cfg.DurationDays) * 24 * time.Hour)
		grant.ExpiresAt = &exp
	case model.BonusOneTimeForgiveness, model.BonusDoublePointDay, model.BonusStreakProtection:
		uses := cfg.UseCount
		grant.RemainingUses = &uses
	case model.BonusImmediatePoints:
		// Consumed instantly: credit the ledger and retire the grant so
		// it never shows up in the active summary.
		grant.Active = false
		if cfg.Amount.IsPositive() {
			account, err := e.ledger.DefaultAccount(profileID)
			if err != nil {
				return err
			}
			if account == nil {
				return fmt.Errorf("profile %d: %w", profileID, model.ErrNotFound)
			}
			desc := fmt.Sprintf("Achievement bonus: %s", achievement.Name)
			if _, err := e.ledger.Insert(account.ID, money.Round2(cfg.Amount), model.TxBonus, desc, e.clk.Today()); err != nil {
				return err
			}
		}
	}

	if _, err := e.achievements.InsertGrant(grant); err != nil {
		return err
	}
	e.logger.Info("bonus granted",
		"profile_id", profileID,
		"achievement", achievement.Code,
		"kind", achievement.BonusKind)
	return nil
}

// ActiveSummary aggregates the profile's active grants under the
// stacking rules: multipliers compose multiplicatively (doubled by any
// active double-point day) and clamp at 2.0x; penalty reductions sum
// and clamp at 75%.
func (e *Engine) ActiveSummary(profileID int64) (Summary, error) {
	grants, err := e.achievements.ListActiveGrants(profileID, e.clk.Now())
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Multiplier:          decimal.NewFromInt(1),
		PenaltyReductionPct: decimal.Zero,
		CashOutThresholdCut: decimal.Zero,
	}
	doubleDay := false
	for _, g := range grants {
		switch g.Kind {
		case model.BonusPointMultiplier:
			if g.Multiplier.IsPositive() {
				s.Multiplier = s.Multiplier.Mul(g.Multiplier)
			}
		case model.BonusPenaltyReduction:
			s.PenaltyReductionPct = s.PenaltyReductionPct.Add(g.ReductionPct)
		case model.BonusOneTimeForgiveness:
			s.ForgivenessUses += uses(g)
		case model.BonusDoublePointDay:
			s.DoublePointDayUses += uses(g)
			doubleDay = true
		case model.BonusStreakProtection:
			s.StreakProtectionUses += uses(g)
		case model.BonusReminderSuppression:
			s.ReminderSuppression = true
		case model.BonusEarlyCashOut:
			s.CashOutThresholdCut = s.CashOutThresholdCut.Add(g.ThresholdCut)
		case model.BonusTrustIncrease:
			s.TrustIncrease += g.LevelIncrease
		case model.BonusProfileBadge:
			if g.BadgeKey != "" {
				s.Badges = append(s.Badges, g.BadgeKey)
			}
		}
	}
	if doubleDay {
		s.Multiplier = s.Multiplier.Mul(two)
	}
	if s.Multiplier.GreaterThan(multiplierCap) {
		s.Multiplier = multiplierCap
	}
	if s.PenaltyReductionPct.GreaterThan(reductionCap) {
		s.PenaltyReductionPct = reductionCap
	}
	return s, nil
}

// ConsumeOneTimeUse spends one use of the given bonus kind, picking the
// oldest eligible grant (earn order determines consumption order). It
// reports false when the profile holds no eligible grant.
func (e *Engine) ConsumeOneTimeUse(profileID int64, kind model.BonusKind) (bool, error) {
	e.locks.Lock(profileKey(profileID))
	defer e.locks.Unlock(profileKey(profileID))

	grants, err := e.achievements.ListActiveGrants(profileID, e.clk.Now())
	if err != nil {
		return false, err
	}
	for _, g := range grants {
		if g.Kind != kind || g.RemainingUses == nil || *g.RemainingUses <= 0 {
			continue
		}
		if err := e.achievements.ConsumeUse(g.ID, e.clk.Now()); err != nil {
			return false, err
		}
		e.logger.Info("bonus consumed", "profile_id", profileID, "kind", kind, "grant_id", g.ID)
		return true, nil
	}
	return false, nil
}

// ExpireStale deactivates every grant whose expiration has passed. It
// is invoked by callers (a maintenance endpoint), never self-scheduled.
func (e *Engine) ExpireStale() error {
	n, err := e.achievements.DeactivateExpired(e.clk.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		e.logger.Info("expired bonus grants", "count", n)
	}
	return nil
}

// ApplyPointMultiplier scales an earning by the active multiplier,
// rounding to the minor unit after the multiplication.
func ApplyPointMultiplier(amount decimal.Decimal, s Summary) decimal.Decimal {
	return money.Round2(amount.Mul(s.Multiplier))
}

// ApplyPenaltyReduction shrinks a penalty by the active reduction
// percentage, rounding to the minor unit after the multiplication.
func ApplyPenaltyReduction(amount decimal.Decimal, s Summary) decimal.Decimal {
	keep := hundred.Sub(s.PenaltyReductionPct).Div(hundred)
	return money.Round2(amount.Mul(keep))
}

func uses(g model.BonusGrant) int {
	if g.RemainingUses == nil {
		return 0
	}
	return *g.RemainingUses
}

func profileKey(id int64) string {
	return fmt.Sprintf("profile:%d", id)
}
