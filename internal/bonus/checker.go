package bonus

import (
	"log/slog"

	"github.com/jshauns81/daily-bread/internal/clock"
	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/store"
	"github.com/jshauns81/daily-bread/internal/streak"
)

// Checker evaluates achievement criteria against a profile's history
// and grants any achievement whose threshold is met. Granting is
// idempotent, so re-checking after every reconciliation is safe.
type Checker struct {
	achievements *store.AchievementStore
	completions  *store.CompletionStore
	ledger       *store.LedgerStore
	streaks      *streak.Calculator
	engine       *Engine
	clk          clock.Clock
	logger       *slog.Logger
}

const streakCriteriaLookbackDays = 365

func NewChecker(as *store.AchievementStore, cs *store.CompletionStore, ls *store.LedgerStore, sc *streak.Calculator, engine *Engine, clk clock.Clock, logger *slog.Logger) *Checker {
	return &Checker{
		achievements: as,
		completions:  cs,
		ledger:       ls,
		streaks:      sc,
		engine:       engine,
		clk:          clk,
		logger:       logger,
	}
}

// CheckProfile evaluates every achievement for one profile.
func (c *Checker) CheckProfile(profileID int64) error {
	achievements, err := c.achievements.List()
	if err != nil {
		return err
	}
	for _, a := range achievements {
		met, err := c.met(profileID, a)
		if err != nil {
			return err
		}
		if !met {
			continue
		}
		if err := c.engine.Grant(profileID, a); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) met(profileID int64, a model.Achievement) (bool, error) {
	switch a.CriteriaKind {
	case model.CriteriaApprovedCount:
		n, err := c.completions.CountApprovedByOwner(profileID)
		if err != nil {
			return false, err
		}
		return n >= a.CriteriaThreshold, nil

	case model.CriteriaStreakLength:
		current, _, err := c.streaks.CurrentAndLongest(profileID, c.clk.Today(), streakCriteriaLookbackDays)
		if err != nil {
			return false, err
		}
		return current >= a.CriteriaThreshold, nil

	case model.CriteriaBalanceThreshold:
		account, err := c.ledger.DefaultAccount(profileID)
		if err != nil {
			return false, err
		}
		if account == nil {
			return false, nil
		}
		balance, err := c.ledger.Balance(account.ID)
		if err != nil {
			return false, err
		}
		return balance.IntPart() >= int64(a.CriteriaThreshold), nil

	default:
		c.logger.Warn("unknown achievement criteria", "achievement", a.Code, "kind", a.CriteriaKind)
		return false, nil
	}
}
