// Package ledger owns the money side of task completion: the
// reconciliation of completion records into ledger transactions and
// account-to-account transfers.
package ledger

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jshauns81/daily-bread/internal/bonus"
	"github.com/jshauns81/daily-bread/internal/clock"
	"github.com/jshauns81/daily-bread/internal/keymutex"
	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/money"
	"github.com/jshauns81/daily-bread/internal/schedule"
	"github.com/jshauns81/daily-bread/internal/store"
)

var half = decimal.New(5, -1)

type Reconciler struct {
	tasks       *store.TaskStore
	completions *store.CompletionStore
	ledger      *store.LedgerStore
	bonuses     *bonus.Engine
	clk         clock.Clock
	locks       *keymutex.KeyMutex
	logger      *slog.Logger
}

func NewReconciler(ts *store.TaskStore, cs *store.CompletionStore, ls *store.LedgerStore, be *bonus.Engine, clk clock.Clock, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		tasks:       ts,
		completions: cs,
		ledger:      ls,
		bonuses:     be,
		clk:         clk,
		locks:       keymutex.New(),
		logger:      logger,
	}
}

// outcome is the transaction a record's status calls for. A nil outcome
// means the record must have no linked transaction.
type outcome struct {
	amount      decimal.Decimal
	txType      model.TransactionType
	description string
}

// Reconcile maps a completion record's status to its single ledger
// transaction: upsert when one is required, delete when not. Calling it
// repeatedly for an unchanged record is a no-op; at most one
// transaction ever references the record.
func (r *Reconciler) Reconcile(recordID int64) error {
	key := fmt.Sprintf("record:%d", recordID)
	r.locks.Lock(key)
	defer r.locks.Unlock(key)

	record, err := r.completions.GetByID(recordID)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("completion record %d: %w", recordID, model.ErrNotFound)
	}
	task, err := r.tasks.GetByID(record.TaskID)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task %d: %w", record.TaskID, model.ErrNotFound)
	}

	out, err := r.target(task, record)
	if err != nil {
		return err
	}

	if out == nil {
		return r.ledger.DeleteForRecord(record.ID)
	}

	if task.OwnerID == nil {
		return fmt.Errorf("task %d has no owner: %w", task.ID, model.ErrNotFound)
	}
	account, err := r.ledger.DefaultAccount(*task.OwnerID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("no active account for profile %d: %w", *task.OwnerID, model.ErrNotFound)
	}

	if err := r.ledger.UpsertForRecord(record.ID, account.ID, out.amount, out.txType, out.description, record.Date); err != nil {
		return err
	}
	r.logger.Info("reconciled completion",
		"record_id", record.ID,
		"task", task.Name,
		"status", record.Status,
		"amount", out.amount.StringFixed(2))
	return nil
}

// target computes the transaction a record's status requires, with
// bonus modifiers already applied. Money moves only at Approved and
// Missed; every other status clears any linked transaction.
func (r *Reconciler) target(task *model.Task, record *model.CompletionRecord) (*outcome, error) {
	switch record.Status {
	case model.StatusApproved:
		return r.earning(task, record)
	case model.StatusMissed:
		return r.penalty(task)
	default:
		return nil, nil
	}
}

func (r *Reconciler) earning(task *model.Task, record *model.CompletionRecord) (*outcome, error) {
	// Zero-value tasks are expectations: approval moves no money.
	if !task.EarnValue.IsPositive() {
		return nil, nil
	}

	amount := task.EarnValue
	description := task.Name
	if task.Kind == model.ScheduleWeeklyFrequency {
		var err error
		amount, description, err = r.weeklyAmount(task, record)
		if err != nil {
			return nil, err
		}
		if money.IsNegligible(amount) {
			return nil, nil
		}
	}

	summary, err := r.bonuses.ActiveSummary(derefOwner(task))
	if err != nil {
		return nil, err
	}
	amount = bonus.ApplyPointMultiplier(amount, summary)
	if money.IsNegligible(amount) {
		return nil, nil
	}
	return &outcome{amount: amount, txType: model.TxEarning, description: description}, nil
}

// weeklyAmount applies the diminishing-returns rule for weekly-quota
// tasks. Prior approvals are counted in creation order (row id), not by
// date, so same-week completions have a stable total order.
func (r *Reconciler) weeklyAmount(task *model.Task, record *model.CompletionRecord) (decimal.Decimal, string, error) {
	weekStart, weekEnd := schedule.WeekWindow(record.Date)
	n, err := r.completions.CountPriorApproved(task.ID, weekStart, weekEnd, record.ID)
	if err != nil {
		return decimal.Zero, "", err
	}

	if n < task.WeeklyTarget {
		desc := fmt.Sprintf("%s (%d/%d)", task.Name, n+1, task.WeeklyTarget)
		return task.EarnValue, desc, nil
	}
	if !task.Repeatable {
		// Quota exhausted and the task does not pay bonus completions.
		return decimal.Zero, "", nil
	}

	// Bonus completion b pays earnValue * 0.5^(b+1): 50%, 25%, 12.5%...
	b := n - task.WeeklyTarget
	amount := money.Round2(task.EarnValue.Mul(half.Pow(decimal.NewFromInt(int64(b + 1)))))
	desc := fmt.Sprintf("%s (+%d extra)", task.Name, b+1)
	return amount, desc, nil
}

func (r *Reconciler) penalty(task *model.Task) (*outcome, error) {
	if !task.PenaltyValue.IsPositive() {
		return nil, nil
	}
	summary, err := r.bonuses.ActiveSummary(derefOwner(task))
	if err != nil {
		return nil, err
	}
	amount := bonus.ApplyPenaltyReduction(task.PenaltyValue, summary)
	if money.IsNegligible(amount) {
		return nil, nil
	}
	return &outcome{
		amount:      amount.Neg(),
		txType:      model.TxDeduction,
		description: fmt.Sprintf("Missed: %s", task.Name),
	}, nil
}

// derefOwner is only called on paths where the owner has already been
// checked; a missing owner yields an empty summary rather than a panic.
func derefOwner(task *model.Task) int64 {
	if task.OwnerID == nil {
		return 0
	}
	return *task.OwnerID
}

// Transfer moves money between two accounts as a pair of transactions
// sharing a transfer group id. The debit and credit commit atomically;
// a source balance below the amount fails with ErrInsufficientBalance
// and writes nothing.
func (r *Reconciler) Transfer(fromID, toID int64, amount decimal.Decimal, reason string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("transfer amount must be positive: %w", model.ErrValidation)
	}
	if fromID == toID {
		return fmt.Errorf("transfer requires distinct accounts: %w", model.ErrValidation)
	}

	// Lock both accounts in id order so concurrent opposing transfers
	// cannot deadlock.
	first, second := fromID, toID
	if second < first {
		first, second = second, first
	}
	r.locks.Lock(accountKey(first))
	defer r.locks.Unlock(accountKey(first))
	r.locks.Lock(accountKey(second))
	defer r.locks.Unlock(accountKey(second))

	for _, id := range []int64{fromID, toID} {
		account, err := r.ledger.GetAccountByID(id)
		if err != nil {
			return err
		}
		if account == nil {
			return fmt.Errorf("account %d: %w", id, model.ErrNotFound)
		}
	}

	amount = money.Round2(amount)
	if reason == "" {
		reason = "Transfer"
	}
	groupID := uuid.NewString()
	if err := r.ledger.Transfer(fromID, toID, amount, reason, r.clk.Today(), groupID); err != nil {
		return err
	}
	r.logger.Info("transfer",
		"from", fromID, "to", toID,
		"amount", amount.StringFixed(2),
		"group_id", groupID)
	return nil
}

// Payout debits an account for money handed out in the real world.
func (r *Reconciler) Payout(accountID int64, amount decimal.Decimal, reason string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("payout amount must be positive: %w", model.ErrValidation)
	}
	r.locks.Lock(accountKey(accountID))
	defer r.locks.Unlock(accountKey(accountID))

	account, err := r.ledger.GetAccountByID(accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("account %d: %w", accountID, model.ErrNotFound)
	}
	if reason == "" {
		reason = "Payout"
	}
	return r.ledger.Withdraw(accountID, money.Round2(amount), model.TxPayout, reason, r.clk.Today())
}

// Adjust records a manual signed correction. No balance check: parents
// can push an account negative on purpose.
func (r *Reconciler) Adjust(accountID int64, amount decimal.Decimal, reason string) error {
	if amount.IsZero() {
		return fmt.Errorf("adjustment amount must be non-zero: %w", model.ErrValidation)
	}
	if reason == "" {
		return fmt.Errorf("adjustment requires a reason: %w", model.ErrValidation)
	}
	r.locks.Lock(accountKey(accountID))
	defer r.locks.Unlock(accountKey(accountID))

	account, err := r.ledger.GetAccountByID(accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("account %d: %w", accountID, model.ErrNotFound)
	}
	_, err = r.ledger.Insert(accountID, money.Round2(amount), model.TxAdjustment, reason, r.clk.Today())
	return err
}

func accountKey(id int64) string {
	return fmt.Sprintf("account:%d", id)
}
