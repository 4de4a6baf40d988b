package ledger

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jshauns81/daily-bread/internal/bonus"
	"github.com/jshauns81/daily-bread/internal/clock"
	"github.com/jshauns81/daily-bread/internal/database"
	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/schedule"
	"github.com/jshauns81/daily-bread/internal/store"
)

var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) // a Wednesday

type fixture struct {
	reconciler   *Reconciler
	profiles     *store.ProfileStore
	tasks        *store.TaskStore
	completions  *store.CompletionStore
	ledger       *store.LedgerStore
	achievements *store.AchievementStore
	engine       *bonus.Engine
	profileID    int64
	accountID    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		profiles:     store.NewProfileStore(db),
		tasks:        store.NewTaskStore(db),
		completions:  store.NewCompletionStore(db),
		ledger:       store.NewLedgerStore(db),
		achievements: store.NewAchievementStore(db),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.Fixed{T: testNow}
	f.engine = bonus.NewEngine(f.achievements, f.ledger, clk, logger)
	f.reconciler = NewReconciler(f.tasks, f.completions, f.ledger, f.engine, clk, logger)

	profile, err := f.profiles.Create("Milo", model.RoleChild, "", "", 0)
	require.NoError(t, err)
	f.profileID = profile.ID
	account, err := f.ledger.CreateAccount(profile.ID, "Spending", true)
	require.NoError(t, err)
	f.accountID = account.ID
	return f
}

func (f *fixture) task(t *testing.T, def model.Task) *model.Task {
	t.Helper()
	if def.OwnerID == nil {
		def.OwnerID = &f.profileID
	}
	def.Active = true
	task, err := f.tasks.Create(def)
	require.NoError(t, err)
	return task
}

func (f *fixture) approve(t *testing.T, taskID int64, date time.Time) *model.CompletionRecord {
	t.Helper()
	rec, err := f.completions.Log(taskID, date, model.StatusApproved)
	require.NoError(t, err)
	require.NoError(t, f.reconciler.Reconcile(rec.ID))
	return rec
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := f.ledger.Balance(f.accountID)
	require.NoError(t, err)
	return b
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestApprovedSpecificDaysEarns(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, model.Task{Name: "Feed the dog", EarnValue: dec("1.50"), Kind: model.ScheduleSpecificDays, Days: int(schedule.EveryDay)})

	f.approve(t, task.ID, day(2026, 3, 2))

	assert.True(t, f.balance(t).Equal(dec("1.50")), "balance = %s", f.balance(t))
	txs, err := f.ledger.ListTransactionsByAccount(f.accountID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, model.TxEarning, txs[0].Type)
	assert.Equal(t, "Feed the dog", txs[0].Description)
}

func TestReconcileIdempotent(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, model.Task{Name: "Dishes", EarnValue: dec("2.00"), Kind: model.ScheduleSpecificDays, Days: int(schedule.EveryDay)})
	rec := f.approve(t, task.ID, day(2026, 3, 2))

	// Reconciling again without a status change adds nothing.
	require.NoError(t, f.reconciler.Reconcile(rec.ID))
	require.NoError(t, f.reconciler.Reconcile(rec.ID))

	txs, err := f.ledger.ListTransactionsByAccount(f.accountID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.True(t, f.balance(t).Equal(dec("2.00")))
}

func TestStatusRegressionDeletesTransaction(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, model.Task{Name: "Dishes", EarnValue: dec("2.00"), Kind: model.ScheduleSpecificDays, Days: int(schedule.EveryDay)})
	rec := f.approve(t, task.ID, day(2026, 3, 2))

	_, err := f.completions.SetStatus(rec.ID, model.StatusPending)
	require.NoError(t, err)
	require.NoError(t, f.reconciler.Reconcile(rec.ID))

	assert.True(t, f.balance(t).IsZero())
	tx, err := f.ledger.TransactionForRecord(rec.ID)
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestExpectationTaskMovesNoMoney(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, model.Task{Name: "Brush teeth", EarnValue: decimal.Zero, Kind: model.ScheduleSpecificDays, Days: int(schedule.EveryDay)})

	f.approve(t, task.ID, day(2026, 3, 2))

	assert.True(t, f.balance(t).IsZero())
}

func TestNonMonetaryStatuses(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, model.Task{Name: "Dishes", EarnValue: dec("2.00"), PenaltyValue: dec("1.00"), Kind: model.ScheduleSpecificDays, Days: int(schedule.EveryDay)})

	for _, status := range []model.CompletionStatus{model.StatusPending, model.StatusCompleted, model.StatusSkipped, model.StatusHelpRequested} {
		rec, err := f.completions.Log(task.ID, day(2026, 3, 2), status)
		require.NoError(t, err)
		_, err = f.completions.SetStatus(rec.ID, status)
		require.NoError(t, err)
		require.NoError(t, f.reconciler.Reconcile(rec.ID))
		assert.True(t, f.balance(t).IsZero(), "status %s must not move money", status)
	}
}

func TestMissedPenalty(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, model.Task{Name: "Dishes", PenaltyValue: dec("0.75"), Kind: model.ScheduleSpecificDays, Days: int(schedule.EveryDay)})

	rec, err := f.completions.Log(task.ID, day(2026, 3, 2), model.StatusMissed)
	require.NoError(t, err)
	require.NoError(t, f.reconciler.Reconcile(rec.ID))

	assert.True(t, f.balance(t).Equal(dec("-0.75")), "balance = %s", f.balance(t))
	tx, err := f.ledger.TransactionForRecord(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxDeduction, tx.Type)
	assert.Equal(t, "Missed: Dishes", tx.Description)
}

func TestMissedWithoutPenaltyIsFree(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, model.Task{Name: "Dishes", EarnValue: dec("2.00"), Kind: model.ScheduleSpecificDays, Days: int(schedule.EveryDay)})

	rec, err := f.completions.Log(task.ID, day(2026, 3, 2), model.StatusMissed)
	require.NoError(t, err)
	require.NoError(t, f.reconciler.Reconcile(rec.ID))
	assert.True(t, f.balance(t).IsZero())
}

func TestDiminishingReturns(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, model.Task{
		Name: "Practice piano", EarnValue: dec("10.00"),
		Kind: model.ScheduleWeeklyFrequency, WeeklyTarget: 2, Repeatable: true,
		Days: int(schedule.EveryDay),
	})

	// All in the week of Sun 2026-03-01 .. Sat 2026-03-07.
	f.approve(t, task.ID, day(2026, 3, 1))
	f.approve(t, task.ID, day(2026, 3, 2))
	f.approve(t, task.ID, day(2026, 3, 3))
	f.approve(t, task.ID, day(2026, 3, 4))

	// 10 + 10 + 5 + 2.50
	assert.True(t, f.balance(t).Equal(dec("27.50")), "balance = %s", f.balance(t))

	txs, err := f.ledger.ListTransactionsByAccount(f.accountID)
	require.NoError(t, err)
	require.Len(t, txs, 4)

	byDesc := map[string]string{}
	for _, tx := range txs {
		byDesc[tx.Description] = tx.Amount.StringFixed(2)
	}
	assert.Equal(t, "10.00", byDesc["Practice piano (1/2)"])
	assert.Equal(t, "10.00", byDesc["Practice piano (2/2)"])
	assert.Equal(t, "5.00", byDesc["Practice piano (+1 extra)"])
	assert.Equal(t, "2.50", byDesc["Practice piano (+2 extra)"])
}

func TestNonRepeatableQuotaExhausts(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, model.Task{
		Name: "Practice piano", EarnValue: dec("10.00"),
		Kind: model.ScheduleWeeklyFrequency, WeeklyTarget: 2, Repeatable: false,
		Days: int(schedule.EveryDay),
	})

	f.approve(t, task.ID, day(2026, 3, 1))
	f.approve(t, task.ID, day(2026, 3, 2))
	third := f.approve(t, task.ID, day(2026, 3, 3))

	assert.True(t, f.balance(t).Equal(dec("20.00")), "balance = %s", f.balance(t))
	tx, err := f.ledger.TransactionForRecord(third.ID)
	require.NoError(t, err)
	assert.Nil(t, tx, "third completion exceeds the quota and pays nothing")
}

func TestQuotaResetsAcrossWeeks(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, model.Task{
		Name: "Practice piano", EarnValue: dec("10.00"),
		Kind: model.ScheduleWeeklyFrequency, WeeklyTarget: 1, Repeatable: false,
		Days: int(schedule.EveryDay),
	})

	// Sat 2026-02-28 is in the prior week; Sun 2026-03-01 starts fresh.
	f.approve(t, task.ID, day(2026, 2, 28))
	f.approve(t, task.ID, day(2026, 3, 1))

	assert.True(t, f.balance(t).Equal(dec("20.00")), "balance = %s", f.balance(t))
}

func TestDeepBonusTailRoundsAndVanishes(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, model.Task{
		Name: "Sweep", EarnValue: dec("0.10"),
		Kind: model.ScheduleWeeklyFrequency, WeeklyTarget: 1, Repeatable: true,
		Days: int(schedule.EveryDay),
	})

	// 0.10, then 0.05, 0.03 (0.025 rounded), 0.01, 0.01, then below
	// the minor unit: no transaction at all.
	amounts := []string{"0.10", "0.05", "0.03", "0.01", "0.01"}
	for i := 0; i < 5; i++ {
		rec := f.approve(t, task.ID, day(2026, 3, 1).AddDate(0, 0, i))
		tx, err := f.ledger.TransactionForRecord(rec.ID)
		require.NoError(t, err)
		require.NotNil(t, tx, "completion %d", i+1)
		assert.Equal(t, amounts[i], tx.Amount.StringFixed(2), "completion %d", i+1)
	}

	sixth := f.approve(t, task.ID, day(2026, 3, 6))
	tx, err := f.ledger.TransactionForRecord(sixth.ID)
	require.NoError(t, err)
	assert.Nil(t, tx, "sub-cent amounts are treated as zero")
}

func TestMultiplierAppliedToEarnings(t *testing.T) {
	f := newFixture(t)
	a, err := f.achievements.Create(model.Achievement{
		Code: "boost", Name: "Boost", CriteriaKind: model.CriteriaApprovedCount,
		BonusKind:   model.BonusPointMultiplier,
		BonusConfig: map[string]string{"multiplier": "1.5"},
	})
	require.NoError(t, err)
	require.NoError(t, f.engine.Grant(f.profileID, *a))

	task := f.task(t, model.Task{Name: "Dishes", EarnValue: dec("1.50"), Kind: model.ScheduleSpecificDays, Days: int(schedule.EveryDay)})
	f.approve(t, task.ID, day(2026, 3, 2))

	// 1.50 * 1.5 = 2.25
	assert.True(t, f.balance(t).Equal(dec("2.25")), "balance = %s", f.balance(t))
}

func TestPenaltyReductionAppliedToMisses(t *testing.T) {
	f := newFixture(t)
	a, err := f.achievements.Create(model.Achievement{
		Code: "shield", Name: "Shield", CriteriaKind: model.CriteriaApprovedCount,
		BonusKind:   model.BonusPenaltyReduction,
		BonusConfig: map[string]string{"reduction_percent": "50"},
	})
	require.NoError(t, err)
	require.NoError(t, f.engine.Grant(f.profileID, *a))

	task := f.task(t, model.Task{Name: "Dishes", PenaltyValue: dec("1.00"), Kind: model.ScheduleSpecificDays, Days: int(schedule.EveryDay)})
	rec, err := f.completions.Log(task.ID, day(2026, 3, 2), model.StatusMissed)
	require.NoError(t, err)
	require.NoError(t, f.reconciler.Reconcile(rec.ID))

	assert.True(t, f.balance(t).Equal(dec("-0.50")), "balance = %s", f.balance(t))
}

func TestReconcileMissingRecord(t *testing.T) {
	f := newFixture(t)
	err := f.reconciler.Reconcile(12345)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestReconcileUnassignedTask(t *testing.T) {
	f := newFixture(t)
	task, err := f.tasks.Create(model.Task{Name: "Orphan", EarnValue: dec("1.00"), Kind: model.ScheduleSpecificDays, Days: int(schedule.EveryDay), Active: true})
	require.NoError(t, err)
	rec, err := f.completions.Log(task.ID, day(2026, 3, 2), model.StatusApproved)
	require.NoError(t, err)

	err = f.reconciler.Reconcile(rec.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestReconcileNoActiveAccount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.DeactivateAccount(f.accountID))

	task := f.task(t, model.Task{Name: "Dishes", EarnValue: dec("1.00"), Kind: model.ScheduleSpecificDays, Days: int(schedule.EveryDay)})
	rec, err := f.completions.Log(task.ID, day(2026, 3, 2), model.StatusApproved)
	require.NoError(t, err)

	err = f.reconciler.Reconcile(rec.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTransferValidation(t *testing.T) {
	f := newFixture(t)
	other, err := f.ledger.CreateAccount(f.profileID, "Savings", false)
	require.NoError(t, err)

	err = f.reconciler.Transfer(f.accountID, other.ID, decimal.Zero, "")
	assert.ErrorIs(t, err, model.ErrValidation)

	err = f.reconciler.Transfer(f.accountID, f.accountID, dec("1.00"), "")
	assert.ErrorIs(t, err, model.ErrValidation)

	err = f.reconciler.Transfer(f.accountID, 9999, dec("1.00"), "")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTransferInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	other, err := f.ledger.CreateAccount(f.profileID, "Savings", false)
	require.NoError(t, err)
	_, err = f.ledger.Insert(f.accountID, dec("15.00"), model.TxEarning, "seed", day(2026, 3, 1))
	require.NoError(t, err)

	err = f.reconciler.Transfer(f.accountID, other.ID, dec("20.00"), "too much")
	assert.ErrorIs(t, err, model.ErrInsufficientBalance)

	// Neither leg was written.
	otherBal, err := f.ledger.Balance(other.ID)
	require.NoError(t, err)
	assert.True(t, otherBal.IsZero())
	assert.True(t, f.balance(t).Equal(dec("15.00")))
}

func TestTransferPairsLegs(t *testing.T) {
	f := newFixture(t)
	other, err := f.ledger.CreateAccount(f.profileID, "Savings", false)
	require.NoError(t, err)
	_, err = f.ledger.Insert(f.accountID, dec("15.00"), model.TxEarning, "seed", day(2026, 3, 1))
	require.NoError(t, err)

	require.NoError(t, f.reconciler.Transfer(f.accountID, other.ID, dec("10.00"), "savings"))

	fromTxs, err := f.ledger.ListTransactionsByAccount(f.accountID)
	require.NoError(t, err)
	toTxs, err := f.ledger.ListTransactionsByAccount(other.ID)
	require.NoError(t, err)

	var debit *model.Transaction
	for i := range fromTxs {
		if fromTxs[i].Type == model.TxTransfer {
			debit = &fromTxs[i]
		}
	}
	require.NotNil(t, debit)
	require.Len(t, toTxs, 1)
	assert.True(t, debit.Amount.Equal(dec("-10.00")))
	assert.True(t, toTxs[0].Amount.Equal(dec("10.00")))
	require.NotNil(t, debit.TransferGroupID)
	require.NotNil(t, toTxs[0].TransferGroupID)
	assert.Equal(t, *debit.TransferGroupID, *toTxs[0].TransferGroupID)
}

func TestPayout(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Insert(f.accountID, dec("10.00"), model.TxEarning, "seed", day(2026, 3, 1))
	require.NoError(t, err)

	err = f.reconciler.Payout(f.accountID, dec("25.00"), "cash")
	assert.ErrorIs(t, err, model.ErrInsufficientBalance)

	require.NoError(t, f.reconciler.Payout(f.accountID, dec("10.00"), "cash"))
	assert.True(t, f.balance(t).IsZero())
}

func TestAdjustValidation(t *testing.T) {
	f := newFixture(t)

	err := f.reconciler.Adjust(f.accountID, decimal.Zero, "oops")
	assert.ErrorIs(t, err, model.ErrValidation)

	err = f.reconciler.Adjust(f.accountID, dec("1.00"), "")
	assert.ErrorIs(t, err, model.ErrValidation)

	require.NoError(t, f.reconciler.Adjust(f.accountID, dec("-3.00"), "lost library book"))
	assert.True(t, f.balance(t).Equal(dec("-3.00")))
}
