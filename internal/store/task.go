package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/money"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// --- Task methods ---

const taskCols = `id, owner_id, name, description, earn_value_cents, penalty_value_cents, kind, days, weekly_target, start_date, end_date, repeatable, active, created_at, updated_at`

func scanTask(s scanner) (*model.Task, error) {
	var t model.Task
	var owner sql.NullInt64
	var earn, penalty int64
	var start, end sql.NullString
	var repeatable, active int

	err := s.Scan(&t.ID, &owner, &t.Name, &t.Description, &earn, &penalty, &t.Kind, &t.Days,
		&t.WeeklyTarget, &start, &end, &repeatable, &active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if owner.Valid {
		t.OwnerID = &owner.Int64
	}
	t.EarnValue = money.FromCents(earn)
	t.PenaltyValue = money.FromCents(penalty)
	if start.Valid {
		d, err := parseDate(start.String)
		if err != nil {
			return nil, fmt.Errorf("parse start date: %w", err)
		}
		t.StartDate = &d
	}
	if end.Valid {
		d, err := parseDate(end.String)
		if err != nil {
			return nil, fmt.Errorf("parse end date: %w", err)
		}
		t.EndDate = &d
	}
	t.Repeatable = repeatable != 0
	t.Active = active != 0
	return &t, nil
}

func (s *TaskStore) Create(t model.Task) (*model.Task, error) {
	result, err := s.db.Exec(
		`INSERT INTO tasks (owner_id, name, description, earn_value_cents, penalty_value_cents, kind, days, weekly_target, start_date, end_date, repeatable, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt(t.OwnerID), t.Name, t.Description, money.ToCents(t.EarnValue), money.ToCents(t.PenaltyValue),
		t.Kind, t.Days, t.WeeklyTarget, nullDate(t.StartDate), nullDate(t.EndDate),
		boolInt(t.Repeatable), boolInt(t.Active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) List() ([]model.Task, error) {
	rows, err := s.db.Query(`SELECT ` + taskCols + ` FROM tasks ORDER BY active DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ListActiveByOwner returns the active tasks assigned to a profile.
func (s *TaskStore) ListActiveByOwner(ownerID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE owner_id = ? AND active = 1 ORDER BY name ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by owner: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Update(t model.Task) (*model.Task, error) {
	_, err := s.db.Exec(
		`UPDATE tasks SET owner_id = ?, name = ?, description = ?, earn_value_cents = ?, penalty_value_cents = ?, kind = ?, days = ?, weekly_target = ?, start_date = ?, end_date = ?, repeatable = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		nullInt(t.OwnerID), t.Name, t.Description, money.ToCents(t.EarnValue), money.ToCents(t.PenaltyValue),
		t.Kind, t.Days, t.WeeklyTarget, nullDate(t.StartDate), nullDate(t.EndDate),
		boolInt(t.Repeatable), boolInt(t.Active), t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(t.ID)
}

// Deactivate retires a task. Tasks are never deleted so their completion
// and ledger history stays intact.
func (s *TaskStore) Deactivate(id int64) error {
	_, err := s.db.Exec(`UPDATE tasks SET active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate task: %w", err)
	}
	return nil
}

// --- Override methods ---

const overrideCols = `id, task_id, date, kind, created_by, created_at`

func scanOverride(s scanner) (*model.ScheduleOverride, error) {
	var o model.ScheduleOverride
	var date string
	var createdBy sql.NullInt64

	err := s.Scan(&o.ID, &o.TaskID, &date, &o.Kind, &createdBy, &o.CreatedAt)
	if err != nil {
		return nil, err
	}

	d, err := parseDate(date)
	if err != nil {
		return nil, fmt.Errorf("parse override date: %w", err)
	}
	o.Date = d
	if createdBy.Valid {
		o.CreatedBy = &createdBy.Int64
	}
	return &o, nil
}

// SetOverride records a one-off schedule deviation. The (task, date)
// unique key makes re-setting an override replace the previous one.
func (s *TaskStore) SetOverride(taskID int64, date time.Time, kind model.OverrideKind, createdBy *int64) (*model.ScheduleOverride, error) {
	_, err := s.db.Exec(
		`INSERT INTO schedule_overrides (task_id, date, kind, created_by) VALUES (?, ?, ?, ?)
		 ON CONFLICT (task_id, date) DO UPDATE SET kind = excluded.kind, created_by = excluded.created_by`,
		taskID, fmtDate(date), kind, nullInt(createdBy),
	)
	if err != nil {
		return nil, fmt.Errorf("set override: %w", err)
	}
	return s.GetOverride(taskID, date)
}

func (s *TaskStore) GetOverride(taskID int64, date time.Time) (*model.ScheduleOverride, error) {
	row := s.db.QueryRow(
		`SELECT `+overrideCols+` FROM schedule_overrides WHERE task_id = ? AND date = ?`,
		taskID, fmtDate(date),
	)
	o, err := scanOverride(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get override: %w", err)
	}
	return o, nil
}

func (s *TaskStore) DeleteOverride(taskID int64, date time.Time) error {
	_, err := s.db.Exec(
		`DELETE FROM schedule_overrides WHERE task_id = ? AND date = ?`,
		taskID, fmtDate(date),
	)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}

// ListOverridesInRange returns all overrides for the given tasks with
// dates in [from, to], keyed for lookup by (task, date).
func (s *TaskStore) ListOverridesInRange(from, to time.Time) ([]model.ScheduleOverride, error) {
	rows, err := s.db.Query(
		`SELECT `+overrideCols+` FROM schedule_overrides WHERE date >= ? AND date <= ? ORDER BY date ASC`,
		fmtDate(from), fmtDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	var overrides []model.ScheduleOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		overrides = append(overrides, *o)
	}
	return overrides, rows.Err()
}
