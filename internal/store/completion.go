package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jshauns81/daily-bread/internal/model"
)

type CompletionStore struct {
	db *sql.DB
}

func NewCompletionStore(db *sql.DB) *CompletionStore {
	return &CompletionStore{db: db}
}

const completionCols = `id, task_id, date, status, created_at, updated_at`

func scanCompletion(s scanner) (*model.CompletionRecord, error) {
	var r model.CompletionRecord
	var date string

	err := s.Scan(&r.ID, &r.TaskID, &date, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	d, err := parseDate(date)
	if err != nil {
		return nil, fmt.Errorf("parse completion date: %w", err)
	}
	r.Date = d
	return &r, nil
}

// Log creates the completion record for (task, date) if none exists and
// returns it, otherwise returns the existing record unchanged. Exactly
// one record ever exists per (task, date).
func (s *CompletionStore) Log(taskID int64, date time.Time, status model.CompletionStatus) (*model.CompletionRecord, error) {
	_, err := s.db.Exec(
		`INSERT INTO completion_records (task_id, date, status) VALUES (?, ?, ?)
		 ON CONFLICT (task_id, date) DO NOTHING`,
		taskID, fmtDate(date), status,
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	return s.GetByTaskAndDate(taskID, date)
}

func (s *CompletionStore) GetByID(id int64) (*model.CompletionRecord, error) {
	row := s.db.QueryRow(`SELECT `+completionCols+` FROM completion_records WHERE id = ?`, id)
	r, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return r, nil
}

func (s *CompletionStore) GetByTaskAndDate(taskID int64, date time.Time) (*model.CompletionRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+completionCols+` FROM completion_records WHERE task_id = ? AND date = ?`,
		taskID, fmtDate(date),
	)
	r, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion by task/date: %w", err)
	}
	return r, nil
}

func (s *CompletionStore) SetStatus(id int64, status model.CompletionStatus) (*model.CompletionRecord, error) {
	_, err := s.db.Exec(
		`UPDATE completion_records SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set completion status: %w", err)
	}
	return s.GetByID(id)
}

// CountPriorApproved counts approved completions of a task inside the
// week window that were created before the given record. Ordering is by
// row id (creation sequence), not by date: when two completions land in
// the same week the earlier-logged one keeps the better rate.
func (s *CompletionStore) CountPriorApproved(taskID int64, weekStart, weekEnd time.Time, beforeRecordID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM completion_records
		 WHERE task_id = ? AND date >= ? AND date <= ? AND status = ? AND id < ?`,
		taskID, fmtDate(weekStart), fmtDate(weekEnd), model.StatusApproved, beforeRecordID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count prior approved: %w", err)
	}
	return n, nil
}

// CountApprovedInWeek counts all approved completions of a task inside
// the week window, for quota progress display.
func (s *CompletionStore) CountApprovedInWeek(taskID int64, weekStart, weekEnd time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM completion_records
		 WHERE task_id = ? AND date >= ? AND date <= ? AND status = ?`,
		taskID, fmtDate(weekStart), fmtDate(weekEnd), model.StatusApproved,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count approved in week: %w", err)
	}
	return n, nil
}

// ListByOwnerInRange returns completion records in [from, to] for tasks
// assigned to the given profile, oldest first.
func (s *CompletionStore) ListByOwnerInRange(ownerID int64, from, to time.Time) ([]model.CompletionRecord, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.task_id, c.date, c.status, c.created_at, c.updated_at
		 FROM completion_records c
		 JOIN tasks t ON t.id = c.task_id
		 WHERE t.owner_id = ? AND c.date >= ? AND c.date <= ?
		 ORDER BY c.date ASC, c.id ASC`,
		ownerID, fmtDate(from), fmtDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("list completions by owner: %w", err)
	}
	defer rows.Close()

	var records []model.CompletionRecord
	for rows.Next() {
		r, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// CountApprovedByOwner counts all approved completions across a
// profile's tasks, for achievement criteria.
func (s *CompletionStore) CountApprovedByOwner(ownerID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM completion_records c
		 JOIN tasks t ON t.id = c.task_id
		 WHERE t.owner_id = ? AND c.status = ?`,
		ownerID, model.StatusApproved,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count approved by owner: %w", err)
	}
	return n, nil
}
