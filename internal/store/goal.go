package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/money"
)

type GoalStore struct {
	db *sql.DB
}

func NewGoalStore(db *sql.DB) *GoalStore {
	return &GoalStore{db: db}
}

const goalCols = `id, profile_id, name, target_amount_cents, priority, is_primary, completed, created_at, updated_at`

func scanGoal(s scanner) (*model.SavingsGoal, error) {
	var g model.SavingsGoal
	var target int64
	var isPrimary, completed int

	err := s.Scan(&g.ID, &g.ProfileID, &g.Name, &target, &g.Priority, &isPrimary, &completed, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}

	g.TargetAmount = money.FromCents(target)
	g.IsPrimary = isPrimary != 0
	g.Completed = completed != 0
	return &g, nil
}

func (s *GoalStore) Create(profileID int64, name string, target decimal.Decimal, priority int, isPrimary bool) (*model.SavingsGoal, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if isPrimary {
		if _, err := tx.Exec(`UPDATE savings_goals SET is_primary = 0 WHERE profile_id = ?`, profileID); err != nil {
			return nil, fmt.Errorf("clear primary goal: %w", err)
		}
	}
	result, err := tx.Exec(
		`INSERT INTO savings_goals (profile_id, name, target_amount_cents, priority, is_primary) VALUES (?, ?, ?, ?, ?)`,
		profileID, name, money.ToCents(target), priority, boolInt(isPrimary),
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *GoalStore) GetByID(id int64) (*model.SavingsGoal, error) {
	row := s.db.QueryRow(`SELECT `+goalCols+` FROM savings_goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *GoalStore) ListByProfile(profileID int64) ([]model.SavingsGoal, error) {
	rows, err := s.db.Query(
		`SELECT `+goalCols+` FROM savings_goals WHERE profile_id = ? ORDER BY is_primary DESC, priority ASC, name ASC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []model.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (s *GoalStore) SetCompleted(id int64, completed bool) error {
	_, err := s.db.Exec(
		`UPDATE savings_goals SET completed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolInt(completed), id,
	)
	if err != nil {
		return fmt.Errorf("set goal completed: %w", err)
	}
	return nil
}

func (s *GoalStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM savings_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}
