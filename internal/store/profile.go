package store

import (
	"database/sql"
	"fmt"

	"github.com/jshauns81/daily-bread/internal/model"
)

type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

const profileCols = `id, name, role, color, avatar_emoji, active, sort_order, created_at, updated_at`

func scanProfile(s scanner) (*model.Profile, error) {
	var p model.Profile
	var active int

	err := s.Scan(&p.ID, &p.Name, &p.Role, &p.Color, &p.AvatarEmoji, &active, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Active = active != 0
	return &p, nil
}

func (s *ProfileStore) Create(name string, role model.ProfileRole, color, emoji string, sortOrder int) (*model.Profile, error) {
	result, err := s.db.Exec(
		`INSERT INTO profiles (name, role, color, avatar_emoji, sort_order) VALUES (?, ?, ?, ?, ?)`,
		name, role, color, emoji, sortOrder,
	)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProfileStore) GetByID(id int64) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) List() ([]model.Profile, error) {
	rows, err := s.db.Query(`SELECT ` + profileCols + ` FROM profiles ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *ProfileStore) Update(id int64, name string, role model.ProfileRole, color, emoji string, active bool, sortOrder int) (*model.Profile, error) {
	_, err := s.db.Exec(
		`UPDATE profiles SET name = ?, role = ?, color = ?, avatar_emoji = ?, active = ?, sort_order = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, role, color, emoji, boolInt(active), sortOrder, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetByID(id)
}

// Deactivate retires a profile without deleting its history.
func (s *ProfileStore) Deactivate(id int64) error {
	_, err := s.db.Exec(`UPDATE profiles SET active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate profile: %w", err)
	}
	return nil
}
