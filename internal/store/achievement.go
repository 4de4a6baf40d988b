package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/money"
)

type AchievementStore struct {
	db *sql.DB
}

func NewAchievementStore(db *sql.DB) *AchievementStore {
	return &AchievementStore{db: db}
}

// --- Achievement methods ---

const achievementCols = `id, code, name, description, criteria_kind, criteria_threshold, bonus_kind, bonus_config, created_at`

func scanAchievement(s scanner) (*model.Achievement, error) {
	var a model.Achievement
	var config string

	err := s.Scan(&a.ID, &a.Code, &a.Name, &a.Description, &a.CriteriaKind, &a.CriteriaThreshold, &a.BonusKind, &config, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	if config != "" {
		if err := json.Unmarshal([]byte(config), &a.BonusConfig); err != nil {
			return nil, fmt.Errorf("decode bonus config: %w", err)
		}
	}
	return &a, nil
}

func (s *AchievementStore) Create(a model.Achievement) (*model.Achievement, error) {
	config, err := json.Marshal(a.BonusConfig)
	if err != nil {
		return nil, fmt.Errorf("encode bonus config: %w", err)
	}
	result, err := s.db.Exec(
		`INSERT INTO achievements (code, name, description, criteria_kind, criteria_threshold, bonus_kind, bonus_config)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Code, a.Name, a.Description, a.CriteriaKind, a.CriteriaThreshold, a.BonusKind, string(config),
	)
	if err != nil {
		return nil, fmt.Errorf("insert achievement: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AchievementStore) GetByID(id int64) (*model.Achievement, error) {
	row := s.db.QueryRow(`SELECT `+achievementCols+` FROM achievements WHERE id = ?`, id)
	a, err := scanAchievement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get achievement: %w", err)
	}
	return a, nil
}

func (s *AchievementStore) GetByCode(code string) (*model.Achievement, error) {
	row := s.db.QueryRow(`SELECT `+achievementCols+` FROM achievements WHERE code = ?`, code)
	a, err := scanAchievement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get achievement by code: %w", err)
	}
	return a, nil
}

func (s *AchievementStore) List() ([]model.Achievement, error) {
	rows, err := s.db.Query(`SELECT ` + achievementCols + ` FROM achievements ORDER BY code ASC`)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var achievements []model.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		achievements = append(achievements, *a)
	}
	return achievements, rows.Err()
}

// --- Grant methods ---

const grantCols = `id, profile_id, achievement_id, kind, multiplier, reduction_pct, amount_cents, threshold_cut_cents, level_increase, badge_key, active, expires_at, remaining_uses, granted_at, last_used_at`

func scanGrant(s scanner) (*model.BonusGrant, error) {
	var g model.BonusGrant
	var multiplier, reduction string
	var amount, thresholdCut int64
	var active int
	var expires, lastUsed sql.NullTime
	var uses sql.NullInt64

	err := s.Scan(&g.ID, &g.ProfileID, &g.AchievementID, &g.Kind, &multiplier, &reduction,
		&amount, &thresholdCut, &g.LevelIncrease, &g.BadgeKey, &active, &expires, &uses, &g.GrantedAt, &lastUsed)
	if err != nil {
		return nil, err
	}

	g.Multiplier = money.MustParse(multiplier)
	g.ReductionPct = money.MustParse(reduction)
	g.Amount = money.FromCents(amount)
	g.ThresholdCut = money.FromCents(thresholdCut)
	g.Active = active != 0
	if expires.Valid {
		t := expires.Time.UTC()
		g.ExpiresAt = &t
	}
	if uses.Valid {
		n := int(uses.Int64)
		g.RemainingUses = &n
	}
	if lastUsed.Valid {
		t := lastUsed.Time.UTC()
		g.LastUsedAt = &t
	}
	return &g, nil
}

// InsertGrant records a bonus grant. The (profile, achievement) unique
// key means a second grant for the same pair fails, which GetGrant
// callers avoid by checking first.
func (s *AchievementStore) InsertGrant(g model.BonusGrant) (*model.BonusGrant, error) {
	var expires any
	if g.ExpiresAt != nil {
		expires = g.ExpiresAt.UTC()
	}
	var uses any
	if g.RemainingUses != nil {
		uses = *g.RemainingUses
	}
	result, err := s.db.Exec(
		`INSERT INTO bonus_grants (profile_id, achievement_id, kind, multiplier, reduction_pct, amount_cents, threshold_cut_cents, level_increase, badge_key, active, expires_at, remaining_uses, granted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ProfileID, g.AchievementID, g.Kind, g.Multiplier.String(), g.ReductionPct.String(),
		money.ToCents(g.Amount), money.ToCents(g.ThresholdCut), g.LevelIncrease, g.BadgeKey,
		boolInt(g.Active), expires, uses, g.GrantedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert grant: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+grantCols+` FROM bonus_grants WHERE id = ?`, id)
	return scanGrant(row)
}

func (s *AchievementStore) GetGrant(profileID, achievementID int64) (*model.BonusGrant, error) {
	row := s.db.QueryRow(
		`SELECT `+grantCols+` FROM bonus_grants WHERE profile_id = ? AND achievement_id = ?`,
		profileID, achievementID,
	)
	g, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get grant: %w", err)
	}
	return g, nil
}

// ListActiveGrants returns a profile's grants that are active, not
// expired as of now, and not exhausted, oldest grant first.
func (s *AchievementStore) ListActiveGrants(profileID int64, now time.Time) ([]model.BonusGrant, error) {
	rows, err := s.db.Query(
		`SELECT `+grantCols+` FROM bonus_grants
		 WHERE profile_id = ? AND active = 1
		   AND (expires_at IS NULL OR expires_at > ?)
		   AND (remaining_uses IS NULL OR remaining_uses > 0)
		 ORDER BY granted_at ASC, id ASC`,
		profileID, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list active grants: %w", err)
	}
	defer rows.Close()

	var grants []model.BonusGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, *g)
	}
	return grants, rows.Err()
}

// ConsumeUse decrements a grant's remaining uses, stamps last-used, and
// deactivates the grant when the counter hits zero.
func (s *AchievementStore) ConsumeUse(grantID int64, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE bonus_grants SET remaining_uses = remaining_uses - 1, last_used_at = ? WHERE id = ? AND remaining_uses > 0`,
		now.UTC(), grantID,
	)
	if err != nil {
		return fmt.Errorf("decrement uses: %w", err)
	}
	_, err = tx.Exec(`UPDATE bonus_grants SET active = 0 WHERE id = ? AND remaining_uses <= 0`, grantID)
	if err != nil {
		return fmt.Errorf("deactivate exhausted grant: %w", err)
	}
	return tx.Commit()
}

// DeactivateGrant retires a grant outright (immediate bonuses, sweep).
func (s *AchievementStore) DeactivateGrant(grantID int64) error {
	_, err := s.db.Exec(`UPDATE bonus_grants SET active = 0 WHERE id = ?`, grantID)
	if err != nil {
		return fmt.Errorf("deactivate grant: %w", err)
	}
	return nil
}

// DeactivateExpired sweeps every grant whose expiration has passed.
func (s *AchievementStore) DeactivateExpired(now time.Time) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE bonus_grants SET active = 0 WHERE active = 1 AND expires_at IS NOT NULL AND expires_at <= ?`,
		now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired grants: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
