package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jshauns81/daily-bread/internal/model"
)

func TestAchievementRoundTrip(t *testing.T) {
	_, _, _, _, as, _ := setupTestDB(t)

	created, err := as.Create(model.Achievement{
		Code:              "week-warrior",
		Name:              "Week Warrior",
		CriteriaKind:      model.CriteriaStreakLength,
		CriteriaThreshold: 7,
		BonusKind:         model.BonusPointMultiplier,
		BonusConfig:       map[string]string{"multiplier": "1.5", "duration_days": "14"},
	})
	if err != nil {
		t.Fatalf("create achievement: %v", err)
	}

	got, err := as.GetByCode("week-warrior")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("got = %+v", got)
	}
	if got.BonusConfig["multiplier"] != "1.5" {
		t.Errorf("config multiplier = %q, want 1.5", got.BonusConfig["multiplier"])
	}
}

func TestActiveGrantsFilterAndOrder(t *testing.T) {
	ps, _, _, _, as, _ := setupTestDB(t)

	profile, _ := ps.Create("Milo", model.RoleChild, "", "", 0)
	a1, _ := as.Create(model.Achievement{Code: "a1", Name: "A1", CriteriaKind: model.CriteriaApprovedCount})
	a2, _ := as.Create(model.Achievement{Code: "a2", Name: "A2", CriteriaKind: model.CriteriaApprovedCount})
	a3, _ := as.Create(model.Achievement{Code: "a3", Name: "A3", CriteriaKind: model.CriteriaApprovedCount})

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	uses := 1
	past := now.Add(-time.Hour)

	// Two live grants, oldest first, plus one already expired.
	as.InsertGrant(model.BonusGrant{ProfileID: profile.ID, AchievementID: a1.ID, Kind: model.BonusStreakProtection, Active: true, RemainingUses: &uses, GrantedAt: now.Add(-48 * time.Hour)})
	as.InsertGrant(model.BonusGrant{ProfileID: profile.ID, AchievementID: a2.ID, Kind: model.BonusStreakProtection, Active: true, RemainingUses: &uses, GrantedAt: now.Add(-24 * time.Hour)})
	as.InsertGrant(model.BonusGrant{ProfileID: profile.ID, AchievementID: a3.ID, Kind: model.BonusPointMultiplier, Multiplier: decimal.NewFromFloat(1.5), Active: true, ExpiresAt: &past, GrantedAt: now.Add(-12 * time.Hour)})

	grants, err := as.ListActiveGrants(profile.ID, now)
	if err != nil {
		t.Fatalf("list active grants: %v", err)
	}
	if len(grants) != 2 {
		t.Fatalf("active grants = %d, want 2 (expired one excluded)", len(grants))
	}
	if grants[0].AchievementID != a1.ID {
		t.Errorf("first grant = achievement %d, want oldest (%d)", grants[0].AchievementID, a1.ID)
	}
}

func TestConsumeUseDeactivatesAtZero(t *testing.T) {
	ps, _, _, _, as, _ := setupTestDB(t)

	profile, _ := ps.Create("Milo", model.RoleChild, "", "", 0)
	a, _ := as.Create(model.Achievement{Code: "a", Name: "A", CriteriaKind: model.CriteriaApprovedCount})

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	uses := 2
	g, _ := as.InsertGrant(model.BonusGrant{ProfileID: profile.ID, AchievementID: a.ID, Kind: model.BonusOneTimeForgiveness, Active: true, RemainingUses: &uses, GrantedAt: now})

	if err := as.ConsumeUse(g.ID, now); err != nil {
		t.Fatalf("consume: %v", err)
	}
	got, _ := as.GetGrant(profile.ID, a.ID)
	if got.RemainingUses == nil || *got.RemainingUses != 1 || !got.Active {
		t.Fatalf("after first use: %+v", got)
	}
	if got.LastUsedAt == nil {
		t.Error("last_used_at should be stamped")
	}

	if err := as.ConsumeUse(g.ID, now); err != nil {
		t.Fatalf("consume: %v", err)
	}
	got, _ = as.GetGrant(profile.ID, a.ID)
	if got.Active || *got.RemainingUses != 0 {
		t.Fatalf("after final use: %+v, want inactive with 0 uses", got)
	}
}

func TestDeactivateExpiredSweep(t *testing.T) {
	ps, _, _, _, as, _ := setupTestDB(t)

	profile, _ := ps.Create("Milo", model.RoleChild, "", "", 0)
	a1, _ := as.Create(model.Achievement{Code: "a1", Name: "A1", CriteriaKind: model.CriteriaApprovedCount})
	a2, _ := as.Create(model.Achievement{Code: "a2", Name: "A2", CriteriaKind: model.CriteriaApprovedCount})

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)

	as.InsertGrant(model.BonusGrant{ProfileID: profile.ID, AchievementID: a1.ID, Kind: model.BonusPointMultiplier, Active: true, ExpiresAt: &past, GrantedAt: now.Add(-time.Hour)})
	// Permanent grant without expiration is untouched by the sweep.
	as.InsertGrant(model.BonusGrant{ProfileID: profile.ID, AchievementID: a2.ID, Kind: model.BonusUnlockTier, Active: true, GrantedAt: now.Add(-time.Hour)})

	n, err := as.DeactivateExpired(now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("swept = %d, want 1", n)
	}

	g1, _ := as.GetGrant(profile.ID, a1.ID)
	g2, _ := as.GetGrant(profile.ID, a2.ID)
	if g1.Active {
		t.Error("expired grant should be inactive")
	}
	if !g2.Active {
		t.Error("permanent grant should stay active")
	}
}
