package handler

import (
	"log"
	"net/http"

	"github.com/jshauns81/daily-bread/internal/bonus"
	"github.com/jshauns81/daily-bread/internal/clock"
	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/store"
)

type BonusHandler struct {
	achievements *store.AchievementStore
	engine       *bonus.Engine
	clk          clock.Clock
}

func NewBonusHandler(as *store.AchievementStore, engine *bonus.Engine, clk clock.Clock) *BonusHandler {
	return &BonusHandler{achievements: as, engine: engine, clk: clk}
}

type achievementRequest struct {
	Code              string            `json:"code"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	CriteriaKind      string            `json:"criteria_kind"`
	CriteriaThreshold int               `json:"criteria_threshold"`
	BonusKind         string            `json:"bonus_kind"`
	BonusConfig       map[string]string `json:"bonus_config"`
}

func validCriteria(s string) bool {
	k := model.CriteriaKind(s)
	return k == model.CriteriaApprovedCount || k == model.CriteriaStreakLength || k == model.CriteriaBalanceThreshold
}

func validBonusKind(s string) bool {
	switch model.BonusKind(s) {
	case model.BonusPointMultiplier, model.BonusPenaltyReduction, model.BonusOneTimeForgiveness,
		model.BonusDoublePointDay, model.BonusStreakProtection, model.BonusReminderSuppression,
		model.BonusEarlyCashOut, model.BonusTrustIncrease, model.BonusProfileBadge,
		model.BonusUnlockTier, model.BonusImmediatePoints:
		return true
	}
	return false
}

func (h *BonusHandler) CreateAchievement(w http.ResponseWriter, r *http.Request) {
	var req achievementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" || req.Name == "" {
		writeErr(w, http.StatusBadRequest, "code and name are required")
		return
	}
	if !validCriteria(req.CriteriaKind) {
		writeErr(w, http.StatusBadRequest, "invalid criteria_kind")
		return
	}
	if req.CriteriaThreshold < 1 {
		writeErr(w, http.StatusBadRequest, "criteria_threshold must be at least 1")
		return
	}
	if !validBonusKind(req.BonusKind) {
		writeErr(w, http.StatusBadRequest, "invalid bonus_kind")
		return
	}
	existing, err := h.achievements.GetByCode(req.Code)
	if err != nil {
		log.Printf("failed to look up achievement: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to look up achievement")
		return
	}
	if existing != nil {
		writeErr(w, http.StatusConflict, "achievement code already exists")
		return
	}

	a, err := h.achievements.Create(model.Achievement{
		Code:              req.Code,
		Name:              req.Name,
		Description:       req.Description,
		CriteriaKind:      model.CriteriaKind(req.CriteriaKind),
		CriteriaThreshold: req.CriteriaThreshold,
		BonusKind:         model.BonusKind(req.BonusKind),
		BonusConfig:       req.BonusConfig,
	})
	if err != nil {
		log.Printf("failed to create achievement: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to create achievement")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *BonusHandler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.achievements.List()
	if err != nil {
		log.Printf("failed to list achievements: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to list achievements")
		return
	}
	writeJSON(w, http.StatusOK, achievements)
}

// Summary returns the aggregated active modifiers plus the raw grants
// they were derived from.
func (h *BonusHandler) Summary(w http.ResponseWriter, r *http.Request) {
	profileID, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	summary, err := h.engine.ActiveSummary(profileID)
	if err != nil {
		log.Printf("failed to summarize bonuses: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to summarize bonuses")
		return
	}
	grants, err := h.achievements.ListActiveGrants(profileID, h.clk.Now())
	if err != nil {
		log.Printf("failed to list grants: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to list grants")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": summary,
		"grants":  grants,
	})
}

type consumeRequest struct {
	Kind string `json:"kind"`
}

func (h *BonusHandler) Consume(w http.ResponseWriter, r *http.Request) {
	profileID, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	var req consumeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validBonusKind(req.Kind) {
		writeErr(w, http.StatusBadRequest, "invalid bonus kind")
		return
	}
	consumed, err := h.engine.ConsumeOneTimeUse(profileID, model.BonusKind(req.Kind))
	if err != nil {
		log.Printf("failed to consume bonus: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to consume bonus")
		return
	}
	if !consumed {
		writeErr(w, http.StatusNotFound, "no active use of that bonus kind")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExpireStale deactivates grants whose expiry has passed. Exposed as a
// maintenance endpoint for a cron job.
func (h *BonusHandler) ExpireStale(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ExpireStale(); err != nil {
		log.Printf("failed to expire grants: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to expire grants")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
