package handler

import (
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/store"
)

type GoalHandler struct {
	goals  *store.GoalStore
	ledger *store.LedgerStore
}

func NewGoalHandler(gs *store.GoalStore, ls *store.LedgerStore) *GoalHandler {
	return &GoalHandler{goals: gs, ledger: ls}
}

type goalRequest struct {
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Priority     int             `json:"priority"`
	IsPrimary    bool            `json:"is_primary"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	profileID, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeErr(w, http.StatusBadRequest, "name is required")
		return
	}
	if !req.TargetAmount.IsPositive() {
		writeErr(w, http.StatusBadRequest, "target_amount must be positive")
		return
	}
	g, err := h.goals.Create(profileID, req.Name, req.TargetAmount, req.Priority, req.IsPrimary)
	if err != nil {
		log.Printf("failed to create goal: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to create goal")
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

type goalProgress struct {
	Goal     model.SavingsGoal `json:"goal"`
	Balance  decimal.Decimal   `json:"balance"`
	Progress decimal.Decimal   `json:"progress"`
}

// List reports each goal with progress measured against the profile's
// default account balance. Goals never hold money themselves.
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	goals, err := h.goals.ListByProfile(profileID)
	if err != nil {
		log.Printf("failed to list goals: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to list goals")
		return
	}

	balance := decimal.Zero
	account, err := h.ledger.DefaultAccount(profileID)
	if err != nil {
		log.Printf("failed to resolve default account: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to resolve default account")
		return
	}
	if account != nil {
		balance, err = h.ledger.Balance(account.ID)
		if err != nil {
			log.Printf("failed to compute balance: %v", err)
			writeErr(w, http.StatusInternalServerError, "failed to compute balance")
			return
		}
	}

	out := make([]goalProgress, 0, len(goals))
	for _, g := range goals {
		progress := decimal.Zero
		if g.TargetAmount.IsPositive() {
			progress = balance.Div(g.TargetAmount).Round(4)
			if progress.GreaterThan(decimal.NewFromInt(1)) {
				progress = decimal.NewFromInt(1)
			}
		}
		out = append(out, goalProgress{Goal: g, Balance: balance, Progress: progress})
	}
	writeJSON(w, http.StatusOK, out)
}

type goalCompleteRequest struct {
	Completed bool `json:"completed"`
}

func (h *GoalHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid goal id")
		return
	}
	g, err := h.goals.GetByID(id)
	if err != nil {
		log.Printf("failed to get goal: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to get goal")
		return
	}
	if g == nil {
		writeErr(w, http.StatusNotFound, "goal not found")
		return
	}
	var req goalCompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.goals.SetCompleted(id, req.Completed); err != nil {
		log.Printf("failed to update goal: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to update goal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid goal id")
		return
	}
	if err := h.goals.Delete(id); err != nil {
		log.Printf("failed to delete goal: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to delete goal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
