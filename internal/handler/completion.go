package handler

import (
	"log"
	"net/http"

	"github.com/jshauns81/daily-bread/internal/bonus"
	"github.com/jshauns81/daily-bread/internal/ledger"
	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/store"
)

// CompletionHandler owns the status lifecycle of completion records.
// Every status change runs the ledger reconciler and then re-checks
// achievement criteria for the task owner.
type CompletionHandler struct {
	completions *store.CompletionStore
	tasks       *store.TaskStore
	reconciler  *ledger.Reconciler
	checker     *bonus.Checker
}

func NewCompletionHandler(cs *store.CompletionStore, ts *store.TaskStore, rec *ledger.Reconciler, chk *bonus.Checker) *CompletionHandler {
	return &CompletionHandler{completions: cs, tasks: ts, reconciler: rec, checker: chk}
}

func validStatus(s model.CompletionStatus) bool {
	switch s {
	case model.StatusPending, model.StatusCompleted, model.StatusApproved,
		model.StatusMissed, model.StatusSkipped, model.StatusHelpRequested:
		return true
	}
	return false
}

type logCompletionRequest struct {
	TaskID int64  `json:"task_id"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

func (h *CompletionHandler) Log(w http.ResponseWriter, r *http.Request) {
	var req logCompletionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	status := model.CompletionStatus(req.Status)
	if req.Status == "" {
		status = model.StatusCompleted
	}
	if !validStatus(status) {
		writeErr(w, http.StatusBadRequest, "invalid status")
		return
	}
	task, err := h.tasks.GetByID(req.TaskID)
	if err != nil {
		log.Printf("failed to get task: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if task == nil {
		writeErr(w, http.StatusNotFound, "task not found")
		return
	}

	record, err := h.completions.Log(req.TaskID, date, status)
	if err != nil {
		log.Printf("failed to log completion: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to log completion")
		return
	}
	h.settle(w, record, task)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *CompletionHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid completion id")
		return
	}
	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status := model.CompletionStatus(req.Status)
	if !validStatus(status) {
		writeErr(w, http.StatusBadRequest, "invalid status")
		return
	}
	existing, err := h.completions.GetByID(id)
	if err != nil {
		log.Printf("failed to get completion: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to get completion")
		return
	}
	if existing == nil {
		writeErr(w, http.StatusNotFound, "completion not found")
		return
	}
	task, err := h.tasks.GetByID(existing.TaskID)
	if err != nil {
		log.Printf("failed to get task: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if task == nil {
		writeErr(w, http.StatusNotFound, "task not found")
		return
	}

	record, err := h.completions.SetStatus(id, status)
	if err != nil {
		log.Printf("failed to update completion status: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to update completion status")
		return
	}
	h.settle(w, record, task)
}

func (h *CompletionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid completion id")
		return
	}
	record, err := h.completions.GetByID(id)
	if err != nil {
		log.Printf("failed to get completion: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to get completion")
		return
	}
	if record == nil {
		writeErr(w, http.StatusNotFound, "completion not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// settle reconciles the record against the ledger and re-evaluates
// achievements before responding with the record.
func (h *CompletionHandler) settle(w http.ResponseWriter, record *model.CompletionRecord, task *model.Task) {
	if err := h.reconciler.Reconcile(record.ID); err != nil {
		writeDomainErr(w, err)
		return
	}
	if task.OwnerID != nil {
		if err := h.checker.CheckProfile(*task.OwnerID); err != nil {
			// Achievement evaluation is best effort. The completion and
			// its ledger entry are already settled.
			log.Printf("achievement check failed for profile %d: %v", *task.OwnerID, err)
		}
	}
	writeJSON(w, http.StatusOK, record)
}
