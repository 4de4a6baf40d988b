package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/schedule"
	"github.com/jshauns81/daily-bread/internal/store"
)

type TaskHandler struct {
	tasks *store.TaskStore
}

func NewTaskHandler(tasks *store.TaskStore) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type taskRequest struct {
	OwnerID      *int64          `json:"owner_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	EarnValue    decimal.Decimal `json:"earn_value"`
	PenaltyValue decimal.Decimal `json:"penalty_value"`
	Kind         string          `json:"kind"`
	Days         string          `json:"days"`
	WeeklyTarget int             `json:"weekly_target"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	Repeatable   bool            `json:"repeatable"`
	Active       *bool           `json:"active"`
}

func (req *taskRequest) toTask() (model.Task, string) {
	if req.Name == "" {
		return model.Task{}, "name is required"
	}
	kind := model.ScheduleKind(req.Kind)
	switch kind {
	case model.ScheduleSpecificDays:
		if schedule.ParseWeekdays(req.Days) == 0 {
			return model.Task{}, "days must name at least one weekday"
		}
	case model.ScheduleWeeklyFrequency:
		if req.WeeklyTarget < 1 {
			return model.Task{}, "weekly_target must be at least 1"
		}
	default:
		return model.Task{}, "kind must be specific_days or weekly_frequency"
	}
	if req.EarnValue.IsNegative() || req.PenaltyValue.IsNegative() {
		return model.Task{}, "earn_value and penalty_value must not be negative"
	}

	t := model.Task{
		OwnerID:      req.OwnerID,
		Name:         req.Name,
		Description:  req.Description,
		EarnValue:    req.EarnValue,
		PenaltyValue: req.PenaltyValue,
		Kind:         kind,
		Days:         int(schedule.ParseWeekdays(req.Days)),
		WeeklyTarget: req.WeeklyTarget,
		Repeatable:   req.Repeatable,
		Active:       true,
	}
	if req.Active != nil {
		t.Active = *req.Active
	}
	if req.StartDate != "" {
		d, err := parseDateField(req.StartDate)
		if err != nil {
			return model.Task{}, "start_date must be YYYY-MM-DD"
		}
		t.StartDate = &d
	}
	if req.EndDate != "" {
		d, err := parseDateField(req.EndDate)
		if err != nil {
			return model.Task{}, "end_date must be YYYY-MM-DD"
		}
		t.EndDate = &d
	}
	if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
		return model.Task{}, "end_date must not precede start_date"
	}
	return t, ""
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, msg := req.toTask()
	if msg != "" {
		writeErr(w, http.StatusBadRequest, msg)
		return
	}
	created, err := h.tasks.Create(t)
	if err != nil {
		log.Printf("failed to create task: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List()
	if err != nil {
		log.Printf("failed to list tasks: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}
	t, err := h.tasks.GetByID(id)
	if err != nil {
		log.Printf("failed to get task: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if t == nil {
		writeErr(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}
	existing, err := h.tasks.GetByID(id)
	if err != nil {
		log.Printf("failed to get task: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeErr(w, http.StatusNotFound, "task not found")
		return
	}

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, msg := req.toTask()
	if msg != "" {
		writeErr(w, http.StatusBadRequest, msg)
		return
	}
	t.ID = id
	updated, err := h.tasks.Update(t)
	if err != nil {
		log.Printf("failed to update task: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}
	if err := h.tasks.Deactivate(id); err != nil {
		log.Printf("failed to deactivate task: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to deactivate task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type overrideRequest struct {
	Date      string `json:"date"`
	Kind      string `json:"kind"`
	CreatedBy *int64 `json:"created_by"`
}

func (h *TaskHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}
	t, err := h.tasks.GetByID(id)
	if err != nil {
		log.Printf("failed to get task: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if t == nil {
		writeErr(w, http.StatusNotFound, "task not found")
		return
	}

	var req overrideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	kind := model.OverrideKind(req.Kind)
	if kind != model.OverrideAdd && kind != model.OverrideRemove && kind != model.OverrideMove {
		writeErr(w, http.StatusBadRequest, "kind must be add, remove, or move")
		return
	}

	o, err := h.tasks.SetOverride(id, date, kind, req.CreatedBy)
	if err != nil {
		log.Printf("failed to set override: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to set override")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *TaskHandler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}
	date, err := time.ParseInLocation(dateLayout, r.PathValue("date"), time.UTC)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if err := h.tasks.DeleteOverride(id, date); err != nil {
		log.Printf("failed to delete override: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to delete override")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
