package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/jshauns81/daily-bread/internal/clock"
	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/schedule"
	"github.com/jshauns81/daily-bread/internal/store"
)

// ScheduleHandler serves the computed day and week views. Neither view
// writes anything; due-ness is always derived from the task definition
// plus any override for the date.
type ScheduleHandler struct {
	tasks       *store.TaskStore
	completions *store.CompletionStore
	clk         clock.Clock
}

func NewScheduleHandler(ts *store.TaskStore, cs *store.CompletionStore, clk clock.Clock) *ScheduleHandler {
	return &ScheduleHandler{tasks: ts, completions: cs, clk: clk}
}

func (h *ScheduleHandler) dateParam(r *http.Request) (time.Time, error) {
	s := r.URL.Query().Get("date")
	if s == "" {
		return h.clk.Today(), nil
	}
	return parseDateField(s)
}

type dayEntry struct {
	Task   model.Task              `json:"task"`
	Record *model.CompletionRecord `json:"record"`
}

func (h *ScheduleHandler) Day(w http.ResponseWriter, r *http.Request) {
	profileID, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	date, err := h.dateParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	tasks, err := h.tasks.ListActiveByOwner(profileID)
	if err != nil {
		log.Printf("failed to list tasks: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	entries := []dayEntry{}
	for _, t := range tasks {
		override, err := h.tasks.GetOverride(t.ID, date)
		if err != nil {
			log.Printf("failed to get override: %v", err)
			writeErr(w, http.StatusInternalServerError, "failed to get override")
			return
		}
		if !schedule.IsDueWithOverride(t, date, override) {
			continue
		}
		record, err := h.completions.GetByTaskAndDate(t.ID, date)
		if err != nil {
			log.Printf("failed to get completion: %v", err)
			writeErr(w, http.StatusInternalServerError, "failed to get completion")
			return
		}
		entries = append(entries, dayEntry{Task: t, Record: record})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date.Format(dateLayout),
		"tasks": entries,
	})
}

type weekTaskSummary struct {
	Task     model.Task `json:"task"`
	Approved int        `json:"approved"`
	Target   int        `json:"target"`
}

func (h *ScheduleHandler) Week(w http.ResponseWriter, r *http.Request) {
	profileID, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	date, err := h.dateParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	start, end := schedule.WeekWindow(date)

	tasks, err := h.tasks.ListActiveByOwner(profileID)
	if err != nil {
		log.Printf("failed to list tasks: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	summaries := []weekTaskSummary{}
	for _, t := range tasks {
		approved, err := h.completions.CountApprovedInWeek(t.ID, start, end)
		if err != nil {
			log.Printf("failed to count approvals: %v", err)
			writeErr(w, http.StatusInternalServerError, "failed to count approvals")
			return
		}
		target := t.WeeklyTarget
		if t.Kind == model.ScheduleSpecificDays {
			target = dueDaysInWeek(t, start)
		}
		summaries = append(summaries, weekTaskSummary{Task: t, Approved: approved, Target: target})
	}

	records, err := h.completions.ListByOwnerInRange(profileID, start, end)
	if err != nil {
		log.Printf("failed to list completions: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to list completions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"week_start": start.Format(dateLayout),
		"week_end":   end.Format(dateLayout),
		"tasks":      summaries,
		"records":    records,
	})
}

func dueDaysInWeek(t model.Task, weekStart time.Time) int {
	n := 0
	for i := 0; i < 7; i++ {
		if schedule.IsDue(t, weekStart.AddDate(0, 0, i)) {
			n++
		}
	}
	return n
}
