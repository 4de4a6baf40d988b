package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/jshauns81/daily-bread/internal/clock"
	"github.com/jshauns81/daily-bread/internal/streak"
)

const defaultStreakLookback = 90

type StreakHandler struct {
	calc *streak.Calculator
	clk  clock.Clock
}

func NewStreakHandler(calc *streak.Calculator, clk clock.Clock) *StreakHandler {
	return &StreakHandler{calc: calc, clk: clk}
}

func (h *StreakHandler) Get(w http.ResponseWriter, r *http.Request) {
	profileID, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	asOf := h.clk.Today()
	if s := r.URL.Query().Get("date"); s != "" {
		asOf, err = parseDateField(s)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}
	lookback := defaultStreakLookback
	if s := r.URL.Query().Get("lookback"); s != "" {
		lookback, err = strconv.Atoi(s)
		if err != nil || lookback < 1 {
			writeErr(w, http.StatusBadRequest, "lookback must be a positive integer")
			return
		}
	}

	current, longest, err := h.calc.CurrentAndLongest(profileID, asOf, lookback)
	if err != nil {
		log.Printf("failed to compute streak: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to compute streak")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile_id": profileID,
		"as_of":      asOf.Format(dateLayout),
		"current":    current,
		"longest":    longest,
	})
}
