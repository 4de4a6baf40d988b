package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/jshauns81/daily-bread/internal/model"
)

const dateLayout = "2006-01-02"

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func parseDateField(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainErr maps the engine error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is an internal failure.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrValidation):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrInsufficientBalance):
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrConcurrencyConflict):
		writeErr(w, http.StatusConflict, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}
