// Package store provides SQL-backed persistence for the household task
// ledger. Dates (task bounds, completion dates, transaction dates) are
// stored as `2006-01-02` strings; money is stored as integer cents and
// converted at the boundary.
package store

import (
	"database/sql"
	"time"
)

const dateLayout = "2006-01-02"

type scanner interface{ Scan(...any) error }

func fmtDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmtDate(*t), Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
