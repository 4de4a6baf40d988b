// Package streak computes consecutive perfect-day runs over a bounded
// lookback window of completion history.
package streak

import (
	"time"

	"github.com/jshauns81/daily-bread/internal/clock"
	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/schedule"
	"github.com/jshauns81/daily-bread/internal/store"
)

type Calculator struct {
	tasks       *store.TaskStore
	completions *store.CompletionStore
}

func NewCalculator(ts *store.TaskStore, cs *store.CompletionStore) *Calculator {
	return &Calculator{tasks: ts, completions: cs}
}

type dayKey struct {
	taskID int64
	date   string
}

const dateLayout = "2006-01-02"

// CurrentAndLongest walks backward from asOf for up to lookbackDays.
// A perfect day has at least one due task (overrides resolved) and
// every due task approved or skipped; zero-due days neither extend nor
// break a run. The first imperfect day freezes the current streak but
// the walk continues to find the longest run in the window.
func (c *Calculator) CurrentAndLongest(profileID int64, asOf time.Time, lookbackDays int) (current, longest int, err error) {
	if lookbackDays <= 0 {
		return 0, 0, nil
	}

	asOf = clock.DateOf(asOf)
	from := asOf.AddDate(0, 0, -(lookbackDays - 1))

	tasks, err := c.tasks.ListActiveByOwner(profileID)
	if err != nil {
		return 0, 0, err
	}
	if len(tasks) == 0 {
		return 0, 0, nil
	}

	overrides, err := c.tasks.ListOverridesInRange(from, asOf)
	if err != nil {
		return 0, 0, err
	}
	overrideAt := make(map[dayKey]*model.ScheduleOverride, len(overrides))
	for i := range overrides {
		o := &overrides[i]
		overrideAt[dayKey{o.TaskID, o.Date.Format(dateLayout)}] = o
	}

	records, err := c.completions.ListByOwnerInRange(profileID, from, asOf)
	if err != nil {
		return 0, 0, err
	}
	statusAt := make(map[dayKey]model.CompletionStatus, len(records))
	for _, r := range records {
		statusAt[dayKey{r.TaskID, r.Date.Format(dateLayout)}] = r.Status
	}

	running := 0
	currentEnded := false
	for i := 0; i < lookbackDays; i++ {
		day := asOf.AddDate(0, 0, -i)
		due := 0
		perfect := true
		for _, task := range tasks {
			key := dayKey{task.ID, day.Format(dateLayout)}
			if !schedule.IsDueWithOverride(task, day, overrideAt[key]) {
				continue
			}
			due++
			switch statusAt[key] {
			case model.StatusApproved, model.StatusSkipped:
			default:
				perfect = false
			}
		}

		// Days with nothing due are skipped outright.
		if due == 0 {
			continue
		}

		if perfect {
			running++
			if !currentEnded {
				current = running
			}
			if running > longest {
				longest = running
			}
		} else {
			currentEnded = true
			running = 0
		}
	}
	return current, longest, nil
}
