// Package schedule decides whether a recurring task is due on a given
// date. It is pure: value in, value out, no store access. Overrides are
// resolved by callers via IsDueWithOverride.
package schedule

import (
	"strings"
	"time"

	"github.com/jshauns81/daily-bread/internal/clock"
	"github.com/jshauns81/daily-bread/internal/model"
)

// Weekdays is a 7-bit day-of-week set. The bit assignment is fixed here
// rather than derived from time.Weekday ordering:
//
//	bit 0 = Sunday
//	bit 1 = Monday
//	bit 2 = Tuesday
//	bit 3 = Wednesday
//	bit 4 = Thursday
//	bit 5 = Friday
//	bit 6 = Saturday
type Weekdays int

const (
	Sunday Weekdays = 1 << iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday

	EveryDay Weekdays = Sunday | Monday | Tuesday | Wednesday | Thursday | Friday | Saturday
)

var weekdayBits = map[time.Weekday]Weekdays{
	time.Sunday:    Sunday,
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
}

var weekdayNames = []struct {
	name string
	full string
	bit  Weekdays
}{
	{"sun", "sunday", Sunday},
	{"mon", "monday", Monday},
	{"tue", "tuesday", Tuesday},
	{"wed", "wednesday", Wednesday},
	{"thu", "thursday", Thursday},
	{"fri", "friday", Friday},
	{"sat", "saturday", Saturday},
}

// BitFor returns the set bit for a calendar weekday.
func BitFor(d time.Weekday) Weekdays { return weekdayBits[d] }

func (w Weekdays) Has(d time.Weekday) bool      { return w&weekdayBits[d] != 0 }
func (w Weekdays) With(d time.Weekday) Weekdays { return w | weekdayBits[d] }
func (w Weekdays) Without(d time.Weekday) Weekdays {
	return w &^ weekdayBits[d]
}

func (w Weekdays) String() string {
	var parts []string
	for _, e := range weekdayNames {
		if w&e.bit != 0 {
			parts = append(parts, e.name)
		}
	}
	return strings.Join(parts, ",")
}

// ParseWeekdays parses a comma-separated day list. Both abbreviated and
// full names are accepted ("mon,wed,fri", "monday,wednesday"). Unknown
// names are ignored.
func ParseWeekdays(s string) Weekdays {
	var w Weekdays
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		for _, e := range weekdayNames {
			if part == e.name || part == e.full {
				w |= e.bit
			}
		}
	}
	return w
}

// IsDue reports whether the task's base schedule makes it due on date.
// Inactive tasks and dates outside the task's active bounds are never
// due. Overrides are not consulted here.
func IsDue(task model.Task, date time.Time) bool {
	if !task.Active {
		return false
	}
	day := clock.DateOf(date)
	if task.StartDate != nil && day.Before(clock.DateOf(*task.StartDate)) {
		return false
	}
	if task.EndDate != nil && day.After(clock.DateOf(*task.EndDate)) {
		return false
	}
	return Weekdays(task.Days).Has(day.Weekday())
}

// IsDueWithOverride resolves a one-off override on top of the base
// schedule. Add and Move force the date due; Remove forces it not due.
// A nil override falls back to IsDue.
func IsDueWithOverride(task model.Task, date time.Time, override *model.ScheduleOverride) bool {
	if override != nil {
		switch override.Kind {
		case model.OverrideAdd, model.OverrideMove:
			return task.Active
		case model.OverrideRemove:
			return false
		}
	}
	return IsDue(task, date)
}

// WeekWindow returns the Sunday-anchored 7-day window containing date.
// Every weekly-quota and streak computation uses this exact window.
func WeekWindow(date time.Time) (start, end time.Time) {
	day := clock.DateOf(date)
	start = day.AddDate(0, 0, -int(day.Weekday()))
	end = start.AddDate(0, 0, 6)
	return start, end
}
