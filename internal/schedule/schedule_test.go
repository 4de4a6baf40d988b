package schedule

import (
	"testing"
	"time"

	"github.com/jshauns81/daily-bread/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekdaysParseAndString(t *testing.T) {
	w := ParseWeekdays("mon, wed,fri")
	if w != Monday|Wednesday|Friday {
		t.Errorf("ParseWeekdays = %b, want %b", w, Monday|Wednesday|Friday)
	}
	if got := w.String(); got != "mon,wed,fri" {
		t.Errorf("String() = %q, want %q", got, "mon,wed,fri")
	}
	if !w.Has(time.Monday) || w.Has(time.Tuesday) {
		t.Error("Has() gave wrong membership")
	}
}

func TestParseWeekdaysFullNames(t *testing.T) {
	if got := ParseWeekdays("wednesday"); got != Wednesday {
		t.Errorf("ParseWeekdays(\"wednesday\") = %b, want %b", got, Wednesday)
	}
	if got := ParseWeekdays("Monday, wed, SATURDAY"); got != Monday|Wednesday|Saturday {
		t.Errorf("ParseWeekdays mixed names = %b, want %b", got, Monday|Wednesday|Saturday)
	}
	if got := ParseWeekdays("wednesdays,weds,someday"); got != 0 {
		t.Errorf("ParseWeekdays unknown names = %b, want 0", got)
	}
}

func TestWeekdaysWithWithout(t *testing.T) {
	w := Weekdays(0).With(time.Saturday).With(time.Sunday)
	if w != Saturday|Sunday {
		t.Errorf("With = %b, want %b", w, Saturday|Sunday)
	}
	if got := w.Without(time.Saturday); got != Sunday {
		t.Errorf("Without = %b, want %b", got, Sunday)
	}
}

func TestIsDueWeekdayBit(t *testing.T) {
	task := model.Task{Active: true, Days: int(Monday | Wednesday | Friday)}

	// 2026-03-02 is a Monday
	if !IsDue(task, day(2026, 3, 2)) {
		t.Error("monday should be due")
	}
	// 2026-03-03 is a Tuesday
	if IsDue(task, day(2026, 3, 3)) {
		t.Error("tuesday should not be due")
	}
}

func TestIsDueInactiveTask(t *testing.T) {
	task := model.Task{Active: false, Days: int(EveryDay)}
	if IsDue(task, day(2026, 3, 2)) {
		t.Error("inactive task should never be due")
	}
}

func TestIsDueDateBounds(t *testing.T) {
	start := day(2026, 3, 1)
	end := day(2026, 3, 31)
	task := model.Task{Active: true, Days: int(EveryDay), StartDate: &start, EndDate: &end}

	if IsDue(task, day(2026, 2, 28)) {
		t.Error("before start date should not be due")
	}
	if IsDue(task, day(2026, 4, 1)) {
		t.Error("after end date should not be due")
	}
	if !IsDue(task, day(2026, 3, 1)) || !IsDue(task, day(2026, 3, 31)) {
		t.Error("bounds are inclusive")
	}
}

func TestOverridePrecedence(t *testing.T) {
	task := model.Task{Active: true, Days: int(Monday | Wednesday | Friday)}

	// 2026-03-04 is a Wednesday; a remove override wins over the schedule.
	remove := &model.ScheduleOverride{Kind: model.OverrideRemove}
	if IsDueWithOverride(task, day(2026, 3, 4), remove) {
		t.Error("remove override should make wednesday not due")
	}

	// 2026-03-03 is a Tuesday; an add override wins over the schedule.
	add := &model.ScheduleOverride{Kind: model.OverrideAdd}
	if !IsDueWithOverride(task, day(2026, 3, 3), add) {
		t.Error("add override should make tuesday due")
	}

	// Move behaves like add on the target date.
	move := &model.ScheduleOverride{Kind: model.OverrideMove}
	if !IsDueWithOverride(task, day(2026, 3, 3), move) {
		t.Error("move override should make tuesday due")
	}

	// No override falls back to the base schedule.
	if !IsDueWithOverride(task, day(2026, 3, 4), nil) {
		t.Error("wednesday should be due without an override")
	}
}

func TestOverrideNeverRevivesInactiveTask(t *testing.T) {
	task := model.Task{Active: false, Days: 0}
	add := &model.ScheduleOverride{Kind: model.OverrideAdd}
	if IsDueWithOverride(task, day(2026, 3, 3), add) {
		t.Error("add override on an inactive task should not be due")
	}
}

func TestWeekWindowSundayAnchor(t *testing.T) {
	// 2026-03-04 is a Wednesday; its week runs Sun 2026-03-01 .. Sat 2026-03-07.
	start, end := WeekWindow(day(2026, 3, 4))
	if !start.Equal(day(2026, 3, 1)) {
		t.Errorf("start = %v, want %v", start, day(2026, 3, 1))
	}
	if !end.Equal(day(2026, 3, 7)) {
		t.Errorf("end = %v, want %v", end, day(2026, 3, 7))
	}

	// A Sunday anchors its own week.
	start, end = WeekWindow(day(2026, 3, 1))
	if !start.Equal(day(2026, 3, 1)) || !end.Equal(day(2026, 3, 7)) {
		t.Errorf("sunday window = %v..%v", start, end)
	}

	// A Saturday is the last day of its week.
	start, end = WeekWindow(day(2026, 3, 7))
	if !start.Equal(day(2026, 3, 1)) || !end.Equal(day(2026, 3, 7)) {
		t.Errorf("saturday window = %v..%v", start, end)
	}
}
