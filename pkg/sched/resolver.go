package sched

import (
	"sort"
	"time"

	"github.com/telecasthq/telecast/pkg/models"
)

// Resolve returns the schedule governing the given calendar day. Alternates
// are evaluated in ascending priority index order and the first match wins;
// when none match, the default applies. An alternate matches a day only when
// all three of its non-empty condition sets are satisfied; an empty set
// matches any value for that dimension.
//
// Pure function; performs no I/O.
func Resolve(defaultScheduleID int, alternates []*models.ScheduleAlternate, day time.Time) int {
	ordered := make([]*models.ScheduleAlternate, len(alternates))
	copy(ordered, alternates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	for _, alt := range ordered {
		if matches(alt, day) {
			return alt.ScheduleID
		}
	}

	return defaultScheduleID
}

func matches(alt *models.ScheduleAlternate, day time.Time) bool {
	if len(alt.DaysOfWeek) > 0 && !alt.DaysOfWeek.Contains(int(day.Weekday())) {
		return false
	}
	if len(alt.DaysOfMonth) > 0 && !alt.DaysOfMonth.Contains(day.Day()) {
		return false
	}
	if len(alt.MonthsOfYear) > 0 && !alt.MonthsOfYear.Contains(int(day.Month())) {
		return false
	}
	return true
}
