package recurrence

import (
	"time"

	"order_scheduler/internal/models"
)

// NextDelivery computes the next delivery date strictly after asOf, or nil
// when the recurrence has no further occurrence. The rule branches are a
// priority order, not a union:
//
//  1. A past end_date ends the schedule outright.
//  2. Non-empty selected_dates are the sole source of truth; no other field
//     is consulted, even when no future selected date remains.
//  3. A non-empty days_of_week set scans the next seven days, honoring
//     exclude_dates and the start/end window per candidate day.
//  4. include_dates supply one-off extra dates.
//
// A weekday scan that exhausts all seven candidates falls through to the
// include_dates branch. That ordering is deliberate and covered by tests;
// changing it silently changes which schedules stay alive.
//
// The function is pure and safe for concurrent use.
func NextDelivery(rec models.Recurrence, asOf time.Time) *time.Time {
	day := DateOf(asOf)

	if rec.EndDate != nil && day.After(DateOf(*rec.EndDate)) {
		return nil
	}

	if len(rec.SelectedDates) > 0 {
		return earliestAfter(rec.SelectedDates, day)
	}

	if len(rec.DaysOfWeek) > 0 {
		for i := 1; i <= 7; i++ {
			d := day.AddDate(0, 0, i)
			if !matchesWeekday(rec.DaysOfWeek, d) {
				continue
			}
			if containsDay(rec.ExcludeDates, d) {
				continue
			}
			if rec.StartDate != nil && d.Before(DateOf(*rec.StartDate)) {
				continue
			}
			if rec.EndDate != nil && d.After(DateOf(*rec.EndDate)) {
				continue
			}
			return &d
		}
		// all seven candidates exhausted: fall through to include_dates
	}

	if len(rec.IncludeDates) > 0 {
		return earliestAfter(rec.IncludeDates, day)
	}

	return nil
}

// earliestAfter returns the earliest date strictly after day, or nil.
func earliestAfter(dates []time.Time, day time.Time) *time.Time {
	var best *time.Time
	for _, d := range dates {
		dd := DateOf(d)
		if !dd.After(day) {
			continue
		}
		if best == nil || dd.Before(*best) {
			c := dd
			best = &c
		}
	}
	return best
}

func matchesWeekday(daysOfWeek []int, d time.Time) bool {
	wd := int(d.Weekday()) // 0=Sunday, matching the stored convention
	for _, w := range daysOfWeek {
		if w == wd {
			return true
		}
	}
	return false
}

func containsDay(dates []time.Time, d time.Time) bool {
	for _, x := range dates {
		if SameDay(x, d) {
			return true
		}
	}
	return false
}
