// Package recurrence holds the pure scheduling core: structural validation
// of recurrence rules and next-delivery computation. No I/O, no clock reads;
// callers pass the reference time explicitly.
package recurrence

import (
	"fmt"
	"time"

	"order_scheduler/internal/models"
)

const maxNotesLength = 1000

// Validate checks the structural validity of a recurrence against the given
// reference time and returns every violated rule. An empty slice means valid.
// Selected dates are checked against now, so re-validating an old schedule
// can retroactively invalidate dates that were valid when first saved.
func Validate(rec models.Recurrence, now time.Time) []string {
	var errs []string

	if len(rec.DaysOfWeek) == 0 && len(rec.IncludeDates) == 0 && len(rec.SelectedDates) == 0 {
		errs = append(errs, "recurrence must specify at least one of days_of_week, include_dates or selected_dates")
	}

	// compared at day granularity, same as the calculator arithmetic
	if rec.StartDate != nil && rec.EndDate != nil && !DateOf(*rec.StartDate).Before(DateOf(*rec.EndDate)) {
		errs = append(errs, "start_date must be before end_date")
	}

	for _, d := range rec.DaysOfWeek {
		if d < 0 || d > 6 {
			errs = append(errs, fmt.Sprintf("days_of_week value %d is out of range [0,6]", d))
		}
	}

	for _, d := range rec.SelectedDates {
		if !DateOf(d).After(DateOf(now)) {
			errs = append(errs, fmt.Sprintf("selected date %s is not in the future", d.Format("2006-01-02")))
		}
	}

	if len(rec.Notes) > maxNotesLength {
		errs = append(errs, fmt.Sprintf("notes must be at most %d characters", maxNotesLength))
	}

	return errs
}

// DateOf truncates a timestamp to calendar-day granularity in UTC.
// All recurrence arithmetic works on whole days.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
