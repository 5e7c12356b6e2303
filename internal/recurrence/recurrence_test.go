package recurrence

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"order_scheduler/internal/models"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestValidate(t *testing.T) {
	now := date(2025, time.January, 8)

	tests := []struct {
		name      string
		rec       models.Recurrence
		wantErrs  int
		wantMatch string
	}{
		{
			name:      "empty recurrence is rejected",
			rec:       models.Recurrence{},
			wantErrs:  1,
			wantMatch: "at least one of",
		},
		{
			name:     "weekly pattern alone is valid",
			rec:      models.Recurrence{DaysOfWeek: []int{1, 3, 5}},
			wantErrs: 0,
		},
		{
			name:     "include dates alone are valid",
			rec:      models.Recurrence{IncludeDates: []time.Time{date(2025, time.February, 1)}},
			wantErrs: 0,
		},
		{
			name: "start_date on end_date is rejected",
			rec: models.Recurrence{
				DaysOfWeek: []int{1},
				StartDate:  datePtr(2025, time.March, 1),
				EndDate:    datePtr(2025, time.March, 1),
			},
			wantErrs:  1,
			wantMatch: "before end_date",
		},
		{
			name: "start and end on the same calendar day is rejected regardless of clock time",
			rec: models.Recurrence{
				DaysOfWeek: []int{1},
				StartDate:  timePtr(date(2025, time.March, 1).Add(5 * time.Hour)),
				EndDate:    timePtr(date(2025, time.March, 1).Add(10 * time.Hour)),
			},
			wantErrs:  1,
			wantMatch: "before end_date",
		},
		{
			name: "start the day before end is valid whatever the clock times",
			rec: models.Recurrence{
				DaysOfWeek: []int{1},
				StartDate:  timePtr(date(2025, time.March, 1).Add(23 * time.Hour)),
				EndDate:    timePtr(date(2025, time.March, 2).Add(1 * time.Hour)),
			},
			wantErrs: 0,
		},
		{
			name:      "weekday out of range",
			rec:       models.Recurrence{DaysOfWeek: []int{1, 7}},
			wantErrs:  1,
			wantMatch: "out of range",
		},
		{
			name:      "negative weekday out of range",
			rec:       models.Recurrence{DaysOfWeek: []int{-1}},
			wantErrs:  1,
			wantMatch: "out of range",
		},
		{
			name:      "past selected date is rejected",
			rec:       models.Recurrence{SelectedDates: []time.Time{date(2024, time.December, 25)}},
			wantErrs:  1,
			wantMatch: "not in the future",
		},
		{
			name:      "selected date equal to now is rejected",
			rec:       models.Recurrence{SelectedDates: []time.Time{now}},
			wantErrs:  1,
			wantMatch: "not in the future",
		},
		{
			name:     "future selected date is valid",
			rec:      models.Recurrence{SelectedDates: []time.Time{date(2025, time.January, 9)}},
			wantErrs: 0,
		},
		{
			name: "notes over the limit",
			rec: models.Recurrence{
				DaysOfWeek: []int{1},
				Notes:      strings.Repeat("x", 1001),
			},
			wantErrs:  1,
			wantMatch: "at most 1000",
		},
		{
			name: "violations accumulate instead of short-circuiting",
			rec: models.Recurrence{
				DaysOfWeek:    []int{9},
				SelectedDates: []time.Time{date(2020, time.January, 1)},
				StartDate:     datePtr(2025, time.June, 1),
				EndDate:       datePtr(2025, time.May, 1),
			},
			wantErrs: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.rec, now)
			assert.Len(t, errs, tt.wantErrs)
			if tt.wantMatch != "" && len(errs) > 0 {
				found := false
				for _, e := range errs {
					if strings.Contains(e, tt.wantMatch) {
						found = true
					}
				}
				assert.True(t, found, "no error matched %q in %v", tt.wantMatch, errs)
			}
		})
	}
}

// Validation against a later now can retroactively reject selected dates
// that were valid when the schedule was saved. Legacy behavior, kept.
func TestValidate_SelectedDatesAgeOut(t *testing.T) {
	rec := models.Recurrence{SelectedDates: []time.Time{date(2025, time.January, 10)}}

	assert.Empty(t, Validate(rec, date(2025, time.January, 8)))
	assert.Len(t, Validate(rec, date(2025, time.January, 12)), 1)
}
