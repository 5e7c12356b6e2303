package services

import (
	"errors"
	"strings"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrForbidden        = errors.New("actor may not act on this schedule")
	ErrSkipNotWeekly    = errors.New("skip requires a pending delivery and a weekly pattern")
	ErrBatchLocked      = errors.New("a fulfillment run is already in progress")
	ErrNotCancellable   = errors.New("order can no longer be cancelled")
	ErrUnknownStatus    = errors.New("unknown order status")
)

// ValidationError carries every violated rule so the caller can report them
// all at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// Actor identifies who is performing an operation. Authentication happens
// upstream; we only consume the resolved identity and role.
type Actor struct {
	CustomerID uint
	Role       string
}

func (a Actor) IsAdmin() bool {
	return a.Role == "admin"
}
