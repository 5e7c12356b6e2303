package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"order_scheduler/internal/models"
	"order_scheduler/internal/recurrence"
	"order_scheduler/internal/repository"
)

// RecurrencePatch overwrites only the supplied recurrence fields. A non-nil
// empty slice clears the field; a nil pointer leaves it untouched.
type RecurrencePatch struct {
	StartDate     *time.Time
	EndDate       *time.Time
	DaysOfWeek    *[]int
	IncludeDates  *[]time.Time
	ExcludeDates  *[]time.Time
	SelectedDates *[]time.Time
	Notes         *string
}

// ScheduleUpdate is a merge-edit of a schedule. CustomerID and the financial
// fields are admin-only.
type ScheduleUpdate struct {
	Recurrence      *RecurrencePatch
	Items           *[]models.ScheduleItem
	NextDeliveryAt  *time.Time
	ScheduleStatus  *string
	ShippingAddress *models.Address
	BillingAddress  *models.Address
	PaymentMethod   *string

	CustomerID *uint
	Subtotal   *float64
	Tax        *float64
	Shipping   *float64
	Discount   *float64
	Total      *float64
}

type ScheduleService interface {
	CreateSchedule(actor Actor, schedule *models.RecurringSchedule, now time.Time) error
	GetSchedule(actor Actor, id uint) (*models.RecurringSchedule, error)
	GetCustomerSchedules(actor Actor, customerID uint) ([]models.RecurringSchedule, error)
	Pause(actor Actor, id uint) (*models.RecurringSchedule, error)
	Resume(actor Actor, id uint, now time.Time) (*models.RecurringSchedule, error)
	End(actor Actor, id uint) (*models.RecurringSchedule, error)
	SkipNextDelivery(actor Actor, id uint) (*models.RecurringSchedule, error)
	ForceNextDelivery(actor Actor, id uint, date time.Time) (*models.RecurringSchedule, error)
	UpdateSchedule(actor Actor, id uint, update ScheduleUpdate, now time.Time) (*models.RecurringSchedule, error)
	Duplicate(actor Actor, id uint) (*models.OrderInstance, error)
	DeleteSchedule(actor Actor, id uint) error
	GetAuditTrail(actor Actor, id uint) ([]models.AuditEntry, error)
}

type scheduleService struct {
	scheduleRepo repository.ScheduleRepository
	orderRepo    repository.OrderRepository
	auditRepo    repository.AuditRepository
}

func NewScheduleService(scheduleRepo repository.ScheduleRepository, orderRepo repository.OrderRepository, auditRepo repository.AuditRepository) ScheduleService {
	return &scheduleService{
		scheduleRepo: scheduleRepo,
		orderRepo:    orderRepo,
		auditRepo:    auditRepo,
	}
}

func (s *scheduleService) CreateSchedule(actor Actor, schedule *models.RecurringSchedule, now time.Time) error {
	if !actor.IsAdmin() {
		schedule.CustomerID = actor.CustomerID
	}

	errs := recurrence.Validate(schedule.Recurrence, now)
	errs = append(errs, validateItems(schedule.Items)...)
	if len(errs) > 0 {
		return &ValidationError{Violations: errs}
	}

	if schedule.NextDeliveryAt == nil {
		schedule.NextDeliveryAt = recurrence.NextDelivery(schedule.Recurrence, now)
	}
	if schedule.NextDeliveryAt == nil {
		schedule.ScheduleStatus = string(models.ScheduleEnded)
	} else if schedule.ScheduleStatus == "" {
		schedule.ScheduleStatus = string(models.ScheduleActive)
	}

	if err := s.scheduleRepo.Create(schedule); err != nil {
		return err
	}
	s.audit(actor, "create", schedule.ID, nil, schedule)
	return nil
}

func (s *scheduleService) GetSchedule(actor Actor, id uint) (*models.RecurringSchedule, error) {
	return s.loadOwned(actor, id)
}

func (s *scheduleService) GetCustomerSchedules(actor Actor, customerID uint) ([]models.RecurringSchedule, error) {
	if !actor.IsAdmin() && actor.CustomerID != customerID {
		return nil, ErrForbidden
	}
	return s.scheduleRepo.GetByCustomerID(customerID)
}

// Pause keeps next_delivery_at so Resume can pick the schedule back up;
// the batch never fires a paused schedule regardless.
func (s *scheduleService) Pause(actor Actor, id uint) (*models.RecurringSchedule, error) {
	return s.transition(actor, id, "pause", func(schedule *models.RecurringSchedule, _ time.Time) error {
		schedule.ScheduleStatus = string(models.SchedulePaused)
		return nil
	}, time.Time{})
}

// Resume recomputes the next delivery from now. A pattern with no future
// occurrence left goes straight to ended. The same path reactivates an
// ended schedule.
func (s *scheduleService) Resume(actor Actor, id uint, now time.Time) (*models.RecurringSchedule, error) {
	return s.transition(actor, id, "resume", func(schedule *models.RecurringSchedule, now time.Time) error {
		next := recurrence.NextDelivery(schedule.Recurrence, now)
		schedule.NextDeliveryAt = next
		if next != nil {
			schedule.ScheduleStatus = string(models.ScheduleActive)
		} else {
			schedule.ScheduleStatus = string(models.ScheduleEnded)
		}
		return nil
	}, now)
}

func (s *scheduleService) End(actor Actor, id uint) (*models.RecurringSchedule, error) {
	return s.transition(actor, id, "end", func(schedule *models.RecurringSchedule, _ time.Time) error {
		schedule.ScheduleStatus = string(models.ScheduleEnded)
		schedule.NextDeliveryAt = nil
		return nil
	}, time.Time{})
}

// SkipNextDelivery is a fixed one-week jump. It deliberately does not re-run
// the calculator, so exclude and include dates are not consulted; it is only
// meaningful for weekly patterns and the precondition enforces that.
func (s *scheduleService) SkipNextDelivery(actor Actor, id uint) (*models.RecurringSchedule, error) {
	return s.transition(actor, id, "skip_next_delivery", func(schedule *models.RecurringSchedule, _ time.Time) error {
		if schedule.NextDeliveryAt == nil || len(schedule.Recurrence.DaysOfWeek) == 0 {
			return ErrSkipNotWeekly
		}
		skipped := schedule.NextDeliveryAt.AddDate(0, 0, 7)
		schedule.NextDeliveryAt = &skipped
		return nil
	}, time.Time{})
}

// ForceNextDelivery stores the given date verbatim, without consulting the
// recurrence pattern. Admin-only escape hatch.
func (s *scheduleService) ForceNextDelivery(actor Actor, id uint, date time.Time) (*models.RecurringSchedule, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.transition(actor, id, "force_next_delivery", func(schedule *models.RecurringSchedule, _ time.Time) error {
		d := date
		schedule.NextDeliveryAt = &d
		return nil
	}, time.Time{})
}

func (s *scheduleService) UpdateSchedule(actor Actor, id uint, update ScheduleUpdate, now time.Time) (*models.RecurringSchedule, error) {
	if !actor.IsAdmin() && touchesAdminFields(update) {
		return nil, ErrForbidden
	}

	schedule, err := s.loadOwned(actor, id)
	if err != nil {
		return nil, err
	}
	before := *schedule

	merged := mergeRecurrence(schedule.Recurrence, update.Recurrence)
	items := schedule.Items
	if update.Items != nil {
		items = *update.Items
	}
	errs := recurrence.Validate(merged, now)
	errs = append(errs, validateItems(items)...)
	if len(errs) > 0 {
		return nil, &ValidationError{Violations: errs}
	}
	schedule.Recurrence = merged
	schedule.Items = items

	if update.ShippingAddress != nil {
		schedule.ShippingAddress = *update.ShippingAddress
	}
	if update.BillingAddress != nil {
		schedule.BillingAddress = update.BillingAddress
	}
	if update.PaymentMethod != nil {
		schedule.PaymentMethod = *update.PaymentMethod
	}
	if update.CustomerID != nil {
		schedule.CustomerID = *update.CustomerID
	}
	if update.Subtotal != nil {
		schedule.Subtotal = *update.Subtotal
	}
	if update.Tax != nil {
		schedule.Tax = *update.Tax
	}
	if update.Shipping != nil {
		schedule.Shipping = *update.Shipping
	}
	if update.Discount != nil {
		schedule.Discount = *update.Discount
	}
	if update.Total != nil {
		schedule.Total = *update.Total
	}

	if update.NextDeliveryAt != nil {
		schedule.NextDeliveryAt = update.NextDeliveryAt
		if update.ScheduleStatus != nil {
			schedule.ScheduleStatus = *update.ScheduleStatus
		}
	} else {
		next := recurrence.NextDelivery(schedule.Recurrence, now)
		schedule.NextDeliveryAt = next
		switch {
		case next == nil:
			schedule.ScheduleStatus = string(models.ScheduleEnded)
		case update.ScheduleStatus != nil:
			schedule.ScheduleStatus = *update.ScheduleStatus
		default:
			schedule.ScheduleStatus = string(models.ScheduleActive)
		}
	}

	if err := s.scheduleRepo.Update(schedule); err != nil {
		return nil, err
	}
	s.audit(actor, "update", schedule.ID, &before, schedule)
	return schedule, nil
}

// Duplicate clones the schedule into a fresh pending order instance. The
// clone does not consume a delivery slot: next_delivery_at stays put.
func (s *scheduleService) Duplicate(actor Actor, id uint) (*models.OrderInstance, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	schedule, err := s.loadOwned(actor, id)
	if err != nil {
		return nil, err
	}

	scheduleID := schedule.ID
	order := &models.OrderInstance{
		OrderNumber:     generateOrderNumber(),
		ScheduleID:      &scheduleID,
		CustomerID:      schedule.CustomerID,
		DeliveryDate:    schedule.NextDeliveryAt,
		Items:           schedule.Items,
		Status:          string(models.OrderPending),
		ShippingAddress: schedule.ShippingAddress,
		BillingAddress:  schedule.BillingAddress,
		Subtotal:        schedule.Subtotal,
		Tax:             schedule.Tax,
		Shipping:        schedule.Shipping,
		Discount:        schedule.Discount,
		Total:           schedule.Total,
		PaymentMethod:   schedule.PaymentMethod,
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}
	s.audit(actor, "duplicate", schedule.ID, schedule, order)
	return order, nil
}

// DeleteSchedule degrades to End for non-admin actors; only admins remove
// the document itself.
func (s *scheduleService) DeleteSchedule(actor Actor, id uint) error {
	if !actor.IsAdmin() {
		_, err := s.End(actor, id)
		return err
	}

	schedule, err := s.loadOwned(actor, id)
	if err != nil {
		return err
	}
	if err := s.scheduleRepo.Delete(id); err != nil {
		return err
	}
	s.audit(actor, "delete", id, schedule, nil)
	return nil
}

func (s *scheduleService) GetAuditTrail(actor Actor, id uint) ([]models.AuditEntry, error) {
	if _, err := s.loadOwned(actor, id); err != nil {
		return nil, err
	}
	return s.auditRepo.GetByScheduleID(id)
}

func (s *scheduleService) transition(actor Actor, id uint, action string, apply func(*models.RecurringSchedule, time.Time) error, now time.Time) (*models.RecurringSchedule, error) {
	schedule, err := s.loadOwned(actor, id)
	if err != nil {
		return nil, err
	}
	before := *schedule

	if err := apply(schedule, now); err != nil {
		return nil, err
	}
	if err := s.scheduleRepo.Update(schedule); err != nil {
		return nil, err
	}
	s.audit(actor, action, schedule.ID, &before, schedule)
	return schedule, nil
}

func (s *scheduleService) loadOwned(actor Actor, id uint) (*models.RecurringSchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && schedule.CustomerID != actor.CustomerID {
		return nil, ErrForbidden
	}
	return schedule, nil
}

func (s *scheduleService) audit(actor Actor, action string, scheduleID uint, before, after interface{}) {
	if s.auditRepo == nil {
		return
	}
	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)
	entry := &models.AuditEntry{
		ActorID:    actor.CustomerID,
		ActorRole:  actor.Role,
		Action:     action,
		ScheduleID: scheduleID,
		Before:     string(b),
		After:      string(a),
		CreatedAt:  time.Now(),
	}
	if err := s.auditRepo.Record(entry); err != nil {
		log.Warn().Err(err).Str("action", action).Uint("schedule_id", scheduleID).Msg("failed to record audit entry")
	}
}

// validateItems enforces the line-item shape: at least one line, each with a
// product reference and a positive quantity. A non-positive quantity would
// sail through the stock availability check and invert the decrement.
func validateItems(items []models.ScheduleItem) []string {
	var errs []string
	if len(items) == 0 {
		errs = append(errs, "schedule must contain at least one item")
	}
	for i, item := range items {
		if item.ProductID == 0 {
			errs = append(errs, fmt.Sprintf("item %d: product_id is required", i))
		}
		if item.Quantity < 1 {
			errs = append(errs, fmt.Sprintf("item %d: quantity must be at least 1", i))
		}
	}
	return errs
}

func mergeRecurrence(current models.Recurrence, patch *RecurrencePatch) models.Recurrence {
	if patch == nil {
		return current
	}
	if patch.StartDate != nil {
		current.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		current.EndDate = patch.EndDate
	}
	if patch.DaysOfWeek != nil {
		current.DaysOfWeek = *patch.DaysOfWeek
	}
	if patch.IncludeDates != nil {
		current.IncludeDates = *patch.IncludeDates
	}
	if patch.ExcludeDates != nil {
		current.ExcludeDates = *patch.ExcludeDates
	}
	if patch.SelectedDates != nil {
		current.SelectedDates = *patch.SelectedDates
	}
	if patch.Notes != nil {
		current.Notes = *patch.Notes
	}
	return current
}

func touchesAdminFields(update ScheduleUpdate) bool {
	return update.CustomerID != nil ||
		update.Subtotal != nil ||
		update.Tax != nil ||
		update.Shipping != nil ||
		update.Discount != nil ||
		update.Total != nil
}
