package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"order_scheduler/internal/models"
	"order_scheduler/internal/recurrence"
	"order_scheduler/internal/redis"
	"order_scheduler/internal/repository"
)

// BatchResult summarizes one fulfillment run. Errors holds one entry per
// failed schedule; a failed schedule stays due and is retried next tick.
type BatchResult struct {
	Processed int      `json:"processed"`
	Created   int      `json:"created"`
	Errors    []string `json:"errors"`
}

type FulfillmentService interface {
	SetRedisClient(client *redis.Client, lockTTL, stockTTL time.Duration)
	Instantiate(schedule *models.RecurringSchedule, now time.Time) (*models.OrderInstance, error)
	ProcessDueSchedules(ctx context.Context, now time.Time) (*BatchResult, error)
	GetScheduleOrders(actor Actor, scheduleID uint) ([]models.OrderInstance, error)
	GetCustomerOrders(actor Actor, customerID uint) ([]models.OrderInstance, error)
	CancelOrder(actor Actor, orderID uint) (*models.OrderInstance, error)
	UpdateOrderStatus(actor Actor, orderID uint, status string) (*models.OrderInstance, error)
}

type fulfillmentService struct {
	scheduleRepo repository.ScheduleRepository
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	notifier     NotificationService
	cache        *redis.Client
	lockTTL      time.Duration
	stockTTL     time.Duration
}

func NewFulfillmentService(
	scheduleRepo repository.ScheduleRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	notifier NotificationService,
) FulfillmentService {
	return &fulfillmentService{
		scheduleRepo: scheduleRepo,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		notifier:     notifier,
	}
}

// SetRedisClient enables the batch run lock and the stock read cache.
// Without it the service still works; overlapping runs are then only
// guarded by the per-schedule claim.
func (s *fulfillmentService) SetRedisClient(client *redis.Client, lockTTL, stockTTL time.Duration) {
	s.cache = client
	s.lockTTL = lockTTL
	s.stockTTL = stockTTL
}

// Instantiate materializes one delivery for an active schedule. A schedule
// that is paused or ended is a no-op, not an error. A schedule whose pattern
// has no further occurrence is transitioned to ended.
func (s *fulfillmentService) Instantiate(schedule *models.RecurringSchedule, now time.Time) (*models.OrderInstance, error) {
	if schedule.ScheduleStatus != string(models.ScheduleActive) {
		return nil, nil
	}

	asOf := now
	if schedule.NextDeliveryAt != nil {
		asOf = *schedule.NextDeliveryAt
	}

	fire := recurrence.NextDelivery(schedule.Recurrence, asOf)
	if fire == nil {
		if err := s.scheduleRepo.UpdateStatus(schedule.ID, string(models.ScheduleEnded), nil); err != nil {
			return nil, err
		}
		schedule.ScheduleStatus = string(models.ScheduleEnded)
		schedule.NextDeliveryAt = nil
		return nil, nil
	}

	var shortIDs []string
	allAvailable := true
	for _, item := range schedule.Items {
		stock, err := s.lookupStock(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("stock lookup for product %d: %w", item.ProductID, err)
		}
		if stock < item.Quantity {
			allAvailable = false
			shortIDs = append(shortIDs, fmt.Sprintf("%d", item.ProductID))
		}
	}

	// Advance the schedule before creating the instance. The conditional
	// claim makes this slot single-writer: if another run got here first,
	// the claim fails and we simply skip.
	following := recurrence.NextDelivery(schedule.Recurrence, *fire)
	status := string(models.ScheduleActive)
	if following == nil {
		status = string(models.ScheduleEnded)
	}

	if schedule.NextDeliveryAt != nil {
		claimed, err := s.scheduleRepo.ClaimNextDelivery(schedule.ID, *schedule.NextDeliveryAt, following, status)
		if err != nil {
			return nil, err
		}
		if !claimed {
			log.Info().Uint("schedule_id", schedule.ID).Msg("delivery already claimed by another run")
			return nil, nil
		}
	} else {
		if err := s.scheduleRepo.UpdateStatus(schedule.ID, status, following); err != nil {
			return nil, err
		}
	}
	schedule.NextDeliveryAt = following
	schedule.ScheduleStatus = status

	scheduleID := schedule.ID
	order := &models.OrderInstance{
		OrderNumber:     generateOrderNumber(),
		ScheduleID:      &scheduleID,
		CustomerID:      schedule.CustomerID,
		DeliveryDate:    fire,
		Items:           schedule.Items,
		Status:          string(models.OrderConfirmed),
		ShippingAddress: schedule.ShippingAddress,
		BillingAddress:  schedule.BillingAddress,
		Subtotal:        schedule.Subtotal,
		Tax:             schedule.Tax,
		Shipping:        schedule.Shipping,
		Discount:        schedule.Discount,
		Total:           schedule.Total,
		PaymentMethod:   schedule.PaymentMethod,
	}
	if !allAvailable {
		order.Status = string(models.OrderPending)
		order.Notes = "insufficient stock for products: " + strings.Join(shortIDs, ", ")
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	if allAvailable {
		if err := s.decrementStock(order); err != nil {
			return nil, err
		}
	}

	go s.notifier.NotifyOrderCreated(context.Background(), order)

	return order, nil
}

// decrementStock takes the order's quantities in one transaction. A shortfall
// that slipped in between the availability check and here downgrades the
// order instead of failing it.
func (s *fulfillmentService) decrementStock(order *models.OrderInstance) error {
	err := s.productRepo.DecrementStockAll(order.Items)
	if err == nil {
		s.invalidateStock(order.Items)
		return nil
	}
	if !errors.Is(err, repository.ErrInsufficientStock) {
		return err
	}

	log.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("stock changed under us, downgrading order")
	order.Status = string(models.OrderPending)
	order.Notes = "stock decrement failed: " + err.Error()
	return s.orderRepo.Update(order)
}

// ProcessDueSchedules fires every active schedule whose next delivery is at
// or before now. Schedules are isolated from each other: one failure is
// recorded and the run continues.
func (s *fulfillmentService) ProcessDueSchedules(ctx context.Context, now time.Time) (*BatchResult, error) {
	if s.cache != nil {
		owner := lockOwner()
		ok, err := s.cache.AcquireBatchLock(ctx, owner, s.lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBatchLocked
		}
		defer func() {
			if err := s.cache.ReleaseBatchLock(ctx, owner); err != nil {
				log.Warn().Err(err).Msg("failed to release batch lock")
			}
		}()
	}

	schedules, err := s.scheduleRepo.GetDue(now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due schedules: %w", err)
	}

	result := &BatchResult{Errors: []string{}}
	for i := range schedules {
		schedule := schedules[i]
		result.Processed++

		order, err := s.instantiateGuarded(&schedule, now)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%d: %v", schedule.ID, err))
			log.Error().Err(err).Uint("schedule_id", schedule.ID).Msg("schedule processing failed")
			continue
		}
		if order != nil {
			result.Created++
		}
	}

	log.Info().
		Int("processed", result.Processed).
		Int("created", result.Created).
		Int("errors", len(result.Errors)).
		Msg("fulfillment run finished")
	return result, nil
}

// instantiateGuarded converts a panic inside one schedule's processing into
// an error so the batch keeps going.
func (s *fulfillmentService) instantiateGuarded(schedule *models.RecurringSchedule, now time.Time) (order *models.OrderInstance, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Instantiate(schedule, now)
}

func (s *fulfillmentService) GetScheduleOrders(actor Actor, scheduleID uint) ([]models.OrderInstance, error) {
	schedule, err := s.scheduleRepo.GetByID(scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && schedule.CustomerID != actor.CustomerID {
		return nil, ErrForbidden
	}
	return s.orderRepo.GetByScheduleID(scheduleID)
}

func (s *fulfillmentService) GetCustomerOrders(actor Actor, customerID uint) ([]models.OrderInstance, error) {
	if !actor.IsAdmin() && actor.CustomerID != customerID {
		return nil, ErrForbidden
	}
	return s.orderRepo.GetByCustomerID(customerID)
}

// CancelOrder flips the instance to cancelled and returns its quantities to
// stock. Delivered or already-cancelled orders are rejected.
func (s *fulfillmentService) CancelOrder(actor Actor, orderID uint) (*models.OrderInstance, error) {
	order, err := s.loadOwnedOrder(actor, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case string(models.OrderPending), string(models.OrderConfirmed), string(models.OrderProcessing):
	default:
		return nil, fmt.Errorf("%w: status %q", ErrNotCancellable, order.Status)
	}

	restock := order.Status != string(models.OrderPending)
	order.Status = string(models.OrderCancelled)
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	// A pending order never took stock, so only confirmed and later
	// statuses are restocked.
	if restock {
		for _, item := range order.Items {
			if err := s.productRepo.AdjustStock(item.ProductID, item.Quantity); err != nil {
				log.Error().Err(err).Uint("product_id", item.ProductID).Msg("failed to restock cancelled order item")
			}
		}
		s.invalidateStock(order.Items)
	}

	return order, nil
}

func (s *fulfillmentService) UpdateOrderStatus(actor Actor, orderID uint, status string) (*models.OrderInstance, error) {
	if !validOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	if status == string(models.OrderCancelled) {
		return s.CancelOrder(actor, orderID)
	}
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	order, err := s.loadOwnedOrder(actor, orderID)
	if err != nil {
		return nil, err
	}
	order.Status = status
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	return order, nil
}

func validOrderStatus(status string) bool {
	switch models.OrderStatus(status) {
	case models.OrderPending, models.OrderConfirmed, models.OrderProcessing,
		models.OrderShipped, models.OrderDelivered, models.OrderCancelled, models.OrderRefunded:
		return true
	}
	return false
}

func (s *fulfillmentService) loadOwnedOrder(actor Actor, orderID uint) (*models.OrderInstance, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && order.CustomerID != actor.CustomerID {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *fulfillmentService) lookupStock(productID uint) (int, error) {
	if s.cache != nil {
		if qty, err := s.cache.GetStock(productID); err == nil {
			return qty, nil
		}
	}
	qty, err := s.productRepo.FindStock(productID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.SetStock(productID, qty, s.stockTTL); err != nil {
			log.Debug().Err(err).Uint("product_id", productID).Msg("failed to cache stock")
		}
	}
	return qty, nil
}

func (s *fulfillmentService) invalidateStock(items []models.ScheduleItem) {
	if s.cache == nil {
		return
	}
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	if err := s.cache.InvalidateStock(ids...); err != nil {
		log.Debug().Err(err).Msg("failed to invalidate stock cache")
	}
}

func generateOrderNumber() string {
	token := make([]byte, 3)
	_, _ = rand.Read(token)
	return fmt.Sprintf("AUTO-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(token))
}

func lockOwner() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
