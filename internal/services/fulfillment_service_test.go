package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"order_scheduler/internal/mocks"
	"order_scheduler/internal/models"
	"order_scheduler/internal/repository"
)

type fulfillmentFixture struct {
	scheduleRepo *mocks.MockScheduleRepository
	orderRepo    *mocks.MockOrderRepository
	productRepo  *mocks.MockProductRepository
	notifier     *mocks.MockNotificationService
	svc          FulfillmentService
}

func newFulfillmentFixture() *fulfillmentFixture {
	f := &fulfillmentFixture{
		scheduleRepo: new(mocks.MockScheduleRepository),
		orderRepo:    new(mocks.MockOrderRepository),
		productRepo:  new(mocks.MockProductRepository),
		notifier:     new(mocks.MockNotificationService),
	}
	f.notifier.On("NotifyOrderCreated", mock.Anything, mock.Anything).Maybe()
	f.svc = NewFulfillmentService(f.scheduleRepo, f.orderRepo, f.productRepo, f.notifier)
	return f
}

// notification dispatch is fire-and-forget on a goroutine
func waitForNotify() {
	time.Sleep(50 * time.Millisecond)
}

func TestInstantiate_HappyPath(t *testing.T) {
	f := newFulfillmentFixture()
	schedule := weeklySchedule() // Wednesdays, next delivery 2025-01-08

	f.productRepo.On("FindStock", uint(1)).Return(10, nil)
	f.scheduleRepo.On("ClaimNextDelivery", uint(10), day(2025, time.January, 8), mock.AnythingOfType("*time.Time"), string(models.ScheduleActive)).
		Return(true, nil)
	f.orderRepo.On("Create", mock.AnythingOfType("*models.OrderInstance")).Return(nil).Run(func(args mock.Arguments) {
		args.Get(0).(*models.OrderInstance).ID = 501
	})
	f.productRepo.On("DecrementStockAll", schedule.Items).Return(nil)

	order, err := f.svc.Instantiate(schedule, day(2025, time.January, 8))
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, string(models.OrderConfirmed), order.Status)
	assert.Contains(t, order.OrderNumber, "AUTO-")
	require.NotNil(t, order.DeliveryDate)
	assert.True(t, day(2025, time.January, 15).Equal(*order.DeliveryDate), "the fired slot is the next pattern date")
	require.NotNil(t, order.ScheduleID)
	assert.Equal(t, uint(10), *order.ScheduleID)

	// the schedule advanced one more week
	require.NotNil(t, schedule.NextDeliveryAt)
	assert.True(t, day(2025, time.January, 22).Equal(*schedule.NextDeliveryAt))
	assert.Equal(t, string(models.ScheduleActive), schedule.ScheduleStatus)

	waitForNotify()
	f.scheduleRepo.AssertExpectations(t)
	f.productRepo.AssertExpectations(t)
	f.orderRepo.AssertExpectations(t)
}

func TestInstantiate_StockShortfallIsSoft(t *testing.T) {
	f := newFulfillmentFixture()
	schedule := weeklySchedule()

	f.productRepo.On("FindStock", uint(1)).Return(1, nil) // schedule wants 2
	f.scheduleRepo.On("ClaimNextDelivery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.orderRepo.On("Create", mock.AnythingOfType("*models.OrderInstance")).Return(nil)

	order, err := f.svc.Instantiate(schedule, day(2025, time.January, 8))
	require.NoError(t, err, "a shortfall must not fail the instantiation")
	require.NotNil(t, order)
	assert.Equal(t, string(models.OrderPending), order.Status)
	assert.Contains(t, order.Notes, "1", "short product ids are recorded")

	waitForNotify()
	// stock was never taken
	f.productRepo.AssertNotCalled(t, "DecrementStockAll", mock.Anything)
}

func TestInstantiate_ExhaustedPatternEndsSchedule(t *testing.T) {
	f := newFulfillmentFixture()
	schedule := weeklySchedule()
	schedule.Recurrence = models.Recurrence{SelectedDates: []time.Time{day(2025, time.January, 5)}}

	f.scheduleRepo.On("UpdateStatus", uint(10), string(models.ScheduleEnded), mock.Anything).Return(nil)

	order, err := f.svc.Instantiate(schedule, day(2025, time.January, 8))
	require.NoError(t, err)
	assert.Nil(t, order, "an exhausted schedule produces no instance")
	assert.Equal(t, string(models.ScheduleEnded), schedule.ScheduleStatus)
	assert.Nil(t, schedule.NextDeliveryAt)

	f.orderRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestInstantiate_InactiveScheduleIsNoop(t *testing.T) {
	f := newFulfillmentFixture()
	schedule := weeklySchedule()
	schedule.ScheduleStatus = string(models.SchedulePaused)

	order, err := f.svc.Instantiate(schedule, day(2025, time.January, 8))
	require.NoError(t, err)
	assert.Nil(t, order)

	f.productRepo.AssertNotCalled(t, "FindStock", mock.Anything)
	f.orderRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestInstantiate_LostClaimSkipsQuietly(t *testing.T) {
	f := newFulfillmentFixture()
	schedule := weeklySchedule()

	f.productRepo.On("FindStock", uint(1)).Return(10, nil)
	f.scheduleRepo.On("ClaimNextDelivery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	order, err := f.svc.Instantiate(schedule, day(2025, time.January, 8))
	require.NoError(t, err)
	assert.Nil(t, order, "losing the claim is not an error")

	f.orderRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestInstantiate_RacedDecrementDowngradesOrder(t *testing.T) {
	f := newFulfillmentFixture()
	schedule := weeklySchedule()

	f.productRepo.On("FindStock", uint(1)).Return(10, nil)
	f.scheduleRepo.On("ClaimNextDelivery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.orderRepo.On("Create", mock.AnythingOfType("*models.OrderInstance")).Return(nil)
	f.productRepo.On("DecrementStockAll", schedule.Items).
		Return(fmt.Errorf("product 1: %w", repository.ErrInsufficientStock))
	f.orderRepo.On("Update", mock.MatchedBy(func(o *models.OrderInstance) bool {
		return o.Status == string(models.OrderPending)
	})).Return(nil)

	order, err := f.svc.Instantiate(schedule, day(2025, time.January, 8))
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, string(models.OrderPending), order.Status)

	waitForNotify()
	f.orderRepo.AssertExpectations(t)
}

func TestProcessDueSchedules_IsolatesFailures(t *testing.T) {
	f := newFulfillmentFixture()
	now := day(2025, time.January, 8)

	good1 := *weeklySchedule()
	good1.ID = 1
	failing := *weeklySchedule()
	failing.ID = 2
	failing.Items = []models.ScheduleItem{{ProductID: 99, Quantity: 1}}
	good2 := *weeklySchedule()
	good2.ID = 3

	f.scheduleRepo.On("GetDue", now).Return([]models.RecurringSchedule{good1, failing, good2}, nil)
	f.productRepo.On("FindStock", uint(1)).Return(10, nil)
	f.productRepo.On("FindStock", uint(99)).Return(0, errors.New("storage offline"))
	f.scheduleRepo.On("ClaimNextDelivery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.orderRepo.On("Create", mock.AnythingOfType("*models.OrderInstance")).Return(nil)
	f.productRepo.On("DecrementStockAll", mock.Anything).Return(nil)

	result, err := f.svc.ProcessDueSchedules(context.Background(), now)
	require.NoError(t, err, "one bad schedule must never abort the run")

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "2:")

	waitForNotify()
}

func TestProcessDueSchedules_CountsEndedAsProcessedOnly(t *testing.T) {
	f := newFulfillmentFixture()
	now := day(2025, time.January, 8)

	exhausted := *weeklySchedule()
	exhausted.Recurrence = models.Recurrence{SelectedDates: []time.Time{day(2025, time.January, 5)}}

	f.scheduleRepo.On("GetDue", now).Return([]models.RecurringSchedule{exhausted}, nil)
	f.scheduleRepo.On("UpdateStatus", mock.Anything, string(models.ScheduleEnded), mock.Anything).Return(nil)

	result, err := f.svc.ProcessDueSchedules(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Created)
	assert.Empty(t, result.Errors)
}

func TestGetCustomerOrders(t *testing.T) {
	t.Run("owner lists their orders", func(t *testing.T) {
		f := newFulfillmentFixture()
		f.orderRepo.On("GetByCustomerID", uint(42)).Return([]models.OrderInstance{
			{ID: 501, CustomerID: 42}, {ID: 502, CustomerID: 42},
		}, nil)

		orders, err := f.svc.GetCustomerOrders(customer, 42)
		require.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("another customer is rejected", func(t *testing.T) {
		f := newFulfillmentFixture()

		_, err := f.svc.GetCustomerOrders(stranger, 42)
		assert.ErrorIs(t, err, ErrForbidden)
		f.orderRepo.AssertNotCalled(t, "GetByCustomerID", mock.Anything)
	})

	t.Run("admin may list any customer", func(t *testing.T) {
		f := newFulfillmentFixture()
		f.orderRepo.On("GetByCustomerID", uint(42)).Return([]models.OrderInstance{}, nil)

		_, err := f.svc.GetCustomerOrders(admin, 42)
		require.NoError(t, err)
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Run("unknown status is rejected before any load", func(t *testing.T) {
		f := newFulfillmentFixture()

		_, err := f.svc.UpdateOrderStatus(admin, 501, "teleported")
		assert.ErrorIs(t, err, ErrUnknownStatus)
		f.orderRepo.AssertNotCalled(t, "GetByID", mock.Anything)
	})

	t.Run("admin moves a confirmed order to shipped", func(t *testing.T) {
		f := newFulfillmentFixture()
		order := &models.OrderInstance{ID: 501, CustomerID: 42, Status: string(models.OrderConfirmed)}
		f.orderRepo.On("GetByID", uint(501)).Return(order, nil)
		f.orderRepo.On("Update", mock.AnythingOfType("*models.OrderInstance")).Return(nil)

		got, err := f.svc.UpdateOrderStatus(admin, 501, string(models.OrderShipped))
		require.NoError(t, err)
		assert.Equal(t, string(models.OrderShipped), got.Status)
	})

	t.Run("customers may not set arbitrary statuses", func(t *testing.T) {
		f := newFulfillmentFixture()

		_, err := f.svc.UpdateOrderStatus(customer, 501, string(models.OrderShipped))
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestCancelOrder(t *testing.T) {
	t.Run("confirmed order restocks its items", func(t *testing.T) {
		f := newFulfillmentFixture()
		order := &models.OrderInstance{
			ID:         501,
			CustomerID: 42,
			Status:     string(models.OrderConfirmed),
			Items:      []models.ScheduleItem{{ProductID: 1, Quantity: 2}},
		}
		f.orderRepo.On("GetByID", uint(501)).Return(order, nil)
		f.orderRepo.On("Update", mock.AnythingOfType("*models.OrderInstance")).Return(nil)
		f.productRepo.On("AdjustStock", uint(1), 2).Return(nil)

		got, err := f.svc.CancelOrder(customer, 501)
		require.NoError(t, err)
		assert.Equal(t, string(models.OrderCancelled), got.Status)
		f.productRepo.AssertExpectations(t)
	})

	t.Run("pending order never took stock so none returns", func(t *testing.T) {
		f := newFulfillmentFixture()
		order := &models.OrderInstance{
			ID:         502,
			CustomerID: 42,
			Status:     string(models.OrderPending),
			Items:      []models.ScheduleItem{{ProductID: 1, Quantity: 2}},
		}
		f.orderRepo.On("GetByID", uint(502)).Return(order, nil)
		f.orderRepo.On("Update", mock.AnythingOfType("*models.OrderInstance")).Return(nil)

		_, err := f.svc.CancelOrder(customer, 502)
		require.NoError(t, err)
		f.productRepo.AssertNotCalled(t, "AdjustStock", mock.Anything, mock.Anything)
	})

	t.Run("delivered order cannot be cancelled", func(t *testing.T) {
		f := newFulfillmentFixture()
		order := &models.OrderInstance{ID: 503, CustomerID: 42, Status: string(models.OrderDelivered)}
		f.orderRepo.On("GetByID", uint(503)).Return(order, nil)

		_, err := f.svc.CancelOrder(customer, 503)
		assert.ErrorIs(t, err, ErrNotCancellable)
	})
}
