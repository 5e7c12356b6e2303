package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"order_scheduler/internal/models"
	"order_scheduler/internal/services"
)

type ScheduleHandler struct {
	scheduleService services.ScheduleService
}

func NewScheduleHandler(scheduleService services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

func (h *ScheduleHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/schedules", h.CreateSchedule)
	api.GET("/schedules/:id", h.GetSchedule)
	api.PATCH("/schedules/:id", h.PatchSchedule)
	api.DELETE("/schedules/:id", h.DeleteSchedule)
	api.GET("/schedules/:id/audit", h.GetAuditTrail)
	api.GET("/customers/:id/schedules", h.GetCustomerSchedules)
}

type recurrencePatchRequest struct {
	StartDate     *time.Time   `json:"start_date"`
	EndDate       *time.Time   `json:"end_date"`
	DaysOfWeek    *[]int       `json:"days_of_week"`
	IncludeDates  *[]time.Time `json:"include_dates"`
	ExcludeDates  *[]time.Time `json:"exclude_dates"`
	SelectedDates *[]time.Time `json:"selected_dates"`
	Notes         *string      `json:"notes"`
}

// schedulePatchRequest carries either one of the operator actions or a
// merge-edit of schedule fields (action omitted or "update").
type schedulePatchRequest struct {
	Action string     `json:"action"`
	Date   *time.Time `json:"date"`

	Recurrence      *recurrencePatchRequest `json:"recurrence"`
	Items           *[]models.ScheduleItem  `json:"items"`
	NextDeliveryAt  *time.Time              `json:"next_delivery_at"`
	ScheduleStatus  *string                 `json:"schedule_status"`
	ShippingAddress *models.Address         `json:"shipping_address"`
	BillingAddress  *models.Address         `json:"billing_address"`
	PaymentMethod   *string                 `json:"payment_method"`
	CustomerID      *uint                   `json:"customer_id"`
	Subtotal        *float64                `json:"subtotal"`
	Tax             *float64                `json:"tax"`
	Shipping        *float64                `json:"shipping"`
	Discount        *float64                `json:"discount"`
	Total           *float64                `json:"total"`
}

func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var schedule models.RecurringSchedule
	if err := c.ShouldBindJSON(&schedule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.scheduleService.CreateSchedule(actor, &schedule, time.Now()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleService.GetSchedule(actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *ScheduleHandler) GetCustomerSchedules(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	customerID, ok := idParam(c)
	if !ok {
		return
	}

	schedules, err := h.scheduleService.GetCustomerSchedules(actor, customerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedules)
}

func (h *ScheduleHandler) PatchSchedule(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req schedulePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Action {
	case "pause":
		schedule, err := h.scheduleService.Pause(actor, id)
		respond(c, schedule, err)
	case "resume":
		schedule, err := h.scheduleService.Resume(actor, id, time.Now())
		respond(c, schedule, err)
	case "end":
		schedule, err := h.scheduleService.End(actor, id)
		respond(c, schedule, err)
	case "skip_next_delivery":
		schedule, err := h.scheduleService.SkipNextDelivery(actor, id)
		respond(c, schedule, err)
	case "force_next_delivery":
		if req.Date == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "force_next_delivery requires a date"})
			return
		}
		schedule, err := h.scheduleService.ForceNextDelivery(actor, id, *req.Date)
		respond(c, schedule, err)
	case "duplicate":
		order, err := h.scheduleService.Duplicate(actor, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	case "", "update":
		schedule, err := h.scheduleService.UpdateSchedule(actor, id, req.toUpdate(), time.Now())
		respond(c, schedule, err)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action: " + req.Action})
	}
}

func (h *ScheduleHandler) GetAuditTrail(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	entries, err := h.scheduleService.GetAuditTrail(actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// DeleteSchedule degrades to end for non-admin actors inside the service.
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.scheduleService.DeleteSchedule(actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (req schedulePatchRequest) toUpdate() services.ScheduleUpdate {
	update := services.ScheduleUpdate{
		Items:           req.Items,
		NextDeliveryAt:  req.NextDeliveryAt,
		ScheduleStatus:  req.ScheduleStatus,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		CustomerID:      req.CustomerID,
		Subtotal:        req.Subtotal,
		Tax:             req.Tax,
		Shipping:        req.Shipping,
		Discount:        req.Discount,
		Total:           req.Total,
	}
	if req.Recurrence != nil {
		update.Recurrence = &services.RecurrencePatch{
			StartDate:     req.Recurrence.StartDate,
			EndDate:       req.Recurrence.EndDate,
			DaysOfWeek:    req.Recurrence.DaysOfWeek,
			IncludeDates:  req.Recurrence.IncludeDates,
			ExcludeDates:  req.Recurrence.ExcludeDates,
			SelectedDates: req.Recurrence.SelectedDates,
			Notes:         req.Recurrence.Notes,
		}
	}
	return update
}

// actorFrom reads the identity resolved by the upstream auth layer.
func actorFrom(c *gin.Context) (services.Actor, bool) {
	idStr := c.GetHeader("X-Actor-ID")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if idStr == "" || err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "actor identity required"})
		return services.Actor{}, false
	}
	return services.Actor{
		CustomerID: uint(id),
		Role:       c.GetHeader("X-Actor-Role"),
	}, true
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func respond(c *gin.Context, schedule *models.RecurringSchedule, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func writeError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "violations": verr.Violations})
	case errors.Is(err, services.ErrScheduleNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSkipNotWeekly),
		errors.Is(err, services.ErrUnknownStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrBatchLocked),
		errors.Is(err, services.ErrNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
