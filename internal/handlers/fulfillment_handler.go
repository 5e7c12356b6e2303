package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"order_scheduler/internal/services"
)

type FulfillmentHandler struct {
	fulfillmentService services.FulfillmentService
}

func NewFulfillmentHandler(fulfillmentService services.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{fulfillmentService: fulfillmentService}
}

func (h *FulfillmentHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/fulfillment/run", h.RunBatch)
	api.GET("/schedules/:id/orders", h.GetScheduleOrders)
	api.GET("/customers/:id/orders", h.GetCustomerOrders)
	api.POST("/orders/:id/cancel", h.CancelOrder)
	api.PATCH("/orders/:id/status", h.UpdateOrderStatus)
}

// RunBatch triggers a fulfillment run outside the cron tick. Useful for
// operations and for backfilling after an outage.
func (h *FulfillmentHandler) RunBatch(c *gin.Context) {
	result, err := h.fulfillmentService.ProcessDueSchedules(c.Request.Context(), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FulfillmentHandler) GetScheduleOrders(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	orders, err := h.fulfillmentService.GetScheduleOrders(actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *FulfillmentHandler) GetCustomerOrders(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	customerID, ok := idParam(c)
	if !ok {
		return
	}

	orders, err := h.fulfillmentService.GetCustomerOrders(actor, customerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *FulfillmentHandler) CancelOrder(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	order, err := h.fulfillmentService.CancelOrder(actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *FulfillmentHandler) UpdateOrderStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.fulfillmentService.UpdateOrderStatus(actor, id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
