package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"order_scheduler/internal/models"
	"order_scheduler/internal/notify"
	"order_scheduler/internal/repository"
)

// GatewayClient is the outbound notification gateway. Implemented by
// pkg/notifygate; mocked in tests.
type GatewayClient interface {
	SendOrderConfirmation(address string, payload interface{}) error
}

// NotificationService delivers best-effort order confirmations. Nothing here
// may fail the caller: every error is logged and swallowed.
type NotificationService interface {
	NotifyOrderCreated(ctx context.Context, order *models.OrderInstance)
}

type notificationService struct {
	customerRepo repository.CustomerRepository
	gateway      GatewayClient
	publisher    notify.PublisherInterface
}

func NewNotificationService(customerRepo repository.CustomerRepository, gateway GatewayClient, publisher notify.PublisherInterface) NotificationService {
	return &notificationService{
		customerRepo: customerRepo,
		gateway:      gateway,
		publisher:    publisher,
	}
}

func (s *notificationService) NotifyOrderCreated(ctx context.Context, order *models.OrderInstance) {
	if s.publisher != nil {
		evt := map[string]any{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"schedule_id":  order.ScheduleID,
			"customer_id":  order.CustomerID,
			"status":       order.Status,
			"total":        order.Total,
			"created_at":   order.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, "order.created", evt); err != nil {
			log.Warn().Err(err).Uint("order_id", order.ID).Msg("failed to publish order.created event")
		}
	}

	if s.gateway == nil {
		return
	}

	customer, err := s.customerRepo.GetByID(order.CustomerID)
	if err != nil {
		log.Warn().Err(err).Uint("customer_id", order.CustomerID).Msg("could not resolve customer for confirmation")
		return
	}

	summary := map[string]any{
		"order_number":  order.OrderNumber,
		"delivery_date": order.DeliveryDate,
		"items":         order.Items,
		"total":         order.Total,
		"status":        order.Status,
	}
	if err := s.gateway.SendOrderConfirmation(customer.Email, summary); err != nil {
		log.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("failed to send order confirmation")
	}
}
