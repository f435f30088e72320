package service

import (
	"context"
	"fmt"

	"storefront-order-service/internal/models"
	"storefront-order-service/internal/util"

	"go.uber.org/zap"
)

type cancellationStore interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

type stockReleaser interface {
	Release(ctx context.Context, productID int64, quantity int) error
}

type cancelledPublisher interface {
	PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
}

// CancellationService applies cancel requests arriving from external
// cancellation flows: it releases the reservation of CONFIRMED orders and
// moves the order to CANCELLED.
type CancellationService struct {
	store     cancellationStore
	inventory stockReleaser
	events    cancelledPublisher
	logger    *zap.Logger
}

// NewCancellationService creates a new cancellation service
func NewCancellationService(store cancellationStore, inventory stockReleaser, events cancelledPublisher) *CancellationService {
	return &CancellationService{
		store:     store,
		inventory: inventory,
		events:    events,
		logger:    util.GetLogger(),
	}
}

// HandleCancelRequested processes one OrderCancelRequested event. The
// consumer delivers at least once, so processed events are recorded and
// duplicates are dropped. A failed stock release returns an error so the
// event is redelivered.
func (cs *CancellationService) HandleCancelRequested(ctx context.Context, event *models.OrderCancelRequestedEvent) error {
	ctx, span := util.StartSpan(ctx, "CancellationService.HandleCancelRequested")
	defer span.End()

	processed, err := cs.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		cs.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	order, err := cs.store.GetOrderByID(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %d: %w", event.OrderID, err)
	}

	if order.Status == models.OrderStatusCancelled {
		return cs.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
	}

	released := false
	if order.Status == models.OrderStatusConfirmed {
		// Only confirmed orders hold a reservation worth compensating.
		if err := cs.inventory.Release(ctx, order.ProductID, order.Quantity); err != nil {
			return fmt.Errorf("failed to release stock for order %d: %w", order.ID, err)
		}
		released = true
	}

	if err := cs.store.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel order %d: %w", order.ID, err)
	}

	util.OrdersCancelledTotal.Inc()
	cs.logger.Info("Order cancelled",
		zap.Int64("order_id", order.ID),
		zap.Bool("released", released),
		zap.String("reason", event.Reason))

	if err := cs.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		cs.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	cancelled := &models.OrderCancelledEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeOrderCancelled),
		OrderID:   order.ID,
		Released:  released,
		Reason:    event.Reason,
	}
	if err := cs.events.PublishOrderCancelled(ctx, cancelled); err != nil {
		cs.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}

	return nil
}
