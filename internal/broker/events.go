package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-order-service/internal/models"
	"storefront-order-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderPlaced publishes OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderPendingInventory publishes OrderPendingInventory event
func (ep *EventPublisher) PublishOrderPendingInventory(ctx context.Context, event *models.OrderPendingInventoryEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderCancelled publishes OrderCancelled event
func (ep *EventPublisher) PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onCancelRequested func(context.Context, *models.OrderCancelRequestedEvent) error
	logger            *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnOrderCancelRequested registers a handler for OrderCancelRequested events
func (eh *EventHandler) OnOrderCancelRequested(handler func(context.Context, *models.OrderCancelRequestedEvent) error) {
	eh.onCancelRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeOrderCancelRequested:
		if eh.onCancelRequested != nil {
			var event models.OrderCancelRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderCancelRequested event: %w", err)
			}
			return eh.onCancelRequested(ctx, &event)
		}

	default:
		// Events this service publishes loop back through the shared topic;
		// they need no handling here.
		eh.logger.Debug("Ignoring event",
			zap.String("type", baseEvent.EventType),
			zap.String("event_id", baseEvent.EventID))
	}

	return nil
}
