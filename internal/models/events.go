package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeOrderPlaced           = "ORDER_PLACED"
	EventTypeOrderPendingInventory = "ORDER_PENDING_INVENTORY"
	EventTypeOrderCancelRequested  = "ORDER_CANCEL_REQUESTED"
	EventTypeOrderCancelled        = "ORDER_CANCELLED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh event envelope.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// OrderPlacedEvent published when an order is accepted with a confirmed
// reservation.
type OrderPlacedEvent struct {
	BaseEvent
	OrderID   int64 `json:"order_id"`
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// OrderPendingInventoryEvent published when an order is accepted without a
// confirmed reservation. A future reconciler subscribes to these to retry
// the deferred reservation; nothing in this service consumes them.
type OrderPendingInventoryEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	UserID    int64  `json:"user_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

// OrderCancelRequestedEvent consumed from cancellation flows.
type OrderCancelRequestedEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
}

// OrderCancelledEvent published after a cancellation has been applied.
type OrderCancelledEvent struct {
	BaseEvent
	OrderID  int64  `json:"order_id"`
	Released bool   `json:"released"`
	Reason   string `json:"reason"`
}
