package models

import "time"

// Order represents a single-product customer order.
type Order struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Order statuses. PENDING is the initial state before the reservation
// attempt is decided; an order row is only persisted once it has moved
// past it. Rejected requests are never persisted at all.
const (
	OrderStatusPending          = "PENDING"
	OrderStatusConfirmed        = "CONFIRMED"
	OrderStatusPendingInventory = "PENDING_INVENTORY"
	OrderStatusCancelled        = "CANCELLED"
)

// CartItem is one line of a user's pending cart, kept in cart order.
type CartItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name,omitempty"`
}

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
