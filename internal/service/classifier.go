package service

import (
	"net/http"

	"storefront-order-service/internal/inventory"
	"storefront-order-service/internal/models"
)

// Decision is the placement ruling derived from a reservation outcome:
// which order status to persist, the HTTP disposition, and an optional
// advisory message for the customer.
type Decision struct {
	Status     string
	HTTPStatus int
	Reject     bool
	Message    string
}

// Classify maps a reservation outcome to an order-status decision. Only
// caller faults (bad product, not enough stock) reject the request; every
// dependency fault degrades to an accepted order with the reservation
// deferred, so availability is never sacrificed for a downstream failure.
func Classify(outcome inventory.Outcome) Decision {
	switch outcome {
	case inventory.OutcomeReserved:
		return Decision{
			Status:     models.OrderStatusConfirmed,
			HTTPStatus: http.StatusCreated,
		}
	case inventory.OutcomeInsufficientStock:
		return Decision{
			HTTPStatus: http.StatusConflict,
			Reject:     true,
			Message:    "insufficient stock",
		}
	case inventory.OutcomeNotFound:
		return Decision{
			HTTPStatus: http.StatusNotFound,
			Reject:     true,
			Message:    "product not found",
		}
	case inventory.OutcomeCircuitOpen:
		return Decision{
			Status:     models.OrderStatusPendingInventory,
			HTTPStatus: http.StatusCreated,
			Message:    "inventory service unavailable, reservation deferred",
		}
	case inventory.OutcomeTimeout:
		return Decision{
			Status:     models.OrderStatusPendingInventory,
			HTTPStatus: http.StatusCreated,
			Message:    "reservation timed out, it will be retried shortly",
		}
	case inventory.OutcomeError:
		return Decision{
			Status:     models.OrderStatusPendingInventory,
			HTTPStatus: http.StatusCreated,
			Message:    "reservation could not be confirmed, it will be retried",
		}
	default:
		// Unknown outcomes are treated as dependency faults.
		return Decision{
			Status:     models.OrderStatusPendingInventory,
			HTTPStatus: http.StatusCreated,
			Message:    "reservation could not be confirmed, it will be retried",
		}
	}
}
