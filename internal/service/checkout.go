package service

import (
	"context"
	"fmt"
	"strings"

	"storefront-order-service/internal/models"
	"storefront-order-service/internal/util"

	"go.uber.org/zap"
)

type placer interface {
	PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlacedOrder, error)
}

type pendingCart interface {
	Remove(ctx context.Context, userID, productID int64) error
}

// CheckoutCoordinator runs the best-effort multi-item checkout saga: one
// order placement per cart line, processed sequentially in cart order.
// Succeeded legs are never rolled back when a later leg fails.
type CheckoutCoordinator struct {
	orders placer
	cart   pendingCart
	logger *zap.Logger
}

// NewCheckoutCoordinator creates a new checkout coordinator
func NewCheckoutCoordinator(orders placer, cart pendingCart) *CheckoutCoordinator {
	return &CheckoutCoordinator{
		orders: orders,
		cart:   cart,
		logger: util.GetLogger(),
	}
}

// CheckoutItemSuccess records an accepted line item. Degraded acceptance
// (PENDING_INVENTORY) still counts as success for cart-clearing purposes.
type CheckoutItemSuccess struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name,omitempty"`
	OrderID   int64  `json:"order_id"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

// CheckoutItemFailure records a rejected line item.
type CheckoutItemFailure struct {
	ProductID    int64  `json:"product_id"`
	Name         string `json:"name,omitempty"`
	Reason       string `json:"reason"`
	OrderCreated bool   `json:"order_created"`
}

// CheckoutResult partitions the processed cart into successes and failures.
// It lives for a single checkout invocation.
type CheckoutResult struct {
	Successful []CheckoutItemSuccess `json:"successful"`
	Failed     []CheckoutItemFailure `json:"failed"`
	Message    string                `json:"message"`
}

// Checkout places one order per cart line, in cart order. Items are
// deliberately processed one at a time so the first cart item has first
// claim on stock and each failure attributes to a specific item. A failed
// item never aborts the rest of the cart; succeeded items are removed from
// the pending cart immediately so a later failure cannot re-offer them.
func (c *CheckoutCoordinator) Checkout(ctx context.Context, userID int64, items []models.CartItem) *CheckoutResult {
	ctx, span := util.StartSpan(ctx, "CheckoutCoordinator.Checkout")
	defer span.End()

	// Started legs run to completion even if the caller goes away, so no
	// order is left in an indeterminate status.
	legCtx := context.WithoutCancel(ctx)

	result := &CheckoutResult{
		Successful: make([]CheckoutItemSuccess, 0, len(items)),
		Failed:     make([]CheckoutItemFailure, 0),
	}

	for _, item := range items {
		placed, err := c.orders.PlaceOrder(legCtx, &PlaceOrderRequest{
			UserID:    userID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
		if err != nil {
			util.CheckoutItemsTotal.WithLabelValues("failed").Inc()
			c.logger.Warn("Checkout item failed",
				zap.Int64("user_id", userID),
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
			result.Failed = append(result.Failed, CheckoutItemFailure{
				ProductID: item.ProductID,
				Name:      item.Name,
				Reason:    err.Error(),
			})
			continue
		}

		util.CheckoutItemsTotal.WithLabelValues("succeeded").Inc()
		result.Successful = append(result.Successful, CheckoutItemSuccess{
			ProductID: item.ProductID,
			Name:      item.Name,
			OrderID:   placed.Order.ID,
			Status:    placed.Order.Status,
			Message:   placed.Message,
		})

		if err := c.cart.Remove(legCtx, userID, item.ProductID); err != nil {
			c.logger.Error("Failed to remove ordered item from cart",
				zap.Int64("user_id", userID),
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
		}
	}

	result.Message = summarize(result, len(items))
	util.CheckoutsTotal.WithLabelValues(aggregateLabel(result)).Inc()

	c.logger.Info("Checkout finished",
		zap.Int64("user_id", userID),
		zap.Int("succeeded", len(result.Successful)),
		zap.Int("failed", len(result.Failed)))

	return result
}

func summarize(result *CheckoutResult, total int) string {
	switch {
	case total == 0:
		return "cart is empty"
	case len(result.Failed) == 0:
		return fmt.Sprintf("all %d items ordered", total)
	case len(result.Successful) == 0:
		return "no items could be ordered"
	default:
		reasons := make([]string, 0, len(result.Failed))
		for _, failure := range result.Failed {
			name := failure.Name
			if name == "" {
				name = fmt.Sprintf("product %d", failure.ProductID)
			}
			reasons = append(reasons, fmt.Sprintf("%s (%s)", name, failure.Reason))
		}
		return fmt.Sprintf("ordered %d of %d items; failed: %s",
			len(result.Successful), total, strings.Join(reasons, ", "))
	}
}

func aggregateLabel(result *CheckoutResult) string {
	switch {
	case len(result.Failed) == 0:
		return "full"
	case len(result.Successful) == 0:
		return "none"
	default:
		return "partial"
	}
}
