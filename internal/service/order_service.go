package service

import (
	"context"
	"fmt"
	"net/http"

	"storefront-order-service/internal/inventory"
	"storefront-order-service/internal/models"
	"storefront-order-service/internal/util"

	"go.uber.org/zap"
)

// PlacementError is a synchronous rejection of an order request. It carries
// the HTTP disposition so the API layer does not re-derive it.
type PlacementError struct {
	HTTPStatus int
	Reason     string
}

func (e *PlacementError) Error() string {
	return e.Reason
}

type orderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
}

type reserver interface {
	AttemptReservation(ctx context.Context, productID int64, quantity int) inventory.Result
}

type placementPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderPendingInventory(ctx context.Context, event *models.OrderPendingInventoryEvent) error
}

// OrderService handles single-item order placement.
type OrderService struct {
	store     orderStore
	inventory reserver
	events    placementPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store orderStore, inventory reserver, events placementPublisher) *OrderService {
	return &OrderService{
		store:     store,
		inventory: inventory,
		events:    events,
		logger:    util.GetLogger(),
	}
}

// PlaceOrderRequest represents a request to place a single-product order
type PlaceOrderRequest struct {
	UserID    int64 `json:"user_id" binding:"required"`
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// PlacedOrder is the accepted order plus an optional advisory message.
type PlacedOrder struct {
	Order   models.Order `json:"order"`
	Message string       `json:"message,omitempty"`
}

// PlaceOrder validates the request, attempts the guarded reservation,
// classifies the outcome, and persists the order. Dependency faults degrade
// to PENDING_INVENTORY acceptance; caller faults reject without persisting.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlacedOrder, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	if err := validatePlaceOrder(req); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	result := s.inventory.AttemptReservation(ctx, req.ProductID, req.Quantity)
	decision := Classify(result.Outcome)

	if decision.Reject {
		util.OrdersRejectedTotal.WithLabelValues(result.Outcome.String()).Inc()
		s.logger.Info("Order rejected",
			zap.Int64("user_id", req.UserID),
			zap.Int64("product_id", req.ProductID),
			zap.String("outcome", result.Outcome.String()))
		return nil, &PlacementError{HTTPStatus: decision.HTTPStatus, Reason: decision.Message}
	}

	order := &models.Order{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Status:    decision.Status,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("persistence_error").Inc()
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	util.OrdersPlacedTotal.WithLabelValues(order.Status).Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.Int64("product_id", order.ProductID),
		zap.String("status", order.Status))

	s.publishPlacement(ctx, order, result)

	return &PlacedOrder{Order: *order, Message: decision.Message}, nil
}

// publishPlacement emits the placement event. Publish failures are logged
// and never fail the request.
func (s *OrderService) publishPlacement(ctx context.Context, order *models.Order, result inventory.Result) {
	if order.Status == models.OrderStatusConfirmed {
		event := &models.OrderPlacedEvent{
			BaseEvent: models.NewBaseEvent(models.EventTypeOrderPlaced),
			OrderID:   order.ID,
			UserID:    order.UserID,
			ProductID: order.ProductID,
			Quantity:  order.Quantity,
		}
		if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
		}
		return
	}

	event := &models.OrderPendingInventoryEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeOrderPendingInventory),
		OrderID:   order.ID,
		UserID:    order.UserID,
		ProductID: order.ProductID,
		Quantity:  order.Quantity,
		Reason:    result.Outcome.String(),
	}
	if err := s.events.PublishOrderPendingInventory(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPendingInventory event", zap.Error(err))
	}
}

func validatePlaceOrder(req *PlaceOrderRequest) error {
	switch {
	case req.UserID <= 0:
		return &PlacementError{HTTPStatus: http.StatusBadRequest, Reason: "user id is required"}
	case req.ProductID <= 0:
		return &PlacementError{HTTPStatus: http.StatusBadRequest, Reason: "product id is required"}
	case req.Quantity <= 0:
		return &PlacementError{HTTPStatus: http.StatusBadRequest, Reason: "quantity must be a positive integer"}
	}
	return nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.store.GetOrderByID(ctx, orderID)
}

// GetOrdersByUser retrieves a user's orders
func (s *OrderService) GetOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}
