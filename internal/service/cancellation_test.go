package service

import (
	"context"
	"errors"
	"testing"

	"storefront-order-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCancelStore struct {
	order     *models.Order
	processed map[string]bool
	statuses  []string
}

func (f *fakeCancelStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, errors.New("order not found")
	}
	return f.order, nil
}

func (f *fakeCancelStore) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	f.order.Status = status
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeCancelStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func (f *fakeCancelStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	f.processed[eventID] = true
	return nil
}

type fakeReleaser struct {
	calls int
	err   error
}

func (f *fakeReleaser) Release(ctx context.Context, productID int64, quantity int) error {
	f.calls++
	return f.err
}

func cancelEvent(orderID int64) *models.OrderCancelRequestedEvent {
	return &models.OrderCancelRequestedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeOrderCancelRequested),
		OrderID:   orderID,
		Reason:    "customer request",
	}
}

func TestCancelConfirmedOrderReleasesStock(t *testing.T) {
	store := &fakeCancelStore{
		order:     &models.Order{ID: 5, ProductID: 10, Quantity: 3, Status: models.OrderStatusConfirmed},
		processed: map[string]bool{},
	}
	releaser := &fakeReleaser{}
	svc := NewCancellationService(store, releaser, nopPublisher{})

	err := svc.HandleCancelRequested(context.Background(), cancelEvent(5))

	require.NoError(t, err)
	assert.Equal(t, 1, releaser.calls)
	assert.Equal(t, models.OrderStatusCancelled, store.order.Status)
}

func TestCancelPendingInventoryOrderSkipsRelease(t *testing.T) {
	store := &fakeCancelStore{
		order:     &models.Order{ID: 5, ProductID: 10, Quantity: 3, Status: models.OrderStatusPendingInventory},
		processed: map[string]bool{},
	}
	releaser := &fakeReleaser{}
	svc := NewCancellationService(store, releaser, nopPublisher{})

	err := svc.HandleCancelRequested(context.Background(), cancelEvent(5))

	require.NoError(t, err)
	assert.Zero(t, releaser.calls, "unconfirmed orders hold no reservation to release")
	assert.Equal(t, models.OrderStatusCancelled, store.order.Status)
}

func TestCancelIsIdempotent(t *testing.T) {
	store := &fakeCancelStore{
		order:     &models.Order{ID: 5, ProductID: 10, Quantity: 3, Status: models.OrderStatusConfirmed},
		processed: map[string]bool{},
	}
	releaser := &fakeReleaser{}
	svc := NewCancellationService(store, releaser, nopPublisher{})

	event := cancelEvent(5)
	require.NoError(t, svc.HandleCancelRequested(context.Background(), event))
	require.NoError(t, svc.HandleCancelRequested(context.Background(), event))

	assert.Equal(t, 1, releaser.calls)
	assert.Equal(t, []string{models.OrderStatusCancelled}, store.statuses)
}

func TestCancelReleaseFailureIsRetriable(t *testing.T) {
	store := &fakeCancelStore{
		order:     &models.Order{ID: 5, ProductID: 10, Quantity: 3, Status: models.OrderStatusConfirmed},
		processed: map[string]bool{},
	}
	releaser := &fakeReleaser{err: errors.New("inventory unavailable")}
	svc := NewCancellationService(store, releaser, nopPublisher{})

	event := cancelEvent(5)
	err := svc.HandleCancelRequested(context.Background(), event)

	require.Error(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, store.order.Status)
	assert.False(t, store.processed[event.EventID], "failed handling must stay redeliverable")
}
