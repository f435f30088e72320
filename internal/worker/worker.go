package worker

import (
	"context"

	"storefront-order-service/internal/broker"
	"storefront-order-service/internal/service"
	"storefront-order-service/internal/util"

	"go.uber.org/zap"
)

// CancellationWorker consumes order events and applies cancel requests.
type CancellationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewCancellationWorker creates a new cancellation worker
func NewCancellationWorker(consumer *broker.Consumer, cancellations *service.CancellationService) *CancellationWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCancelRequested(cancellations.HandleCancelRequested)

	return &CancellationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start starts the worker
func (w *CancellationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting cancellation worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CancellationWorker) Stop() error {
	w.logger.Info("Stopping cancellation worker")
	return w.consumer.Close()
}
