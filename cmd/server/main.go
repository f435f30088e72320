package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-order-service/config"
	"storefront-order-service/internal/api"
	"storefront-order-service/internal/broker"
	"storefront-order-service/internal/cart"
	"storefront-order-service/internal/inventory"
	"storefront-order-service/internal/service"
	"storefront-order-service/internal/store"
	"storefront-order-service/internal/util"
	"storefront-order-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront order service")

	tp, err := util.InitTracer("storefront-order-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	cartStore, err := cart.NewStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cartStore.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	inventoryAPI := inventory.NewHTTPClient(cfg.Inventory.BaseURL)
	inventoryClient := inventory.NewClient(inventoryAPI, cfg.Inventory.ReservationTimeout, inventory.BreakerConfig{
		Name:             "inventory-service",
		FailureThreshold: cfg.Inventory.BreakerThreshold,
		OpenDuration:     cfg.Inventory.BreakerOpenFor,
	})

	orderService := service.NewOrderService(db, inventoryClient, eventPublisher)
	checkoutCoordinator := service.NewCheckoutCoordinator(orderService, cartStore)
	cancellationService := service.NewCancellationService(db, inventoryAPI, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	cancelConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	cancellationWorker := worker.NewCancellationWorker(cancelConsumer, cancellationService)
	go func() {
		if err := cancellationWorker.Start(workerCtx); err != nil {
			log.Printf("Cancellation worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(orderService, checkoutCoordinator, cartStore)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	cancellationWorker.Stop()

	log.Println("Server exited")
}
