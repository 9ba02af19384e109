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

	"honey-fulfillment/config"
	"honey-fulfillment/internal/api"
	"honey-fulfillment/internal/broker"
	"honey-fulfillment/internal/redisclient"
	"honey-fulfillment/internal/service"
	"honey-fulfillment/internal/store"
	"honey-fulfillment/internal/util"
	"honey-fulfillment/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting honey fulfillment service")

	tp, err := util.InitTracer(cfg.Observ.JaegerEndpoint)
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

	db, err := store.NewStore(cfg.Database.URL, cfg.Reservation.RetryLimit)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	orderProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrders)
	defer orderProducer.Close()
	prepProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPrep)
	defer prepProducer.Close()
	log.Println("Kafka producers initialized")

	eventPublisher := broker.NewEventPublisher(orderProducer)
	prepPublisher := broker.NewPrepPublisher(prepProducer)

	orchestrator := service.NewReservationOrchestrator(
		db.Honey(),
		db.Jars(),
		db.Labels(),
		db.Crates(),
		time.Duration(cfg.Reservation.CapacityTimeoutSeconds)*time.Second,
	)

	orderService := service.NewOrderService(
		db,
		redisClient,
		eventPublisher,
		prepPublisher,
		orchestrator,
		time.Duration(cfg.Reservation.IdempotencyTTLSeconds)*time.Second,
	)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	mirror := service.NewAvailabilityMirror(db, redisClient)
	if err := mirror.Sync(context.Background()); err != nil {
		log.Printf("Failed to sync availability to Redis: %v", err)
	}
	go mirror.Run(workerCtx, 30*time.Second)

	prepConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPrep, cfg.Kafka.ConsumerGroup)
	prepWorker := worker.NewPrepWorker(prepConsumer)
	go func() {
		if err := prepWorker.Start(workerCtx); err != nil {
			log.Printf("Prep worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(orderService, mirror)
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
	prepWorker.Stop()

	log.Println("Server exited")
}
