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

	"smartorder/config"
	"smartorder/internal/api"
	"smartorder/internal/broker"
	"smartorder/internal/notify"
	"smartorder/internal/redisclient"
	"smartorder/internal/service"
	"smartorder/internal/store"
	"smartorder/internal/util"
	"smartorder/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, "smartorder"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting smartorder service")

	tp, err := util.InitTracer("smartorder", cfg.Observ.JaegerEndpoint)
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

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	hub := notify.NewHub(producer)

	menuCacheTTL := time.Duration(cfg.Business.MenuCacheTTLSeconds) * time.Second
	readyGrace := time.Duration(cfg.Business.ReadyGraceMinutes) * time.Minute
	sweepInterval := time.Duration(cfg.Business.SweepIntervalSeconds) * time.Second

	menuClient := service.NewMenuClient(db, redisClient, menuCacheTTL)
	sessionService := service.NewSessionService(db, hub, redisClient)
	statsService := service.NewStatsService(db, db, menuClient, hub)
	orderService := service.NewOrderService(db, menuClient, sessionService, statsService, hub, readyGrace)
	helpService := service.NewHelpService(db, hub)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	sweeper := worker.NewSweeper(orderService, sweepInterval)
	go sweeper.Start(sweepCtx)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(orderService, sessionService, statsService, helpService)
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

	sweepCancel()

	log.Println("Server exited")
}
