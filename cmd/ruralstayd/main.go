package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ruralstay-backend/config"
	"ruralstay-backend/internal/api"
	"ruralstay-backend/internal/booking"
	"ruralstay-backend/internal/db"
	"ruralstay-backend/internal/notification"
	"ruralstay-backend/internal/store"
	"ruralstay-backend/internal/sweeper"

	"github.com/SherClockHolmes/webpush-go"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "ruralstay-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Check for VAPID keys
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatalf("VAPID keys must be configured. Please generate them and add them to your config file.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create the store layer and the admission engine
	appStore := store.NewGormStore(gormDB)
	engine := booking.NewEngine(appStore)
	logger.Println("data store and admission engine initialized")

	// Start the host notification worker pool
	notifier := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
	notifier.Start(ctx)

	// Run the booking maintenance sweeper in the background
	sweeperSvc := sweeper.NewService(&cfg.Booking, appStore)
	go sweeperSvc.Run(ctx)

	// Initialize router
	router := api.NewRouter(cfg, appStore, engine, notifier, &webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
