package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice-service/config"
	"backoffice-service/internal/cache"
	"backoffice-service/internal/database"
	"backoffice-service/internal/logger"
	"backoffice-service/internal/producer"
	"backoffice-service/internal/repository"
	"backoffice-service/internal/service"
	transport "backoffice-service/internal/transport/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	repos := repository.New(db)

	// Кэш и шина событий опциональны: nil отключает их, корректность
	// операций от этого не зависит.
	var viewCache service.ViewCache
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Warn("Redis unavailable, running without cache", zap.Error(err))
		} else {
			defer rc.Close()
			viewCache = rc
		}
	}

	var events service.EventBus
	if cfg.Kafka.Enabled {
		ep := producer.NewEventProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer ep.Close()
		events = ep
	}

	var payment service.PaymentLinkProvider
	if cfg.Payment.BaseURL != "" {
		payment = service.NewHTTPPaymentProvider(cfg.Payment.BaseURL, cfg.Payment.SecretKey, cfg.Payment.RedirectURL)
	}

	cacheTTL := time.Duration(cfg.Redis.TTLSeconds) * time.Second

	orderSvc := service.NewOrderService(repos, viewCache, payment, events, log, cacheTTL)
	splitSvc := service.NewSplitService(repos, viewCache, payment, events, log)
	itemSvc := service.NewItemService(repos, viewCache, log, cacheTTL)
	bookingSvc := service.NewBookingService(repos, viewCache, events, log, cacheTTL)

	router := transport.Router(orderSvc, splitSvc, itemSvc, bookingSvc, log)

	srv := &http.Server{
		Addr:    cfg.Port,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Starting backoffice HTTP server", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-quit
	log.Info("Shutting down backoffice HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	} else {
		log.Info("Backoffice HTTP server stopped gracefully")
	}
}
