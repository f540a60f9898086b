package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tweeter/internal/config"
	"tweeter/internal/consul"
	"tweeter/internal/logger"
	"tweeter/internal/notify"
	"tweeter/internal/session"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	lgr := logger.New("notify-service")
	logger.SetDefault(lgr)
	lgr.Info("Starting notify service")

	port := config.GetEnvInt("NOTIFY_SERVICE_PORT", 8086)
	host := config.GetEnvOrDefault("NOTIFY_SERVICE_HOST", "localhost")

	redisClient := session.NewRedisClient(
		config.GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		config.GetEnvOrDefault("REDIS_PASSWORD", ""),
		config.GetEnvInt("REDIS_DB", 0),
	)
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := redisClient.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		lgr.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	inbox := notify.NewRedisInbox(redisClient,
		config.GetEnvInt("NOTIFY_INBOX_SIZE", 50),
		config.GetEnvDuration("NOTIFY_INBOX_TTL", 30*24*time.Hour))
	processed := notify.NewIdempotencyStore(redisClient, config.GetEnvDuration("NOTIFY_IDEMPOTENCY_TTL", 24*time.Hour))
	processor := notify.NewProcessor(
		processed,
		inbox,
		config.GetEnvInt("NOTIFY_MAX_RETRIES", 3),
		time.Second,
		lgr)

	consumerCfg, err := notify.LoadConsumerConfig()
	if err != nil {
		lgr.Error("Invalid Kafka configuration", "error", err)
		os.Exit(1)
	}
	consumer, err := notify.NewConsumer(consumerCfg, processor, lgr)
	if err != nil {
		lgr.Error("Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			lgr.Error("Consumer error", "error", err)
			stop()
		}
	}()

	sessions := session.NewManager(session.NewRedisStore(redisClient))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           notify.SetupRouter(notify.NewHandler(inbox, redisClient, processed), sessions, lgr),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var (
		consulClient *consul.Client
		serviceID    = fmt.Sprintf("notify-service-%s", host)
	)
	if addr := os.Getenv("CONSUL_HTTP_ADDR"); addr != "" {
		consulClient, err = consul.NewClient(addr, os.Getenv("CONSUL_HTTP_TOKEN"))
		if err != nil {
			lgr.Error("Failed to create Consul client", "error", err)
			os.Exit(1)
		}
		_ = consulClient.Deregister(serviceID)
		err = consulClient.Register(&consul.ServiceConfig{
			ID:      serviceID,
			Name:    "notify-service",
			Address: host,
			Port:    port,
			Tags:    []string{"notifications", "kafka-consumer"},
			Check: &consul.HealthCheck{
				HTTP:     fmt.Sprintf("http://%s:%d/health", host, port),
				Interval: "10s",
				Timeout:  "3s",
			},
		})
		if err != nil {
			lgr.Error("Failed to register with Consul", "error", err)
			os.Exit(1)
		}
		lgr.Info("Registered with Consul", "service_id", serviceID)
	}

	go func() {
		lgr.Info("HTTP server started", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lgr.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	lgr.Info("Shutting down notify service")

	if consulClient != nil {
		if err := consulClient.Deregister(serviceID); err != nil {
			lgr.Error("Failed to deregister from Consul", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.Error("HTTP server forced to shutdown", "error", err)
	}

	lgr.Info("Notify service stopped")
}
