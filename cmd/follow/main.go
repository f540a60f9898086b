package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tweeter/internal/config"
	"tweeter/internal/consul"
	"tweeter/internal/follow"
	"tweeter/internal/logger"

	_ "github.com/joho/godotenv/autoload"
)

type registration struct {
	client    *consul.Client
	serviceID string
}

// register announces the service to Consul. It returns nil when
// CONSUL_HTTP_ADDR is unset.
func register(cfg *follow.Config, log *slog.Logger) (*registration, error) {
	addr := os.Getenv("CONSUL_HTTP_ADDR")
	if addr == "" {
		log.Info("Consul registration disabled")
		return nil, nil
	}

	client, err := consul.NewClient(addr, os.Getenv("CONSUL_HTTP_TOKEN"))
	if err != nil {
		return nil, err
	}

	host := config.GetEnvOrDefault("FOLLOW_SERVICE_HOST", "localhost")
	port := config.GetEnvInt("FOLLOW_SERVICE_PORT", 8085)

	// Static ID so restarts replace the previous registration
	serviceID := fmt.Sprintf("follow-service-%s", host)
	_ = client.Deregister(serviceID)

	err = client.Register(&consul.ServiceConfig{
		ID:      serviceID,
		Name:    "follow-service",
		Address: host,
		Port:    port,
		Tags:    []string{"follow", "social", "api"},
		Check: &consul.HealthCheck{
			HTTP:            fmt.Sprintf("http://%s:%s/health", host, cfg.Port),
			Interval:        "10s",
			Timeout:         "3s",
			DeregisterAfter: "1m",
		},
	})
	if err != nil {
		return nil, err
	}

	log.Info("Registered with Consul", "service_id", serviceID)
	return &registration{client: client, serviceID: serviceID}, nil
}

func main() {
	log := logger.New("follow-service")
	logger.SetDefault(log)

	if err := config.ValidateEnv([]string{"REDIS_ADDR"}); err != nil {
		log.Warn("Environment incomplete, using defaults", "error", err)
	}

	cfg := follow.LoadConfigFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := follow.NewServer(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to build follow service", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	reg, err := register(cfg, log)
	if err != nil {
		log.Error("Failed to register with Consul", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Follow service listening", "addr", srv.HTTP.Addr)
		if err := srv.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down follow service")
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server error", "error", err)
		}
	}
	stop()

	if reg != nil {
		if err := reg.client.Deregister(reg.serviceID); err != nil {
			log.Warn("Failed to deregister from Consul", "error", err)
		} else {
			log.Info("Deregistered from Consul")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.HTTP.Shutdown(shutdownCtx); err != nil {
		log.Warn("Forced shutdown", "error", err)
	}

	log.Info("Follow service stopped")
}
