package follow

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tweeter/internal/config"
	"tweeter/internal/database"
	kafkapkg "tweeter/internal/kafka"
	"tweeter/internal/metrics"
	"tweeter/internal/session"
	"tweeter/internal/storage"

	"github.com/redis/go-redis/v9"
)

// Config holds follow service configuration
type Config struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	CountCacheTTL  time.Duration
	AvatarURLTTL   time.Duration
	AllowedOrigins []string
	EnableKafka    bool
	EnableStorage  bool
	MigrateOnStart bool
}

// LoadConfigFromEnv loads follow service configuration from environment variables
func LoadConfigFromEnv() *Config {
	var origins []string
	for _, o := range strings.Split(config.GetEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		Port:           config.GetEnvOrDefault("FOLLOW_SERVICE_PORT", "8085"),
		ReadTimeout:    config.GetEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:   config.GetEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:    config.GetEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		RedisAddr:      config.GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  config.GetEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:        config.GetEnvInt("REDIS_DB", 0),
		CountCacheTTL:  config.GetEnvDuration("FOLLOW_COUNT_CACHE_TTL", 5*time.Minute),
		AvatarURLTTL:   config.GetEnvDuration("AVATAR_URL_TTL", time.Hour),
		AllowedOrigins: origins,
		EnableKafka:    config.GetEnvBool("ENABLE_KAFKA", true),
		EnableStorage:  config.GetEnvBool("ENABLE_STORAGE", true),
		MigrateOnStart: config.GetEnvBool("DB_MIGRATE", true),
	}
}

// Server is the assembled follow service
type Server struct {
	HTTP *http.Server

	db       database.Service
	redis    *redis.Client
	producer *kafkapkg.Producer
	logger   *slog.Logger
}

// NewServer connects every backing dependency and builds the HTTP server.
// Kafka and object storage are optional and skipped when not configured.
func NewServer(ctx context.Context, cfg *Config, logger *slog.Logger) (*Server, error) {
	db := database.New()
	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	rdb := session.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	sessions := session.NewManager(session.NewRedisStore(rdb))

	m := metrics.New()

	deps := Dependencies{
		Repository: NewRepository(db),
		Cache:      NewRedisCountCache(rdb, cfg.CountCacheTTL),
		AvatarTTL:  cfg.AvatarURLTTL,
		Observer:   m,
		Logger:     logger,
	}

	health := map[string]HealthChecker{
		"database": db.Health,
		"redis": func() map[string]string {
			pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				return map[string]string{"status": "down", "error": err.Error()}
			}
			return map[string]string{"status": "up"}
		},
	}

	if cfg.EnableStorage {
		if storageCfg, err := storage.LoadConfig(); err != nil {
			logger.Info("Avatar storage disabled", "reason", err.Error())
		} else if avatars, err := storage.New(ctx, storageCfg); err != nil {
			logger.Warn("Failed to initialize avatar storage", "error", err)
		} else {
			deps.Avatars = avatars
			health["storage"] = func() map[string]string {
				checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := avatars.Health(checkCtx); err != nil {
					return map[string]string{"status": "down", "error": err.Error()}
				}
				return map[string]string{"status": "up"}
			}
		}
	}

	s := &Server{db: db, redis: rdb, logger: logger}

	if cfg.EnableKafka {
		if kafkaCfg, err := kafkapkg.LoadConfig(); err != nil {
			logger.Info("Follow events disabled", "reason", err.Error())
		} else if producer, err := kafkapkg.NewProducer(kafkaCfg, logger); err != nil {
			logger.Warn("Failed to create Kafka producer", "error", err)
		} else {
			s.producer = producer
			deps.Events = producer
			health["events"] = producer.Health
			deps.EventsTopic = kafkaCfg.FollowEventsTopic
		}
	}

	router := SetupRouter(NewService(deps), RouterConfig{
		Sessions:          sessions,
		Logger:            logger,
		AllowedOrigins:    cfg.AllowedOrigins,
		Health:            health,
		Metrics:           m.Handler(),
		MetricsMiddleware: m.Middleware(),
	})

	s.HTTP = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s, nil
}

// Close releases the backing connections
func (s *Server) Close() {
	if s.producer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.producer.Close(ctx); err != nil {
			s.logger.Error("Kafka producer closed with pending events", "error", err)
		}
		cancel()
	}
	if err := s.redis.Close(); err != nil {
		s.logger.Warn("Failed to close redis", "error", err)
	}
	if err := s.db.Close(); err != nil {
		s.logger.Warn("Failed to close database", "error", err)
	}
}
