package follow

import (
	"log/slog"
	"net/http"

	"tweeter/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries what SetupRouter needs besides the service
type RouterConfig struct {
	Sessions       session.Manager
	Logger         *slog.Logger
	AllowedOrigins []string
	Health         map[string]HealthChecker
	// Metrics, when set, is mounted at /metrics
	Metrics           http.Handler
	MetricsMiddleware gin.HandlerFunc
}

func SetupRouter(svc Service, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(logger))
	if cfg.MetricsMiddleware != nil {
		r.Use(cfg.MetricsMiddleware)
	}
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
		}))
	}

	h := NewHandler(svc, cfg.Health)

	r.GET("/health", h.Health)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	auth := TokenAuthMiddleware(cfg.Sessions, logger)

	users := r.Group("/users", auth)
	{
		users.GET("/:alias", h.GetUser)
		users.GET("/:alias/followers/count", h.FollowersCount)
		users.GET("/:alias/followees/count", h.FolloweesCount)
		// Does :follower follow :alias
		users.GET("/:alias/followed-by/:follower", h.IsFollower)
	}

	follow := r.Group("/follow", auth)
	{
		follow.POST("/:alias", h.Follow)
		follow.DELETE("/:alias", h.Unfollow)
	}

	return r
}
