package notify

import (
	"log/slog"

	"tweeter/internal/follow"
	"tweeter/internal/session"

	"github.com/gin-gonic/gin"
)

// SetupRouter serves the inbox behind the same token auth as the follow service
func SetupRouter(h *Handler, sessions session.Manager, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(follow.RequestIDMiddleware())
	r.Use(follow.LoggingMiddleware(logger))

	r.GET("/health", h.Health)
	r.GET("/notifications", follow.TokenAuthMiddleware(sessions, logger), h.Notifications)

	return r
}
