package notify

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ProcessedCounter reports how many events are currently claimed
type ProcessedCounter interface {
	Count(ctx context.Context) (int64, error)
}

type Handler struct {
	inbox     Inbox
	redis     *redis.Client
	processed ProcessedCounter
}

// NewHandler creates the HTTP handler. client and processed may be nil.
func NewHandler(inbox Inbox, client *redis.Client, processed ProcessedCounter) *Handler {
	return &Handler{inbox: inbox, redis: client, processed: processed}
}

// Notifications returns the caller's newest notifications. ?limit caps the
// number returned.
func (h *Handler) Notifications(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	alias := c.GetString("viewer_alias")
	items, err := h.inbox.Recent(c.Request.Context(), alias, limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alias": alias, "notifications": items})
}

func (h *Handler) Health(c *gin.Context) {
	redisStatus := "up"
	overall := "healthy"
	status := http.StatusOK

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := h.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
			overall = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	body := gin.H{
		"status":  overall,
		"service": "notify-service",
		"redis":   redisStatus,
	}
	if h.processed != nil && redisStatus == "up" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if n, err := h.processed.Count(ctx); err == nil {
			body["events_processed"] = n
		} else {
			_ = c.Error(err)
		}
	}

	c.JSON(status, body)
}
