package follow

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports the status of one backing dependency
type HealthChecker func() map[string]string

type Handler struct {
	svc    Service
	health map[string]HealthChecker
}

func NewHandler(svc Service, health map[string]HealthChecker) *Handler {
	return &Handler{svc: svc, health: health}
}

// fail maps service errors to HTTP responses
func fail(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, ErrSelfFollow):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot follow yourself"})
	case errors.Is(err, ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed"})
	}
}

func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.svc.GetUser(c.Request.Context(), c.Param("alias"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}

func (h *Handler) FollowersCount(c *gin.Context) {
	alias := c.Param("alias")

	cnt, err := h.svc.FollowerCount(c.Request.Context(), alias)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, CountResponse{Alias: alias, Count: cnt})
}

func (h *Handler) FolloweesCount(c *gin.Context) {
	alias := c.Param("alias")

	cnt, err := h.svc.FolloweeCount(c.Request.Context(), alias)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, CountResponse{Alias: alias, Count: cnt})
}

// IsFollower answers whether :follower follows :alias
func (h *Handler) IsFollower(c *gin.Context) {
	alias := c.Param("alias")
	follower := c.Param("follower")

	ok, err := h.svc.IsFollower(c.Request.Context(), follower, alias)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, FollowerStatusResponse{Alias: alias, Follower: follower, IsFollower: ok})
}

func (h *Handler) Follow(c *gin.Context) {
	res, err := h.svc.Follow(c.Request.Context(), c.GetString("viewer_alias"), c.Param("alias"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) Unfollow(c *gin.Context) {
	res, err := h.svc.Unfollow(c.Request.Context(), c.GetString("viewer_alias"), c.Param("alias"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{
		"status":  "healthy",
		"service": "follow-service",
	}

	code := http.StatusOK
	for name, check := range h.health {
		st := check()
		resp[name] = st
		if st["status"] == "down" {
			resp["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, resp)
}
