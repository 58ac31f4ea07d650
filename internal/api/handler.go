package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cfech/github-dashboard/internal/cache"
	"github.com/cfech/github-dashboard/internal/github"
	"github.com/cfech/github-dashboard/internal/models"
)

// DashboardService is the core contract this thin HTTP layer consumes.
type DashboardService interface {
	Get(ctx context.Context, scope models.FetchScope, forceRefresh bool) (*cache.Dashboard, error)
}

type Handler struct {
	service DashboardService
	scope   models.FetchScope
	logger  *logrus.Logger
}

func NewHandler(service DashboardService, scope models.FetchScope, logger *logrus.Logger) *Handler {
	return &Handler{
		service: service,
		scope:   scope,
		logger:  logger,
	}
}

// ErrorResponse is the JSON body returned on failure
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetDashboard returns the full dashboard dataset: repositories, pull
// requests, commits, the merged activity stream, and the fetch status.
func (h *Handler) GetDashboard(c *gin.Context) {
	dashboard, err := h.getDashboard(c)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GetActivity returns the merged activity stream, optionally truncated by a
// limit query parameter.
func (h *Handler) GetActivity(c *gin.Context) {
	dashboard, err := h.getDashboard(c)
	if err != nil {
		return
	}

	activity := dashboard.Activity
	if limit, convErr := strconv.Atoi(c.DefaultQuery("limit", "0")); convErr == nil && limit > 0 && limit < len(activity) {
		activity = activity[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"activity": activity,
		"status":   dashboard.Status,
	})
}

// GetRepositories returns the retained repository set ordered by recency.
func (h *Handler) GetRepositories(c *gin.Context) {
	dashboard, err := h.getDashboard(c)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"repositories": dashboard.Result.Repositories,
		"status":       dashboard.Status,
	})
}

// Health reports process liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getDashboard runs one Get and writes the error response itself when the
// fetch fails, so handlers only deal with the success path.
func (h *Handler) getDashboard(c *gin.Context) (*cache.Dashboard, error) {
	forceRefresh := c.Query("refresh") == "true"

	dashboard, err := h.service.Get(c.Request.Context(), h.scope, forceRefresh)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load dashboard data")
		status := http.StatusBadGateway
		message := "failed to fetch dashboard data"
		if github.IsAuthError(err) {
			message = "GitHub rejected the credential; check token and scopes"
		}
		c.JSON(status, ErrorResponse{Error: message})
		return nil, err
	}
	return dashboard, nil
}
