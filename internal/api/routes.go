package api

import "github.com/gin-gonic/gin"

// SetupRouter configures the API routes
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/dashboard", h.GetDashboard)
		v1.GET("/activity", h.GetActivity)
		v1.GET("/repositories", h.GetRepositories)
	}

	return r
}
