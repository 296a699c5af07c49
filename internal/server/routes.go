package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/apiroutes"
	"github.com/mantonx/streamflow/internal/metrics"
)

// setupRoutes registers the system endpoints, then every module's routes
func (s *Server) setupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("", listRoutes)
		apiroutes.RegisterFor("system", "/api", "GET", "Lists all available API endpoints.")

		s.setupHealthRoutes(api)
	}

	if s.cfg.Metrics.Enabled {
		r.GET(s.cfg.Metrics.Path, metrics.GinHandler())
	}

	if dir := s.cfg.Assets.Dir; dir != "" {
		r.Static(s.cfg.Assets.PublicPath, dir)
	}

	s.modules.RegisterRoutes(r)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   gin.H{"code": "NOT_FOUND", "message": "route not found"},
		})
	})
}

func (s *Server) setupHealthRoutes(api *gin.RouterGroup) {
	api.GET("/health", s.handleHealthCheck)
	apiroutes.RegisterFor("system", api.BasePath()+"/health", "GET", "System health check.")

	api.GET("/db-health", s.handleDatabaseHealth)
	apiroutes.RegisterFor("system", api.BasePath()+"/db-health", "GET", "Database health with connection pool statistics.")
}

// listRoutes handles GET /api
func listRoutes(c *gin.Context) {
	routes := apiroutes.Get()
	c.JSON(http.StatusOK, gin.H{"routes": routes, "count": len(routes)})
}
