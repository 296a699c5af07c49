package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

type check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func result(err error) check {
	if err != nil {
		return check{Status: "error", Error: err.Error()}
	}
	return check{Status: "ok"}
}

// handleHealthCheck reports the service status along with its dependencies.
// Only a failing database makes the service unhealthy.
func (s *Server) handleHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := gin.H{}
	status, code := "ok", http.StatusOK

	db := result(s.pingDatabase(ctx))
	checks["database"] = db
	if db.Status != "ok" {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	if s.store != nil {
		cacheCheck := result(s.store.Ping(ctx))
		checks["cache"] = cacheCheck
		if cacheCheck.Status != "ok" && status == "ok" {
			status = "degraded"
		}
	}
	if s.bus != nil {
		busCheck := result(s.bus.Health())
		checks["events"] = busCheck
		if busCheck.Status != "ok" && status == "ok" {
			status = "degraded"
		}
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": "streamflow",
		"version": Version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"modules": len(s.modules.ListModules()),
		"checks":  checks,
	})
}

func (s *Server) pingDatabase(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// handleDatabaseHealth returns connection pool statistics
func (s *Server) handleDatabaseHealth(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}

	stats := sqlDB.Stats()
	var utilization float64
	if stats.MaxOpenConnections > 0 {
		utilization = float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	}

	status := "healthy"
	var issues []string
	if stats.WaitCount > 0 {
		issues = append(issues, "connection_waits_detected")
	}
	if utilization > 90 {
		status = "warning"
		issues = append(issues, "high_connection_utilization")
	}

	response := gin.H{
		"status":              status,
		"open_connections":    stats.OpenConnections,
		"in_use":              stats.InUse,
		"idle":                stats.Idle,
		"max_connections":     stats.MaxOpenConnections,
		"utilization_percent": utilization,
		"wait_count":          stats.WaitCount,
		"wait_duration":       stats.WaitDuration.String(),
	}
	if len(issues) > 0 {
		response["issues"] = issues
	}
	c.JSON(http.StatusOK, response)
}
