package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	Ping() error
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	db        HealthChecker
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db HealthChecker) *SystemHandler {
	return &SystemHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/health", h.Health)
		system.GET("/info", h.GetSystemInfo)
		system.GET("/ping", h.Ping)
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health reports service and database health. The database being down is a
// 503 so load balancers stop routing here.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "up"}

	if err := h.db.Ping(); err != nil {
		resp.Status = "degraded"
		resp.Database = "down"
		c.JSON(http.StatusServiceUnavailable, dto.NewSuccessResponse(resp))
		return
	}

	h.Success(c, resp)
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns basic system information including version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      "CRM Backend API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping is a simple liveness endpoint
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
