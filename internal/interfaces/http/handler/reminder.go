package handler

import (
	"strconv"

	reminderapp "github.com/crm/backend/internal/application/reminder"
	"github.com/crm/backend/internal/domain/reminder"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReminderHandler handles reminder-related API endpoints
type ReminderHandler struct {
	BaseHandler
	dispatchService *reminderapp.DispatchService
	configService   *reminderapp.ConfigService
}

// NewReminderHandler creates a new ReminderHandler
func NewReminderHandler(
	dispatchService *reminderapp.DispatchService,
	configService *reminderapp.ConfigService,
) *ReminderHandler {
	return &ReminderHandler{
		dispatchService: dispatchService,
		configService:   configService,
	}
}

// RegisterRoutes registers reminder routes
func (h *ReminderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reminders := rg.Group("/reminders")
	{
		reminders.POST("/test", h.RunScans)
		reminders.POST("/send-now/:invoiceId", h.SendNow)
		reminders.GET("/config", h.GetConfigs)
		reminders.PUT("/config/:id", h.UpdateConfig)
		reminders.GET("/logs", h.ListLogs)
	}
}

// ScanResultResponse reports how many invoices each scan picked up
type ScanResultResponse struct {
	OverdueScanned int `json:"overdue_scanned"`
	DueSoonScanned int `json:"due_soon_scanned"`
}

// UpdateReminderConfigRequest is a partial update to one config row
type UpdateReminderConfigRequest struct {
	Enabled    *bool              `json:"enabled"`
	DaysBefore *int               `json:"days_before" binding:"omitempty,min=0"`
	DaysAfter  *int               `json:"days_after" binding:"omitempty,min=0"`
	TemplateID *uuid.UUID         `json:"template_id"`
	Channels   *reminder.Channels `json:"channels"`
}

// RunScans triggers both reminder scans immediately, outside the daily
// schedule. POST /reminders/test
func (h *ReminderHandler) RunScans(c *gin.Context) {
	overdue, err := h.dispatchService.ScanOverdue(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	dueSoon, err := h.dispatchService.ScanDueSoon(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ScanResultResponse{
		OverdueScanned: overdue,
		DueSoonScanned: dueSoon,
	})
}

// SendNow dispatches a reminder for one invoice immediately.
// POST /reminders/send-now/:invoiceId
func (h *ReminderHandler) SendNow(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("invoiceId"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	result, err := h.dispatchService.SendManual(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetConfigs returns all reminder configuration rows, seeding defaults when
// none exist. GET /reminders/config
func (h *ReminderHandler) GetConfigs(c *gin.Context) {
	configs, err := h.configService.GetConfigs(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, configs)
}

// UpdateConfig applies a partial update to one configuration row.
// PUT /reminders/config/:id
func (h *ReminderHandler) UpdateConfig(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid config ID")
		return
	}

	var req UpdateReminderConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	config, err := h.configService.UpdateConfig(c.Request.Context(), id, reminder.ConfigUpdate{
		Enabled:    req.Enabled,
		DaysBefore: req.DaysBefore,
		DaysAfter:  req.DaysAfter,
		TemplateID: req.TemplateID,
		Channels:   req.Channels,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, config)
}

// ListLogs returns dispatch log entries, newest first. Optional query
// filters: entity_type, entity_id, limit. GET /reminders/logs
func (h *ReminderHandler) ListLogs(c *gin.Context) {
	filter := reminder.LogFilter{
		EntityType: c.Query("entity_type"),
	}

	if raw := c.Query("entity_id"); raw != "" {
		entityID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid entity ID")
			return
		}
		filter.EntityID = &entityID
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			h.BadRequest(c, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	logs, err := h.configService.ListLogs(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, logs)
}
