package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admissions-api/internal/dto"
	"github.com/noah-isme/sma-admissions-api/internal/models"
	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
	"github.com/noah-isme/sma-admissions-api/pkg/response"
)

type syncService interface {
	Sweep(ctx context.Context) (models.SweepResult, error)
	Status(ctx context.Context) (bool, string)
	SetEnabled(ctx context.Context, enabled bool) error
}

// SyncHandler exposes mirror retry and toggle endpoints.
type SyncHandler struct {
	sync syncService
}

// NewSyncHandler constructs the handler.
func NewSyncHandler(sync syncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Retry godoc
// @Summary Retry unsynced inquiries
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sync/retry [post]
func (h *SyncHandler) Retry(c *gin.Context) {
	result, err := h.sync.Sweep(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Status godoc
// @Summary Mirror sync toggle
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	enabled, source := h.sync.Status(c.Request.Context())
	response.JSON(c, http.StatusOK, dto.SyncStatusResponse{Enabled: enabled, Source: source}, nil)
}

// SetStatus godoc
// @Summary Toggle mirror sync
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body dto.SyncStatusRequest true "Toggle"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /sync/status [put]
func (h *SyncHandler) SetStatus(c *gin.Context) {
	var req dto.SyncStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		response.Error(c, appErrors.Validation("invalid request body", appErrors.FieldError{Field: "enabled", Message: "enabled is required"}))
		return
	}
	if err := h.sync.SetEnabled(c.Request.Context(), *req.Enabled); err != nil {
		response.Error(c, err)
		return
	}
	enabled, source := h.sync.Status(c.Request.Context())
	response.JSON(c, http.StatusOK, dto.SyncStatusResponse{Enabled: enabled, Source: source}, nil)
}
