package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admissions-api/internal/dto"
	"github.com/noah-isme/sma-admissions-api/internal/models"
	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
	"github.com/noah-isme/sma-admissions-api/pkg/response"
)

type webhookReceiver interface {
	Receive(ctx context.Context, req dto.WebhookInquiryRequest) (*models.Inquiry, error)
}

// WebhookHandler receives inquiries pushed by third-party form providers.
type WebhookHandler struct {
	webhooks webhookReceiver
}

// NewWebhookHandler constructs the handler.
func NewWebhookHandler(webhooks webhookReceiver) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Receive godoc
// @Summary Receive a webhook inquiry
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param payload body dto.WebhookInquiryRequest true "Inquiry"
// @Success 201 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /webhooks/inquiries [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	var req dto.WebhookInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	inquiry, err := h.webhooks.Receive(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.CreateInquiryResponse{CaseID: inquiry.CaseID})
}
