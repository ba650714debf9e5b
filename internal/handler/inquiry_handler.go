package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admissions-api/internal/dto"
	"github.com/noah-isme/sma-admissions-api/internal/models"
	"github.com/noah-isme/sma-admissions-api/internal/service"
	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
	"github.com/noah-isme/sma-admissions-api/pkg/response"
)

type inquiryService interface {
	Create(ctx context.Context, req dto.CreateInquiryRequest, actor service.Actor) (*models.Inquiry, error)
	UpdateCounselorFields(ctx context.Context, caseID string, req dto.UpdateCounselorFieldsRequest, actor service.Actor) (*models.Inquiry, error)
	Get(ctx context.Context, caseID string) (*models.Inquiry, error)
	List(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, *models.Pagination, error)
	Activity(ctx context.Context, caseID string) ([]models.ActivityLogEntry, error)
}

type inquiryExporter interface {
	Export(ctx context.Context, filter models.InquiryFilter, format service.ExportFormat) (*service.ExportFile, error)
}

// InquiryHandler exposes intake and counselor endpoints.
type InquiryHandler struct {
	inquiries inquiryService
	exports   inquiryExporter
}

// NewInquiryHandler constructs the handler.
func NewInquiryHandler(inquiries inquiryService, exports inquiryExporter) *InquiryHandler {
	return &InquiryHandler{inquiries: inquiries, exports: exports}
}

// Create godoc
// @Summary Submit an admission inquiry
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param payload body dto.CreateInquiryRequest true "Inquiry"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inquiries [post]
func (h *InquiryHandler) Create(c *gin.Context) {
	var req dto.CreateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var dateErr *dto.DateError
		if errors.As(err, &dateErr) {
			response.Error(c, appErrors.Validation("invalid request body", appErrors.FieldError{Field: "inquiryDate", Message: dateErr.Error()}))
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if claimsFromContext(c) == nil {
		req = req.PublicSubmission()
	}
	inquiry, err := h.inquiries.Create(c.Request.Context(), req, actorFromContext(c, WebFormActor))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.CreateInquiryResponse{CaseID: inquiry.CaseID})
}

// List godoc
// @Summary List inquiries
// @Tags Inquiries
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param source query string false "Source"
// @Param assignedTo query string false "Counselor"
// @Param synced query bool false "Mirror confirmation flag"
// @Param search query string false "Name, phone or case id"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /inquiries [get]
func (h *InquiryHandler) List(c *gin.Context) {
	filter, err := parseInquiryFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, pagination, err := h.inquiries.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get inquiry
// @Tags Inquiries
// @Produce json
// @Param caseId path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /inquiries/{caseId} [get]
func (h *InquiryHandler) Get(c *gin.Context) {
	caseID, err := caseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	inquiry, err := h.inquiries.Get(c.Request.Context(), caseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiry, nil)
}

// Update godoc
// @Summary Update counselor fields
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param caseId path string true "Case ID"
// @Param payload body dto.UpdateCounselorFieldsRequest true "Patch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /inquiries/{caseId} [patch]
func (h *InquiryHandler) Update(c *gin.Context) {
	caseID, err := caseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateCounselorFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	inquiry, err := h.inquiries.UpdateCounselorFields(c.Request.Context(), caseID, req, actorFromContext(c, ""))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiry, nil)
}

// Activity godoc
// @Summary Case activity trail
// @Tags Inquiries
// @Produce json
// @Param caseId path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /inquiries/{caseId}/activity [get]
func (h *InquiryHandler) Activity(c *gin.Context) {
	caseID, err := caseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.inquiries.Activity(c.Request.Context(), caseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Export godoc
// @Summary Export inquiries
// @Tags Inquiries
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /inquiries/export [get]
func (h *InquiryHandler) Export(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := parseInquiryFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.Export(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
