package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admissions-api/internal/dto"
	"github.com/noah-isme/sma-admissions-api/internal/service"
	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
	"github.com/noah-isme/sma-admissions-api/pkg/response"
)

type paperFormSubmitter interface {
	Submit(ctx context.Context, image []byte, overrides dto.PaperFormOverrides, actor service.Actor) (*dto.PaperFormResult, error)
}

// PaperFormHandler accepts photographed paper inquiry forms.
type PaperFormHandler struct {
	forms    paperFormSubmitter
	maxBytes int64
}

// NewPaperFormHandler constructs the handler. maxBytes caps the multipart body.
func NewPaperFormHandler(forms paperFormSubmitter, maxBytes int64) *PaperFormHandler {
	if maxBytes <= 0 {
		maxBytes = 8 << 20
	}
	return &PaperFormHandler{forms: forms, maxBytes: maxBytes}
}

// Upload godoc
// @Summary Submit a paper form photo
// @Tags Inquiries
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Form photo"
// @Param studentName formData string false "Override student name"
// @Param parentName formData string false "Override parent name"
// @Param phone formData string false "Override phone"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /inquiries/paper-form [post]
func (h *PaperFormHandler) Upload(c *gin.Context) {
	// Leave headroom for the override fields around the image part.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+64<<10)

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.ErrPayloadTooLarge)
			return
		}
		response.Error(c, appErrors.Validation("image is required", appErrors.FieldError{Field: "image", Message: "image is required"}))
		return
	}
	var overrides dto.PaperFormOverrides
	if err := c.ShouldBind(&overrides); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid form fields"))
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable upload"))
		return
	}
	defer src.Close()
	image, err := io.ReadAll(io.LimitReader(src, h.maxBytes+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable upload"))
		return
	}

	result, err := h.forms.Submit(c.Request.Context(), image, overrides, actorFromContext(c, ""))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
