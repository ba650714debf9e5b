package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-admissions-api/internal/dto"
	"github.com/noah-isme/sma-admissions-api/internal/extractor"
	"github.com/noah-isme/sma-admissions-api/internal/models"
	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
)

const (
	defaultMaxUploadBytes = 8 << 20
	defaultMaxDimension   = 2000
	preparedMimeType      = "image/jpeg"
)

var acceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

type textRecognizer interface {
	Recognize(ctx context.Context, image []byte, mimeType string) (*OCRResult, error)
}

type inquiryCreator interface {
	Create(ctx context.Context, req dto.CreateInquiryRequest, actor Actor) (*models.Inquiry, error)
}

// PaperFormConfig bounds uploads and image preparation.
type PaperFormConfig struct {
	MaxUploadBytes int64
	MaxDimension   int
}

// PaperFormService turns a photographed paper form into an inquiry.
type PaperFormService struct {
	ocr       textRecognizer
	extractor *extractor.Extractor
	creator   inquiryCreator
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       PaperFormConfig
}

// NewPaperFormService constructs the service.
func NewPaperFormService(ocr textRecognizer, ext *extractor.Extractor, creator inquiryCreator, metrics *MetricsService, logger *zap.Logger, cfg PaperFormConfig) *PaperFormService {
	if ext == nil {
		ext = extractor.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = defaultMaxDimension
	}
	return &PaperFormService{ocr: ocr, extractor: ext, creator: creator, metrics: metrics, logger: logger, cfg: cfg}
}

// Submit recognizes the photo, extracts fields, applies counselor overrides
// and records the inquiry. Nothing is written when recognition fails.
func (s *PaperFormService) Submit(ctx context.Context, image []byte, overrides dto.PaperFormOverrides, actor Actor) (*dto.PaperFormResult, error) {
	if len(image) == 0 {
		return nil, appErrors.Validation("image is required", appErrors.FieldError{Field: "image", Message: "image is required"})
	}
	if int64(len(image)) > s.cfg.MaxUploadBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("image exceeds %d bytes", s.cfg.MaxUploadBytes))
	}
	if mime := http.DetectContentType(image); !acceptedImageTypes[mime] {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("unsupported image type %s", mime))
	}

	prepared, err := PrepareImage(image, s.cfg.MaxDimension)
	if err != nil {
		return nil, appErrors.Validation("image could not be decoded", appErrors.FieldError{Field: "image", Message: err.Error()})
	}

	start := time.Now()
	result, err := s.ocr.Recognize(ctx, prepared, preparedMimeType)
	s.metrics.ObserveOCR(err == nil, time.Since(start))
	if err != nil {
		s.logger.Warn("ocr failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrBadGateway.Code, appErrors.ErrBadGateway.Status, "text recognition failed")
	}

	extracted := s.extractor.Extract(result.Text)
	req := mergePaperForm(extracted, overrides)

	inquiry, err := s.creator.Create(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	s.logger.Info("paper form recorded",
		zap.String("case_id", inquiry.CaseID),
		zap.Float64("confidence", result.Confidence))
	return &dto.PaperFormResult{CaseID: inquiry.CaseID, Confidence: result.Confidence, Extracted: extracted}, nil
}

// PrepareImage auto-orients, bounds, grayscales and re-encodes a photo as JPEG.
func PrepareImage(data []byte, maxDimension int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if maxDimension > 0 {
		bounds := img.Bounds()
		if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
			img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
		}
	}
	gray := imaging.Grayscale(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func mergePaperForm(extracted models.ExtractedFields, o dto.PaperFormOverrides) dto.CreateInquiryRequest {
	pick := func(override, fallback string) string {
		if v := strings.TrimSpace(override); v != "" {
			return v
		}
		return fallback
	}
	return dto.CreateInquiryRequest{
		TenantID:       o.TenantID,
		StudentName:    pick(o.StudentName, extracted.StudentName),
		ParentName:     pick(o.ParentName, extracted.ParentName),
		Phone:          pick(o.Phone, extracted.Phone),
		SecondaryPhone: pick(o.SecondaryPhone, extracted.SecondaryPhone),
		Email:          pick(o.Email, extracted.Email),
		CurrentClass:   pick(o.CurrentClass, extracted.CurrentClass),
		CurrentSchool:  pick(o.CurrentSchool, extracted.CurrentSchool),
		Board:          pick(o.Board, extracted.Board),
		Occupation:     pick(o.Occupation, extracted.Occupation),
		HowHeard:       pick(o.HowHeard, extracted.HowHeard),
		Source:         string(models.InquirySourcePaperForm),
		Status:         o.Status,
		Priority:       o.Priority,
		AssignedTo:     o.AssignedTo,
		Notes:          o.Notes,
	}
}
