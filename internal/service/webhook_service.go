package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-admissions-api/internal/dto"
	"github.com/noah-isme/sma-admissions-api/internal/models"
)

// WebhookActor is recorded as the actor for webhook intakes.
const WebhookActor = "webhook"

// WebhookConfig tunes phone normalization and the default channel.
type WebhookConfig struct {
	CountryCode   string
	DefaultSource string
}

// WebhookService adapts third-party form submissions to the intake path.
type WebhookService struct {
	creator inquiryCreator
	logger  *zap.Logger
	cfg     WebhookConfig
}

// NewWebhookService constructs the service.
func NewWebhookService(creator inquiryCreator, logger *zap.Logger, cfg WebhookConfig) *WebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.CountryCode = strings.TrimPrefix(strings.TrimSpace(cfg.CountryCode), "+")
	if cfg.CountryCode == "" {
		cfg.CountryCode = "91"
	}
	if cfg.DefaultSource == "" {
		cfg.DefaultSource = string(models.InquirySourceWhatsApp)
	}
	return &WebhookService{creator: creator, logger: logger, cfg: cfg}
}

// Receive normalizes the payload and records the inquiry.
func (s *WebhookService) Receive(ctx context.Context, req dto.WebhookInquiryRequest) (*models.Inquiry, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = s.cfg.DefaultSource
	}
	create := dto.CreateInquiryRequest{
		TenantID:      req.TenantID,
		StudentName:   req.StudentName,
		ParentName:    req.ParentName,
		Phone:         NormalizePhone(req.Phone, s.cfg.CountryCode),
		Email:         req.Email,
		CurrentClass:  req.CurrentClass,
		CurrentSchool: req.CurrentSchool,
		Board:         req.Board,
		Source:        source,
		HowHeard:      req.HowHeard,
		Notes:         req.Message,
		SurveyAnswers: req.SurveyAnswers,
	}
	inquiry, err := s.creator.Create(ctx, create, Actor{ID: WebhookActor})
	if err != nil {
		return nil, err
	}
	s.logger.Info("webhook inquiry recorded", zap.String("case_id", inquiry.CaseID), zap.String("source", string(inquiry.Source)))
	return inquiry, nil
}

// NormalizePhone moves a phone number toward +<country><number> form. Ten
// bare digits are treated as domestic; a leading + is kept; anything else
// that does not fit a known shape is returned trimmed.
func NormalizePhone(raw, countryCode string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, trimmed)
	if digits == "" {
		return trimmed
	}
	switch {
	case strings.HasPrefix(trimmed, "+"):
		return "+" + digits
	case strings.HasPrefix(digits, "00") && len(digits) > 12:
		return "+" + digits[2:]
	case len(digits) == 10:
		return "+" + countryCode + digits
	case len(digits) == 11 && digits[0] == '0':
		return "+" + countryCode + digits[1:]
	case len(digits) == len(countryCode)+10 && strings.HasPrefix(digits, countryCode):
		return "+" + digits
	default:
		return trimmed
	}
}
