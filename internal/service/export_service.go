package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-admissions-api/internal/models"
	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
	"github.com/noah-isme/sma-admissions-api/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"

	exportPageSize       = 500
	defaultExportMaxRows = 10000
)

var exportHeaders = []string{
	"Case ID", "Inquiry Date", "Student", "Parent", "Phone", "Email", "Class",
	"School", "Board", "Source", "Status", "Case Status", "Priority",
	"Assigned To", "Follow Up", "Synced",
}

type inquiryPager interface {
	List(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders filtered inquiry lists as CSV or PDF.
type ExportService struct {
	inquiries inquiryPager
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
	maxRows   int
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(inquiries inquiryPager, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger, maxRows int) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if maxRows <= 0 {
		maxRows = defaultExportMaxRows
	}
	return &ExportService{
		inquiries: inquiries,
		csv:       csv,
		pdf:       pdf,
		logger:    logger,
		maxRows:   maxRows,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ParseExportFormat accepts csv or pdf, defaulting to csv.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	default:
		return "", appErrors.Validation("unsupported export format", appErrors.FieldError{Field: "format", Message: "format must be csv or pdf"})
	}
}

// Export walks every page matching filter and renders it.
func (s *ExportService) Export(ctx context.Context, filter models.InquiryFilter, format ExportFormat) (*ExportFile, error) {
	inquiries, err := s.collect(ctx, filter)
	if err != nil {
		return nil, err
	}
	dataset := buildInquiryDataset(inquiries)
	stamp := s.now().Format("20060102_150405")

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("Admission Inquiries %s", s.now().Format("02 Jan 2006")))
		contentType = "application/pdf"
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("inquiries exported", zap.String("format", string(format)), zap.Int("rows", len(inquiries)))
	return &ExportFile{
		Filename:    fmt.Sprintf("inquiries_%s.%s", stamp, format),
		ContentType: contentType,
		Data:        payload,
		Rows:        len(inquiries),
	}, nil
}

func (s *ExportService) collect(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, error) {
	filter.PageSize = exportPageSize
	var out []models.Inquiry
	for page := 1; ; page++ {
		filter.Page = page
		items, total, err := s.inquiries.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inquiries")
		}
		out = append(out, items...)
		if len(out) >= s.maxRows {
			s.logger.Warn("export truncated", zap.Int("limit", s.maxRows), zap.Int("total", total))
			return out[:s.maxRows], nil
		}
		if len(items) < exportPageSize || len(out) >= total {
			return out, nil
		}
	}
}

func buildInquiryDataset(inquiries []models.Inquiry) export.Dataset {
	rows := make([]map[string]string, 0, len(inquiries))
	for i := range inquiries {
		inq := &inquiries[i]
		rows = append(rows, map[string]string{
			"Case ID":      inq.CaseID,
			"Inquiry Date": inq.InquiryDate.UTC().Format("2006-01-02"),
			"Student":      inq.StudentName,
			"Parent":       inq.ParentName,
			"Phone":        inq.Phone,
			"Email":        inq.Email,
			"Class":        inq.CurrentClass,
			"School":       inq.SchoolName(),
			"Board":        inq.Board,
			"Source":       string(inq.Source),
			"Status":       string(inq.Status),
			"Case Status":  string(inq.CaseStatus),
			"Priority":     string(inq.Priority),
			"Assigned To":  inq.AssignedTo,
			"Follow Up":    formatDate(inq.FollowUpDate),
			"Synced":       strconv.FormatBool(inq.IsSynced),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}
