package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-admissions-api/internal/dto"
	"github.com/noah-isme/sma-admissions-api/internal/models"
	"github.com/noah-isme/sma-admissions-api/internal/normalizer"
	"github.com/noah-isme/sma-admissions-api/pkg/database"
	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
	"github.com/noah-isme/sma-admissions-api/pkg/export"
)

// ImportActor is recorded on entries written by the bulk import.
const ImportActor = "legacy-import"

// importAliases maps spreadsheet headers seen in legacy exports to columns.
var importAliases = map[string]string{
	"student name": "student_name", "student": "student_name", "name": "student_name",
	"child name": "student_name", "name of student": "student_name",
	"parent name": "parent_name", "parent": "parent_name", "father name": "parent_name",
	"mother name": "parent_name", "guardian": "parent_name", "guardian name": "parent_name",
	"phone": "phone", "mobile": "phone", "mobile no": "phone", "contact": "phone",
	"contact number": "phone", "phone number": "phone", "primary phone": "phone",
	"secondary phone": "secondary_phone", "alternate phone": "secondary_phone",
	"alt phone": "secondary_phone", "alternate number": "secondary_phone",
	"email": "email", "email id": "email", "mail": "email",
	"class": "current_class", "grade": "current_class", "current class": "current_class",
	"admission class": "current_class",
	"school": "current_school", "current school": "current_school", "previous school": "current_school",
	"board": "board",
	"occupation": "occupation", "parent occupation": "occupation",
	"source": "source", "lead source": "source", "channel": "source",
	"how heard": "how_heard", "how did you hear": "how_heard", "heard from": "how_heard", "reference": "how_heard",
	"status": "status", "stage": "status", "lead status": "status",
	"priority": "priority", "temperature": "priority",
	"assigned to": "assigned_to", "counselor": "assigned_to", "counsellor": "assigned_to", "owner": "assigned_to",
	"notes": "notes", "remarks": "notes", "comments": "notes",
	"date": "inquiry_date", "inquiry date": "inquiry_date", "enquiry date": "inquiry_date", "created at": "inquiry_date",
	"follow up date": "follow_up_date", "next follow up": "follow_up_date",
	"case id": "legacy_case_id", "legacy case id": "legacy_case_id", "enquiry id": "legacy_case_id", "inquiry id": "legacy_case_id", "id": "legacy_case_id",
	"tenant": "tenant_id", "tenant id": "tenant_id", "branch": "tenant_id", "campus": "tenant_id",
	"survey answer 1": "survey_answer_1", "survey answer 2": "survey_answer_2", "survey answer 3": "survey_answer_3",
	"survey answer 4": "survey_answer_4", "survey answer 5": "survey_answer_5",
}

var importDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02-01-2006",
	"2/1/2006",
	"02 Jan 2006",
}

type inquiryWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, inquiry *models.Inquiry) error
}

type activityAppender interface {
	Append(ctx context.Context, exec sqlx.ExtContext, entry *models.ActivityLogEntry) error
}

type caseMaxReader interface {
	CurrentMax(ctx context.Context, exec sqlx.ExtContext) (int64, error)
}

// ImportOptions controls one import run.
type ImportOptions struct {
	TenantID string
	DryRun   bool
}

type importRow struct {
	inquiry  *models.Inquiry
	legacyID string
}

// ImportService loads legacy spreadsheets. Identifiers are assigned locally
// from a single scan, so a run must not overlap live intake.
type ImportService struct {
	inquiries inquiryWriter
	activity  activityAppender
	allocator caseMaxReader
	tx        transactor
	schools   *normalizer.SchoolNames
	validator *Validator
	logger    *zap.Logger
	tenant    string
	now       func() time.Time
}

// NewImportService constructs the service.
func NewImportService(inquiries inquiryWriter, activity activityAppender, allocator caseMaxReader, tx transactor, schools *normalizer.SchoolNames, validator *Validator, logger *zap.Logger, defaultTenant string) *ImportService {
	if schools == nil {
		schools = normalizer.DefaultSchoolNames()
	}
	if validator == nil {
		validator = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTenant == "" {
		defaultTenant = "default"
	}
	return &ImportService{
		inquiries: inquiries,
		activity:  activity,
		allocator: allocator,
		tx:        tx,
		schools:   schools,
		validator: validator,
		logger:    logger,
		tenant:    defaultTenant,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Import parses r, skips invalid rows and writes the rest in one transaction.
func (s *ImportService) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*dto.ImportReport, error) {
	_, records, err := export.NewCSVReader(importAliases).Read(r)
	if err != nil {
		return nil, appErrors.Validation("unreadable import file", appErrors.FieldError{Field: "file", Message: err.Error()})
	}

	report := &dto.ImportReport{Rows: len(records), DryRun: opts.DryRun}
	tenant := strings.TrimSpace(opts.TenantID)
	if tenant == "" {
		tenant = s.tenant
	}

	var (
		rows      []importRow
		legacyMax int64
	)
	now := s.now()
	for _, rec := range records {
		row, reason := s.parseRow(rec, tenant, now)
		if reason != "" {
			report.Skipped = append(report.Skipped, dto.SkipEntry{Row: rec.Line, Reason: reason})
			continue
		}
		if n, ok := models.ParseCaseNumber(row.legacyID); ok && n > legacyMax {
			legacyMax = n
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return report, nil
	}

	if opts.DryRun {
		liveMax, err := s.allocator.CurrentMax(ctx, nil)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read current case id")
		}
		s.assign(rows, maxInt64(liveMax, legacyMax), report)
		report.Imported = len(rows)
		return report, nil
	}

	err = s.tx.InTx(ctx, func(exec sqlx.ExtContext) error {
		liveMax, err := s.allocator.CurrentMax(ctx, exec)
		if err != nil {
			return err
		}
		s.assign(rows, maxInt64(liveMax, legacyMax), report)
		for _, row := range rows {
			if err := s.inquiries.Create(ctx, exec, row.inquiry); err != nil {
				return err
			}
			entry := &models.ActivityLogEntry{
				CaseID:    row.inquiry.CaseID,
				Actor:     ImportActor,
				Action:    models.ActivityImported,
				NewValue:  string(row.inquiry.Status),
				CreatedAt: now,
			}
			if row.legacyID != "" {
				entry.Comment = "legacy id " + row.legacyID
			}
			if err := s.activity.Append(ctx, exec, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if database.IsUniqueViolation(err, database.CaseIDConstraint) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "import collided with a concurrent intake; rerun during a maintenance window")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import inquiries")
	}

	report.Imported = len(rows)
	s.logger.Info("legacy import committed",
		zap.Int("rows", report.Rows),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", len(report.Skipped)),
		zap.String("first_case_id", report.FirstCaseID),
		zap.String("last_case_id", report.LastCaseID))
	return report, nil
}

func (s *ImportService) assign(rows []importRow, max int64, report *dto.ImportReport) {
	for i := range rows {
		max++
		rows[i].inquiry.CaseID = models.FormatCaseID(max)
	}
	report.FirstCaseID = rows[0].inquiry.CaseID
	report.LastCaseID = rows[len(rows)-1].inquiry.CaseID
}

func (s *ImportService) parseRow(rec export.Record, tenant string, now time.Time) (importRow, string) {
	req := trimCreateRequest(dto.CreateInquiryRequest{
		StudentName:    rec.Get("student_name"),
		ParentName:     rec.Get("parent_name"),
		Phone:          rec.Get("phone"),
		SecondaryPhone: rec.Get("secondary_phone"),
		Email:          rec.Get("email"),
		CurrentClass:   rec.Get("current_class"),
		CurrentSchool:  rec.Get("current_school"),
		Board:          rec.Get("board"),
		Occupation:     rec.Get("occupation"),
		Source:         rec.Get("source"),
		Status:         rec.Get("status"),
		Priority:       rec.Get("priority"),
		AssignedTo:     rec.Get("assigned_to"),
		Notes:          rec.Get("notes"),
		HowHeard:       rec.Get("how_heard"),
	})
	for i := 1; i <= 5; i++ {
		if answer := rec.Get(fmt.Sprintf("survey_answer_%d", i)); answer != "" {
			for len(req.SurveyAnswers) < i-1 {
				req.SurveyAnswers = append(req.SurveyAnswers, "")
			}
			req.SurveyAnswers = append(req.SurveyAnswers, answer)
		}
	}
	if err := s.validator.Struct(req, "invalid row"); err != nil {
		return importRow{}, describeValidation(err)
	}

	if raw := rec.Get("inquiry_date"); raw != "" {
		parsed, ok := parseImportDate(raw)
		if !ok {
			return importRow{}, fmt.Sprintf("inquiry date %q not recognized", raw)
		}
		req.InquiryDate = dto.Date{Time: parsed}
	}

	rowTenant := rec.Get("tenant_id")
	if rowTenant == "" {
		rowTenant = tenant
	}
	inquiry := newInquiry(req, rowTenant, s.schools, now)

	if raw := rec.Get("follow_up_date"); raw != "" {
		parsed, ok := parseImportDate(raw)
		if !ok {
			return importRow{}, fmt.Sprintf("follow-up date %q not recognized", raw)
		}
		inquiry.FollowUpDate = &parsed
	}

	return importRow{inquiry: inquiry, legacyID: rec.Get("legacy_case_id")}, ""
}

func parseImportDate(raw string) (time.Time, bool) {
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func describeValidation(err error) string {
	appErr := appErrors.FromError(err)
	if len(appErr.Fields) == 0 {
		return appErr.Message
	}
	parts := make([]string, 0, len(appErr.Fields))
	for _, f := range appErr.Fields {
		parts = append(parts, f.Message)
	}
	return strings.Join(parts, "; ")
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
