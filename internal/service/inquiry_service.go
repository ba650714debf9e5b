package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-admissions-api/internal/dto"
	"github.com/noah-isme/sma-admissions-api/internal/models"
	"github.com/noah-isme/sma-admissions-api/internal/normalizer"
	"github.com/noah-isme/sma-admissions-api/pkg/database"
	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
)

const (
	followUpLayout           = "2006-01-02"
	defaultAllocationAttempt = 5
)

type inquiryRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, inquiry *models.Inquiry) error
	FindByCaseID(ctx context.Context, caseID string) (*models.Inquiry, error)
	FindForUpdate(ctx context.Context, exec sqlx.ExtContext, caseID string) (*models.Inquiry, error)
	UpdateFields(ctx context.Context, exec sqlx.ExtContext, caseID string, fields map[string]interface{}, updatedAt time.Time) error
	List(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, int, error)
}

type activityRepository interface {
	Append(ctx context.Context, exec sqlx.ExtContext, entry *models.ActivityLogEntry) error
	ListByCase(ctx context.Context, caseID string) ([]models.ActivityLogEntry, error)
}

type caseIDAllocator interface {
	Next(ctx context.Context, exec sqlx.ExtContext) (string, error)
}

type transactor interface {
	InTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
}

type syncDispatcher interface {
	Dispatch(ctx context.Context, inquiry *models.Inquiry)
}

// Actor identifies who triggered a write and the tenant they act for.
type Actor struct {
	ID       string
	TenantID string
}

// ActorFromClaims derives the actor for an authenticated caller, or fallback for anonymous channels.
func ActorFromClaims(claims *models.JWTClaims, fallback string) Actor {
	if claims == nil {
		return Actor{ID: fallback}
	}
	id := claims.Actor()
	if id == "" {
		id = fallback
	}
	return Actor{ID: id, TenantID: claims.TenantID}
}

// InquiryServiceConfig tunes the write path.
type InquiryServiceConfig struct {
	DefaultTenant      string
	AllocationAttempts int
}

// InquiryService owns the authoritative create and counselor update paths.
type InquiryService struct {
	inquiries  inquiryRepository
	activity   activityRepository
	allocator  caseIDAllocator
	tx         transactor
	dispatcher syncDispatcher
	schools    *normalizer.SchoolNames
	validator  *Validator
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        InquiryServiceConfig
	now        func() time.Time
}

// NewInquiryService constructs the service.
func NewInquiryService(
	inquiries inquiryRepository,
	activity activityRepository,
	allocator caseIDAllocator,
	tx transactor,
	dispatcher syncDispatcher,
	schools *normalizer.SchoolNames,
	validator *Validator,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg InquiryServiceConfig,
) *InquiryService {
	if validator == nil {
		validator = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if schools == nil {
		schools = normalizer.DefaultSchoolNames()
	}
	if cfg.AllocationAttempts <= 0 {
		cfg.AllocationAttempts = defaultAllocationAttempt
	}
	if cfg.DefaultTenant == "" {
		cfg.DefaultTenant = "default"
	}
	return &InquiryService{
		inquiries:  inquiries,
		activity:   activity,
		allocator:  allocator,
		tx:         tx,
		dispatcher: dispatcher,
		schools:    schools,
		validator:  validator,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create validates, normalizes and durably records a new inquiry together
// with its "created" activity entry, then hands it to the sync dispatcher.
func (s *InquiryService) Create(ctx context.Context, req dto.CreateInquiryRequest, actor Actor) (*models.Inquiry, error) {
	req = trimCreateRequest(req)
	if err := s.validator.Struct(req, "invalid inquiry payload"); err != nil {
		return nil, err
	}

	inquiry := s.buildInquiry(req, actor)

	for attempt := 1; attempt <= s.cfg.AllocationAttempts; attempt++ {
		err := s.tx.InTx(ctx, func(exec sqlx.ExtContext) error {
			caseID, err := s.allocator.Next(ctx, exec)
			if err != nil {
				return err
			}
			inquiry.CaseID = caseID
			if err := s.inquiries.Create(ctx, exec, inquiry); err != nil {
				return err
			}
			return s.activity.Append(ctx, exec, &models.ActivityLogEntry{
				CaseID:    caseID,
				Actor:     actor.ID,
				Action:    models.ActivityCreated,
				NewValue:  string(inquiry.Status),
				CreatedAt: inquiry.CreatedAt,
			})
		})
		if err == nil {
			s.logger.Info("inquiry created",
				zap.String("case_id", inquiry.CaseID),
				zap.String("tenant_id", inquiry.TenantID),
				zap.String("source", string(inquiry.Source)),
				zap.Int("attempt", attempt))
			s.metrics.InquiryCreated(string(inquiry.Source))
			s.dispatch(ctx, inquiry)
			return inquiry, nil
		}
		if !database.IsUniqueViolation(err, database.CaseIDConstraint) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record inquiry")
		}
		s.metrics.AllocationConflict()
		s.logger.Debug("case id collision, reallocating",
			zap.String("case_id", inquiry.CaseID),
			zap.Int("attempt", attempt))
		inquiry.CaseID = ""
	}

	s.metrics.AllocationExhausted()
	s.logger.Warn("case id allocation exhausted", zap.Int("attempts", s.cfg.AllocationAttempts))
	return nil, appErrors.ErrIdentifierExhausted
}

func (s *InquiryService) buildInquiry(req dto.CreateInquiryRequest, actor Actor) *models.Inquiry {
	return newInquiry(req, s.resolveTenant(req.TenantID, actor), s.schools, s.now())
}

// newInquiry applies the vocabulary normalizers to a trimmed request.
func newInquiry(req dto.CreateInquiryRequest, tenantID string, schools *normalizer.SchoolNames, now time.Time) *models.Inquiry {
	status := normalizer.Status(req.Status)
	inquiry := &models.Inquiry{
		TenantID:       tenantID,
		StudentName:    req.StudentName,
		ParentName:     req.ParentName,
		Phone:          req.Phone,
		SecondaryPhone: req.SecondaryPhone,
		Email:          req.Email,
		CurrentClass:   req.CurrentClass,
		Board:          req.Board,
		Occupation:     req.Occupation,
		Source:         normalizer.SourceValue(req.Source, req.HowHeard),
		Status:         status,
		CaseStatus:     normalizer.CaseStatus(status),
		AssignedTo:     req.AssignedTo,
		Priority:       normalizer.Priority(req.Priority),
		Notes:          req.Notes,
		HowHeard:       req.HowHeard,
		InquiryDate:    req.InquiryDate.Time,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if inquiry.InquiryDate.IsZero() {
		inquiry.InquiryDate = now
	}
	if school, ok := schools.Normalize(req.CurrentSchool); ok {
		inquiry.CurrentSchool = &school
	}
	inquiry.SetSurveyAnswers(req.SurveyAnswers)
	return inquiry
}

func (s *InquiryService) resolveTenant(requested string, actor Actor) string {
	if requested != "" {
		return requested
	}
	if actor.TenantID != "" {
		return actor.TenantID
	}
	return s.cfg.DefaultTenant
}

// UpdateCounselorFields applies a sparse patch under a row lock and writes
// one activity entry per mutated field.
func (s *InquiryService) UpdateCounselorFields(ctx context.Context, caseID string, req dto.UpdateCounselorFieldsRequest, actor Actor) (*models.Inquiry, error) {
	caseID = strings.TrimSpace(caseID)
	if _, ok := models.ParseCaseNumber(caseID); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
	}
	if req.Unassign && req.AssignedTo != nil && strings.TrimSpace(*req.AssignedTo) != "" {
		return nil, appErrors.Validation("invalid update payload", appErrors.FieldError{Field: "unassign", Message: "unassign cannot be combined with assignedTo"})
	}
	var followUp *time.Time
	if req.FollowUpDate != nil && strings.TrimSpace(*req.FollowUpDate) != "" {
		parsed, err := time.Parse(followUpLayout, strings.TrimSpace(*req.FollowUpDate))
		if err != nil {
			return nil, appErrors.Validation("invalid update payload", appErrors.FieldError{Field: "followUpDate", Message: "followUpDate must be YYYY-MM-DD"})
		}
		followUp = &parsed
	}

	if req.Empty() {
		return s.Get(ctx, caseID)
	}

	var (
		updated *models.Inquiry
		changed bool
	)
	err := s.tx.InTx(ctx, func(exec sqlx.ExtContext) error {
		current, err := s.inquiries.FindForUpdate(ctx, exec, caseID)
		if err != nil {
			return err
		}
		now := s.now()
		fields, entries := s.diff(current, req, followUp, actor, now)
		if len(fields) == 0 {
			updated = current
			return nil
		}
		if err := s.inquiries.UpdateFields(ctx, exec, caseID, fields, now); err != nil {
			return err
		}
		for i := range entries {
			if err := s.activity.Append(ctx, exec, &entries[i]); err != nil {
				return err
			}
		}
		current.UpdatedAt = now
		updated = current
		changed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update inquiry")
	}

	if changed {
		s.dispatch(ctx, updated)
	}
	return updated, nil
}

// diff mutates current in place and returns the changed columns plus the
// activity entries describing them.
func (s *InquiryService) diff(current *models.Inquiry, req dto.UpdateCounselorFieldsRequest, followUp *time.Time, actor Actor, now time.Time) (map[string]interface{}, []models.ActivityLogEntry) {
	fields := map[string]interface{}{}
	var entries []models.ActivityLogEntry
	entry := func(action models.ActivityAction, prev, next, comment string) {
		entries = append(entries, models.ActivityLogEntry{
			CaseID:        current.CaseID,
			Actor:         actor.ID,
			Action:        action,
			PreviousValue: prev,
			NewValue:      next,
			Comment:       comment,
			CreatedAt:     now,
		})
	}

	if req.Status != nil {
		next := normalizer.Status(*req.Status)
		if next != current.Status {
			entry(models.ActivityStatusChanged, string(current.Status), string(next), "")
			current.Status = next
			current.CaseStatus = normalizer.CaseStatus(next)
			fields["status"] = current.Status
			fields["case_status"] = current.CaseStatus
		}
	}

	assign := ""
	touchAssignment := req.Unassign
	if req.AssignedTo != nil {
		assign = strings.TrimSpace(*req.AssignedTo)
		touchAssignment = true
	}
	if touchAssignment && assign != current.AssignedTo {
		if assign == "" {
			entry(models.ActivityUnassigned, current.AssignedTo, "", "")
		} else {
			entry(models.ActivityAssigned, current.AssignedTo, assign, "")
		}
		current.AssignedTo = assign
		fields["assigned_to"] = assign
	}

	if req.FollowUpDate != nil && !sameDate(current.FollowUpDate, followUp) {
		entry(models.ActivityFollowUpScheduled, formatDate(current.FollowUpDate), formatDate(followUp), "")
		current.FollowUpDate = followUp
		fields["follow_up_date"] = followUp
	}

	if req.Priority != nil {
		next := normalizer.Priority(*req.Priority)
		if next != current.Priority {
			entry(models.ActivityPriorityChanged, string(current.Priority), string(next), "")
			current.Priority = next
			fields["priority"] = next
		}
	}

	if req.Comment != nil {
		if text := strings.TrimSpace(*req.Comment); text != "" {
			entry(models.ActivityCommentAdded, "", "", text)
			current.Notes = appendNote(current.Notes, now, actor.ID, text)
			fields["notes"] = current.Notes
		}
	}

	return fields, entries
}

// Get loads one inquiry by case id.
func (s *InquiryService) Get(ctx context.Context, caseID string) (*models.Inquiry, error) {
	inquiry, err := s.inquiries.FindByCaseID(ctx, strings.TrimSpace(caseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inquiry")
	}
	return inquiry, nil
}

// List returns a filtered page of inquiries.
func (s *InquiryService) List(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 200 {
		filter.PageSize = 20
	}
	items, total, err := s.inquiries.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list inquiries")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Activity returns the case's trail in append order.
func (s *InquiryService) Activity(ctx context.Context, caseID string) ([]models.ActivityLogEntry, error) {
	if _, err := s.Get(ctx, caseID); err != nil {
		return nil, err
	}
	entries, err := s.activity.ListByCase(ctx, strings.TrimSpace(caseID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return entries, nil
}

func (s *InquiryService) dispatch(ctx context.Context, inquiry *models.Inquiry) {
	if s.dispatcher == nil {
		return
	}
	snapshot := *inquiry
	s.dispatcher.Dispatch(ctx, &snapshot)
}

func trimCreateRequest(req dto.CreateInquiryRequest) dto.CreateInquiryRequest {
	for _, field := range []*string{
		&req.TenantID, &req.StudentName, &req.ParentName, &req.Phone, &req.SecondaryPhone, &req.Email,
		&req.CurrentClass, &req.CurrentSchool, &req.Board, &req.Occupation, &req.Source, &req.Status,
		&req.Priority, &req.AssignedTo, &req.Notes, &req.HowHeard,
	} {
		*field = strings.TrimSpace(*field)
	}
	if len(req.SurveyAnswers) > 0 {
		answers := make([]string, len(req.SurveyAnswers))
		for i, a := range req.SurveyAnswers {
			answers[i] = strings.TrimSpace(a)
		}
		req.SurveyAnswers = answers
	}
	return req
}

func appendNote(notes string, at time.Time, actor, text string) string {
	line := "[" + at.Format(followUpLayout) + " " + actor + "] " + text
	if strings.TrimSpace(notes) == "" {
		return line
	}
	return notes + "\n" + line
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Format(followUpLayout) == b.Format(followUpLayout)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(followUpLayout)
}
