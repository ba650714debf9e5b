package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-admissions-api/internal/models"
)

const inquiryColumns = `id, case_id, tenant_id, student_name, parent_name, phone, secondary_phone, email,
	current_class, current_school, board, occupation,
	survey_answer_1, survey_answer_2, survey_answer_3, survey_answer_4, survey_answer_5,
	source, status, case_status, assigned_to, priority, follow_up_date, notes, how_heard,
	is_synced_to_sheet, synced_at, sync_attempts, last_sync_error, inquiry_date, created_at, updated_at`

// InquiryRepository persists inquiry cases.
type InquiryRepository struct {
	db *sqlx.DB
}

// NewInquiryRepository constructs the repository.
func NewInquiryRepository(db *sqlx.DB) *InquiryRepository {
	return &InquiryRepository{db: db}
}

func (r *InquiryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// MaxCaseNumber returns the largest n over every well-formed S-<n> ever
// issued. The activity log is included so numbers of deleted cases stay
// reserved.
func (r *InquiryRepository) MaxCaseNumber(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	const query = `SELECT COALESCE(MAX(n), 0) FROM (
		SELECT CAST(SUBSTRING(case_id FROM 3) AS BIGINT) AS n FROM inquiries WHERE case_id ~ $1
		UNION ALL
		SELECT CAST(SUBSTRING(case_id FROM 3) AS BIGINT) AS n FROM inquiry_activity_logs WHERE case_id ~ $1
	) issued`
	var max int64
	if err := sqlx.GetContext(ctx, r.exec(exec), &max, query, models.CaseIDPattern); err != nil {
		return 0, fmt.Errorf("scan max case id: %w", err)
	}
	return max, nil
}

// Create inserts a new inquiry. The case id must already be allocated.
func (r *InquiryRepository) Create(ctx context.Context, exec sqlx.ExtContext, inquiry *models.Inquiry) error {
	if inquiry == nil {
		return fmt.Errorf("inquiry payload is nil")
	}
	if inquiry.CaseID == "" {
		return fmt.Errorf("case_id is required")
	}
	if inquiry.ID == "" {
		inquiry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if inquiry.CreatedAt.IsZero() {
		inquiry.CreatedAt = now
	}
	if inquiry.InquiryDate.IsZero() {
		inquiry.InquiryDate = inquiry.CreatedAt
	}
	inquiry.UpdatedAt = now

	const query = `INSERT INTO inquiries (` + inquiryColumns + `)
	VALUES (:id, :case_id, :tenant_id, :student_name, :parent_name, :phone, :secondary_phone, :email,
		:current_class, :current_school, :board, :occupation,
		:survey_answer_1, :survey_answer_2, :survey_answer_3, :survey_answer_4, :survey_answer_5,
		:source, :status, :case_status, :assigned_to, :priority, :follow_up_date, :notes, :how_heard,
		:is_synced_to_sheet, :synced_at, :sync_attempts, :last_sync_error, :inquiry_date, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, inquiry); err != nil {
		return fmt.Errorf("create inquiry: %w", err)
	}
	return nil
}

// FindByCaseID loads one inquiry; a missing case wraps sql.ErrNoRows.
func (r *InquiryRepository) FindByCaseID(ctx context.Context, caseID string) (*models.Inquiry, error) {
	query := `SELECT ` + inquiryColumns + ` FROM inquiries WHERE case_id = $1`
	var inquiry models.Inquiry
	if err := r.db.GetContext(ctx, &inquiry, query, caseID); err != nil {
		return nil, fmt.Errorf("get inquiry: %w", err)
	}
	return &inquiry, nil
}

// FindForUpdate locks the row for the rest of the transaction.
func (r *InquiryRepository) FindForUpdate(ctx context.Context, exec sqlx.ExtContext, caseID string) (*models.Inquiry, error) {
	query := `SELECT ` + inquiryColumns + ` FROM inquiries WHERE case_id = $1 FOR UPDATE`
	var inquiry models.Inquiry
	if err := sqlx.GetContext(ctx, r.exec(exec), &inquiry, query, caseID); err != nil {
		return nil, fmt.Errorf("lock inquiry: %w", err)
	}
	return &inquiry, nil
}

var updatableColumns = map[string]struct{}{
	"status":         {},
	"case_status":    {},
	"assigned_to":    {},
	"priority":       {},
	"follow_up_date": {},
	"notes":          {},
}

// UpdateFields writes only the given counselor-owned columns.
func (r *InquiryRepository) UpdateFields(ctx context.Context, exec sqlx.ExtContext, caseID string, fields map[string]interface{}, updatedAt time.Time) error {
	if len(fields) == 0 {
		return nil
	}
	columns := make([]string, 0, len(fields))
	for column := range fields {
		if _, ok := updatableColumns[column]; !ok {
			return fmt.Errorf("column %q is not updatable", column)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	args := make([]interface{}, 0, len(columns)+2)
	sets := make([]string, 0, len(columns)+1)
	for _, column := range columns {
		args = append(args, fields[column])
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	args = append(args, updatedAt)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, caseID)

	query := fmt.Sprintf("UPDATE inquiries SET %s WHERE case_id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := r.exec(exec).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update inquiry: %w", err)
	}
	return nil
}

// MarkSynced flips the confirmation flag. It only ever moves false to true and
// reports whether this call performed the flip.
func (r *InquiryRepository) MarkSynced(ctx context.Context, caseID string, at time.Time) (bool, error) {
	const query = `UPDATE inquiries SET is_synced_to_sheet = TRUE, synced_at = $2, last_sync_error = ''
	WHERE case_id = $1 AND is_synced_to_sheet = FALSE`
	res, err := r.db.ExecContext(ctx, query, caseID, at)
	if err != nil {
		return false, fmt.Errorf("mark inquiry synced: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark inquiry synced rows: %w", err)
	}
	return affected > 0, nil
}

const maxSyncErrorBytes = 500

// truncateUTF8 cuts s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// RecordSyncFailure keeps failure bookkeeping; the flag is left untouched.
func (r *InquiryRepository) RecordSyncFailure(ctx context.Context, caseID, reason string) error {
	const query = `UPDATE inquiries SET sync_attempts = sync_attempts + 1, last_sync_error = $2 WHERE case_id = $1`
	if _, err := r.db.ExecContext(ctx, query, caseID, truncateUTF8(reason, maxSyncErrorBytes)); err != nil {
		return fmt.Errorf("record sync failure: %w", err)
	}
	return nil
}

// ListUnsynced returns the oldest unconfirmed inquiries.
func (r *InquiryRepository) ListUnsynced(ctx context.Context, limit int) ([]models.Inquiry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + inquiryColumns + ` FROM inquiries WHERE is_synced_to_sheet = FALSE
	ORDER BY created_at ASC, id ASC LIMIT $1`
	var inquiries []models.Inquiry
	if err := r.db.SelectContext(ctx, &inquiries, query, limit); err != nil {
		return nil, fmt.Errorf("list unsynced inquiries: %w", err)
	}
	return inquiries, nil
}

// List returns a page of inquiries matching the filter, newest first, and the total count.
func (r *InquiryRepository) List(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, int, error) {
	conditions := make([]string, 0, 6)
	args := make([]interface{}, 0, 8)

	if filter.TenantID != "" {
		args = append(args, filter.TenantID)
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(args)))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if filter.Synced != nil {
		args = append(args, *filter.Synced)
		conditions = append(conditions, fmt.Sprintf("is_synced_to_sheet = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		idx := len(args)
		conditions = append(conditions, fmt.Sprintf("(LOWER(student_name) LIKE $%d OR LOWER(parent_name) LIKE $%d OR phone LIKE $%d OR case_id ILIKE $%d)", idx, idx, idx, idx))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM inquiries"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count inquiries: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 20
	}
	query := fmt.Sprintf("SELECT %s FROM inquiries%s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		inquiryColumns, where, size, (page-1)*size)

	var inquiries []models.Inquiry
	if err := r.db.SelectContext(ctx, &inquiries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list inquiries: %w", err)
	}
	return inquiries, total, nil
}
