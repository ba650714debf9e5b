package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-admissions-api/internal/models"
)

// ActivityRepository appends to the per-case audit trail. Entries are never
// updated or deleted.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Append inserts one entry.
func (r *ActivityRepository) Append(ctx context.Context, exec sqlx.ExtContext, entry *models.ActivityLogEntry) error {
	if entry == nil {
		return fmt.Errorf("activity entry is nil")
	}
	if entry.CaseID == "" || entry.Action == "" {
		return fmt.Errorf("case_id and action are required")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO inquiry_activity_logs (id, case_id, actor, action, previous_value, new_value, comment, created_at)
	VALUES (:id, :case_id, :actor, :action, :previous_value, :new_value, :comment, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, entry); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// ListByCase returns entries in append order.
func (r *ActivityRepository) ListByCase(ctx context.Context, caseID string) ([]models.ActivityLogEntry, error) {
	const query = `SELECT id, seq, case_id, actor, action, previous_value, new_value, comment, created_at
	FROM inquiry_activity_logs WHERE case_id = $1 ORDER BY seq ASC`
	var entries []models.ActivityLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, caseID); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}
