package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CaseIDConstraint is the storage-level uniqueness guard for allocated case ids.
const CaseIDConstraint = "inquiries_case_id_key"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS inquiries (
	id UUID PRIMARY KEY,
	case_id TEXT NOT NULL,
	tenant_id TEXT NOT NULL CHECK (tenant_id <> ''),
	student_name TEXT NOT NULL,
	parent_name TEXT NOT NULL,
	phone TEXT NOT NULL,
	secondary_phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	current_class TEXT NOT NULL DEFAULT '',
	current_school TEXT,
	board TEXT NOT NULL DEFAULT '',
	occupation TEXT NOT NULL DEFAULT '',
	survey_answer_1 TEXT NOT NULL DEFAULT '',
	survey_answer_2 TEXT NOT NULL DEFAULT '',
	survey_answer_3 TEXT NOT NULL DEFAULT '',
	survey_answer_4 TEXT NOT NULL DEFAULT '',
	survey_answer_5 TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	status TEXT NOT NULL,
	case_status TEXT NOT NULL,
	assigned_to TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT 'Medium',
	follow_up_date DATE,
	notes TEXT NOT NULL DEFAULT '',
	how_heard TEXT NOT NULL DEFAULT '',
	is_synced_to_sheet BOOLEAN NOT NULL DEFAULT FALSE,
	synced_at TIMESTAMPTZ,
	sync_attempts INTEGER NOT NULL DEFAULT 0,
	last_sync_error TEXT NOT NULL DEFAULT '',
	inquiry_date TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT ` + CaseIDConstraint + ` UNIQUE (case_id),
	CONSTRAINT inquiries_case_status_consistent CHECK (
		(status IN ('Converted', 'Closed')) = (case_status = 'ResolvedCompleted')
	)
)`,
	`CREATE INDEX IF NOT EXISTS inquiries_unsynced_idx ON inquiries (created_at, id) WHERE is_synced_to_sheet = FALSE`,
	`CREATE INDEX IF NOT EXISTS inquiries_tenant_status_idx ON inquiries (tenant_id, status)`,
	`CREATE TABLE IF NOT EXISTS inquiry_activity_logs (
	id UUID PRIMARY KEY,
	seq BIGSERIAL NOT NULL,
	case_id TEXT NOT NULL,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	previous_value TEXT NOT NULL DEFAULT '',
	new_value TEXT NOT NULL DEFAULT '',
	comment TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS inquiry_activity_logs_case_idx ON inquiry_activity_logs (case_id, seq)`,
}

// Migrate applies the idempotent schema for inquiries and their activity trail.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migrate tx: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrate tx: %w", err)
	}
	return nil
}
