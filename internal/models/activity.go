package models

import "time"

// ActivityAction labels an entry in a case's audit trail.
type ActivityAction string

const (
	ActivityCreated           ActivityAction = "created"
	ActivityImported          ActivityAction = "imported"
	ActivityStatusChanged     ActivityAction = "status_changed"
	ActivityAssigned          ActivityAction = "assigned"
	ActivityUnassigned        ActivityAction = "unassigned"
	ActivityCommentAdded      ActivityAction = "comment_added"
	ActivityFollowUpScheduled ActivityAction = "follow_up_scheduled"
	ActivityPriorityChanged   ActivityAction = "priority_changed"
)

// ActivityLogEntry is an immutable record of one state transition.
type ActivityLogEntry struct {
	ID            string         `db:"id" json:"id"`
	Seq           int64          `db:"seq" json:"seq"`
	CaseID        string         `db:"case_id" json:"caseId"`
	Actor         string         `db:"actor" json:"actor"`
	Action        ActivityAction `db:"action" json:"action"`
	PreviousValue string         `db:"previous_value" json:"previousValue,omitempty"`
	NewValue      string         `db:"new_value" json:"newValue,omitempty"`
	Comment       string         `db:"comment" json:"comment,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
}
