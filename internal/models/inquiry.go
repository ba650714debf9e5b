package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// InquiryStatus is the canonical workflow status of a case.
type InquiryStatus string

const (
	InquiryStatusNew       InquiryStatus = "New"
	InquiryStatusOpen      InquiryStatus = "Open"
	InquiryStatusFollowUp  InquiryStatus = "FollowUp"
	InquiryStatusConverted InquiryStatus = "Converted"
	InquiryStatusClosed    InquiryStatus = "Closed"
)

// InquiryStatuses lists every canonical status in display order.
var InquiryStatuses = []InquiryStatus{
	InquiryStatusNew,
	InquiryStatusOpen,
	InquiryStatusFollowUp,
	InquiryStatusConverted,
	InquiryStatusClosed,
}

// Valid reports whether the status belongs to the closed vocabulary.
func (s InquiryStatus) Valid() bool {
	for _, known := range InquiryStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CaseStatus is derived from InquiryStatus.
type CaseStatus string

const (
	CaseStatusActive            CaseStatus = "Active"
	CaseStatusResolvedCompleted CaseStatus = "ResolvedCompleted"
)

// InquirySource identifies the intake channel.
type InquirySource string

const (
	InquirySourceWebsite   InquirySource = "Website"
	InquirySourceWhatsApp  InquirySource = "WhatsApp"
	InquirySourcePaperForm InquirySource = "PaperForm"
	InquirySourcePhoneCall InquirySource = "PhoneCall"
	InquirySourceReferral  InquirySource = "Referral"
	InquirySourceOther     InquirySource = "Other"
)

// InquirySources lists every canonical source.
var InquirySources = []InquirySource{
	InquirySourceWebsite,
	InquirySourceWhatsApp,
	InquirySourcePaperForm,
	InquirySourcePhoneCall,
	InquirySourceReferral,
	InquirySourceOther,
}

// InquiryPriority orders the counselor work queue.
type InquiryPriority string

const (
	InquiryPriorityLow    InquiryPriority = "Low"
	InquiryPriorityMedium InquiryPriority = "Medium"
	InquiryPriorityHigh   InquiryPriority = "High"
)

// Inquiry is one applicant case.
type Inquiry struct {
	ID             string          `db:"id" json:"id"`
	CaseID         string          `db:"case_id" json:"caseId"`
	TenantID       string          `db:"tenant_id" json:"tenantId"`
	StudentName    string          `db:"student_name" json:"studentName"`
	ParentName     string          `db:"parent_name" json:"parentName"`
	Phone          string          `db:"phone" json:"phone"`
	SecondaryPhone string          `db:"secondary_phone" json:"secondaryPhone,omitempty"`
	Email          string          `db:"email" json:"email,omitempty"`
	CurrentClass   string          `db:"current_class" json:"currentClass,omitempty"`
	CurrentSchool  *string         `db:"current_school" json:"currentSchool,omitempty"`
	Board          string          `db:"board" json:"board,omitempty"`
	Occupation     string          `db:"occupation" json:"occupation,omitempty"`
	SurveyAnswer1  string          `db:"survey_answer_1" json:"surveyAnswer1,omitempty"`
	SurveyAnswer2  string          `db:"survey_answer_2" json:"surveyAnswer2,omitempty"`
	SurveyAnswer3  string          `db:"survey_answer_3" json:"surveyAnswer3,omitempty"`
	SurveyAnswer4  string          `db:"survey_answer_4" json:"surveyAnswer4,omitempty"`
	SurveyAnswer5  string          `db:"survey_answer_5" json:"surveyAnswer5,omitempty"`
	Source         InquirySource   `db:"source" json:"source"`
	Status         InquiryStatus   `db:"status" json:"status"`
	CaseStatus     CaseStatus      `db:"case_status" json:"caseStatus"`
	AssignedTo     string          `db:"assigned_to" json:"assignedTo,omitempty"`
	Priority       InquiryPriority `db:"priority" json:"priority"`
	FollowUpDate   *time.Time      `db:"follow_up_date" json:"followUpDate,omitempty"`
	Notes          string          `db:"notes" json:"notes,omitempty"`
	HowHeard       string          `db:"how_heard" json:"howHeard,omitempty"`
	IsSynced       bool            `db:"is_synced_to_sheet" json:"isSyncedToSheet"`
	SyncedAt       *time.Time      `db:"synced_at" json:"syncedAt,omitempty"`
	SyncAttempts   int             `db:"sync_attempts" json:"syncAttempts"`
	LastSyncError  string          `db:"last_sync_error" json:"lastSyncError,omitempty"`
	InquiryDate    time.Time       `db:"inquiry_date" json:"inquiryDate"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}

// SurveyAnswers returns the five survey answers in order.
func (i *Inquiry) SurveyAnswers() [5]string {
	return [5]string{i.SurveyAnswer1, i.SurveyAnswer2, i.SurveyAnswer3, i.SurveyAnswer4, i.SurveyAnswer5}
}

// SetSurveyAnswers assigns up to five answers in order.
func (i *Inquiry) SetSurveyAnswers(answers []string) {
	slots := []*string{&i.SurveyAnswer1, &i.SurveyAnswer2, &i.SurveyAnswer3, &i.SurveyAnswer4, &i.SurveyAnswer5}
	for idx, slot := range slots {
		if idx < len(answers) {
			*slot = answers[idx]
		} else {
			*slot = ""
		}
	}
}

// SchoolName returns the current school or an empty string.
func (i *Inquiry) SchoolName() string {
	if i.CurrentSchool == nil {
		return ""
	}
	return *i.CurrentSchool
}

// InquiryFilter drives list queries.
type InquiryFilter struct {
	TenantID   string
	Status     []InquiryStatus
	Source     string
	AssignedTo string
	Synced     *bool
	Search     string
	Page       int
	PageSize   int
}

// Pagination describes a page of results.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// SweepResult reports one retry sweep.
type SweepResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
}

// Failed returns attempts that did not confirm.
func (r SweepResult) Failed() int {
	return r.Attempted - r.Succeeded
}

// ExtractedFields is the best-effort result of parsing recognized form text.
type ExtractedFields struct {
	StudentName    string `json:"studentName,omitempty"`
	ParentName     string `json:"parentName,omitempty"`
	Phone          string `json:"phone,omitempty"`
	SecondaryPhone string `json:"secondaryPhone,omitempty"`
	Email          string `json:"email,omitempty"`
	CurrentClass   string `json:"currentClass,omitempty"`
	CurrentSchool  string `json:"currentSchool,omitempty"`
	Board          string `json:"board,omitempty"`
	Occupation     string `json:"occupation,omitempty"`
	HowHeard       string `json:"howHeard,omitempty"`
}

const caseIDPrefix = "S-"

// CaseIDPattern is the POSIX form of the case id shape, usable in SQL. The
// digit count is bounded so every well-formed number, plus one, fits a BIGINT.
const CaseIDPattern = `^S-[0-9]{1,18}$`

var caseIDPattern = regexp.MustCompile(CaseIDPattern)

// ParseCaseNumber extracts n from a well-formed S-<n> identifier.
func ParseCaseNumber(caseID string) (int64, bool) {
	caseID = strings.TrimSpace(caseID)
	if !caseIDPattern.MatchString(caseID) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(caseID, caseIDPrefix), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// FormatCaseID renders the identifier for sequence number n.
func FormatCaseID(n int64) string {
	return fmt.Sprintf("%s%d", caseIDPrefix, n)
}
