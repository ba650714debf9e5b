package dto

import (
	"github.com/noah-isme/sma-admissions-api/internal/models"
)

// CreateInquiryRequest is the shared intake payload for every channel.
type CreateInquiryRequest struct {
	TenantID       string    `json:"tenantId"`
	StudentName    string    `json:"studentName" validate:"required,max=200"`
	ParentName     string    `json:"parentName" validate:"required,max=200"`
	Phone          string    `json:"phone" validate:"required,max=32"`
	SecondaryPhone string    `json:"secondaryPhone" validate:"omitempty,max=32"`
	Email          string    `json:"email" validate:"omitempty,email,max=254"`
	CurrentClass   string    `json:"currentClass" validate:"max=64"`
	CurrentSchool  string    `json:"currentSchool" validate:"max=200"`
	Board          string    `json:"board" validate:"max=64"`
	Occupation     string    `json:"occupation" validate:"max=128"`
	SurveyAnswers  []string  `json:"surveyAnswers" validate:"max=5,dive,max=2000"`
	Source         string    `json:"source"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	AssignedTo     string    `json:"assignedTo"`
	Notes          string    `json:"notes" validate:"max=4000"`
	HowHeard       string    `json:"howHeard" validate:"max=200"`
	InquiryDate    Date      `json:"inquiryDate" swaggertype:"string" example:"2024-01-05"`
}

// PublicSubmission drops the fields only staff may set on intake: tenant
// routing, triage and backdating. Anonymous web form posts go through it.
func (r CreateInquiryRequest) PublicSubmission() CreateInquiryRequest {
	r.TenantID = ""
	r.Status = ""
	r.Priority = ""
	r.AssignedTo = ""
	r.InquiryDate = Date{}
	return r
}

// CreateInquiryResponse is returned to intake callers.
type CreateInquiryResponse struct {
	CaseID string `json:"caseId"`
}

// UpdateCounselorFieldsRequest is a sparse patch; nil fields are left untouched.
type UpdateCounselorFieldsRequest struct {
	Status       *string `json:"status"`
	AssignedTo   *string `json:"assignedTo"`
	Unassign     bool    `json:"unassign"`
	FollowUpDate *string `json:"followUpDate"`
	Comment      *string `json:"comment"`
	Priority     *string `json:"priority"`
}

// Empty reports whether the patch carries no directive.
func (r UpdateCounselorFieldsRequest) Empty() bool {
	return r.Status == nil && r.AssignedTo == nil && !r.Unassign && r.FollowUpDate == nil && r.Comment == nil && r.Priority == nil
}

// WebhookInquiryRequest is the payload accepted from third-party form providers.
type WebhookInquiryRequest struct {
	StudentName   string   `json:"studentName"`
	ParentName    string   `json:"parentName"`
	Phone         string   `json:"phone"`
	Email         string   `json:"email"`
	CurrentClass  string   `json:"currentClass"`
	CurrentSchool string   `json:"currentSchool"`
	Board         string   `json:"board"`
	Source        string   `json:"source"`
	HowHeard      string   `json:"howHeard"`
	Message       string   `json:"message"`
	SurveyAnswers []string `json:"surveyAnswers"`
	TenantID      string   `json:"tenantId"`
}

// PaperFormOverrides are multipart fields a counselor may type in to correct
// or complete what OCR recognized. Non-empty values win over extraction.
type PaperFormOverrides struct {
	TenantID       string `form:"tenantId"`
	StudentName    string `form:"studentName"`
	ParentName     string `form:"parentName"`
	Phone          string `form:"phone"`
	SecondaryPhone string `form:"secondaryPhone"`
	Email          string `form:"email"`
	CurrentClass   string `form:"currentClass"`
	CurrentSchool  string `form:"currentSchool"`
	Board          string `form:"board"`
	Occupation     string `form:"occupation"`
	HowHeard       string `form:"howHeard"`
	Status         string `form:"status"`
	Priority       string `form:"priority"`
	AssignedTo     string `form:"assignedTo"`
	Notes          string `form:"notes"`
}

// PaperFormResult echoes what was recognized alongside the new case id.
type PaperFormResult struct {
	CaseID     string                 `json:"caseId"`
	Confidence float64                `json:"confidence"`
	Extracted  models.ExtractedFields `json:"extracted"`
}

// ImportReport summarises a legacy bulk import.
type ImportReport struct {
	Rows        int         `json:"rows"`
	Imported    int         `json:"imported"`
	Skipped     []SkipEntry `json:"skipped,omitempty"`
	FirstCaseID string      `json:"firstCaseId,omitempty"`
	LastCaseID  string      `json:"lastCaseId,omitempty"`
	DryRun      bool        `json:"dryRun"`
}

// SkipEntry explains why an import row was not written.
type SkipEntry struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// SyncStatusRequest toggles mirror delivery at runtime.
type SyncStatusRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// SyncStatusResponse reports the runtime toggle.
type SyncStatusResponse struct {
	Enabled bool   `json:"enabled"`
	Source  string `json:"source"`
}
