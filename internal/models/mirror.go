package models

import "time"

const mirrorDateLayout = "2006-01-02"

// MirrorPayload is the snake_case snapshot posted to the spreadsheet mirror.
type MirrorPayload struct {
	CaseID         string `json:"case_id"`
	TenantID       string `json:"tenant_id"`
	StudentName    string `json:"student_name"`
	ParentName     string `json:"parent_name"`
	Phone          string `json:"phone"`
	SecondaryPhone string `json:"secondary_phone"`
	Email          string `json:"email"`
	CurrentClass   string `json:"current_class"`
	CurrentSchool  string `json:"current_school"`
	Board          string `json:"board"`
	Occupation     string `json:"occupation"`
	SurveyAnswer1  string `json:"survey_answer_1"`
	SurveyAnswer2  string `json:"survey_answer_2"`
	SurveyAnswer3  string `json:"survey_answer_3"`
	SurveyAnswer4  string `json:"survey_answer_4"`
	SurveyAnswer5  string `json:"survey_answer_5"`
	Source         string `json:"source"`
	Status         string `json:"status"`
	CaseStatus     string `json:"case_status"`
	AssignedTo     string `json:"assigned_to"`
	Priority       string `json:"priority"`
	FollowUpDate   string `json:"follow_up_date"`
	Notes          string `json:"notes"`
	HowHeard       string `json:"how_heard"`
	InquiryDate    string `json:"inquiry_date"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// NewMirrorPayload snapshots every field of the inquiry.
func NewMirrorPayload(inq *Inquiry) MirrorPayload {
	payload := MirrorPayload{
		CaseID:         inq.CaseID,
		TenantID:       inq.TenantID,
		StudentName:    inq.StudentName,
		ParentName:     inq.ParentName,
		Phone:          inq.Phone,
		SecondaryPhone: inq.SecondaryPhone,
		Email:          inq.Email,
		CurrentClass:   inq.CurrentClass,
		CurrentSchool:  inq.SchoolName(),
		Board:          inq.Board,
		Occupation:     inq.Occupation,
		SurveyAnswer1:  inq.SurveyAnswer1,
		SurveyAnswer2:  inq.SurveyAnswer2,
		SurveyAnswer3:  inq.SurveyAnswer3,
		SurveyAnswer4:  inq.SurveyAnswer4,
		SurveyAnswer5:  inq.SurveyAnswer5,
		Source:         string(inq.Source),
		Status:         string(inq.Status),
		CaseStatus:     string(inq.CaseStatus),
		AssignedTo:     inq.AssignedTo,
		Priority:       string(inq.Priority),
		Notes:          inq.Notes,
		HowHeard:       inq.HowHeard,
		InquiryDate:    formatMirrorTime(inq.InquiryDate),
		CreatedAt:      formatMirrorTime(inq.CreatedAt),
		UpdatedAt:      formatMirrorTime(inq.UpdatedAt),
	}
	if inq.FollowUpDate != nil {
		payload.FollowUpDate = inq.FollowUpDate.Format(mirrorDateLayout)
	}
	return payload
}

func formatMirrorTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
