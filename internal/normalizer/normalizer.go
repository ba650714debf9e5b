// Package normalizer maps free-form intake vocabulary onto the canonical
// inquiry enums. Every function is pure and total.
package normalizer

import (
	"regexp"
	"strings"

	"github.com/noah-isme/sma-admissions-api/internal/models"
)

type statusRule struct {
	status   models.InquiryStatus
	keywords []string
}

type sourceRule struct {
	source   models.InquirySource
	keywords []string
}

// Rules are evaluated in order; earlier groups win when several keywords match.
var statusRules = []statusRule{
	{models.InquiryStatusConverted, []string{"admission", "admitted", "converted", "joined", "enrolled"}},
	{models.InquiryStatusClosed, []string{"not interested", "drop", "close", "cancel", "lost"}},
	{models.InquiryStatusFollowUp, []string{"follow", "call", "visit", "callback"}},
	{models.InquiryStatusOpen, []string{"enquiry", "inquiry", "interested", "open"}},
}

var canonicalStatuses = map[string]models.InquiryStatus{
	"new":       models.InquiryStatusNew,
	"open":      models.InquiryStatusOpen,
	"followup":  models.InquiryStatusFollowUp,
	"follow up": models.InquiryStatusFollowUp,
	"converted": models.InquiryStatusConverted,
	"closed":    models.InquiryStatusClosed,
}

var sourceRules = []sourceRule{
	{models.InquirySourcePhoneCall, []string{"walk", "phone call", "phonecall"}},
	{models.InquirySourceWebsite, []string{"website", "web", "google", "online"}},
	{models.InquirySourceWhatsApp, []string{"whatsapp", "whats app"}},
	{models.InquirySourceReferral, []string{"referral", "refer", "friend"}},
	{models.InquirySourcePaperForm, []string{"paper", "form"}},
}

var priorities = map[string]models.InquiryPriority{
	"low":    models.InquiryPriorityLow,
	"medium": models.InquiryPriorityMedium,
	"high":   models.InquiryPriorityHigh,
	"cold":   models.InquiryPriorityLow,
	"warm":   models.InquiryPriorityMedium,
	"normal": models.InquiryPriorityMedium,
	"hot":    models.InquiryPriorityHigh,
	"urgent": models.InquiryPriorityHigh,
}

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	multiSpace = regexp.MustCompile(`\s+`)
)

// fold lowercases, replaces punctuation with spaces and collapses runs.
func fold(raw string) string {
	s := strings.ToLower(raw)
	s = nonWord.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Status maps arbitrary status text to the closed status vocabulary.
// Unrecognized input, including empty input, yields New.
func Status(raw string) models.InquiryStatus {
	s := fold(raw)
	if s == "" {
		return models.InquiryStatusNew
	}
	if status, ok := canonicalStatuses[s]; ok {
		return status
	}
	for _, rule := range statusRules {
		if containsAny(s, rule.keywords) {
			return rule.status
		}
	}
	return models.InquiryStatusNew
}

// CaseStatus derives the case lifecycle from the workflow status.
func CaseStatus(status models.InquiryStatus) models.CaseStatus {
	switch status {
	case models.InquiryStatusConverted, models.InquiryStatusClosed:
		return models.CaseStatusResolvedCompleted
	default:
		return models.CaseStatusActive
	}
}

// Source infers the intake channel from free "how did you hear" text.
func Source(howHeard string) models.InquirySource {
	s := fold(howHeard)
	for _, rule := range sourceRules {
		if containsAny(s, rule.keywords) {
			return rule.source
		}
	}
	return models.InquirySourceWebsite
}

// SourceValue accepts an explicit canonical source and otherwise falls back to
// keyword inference over howHeard, then over raw.
func SourceValue(raw, howHeard string) models.InquirySource {
	trimmed := strings.TrimSpace(raw)
	for _, known := range models.InquirySources {
		if strings.EqualFold(trimmed, string(known)) {
			return known
		}
	}
	if strings.TrimSpace(howHeard) != "" {
		return Source(howHeard)
	}
	return Source(raw)
}

// Priority maps priority text and its synonyms; anything else is Medium.
func Priority(raw string) models.InquiryPriority {
	if p, ok := priorities[fold(raw)]; ok {
		return p
	}
	return models.InquiryPriorityMedium
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
