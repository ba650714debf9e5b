package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admissions-api/internal/middleware"
	"github.com/noah-isme/sma-admissions-api/internal/models"
	"github.com/noah-isme/sma-admissions-api/internal/service"
	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
)

// WebFormActor is recorded for anonymous public form submissions.
const WebFormActor = "web-form"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.ClaimsFromContext(c)
}

func actorFromContext(c *gin.Context, fallback string) service.Actor {
	return service.ActorFromClaims(claimsFromContext(c), fallback)
}

// caseIDParam returns the :caseId path value when it has the S-<n> shape.
// Anything else cannot name an existing case and is reported as not found.
func caseIDParam(c *gin.Context) (string, error) {
	caseID := strings.TrimSpace(c.Param("caseId"))
	if _, ok := models.ParseCaseNumber(caseID); !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
	}
	return caseID, nil
}

func parseInquiryFilter(c *gin.Context) (models.InquiryFilter, error) {
	var filter models.InquiryFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Source = strings.TrimSpace(c.Query("source"))
	filter.AssignedTo = strings.TrimSpace(c.Query("assignedTo"))
	filter.TenantID = strings.TrimSpace(c.Query("tenantId"))
	if claims := claimsFromContext(c); claims != nil && claims.TenantID != "" {
		filter.TenantID = claims.TenantID
	}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := models.InquiryStatus(strings.TrimSpace(part))
			if !status.Valid() {
				return filter, appErrors.Validation("invalid status filter", appErrors.FieldError{Field: "status", Message: "unknown status " + string(status)})
			}
			filter.Status = append(filter.Status, status)
		}
	}
	if raw := c.Query("synced"); raw != "" {
		synced, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, appErrors.Validation("invalid synced filter", appErrors.FieldError{Field: "synced", Message: "synced must be true or false"})
		}
		filter.Synced = &synced
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	return filter, nil
}
