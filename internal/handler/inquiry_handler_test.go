package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admissions-api/internal/dto"
	"github.com/noah-isme/sma-admissions-api/internal/middleware"
	"github.com/noah-isme/sma-admissions-api/internal/models"
	"github.com/noah-isme/sma-admissions-api/internal/service"
	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
)

type inquiryServiceMock struct {
	created    dto.CreateInquiryRequest
	actor      service.Actor
	createErr  error
	updatedID  string
	update     dto.UpdateCounselorFieldsRequest
	filter     models.InquiryFilter
	getErr     error
	getCalls   int
	activity   []models.ActivityLogEntry
	listResult []models.Inquiry
}

func (m *inquiryServiceMock) Create(ctx context.Context, req dto.CreateInquiryRequest, actor service.Actor) (*models.Inquiry, error) {
	m.created = req
	m.actor = actor
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Inquiry{CaseID: "S-1"}, nil
}

func (m *inquiryServiceMock) UpdateCounselorFields(ctx context.Context, caseID string, req dto.UpdateCounselorFieldsRequest, actor service.Actor) (*models.Inquiry, error) {
	m.updatedID = caseID
	m.update = req
	m.actor = actor
	return &models.Inquiry{CaseID: caseID, Status: models.InquiryStatusFollowUp}, nil
}

func (m *inquiryServiceMock) Get(ctx context.Context, caseID string) (*models.Inquiry, error) {
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &models.Inquiry{CaseID: caseID}, nil
}

func (m *inquiryServiceMock) List(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, *models.Pagination, error) {
	m.filter = filter
	return m.listResult, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(m.listResult)}, nil
}

func (m *inquiryServiceMock) Activity(ctx context.Context, caseID string) ([]models.ActivityLogEntry, error) {
	return m.activity, nil
}

type exporterMock struct {
	format service.ExportFormat
	filter models.InquiryFilter
}

func (m *exporterMock) Export(ctx context.Context, filter models.InquiryFilter, format service.ExportFormat) (*service.ExportFile, error) {
	m.format = format
	m.filter = filter
	return &service.ExportFile{Filename: "inquiries.csv", ContentType: "text/csv", Data: []byte("Case ID\nS-1\n"), Rows: 1}, nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Error      *appErrors.Error   `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestInquiryHandlerCreateAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &inquiryServiceMock{}
	h := NewInquiryHandler(svc, nil)

	payload, _ := json.Marshal(dto.CreateInquiryRequest{StudentName: "Asha Rao", ParentName: "Ravi Rao", Phone: "9876543210"})
	c, w := newGinContext(http.MethodPost, "/inquiries", payload)
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var created dto.CreateInquiryResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.Equal(t, "S-1", created.CaseID)
	assert.Equal(t, "Asha Rao", svc.created.StudentName)
	assert.Equal(t, WebFormActor, svc.actor.ID)
}

func TestInquiryHandlerCreateAttributesCounselor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &inquiryServiceMock{}
	h := NewInquiryHandler(svc, nil)

	payload, _ := json.Marshal(dto.CreateInquiryRequest{StudentName: "Asha Rao", ParentName: "Ravi Rao", Phone: "9876543210"})
	c, _ := newGinContext(http.MethodPost, "/inquiries", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-9", Email: "meera@school.test", Role: models.RoleCounselor, TenantID: "north"})
	h.Create(c)

	assert.Equal(t, "meera@school.test", svc.actor.ID)
	assert.Equal(t, "north", svc.actor.TenantID)
}

func TestInquiryHandlerCreateAnonymousDropsStaffFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := []byte(`{"studentName":"Asha Rao","parentName":"Ravi Rao","phone":"9876543210",
		"tenantId":"south","status":"Converted","assignedTo":"meera","priority":"High",
		"inquiryDate":"2023-01-05","notes":"call after 6pm"}`)

	anonymous := &inquiryServiceMock{}
	c, w := newGinContext(http.MethodPost, "/inquiries", body)
	NewInquiryHandler(anonymous, nil).Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, anonymous.created.TenantID)
	assert.Empty(t, anonymous.created.Status)
	assert.Empty(t, anonymous.created.AssignedTo)
	assert.Empty(t, anonymous.created.Priority)
	assert.True(t, anonymous.created.InquiryDate.IsZero())
	assert.Equal(t, "call after 6pm", anonymous.created.Notes)

	staff := &inquiryServiceMock{}
	c, w = newGinContext(http.MethodPost, "/inquiries", body)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-9", Role: models.RoleCounselor})
	NewInquiryHandler(staff, nil).Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "south", staff.created.TenantID)
	assert.Equal(t, "Converted", staff.created.Status)
	assert.Equal(t, "meera", staff.created.AssignedTo)
	assert.Equal(t, "High", staff.created.Priority)
	assert.Equal(t, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), staff.created.InquiryDate.Time)
}

func TestInquiryHandlerCreateReportsBadInquiryDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &inquiryServiceMock{}
	c, w := newGinContext(http.MethodPost, "/inquiries",
		[]byte(`{"studentName":"A","parentName":"B","phone":"1","inquiryDate":"05/01/2024"}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-9", Role: models.RoleCounselor})
	NewInquiryHandler(svc, nil).Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	require.Len(t, env.Error.Fields, 1)
	assert.Equal(t, "inquiryDate", env.Error.Fields[0].Field)
	assert.Contains(t, env.Error.Fields[0].Message, "YYYY-MM-DD")
	assert.Empty(t, svc.created.StudentName)
}

func TestInquiryHandlerCreateErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewInquiryHandler(&inquiryServiceMock{}, nil)

	c, w := newGinContext(http.MethodPost, "/inquiries", []byte("{not json"))
	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	failing := NewInquiryHandler(&inquiryServiceMock{createErr: appErrors.ErrIdentifierExhausted}, nil)
	c, w = newGinContext(http.MethodPost, "/inquiries", []byte(`{"studentName":"A","parentName":"B","phone":"1"}`))
	failing.Create(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decode(t, w).Error.Code)
}

func TestInquiryHandlerGetRejectsMalformedCaseID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &inquiryServiceMock{}
	h := NewInquiryHandler(svc, nil)

	c, w := newGinContext(http.MethodGet, "/inquiries/abc", nil)
	c.Params = gin.Params{{Key: "caseId", Value: "abc"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, svc.getCalls)

	c, w = newGinContext(http.MethodGet, "/inquiries/S-3", nil)
	c.Params = gin.Params{{Key: "caseId", Value: "S-3"}}
	h.Get(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInquiryHandlerUpdate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &inquiryServiceMock{}
	h := NewInquiryHandler(svc, nil)

	c, w := newGinContext(http.MethodPatch, "/inquiries/S-7", []byte(`{"status":"visited","comment":"called back"}`))
	c.Params = gin.Params{{Key: "caseId", Value: "S-7"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleCounselor})
	h.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "S-7", svc.updatedID)
	require.NotNil(t, svc.update.Status)
	assert.Equal(t, "visited", *svc.update.Status)
	assert.Equal(t, "u-1", svc.actor.ID)

	c, w = newGinContext(http.MethodPatch, "/inquiries/7", []byte(`{}`))
	c.Params = gin.Params{{Key: "caseId", Value: "7"}}
	h.Update(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInquiryHandlerListFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &inquiryServiceMock{listResult: []models.Inquiry{{CaseID: "S-2"}, {CaseID: "S-1"}}}
	h := NewInquiryHandler(svc, nil)

	c, w := newGinContext(http.MethodGet, "/inquiries?status=New,FollowUp&synced=false&page=2&limit=10&search=asha", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleCounselor, TenantID: "north"})
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.InquiryStatus{models.InquiryStatusNew, models.InquiryStatusFollowUp}, svc.filter.Status)
	require.NotNil(t, svc.filter.Synced)
	assert.False(t, *svc.filter.Synced)
	assert.Equal(t, 2, svc.filter.Page)
	assert.Equal(t, 10, svc.filter.PageSize)
	assert.Equal(t, "asha", svc.filter.Search)
	assert.Equal(t, "north", svc.filter.TenantID)
	assert.Equal(t, 2, decode(t, w).Pagination.TotalCount)

	c, w = newGinContext(http.MethodGet, "/inquiries?status=Maybe", nil)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/inquiries?synced=perhaps", nil)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInquiryHandlerActivity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &inquiryServiceMock{activity: []models.ActivityLogEntry{{Seq: 1, CaseID: "S-1", Action: models.ActivityCreated}}}
	h := NewInquiryHandler(svc, nil)

	c, w := newGinContext(http.MethodGet, "/inquiries/S-1/activity", nil)
	c.Params = gin.Params{{Key: "caseId", Value: "S-1"}}
	h.Activity(c)

	require.Equal(t, http.StatusOK, w.Code)
	var entries []models.ActivityLogEntry
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActivityCreated, entries[0].Action)
}

func TestInquiryHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &exporterMock{}
	h := NewInquiryHandler(&inquiryServiceMock{}, exporter)

	c, w := newGinContext(http.MethodGet, "/inquiries/export?format=csv&status=Closed", nil)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ExportFormatCSV, exporter.format)
	assert.Equal(t, []models.InquiryStatus{models.InquiryStatusClosed}, exporter.filter.Status)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inquiries.csv")
	assert.Equal(t, "Case ID\nS-1\n", w.Body.String())

	c, w = newGinContext(http.MethodGet, "/inquiries/export?format=docx", nil)
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
