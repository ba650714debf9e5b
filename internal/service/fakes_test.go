package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-admissions-api/internal/models"
	"github.com/noah-isme/sma-admissions-api/pkg/database"
)

// memStore is an in-memory stand-in for the inquiries and activity tables.
// Case ids held by an open transaction are reserved the way a pending unique
// index entry would be in PostgreSQL.
type memStore struct {
	mu          sync.Mutex
	inquiries   map[string]*models.Inquiry
	activity    []models.ActivityLogEntry
	pending     map[string]bool
	seq         int64
	scanDelay   time.Duration
	appendErr   error
	updateCalls int
	commits     int
	rollbacks   int
}

func newMemStore() *memStore {
	return &memStore{
		inquiries: map[string]*models.Inquiry{},
		pending:   map[string]bool{},
	}
}

// memTx buffers writes until commit. The embedded interface is never called.
type memTx struct {
	sqlx.ExtContext
	inquiries []*models.Inquiry
	reserved  []string
	activity  []models.ActivityLogEntry
	updates   []func()
}

func txFrom(exec sqlx.ExtContext) *memTx {
	tx, ok := exec.(*memTx)
	if !ok {
		return nil
	}
	return tx
}

func (s *memStore) seed(inquiries ...*models.Inquiry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inq := range inquiries {
		cp := *inq
		s.inquiries[inq.CaseID] = &cp
	}
}

func (s *memStore) get(caseID string) *models.Inquiry {
	s.mu.Lock()
	defer s.mu.Unlock()
	inq, ok := s.inquiries[caseID]
	if !ok {
		return nil
	}
	cp := *inq
	return &cp
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inquiries)
}

func (s *memStore) entries(caseID string) []models.ActivityLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ActivityLogEntry
	for _, e := range s.activity {
		if e.CaseID == caseID {
			out = append(out, e)
		}
	}
	return out
}

type memTransactor struct {
	store *memStore
}

func (t *memTransactor) InTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	tx := &memTx{}
	if err := fn(tx); err != nil {
		t.store.mu.Lock()
		for _, id := range tx.reserved {
			delete(t.store.pending, id)
		}
		t.store.rollbacks++
		t.store.mu.Unlock()
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, inq := range tx.inquiries {
		t.store.inquiries[inq.CaseID] = inq
		delete(t.store.pending, inq.CaseID)
	}
	for _, apply := range tx.updates {
		apply()
	}
	for _, e := range tx.activity {
		t.store.seq++
		e.Seq = t.store.seq
		t.store.activity = append(t.store.activity, e)
	}
	t.store.commits++
	return nil
}

type memInquiryRepo struct {
	store *memStore
}

func (r *memInquiryRepo) MaxCaseNumber(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	r.store.mu.Lock()
	var max int64
	consider := func(caseID string) {
		if n, ok := models.ParseCaseNumber(caseID); ok && n > max {
			max = n
		}
	}
	for id := range r.store.inquiries {
		consider(id)
	}
	for id := range r.store.pending {
		consider(id)
	}
	for _, e := range r.store.activity {
		consider(e.CaseID)
	}
	delay := r.store.scanDelay
	r.store.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return max, nil
}

func (r *memInquiryRepo) Create(ctx context.Context, exec sqlx.ExtContext, inquiry *models.Inquiry) error {
	tx := txFrom(exec)
	if tx == nil {
		return errors.New("create outside transaction")
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.inquiries[inquiry.CaseID]; ok || r.store.pending[inquiry.CaseID] {
		return &pq.Error{Code: "23505", Constraint: database.CaseIDConstraint, Message: "duplicate key value"}
	}
	r.store.pending[inquiry.CaseID] = true
	tx.reserved = append(tx.reserved, inquiry.CaseID)
	if inquiry.ID == "" {
		inquiry.ID = fmt.Sprintf("id-%s", inquiry.CaseID)
	}
	cp := *inquiry
	tx.inquiries = append(tx.inquiries, &cp)
	return nil
}

func (r *memInquiryRepo) FindByCaseID(ctx context.Context, caseID string) (*models.Inquiry, error) {
	if inq := r.store.get(caseID); inq != nil {
		return inq, nil
	}
	return nil, fmt.Errorf("find inquiry: %w", sql.ErrNoRows)
}

func (r *memInquiryRepo) FindForUpdate(ctx context.Context, exec sqlx.ExtContext, caseID string) (*models.Inquiry, error) {
	return r.FindByCaseID(ctx, caseID)
}

func (r *memInquiryRepo) UpdateFields(ctx context.Context, exec sqlx.ExtContext, caseID string, fields map[string]interface{}, updatedAt time.Time) error {
	tx := txFrom(exec)
	if tx == nil {
		return errors.New("update outside transaction")
	}
	r.store.mu.Lock()
	r.store.updateCalls++
	r.store.mu.Unlock()
	tx.updates = append(tx.updates, func() {
		inq, ok := r.store.inquiries[caseID]
		if !ok {
			return
		}
		for column, value := range fields {
			switch column {
			case "status":
				inq.Status = value.(models.InquiryStatus)
			case "case_status":
				inq.CaseStatus = value.(models.CaseStatus)
			case "assigned_to":
				inq.AssignedTo = value.(string)
			case "priority":
				inq.Priority = value.(models.InquiryPriority)
			case "follow_up_date":
				inq.FollowUpDate = value.(*time.Time)
			case "notes":
				inq.Notes = value.(string)
			}
		}
		inq.UpdatedAt = updatedAt
	})
	return nil
}

func (r *memInquiryRepo) List(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Inquiry
	for _, inq := range r.store.inquiries {
		out = append(out, *inq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CaseID < out[j].CaseID })
	return out, len(out), nil
}

func (r *memInquiryRepo) MarkSynced(ctx context.Context, caseID string, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	inq, ok := r.store.inquiries[caseID]
	if !ok || inq.IsSynced {
		return false, nil
	}
	inq.IsSynced = true
	inq.SyncedAt = &at
	inq.LastSyncError = ""
	return true, nil
}

func (r *memInquiryRepo) RecordSyncFailure(ctx context.Context, caseID, reason string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	inq, ok := r.store.inquiries[caseID]
	if !ok {
		return nil
	}
	inq.SyncAttempts++
	inq.LastSyncError = reason
	return nil
}

func (r *memInquiryRepo) ListUnsynced(ctx context.Context, limit int) ([]models.Inquiry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Inquiry
	for _, inq := range r.store.inquiries {
		if !inq.IsSynced {
			out = append(out, *inq)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := models.ParseCaseNumber(out[i].CaseID)
		b, _ := models.ParseCaseNumber(out[j].CaseID)
		return a < b
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memActivityRepo struct {
	store *memStore
}

func (r *memActivityRepo) Append(ctx context.Context, exec sqlx.ExtContext, entry *models.ActivityLogEntry) error {
	r.store.mu.Lock()
	appendErr := r.store.appendErr
	r.store.mu.Unlock()
	if appendErr != nil {
		return appendErr
	}
	tx := txFrom(exec)
	if tx == nil {
		return errors.New("append outside transaction")
	}
	tx.activity = append(tx.activity, *entry)
	return nil
}

func (r *memActivityRepo) ListByCase(ctx context.Context, caseID string) ([]models.ActivityLogEntry, error) {
	return r.store.entries(caseID), nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	seen []models.Inquiry
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, inquiry *models.Inquiry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = append(d.seen, *inquiry)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

type fixedAllocator struct {
	caseID string
}

func (a fixedAllocator) Next(ctx context.Context, exec sqlx.ExtContext) (string, error) {
	return a.caseID, nil
}

type inquiryFixture struct {
	store      *memStore
	repo       *memInquiryRepo
	activity   *memActivityRepo
	dispatcher *recordingDispatcher
	service    *InquiryService
}

func newInquiryFixture(cfg InquiryServiceConfig) *inquiryFixture {
	store := newMemStore()
	repo := &memInquiryRepo{store: store}
	activity := &memActivityRepo{store: store}
	dispatcher := &recordingDispatcher{}
	svc := NewInquiryService(repo, activity, NewCaseIDAllocator(repo), &memTransactor{store: store}, dispatcher, nil, nil, nil, nil, cfg)
	svc.now = func() time.Time { return time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC) }
	return &inquiryFixture{store: store, repo: repo, activity: activity, dispatcher: dispatcher, service: svc}
}
