package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-admissions-api/internal/models"
)

type caseNumberScanner interface {
	MaxCaseNumber(ctx context.Context, exec sqlx.ExtContext) (int64, error)
}

// CaseIDAllocator proposes the next S-<n> identifier by scanning the store.
// Two concurrent callers may receive the same candidate; the unique
// constraint on case_id and the caller's retry loop resolve the collision.
type CaseIDAllocator struct {
	scanner caseNumberScanner
}

// NewCaseIDAllocator constructs the allocator.
func NewCaseIDAllocator(scanner caseNumberScanner) *CaseIDAllocator {
	return &CaseIDAllocator{scanner: scanner}
}

// Next returns S-<max+1>, or S-1 for an empty store.
func (a *CaseIDAllocator) Next(ctx context.Context, exec sqlx.ExtContext) (string, error) {
	max, err := a.CurrentMax(ctx, exec)
	if err != nil {
		return "", err
	}
	return models.FormatCaseID(max + 1), nil
}

// CurrentMax exposes the highest issued sequence number.
func (a *CaseIDAllocator) CurrentMax(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	max, err := a.scanner.MaxCaseNumber(ctx, exec)
	if err != nil {
		return 0, err
	}
	if max < 0 {
		max = 0
	}
	return max, nil
}
