package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-admissions-api/internal/models"
	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
	"github.com/noah-isme/sma-admissions-api/pkg/jobs"
)

// SheetSyncJobType labels mirror delivery jobs on the queue.
const SheetSyncJobType = "sheet_sync"

const (
	defaultSweepBatch = 50
	caseLockStripes   = 64
)

type mirrorClient interface {
	Post(ctx context.Context, payload models.MirrorPayload) error
}

type syncStateRepository interface {
	FindByCaseID(ctx context.Context, caseID string) (*models.Inquiry, error)
	MarkSynced(ctx context.Context, caseID string, at time.Time) (bool, error)
	RecordSyncFailure(ctx context.Context, caseID, reason string) error
}

type unsyncedLister interface {
	ListUnsynced(ctx context.Context, limit int) ([]models.Inquiry, error)
}

type syncJobQueue interface {
	Enqueue(job jobs.Job) error
}

type deliverer interface {
	Deliver(ctx context.Context, inquiry *models.Inquiry) error
}

// SheetSyncWorker performs single mirror delivery attempts and records the outcome.
type SheetSyncWorker struct {
	repo    syncStateRepository
	client  mirrorClient
	metrics *MetricsService
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
	locks   [caseLockStripes]sync.Mutex
}

// NewSheetSyncWorker constructs a worker.
func NewSheetSyncWorker(repo syncStateRepository, client mirrorClient, timeout time.Duration, metrics *MetricsService, logger *zap.Logger) *SheetSyncWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SheetSyncWorker{
		repo:    repo,
		client:  client,
		metrics: metrics,
		logger:  logger,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Deliver makes exactly one POST carrying the case as it is stored right now.
// Attempts for the same case are serialized and each one reloads the row, so
// the last POST the mirror sees is never older than the last committed write.
// The confirmation flag is written only after a 2xx; any other outcome is
// recorded against the case and returned.
func (w *SheetSyncWorker) Deliver(ctx context.Context, inquiry *models.Inquiry) error {
	if inquiry == nil || inquiry.CaseID == "" {
		return errors.New("deliver: inquiry snapshot is empty")
	}
	return w.deliverCase(ctx, inquiry.CaseID)
}

func (w *SheetSyncWorker) deliverCase(ctx context.Context, caseID string) error {
	lock := w.lockFor(caseID)
	lock.Lock()
	defer lock.Unlock()

	current, err := w.repo.FindByCaseID(ctx, caseID)
	if err != nil {
		w.logger.Warn("sheet sync reload failed", zap.String("case_id", caseID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("failed to load %s for delivery", caseID))
	}

	callCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	err = w.client.Post(callCtx, models.NewMirrorPayload(current))
	w.metrics.ObserveSyncDelivery(err == nil, time.Since(start))
	if err != nil {
		deliveryErr := appErrors.Wrap(err, appErrors.ErrDownstreamDelivery.Code, appErrors.ErrDownstreamDelivery.Status,
			fmt.Sprintf("mirror delivery failed for %s", caseID))
		w.logger.Warn("sheet sync failed",
			zap.String("case_id", caseID),
			zap.String("code", deliveryErr.Code),
			zap.Error(err))
		if recordErr := w.repo.RecordSyncFailure(ctx, caseID, err.Error()); recordErr != nil {
			w.logger.Warn("failed to record sync failure", zap.String("case_id", caseID), zap.Error(recordErr))
		}
		return deliveryErr
	}

	flipped, err := w.repo.MarkSynced(ctx, caseID, w.now())
	if err != nil {
		w.logger.Error("mirror accepted but confirmation not stored", zap.String("case_id", caseID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm sync")
	}
	w.logger.Debug("sheet sync delivered", zap.String("case_id", caseID), zap.Bool("confirmed_now", flipped))
	return nil
}

func (w *SheetSyncWorker) lockFor(caseID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(caseID))
	return &w.locks[h.Sum32()%caseLockStripes]
}

// Handle processes a queued delivery job. The job key is the case id.
func (w *SheetSyncWorker) Handle(ctx context.Context, job jobs.Job) error {
	if job.Key == "" {
		return fmt.Errorf("job %s: missing case id", job.ID)
	}
	return w.deliverCase(ctx, job.Key)
}

// SheetSyncConfig tunes dispatch and sweeping.
type SheetSyncConfig struct {
	SweepBatch int
}

// SheetSyncService hands fresh writes to the delivery queue and recovers
// unconfirmed cases on demand or on schedule.
type SheetSyncService struct {
	repo    unsyncedLister
	worker  deliverer
	queue   syncJobQueue
	toggle  SyncToggle
	metrics *MetricsService
	logger  *zap.Logger
	cfg     SheetSyncConfig
}

// NewSheetSyncService constructs the service.
func NewSheetSyncService(repo unsyncedLister, worker deliverer, queue syncJobQueue, toggle SyncToggle, metrics *MetricsService, logger *zap.Logger, cfg SheetSyncConfig) *SheetSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if toggle == nil {
		toggle = NewStaticSyncToggle(false)
	}
	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = defaultSweepBatch
	}
	return &SheetSyncService{
		repo:    repo,
		worker:  worker,
		queue:   queue,
		toggle:  toggle,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Dispatch enqueues a delivery intent and returns immediately. Intents are
// keyed by case id so one case is always handled by the same queue worker.
func (s *SheetSyncService) Dispatch(ctx context.Context, inquiry *models.Inquiry) {
	if inquiry == nil || inquiry.CaseID == "" || !s.toggle.Enabled(ctx) || s.queue == nil {
		return
	}
	caseID := inquiry.CaseID
	err := s.queue.Enqueue(jobs.Job{ID: caseID, Key: caseID, Type: SheetSyncJobType})
	if err == nil {
		return
	}
	if errors.Is(err, jobs.ErrQueueFull) {
		s.metrics.SyncDispatchDropped()
	}
	s.logger.Warn("sheet sync intent dropped, sweeper will retry", zap.String("case_id", caseID), zap.Error(err))
}

// Deliver performs one synchronous delivery attempt.
func (s *SheetSyncService) Deliver(ctx context.Context, inquiry *models.Inquiry) error {
	return s.worker.Deliver(ctx, inquiry)
}

// Sweep re-attempts delivery for the oldest unconfirmed cases, one at a time.
// A failing record never stops the sweep.
func (s *SheetSyncService) Sweep(ctx context.Context) (models.SweepResult, error) {
	var result models.SweepResult
	if !s.toggle.Enabled(ctx) {
		s.logger.Debug("sheet sync disabled, sweep skipped")
		return result, nil
	}
	pending, err := s.repo.ListUnsynced(ctx, s.cfg.SweepBatch)
	if err != nil {
		return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unsynced inquiries")
	}
	for i := range pending {
		if ctx.Err() != nil {
			break
		}
		result.Attempted++
		if err := s.worker.Deliver(ctx, &pending[i]); err == nil {
			result.Succeeded++
		}
	}
	s.metrics.ObserveSweep(result.Attempted, result.Succeeded)
	s.logger.Info("sheet sync sweep finished",
		zap.Int("attempted", result.Attempted),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed()))
	return result, nil
}

// Status reports the runtime toggle.
func (s *SheetSyncService) Status(ctx context.Context) (bool, string) {
	return s.toggle.Enabled(ctx), s.toggle.Source()
}

// SetEnabled flips the runtime toggle.
func (s *SheetSyncService) SetEnabled(ctx context.Context, enabled bool) error {
	if err := s.toggle.SetEnabled(ctx, enabled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "failed to update sync flag")
	}
	s.logger.Info("sheet sync toggled", zap.Bool("enabled", enabled), zap.String("source", s.toggle.Source()))
	return nil
}
