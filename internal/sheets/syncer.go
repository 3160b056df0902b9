package sheets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shinyes/pastpaper/internal/models"
)

var ErrNoQuestions = errors.New("spreadsheet contained no valid questions")

type Fetcher interface {
	Fetch(ctx context.Context) (Payload, error)
}

// Store is the persistence a sync run writes to.
type Store interface {
	ReplaceQuestions(ctx context.Context, questions []models.Question) (int, int, error)
	SetLastSyncTime(ctx context.Context, t time.Time) error
	SetAvailableFields(ctx context.Context, names []string) error
}

type Result struct {
	RunID      string        `json:"runId"`
	Imported   int           `json:"imported"`
	Skipped    int           `json:"skipped"`
	UserGroup  string        `json:"userGroup,omitempty"`
	FinishedAt time.Time     `json:"finishedAt"`
	Duration   time.Duration `json:"duration"`
}

type Status struct {
	Running   bool    `json:"running"`
	LastRun   *Result `json:"lastRun,omitempty"`
	LastError string  `json:"lastError,omitempty"`
}

type Syncer struct {
	fetcher Fetcher
	store   Store
	logger  logrus.FieldLogger
	now     func() time.Time

	runMu sync.Mutex

	statusMu sync.RWMutex
	status   Status
}

func NewSyncer(fetcher Fetcher, store Store, logger logrus.FieldLogger) *Syncer {
	return &Syncer{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// Run downloads and replaces the question collection. Overlapping calls are
// serialised. A download with no valid rows fails and leaves the store as is.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := s.now()
	runID := uuid.NewString()
	log := s.logger.WithField("run_id", runID)
	s.setRunning(true)

	result, err := s.run(ctx, runID)
	result.Duration = s.now().Sub(start)
	if err != nil {
		log.WithError(err).Warn("sync failed")
		s.finish(nil, err)
		return result, err
	}
	log.WithFields(logrus.Fields{
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"duration": result.Duration,
	}).Info("sync finished")
	s.finish(&result, nil)
	return result, nil
}

func (s *Syncer) run(ctx context.Context, runID string) (Result, error) {
	result := Result{RunID: runID}
	payload, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return result, err
	}
	result.UserGroup = payload.UserGroup

	parsed, err := Parse(payload.Data)
	if err != nil {
		return result, err
	}
	result.Skipped = parsed.Skipped
	if len(parsed.Questions) == 0 {
		return result, ErrNoQuestions
	}

	imported, skipped, err := s.store.ReplaceQuestions(ctx, parsed.Questions)
	if err != nil {
		return result, fmt.Errorf("store questions: %w", err)
	}
	result.Imported = imported
	result.Skipped += skipped
	result.FinishedAt = s.now().UTC()

	if err := s.store.SetLastSyncTime(ctx, result.FinishedAt); err != nil {
		return result, fmt.Errorf("record sync time: %w", err)
	}
	if err := s.store.SetAvailableFields(ctx, parsed.Fields); err != nil {
		return result, fmt.Errorf("record available fields: %w", err)
	}
	return result, nil
}

// Loop runs a sync every interval until ctx is cancelled. Failures are logged
// and retried on the next tick.
func (s *Syncer) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Run(ctx)
		}
	}
}

func (s *Syncer) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	out := s.status
	if out.LastRun != nil {
		last := *out.LastRun
		out.LastRun = &last
	}
	return out
}

func (s *Syncer) setRunning(running bool) {
	s.statusMu.Lock()
	s.status.Running = running
	s.statusMu.Unlock()
}

func (s *Syncer) finish(result *Result, err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Running = false
	if err != nil {
		s.status.LastError = err.Error()
		return
	}
	s.status.LastError = ""
	s.status.LastRun = result
}
