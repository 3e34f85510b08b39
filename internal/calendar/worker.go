package calendar

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/dukerupert/choreify/internal/chore"
	"github.com/dukerupert/choreify/internal/model"
)

var _ chore.CalendarSync = (*Worker)(nil)

type jobKind int

const (
	jobCreate jobKind = iota
	jobUpdate
	jobDelete
)

func (k jobKind) String() string {
	switch k {
	case jobCreate:
		return "create"
	case jobUpdate:
		return "update"
	}
	return "delete"
}

type job struct {
	kind    jobKind
	chore   model.Chore
	choreID string
}

type WorkerConfig struct {
	QueueSize  int
	RatePerSec float64
	MaxRetries uint64
	// BaseBackoff is the first retry delay; later retries double it.
	BaseBackoff time.Duration
}

// Worker feeds chore changes to the adapter in the background. Enqueueing
// never blocks: when the queue is full the job is dropped and logged, and
// SyncAll repairs the gap later.
type Worker struct {
	adapter *Adapter
	jobs    chan job
	limiter *rate.Limiter
	retries uint64
	backoff time.Duration
	logger  *slog.Logger

	// done is called after each job; tests use it to wait.
	done func(kind jobKind, choreID string, err error)
}

func NewWorker(adapter *Adapter, cfg WorkerConfig, logger *slog.Logger) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}
	return &Worker{
		adapter: adapter,
		jobs:    make(chan job, cfg.QueueSize),
		limiter: rate.NewLimiter(limit, 1),
		retries: cfg.MaxRetries,
		backoff: cfg.BaseBackoff,
		logger:  logger,
		done:    func(jobKind, string, error) {},
	}
}

func (w *Worker) ChoreCreated(c model.Chore) {
	w.enqueue(job{kind: jobCreate, chore: c, choreID: c.ID})
}
func (w *Worker) ChoreUpdated(c model.Chore) {
	w.enqueue(job{kind: jobUpdate, chore: c, choreID: c.ID})
}
func (w *Worker) ChoreRemoved(choreID string) {
	w.enqueue(job{kind: jobDelete, choreID: choreID})
}

func (w *Worker) enqueue(j job) {
	select {
	case w.jobs <- j:
	default:
		w.logger.Warn("calendar sync queue full, dropping job", "op", j.kind.String(), "chore_id", j.choreID)
	}
}

// Run drains the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("calendar sync worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("calendar sync worker stopped", "pending", len(w.jobs))
			return nil
		case j := <-w.jobs:
			w.process(ctx, j)
		}
	}
}

func (w *Worker) process(ctx context.Context, j job) {
	b := retry.WithMaxRetries(w.retries, retry.NewExponential(w.backoff))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := w.apply(ctx, j); err != nil {
			w.logger.Debug("calendar sync attempt failed", "op", j.kind.String(), "chore_id", j.choreID, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		w.logger.Error("calendar sync failed", "op", j.kind.String(), "chore_id", j.choreID, "error", err)
	}
	w.done(j.kind, j.choreID, err)
}

func (w *Worker) apply(ctx context.Context, j job) error {
	switch j.kind {
	case jobCreate:
		_, err := w.adapter.CreateEvent(ctx, j.chore)
		return err
	case jobUpdate:
		_, err := w.adapter.UpdateEvent(ctx, j.chore)
		return err
	default:
		_, err := w.adapter.DeleteEvent(ctx, j.choreID)
		return err
	}
}
