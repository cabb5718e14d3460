package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/wordcount/internal/metrics"
	"github.com/nikhilbhutani/wordcount/internal/occurrence"
	"github.com/nikhilbhutani/wordcount/internal/queue"
)

type Counter interface {
	Count(ctx context.Context, text, word string) (occurrence.Result, error)
}

// Notifier is told about jobs that reached a final state.
type Notifier interface {
	NotifyJob(job *queue.Job)
}

type OccurrenceWorker struct {
	counter  Counter
	store    *queue.JobStore
	metrics  *metrics.Collector
	logger   *zap.Logger
	notifier Notifier
}

type Option func(*OccurrenceWorker)

func WithNotifier(n Notifier) Option {
	return func(w *OccurrenceWorker) { w.notifier = n }
}

func NewOccurrenceWorker(counter Counter, store *queue.JobStore, m *metrics.Collector, logger *zap.Logger, opts ...Option) *OccurrenceWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &OccurrenceWorker{
		counter: counter,
		store:   store,
		metrics: m,
		logger:  logger.With(zap.String("component", "occurrence_worker")),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *OccurrenceWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.OccurrenceCountPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		return fmt.Errorf("parse job ID: %v: %w", err, asynq.SkipRetry)
	}

	job, err := w.store.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}

	w.logger.Info("counting occurrences", zap.Stringer("job_id", jobID), zap.String("word", payload.Word))

	job.Status = queue.JobRunning
	if err := w.store.Save(ctx, job); err != nil {
		return fmt.Errorf("update status to running: %w", err)
	}

	res, err := w.counter.Count(ctx, payload.Text, payload.Word)
	if err != nil {
		job.Status = queue.JobFailed
		job.Error = err.Error()
		if saveErr := w.store.Save(ctx, job); saveErr != nil {
			w.logger.Error("failed to record job failure", zap.Stringer("job_id", jobID), zap.Error(saveErr))
		}
		w.metrics.RecordJob("failed")

		// a worker fault is a broken invariant, retrying cannot fix it
		if errors.Is(err, occurrence.ErrWorkerFault) || errors.Is(err, occurrence.ErrTextTooLarge) {
			w.notify(job)
			return fmt.Errorf("count job %s: %v: %w", jobID, err, asynq.SkipRetry)
		}
		if lastAttempt(ctx) {
			w.notify(job)
		}
		return fmt.Errorf("count job %s: %w", jobID, err)
	}

	job.Status = queue.JobCompleted
	job.Result = &res
	job.Error = ""
	if err := w.store.Save(ctx, job); err != nil {
		return fmt.Errorf("update status to completed: %w", err)
	}
	w.metrics.RecordJob("completed")
	w.notify(job)

	w.logger.Info("job completed", zap.Stringer("job_id", jobID), zap.Int("count", res.Count))
	return nil
}

func (w *OccurrenceWorker) notify(job *queue.Job) {
	if w.notifier != nil && job.CallbackURL != "" {
		w.notifier.NotifyJob(job)
	}
}

// lastAttempt reports whether asynq will not retry the task after this run.
// Outside a task context every attempt is the last.
func lastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}
