package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/wordcount/internal/cache"
	"github.com/nikhilbhutani/wordcount/internal/metrics"
	"github.com/nikhilbhutani/wordcount/internal/occurrence"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobExists   = errors.New("job already exists")
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

type Job struct {
	ID        uuid.UUID          `json:"id"`
	Status    JobStatus          `json:"status"`
	Word      string             `json:"word"`
	Result    *occurrence.Result `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`

	// CallbackURL receives the job once it completes or fails.
	CallbackURL string `json:"callback_url,omitempty"`
}

type JobRequest struct {
	Text        string
	Word        string
	CallbackURL string
}

// JobStore keeps job records in Redis until they expire.
type JobStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewJobStore(c *cache.Cache, ttl time.Duration) *JobStore {
	return &JobStore{cache: c, ttl: ttl}
}

func jobKey(id uuid.UUID) string {
	return "job:" + id.String()
}

func (s *JobStore) Create(ctx context.Context, job *Job) error {
	ok, err := s.cache.SetNX(ctx, jobKey(job.ID), job, s.ttl)
	if err != nil {
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	if !ok {
		return fmt.Errorf("create job %s: %w", job.ID, ErrJobExists)
	}
	return nil
}

func (s *JobStore) Save(ctx context.Context, job *Job) error {
	job.UpdatedAt = time.Now().UTC()
	if err := s.cache.Set(ctx, jobKey(job.ID), job, s.ttl); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	var job Job
	if err := s.cache.Get(ctx, jobKey(id), &job); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, fmt.Errorf("get job %s: %w", id, ErrJobNotFound)
		}
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return &job, nil
}

type Enqueuer interface {
	EnqueueOccurrenceCount(ctx context.Context, payload OccurrenceCountPayload) error
}

// Scheduler records a pending job and hands it to the queue.
type Scheduler struct {
	store    *JobStore
	enqueuer Enqueuer
	metrics  *metrics.Collector
}

func NewScheduler(store *JobStore, enqueuer Enqueuer, m *metrics.Collector) *Scheduler {
	return &Scheduler{store: store, enqueuer: enqueuer, metrics: m}
}

func (s *Scheduler) Submit(ctx context.Context, req JobRequest) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:          uuid.New(),
		Status:      JobPending,
		Word:        req.Word,
		CreatedAt:   now,
		UpdatedAt:   now,
		CallbackURL: req.CallbackURL,
	}

	if err := s.store.Create(ctx, job); err != nil {
		return nil, err
	}

	err := s.enqueuer.EnqueueOccurrenceCount(ctx, OccurrenceCountPayload{
		JobID: job.ID.String(),
		Text:  req.Text,
		Word:  req.Word,
	})
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
		if saveErr := s.store.Save(ctx, job); saveErr != nil {
			return nil, errors.Join(err, saveErr)
		}
		s.metrics.RecordJob("failed")
		return nil, err
	}

	s.metrics.RecordJob("enqueued")
	return job, nil
}

func (s *Scheduler) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	return s.store.Get(ctx, id)
}
