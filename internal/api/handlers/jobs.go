package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/wordcount/internal/queue"
	"github.com/nikhilbhutani/wordcount/internal/webhook"
)

type JobScheduler interface {
	Submit(ctx context.Context, req queue.JobRequest) (*queue.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*queue.Job, error)
}

type JobHandler struct {
	scheduler    JobScheduler
	logger       *zap.Logger
	allowPrivate bool
}

type JobHandlerOption func(*JobHandler)

// AllowPrivateCallbacks accepts callback URLs on loopback and private hosts.
func AllowPrivateCallbacks(allow bool) JobHandlerOption {
	return func(h *JobHandler) { h.allowPrivate = allow }
}

func NewJobHandler(s JobScheduler, logger *zap.Logger, opts ...JobHandlerOption) *JobHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &JobHandler{scheduler: s, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type SubmitJobRequest struct {
	CountRequest
	CallbackURL string `json:"callback_url,omitempty"`
}

func (h *JobHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateWord(req.Word); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.CallbackURL != "" {
		if err := webhook.CheckCallbackURL(req.CallbackURL, h.allowPrivate); err != nil {
			writeError(w, http.StatusBadRequest, "invalid callback_url: "+err.Error())
			return
		}
	}

	job, err := h.scheduler.Submit(r.Context(), queue.JobRequest{
		Text:        req.Text,
		Word:        req.Word,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		h.logger.Error("submit job failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "could not schedule job")
		return
	}

	w.Header().Set("Location", "/api/v1/jobs/"+job.ID.String())
	writeJSON(w, http.StatusAccepted, job)
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job ID")
		return
	}

	job, err := h.scheduler.Get(r.Context(), id)
	if errors.Is(err, queue.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		h.logger.Error("get job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load job")
		return
	}

	writeJSON(w, http.StatusOK, job)
}
