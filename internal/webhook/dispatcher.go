// Package webhook delivers signed job callbacks to client-supplied URLs.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nikhilbhutani/wordcount/internal/config"
	"github.com/nikhilbhutani/wordcount/internal/metrics"
	"github.com/nikhilbhutani/wordcount/internal/queue"
)

const (
	HeaderEvent     = "X-Webhook-Event"
	HeaderSignature = "X-Webhook-Signature"
	HeaderID        = "X-Webhook-ID"
)

// Dispatcher sends deliveries from a bounded queue on a single goroutine.
// When the queue is full new deliveries are dropped.
type Dispatcher struct {
	httpClient *http.Client
	secret     string
	timeout    time.Duration
	metrics    *metrics.Collector
	logger     *zap.Logger

	deliveries chan Delivery
	done       chan struct{}

	mu     sync.RWMutex
	closed bool
}

type Delivery struct {
	ID      string
	URL     string
	Event   string
	Payload []byte
}

func NewDispatcher(cfg config.WebhookConfig, m *metrics.Collector, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		httpClient: newHTTPClient(cfg),
		secret:     cfg.Secret,
		timeout:    cfg.Timeout,
		metrics:    m,
		logger:     logger.With(zap.String("component", "webhook")),
		deliveries: make(chan Delivery, cfg.QueueSize),
		done:       make(chan struct{}),
	}
	go d.processLoop()
	return d
}

// Enqueue schedules req and reports whether it was accepted.
func (d *Dispatcher) Enqueue(req Delivery) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(req, "dispatcher closed")
		return false
	}

	select {
	case d.deliveries <- req:
		return true
	default:
		d.drop(req, "delivery queue full")
		return false
	}
}

// NotifyJob schedules a callback for a finished job. Jobs without a callback
// URL are ignored.
func (d *Dispatcher) NotifyJob(job *queue.Job) {
	if job.CallbackURL == "" {
		return
	}
	payload, err := json.Marshal(job)
	if err != nil {
		d.logger.Error("marshal job callback", zap.Stringer("job_id", job.ID), zap.Error(err))
		return
	}
	d.Enqueue(Delivery{
		ID:      job.ID.String(),
		URL:     job.CallbackURL,
		Event:   "job." + string(job.Status),
		Payload: payload,
	})
}

// Close stops accepting deliveries and waits for the queued ones to be sent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.deliveries)
	}
	d.mu.Unlock()
	<-d.done
	d.httpClient.CloseIdleConnections()
}

func (d *Dispatcher) drop(req Delivery, reason string) {
	d.logger.Warn("dropping webhook delivery", zap.String("id", req.ID), zap.String("event", req.Event), zap.String("reason", reason))
	d.metrics.RecordWebhook("dropped")
}

func (d *Dispatcher) processLoop() {
	defer close(d.done)
	for req := range d.deliveries {
		d.deliver(req)
	}
}

func (d *Dispatcher) deliver(req Delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Payload))
	if err != nil {
		d.logger.Error("webhook request creation failed", zap.String("id", req.ID), zap.Error(err))
		d.metrics.RecordWebhook("failed")
		return
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(HeaderEvent, req.Event)
	httpReq.Header.Set(HeaderID, req.ID)
	if d.secret != "" {
		httpReq.Header.Set(HeaderSignature, Sign(req.Payload, d.secret))
	}

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		d.logger.Error("webhook delivery failed", zap.String("id", req.ID), zap.Error(err))
		d.metrics.RecordWebhook("failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		d.logger.Warn("webhook received non-success response", zap.String("id", req.ID), zap.Int("status", resp.StatusCode))
		d.metrics.RecordWebhook("rejected")
		return
	}
	d.metrics.RecordWebhook("delivered")
}

// Sign returns the X-Webhook-Signature value for payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return fmt.Sprintf("sha256=%s", hex.EncodeToString(mac.Sum(nil)))
}
