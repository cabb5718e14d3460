package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/wordcount/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(RedisOpt(cfg)),
	}
}

// RedisOpt converts the shared Redis settings into asynq's connection options.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueOccurrenceCount schedules a count. Worker faults are never retried,
// so MaxRetry only covers transient failures such as a lost job record.
func (c *Client) EnqueueOccurrenceCount(ctx context.Context, payload OccurrenceCountPayload) error {
	return c.enqueue(ctx, TypeOccurrenceCount, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.TaskID(payload.JobID),
	)
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
