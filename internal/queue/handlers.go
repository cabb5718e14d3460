package queue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func NewHandlersRegistry(logger *zap.Logger) *HandlersRegistry {
	mux := asynq.NewServeMux()
	mux.Use(logTasks(logger))
	return &HandlersRegistry{mux: mux}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

func logTasks(logger *zap.Logger) asynq.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			id, _ := asynq.GetTaskID(ctx)
			start := time.Now()
			err := next.ProcessTask(ctx, t)

			fields := []zap.Field{
				zap.String("type", t.Type()),
				zap.String("task_id", id),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Error("task failed", append(fields, zap.Error(err))...)
			} else {
				logger.Info("task processed", fields...)
			}
			return err
		})
	}
}
