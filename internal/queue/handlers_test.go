package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHandlersRegistryLogsTasks(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := NewHandlersRegistry(zap.New(core))

	r.Register(TypeOccurrenceCount, asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		return nil
	}))
	r.Register("broken", asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		return errors.New("nope")
	}))

	ctx := context.Background()
	require.NoError(t, r.Mux().ProcessTask(ctx, asynq.NewTask(TypeOccurrenceCount, nil)))
	require.Error(t, r.Mux().ProcessTask(ctx, asynq.NewTask("broken", nil)))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "task processed", entries[0].Message)
	assert.Equal(t, TypeOccurrenceCount, entries[0].ContextMap()["type"])
	assert.Equal(t, "task failed", entries[1].Message)
}
