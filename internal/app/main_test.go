package app

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/wordcount/internal/config"
)

func noopRunner(called *bool) Runner {
	return func(context.Context, *config.Config, *zap.Logger) error {
		*called = true
		return nil
	}
}

func TestMainReportsConfigErrors(t *testing.T) {
	t.Setenv("WORDCOUNT_CONFIG", "")
	t.Setenv("SERVER_PORT", "notanumber")

	var stderr bytes.Buffer
	var called bool
	code := Main(context.Background(), &stderr, noopRunner(&called))

	assert.Equal(t, 1, code)
	assert.False(t, called)
	assert.Contains(t, stderr.String(), "Error: load config: invalid SERVER_PORT")
}

func TestMainReportsInvalidConfig(t *testing.T) {
	t.Setenv("WORDCOUNT_CONFIG", "")
	t.Setenv("QUEUE_CONCURRENCY", "0")
	t.Setenv("LOG_LEVEL", "loud")

	var stderr bytes.Buffer
	var called bool
	code := Main(context.Background(), &stderr, noopRunner(&called))

	assert.Equal(t, 1, code)
	assert.False(t, called)
	assert.Contains(t, stderr.String(), "Error: invalid configuration")
	assert.Contains(t, stderr.String(), "queue concurrency 0")
	assert.Contains(t, stderr.String(), `unknown log level "loud"`)
}

func TestMainReportsRunFailure(t *testing.T) {
	t.Setenv("WORDCOUNT_CONFIG", "")
	t.Setenv("LOG_LEVEL", "error")

	var stderr bytes.Buffer
	code := Main(context.Background(), &stderr, func(context.Context, *config.Config, *zap.Logger) error {
		return errors.New("listen: address already in use")
	})

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error: listen: address already in use")
}

func TestMainRunsProcess(t *testing.T) {
	t.Setenv("WORDCOUNT_CONFIG", "")
	t.Setenv("COUNTER_PARALLELISM", "3")
	t.Setenv("LOG_LEVEL", "error")

	var stderr bytes.Buffer
	var got *config.Config
	code := Main(context.Background(), &stderr, func(_ context.Context, cfg *config.Config, logger *zap.Logger) error {
		got = cfg
		assert.NotNil(t, logger)
		return nil
	})

	assert.Equal(t, 0, code)
	assert.Empty(t, stderr.String())
	if assert.NotNil(t, got) {
		assert.Equal(t, 3, got.Counter.Parallelism)
	}
}
