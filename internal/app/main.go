package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/nikhilbhutani/wordcount/internal/config"
	"github.com/nikhilbhutani/wordcount/internal/logging"
)

// Runner is a long-running process such as RunAPI or RunWorker.
type Runner func(ctx context.Context, cfg *config.Config, logger *zap.Logger) error

// Main loads configuration, builds the logger and calls run. Failures before
// the logger exists are written to stderr. It returns the process exit code.
func Main(ctx context.Context, stderr io.Writer, run Runner) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: load config: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("process failed", zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
