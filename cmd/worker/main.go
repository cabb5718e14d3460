package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikhilbhutani/wordcount/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := app.Main(ctx, os.Stderr, app.RunWorker)
	stop()
	os.Exit(code)
}
