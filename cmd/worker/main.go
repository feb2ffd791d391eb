package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"doc-embeddings/internal/app"
	"doc-embeddings/internal/httputil"
	"doc-embeddings/internal/pipeline"
	"doc-embeddings/internal/queue"
)

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("embedding worker starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeEmbed, embedTaskHandler(deps))
	})

	g.Go(func() error {
		return httputil.ServeHealth(ctx, deps.Log, "worker", deps.Config.HealthPort)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("worker stopped", "err", err)
	}
	if err := deps.Cache.Close(); err != nil {
		deps.Log.Warn("failed to close cache", "err", err)
	}
}

func embedTaskHandler(deps app.Deps) queue.Handler {
	return func(ctx context.Context, task queue.Task) error {
		var payload pipeline.TaskPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			// A malformed payload will never decode; do not retry it.
			deps.Log.Error("dropping malformed embed task", "id", task.ID, "err", err)
			return nil
		}
		return pipeline.Process(ctx, deps, payload, task.Final())
	}
}
