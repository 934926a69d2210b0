package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/purplecheck/purple-check/app/pipeline"
)

// ProcessPostsTask drains the backlog of unprocessed posts through the
// classification pipeline. Posts are handled sequentially in a single task
// so that provider rate limits stay predictable; the inFlight guard keeps
// a second run from starting while one is active.
type ProcessPostsTask struct {
	Task
	pipe     *pipeline.Pipeline
	limit    int
	inFlight *atomic.Bool
}

func NewProcessPostsTask(pipe *pipeline.Pipeline, limit int, inFlight *atomic.Bool) *ProcessPostsTask {
	return &ProcessPostsTask{
		Task:     NewTask(TaskTypeProcessPosts, ""),
		pipe:     pipe,
		limit:    limit,
		inFlight: inFlight,
	}
}

func (t *ProcessPostsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.inFlight.CompareAndSwap(false, true) {
		slog.Debug("Post processing already running, skipping")
		return nil
	}
	defer t.inFlight.Store(false)

	processed, err := t.pipe.ProcessAll(ctx, t.limit)
	if err != nil {
		return fmt.Errorf("failed to process posts: %w", err)
	}

	slog.Info("Task completed",
		"type", "ProcessPosts",
		"duration", t.GetDuration(),
		"processed", processed)

	return nil
}
