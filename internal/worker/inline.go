package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Samuelzila/grammar-police/common/logger"
	"github.com/Samuelzila/grammar-police/internal/model"
)

var ErrDispatcherClosed = errors.New("dispatcher closed")

// InlineDispatcher runs the pipeline in the receiving process, one goroutine per
// message, bounded by Config.Concurrency. Runs are detached from the caller's
// context so a finished gateway callback does not cancel them.
type InlineDispatcher struct {
	runner Runner
	cfg    Config
	base   context.Context

	mu     sync.RWMutex
	closed bool
	group  errgroup.Group
}

func NewInlineDispatcher(base context.Context, runner Runner, cfg Config) *InlineDispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	d := &InlineDispatcher{
		runner: runner,
		cfg:    cfg,
		base:   logger.WithLogFields(base, logger.LogFields{Component: "grammar.worker.inline"}),
	}
	d.group.SetLimit(cfg.Concurrency)
	return d
}

// Dispatch blocks only while the concurrency limit is reached.
func (d *InlineDispatcher) Dispatch(_ context.Context, msg model.InboundMessage) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	d.group.Go(func() error {
		d.run(msg)
		return nil
	})
	return nil
}

func (d *InlineDispatcher) run(msg model.InboundMessage) {
	ctx := d.base
	if d.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.RunTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in pipeline run", "panic", r, "event_id", msg.EventID)
		}
	}()

	start := time.Now()
	result, err := d.runner.Run(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "pipeline run failed",
			"error", err,
			"event_id", msg.EventID,
			"outcome", result.Outcome)
		return
	}

	slog.DebugContext(ctx, "pipeline run finished",
		"event_id", msg.EventID,
		"outcome", result.Outcome,
		"duration_ms", time.Since(start).Milliseconds())
}

// Close stops accepting messages and waits for in-flight runs.
func (d *InlineDispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	_ = d.group.Wait()
}
