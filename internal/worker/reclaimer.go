package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Samuelzila/grammar-police/common/logger"
	"github.com/Samuelzila/grammar-police/internal/queue"
)

// ErrAbandoned is the dead-letter reason for messages whose worker never finished.
var ErrAbandoned = errors.New("abandoned mid-run")

// Orphans is the part of the queue the reclaimer works on.
type Orphans interface {
	Reclaim(ctx context.Context, minIdle time.Duration) ([]queue.Message, error)
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

type ReclaimerConfig struct {
	MinIdle  time.Duration
	Interval time.Duration
}

// Reclaimer sweeps messages a worker read but never acknowledged, which happens
// when the process dies mid-run. That run may already have replied, and runs are
// not repeated, so the messages go to the dead-letter stream instead.
type Reclaimer struct {
	orphans Orphans
	cfg     ReclaimerConfig
}

func NewReclaimer(orphans Orphans, cfg ReclaimerConfig) *Reclaimer {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Reclaimer{orphans: orphans, cfg: cfg}
}

// Run sweeps every Interval until ctx is cancelled.
func (r *Reclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "grammar.worker.reclaimer",
	})

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"min_idle", r.cfg.MinIdle)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "reclaimer stopped")
			return
		case <-time.After(r.cfg.Interval):
		}

		moved, err := r.Sweep(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "reclaim sweep failed", "error", err, "moved", moved)
		}
	}
}

// Sweep moves every orphan idle for at least MinIdle to the dead-letter stream and
// returns how many it moved.
func (r *Reclaimer) Sweep(ctx context.Context) (int, error) {
	orphans, err := r.orphans.Reclaim(ctx, r.cfg.MinIdle)
	if err != nil {
		return 0, err
	}

	var (
		moved int
		errs  []error
	)
	for _, msg := range orphans {
		msgCtx := logger.WithLogFields(ctx, logger.LogFields{
			EventID:   logger.Ptr(msg.Inbound.EventID),
			MessageID: logger.Ptr(msg.ID),
			SenderID:  logger.Ptr(msg.Inbound.SenderID.String()),
		})

		reason := fmt.Sprintf("%s: delivered %d times", ErrAbandoned, msg.Attempt)
		if err := r.orphans.SendDLQ(msgCtx, msg, reason); err != nil {
			errs = append(errs, fmt.Errorf("dead-lettering %s: %w", msg.ID, err))
			continue
		}
		moved++
	}

	if moved > 0 {
		slog.WarnContext(ctx, "moved abandoned messages to DLQ", "count", moved)
	}
	return moved, errors.Join(errs...)
}
