package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Samuelzila/grammar-police/common/logger"
	"github.com/Samuelzila/grammar-police/internal/queue"
)

type Config struct {
	Concurrency int
	RunTimeout  time.Duration
}

type Worker struct {
	consumer Consumer
	runner   Runner
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, runner Runner, cfg Config) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Worker{
		consumer:  consumer,
		runner:    runner,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "grammar.worker",
	})

	slog.InfoContext(ctx, "worker started", "concurrency", w.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

// processOneBatch runs every message of a batch concurrently; runs share nothing.
func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(w.cfg.Concurrency)

	for _, msg := range messages {
		g.Go(func() error {
			w.handle(ctx, msg)
			return nil
		})
	}

	return g.Wait()
}

func (w *Worker) handle(ctx context.Context, msg queue.Message) {
	if err := w.ProcessMessage(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "message processing failed",
			"error", err,
			"message_id", msg.ID,
			"event_id", msg.Inbound.EventID)
	}
}

// ProcessMessage runs the pipeline for msg and settles it on the stream.
//
// Failed runs are never retried: the message is acknowledged and a copy goes to
// the DLQ so a report is sent at most once.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID: logger.Ptr(msg.ID),
		EventID:   logger.Ptr(msg.Inbound.EventID),
		ChannelID: logger.Ptr(msg.Inbound.ChannelID),
	})

	runErr := w.runSafe(ctx, msg)
	if runErr == nil {
		if err := w.consumer.Ack(ctx, msg); err != nil {
			slog.WarnContext(ctx, "failed to ACK message", "error", err)
		}
		return nil
	}

	if err := w.consumer.SendDLQ(ctx, msg, runErr.Error()); err != nil {
		slog.ErrorContext(ctx, "failed to send to DLQ", "error", err)
		return fmt.Errorf("%w (dlq: %v)", runErr, err)
	}
	return runErr
}

func (w *Worker) runSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if w.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.RunTimeout)
		defer cancel()
	}

	result, err := w.runner.Run(ctx, msg.Inbound)
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "message processed", "outcome", result.Outcome)
	return nil
}
