package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Samuelzila/grammar-police/common/logger"
	"github.com/Samuelzila/grammar-police/internal/model"
	"github.com/Samuelzila/grammar-police/internal/triage"
)

// Outcome is the terminal state a pipeline run ended in.
type Outcome string

const (
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeFailed       Outcome = "failed"
	OutcomeEmpty        Outcome = "empty"
	OutcomeEmitted      Outcome = "emitted"
)

// Authorizer decides whether a sender's messages are analyzed.
type Authorizer interface {
	IsAuthorized(ctx context.Context, sender model.SenderID) (bool, error)
}

// Analyzer returns candidate issues for a text.
type Analyzer interface {
	Check(ctx context.Context, text string) ([]model.Issue, error)
}

// Replier delivers the report back to the conversation.
type Replier interface {
	Reply(ctx context.Context, msg model.InboundMessage, content string) error
}

type Result struct {
	Outcome    Outcome
	Report     string
	Grammar    int
	Spelling   int
	Suppressed int
}

// Pipeline checks one message end to end. It holds no per-run state and is safe
// for concurrent use.
type Pipeline struct {
	authorizer Authorizer
	analyzer   Analyzer
	triager    *triage.Triager
	replier    Replier
}

func New(authorizer Authorizer, analyzer Analyzer, triager *triage.Triager, replier Replier) *Pipeline {
	return &Pipeline{
		authorizer: authorizer,
		analyzer:   analyzer,
		triager:    triager,
		replier:    replier,
	}
}

// Run executes the pipeline for msg. A non-nil error always comes with OutcomeFailed,
// or OutcomeUnauthorized when the allow-list could not be read.
func (p *Pipeline) Run(ctx context.Context, msg model.InboundMessage) (Result, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:   logger.Ptr(msg.EventID),
		SenderID:  logger.Ptr(msg.SenderID.String()),
		Platform:  logger.Ptr(string(msg.Platform)),
		Component: "grammar.pipeline",
	})

	span := logger.StartLinkedSpan(ctx, msg.TraceID, "pipeline.run")
	defer span.End()
	ctx = span.Context()

	start := time.Now()

	authorized, err := p.authorizer.IsAuthorized(ctx, msg.SenderID)
	if err != nil {
		span.Fail(err)
		return Result{Outcome: OutcomeUnauthorized}, fmt.Errorf("checking authorization: %w", err)
	}
	if !authorized {
		slog.DebugContext(ctx, "sender not authorized, skipping message")
		return Result{Outcome: OutcomeUnauthorized}, nil
	}

	issues, err := p.analyzer.Check(ctx, msg.Content)
	if err != nil {
		span.Fail(err)
		return Result{Outcome: OutcomeFailed}, fmt.Errorf("fetching candidates: %w", err)
	}

	triaged := p.triager.Triage(issues)
	result := Result{
		Grammar:    len(triaged.Grammar),
		Spelling:   len(triaged.Spelling),
		Suppressed: triaged.Suppressed,
	}

	report, ok := triaged.Report()
	if !ok {
		result.Outcome = OutcomeEmpty
		slog.DebugContext(ctx, "nothing to report",
			"candidates", len(issues),
			"suppressed", triaged.Suppressed)
		return result, nil
	}

	if err := p.replier.Reply(ctx, msg, report); err != nil {
		span.Fail(err)
		result.Outcome = OutcomeFailed
		return result, fmt.Errorf("sending report: %w", err)
	}

	result.Outcome = OutcomeEmitted
	result.Report = report

	slog.InfoContext(ctx, "correction report sent",
		"grammar_issues", result.Grammar,
		"spelling_issues", result.Spelling,
		"suppressed", result.Suppressed,
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
