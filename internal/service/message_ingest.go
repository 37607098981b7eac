package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/Samuelzila/grammar-police/common/id"
	"github.com/Samuelzila/grammar-police/internal/model"
	"github.com/Samuelzila/grammar-police/internal/queue"
)

type MessageIngestParams struct {
	Platform  model.Platform `json:"platform"`
	SenderID  model.SenderID `json:"sender_id"`
	Content   string         `json:"content"`
	ChannelID string         `json:"channel_id,omitempty"`
	MessageID string         `json:"message_id,omitempty"`
	GuildID   string         `json:"guild_id,omitempty"`

	ProjectID    int64  `json:"project_id,omitempty"`
	NoteableType string `json:"noteable_type,omitempty"`
	NoteableIID  int64  `json:"noteable_iid,omitempty"`

	TraceID *string `json:"trace_id,omitempty"`
}

type MessageIngestResult struct {
	Message model.InboundMessage
}

type MessageIngestService interface {
	Ingest(ctx context.Context, params MessageIngestParams) (*MessageIngestResult, error)
}

// Dispatcher hands an accepted message to whatever runs the pipeline: the redis
// stream in queue mode, a local goroutine in inline mode.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg model.InboundMessage) error
}

var ErrInvalidMessage = errors.New("invalid message")

type messageIngestService struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewMessageIngestService(dispatcher Dispatcher, logger *slog.Logger) MessageIngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &messageIngestService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *messageIngestService) Ingest(ctx context.Context, params MessageIngestParams) (*MessageIngestResult, error) {
	if err := validateIngest(params); err != nil {
		return nil, err
	}

	msg := model.InboundMessage{
		EventID:      id.New(),
		Platform:     params.Platform,
		SenderID:     params.SenderID,
		Content:      params.Content,
		ChannelID:    params.ChannelID,
		MessageID:    params.MessageID,
		GuildID:      params.GuildID,
		ProjectID:    params.ProjectID,
		NoteableType: params.NoteableType,
		NoteableIID:  params.NoteableIID,
	}

	if params.TraceID != nil && *params.TraceID != "" {
		msg.TraceID = *params.TraceID
	} else if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		msg.TraceID = sc.TraceID().String()
	}

	if err := s.dispatcher.Dispatch(ctx, msg); err != nil {
		return nil, fmt.Errorf("dispatching message: %w", err)
	}

	s.logger.DebugContext(ctx, "message ingested",
		"event_id", msg.EventID,
		"platform", msg.Platform,
		"sender_id", msg.SenderID)

	return &MessageIngestResult{Message: msg}, nil
}

func validateIngest(params MessageIngestParams) error {
	if params.SenderID == "" {
		return fmt.Errorf("%w: sender_id is required", ErrInvalidMessage)
	}

	switch params.Platform {
	case model.PlatformDiscord:
		if params.ChannelID == "" || params.MessageID == "" {
			return fmt.Errorf("%w: channel_id and message_id are required for discord", ErrInvalidMessage)
		}
	case model.PlatformGitLab:
		if params.ProjectID == 0 || params.NoteableIID == 0 || params.NoteableType == "" {
			return fmt.Errorf("%w: project_id, noteable_type and noteable_iid are required for gitlab", ErrInvalidMessage)
		}
	default:
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidMessage, params.Platform)
	}

	return nil
}

type queueDispatcher struct {
	producer queue.Producer
}

// NewQueueDispatcher publishes accepted messages on the redis stream.
func NewQueueDispatcher(producer queue.Producer) Dispatcher {
	return &queueDispatcher{producer: producer}
}

func (d *queueDispatcher) Dispatch(ctx context.Context, msg model.InboundMessage) error {
	return d.producer.Enqueue(ctx, msg)
}
