package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Samuelzila/grammar-police/common/logger"
	"github.com/Samuelzila/grammar-police/internal/model"
)

const (
	CommandEnable  = "grammar_enable"
	CommandAddWord = "grammar_add_word"

	OptionWord = "word"

	EnableAck      = ":eyes:"
	NotImplemented = "This function is yet to be implemented."
)

type CommandOption struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// CommandDefinition describes a slash command independently of the chat platform
// registering it.
type CommandDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Options     []CommandOption `json:"options,omitempty"`
}

func CommandDefinitions() []CommandDefinition {
	return []CommandDefinition{
		{
			Name:        CommandEnable,
			Description: "Enable grammar policing for yourself and only yourself.",
		},
		{
			Name:        CommandAddWord,
			Description: "Add word to dictionary.",
			Options: []CommandOption{
				{Name: OptionWord, Description: "Word to add to dictionary."},
			},
		},
	}
}

type CommandRequest struct {
	Name     string            `json:"name"`
	SenderID model.SenderID    `json:"sender_id"`
	Options  map[string]string `json:"options,omitempty"`
}

// CommandResponse is the acknowledgment shown to the invoker only.
type CommandResponse struct {
	Content   string `json:"content"`
	Ephemeral bool   `json:"ephemeral"`
}

var ErrUnknownCommand = errors.New("unknown command")

type CommandService interface {
	Handle(ctx context.Context, req CommandRequest) (CommandResponse, error)
}

// SenderAuthorizer adds senders to the allow-list.
type SenderAuthorizer interface {
	Authorize(ctx context.Context, sender model.SenderID) error
}

type commandService struct {
	authorizer SenderAuthorizer
}

func NewCommandService(authorizer SenderAuthorizer) CommandService {
	return &commandService{authorizer: authorizer}
}

func (s *commandService) Handle(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SenderID:  logger.Ptr(req.SenderID.String()),
		EventType: logger.Ptr("command"),
		Component: "grammar.service.command",
	})

	switch req.Name {
	case CommandEnable:
		return s.enable(ctx, req.SenderID)
	case CommandAddWord:
		slog.InfoContext(ctx, "add word requested", "word", req.Options[OptionWord])
		return CommandResponse{Content: NotImplemented, Ephemeral: true}, nil
	default:
		return CommandResponse{}, fmt.Errorf("%w: %q", ErrUnknownCommand, req.Name)
	}
}

func (s *commandService) enable(ctx context.Context, sender model.SenderID) (CommandResponse, error) {
	if sender == "" {
		return CommandResponse{}, fmt.Errorf("enable: sender is required")
	}

	if err := s.authorizer.Authorize(ctx, sender); err != nil {
		return CommandResponse{}, fmt.Errorf("authorizing sender: %w", err)
	}

	slog.InfoContext(ctx, "sender enabled grammar checks")
	return CommandResponse{Content: EnableAck, Ephemeral: true}, nil
}
