// Package discord adapts Discord gateway events to the message and command services.
package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/Samuelzila/grammar-police/common/logger"
	"github.com/Samuelzila/grammar-police/internal/model"
	"github.com/Samuelzila/grammar-police/internal/service"
)

// Intents the bot needs to read message text in guild channels.
const Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

// interactionResponder is the subset of *discordgo.Session used to answer commands.
type interactionResponder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// commandRegistrar is the subset of *discordgo.Session used to register commands.
type commandRegistrar interface {
	ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
}

type Handler struct {
	ctx      context.Context
	messages service.MessageIngestService
	commands service.CommandService
}

func NewHandler(ctx context.Context, messages service.MessageIngestService, commands service.CommandService) *Handler {
	return &Handler{
		ctx:      logger.WithLogFields(ctx, logger.LogFields{Component: "grammar.discord"}),
		messages: messages,
		commands: commands,
	}
}

// Register attaches the gateway callbacks to s.
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		h.RegisterCommands(s, r.User.ID)
	})
	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		self := ""
		if s.State != nil && s.State.User != nil {
			self = s.State.User.ID
		}
		h.HandleMessage(m.Message, self)
	})
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		h.HandleInteraction(s, i)
	})
}

// RegisterCommands creates the global slash commands. Failures are logged, the
// bot keeps serving messages without them.
func (h *Handler) RegisterCommands(r commandRegistrar, appID string) {
	for _, cmd := range ApplicationCommands(service.CommandDefinitions()) {
		if _, err := r.ApplicationCommandCreate(appID, "", cmd); err != nil {
			slog.ErrorContext(h.ctx, "failed to register command", "error", err, "command", cmd.Name)
			continue
		}
		slog.InfoContext(h.ctx, "command registered", "command", cmd.Name)
	}
}

// HandleMessage forwards a new message to the pipeline. Bot authors, including
// this bot, are skipped.
func (h *Handler) HandleMessage(m *discordgo.Message, selfID string) {
	params, ok := MessageParams(m, selfID)
	if !ok {
		return
	}

	ctx := logger.WithLogFields(h.ctx, logger.LogFields{
		SenderID:  logger.Ptr(params.SenderID.String()),
		ChannelID: logger.Ptr(params.ChannelID),
		EventType: logger.Ptr("message_created"),
	})

	if _, err := h.messages.Ingest(ctx, params); err != nil {
		slog.ErrorContext(ctx, "failed to ingest discord message", "error", err)
	}
}

func (h *Handler) HandleInteraction(r interactionResponder, i *discordgo.InteractionCreate) {
	req, ok := CommandRequest(i)
	if !ok {
		return
	}

	ctx := logger.WithLogFields(h.ctx, logger.LogFields{
		SenderID:  logger.Ptr(req.SenderID.String()),
		EventType: logger.Ptr("command"),
	})

	resp, err := h.commands.Handle(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "command failed", "error", err, "command", req.Name)
		return
	}

	if err := r.InteractionRespond(i.Interaction, InteractionResponse(resp)); err != nil {
		slog.ErrorContext(ctx, "failed to respond to interaction", "error", err, "command", req.Name)
	}
}

func ApplicationCommands(defs []service.CommandDefinition) []*discordgo.ApplicationCommand {
	cmds := make([]*discordgo.ApplicationCommand, 0, len(defs))
	for _, def := range defs {
		cmd := &discordgo.ApplicationCommand{
			Name:        def.Name,
			Description: def.Description,
		}
		for _, opt := range def.Options {
			cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        opt.Name,
				Description: opt.Description,
				Required:    opt.Required,
			})
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func MessageParams(m *discordgo.Message, selfID string) (service.MessageIngestParams, bool) {
	if m == nil || m.Author == nil || m.Author.Bot || m.Author.ID == selfID {
		return service.MessageIngestParams{}, false
	}

	return service.MessageIngestParams{
		Platform:  model.PlatformDiscord,
		SenderID:  model.SenderID(m.Author.ID),
		Content:   m.Content,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		GuildID:   m.GuildID,
	}, true
}

// CommandRequest extracts a slash command invocation. The invoker is the guild
// member, or the user for commands run in a DM.
func CommandRequest(i *discordgo.InteractionCreate) (service.CommandRequest, bool) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return service.CommandRequest{}, false
	}

	var sender string
	switch {
	case i.Member != nil && i.Member.User != nil:
		sender = i.Member.User.ID
	case i.User != nil:
		sender = i.User.ID
	default:
		return service.CommandRequest{}, false
	}

	data := i.ApplicationCommandData()
	req := service.CommandRequest{
		Name:     data.Name,
		SenderID: model.SenderID(sender),
	}
	for _, opt := range data.Options {
		if opt.Type != discordgo.ApplicationCommandOptionString {
			continue
		}
		if req.Options == nil {
			req.Options = make(map[string]string)
		}
		req.Options[opt.Name] = opt.StringValue()
	}
	return req, true
}

func InteractionResponse(resp service.CommandResponse) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{Content: resp.Content}
	if resp.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}
