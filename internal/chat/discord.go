package chat

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Samuelzila/grammar-police/internal/model"
)

// discordSender is the subset of *discordgo.Session used to reply.
type discordSender interface {
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordReplier answers a message with a Discord reply, which quotes the original.
// It only needs the REST half of a session, so workers can use it without a gateway.
type DiscordReplier struct {
	session discordSender
}

func NewDiscordReplier(session discordSender) *DiscordReplier {
	return &DiscordReplier{session: session}
}

func (r *DiscordReplier) Reply(ctx context.Context, msg model.InboundMessage, content string) error {
	if msg.ChannelID == "" || msg.MessageID == "" {
		return &DeliveryError{Platform: model.PlatformDiscord, Err: fmt.Errorf("message has no channel or message id")}
	}

	ref := &discordgo.MessageReference{
		MessageID: msg.MessageID,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
	}
	if _, err := r.session.ChannelMessageSendReply(msg.ChannelID, content, ref, discordgo.WithContext(ctx)); err != nil {
		return &DeliveryError{Platform: model.PlatformDiscord, Err: err}
	}
	return nil
}
