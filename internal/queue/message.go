package queue

import (
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/Samuelzila/grammar-police/internal/model"
)

// Message is one inbound chat message as stored on the stream.
type Message struct {
	ID      string
	Inbound model.InboundMessage
	Attempt int
	Raw     redis.XMessage
}

func ParseMessage(msg redis.XMessage) (Message, error) {
	eventID, err := parseInt64(msg.Values, "event_id")
	if err != nil {
		return Message{}, err
	}
	platform, err := parseString(msg.Values, "platform")
	if err != nil {
		return Message{}, err
	}
	sender, err := parseString(msg.Values, "sender_id")
	if err != nil {
		return Message{}, err
	}
	content, err := parseString(msg.Values, "content")
	if err != nil {
		return Message{}, err
	}

	channelID, _ := parseOptionalString(msg.Values, "channel_id")
	messageID, _ := parseOptionalString(msg.Values, "message_id")
	guildID, _ := parseOptionalString(msg.Values, "guild_id")
	noteableType, _ := parseOptionalString(msg.Values, "noteable_type")
	traceID, _ := parseOptionalString(msg.Values, "trace_id")

	projectID, err := parseOptionalInt64(msg.Values, "project_id")
	if err != nil {
		return Message{}, err
	}
	noteableIID, err := parseOptionalInt64(msg.Values, "noteable_iid")
	if err != nil {
		return Message{}, err
	}

	attempt, err := parseOptionalInt(msg.Values, "attempt")
	if err != nil {
		return Message{}, err
	}
	if attempt == 0 {
		attempt = 1
	}

	inbound := model.InboundMessage{
		EventID:      eventID,
		Platform:     model.Platform(platform),
		SenderID:     model.SenderID(sender),
		Content:      content,
		ChannelID:    channelID,
		MessageID:    messageID,
		GuildID:      guildID,
		ProjectID:    projectID,
		NoteableType: noteableType,
		NoteableIID:  noteableIID,
		TraceID:      traceID,
	}

	switch inbound.Platform {
	case model.PlatformDiscord:
		if channelID == "" || messageID == "" {
			return Message{}, fmt.Errorf("missing channel_id or message_id")
		}
	case model.PlatformGitLab:
		if projectID == 0 || noteableIID == 0 || noteableType == "" {
			return Message{}, fmt.Errorf("missing project_id, noteable_type or noteable_iid")
		}
	default:
		return Message{}, fmt.Errorf("unknown platform %q", platform)
	}

	return Message{
		ID:      msg.ID,
		Inbound: inbound,
		Attempt: attempt,
		Raw:     msg,
	}, nil
}

func messageValues(msg model.InboundMessage, attempt int) map[string]any {
	if attempt <= 0 {
		attempt = 1
	}

	values := map[string]any{
		"event_id":  msg.EventID,
		"platform":  string(msg.Platform),
		"sender_id": msg.SenderID.String(),
		"content":   msg.Content,
		"attempt":   attempt,
	}

	setIfNotEmpty(values, "channel_id", msg.ChannelID)
	setIfNotEmpty(values, "message_id", msg.MessageID)
	setIfNotEmpty(values, "guild_id", msg.GuildID)
	setIfNotEmpty(values, "noteable_type", msg.NoteableType)
	setIfNotEmpty(values, "trace_id", msg.TraceID)

	if msg.ProjectID != 0 {
		values["project_id"] = msg.ProjectID
	}
	if msg.NoteableIID != 0 {
		values["noteable_iid"] = msg.NoteableIID
	}

	return values
}

func setIfNotEmpty(values map[string]any, key, value string) {
	if value != "" {
		values[key] = value
	}
}

func parseInt64(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	num, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return fmt.Sprint(raw), nil
}

func parseOptionalInt64(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	num, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	num, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", nil
	}
	return fmt.Sprint(raw), nil
}
