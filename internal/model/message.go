package model

// Platform names the chat surface a message came from and must be answered on.
type Platform string

const (
	PlatformDiscord Platform = "discord"
	PlatformGitLab  Platform = "gitlab"
)

// InboundMessage is a new-message event handed over by a chat transport.
type InboundMessage struct {
	EventID   int64    `json:"event_id"`
	Platform  Platform `json:"platform"`
	SenderID  SenderID `json:"sender_id"`
	Content   string   `json:"content"`
	ChannelID string   `json:"channel_id,omitempty"`
	MessageID string   `json:"message_id,omitempty"`
	GuildID   string   `json:"guild_id,omitempty"`

	// GitLab notes are answered on the noteable they were posted on.
	ProjectID    int64  `json:"project_id,omitempty"`
	NoteableType string `json:"noteable_type,omitempty"`
	NoteableIID  int64  `json:"noteable_iid,omitempty"`

	TraceID string `json:"trace_id,omitempty"`
}
