package dto

type IngestMessageRequest struct {
	Platform  string `json:"platform" binding:"required"`
	SenderID  string `json:"sender_id" binding:"required"`
	Content   string `json:"content"`
	ChannelID string `json:"channel_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	GuildID   string `json:"guild_id,omitempty"`

	ProjectID    int64  `json:"project_id,omitempty"`
	NoteableType string `json:"noteable_type,omitempty"`
	NoteableIID  int64  `json:"noteable_iid,omitempty"`
}

type IngestMessageResponse struct {
	EventID int64  `json:"event_id"`
	TraceID string `json:"trace_id,omitempty"`
}
