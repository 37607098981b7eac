package dto

type CommandRequest struct {
	Name     string            `json:"name" binding:"required"`
	SenderID string            `json:"sender_id" binding:"required"`
	Options  map[string]string `json:"options,omitempty"`
}

type CommandResponse struct {
	Content   string `json:"content"`
	Ephemeral bool   `json:"ephemeral"`
}
