package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/Samuelzila/grammar-police/internal/chat"
	"github.com/Samuelzila/grammar-police/internal/model"
	"github.com/Samuelzila/grammar-police/internal/service"
)

// GitLabSenderPrefix namespaces GitLab usernames on the shared allow-list.
const GitLabSenderPrefix = "gitlab:"

type GitLabWebhookHandler struct {
	secret      string
	eventIngest service.MessageIngestService
}

func NewGitLabWebhookHandler(secret string, eventIngest service.MessageIngestService) *GitLabWebhookHandler {
	return &GitLabWebhookHandler{
		secret:      secret,
		eventIngest: eventIngest,
	}
}

// HandleEvent accepts note (comment) hooks on issues and merge requests. Every
// other hook is acknowledged and ignored.
func (h *GitLabWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	token := c.GetHeader("X-Gitlab-Token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing webhook token"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook token"})
		return
	}

	eventType := gitlab.HookEventType(c.Request)
	if eventType != gitlab.EventTypeNote {
		slog.DebugContext(ctx, "ignoring gitlab hook", "event_type", eventType)
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "event type not supported"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var payload noteWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if payload.ObjectAttributes.System {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "system note ignored"})
		return
	}

	params, err := payload.ingestParams()
	if err != nil {
		slog.InfoContext(ctx, "gitlab note not answerable, ignoring",
			"error", err,
			"project_id", payload.ProjectID,
			"noteable_type", payload.ObjectAttributes.NoteableType)
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": err.Error()})
		return
	}

	result, err := h.eventIngest.Ingest(ctx, params)
	if err != nil {
		slog.ErrorContext(ctx, "failed to ingest gitlab note",
			"error", err,
			"project_id", payload.ProjectID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}

	slog.InfoContext(ctx, "gitlab note accepted",
		"event_id", result.Message.EventID,
		"project_id", params.ProjectID,
		"noteable_type", params.NoteableType,
		"noteable_iid", params.NoteableIID,
		"sender_id", params.SenderID)

	c.JSON(http.StatusOK, gin.H{"status": "ok", "event_id": result.Message.EventID})
}

type noteWebhookPayload struct {
	ObjectKind string `json:"object_kind"`
	ProjectID  int64  `json:"project_id"`
	User       struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	ObjectAttributes struct {
		ID           int64  `json:"id"`
		Note         string `json:"note"`
		NoteableType string `json:"noteable_type"`
		System       bool   `json:"system"`
	} `json:"object_attributes"`
	Issue struct {
		IID int64 `json:"iid"`
	} `json:"issue"`
	MergeRequest struct {
		IID int64 `json:"iid"`
	} `json:"merge_request"`
}

func (p noteWebhookPayload) ingestParams() (service.MessageIngestParams, error) {
	if p.User.Username == "" {
		return service.MessageIngestParams{}, errors.New("note has no author")
	}

	var iid int64
	switch p.ObjectAttributes.NoteableType {
	case chat.NoteableIssue:
		iid = p.Issue.IID
	case chat.NoteableMergeRequest:
		iid = p.MergeRequest.IID
	default:
		return service.MessageIngestParams{}, errors.New("noteable type not supported")
	}
	if iid == 0 {
		return service.MessageIngestParams{}, errors.New("no noteable iid found in payload")
	}

	return service.MessageIngestParams{
		Platform:     model.PlatformGitLab,
		SenderID:     model.SenderID(GitLabSenderPrefix + p.User.Username),
		Content:      p.ObjectAttributes.Note,
		ProjectID:    p.ProjectID,
		NoteableType: p.ObjectAttributes.NoteableType,
		NoteableIID:  iid,
	}, nil
}
