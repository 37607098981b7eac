package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Samuelzila/grammar-police/internal/http/dto"
	"github.com/Samuelzila/grammar-police/internal/model"
	"github.com/Samuelzila/grammar-police/internal/service"
)

type MessageHandler struct {
	service     service.MessageIngestService
	traceHeader string
}

func NewMessageHandler(service service.MessageIngestService, traceHeader string) *MessageHandler {
	return &MessageHandler{
		service:     service,
		traceHeader: traceHeader,
	}
}

func (h *MessageHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.IngestMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid message request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := service.MessageIngestParams{
		Platform:     model.Platform(req.Platform),
		SenderID:     model.SenderID(req.SenderID),
		Content:      req.Content,
		ChannelID:    req.ChannelID,
		MessageID:    req.MessageID,
		GuildID:      req.GuildID,
		ProjectID:    req.ProjectID,
		NoteableType: req.NoteableType,
		NoteableIID:  req.NoteableIID,
	}
	if traceID := c.GetHeader(h.traceHeader); traceID != "" {
		params.TraceID = &traceID
	}

	result, err := h.service.Ingest(ctx, params)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to ingest message", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest message"})
		return
	}

	c.JSON(http.StatusAccepted, dto.IngestMessageResponse{
		EventID: result.Message.EventID,
		TraceID: result.Message.TraceID,
	})
}
