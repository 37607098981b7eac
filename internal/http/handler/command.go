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

type CommandHandler struct {
	service service.CommandService
}

func NewCommandHandler(service service.CommandService) *CommandHandler {
	return &CommandHandler{service: service}
}

func (h *CommandHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Handle(ctx, service.CommandRequest{
		Name:     req.Name,
		SenderID: model.SenderID(req.SenderID),
		Options:  req.Options,
	})
	if err != nil {
		if errors.Is(err, service.ErrUnknownCommand) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown command"})
			return
		}
		slog.ErrorContext(ctx, "command failed", "error", err, "command", req.Name)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "command failed"})
		return
	}

	c.JSON(http.StatusOK, dto.CommandResponse{
		Content:   resp.Content,
		Ephemeral: resp.Ephemeral,
	})
}

// List returns the registered command definitions.
func (h *CommandHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"commands": service.CommandDefinitions()})
}
