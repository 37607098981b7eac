package worker

import (
	"context"

	"github.com/Samuelzila/grammar-police/internal/model"
	"github.com/Samuelzila/grammar-police/internal/pipeline"
	"github.com/Samuelzila/grammar-police/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Runner executes the grammar pipeline for one message.
type Runner interface {
	Run(ctx context.Context, msg model.InboundMessage) (pipeline.Result, error)
}
