package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Samuelzila/grammar-police/internal/model"
)

type Producer interface {
	Enqueue(ctx context.Context, msg model.InboundMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg model.InboundMessage) error {
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: messageValues(msg, 1),
	}).Err(); err != nil {
		return fmt.Errorf("enqueue message: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued message",
		"event_id", msg.EventID,
		"platform", msg.Platform,
		"sender_id", msg.SenderID)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
