package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Samuelzila/grammar-police/common/logger"
)

type ConsumerConfig struct {
	Stream    string        // Redis stream name
	Group     string        // Redis consumer group name
	Consumer  string        // Redis consumer name
	DLQStream string        // Stream failed messages are copied to
	BatchSize int64         // Number of messages to process per batch
	Block     time.Duration // How long to block/poll for new messages
}

type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

func NewRedisConsumer(client *redis.Client, cfg ConsumerConfig) (*RedisConsumer, error) {
	consumer := &RedisConsumer{
		client: client,
		cfg:    cfg,
	}

	if err := consumer.ensureGroup(context.Background()); err != nil { //nolint:contextcheck
		return nil, err
	}

	return consumer, nil
}

func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	// Starting from "0" so a recreated group still sees what is already on the stream.
	if err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err(); err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "grammar.queue.consumer",
	})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		// Pending entries are swept by Reclaim.
		Streams: []string{c.cfg.Stream, ">"},
		Count:   c.cfg.BatchSize,
		Block:   c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, raw := range stream.Messages {
			if msg, ok := c.parse(ctx, raw); ok {
				messages = append(messages, msg)
			}
		}
	}

	if len(messages) > 0 {
		slog.DebugContext(ctx, "read messages from stream",
			"count", len(messages),
			"stream", c.cfg.Stream,
			"consumer", c.cfg.Consumer)
	}

	return messages, nil
}

// Reclaim takes over entries of any consumer in the group that have been pending
// for at least minIdle, up to BatchSize of them. Their Attempt is counted up since
// another consumer already received them.
func (c *RedisConsumer) Reclaim(ctx context.Context, minIdle time.Duration) ([]Message, error) {
	claimed, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.cfg.Stream,
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    c.cfg.BatchSize,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("xautoclaim (stream=%s): %w", c.cfg.Stream, err)
	}

	messages := make([]Message, 0, len(claimed))
	for _, raw := range claimed {
		msg, ok := c.parse(ctx, raw)
		if !ok {
			continue
		}
		msg.Attempt++
		messages = append(messages, msg)
	}
	return messages, nil
}

// parse decodes a stream entry. Entries that cannot be decoded are acknowledged
// and dropped so they are never read again.
func (c *RedisConsumer) parse(ctx context.Context, raw redis.XMessage) (Message, bool) {
	msg, err := ParseMessage(raw)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse message",
			"error", err,
			"raw_message_id", raw.ID,
			"stream", c.cfg.Stream)
		_ = c.Ack(ctx, Message{ID: raw.ID, Raw: raw})
		return Message{}, false
	}
	return msg, true
}

func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack (stream=%s): %w", c.cfg.Stream, err)
	}

	slog.DebugContext(ctx, "message acknowledged", "stream", c.cfg.Stream)
	return nil
}

func (c *RedisConsumer) SendDLQ(ctx context.Context, msg Message, errMsg string) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed message for dlq: %w", err)
	}

	values := messageValues(msg.Inbound, msg.Attempt)
	values["error"] = errMsg
	values["source_id"] = msg.ID

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.DLQStream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("xadd dlq (stream=%s): %w", c.cfg.DLQStream, err)
	}

	slog.WarnContext(ctx, "message copied to DLQ",
		"final_error", errMsg,
		"dlq_stream", c.cfg.DLQStream)
	return nil
}
