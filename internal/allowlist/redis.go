package allowlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Samuelzila/grammar-police/internal/model"
)

const DefaultRedisKey = "grammar_police:authorized_users"

// RedisBackend stores the allow-list as a JSON string under one key.
type RedisBackend struct {
	client *redis.Client
	key    string
}

func NewRedisBackend(client *redis.Client, key string) *RedisBackend {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{client: client, key: key}
}

func (b *RedisBackend) Load(ctx context.Context) ([]model.SenderID, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.SenderID{}, nil
		}
		return nil, fmt.Errorf("get %s: %w", b.key, err)
	}
	return decode(data)
}

func (b *RedisBackend) Save(ctx context.Context, senders []model.SenderID) error {
	data, err := encode(senders)
	if err != nil {
		return err
	}
	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", b.key, err)
	}
	return nil
}

// Update uses optimistic locking on the key; a concurrent writer makes the
// transaction fail with redis.TxFailedErr, which is retried a few times.
func (b *RedisBackend) Update(ctx context.Context, fn func([]model.SenderID) ([]model.SenderID, bool)) error {
	const maxAttempts = 5

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, b.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("get %s: %w", b.key, err)
		}
		senders, err := decode(data)
		if err != nil {
			return err
		}

		updated, changed := fn(senders)
		if !changed {
			return nil
		}
		encoded, err := encode(updated)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, b.key, encoded, 0)
			return nil
		})
		return err
	}

	for range maxAttempts {
		err := b.client.Watch(ctx, txf, b.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("updating %s: %w", b.key, err)
		}
		return nil
	}
	return fmt.Errorf("updating %s: too much contention", b.key)
}
