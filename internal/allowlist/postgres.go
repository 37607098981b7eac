package allowlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Samuelzila/grammar-police/core/db"
	"github.com/Samuelzila/grammar-police/internal/model"
)

// The allow-list lives in a single-row table, see core/db/migrations.
const (
	ensureRowSQL              = `INSERT INTO allowlist (id) VALUES (1) ON CONFLICT DO NOTHING`
	selectSendersSQL          = `SELECT senders FROM allowlist WHERE id = 1`
	selectSendersForUpdateSQL = `SELECT senders FROM allowlist WHERE id = 1 FOR UPDATE`
	upsertSendersSQL          = `INSERT INTO allowlist (id, senders, updated_at) VALUES (1, $1, now())
ON CONFLICT (id) DO UPDATE SET senders = EXCLUDED.senders, updated_at = now()`
)

// PostgresBackend stores the allow-list as a JSONB array.
type PostgresBackend struct {
	db *db.DB
}

func NewPostgresBackend(database *db.DB) *PostgresBackend {
	return &PostgresBackend{db: database}
}

func (b *PostgresBackend) Load(ctx context.Context) ([]model.SenderID, error) {
	return loadRow(ctx, b.db.Pool(), selectSendersSQL)
}

func (b *PostgresBackend) Save(ctx context.Context, senders []model.SenderID) error {
	return saveRow(ctx, b.db.Pool(), senders)
}

// Update locks the row for the duration of the read-modify-write, so concurrent
// workers on other hosts cannot lose each other's additions. The row is created
// first when missing, otherwise there would be nothing to lock.
func (b *PostgresBackend) Update(ctx context.Context, fn func([]model.SenderID) ([]model.SenderID, bool)) error {
	return b.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, ensureRowSQL); err != nil {
			return fmt.Errorf("creating allow-list row: %w", err)
		}
		senders, err := loadRow(ctx, tx, selectSendersForUpdateSQL)
		if err != nil {
			return err
		}
		updated, changed := fn(senders)
		if !changed {
			return nil
		}
		return saveRow(ctx, tx, updated)
	})
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func loadRow(ctx context.Context, q querier, sql string) ([]model.SenderID, error) {
	var raw []byte
	if err := q.QueryRow(ctx, sql).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []model.SenderID{}, nil
		}
		return nil, fmt.Errorf("selecting allow-list: %w", err)
	}
	return decode(raw)
}

func saveRow(ctx context.Context, q querier, senders []model.SenderID) error {
	data, err := encode(senders)
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, upsertSendersSQL, string(data)); err != nil {
		return fmt.Errorf("upserting allow-list: %w", err)
	}
	return nil
}
