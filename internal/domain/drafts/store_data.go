package drafts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGCache struct {
	DB *pgxpool.Pool
}

func NewPGCache(db *pgxpool.Pool) *PGCache {
	return &PGCache{DB: db}
}

func (c *PGCache) Save(ctx context.Context, entry Entry) error {
	_, err := c.DB.Exec(ctx, `
    INSERT INTO evaluation_drafts (record_id, stage, payload, updated_at)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (record_id, stage)
    DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
  `, entry.Key.RecordID, entry.Key.Stage, []byte(entry.Payload), entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (c *PGCache) Load(ctx context.Context, key Key) (Entry, error) {
	entry := Entry{Key: key}
	var payload []byte
	err := c.DB.QueryRow(ctx, `
    SELECT payload, updated_at
    FROM evaluation_drafts
    WHERE record_id = $1 AND stage = $2
  `, key.RecordID, key.Stage).Scan(&payload, &entry.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	entry.Payload = payload
	return entry, nil
}

func (c *PGCache) Clear(ctx context.Context, key Key) error {
	if _, err := c.DB.Exec(ctx, "DELETE FROM evaluation_drafts WHERE record_id = $1 AND stage = $2", key.RecordID, key.Stage); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (c *PGCache) Keys(ctx context.Context) ([]Key, error) {
	rows, err := c.DB.Query(ctx, "SELECT record_id::text, stage FROM evaluation_drafts ORDER BY updated_at")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var key Key
		if err := rows.Scan(&key.RecordID, &key.Stage); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return keys, nil
}
