package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jusunglee/romanji/internal/db"
)

//go:embed schema.sql
var schemaSQL string

// Repository implements db.Repository using PostgreSQL via pgx
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL repository and ensures the schema exists
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	pool, err := db.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// PoolStats exposes connection pool statistics for metrics.
func (r *Repository) PoolStats() *pgxpool.Stat {
	return r.pool.Stat()
}

const romanizationColumns = `id, kana, part_of_speech, pronunciation, romanji, created_at`

func (r *Repository) GetRomanization(ctx context.Context, arg db.GetRomanizationParams) (db.Romanization, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+romanizationColumns+`
		FROM romanizations
		WHERE kana = $1 AND part_of_speech = $2 AND pronunciation = $3
	`, arg.Kana, arg.PartOfSpeech, arg.Pronunciation)
	return scanRomanization(row)
}

func (r *Repository) UpsertRomanization(ctx context.Context, arg db.UpsertRomanizationParams) (db.Romanization, error) {
	if arg.Kana == "" {
		return db.Romanization{}, db.ErrEmptyKana
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO romanizations (kana, part_of_speech, pronunciation, romanji)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (kana, part_of_speech, pronunciation)
		DO UPDATE SET romanji = EXCLUDED.romanji, created_at = now()
		RETURNING `+romanizationColumns,
		arg.Kana, arg.PartOfSpeech, arg.Pronunciation, arg.Romanji)
	return scanRomanization(row)
}

func (r *Repository) ListRomanizations(ctx context.Context, limit int32) ([]db.Romanization, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+romanizationColumns+`
		FROM romanizations
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (db.Romanization, error) {
		return scanRomanization(row)
	})
}

func (r *Repository) DeleteOldRomanizations(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM romanizations WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) RecordMiss(ctx context.Context, kana string) error {
	if kana == "" {
		return db.ErrEmptyKana
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO misses (kana) VALUES ($1)
		ON CONFLICT (kana)
		DO UPDATE SET hits = misses.hits + 1, last_seen = now()
	`, kana)
	return err
}

func (r *Repository) ListMisses(ctx context.Context, limit int32) ([]db.Miss, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT kana, hits, first_seen, last_seen
		FROM misses
		ORDER BY hits DESC, kana ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (db.Miss, error) {
		var m db.Miss
		err := row.Scan(&m.Kana, &m.Hits, &m.FirstSeen, &m.LastSeen)
		return m, err
	})
}

func scanRomanization(row pgx.Row) (db.Romanization, error) {
	var rz db.Romanization
	err := row.Scan(&rz.ID, &rz.Kana, &rz.PartOfSpeech, &rz.Pronunciation, &rz.Romanji, &rz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.Romanization{}, db.ErrNoRows
	}
	return rz, err
}
