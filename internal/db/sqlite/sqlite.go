package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jusunglee/romanji/internal/db"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Repository implements db.Repository using SQLite
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new SQLite repository
func New(ctx context.Context, dbPath string) (*Repository, error) {
	// Strip sqlite:// prefix if present
	dbPath = strings.TrimPrefix(dbPath, "sqlite://")

	isNew := false
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		isNew = true
	}

	sqliteDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening SQLite database: %w", err)
	}

	// Every connection to :memory: is a distinct database
	if dbPath == ":memory:" {
		sqliteDB.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := sqliteDB.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := sqliteDB.ExecContext(ctx, schemaSQL); err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	if isNew {
		slog.Info("created new SQLite database", "path", dbPath)
	}

	return &Repository{db: sqliteDB, now: time.Now}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

// Romanization methods

func (r *Repository) GetRomanization(ctx context.Context, arg db.GetRomanizationParams) (db.Romanization, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kana, part_of_speech, pronunciation, romanji, created_at
		FROM romanizations
		WHERE kana = ? AND part_of_speech = ? AND pronunciation = ?
	`, arg.Kana, arg.PartOfSpeech, arg.Pronunciation)
	return scanRomanization(row)
}

func (r *Repository) UpsertRomanization(ctx context.Context, arg db.UpsertRomanizationParams) (db.Romanization, error) {
	if arg.Kana == "" {
		return db.Romanization{}, db.ErrEmptyKana
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO romanizations (kana, part_of_speech, pronunciation, romanji, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (kana, part_of_speech, pronunciation)
		DO UPDATE SET romanji = excluded.romanji, created_at = excluded.created_at
	`, arg.Kana, arg.PartOfSpeech, arg.Pronunciation, arg.Romanji, r.timestamp())
	if err != nil {
		return db.Romanization{}, err
	}

	return r.GetRomanization(ctx, db.GetRomanizationParams{
		Kana:          arg.Kana,
		PartOfSpeech:  arg.PartOfSpeech,
		Pronunciation: arg.Pronunciation,
	})
}

func (r *Repository) ListRomanizations(ctx context.Context, limit int32) ([]db.Romanization, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kana, part_of_speech, pronunciation, romanji, created_at
		FROM romanizations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []db.Romanization
	for rows.Next() {
		rz, err := scanRomanization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rz)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteOldRomanizations(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM romanizations WHERE created_at < ?
	`, before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Miss methods

func (r *Repository) RecordMiss(ctx context.Context, kana string) error {
	if kana == "" {
		return db.ErrEmptyKana
	}

	ts := r.timestamp()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO misses (kana, hits, first_seen, last_seen)
		VALUES (?, 1, ?, ?)
		ON CONFLICT (kana)
		DO UPDATE SET hits = misses.hits + 1, last_seen = excluded.last_seen
	`, kana, ts, ts)
	return err
}

func (r *Repository) ListMisses(ctx context.Context, limit int32) ([]db.Miss, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kana, hits, first_seen, last_seen
		FROM misses
		ORDER BY hits DESC, kana ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []db.Miss
	for rows.Next() {
		var m db.Miss
		var firstSeenStr, lastSeenStr string
		if err := rows.Scan(&m.Kana, &m.Hits, &firstSeenStr, &lastSeenStr); err != nil {
			return nil, err
		}
		m.FirstSeen, _ = time.Parse(time.RFC3339, firstSeenStr)
		m.LastSeen, _ = time.Parse(time.RFC3339, lastSeenStr)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Scan helpers

type scanner interface {
	Scan(dest ...any) error
}

func scanRomanization(row scanner) (db.Romanization, error) {
	var rz db.Romanization
	var createdAtStr string
	err := row.Scan(&rz.ID, &rz.Kana, &rz.PartOfSpeech, &rz.Pronunciation, &rz.Romanji, &createdAtStr)
	if err == sql.ErrNoRows {
		return db.Romanization{}, db.ErrNoRows
	}
	if err != nil {
		return db.Romanization{}, err
	}
	rz.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
	return rz, nil
}
