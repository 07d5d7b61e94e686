package db

import (
	"context"
	"time"
)

// Romanization is a cached conversion result keyed by the kana and the word
// metadata it was converted with.
type Romanization struct {
	ID            int64
	Kana          string
	PartOfSpeech  string
	Pronunciation string
	Romanji       string
	CreatedAt     time.Time
}

type GetRomanizationParams struct {
	Kana          string
	PartOfSpeech  string
	Pronunciation string
}

type UpsertRomanizationParams struct {
	Kana          string
	PartOfSpeech  string
	Pronunciation string
	Romanji       string
}

// Miss counts how often a kana unit had no conversion.
type Miss struct {
	Kana      string
	Hits      int64
	FirstSeen time.Time
	LastSeen  time.Time
}

// Repository defines the interface for romanization cache operations
type Repository interface {
	// Romanizations
	GetRomanization(ctx context.Context, arg GetRomanizationParams) (Romanization, error)
	UpsertRomanization(ctx context.Context, arg UpsertRomanizationParams) (Romanization, error)
	ListRomanizations(ctx context.Context, limit int32) ([]Romanization, error)

	// Misses
	RecordMiss(ctx context.Context, kana string) error
	ListMisses(ctx context.Context, limit int32) ([]Miss, error)

	// Retention/Cleanup
	DeleteOldRomanizations(ctx context.Context, before time.Time) (int64, error)

	// Lifecycle
	Close() error
}
