package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/jusunglee/romanji/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

// fixedClock returns a clock that advances one minute per call.
func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(time.Minute)
		return now
	}
}

func TestRomanizationCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.UpsertRomanization(ctx, db.UpsertRomanizationParams{
		Kana:          "おもう",
		PartOfSpeech:  "verb",
		Pronunciation: "オモー",
		Romanji:       "omō",
	})
	require.NoError(t, err)
	assert.Equal(t, "おもう", created.Kana)
	assert.Equal(t, "omō", created.Romanji)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetRomanization(ctx, db.GetRomanizationParams{
		Kana:          "おもう",
		PartOfSpeech:  "verb",
		Pronunciation: "オモー",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	// Different metadata is a different entry
	_, err = repo.GetRomanization(ctx, db.GetRomanizationParams{
		Kana:         "おもう",
		PartOfSpeech: "verb",
	})
	assert.True(t, db.IsNoRows(err))
}

func TestUpsertRomanizationOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.UpsertRomanization(ctx, db.UpsertRomanizationParams{Kana: "は", PartOfSpeech: "postposition", Romanji: "ha"})
	require.NoError(t, err)

	second, err := repo.UpsertRomanization(ctx, db.UpsertRomanizationParams{Kana: "は", PartOfSpeech: "postposition", Romanji: "wa"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "wa", second.Romanji)

	all, err := repo.ListRomanizations(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertRomanizationRequiresKana(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.UpsertRomanization(context.Background(), db.UpsertRomanizationParams{Romanji: "ka"})
	assert.ErrorIs(t, err, db.ErrEmptyKana)
}

func TestListRomanizationsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	repo.now = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for _, kana := range []string{"か", "き", "く"} {
		_, err := repo.UpsertRomanization(ctx, db.UpsertRomanizationParams{Kana: kana, Romanji: kana})
		require.NoError(t, err)
	}

	list, err := repo.ListRomanizations(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "く", list[0].Kana)
	assert.Equal(t, "き", list[1].Kana)
}

func TestDeleteOldRomanizations(t *testing.T) {
	repo := newTestRepo(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = fixedClock(start)
	ctx := context.Background()

	for _, kana := range []string{"か", "き", "く"} {
		_, err := repo.UpsertRomanization(ctx, db.UpsertRomanizationParams{Kana: kana, Romanji: kana})
		require.NoError(t, err)
	}

	deleted, err := repo.DeleteOldRomanizations(ctx, start.Add(90*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.ListRomanizations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "く", remaining[0].Kana)
}

func TestRecordMiss(t *testing.T) {
	repo := newTestRepo(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = fixedClock(start)
	ctx := context.Background()

	require.NoError(t, repo.RecordMiss(ctx, "ー"))
	require.NoError(t, repo.RecordMiss(ctx, "ゟ"))
	require.NoError(t, repo.RecordMiss(ctx, "ー"))
	assert.ErrorIs(t, repo.RecordMiss(ctx, ""), db.ErrEmptyKana)

	misses, err := repo.ListMisses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, misses, 2)

	assert.Equal(t, "ー", misses[0].Kana)
	assert.Equal(t, int64(2), misses[0].Hits)
	assert.True(t, start.Equal(misses[0].FirstSeen))
	assert.True(t, start.Add(2*time.Minute).Equal(misses[0].LastSeen))

	assert.Equal(t, "ゟ", misses[1].Kana)
	assert.Equal(t, int64(1), misses[1].Hits)
}
