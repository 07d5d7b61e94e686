package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jusunglee/romanji/internal/db"
	"github.com/jusunglee/romanji/internal/db/sqlite"
	"github.com/jusunglee/romanji/internal/romanji"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetRomanization(ctx context.Context, arg db.GetRomanizationParams) (db.Romanization, error) {
	ret := m.Called(ctx, arg)
	return ret.Get(0).(db.Romanization), ret.Error(1)
}

func (m *MockRepository) UpsertRomanization(ctx context.Context, arg db.UpsertRomanizationParams) (db.Romanization, error) {
	ret := m.Called(ctx, arg)
	return ret.Get(0).(db.Romanization), ret.Error(1)
}

func (m *MockRepository) ListRomanizations(ctx context.Context, limit int32) ([]db.Romanization, error) {
	ret := m.Called(ctx, limit)
	return ret.Get(0).([]db.Romanization), ret.Error(1)
}

func (m *MockRepository) RecordMiss(ctx context.Context, kana string) error {
	return m.Called(ctx, kana).Error(0)
}

func (m *MockRepository) ListMisses(ctx context.Context, limit int32) ([]db.Miss, error) {
	ret := m.Called(ctx, limit)
	return ret.Get(0).([]db.Miss), ret.Error(1)
}

func (m *MockRepository) DeleteOldRomanizations(ctx context.Context, before time.Time) (int64, error) {
	ret := m.Called(ctx, before)
	return ret.Get(0).(int64), ret.Error(1)
}

func (m *MockRepository) Close() error {
	return m.Called().Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRomanizeWithoutRepository(t *testing.T) {
	r := New(romanji.NewHepburn(), nil, discardLogger())

	out, err := r.Romanize(context.Background(), "すし", romanji.Meta{POS: "noun"})
	require.NoError(t, err)
	assert.Equal(t, "sushi", out.Romanji)
	assert.False(t, out.Cached)
	assert.Empty(t, out.Misses)
}

func TestRomanizeCacheHit(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetRomanization", mock.Anything, db.GetRomanizationParams{Kana: "は", PartOfSpeech: "postposition"}).
		Return(db.Romanization{Kana: "は", Romanji: "wa"}, nil)

	r := New(romanji.NewHepburn(), repo, discardLogger())
	out, err := r.Romanize(context.Background(), "は", romanji.Meta{POS: "postposition"})
	require.NoError(t, err)

	assert.Equal(t, Output{Romanji: "wa", Cached: true}, out)
	repo.AssertNotCalled(t, "UpsertRomanization", mock.Anything, mock.Anything)
}

func TestRomanizeCacheMissStoresResultAndMisses(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetRomanization", mock.Anything, mock.Anything).Return(db.Romanization{}, db.ErrNoRows)
	repo.On("UpsertRomanization", mock.Anything, db.UpsertRomanizationParams{Kana: "らーめんー", Romanji: "ramen"}).
		Return(db.Romanization{}, nil)
	repo.On("RecordMiss", mock.Anything, "ー").Return(nil).Once()

	r := New(romanji.NewHepburn(), repo, discardLogger())
	out, err := r.Romanize(context.Background(), "らーめんー", romanji.Meta{})
	require.NoError(t, err)

	assert.Equal(t, "ramen", out.Romanji)
	assert.Equal(t, []string{"ー", "ー"}, out.Misses)
	repo.AssertExpectations(t)
	repo.AssertNumberOfCalls(t, "RecordMiss", 1)
}

func TestRomanizeRepositoryErrorsAreNotFatal(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetRomanization", mock.Anything, mock.Anything).Return(db.Romanization{}, errors.New("connection reset"))
	repo.On("UpsertRomanization", mock.Anything, mock.Anything).Return(db.Romanization{}, errors.New("connection reset"))

	r := New(romanji.NewHepburn(), repo, discardLogger())
	out, err := r.Romanize(context.Background(), "かさ", romanji.Meta{})
	require.NoError(t, err)
	assert.Equal(t, "kasa", out.Romanji)
}

func TestRomanizeCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(romanji.NewHepburn(), nil, discardLogger())
	_, err := r.Romanize(ctx, "かさ", romanji.Meta{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRomanizeWithSQLite(t *testing.T) {
	ctx := context.Background()
	repo, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	r := New(romanji.NewHepburn(), repo, discardLogger())
	word := romanji.Meta{POS: "verb", Pronunciation: "オモー"}

	first, err := r.Romanize(ctx, "おもう", word)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "omō", first.Romanji)

	second, err := r.Romanize(ctx, "おもう", word)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "omō", second.Romanji)
}
