// Package cache puts a romanization repository in front of a converter.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/jusunglee/romanji/internal/db"
	"github.com/jusunglee/romanji/internal/metrics"
	"github.com/jusunglee/romanji/internal/romanji"
	"github.com/samber/lo"
)

type Romanizer struct {
	conv *romanji.Converter
	repo db.Repository
	log  *slog.Logger
}

// New returns a Romanizer. A nil repo disables caching.
func New(conv *romanji.Converter, repo db.Repository, log *slog.Logger) *Romanizer {
	return &Romanizer{conv: conv, repo: repo, log: log}
}

type Output struct {
	Romanji string
	// Misses is empty for cached results.
	Misses []string
	Cached bool
}

// Romanize returns the cached romanization of text when one exists and
// converts it otherwise. Repository failures are logged and never fail the
// call; only a done context does.
func (r *Romanizer) Romanize(ctx context.Context, text string, word romanji.Meta) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	key := db.GetRomanizationParams{Kana: text, PartOfSpeech: word.POS, Pronunciation: word.Pronunciation}
	if r.repo != nil {
		cached, err := r.repo.GetRomanization(ctx, key)
		switch {
		case err == nil:
			metrics.ConversionsTotal.WithLabelValues("cache").Inc()
			return Output{Romanji: cached.Romanji, Cached: true}, nil
		case !db.IsNoRows(err):
			metrics.CacheErrorsTotal.WithLabelValues("get").Inc()
			r.log.WarnContext(ctx, "reading romanization cache", "kana", text, "error", err)
		}
	}

	start := time.Now()
	res := r.conv.ConvertResult(text, word)
	metrics.ConversionDuration.Observe(time.Since(start).Seconds())
	metrics.ConversionsTotal.WithLabelValues("converter").Inc()

	if len(res.Misses) > 0 {
		metrics.TableMissesTotal.Add(float64(len(res.Misses)))
		r.log.WarnContext(ctx, "kana without conversion", "kana", text, "misses", res.Misses)
	}

	if r.repo != nil {
		r.store(ctx, key, res)
	}

	return Output{Romanji: res.Romanji, Misses: res.Misses}, nil
}

func (r *Romanizer) store(ctx context.Context, key db.GetRomanizationParams, res romanji.Result) {
	_, err := r.repo.UpsertRomanization(ctx, db.UpsertRomanizationParams{
		Kana:          key.Kana,
		PartOfSpeech:  key.PartOfSpeech,
		Pronunciation: key.Pronunciation,
		Romanji:       res.Romanji,
	})
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("upsert").Inc()
		r.log.WarnContext(ctx, "writing romanization cache", "kana", key.Kana, "error", err)
	}

	for _, miss := range lo.Uniq(res.Misses) {
		if err := r.repo.RecordMiss(ctx, miss); err != nil {
			metrics.CacheErrorsTotal.WithLabelValues("record_miss").Inc()
			r.log.WarnContext(ctx, "recording table miss", "kana", miss, "error", err)
		}
	}
}
