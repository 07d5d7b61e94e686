package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jusunglee/romanji/internal/cache"
	"github.com/jusunglee/romanji/internal/db"
	"github.com/jusunglee/romanji/internal/db/sqlite"
	"github.com/jusunglee/romanji/internal/romanji"
	"github.com/jusunglee/romanji/internal/transliteration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandlers(t *testing.T) (*RomanizeHandler, *CacheHandler, db.Repository) {
	t.Helper()
	repo, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	conv := romanji.NewHepburn()
	log := discardLogger()
	rh := NewRomanizeHandler(cache.New(conv, repo, log), transliteration.New(conv), log)
	return rh, NewCacheHandler(repo, log), repo
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRomanize(t *testing.T) {
	rh, _, _ := newTestHandlers(t)

	rec := post(rh.Romanize, `{"text":"とうきょう","part_of_speech":"proper noun","pronunciation":"トーキョー"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp romanizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Tōkyō", resp.Romanji)
	assert.False(t, resp.Cached)
	assert.Empty(t, resp.Misses)

	rec = post(rh.Romanize, `{"text":"とうきょう","part_of_speech":"proper noun","pronunciation":"トーキョー"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Cached)
}

func TestRomanizeReportsMisses(t *testing.T) {
	rh, ch, _ := newTestHandlers(t)

	rec := post(rh.Romanize, `{"text":"らーめん"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp romanizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ramen", resp.Romanji)
	assert.Equal(t, []string{"ー"}, resp.Misses)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/misses", nil)
	listRec := httptest.NewRecorder()
	ch.ListMisses(listRec, req)
	require.Equal(t, http.StatusOK, listRec.Code)

	var list struct {
		Data []missResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "ー", list.Data[0].Kana)
	assert.Equal(t, int64(1), list.Data[0].Hits)
}

func TestRomanizeValidation(t *testing.T) {
	rh, _, _ := newTestHandlers(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{`, "invalid JSON body"},
		{"missing text", `{"text":"  "}`, "text is required"},
		{"too long", `{"text":"` + strings.Repeat("か", 513) + `"}`, "text must be 512 characters or fewer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(rh.Romanize, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp["error"])
		})
	}
}

func TestSentence(t *testing.T) {
	rh, _, _ := newTestHandlers(t)

	rec := post(rh.Sentence, `{"tokens":[
		{"surface":"ほん","part_of_speech":"noun","pronunciation":"ホン"},
		{"surface":"を","part_of_speech":"postposition","pronunciation":"ヲ"},
		{"surface":"よむ","part_of_speech":"verb","pronunciation":"ヨム"}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hon o yomu", resp["romanji"])

	rec = post(rh.Sentence, `{"tokens":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRomanizations(t *testing.T) {
	rh, ch, _ := newTestHandlers(t)

	post(rh.Romanize, `{"text":"さくら"}`)
	post(rh.Romanize, `{"text":"は","part_of_speech":"postposition"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/romanizations?limit=10", nil)
	rec := httptest.NewRecorder()
	ch.ListRomanizations(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Data []romanizationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 2)

	byKana := map[string]string{}
	for _, rz := range list.Data {
		byKana[rz.Kana] = rz.Romanji
	}
	assert.Equal(t, map[string]string{"さくら": "sakura", "は": "wa"}, byKana)
}

func TestCacheHandlerWithoutRepository(t *testing.T) {
	ch := NewCacheHandler(nil, discardLogger())

	rec := httptest.NewRecorder()
	ch.ListMisses(rec, httptest.NewRequest(http.MethodGet, "/api/v1/misses", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
