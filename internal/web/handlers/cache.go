package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jusunglee/romanji/internal/db"
	"github.com/samber/lo"
)

type CacheHandler struct {
	repo db.Repository
	log  *slog.Logger
}

func NewCacheHandler(repo db.Repository, log *slog.Logger) *CacheHandler {
	return &CacheHandler{repo: repo, log: log}
}

type romanizationResponse struct {
	Kana          string `json:"kana"`
	PartOfSpeech  string `json:"part_of_speech,omitempty"`
	Pronunciation string `json:"pronunciation,omitempty"`
	Romanji       string `json:"romanji"`
	CreatedAt     string `json:"created_at"`
}

type missResponse struct {
	Kana      string `json:"kana"`
	Hits      int64  `json:"hits"`
	FirstSeen string `json:"first_seen"`
	LastSeen  string `json:"last_seen"`
}

func (h *CacheHandler) ListRomanizations(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusNotFound, "cache is not configured")
		return
	}

	rows, err := h.repo.ListRomanizations(r.Context(), parseLimit(r))
	if err != nil {
		h.log.ErrorContext(r.Context(), "listing romanizations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	data := lo.Map(rows, func(rz db.Romanization, _ int) romanizationResponse {
		return romanizationResponse{
			Kana:          rz.Kana,
			PartOfSpeech:  rz.PartOfSpeech,
			Pronunciation: rz.Pronunciation,
			Romanji:       rz.Romanji,
			CreatedAt:     rz.CreatedAt.Format(time.RFC3339),
		}
	})
	writeJSON(w, http.StatusOK, struct {
		Data []romanizationResponse `json:"data"`
	}{Data: data})
}

func (h *CacheHandler) ListMisses(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusNotFound, "cache is not configured")
		return
	}

	misses, err := h.repo.ListMisses(r.Context(), parseLimit(r))
	if err != nil {
		h.log.ErrorContext(r.Context(), "listing misses", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	data := lo.Map(misses, func(m db.Miss, _ int) missResponse {
		return missResponse{
			Kana:      m.Kana,
			Hits:      m.Hits,
			FirstSeen: m.FirstSeen.Format(time.RFC3339),
			LastSeen:  m.LastSeen.Format(time.RFC3339),
		}
	})
	writeJSON(w, http.StatusOK, struct {
		Data []missResponse `json:"data"`
	}{Data: data})
}
