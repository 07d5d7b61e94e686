package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/jusunglee/romanji/internal/cache"
	"github.com/jusunglee/romanji/internal/romanji"
	"github.com/jusunglee/romanji/internal/transliteration"
)

const (
	maxTextRunes = 512
	maxTokens    = 256
)

type RomanizeHandler struct {
	romanizer *cache.Romanizer
	translit  *transliteration.Transliterator
	log       *slog.Logger
}

func NewRomanizeHandler(romanizer *cache.Romanizer, translit *transliteration.Transliterator, log *slog.Logger) *RomanizeHandler {
	return &RomanizeHandler{romanizer: romanizer, translit: translit, log: log}
}

type romanizeRequest struct {
	Text          string `json:"text"`
	PartOfSpeech  string `json:"part_of_speech"`
	Pronunciation string `json:"pronunciation"`
}

type romanizeResponse struct {
	Romanji string   `json:"romanji"`
	Misses  []string `json:"misses"`
	Cached  bool     `json:"cached"`
}

func (h *RomanizeHandler) Romanize(w http.ResponseWriter, r *http.Request) {
	var req romanizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if utf8.RuneCountInString(req.Text) > maxTextRunes {
		writeError(w, http.StatusBadRequest, "text must be 512 characters or fewer")
		return
	}

	out, err := h.romanizer.Romanize(r.Context(), req.Text, romanji.Meta{
		POS:           req.PartOfSpeech,
		Pronunciation: req.Pronunciation,
	})
	if err != nil {
		h.log.ErrorContext(r.Context(), "romanizing", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	misses := out.Misses
	if misses == nil {
		misses = []string{}
	}
	writeJSON(w, http.StatusOK, romanizeResponse{
		Romanji: out.Romanji,
		Misses:  misses,
		Cached:  out.Cached,
	})
}

type sentenceRequest struct {
	Tokens []transliteration.Token `json:"tokens"`
}

func (h *RomanizeHandler) Sentence(w http.ResponseWriter, r *http.Request) {
	var req sentenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Tokens) == 0 {
		writeError(w, http.StatusBadRequest, "tokens are required")
		return
	}
	if len(req.Tokens) > maxTokens {
		writeError(w, http.StatusBadRequest, "at most 256 tokens are allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"romanji": h.translit.Sentence(req.Tokens)})
}
