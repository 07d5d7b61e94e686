package transliteration

import (
	"strings"
	"unicode"

	"github.com/jusunglee/romanji/internal/romanji"
	"github.com/samber/lo"
)

// Token is one segmented, tagged word as produced by an external tokenizer.
type Token struct {
	Surface       string `json:"surface"`
	POS           string `json:"part_of_speech"`
	Pronunciation string `json:"pronunciation"`
}

// Word exposes the token's metadata to the converter.
func (t Token) Word() romanji.Meta {
	return romanji.Meta{POS: t.POS, Pronunciation: t.Pronunciation}
}

type Transliterator struct {
	conv *romanji.Converter
}

func New(conv *romanji.Converter) *Transliterator {
	return &Transliterator{conv: conv}
}

// Token romanizes a single token. Tokens without kana are returned as is.
func (t *Transliterator) Token(tok Token) string {
	if detectScript(tok.Surface) != "japanese" {
		return tok.Surface
	}
	return t.conv.Convert(tok.Surface, tok.Word())
}

// Sentence romanizes tokens and joins them with single spaces, dropping
// tokens that romanize to nothing.
func (t *Transliterator) Sentence(tokens []Token) string {
	parts := lo.FilterMap(tokens, func(tok Token, _ int) (string, bool) {
		s := t.Token(tok)
		return s, s != ""
	})
	return strings.Join(parts, " ")
}

var hepburn = romanji.NewHepburn()

// Transliterate romanizes text with the built-in Hepburn tables and no word
// metadata. Returns empty string for text without kana.
func Transliterate(text string) string {
	if detectScript(text) != "japanese" {
		return ""
	}
	return hepburn.Convert(text, nil)
}

// ContainsKana reports whether s has any hiragana.
func ContainsKana(s string) bool {
	return detectScript(s) == "japanese"
}

func detectScript(text string) string {
	for _, r := range text {
		if unicode.Is(unicode.Hiragana, r) {
			return "japanese"
		}
	}
	return "latin"
}
