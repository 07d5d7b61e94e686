// Package romanji converts hiragana to Latin-alphabet romanization.
//
// A Converter is configured once with a set of lookup tables and is then
// safe for concurrent use. Conversion is best effort: kana that the tables do
// not cover contribute nothing to the output and are reported through
// Result.Misses instead of failing the call.
package romanji

import (
	"unicode/utf8"

	"github.com/jusunglee/romanji/internal/romanji/tables"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const smallTsu = 'っ'

// comboWindow bounds how many codepoints a single unit may span.
const comboWindow = 3

// edible kana may be appended to the preceding kana to form one unit.
var edible = map[rune]struct{}{
	'ゃ': {}, 'ゅ': {}, 'ょ': {},
	'ぇ': {}, 'ぃ': {},
	'あ': {}, 'い': {}, 'う': {}, 'え': {}, 'お': {},
}

func isEdible(r rune) bool {
	_, ok := edible[r]
	return ok
}

// Converter romanizes kana using a fixed set of tables.
type Converter struct {
	t        tables.Tables
	maxWidth int
}

// Result is the outcome of a single conversion.
type Result struct {
	Romanji string
	// Misses lists the units that had no base conversion, in scan order.
	Misses []string
}

// New returns a Converter for t. The tables are not validated and must not be
// modified afterwards.
func New(t tables.Tables) *Converter {
	return &Converter{
		t:        t,
		maxWidth: min(t.MaxKeyWidth(), comboWindow),
	}
}

// NewHepburn returns a Converter using the built-in Hepburn tables.
func NewHepburn() *Converter {
	return New(tables.Hepburn())
}

// Convert romanizes input. word may be nil.
func (c *Converter) Convert(input string, word Word) string {
	return c.ConvertResult(input, word).Romanji
}

// ConvertResult romanizes input and reports table misses.
func (c *Converter) ConvertResult(input string, word Word) Result {
	if word == nil {
		word = Meta{}
	}

	chars := []rune(input)
	n := len(chars)
	out := make([]byte, 0, len(input))
	var misses []string

	skip := 0
	for i := 0; i < n; i++ {
		i += skip
		if i >= n {
			break
		}

		unit, eaten := c.resolve(chars, i)
		skip = eaten

		hasNext := i+1 < n
		if chars[i] == smallTsu && hasNext && c.has(string(chars[i+1])) {
			out = append(out, c.geminate(chars[i+1])...)
			continue
		}

		converted, ok := c.t.Conversions[unit]
		if !ok {
			misses = append(misses, unit)
		}

		if converted == "n" && hasNext {
			converted = c.nasal(chars[i+1])
		}

		if word.PartOfSpeech() == Postposition {
			if p, ok := c.t.Particles[converted]; ok {
				converted = p
			}
		}

		if key, ok := c.verbCombo(converted, out, word, i); ok {
			_, size := utf8.DecodeLastRune(out)
			out = out[:len(out)-size]
			converted = c.t.VerbCombos[key]
		}

		out = append(out, converted...)
	}

	romanji := string(out)
	if word.PartOfSpeech() == ProperNoun {
		romanji = cases.Title(language.Und).String(romanji)
	}
	return Result{Romanji: romanji, Misses: misses}
}

// resolve greedily extends the unit at chars[i] with following edible kana
// while the extension stays a known conversion. It returns the unit and the
// number of extra codepoints it consumed.
func (c *Converter) resolve(chars []rune, i int) (string, int) {
	unit := string(chars[i])
	eaten := 0
	for w := 1; w < c.maxWidth && i+w < len(chars); w++ {
		r := chars[i+w]
		if !isEdible(r) {
			break
		}
		combo := unit + string(r)
		if !c.has(combo) {
			break
		}
		unit = combo
		eaten++
	}
	return unit, eaten
}

func (c *Converter) has(unit string) bool {
	_, ok := c.t.Conversions[unit]
	return ok
}

// geminate returns the consonant a small tsu contributes before next.
func (c *Converter) geminate(next rune) string {
	first, ok := firstLetter(c.t.Conversions[string(next)])
	if !ok {
		return ""
	}
	if v, ok := c.t.Tsu[first]; ok {
		return v
	}
	return first
}

// nasal returns the form of "n" before next.
func (c *Converter) nasal(next rune) string {
	first, ok := firstLetter(c.t.Conversions[string(next)])
	if !ok {
		return "n"
	}
	if v, ok := c.t.Nasal[first]; ok {
		return v
	}
	return "n"
}

// verbCombo reports whether converted merges into the previously emitted
// vowel, and the verb combo key to replace it with.
func (c *Converter) verbCombo(converted string, out []byte, word Word, i int) (string, bool) {
	last, size := utf8.DecodeLastRune(out)
	if size == 0 {
		return "", false
	}
	prev := string(last)

	key := converted
	switch {
	case converted == prev:
	case converted == "u" && prev == "o":
		key = "o"
	default:
		return "", false
	}

	if _, ok := c.t.VerbCombos[converted]; !ok {
		return "", false
	}
	if r, ok := word.PronunciationAt(i); !ok || r != LongVowelMark {
		return "", false
	}
	return key, true
}

func firstLetter(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return string(r), true
}
