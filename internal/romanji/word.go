package romanji

import "unicode/utf8"

// Parts of speech that change how a word is romanized.
const (
	Postposition = "postposition"
	ProperNoun   = "proper noun"
)

// LongVowelMark marks an elongated vowel in a pronunciation string.
const LongVowelMark = 'ー'

// Word is the metadata a converter needs about the word being romanized.
type Word interface {
	PartOfSpeech() string
	// PronunciationAt returns the pronunciation codepoint aligned with the
	// input codepoint at index i.
	PronunciationAt(i int) (rune, bool)
}

// Meta is a plain Word backed by two strings.
type Meta struct {
	POS           string
	Pronunciation string
}

func (m Meta) PartOfSpeech() string { return m.POS }

func (m Meta) PronunciationAt(i int) (rune, bool) {
	if i < 0 {
		return 0, false
	}
	for _, r := range m.Pronunciation {
		if i == 0 {
			return r, r != utf8.RuneError
		}
		i--
	}
	return 0, false
}
