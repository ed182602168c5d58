// Package sentence defines the tagged sentence model consumed by the matcher.
//
// A Sentence is an ordered list of Tokens without whitespace tokens. Each
// Token carries one or more Readings, one per interpretation produced by an
// external tagger. Index 0 always holds a synthetic sentence-start token with
// empty text and the SentenceStartTag reading, and the last token carries an
// extra SentenceEndTag reading.
package sentence

import (
	"strings"
	"unicode"
)

const (
	// SentenceStartTag is the POS tag of the synthetic first token.
	SentenceStartTag = "SENT_START"
	// SentenceEndTag is the POS tag of the extra reading on the last token.
	SentenceEndTag = "SENT_END"
)

// Reading is one interpretation of a token.
type Reading struct {
	Surface string `yaml:"surface,omitempty"`
	Lemma   string `yaml:"lemma,omitempty"`
	POS     string `yaml:"pos,omitempty"`
}

// HasTag reports whether the reading carries a POS tag.
func (r Reading) HasTag() bool { return r.POS != "" }

// HasNoTag reports whether the tagger knew nothing about the word.
func (r Reading) HasNoTag() bool { return r.POS == "" && r.Lemma == "" }

// Token is a positioned unit of a sentence.
type Token struct {
	// Readings holds at least one reading. All readings share the surface
	// text of the first one.
	Readings []Reading
	// Offset is the byte offset of the token in the sentence text.
	Offset int
	// WhitespaceBefore reports whether whitespace precedes the token.
	WhitespaceBefore bool
	// Immunized tokens were cleared by an earlier pass such as a
	// disambiguator and are never matched by pattern rules.
	Immunized bool
}

// NewToken creates a token at offset with the given readings. A token with
// no readings gets a single untagged reading of text.
func NewToken(text string, offset int, whitespaceBefore bool, readings ...Reading) *Token {
	if len(readings) == 0 {
		readings = []Reading{{Surface: text}}
	}
	rs := make([]Reading, len(readings))
	for i, r := range readings {
		r.Surface = text
		rs[i] = r
	}
	return &Token{Readings: rs, Offset: offset, WhitespaceBefore: whitespaceBefore}
}

// Text returns the surface text of the token.
func (t *Token) Text() string {
	if len(t.Readings) == 0 {
		return ""
	}
	return t.Readings[0].Surface
}

// EndOffset returns the byte offset just past the token.
func (t *Token) EndOffset() int { return t.Offset + len(t.Text()) }

// HasPOS reports whether any reading carries tag.
func (t *Token) HasPOS(tag string) bool {
	for _, r := range t.Readings {
		if r.POS == tag {
			return true
		}
	}
	return false
}

// IsSentenceStart reports whether t is the synthetic first token.
func (t *Token) IsSentenceStart() bool { return t.HasPOS(SentenceStartTag) }

// IsSentenceEnd reports whether t is the last token of its sentence.
func (t *Token) IsSentenceEnd() bool { return t.HasPOS(SentenceEndTag) }

// HasLemma reports whether any reading has the given lemma.
func (t *Token) HasLemma(lemma string) bool {
	for _, r := range t.Readings {
		if r.Lemma == lemma {
			return true
		}
	}
	return false
}

// Sentence is an immutable tagged sentence.
type Sentence struct {
	Tokens []*Token

	tokenSet map[string]struct{}
	lemmaSet map[string]struct{}
}

// New builds a sentence from tokens. It prepends the sentence-start token
// and appends a SentenceEndTag reading to the last token. The token slices
// are not copied; callers must not modify them afterwards.
func New(tokens ...*Token) *Sentence {
	all := make([]*Token, 0, len(tokens)+1)
	all = append(all, &Token{Readings: []Reading{{POS: SentenceStartTag}}})
	all = append(all, tokens...)
	if len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		if !last.IsSentenceEnd() {
			last.Readings = append(last.Readings, Reading{
				Surface: last.Text(),
				Lemma:   last.Readings[0].Lemma,
				POS:     SentenceEndTag,
			})
		}
	}

	s := &Sentence{
		Tokens:   all,
		tokenSet: make(map[string]struct{}, len(all)),
		lemmaSet: make(map[string]struct{}, len(all)),
	}
	for _, t := range all {
		s.tokenSet[strings.ToLower(t.Text())] = struct{}{}
		for _, r := range t.Readings {
			// An inflected test falls back to the surface of a reading
			// without a lemma.
			lemma := r.Lemma
			if lemma == "" {
				lemma = r.Surface
			}
			if lemma != "" {
				s.lemmaSet[strings.ToLower(lemma)] = struct{}{}
			}
		}
	}
	return s
}

// Len returns the number of tokens including the sentence-start token.
func (s *Sentence) Len() int { return len(s.Tokens) }

// HasToken reports whether some token has the lowercased surface text lower.
func (s *Sentence) HasToken(lower string) bool {
	_, ok := s.tokenSet[lower]
	return ok
}

// HasLemma reports whether some reading has the lowercased lemma lower.
// A reading without a lemma counts with its surface text.
func (s *Sentence) HasLemma(lower string) bool {
	_, ok := s.lemmaSet[lower]
	return ok
}

// Text reconstructs the sentence text from token offsets. Gaps between
// tokens are filled with single spaces.
func (s *Sentence) Text() string {
	var sb strings.Builder
	for _, t := range s.Tokens[1:] {
		for sb.Len() < t.Offset {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Text())
	}
	return sb.String()
}

// Parse splits text into untagged tokens at whitespace and punctuation.
// It is a convenience for tests and callers without a tagger; readings are
// usually supplied by an external tagger instead.
func Parse(text string) *Sentence {
	var tokens []*Token
	start := -1
	space := false
	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, NewToken(text[start:end], start, space))
			start = -1
			space = false
		}
	}
	for i, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush(i)
			space = true
		case unicode.IsPunct(r) && r != '\'' && r != '-':
			flush(i)
			tokens = append(tokens, NewToken(string(r), i, space))
			space = false
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(text))
	return New(tokens...)
}
