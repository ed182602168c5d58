// Package prefilter rejects sentences that cannot match a text-level regex
// rule before the regex runs.
//
// The literals come from literal.Extractor.ExtractInner: at least one of
// them occurs in every match. The builder picks a search strategy from
// them:
//   - Single byte → memchr
//   - Single substring → memmem
//   - Several literals → Aho-Corasick automaton
//
// Case-insensitive literals switch the prefilter into folding mode, where
// the haystack is lowercased before the search.
//
// Example usage:
//
//	re, _ := syntax.Parse(`\b(teh|hte)\b`, syntax.Perl)
//	inner := literal.New(literal.DefaultConfig()).ExtractInner(re)
//	pf := prefilter.NewBuilder(inner).Build()
//	if pf != nil && pf.Find([]byte(text), 0) < 0 {
//	    // text cannot match
//	}
package prefilter

import (
	"bytes"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/corerule/literal"
)

// Prefilter finds candidate positions where a required literal occurs.
//
// Key methods:
//   - Find: returns the next candidate position
//   - IsComplete: indicates if a literal hit is already a full match
//   - HeapBytes: returns memory usage for profiling
type Prefilter interface {
	// Find returns the index of the first candidate at or after start, or
	// -1 if no required literal occurs there. In folding mode the index
	// refers to the lowercased haystack.
	Find(haystack []byte, start int) int

	// IsComplete reports whether a hit guarantees a full match.
	IsComplete() bool

	// LiteralLen returns the length of the literal when IsComplete is
	// true, and 0 otherwise.
	LiteralLen() int

	// HeapBytes returns the heap memory held by the prefilter.
	HeapBytes() int
}

// Builder constructs a prefilter from required literals.
type Builder struct {
	seq *literal.Seq
}

// NewBuilder creates a builder for seq, which may be nil.
func NewBuilder(seq *literal.Seq) *Builder {
	return &Builder{seq: seq}
}

// Build returns the prefilter for the literals, or nil when they guarantee
// nothing (no literals, or an empty literal).
func (b *Builder) Build() Prefilter {
	return selectPrefilter(b.seq)
}

func selectPrefilter(seq *literal.Seq) Prefilter {
	if seq == nil || seq.IsEmpty() || seq.MinLen() == 0 {
		return nil
	}

	fold := seq.FoldCase()
	needles := make([][]byte, seq.Len())
	for i, l := range seq.Literals() {
		v := []byte(l.Value)
		if fold {
			v = bytes.ToLower(v)
		}
		needles[i] = v
	}

	var pf Prefilter
	switch {
	case len(needles) == 1 && len(needles[0]) == 1:
		pf = newMemchrPrefilter(needles[0][0], seq.Get(0).Complete && !fold)
	case len(needles) == 1:
		pf = newMemmemPrefilter(needles[0], seq.Get(0).Complete && !fold)
	default:
		pf = newAhoCorasickPrefilter(needles)
	}
	if pf == nil {
		return nil
	}
	if fold {
		return &foldPrefilter{inner: pf}
	}
	return pf
}

// memchrPrefilter searches for a single byte.
type memchrPrefilter struct {
	needle   byte
	complete bool
}

func newMemchrPrefilter(needle byte, complete bool) Prefilter {
	return &memchrPrefilter{needle: needle, complete: complete}
}

func (p *memchrPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := bytes.IndexByte(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

func (p *memchrPrefilter) IsComplete() bool { return p.complete }

func (p *memchrPrefilter) LiteralLen() int {
	if p.complete {
		return 1
	}
	return 0
}

func (p *memchrPrefilter) HeapBytes() int { return 0 }

// memmemPrefilter searches for a single substring.
type memmemPrefilter struct {
	needle   []byte
	complete bool
}

// newMemmemPrefilter copies needle to prevent aliasing.
func newMemmemPrefilter(needle []byte, complete bool) Prefilter {
	return &memmemPrefilter{needle: bytes.Clone(needle), complete: complete}
}

func (p *memmemPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := bytes.Index(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

func (p *memmemPrefilter) IsComplete() bool { return p.complete }

func (p *memmemPrefilter) LiteralLen() int {
	if p.complete {
		return len(p.needle)
	}
	return 0
}

func (p *memmemPrefilter) HeapBytes() int { return len(p.needle) }

// ahoCorasickPrefilter searches for any of several literals in one pass.
type ahoCorasickPrefilter struct {
	auto  *ahocorasick.Automaton
	bytes int
}

// newAhoCorasickPrefilter returns nil if the automaton cannot be built.
func newAhoCorasickPrefilter(needles [][]byte) Prefilter {
	builder := ahocorasick.NewBuilder()
	size := 0
	for _, n := range needles {
		builder.AddPattern(n)
		size += len(n)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	return &ahoCorasickPrefilter{auto: auto, bytes: size}
}

func (p *ahoCorasickPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	m := p.auto.Find(haystack, start)
	if m == nil {
		return -1
	}
	return m.Start
}

func (p *ahoCorasickPrefilter) IsComplete() bool { return false }

func (p *ahoCorasickPrefilter) LiteralLen() int { return 0 }

// HeapBytes approximates the automaton by its pattern bytes.
func (p *ahoCorasickPrefilter) HeapBytes() int { return p.bytes }

// foldPrefilter lowercases the haystack for case-insensitive literals.
type foldPrefilter struct {
	inner Prefilter
}

func (p *foldPrefilter) Find(haystack []byte, start int) int {
	return p.inner.Find(bytes.ToLower(haystack), start)
}

func (p *foldPrefilter) IsComplete() bool { return false }

func (p *foldPrefilter) LiteralLen() int { return 0 }

func (p *foldPrefilter) HeapBytes() int { return p.inner.HeapBytes() }
