package literal

import (
	"errors"
	"regexp/syntax"
	"strings"
)

// ErrNotFinite is returned by Expand when a pattern does not denote a small
// finite set of literals. Callers treat it as a signal to fall back to a
// general regex matcher; it never indicates an invalid pattern.
var ErrNotFinite = errors.New("literal: pattern is not a finite literal set")

// maxDepth bounds recursion over deeply nested patterns.
const maxDepth = 100

// ExtractorConfig configures extraction limits.
//
// These limits keep decomposition cheap:
//   - MaxLiterals: caps the size of an expanded set such as (a|b)(c|d)(e|f)
//   - MaxLiteralLen: caps the length of one literal
//   - MaxClassSize: caps the size of a character class that is expanded
//
// Example:
//
//	config := literal.ExtractorConfig{
//	    MaxLiterals:   256,
//	    MaxLiteralLen: 64,
//	    MaxClassSize:  10,
//	}
//	extractor := literal.New(config)
type ExtractorConfig struct {
	// MaxLiterals limits the number of literals in an expanded set.
	// Default: 256.
	MaxLiterals int

	// MaxLiteralLen limits the byte length of each literal.
	// Default: 64.
	MaxLiteralLen int

	// MaxClassSize limits the size of character classes to expand.
	// [aeiou] is expanded; [a-z] (26 characters) is not under the default.
	// Default: 10.
	MaxClassSize int
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:   256,
		MaxLiteralLen: 64,
		MaxClassSize:  10,
	}
}

// Extractor analyzes regexp/syntax trees.
//
// Example:
//
//	re, _ := syntax.Parse("(hello|world)s?", syntax.Perl)
//	seq, err := literal.New(literal.DefaultConfig()).Expand(re)
//	// seq = ["hello", "hellos", "world", "worlds"], err = nil
type Extractor struct {
	config ExtractorConfig
}

// New creates an Extractor with the given configuration.
func New(config ExtractorConfig) *Extractor {
	return &Extractor{config: config}
}

// Expand enumerates every string matched by re as a whole.
//
// Handled operations:
//   - OpLiteral: the literal itself (case-folded literals are rejected)
//   - OpEmptyMatch: the empty string
//   - OpCharClass: one literal per rune, for classes up to MaxClassSize
//   - OpCapture: the sub-expression
//   - OpConcat: the concatenation product of all parts
//   - OpAlternate: the union of all alternatives
//   - OpQuest: the sub-expression plus the empty string
//   - OpRepeat: bounded repetition {n,m}
//
// Anything else (unbounded repetition, wildcards, anchors, boundaries) or a
// result exceeding the limits returns ErrNotFinite. The result is sorted and
// free of duplicates.
//
// Examples:
//
//	"foo|bar"     → ["bar", "foo"]
//	"colou?r"     → ["color", "colour"]
//	"[ab]c"       → ["ac", "bc"]
//	"go+"         → ErrNotFinite
func (e *Extractor) Expand(re *syntax.Regexp) (*Seq, error) {
	seq, err := e.expand(re, 0)
	if err != nil {
		return nil, err
	}
	return seq.Dedup(), nil
}

func (e *Extractor) expand(re *syntax.Regexp, depth int) (*Seq, error) {
	if depth > maxDepth {
		return nil, ErrNotFinite
	}

	switch re.Op {
	case syntax.OpLiteral:
		if re.Flags&syntax.FoldCase != 0 {
			return nil, ErrNotFinite
		}
		s := string(re.Rune)
		if len(s) > e.config.MaxLiteralLen {
			return nil, ErrNotFinite
		}
		return NewSeq(NewLiteral(s, true)), nil

	case syntax.OpEmptyMatch:
		return NewSeq(NewLiteral("", true)), nil

	case syntax.OpCharClass:
		seq := e.expandCharClass(re)
		if seq == nil || seq.Len() > e.config.MaxLiterals {
			return nil, ErrNotFinite
		}
		return seq, nil

	case syntax.OpCapture:
		return e.expand(re.Sub[0], depth+1)

	case syntax.OpConcat:
		acc := NewSeq(NewLiteral("", true))
		for _, sub := range re.Sub {
			part, err := e.expand(sub, depth+1)
			if err != nil {
				return nil, err
			}
			if acc.Len()*part.Len() > e.config.MaxLiterals {
				return nil, ErrNotFinite
			}
			acc = acc.Cross(part)
		}
		return e.checkLen(acc)

	case syntax.OpAlternate:
		acc := NewSeq()
		for _, sub := range re.Sub {
			part, err := e.expand(sub, depth+1)
			if err != nil {
				return nil, err
			}
			acc = acc.Union(part)
			if acc.Len() > e.config.MaxLiterals {
				return nil, ErrNotFinite
			}
		}
		return acc, nil

	case syntax.OpQuest:
		part, err := e.expand(re.Sub[0], depth+1)
		if err != nil {
			return nil, err
		}
		if part.Len()+1 > e.config.MaxLiterals {
			return nil, ErrNotFinite
		}
		return NewSeq(NewLiteral("", true)).Union(part), nil

	case syntax.OpRepeat:
		if re.Max < 0 {
			return nil, ErrNotFinite
		}
		part, err := e.expand(re.Sub[0], depth+1)
		if err != nil {
			return nil, err
		}
		return e.expandRepeat(part, re.Min, re.Max)

	default:
		// OpStar, OpPlus, OpAnyChar, anchors and word boundaries.
		return nil, ErrNotFinite
	}
}

// expandRepeat unions part^n for n in [lo, hi].
func (e *Extractor) expandRepeat(part *Seq, lo, hi int) (*Seq, error) {
	out := NewSeq()
	power := NewSeq(NewLiteral("", true))
	for n := 0; n <= hi; n++ {
		if n > 0 {
			if power.Len()*part.Len() > e.config.MaxLiterals {
				return nil, ErrNotFinite
			}
			power = power.Cross(part)
		}
		if n >= lo {
			out = out.Union(power)
			if out.Len() > e.config.MaxLiterals {
				return nil, ErrNotFinite
			}
		}
	}
	return e.checkLen(out)
}

func (e *Extractor) checkLen(seq *Seq) (*Seq, error) {
	for _, l := range seq.Literals() {
		if l.Len() > e.config.MaxLiteralLen {
			return nil, ErrNotFinite
		}
	}
	return seq, nil
}

// expandCharClass expands a character class to one literal per rune.
//
// re.Rune holds inclusive range pairs [lo1, hi1, lo2, hi2, ...].
// Returns nil when the class exceeds MaxClassSize.
//
// Examples:
//
//	[abc]   → ["a", "b", "c"]
//	[a-z]   → nil (26 characters, over the default limit of 10)
func (e *Extractor) expandCharClass(re *syntax.Regexp) *Seq {
	count := 0
	for i := 0; i < len(re.Rune); i += 2 {
		count += int(re.Rune[i+1]-re.Rune[i]) + 1
		if count > e.config.MaxClassSize {
			return nil
		}
	}

	lits := make([]Literal, 0, count)
	for i := 0; i < len(re.Rune); i += 2 {
		for r := re.Rune[i]; r <= re.Rune[i+1]; r++ {
			lits = append(lits, NewLiteral(string(r), true))
		}
	}
	return NewSeq(lits...)
}

// ExtractInner extracts literals of which at least one must occur in any
// match of re. An empty result means no such guarantee could be derived.
//
// Unlike Expand, extraction never fails: unsupported constructs contribute
// nothing, and literals longer than MaxLiteralLen are truncated (a prefix of
// a required literal is still required).
//
// Examples:
//
//	".*foo.*"               → ["foo"]
//	"(hello|world)!"        → ["hello", "world"]
//	"\\bteh\\b"             → ["teh"]
//	"(foo|.*)"              → [] (the second branch requires nothing)
func (e *Extractor) ExtractInner(re *syntax.Regexp) *Seq {
	return e.extractInner(re, 0).Dedup()
}

func (e *Extractor) extractInner(re *syntax.Regexp, depth int) *Seq {
	if depth > maxDepth {
		return NewSeq()
	}

	switch re.Op {
	case syntax.OpLiteral:
		s := string(re.Rune)
		fold := re.Flags&syntax.FoldCase != 0
		if fold {
			s = strings.ToLower(s)
		}
		if len(s) > e.config.MaxLiteralLen {
			s = truncate(s, e.config.MaxLiteralLen)
		}
		return NewSeq(Literal{Value: s, FoldCase: fold})

	case syntax.OpCharClass:
		seq := e.expandCharClass(re)
		if seq == nil {
			return NewSeq()
		}
		for i := range seq.literals {
			seq.literals[i].Complete = false
		}
		return seq

	case syntax.OpConcat:
		// Any required part will do; prefer the most selective one.
		var best *Seq
		for _, sub := range re.Sub {
			seq := e.extractInner(sub, depth+1)
			if seq.IsEmpty() {
				continue
			}
			if best == nil || seq.MinLen() > best.MinLen() {
				best = seq
			}
		}
		if best == nil {
			return NewSeq()
		}
		return best

	case syntax.OpAlternate:
		acc := NewSeq()
		for _, sub := range re.Sub {
			seq := e.extractInner(sub, depth+1)
			if seq.IsEmpty() {
				return NewSeq()
			}
			acc = acc.Union(seq)
			if acc.Len() > e.config.MaxLiterals {
				return NewSeq()
			}
		}
		return acc

	case syntax.OpCapture, syntax.OpPlus:
		return e.extractInner(re.Sub[0], depth+1)

	case syntax.OpRepeat:
		if re.Min < 1 {
			return NewSeq()
		}
		return e.extractInner(re.Sub[0], depth+1)

	default:
		// Optional parts, wildcards and anchors guarantee nothing.
		return NewSeq()
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b < 0x80 || b >= 0xC0
}
