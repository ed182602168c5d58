// Package literal decomposes regular expressions into literal strings.
//
// Two analyses are provided over the regexp/syntax AST:
//   - Expand enumerates the complete, finite language of a pattern, so that
//     "foo|ba[rz]" becomes {"foo", "bar", "baz"}. Token text matchers use
//     it to replace a regex with set membership.
//   - ExtractInner finds literals of which at least one must occur in any
//     match. Text-level regex rules use it as a prefilter.
//
// Key concepts:
//   - A Literal is a concrete string. Complete literals are whole matches,
//     incomplete ones are only necessary substrings.
//   - A Seq is a set of alternative literals.
package literal

import (
	"sort"
	"strings"
)

// Literal is a literal string extracted from a pattern.
//
// Example:
//   - Pattern /hello/ under Expand → Literal{"hello", Complete: true}
//   - Pattern /hello.*world/ under ExtractInner → Literal{"hello", Complete: false}
type Literal struct {
	// Value is the literal text.
	Value string

	// Complete reports whether the literal is an entire match of the pattern.
	Complete bool

	// FoldCase reports whether the literal came from a case-insensitive
	// part of the pattern and must be compared without case.
	FoldCase bool
}

// NewLiteral creates a Literal.
func NewLiteral(value string, complete bool) Literal {
	return Literal{Value: value, Complete: complete}
}

// Len returns the length of the literal in bytes.
func (l Literal) Len() int {
	return len(l.Value)
}

// String returns a debugging representation of the literal.
func (l Literal) String() string {
	complete := "false"
	if l.Complete {
		complete = "true"
	}
	return "literal{" + l.Value + ", complete=" + complete + "}"
}

// Seq is a set of alternative literals.
//
// Example:
//
//	seq := literal.NewSeq(
//	    literal.NewLiteral("foo", true),
//	    literal.NewLiteral("bar", true),
//	)
//	fmt.Println(seq.Len()) // Output: 2
type Seq struct {
	literals []Literal
}

// NewSeq creates a sequence from the given literals.
func NewSeq(lits ...Literal) *Seq {
	return &Seq{literals: lits}
}

// Len returns the number of literals in the sequence.
func (s *Seq) Len() int {
	if s == nil {
		return 0
	}
	return len(s.literals)
}

// IsEmpty reports whether the sequence has no literals.
func (s *Seq) IsEmpty() bool {
	return s.Len() == 0
}

// Get returns the literal at index i.
// Panics if i is out of range.
func (s *Seq) Get(i int) Literal {
	return s.literals[i]
}

// Literals returns the literals of the sequence.
func (s *Seq) Literals() []Literal {
	if s == nil {
		return nil
	}
	return s.literals
}

// Strings returns the literal values in sequence order.
func (s *Seq) Strings() []string {
	out := make([]string, s.Len())
	for i := range out {
		out[i] = s.literals[i].Value
	}
	return out
}

// FoldCase reports whether any literal must be compared without case.
func (s *Seq) FoldCase() bool {
	for _, l := range s.Literals() {
		if l.FoldCase {
			return true
		}
	}
	return false
}

// MinLen returns the length of the shortest literal, or 0 for an empty
// sequence.
func (s *Seq) MinLen() int {
	if s.IsEmpty() {
		return 0
	}
	m := s.literals[0].Len()
	for _, l := range s.literals[1:] {
		if l.Len() < m {
			m = l.Len()
		}
	}
	return m
}

// Dedup sorts the sequence by value and removes duplicate values in place.
// It returns s for chaining.
func (s *Seq) Dedup() *Seq {
	if s.Len() < 2 {
		return s
	}
	sort.SliceStable(s.literals, func(i, j int) bool {
		return s.literals[i].Value < s.literals[j].Value
	})
	out := s.literals[:1]
	for _, l := range s.literals[1:] {
		if l.Value != out[len(out)-1].Value {
			out = append(out, l)
		}
	}
	s.literals = out
	return s
}

// Union returns a new sequence holding the literals of s followed by those
// of other.
func (s *Seq) Union(other *Seq) *Seq {
	lits := make([]Literal, 0, s.Len()+other.Len())
	lits = append(lits, s.Literals()...)
	lits = append(lits, other.Literals()...)
	return NewSeq(lits...)
}

// Cross returns the concatenation product of s and other: every literal of s
// followed by every literal of other. Completeness is kept only when both
// sides are complete.
func (s *Seq) Cross(other *Seq) *Seq {
	lits := make([]Literal, 0, s.Len()*other.Len())
	for _, a := range s.Literals() {
		for _, b := range other.Literals() {
			var sb strings.Builder
			sb.Grow(len(a.Value) + len(b.Value))
			sb.WriteString(a.Value)
			sb.WriteString(b.Value)
			lits = append(lits, Literal{
				Value:    sb.String(),
				Complete: a.Complete && b.Complete,
				FoldCase: a.FoldCase || b.FoldCase,
			})
		}
	}
	return NewSeq(lits...)
}
