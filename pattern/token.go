// Package pattern compiles pattern tokens: the per-position matchers of a
// token-pattern rule.
//
// A Token combines a text/POS Test with exceptions scoped to the token
// itself, to the tokens after it, or to the token before it, an AND group of
// further tests, occurrence bounds, a skip distance, an optional
// unification tag and an optional back-reference. Tokens are immutable;
// binding a back-reference creates a new Token.
package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coregx/corerule/internal/conv"
	"github.com/coregx/corerule/sentence"
	"github.com/coregx/corerule/strmatch"
)

const maxBound = 127

// Option configures New.
type Option func(*options)

type options struct {
	src matcherSource
}

// WithCache interns string matchers in c.
func WithCache(c *strmatch.Cache) Option {
	return func(o *options) { o.src = c }
}

// WithConfig compiles string matchers with config when no cache is set.
func WithConfig(config strmatch.Config) Option {
	return func(o *options) {
		if _, ok := o.src.(uncached); ok {
			o.src = uncached{config}
		}
	}
}

// Token is an immutable compiled pattern position.
type Token struct {
	spec Spec
	test *Test

	current  OrGroup
	next     OrGroup
	previous OrGroup

	and []*Token

	skip     int8
	max      int8
	optional bool

	// bindConfig compiles the matchers of a bound copy.
	bindConfig strmatch.Config
}

// New validates spec and compiles it.
func New(spec Spec, opts ...Option) (*Token, error) {
	o := options{src: uncached{strmatch.DefaultConfig()}}
	for _, opt := range opts {
		opt(&o)
	}
	return build(spec, o.src, false)
}

// MustNew is like New but panics on error.
func MustNew(spec Spec, opts ...Option) *Token {
	t, err := New(spec, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func build(spec Spec, src matcherSource, member bool) (*Token, error) {
	if err := validate(spec, member); err != nil {
		return nil, err
	}
	test, err := newTest(spec.TestSpec, src)
	if err != nil {
		return nil, err
	}

	t := &Token{
		spec:     spec,
		test:     test,
		skip:     conv.IntToInt8(spec.Skip),
		max:      1,
		optional: spec.Optional,
	}
	if spec.Max != 0 {
		t.max = conv.IntToInt8(spec.Max)
	}
	if spec.Reference != nil {
		t.bindConfig = src.Config()
	}

	for _, ex := range spec.Exceptions {
		n, err := exceptionNode(ex, src)
		if err != nil {
			return nil, err
		}
		switch ex.Scope {
		case ScopeNext:
			t.next = append(t.next, n)
		case ScopePrevious:
			t.previous = append(t.previous, n)
		default:
			t.current = append(t.current, n)
		}
	}

	for _, m := range spec.AndGroup {
		mt, err := build(m, src, true)
		if err != nil {
			return nil, err
		}
		t.and = append(t.and, mt)
	}
	return t, nil
}

func validate(spec Spec, member bool) error {
	switch {
	case spec.Skip < -1 || spec.Skip > maxBound:
		return &Error{Field: "skip", Message: fmt.Sprintf("%d not in [-1, %d]", spec.Skip, maxBound)}
	case spec.Max < -1 || spec.Max > maxBound:
		return &Error{Field: "max", Message: fmt.Sprintf("%d not in [-1, %d]", spec.Max, maxBound)}
	case member && (spec.Optional || spec.Max != 0):
		return &Error{Field: "and group", Message: "only the first token of an AND group may set min or max"}
	case spec.Reference != nil && spec.Reference.Match == nil:
		return &Error{Field: "reference", Message: "missing match directive"}
	case spec.Reference != nil && spec.Reference.Index < 0:
		return &Error{Field: "reference", Message: fmt.Sprintf("negative index %d", spec.Reference.Index)}
	case spec.Unification != nil && len(spec.Unification.Features) == 0 && !spec.Unification.Neutral:
		return &Error{Field: "unification", Message: "no features"}
	}
	return nil
}

func exceptionNode(ex ExceptionSpec, src matcherSource) (Node, error) {
	base, err := newTest(ex.TestSpec, src)
	if err != nil {
		return nil, err
	}
	if len(ex.And) == 0 {
		return base, nil
	}
	group := AndGroup{base}
	for _, s := range ex.And {
		t, err := newTest(s, src)
		if err != nil {
			return nil, err
		}
		group = append(group, t)
	}
	return group, nil
}

// Spec returns the specification the token was built from.
func (t *Token) Spec() Spec { return t.spec }

// Test returns the token's own reading test.
func (t *Token) Test() *Test { return t.test }

// Node returns the token's own test combined with its current-scope
// exceptions.
func (t *Token) Node() Node {
	if len(t.current) == 0 {
		return t.test
	}
	return WithExceptions{Base: t.test, Exceptions: t.current, Scope: ScopeCurrent}
}

// Matches reports whether reading r passes the token's own test. Exceptions
// are not consulted. A token with an unbound reference never matches.
func (t *Token) Matches(r sentence.Reading, ws bool) bool {
	if t.IsReference() {
		return false
	}
	return t.test.Matches(r, ws)
}

// IsExceptionMatched reports whether a current-scope exception matches r.
func (t *Token) IsExceptionMatched(r sentence.Reading, ws bool) bool {
	return len(t.current) > 0 && Eval(t.current, r, ws)
}

// IsMatchedByScopeNextException reports whether a next-scope exception
// matches r.
func (t *Token) IsMatchedByScopeNextException(r sentence.Reading, ws bool) bool {
	return len(t.next) > 0 && Eval(t.next, r, ws)
}

// IsMatchedByPreviousException reports whether a previous-scope exception
// matches any reading of prev.
func (t *Token) IsMatchedByPreviousException(prev *sentence.Token) bool {
	if len(t.previous) == 0 || prev == nil {
		return false
	}
	for _, r := range prev.Readings {
		if Eval(t.previous, r, prev.WhitespaceBefore) {
			return true
		}
	}
	return false
}

// IsAndExceptionGroupMatched reports whether a current-scope exception of
// an AND group member matches r.
func (t *Token) IsAndExceptionGroupMatched(r sentence.Reading, ws bool) bool {
	for _, m := range t.and {
		if m.IsExceptionMatched(r, ws) {
			return true
		}
	}
	return false
}

// IsExceptionMatchedCompletely reports whether the token's own or any AND
// member's current-scope exception matches r.
func (t *Token) IsExceptionMatchedCompletely(r sentence.Reading, ws bool) bool {
	return t.IsExceptionMatched(r, ws) || t.IsAndExceptionGroupMatched(r, ws)
}

// HasPreviousException reports whether the token has previous-scope
// exceptions.
func (t *Token) HasPreviousException() bool { return len(t.previous) > 0 }

// HasNextException reports whether the token has next-scope exceptions.
func (t *Token) HasNextException() bool { return len(t.next) > 0 }

// AndGroup returns the AND group members, excluding the token itself.
func (t *Token) AndGroup() []*Token { return t.and }

// HasAndGroup reports whether the token has AND group members.
func (t *Token) HasAndGroup() bool { return len(t.and) > 0 }

// Skip returns the skip distance; -1 means unbounded.
func (t *Token) Skip() int { return int(t.skip) }

// Min returns the minimum number of occurrences, 0 or 1.
func (t *Token) Min() int {
	if t.optional {
		return 0
	}
	return 1
}

// Max returns the maximum number of occurrences; -1 means unbounded.
func (t *Token) Max() int { return int(t.max) }

// Negated reports whether the text test is negated.
func (t *Token) Negated() bool { return t.spec.Negate }

// IsRegex reports whether the text is a regex.
func (t *Token) IsRegex() bool { return t.spec.Regex }

// IsInflected reports whether the text is tested against lemmas.
func (t *Token) IsInflected() bool { return t.spec.Inflected }

// Text returns the trimmed text pattern.
func (t *Token) Text() string { return strings.TrimSpace(t.spec.Text) }

// IsSentenceStart reports whether the token matches only the sentence
// start.
func (t *Token) IsSentenceStart() bool {
	return t.spec.POS == sentence.SentenceStartTag && !t.spec.POSNegate && !t.spec.POSRegex
}

// Unification returns the unification tag, or nil.
func (t *Token) Unification() *Unification { return t.spec.Unification }

// IsUnified reports whether the token is part of a unification block.
func (t *Token) IsUnified() bool {
	return t.spec.Unification != nil && !t.spec.Unification.Neutral
}

// IsUnificationNeutral reports whether the token sits in a unification
// block without being tested.
func (t *Token) IsUnificationNeutral() bool {
	return t.spec.Unification != nil && t.spec.Unification.Neutral
}

// Reference returns the back-reference, or nil.
func (t *Token) Reference() *Reference { return t.spec.Reference }

// IsReference reports whether the token waits for a back-reference to be
// bound.
func (t *Token) IsReference() bool { return t.spec.Reference != nil }

// Placeholder returns the text placeholder of the back-reference, such as
// `\0`.
func (r *Reference) Placeholder() string {
	return `\` + strconv.Itoa(r.Index)
}

// String returns a compact description of the token.
func (t *Token) String() string {
	var sb strings.Builder
	sb.WriteString(t.test.String())
	if t.optional || t.max != 1 {
		fmt.Fprintf(&sb, "{%d,%d}", t.Min(), t.max)
	}
	if t.skip != 0 {
		fmt.Fprintf(&sb, "~%d", t.skip)
	}
	return sb.String()
}
