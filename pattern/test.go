package pattern

import (
	"fmt"
	"strings"

	"github.com/coregx/corerule/sentence"
	"github.com/coregx/corerule/strmatch"
)

// Node is a condition on a single reading. The variants are *Test,
// AndGroup, OrGroup and WithExceptions; Eval evaluates any of them.
type Node interface {
	node()
}

// AndGroup matches when every child matches the same reading.
type AndGroup []Node

// OrGroup matches when any child matches. An empty OrGroup never matches.
type OrGroup []Node

// WithExceptions matches when Base matches and no current-scope exception
// does. Exceptions with other scopes concern neighbouring tokens and are
// ignored by Eval.
type WithExceptions struct {
	Base       Node
	Exceptions OrGroup
	Scope      Scope
}

func (*Test) node()          {}
func (AndGroup) node()       {}
func (OrGroup) node()        {}
func (WithExceptions) node() {}

// Eval reports whether n matches reading r of a token whose whitespace
// flag is ws.
func Eval(n Node, r sentence.Reading, ws bool) bool {
	switch n := n.(type) {
	case *Test:
		return n.Matches(r, ws)
	case AndGroup:
		for _, c := range n {
			if !Eval(c, r, ws) {
				return false
			}
		}
		return true
	case OrGroup:
		for _, c := range n {
			if Eval(c, r, ws) {
				return true
			}
		}
		return false
	case WithExceptions:
		if !Eval(n.Base, r, ws) {
			return false
		}
		return n.Scope != ScopeCurrent || !Eval(n.Exceptions, r, ws)
	default:
		panic(fmt.Sprintf("pattern: unknown node %T", n))
	}
}

// Test is a compiled single-reading condition.
type Test struct {
	text      *strmatch.Matcher // nil: any text
	negate    bool
	inflected bool

	pos        *strmatch.Matcher // nil: any tag
	posNegate  bool
	posUnknown bool

	whitespace Whitespace
}

type matcherSource interface {
	Get(pattern string, isRegex, caseSensitive bool) (*strmatch.Matcher, error)
	Config() strmatch.Config
}

type uncached struct{ config strmatch.Config }

func (u uncached) Config() strmatch.Config { return u.config }

func (u uncached) Get(pattern string, isRegex, caseSensitive bool) (*strmatch.Matcher, error) {
	return strmatch.NewWithConfig(pattern, isRegex, caseSensitive, u.config)
}

func newTest(spec TestSpec, src matcherSource) (*Test, error) {
	t := &Test{
		negate:     spec.Negate,
		inflected:  spec.Inflected,
		posNegate:  spec.POSNegate,
		whitespace: spec.Whitespace,
	}
	if text := strings.TrimSpace(spec.Text); text != "" {
		m, err := src.Get(text, spec.Regex, spec.CaseSensitive)
		if err != nil {
			return nil, &Error{Field: "text", Message: err.Error()}
		}
		t.text = m
	}
	if spec.POS != "" {
		m, err := src.Get(spec.POS, spec.POSRegex, true)
		if err != nil {
			return nil, &Error{Field: "pos", Message: err.Error()}
		}
		t.pos = m
		t.posUnknown = m.Matches(UnknownTag)
	}
	return t, nil
}

// Matches reports whether reading r of a token with whitespace flag ws
// passes the test.
func (t *Test) Matches(r sentence.Reading, ws bool) bool {
	switch t.whitespace {
	case WhitespaceRequired:
		if !ws {
			return false
		}
	case WhitespaceForbidden:
		if ws {
			return false
		}
	}
	posOK := t.posMatches(r) != t.posNegate
	if t.text == nil {
		return !t.negate && posOK
	}
	return (t.text.Matches(t.testString(r)) != t.negate) && posOK
}

func (t *Test) posMatches(r sentence.Reading) bool {
	if t.pos == nil || (t.posUnknown && r.HasNoTag()) {
		return true
	}
	if r.POS == "" {
		return false
	}
	return t.pos.Matches(r.POS)
}

func (t *Test) testString(r sentence.Reading) string {
	if t.inflected && r.Lemma != "" {
		return r.Lemma
	}
	return r.Surface
}

// Text returns the text matcher, or nil when any text is accepted.
func (t *Test) Text() *strmatch.Matcher { return t.text }

// POS returns the POS matcher, or nil when any tag is accepted.
func (t *Test) POS() *strmatch.Matcher { return t.pos }

// String returns a compact description such as "!foo/NN.*".
func (t *Test) String() string {
	var sb strings.Builder
	if t.negate {
		sb.WriteByte('!')
	}
	if t.text != nil {
		sb.WriteString(t.text.Pattern())
	}
	if t.pos != nil {
		sb.WriteByte('/')
		if t.posNegate {
			sb.WriteByte('!')
		}
		sb.WriteString(t.pos.Pattern())
	}
	return sb.String()
}
