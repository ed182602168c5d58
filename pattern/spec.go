package pattern

import "github.com/coregx/corerule/synth"

// Whitespace is a requirement on the whitespace before a token.
type Whitespace int

const (
	// WhitespaceAny accepts tokens with or without leading whitespace.
	WhitespaceAny Whitespace = iota
	// WhitespaceRequired requires leading whitespace.
	WhitespaceRequired
	// WhitespaceForbidden requires the token to follow its predecessor
	// directly.
	WhitespaceForbidden
)

// Scope selects which token an exception applies to.
type Scope int

const (
	// ScopeCurrent tests the token itself.
	ScopeCurrent Scope = iota
	// ScopeNext tests the token matched by the following pattern position,
	// including every token the current position skips over.
	ScopeNext
	// ScopePrevious tests the sentence token preceding the candidate.
	ScopePrevious
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeCurrent:
		return "current"
	case ScopeNext:
		return "next"
	case ScopePrevious:
		return "previous"
	default:
		return "Scope(?)"
	}
}

// UnknownTag as a POS requirement matches readings without a tag.
const UnknownTag = "UNKNOWN"

// TestSpec describes a single-reading test: text, POS tag and whitespace.
type TestSpec struct {
	// Text is matched against the surface text, or the lemma when Inflected
	// is set. An empty Text matches any text.
	Text          string
	Regex         bool
	CaseSensitive bool
	Inflected     bool
	Negate        bool

	// POS is matched against the reading's tag. An empty POS matches any
	// tag.
	POS       string
	POSRegex  bool
	POSNegate bool

	Whitespace Whitespace
}

// ExceptionSpec is a test that vetoes a match.
type ExceptionSpec struct {
	TestSpec
	Scope Scope
	// And lists further tests the same reading must pass for the exception
	// to apply.
	And []TestSpec
}

// Unification marks a token as part of a feature agreement block.
type Unification struct {
	// Features maps a feature name to the types that must agree. An empty
	// list selects every type configured for the feature.
	Features map[string][]string
	// Last marks the final token of the block.
	Last bool
	// Negated inverts the outcome: the block matches when the tokens do not
	// agree. Only the Last token's flag is consulted.
	Negated bool
	// Neutral tokens sit inside the block without being tested.
	Neutral bool
}

// Reference binds a token to an earlier matched pattern position. The
// token text contains the placeholder \Index, which is replaced by the
// formatted referent when the token is bound.
type Reference struct {
	Index int
	Match *synth.Match
}

// Spec describes one pattern position.
type Spec struct {
	TestSpec

	// Skip is the number of tokens the following position may skip; -1
	// means the rest of the sentence.
	Skip int
	// Optional lets the position match nothing (min occurrence 0).
	Optional bool
	// Max is the maximum number of repetitions; 0 means 1 and -1 means
	// unbounded.
	Max int

	Exceptions []ExceptionSpec
	// AndGroup lists further tests that the same token must satisfy, each
	// by any of its readings.
	AndGroup []Spec

	Unification *Unification
	Reference   *Reference
}
