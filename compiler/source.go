// Package compiler turns rule sources into compiled rules.
//
// A rule source is a list of elements. Besides plain tokens an element may
// be an OR of alternative tokens or a reference to a named phrase with
// several variants. Compilation expands every combination into a separate
// rule.Rule: a rule with an OR of k alternatives yields k rules, and a
// phrase with k variants does the same.
//
// A Session owns the tables shared during loading: the string matcher
// cache, the phrases and the unification equivalences. Compiled rules keep
// only the values they need, so a Session can be dropped after loading.
package compiler

import (
	"github.com/coregx/corerule/pattern"
	"github.com/coregx/corerule/rule"
	"github.com/coregx/corerule/synth"
)

// Element is one position of a rule source. It is implemented by Tok, Or
// and PhraseRef.
type Element interface {
	element()
}

// Tok is a single pattern token.
type Tok struct {
	Spec   pattern.Spec
	Marker bool
}

// Or matches any one of its alternatives.
type Or struct {
	Alternatives []pattern.Spec
	Marker       bool
}

// PhraseRef inserts every variant of the phrase ID.
type PhraseRef struct {
	ID     string
	Marker bool
}

func (Tok) element()       {}
func (Or) element()        {}
func (PhraseRef) element() {}

// Phrase is a named list of token sequences.
type Phrase struct {
	ID       string
	Variants [][]Element
}

// RuleSource is the uncompiled form of a rule.
//
// Reference indices in the element specs and the TokenRef of the
// directives count elements, not tokens; they are translated to token
// indices for every expanded variant.
type RuleSource struct {
	ID          string
	SubID       string
	Description string

	Elements []Element

	Message           string
	ShortMessage      string
	SuggestionsOutMsg string
	Matches           []synth.MatchSpec
	OutMatches        []synth.MatchSpec

	// Antipatterns immunize the tokens they match against this rule.
	Antipatterns [][]Element

	Filter     rule.Filter
	FilterArgs map[string]string

	MinPrevMatches int
	Distance       int
}

// Group is a set of rule sources sharing an id and antipatterns.
type Group struct {
	ID           string
	Rules        []RuleSource
	Antipatterns [][]Element
}

// RegexSource is the uncompiled form of a text-level regex rule.
type RegexSource struct {
	ID            string
	Description   string
	Pattern       string
	CaseSensitive bool
	MarkGroup     int
	Message       string
	ShortMessage  string
	Matches       []synth.MatchSpec
}
