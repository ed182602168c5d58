// Package unify checks grammatical agreement across a block of tokens.
//
// Each feature (case, gender, number, ...) has a set of equivalence types
// (nominative, genitive, ...), and each type is defined by a pattern token
// that recognizes readings of that type. A block unifies when, for every
// feature, all of its tokens share at least one type.
package unify

import (
	"sort"

	"github.com/coregx/corerule/pattern"
)

type typeKey struct {
	feature, typ string
}

// Equivalences maps (feature, type) pairs to the tokens that recognize
// them. It is built during rule compilation and read-only afterwards.
type Equivalences struct {
	tests    map[typeKey]*pattern.Token
	features map[string][]string
}

// NewEquivalences creates an empty table.
func NewEquivalences() *Equivalences {
	return &Equivalences{
		tests:    make(map[typeKey]*pattern.Token),
		features: make(map[string][]string),
	}
}

// Add defines typ of feature as the readings matched by tok. Types keep
// the order in which they were first added.
func (e *Equivalences) Add(feature, typ string, tok *pattern.Token) {
	k := typeKey{feature, typ}
	if _, ok := e.tests[k]; !ok {
		e.features[feature] = append(e.features[feature], typ)
	}
	e.tests[k] = tok
}

// Types returns the types of feature in definition order.
func (e *Equivalences) Types(feature string) []string { return e.features[feature] }

// Features returns the defined feature names, sorted.
func (e *Equivalences) Features() []string {
	out := make([]string, 0, len(e.features))
	for f := range e.features {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (e *Equivalences) test(feature, typ string) *pattern.Token {
	return e.tests[typeKey{feature, typ}]
}

// typesOf resolves the types requested for feature; an empty request
// selects every defined type.
func (e *Equivalences) typesOf(feature string, requested []string) []string {
	if len(requested) == 0 {
		return e.features[feature]
	}
	return requested
}
