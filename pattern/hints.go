package pattern

import (
	"sort"
	"strings"
)

// PossibleStringValues returns every text the token can match, tested
// against lemmas for inflected tokens and surface text otherwise, or nil
// when the set is unknown. AND group members narrow the set.
func (t *Token) PossibleStringValues() []string {
	return t.hints(t.spec.Inflected)
}

// FormHints returns the possible surface texts, or nil.
func (t *Token) FormHints() []string { return t.hints(false) }

// LemmaHints returns the possible lemmas, or nil.
func (t *Token) LemmaHints() []string { return t.hints(true) }

func (t *Token) hints(inflected bool) []string {
	if inflected != t.spec.Inflected {
		return nil
	}
	own := t.ownValues()
	if own == nil {
		return nil
	}
	set := make(map[string]struct{}, len(own))
	for _, v := range own {
		set[v] = struct{}{}
	}
	for _, m := range t.and {
		h := m.hints(inflected)
		if h == nil {
			continue
		}
		keep := make(map[string]struct{}, len(h))
		for _, v := range h {
			if _, ok := set[v]; ok {
				keep[v] = struct{}{}
			}
		}
		set = keep
	}
	return sortedSet(set)
}

func (t *Token) ownValues() []string {
	if t.spec.Negate || !t.hasStringThatMustMatch() {
		return nil
	}
	vals, ok := t.test.text.PossibleValues()
	if !ok {
		return nil
	}
	return vals
}

func (t *Token) hasStringThatMustMatch() bool {
	return !t.IsReference() && !t.optional && t.test.text != nil
}

// UnionHints returns the union of the alternatives' hints, or nil if any
// alternative's set is unknown.
func UnionHints(alternatives []*Token, inflected bool) []string {
	set := make(map[string]struct{})
	for _, t := range alternatives {
		h := t.hints(inflected)
		if h == nil {
			return nil
		}
		for _, v := range h {
			set[v] = struct{}{}
		}
	}
	return sortedSet(set)
}

// RequiredSets returns the lowercased words and lemmas that must all occur
// in a sentence for tokens to match. Only non-negated, non-optional tokens
// without a reference contribute, and only when their text is a plain
// string or a regex accepting a single value.
func RequiredSets(tokens []*Token) (words, lemmas []string) {
	ws := make(map[string]struct{})
	ls := make(map[string]struct{})
	for _, t := range tokens {
		if t.spec.Negate || !t.hasStringThatMustMatch() {
			continue
		}
		value := t.Text()
		if t.spec.Regex {
			vals, ok := t.test.text.PossibleValues()
			if !ok || len(vals) != 1 || vals[0] == "" {
				continue
			}
			value = vals[0]
		}
		if t.spec.Inflected {
			ls[strings.ToLower(value)] = struct{}{}
		} else {
			ws[strings.ToLower(value)] = struct{}{}
		}
	}
	return sortedSet(ws), sortedSet(ls)
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
