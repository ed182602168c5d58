package unify

import (
	"sort"

	"github.com/coregx/corerule/sentence"
)

// State is the phase of a Unifier.
type State int

const (
	// Idle means no token of a block has been seen.
	Idle State = iota
	// Collecting records the types satisfied by the first token's readings.
	Collecting
	// Unifying narrows the recorded types with every further token.
	Unifying
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Collecting:
		return "Collecting"
	case Unifying:
		return "Unifying"
	default:
		return "State(?)"
	}
}

// typeSets maps a feature to the set of types still possible.
type typeSets map[string]map[string]struct{}

func (ts typeSets) add(feature, typ string) {
	s, ok := ts[feature]
	if !ok {
		s = make(map[string]struct{})
		ts[feature] = s
	}
	s[typ] = struct{}{}
}

func (ts typeSets) has(feature, typ string) bool {
	_, ok := ts[feature][typ]
	return ok
}

// entry is one stored reading of a block token.
type entry struct {
	reading sentence.Reading
	sets    typeSets
	neutral bool
}

// Unifier is the state of one agreement check. It is single-use: create a
// new Unifier for every match attempt, or call Reset between attempts. It is
// not safe for concurrent use.
type Unifier struct {
	eq    *Equivalences
	state State

	// first holds the type sets of each accepted reading of the first token.
	first []typeSets
	// seq holds the accepted readings of every block token, in order.
	seq [][]entry
	// reading is the index in seq of the token being unified.
	reading int

	found    []bool
	tmpFound []bool
	keep     typeSets

	features map[string][]string

	uniMatched    bool
	uniAllMatched bool
}

// New creates an idle Unifier over eq.
func New(eq *Equivalences) *Unifier {
	u := &Unifier{eq: eq}
	u.Reset()
	return u
}

// Reset returns u to Idle.
func (u *Unifier) Reset() {
	u.state = Idle
	u.first = nil
	u.seq = nil
	u.reading = 1
	u.found = nil
	u.tmpFound = nil
	u.keep = make(typeSets)
	u.features = nil
	u.uniMatched = false
	u.uniAllMatched = false
}

// State returns the current phase.
func (u *Unifier) State() State { return u.state }

// IsUnified feeds one reading of the current token into the check.
//
// Call it for every reading of each block token, with last set on the
// token's final reading; matched reports whether the reading matched its
// pattern token, and only matched readings take part. For the first token
// the result is always true. For later tokens it reports whether the block
// so far still shares a type for every feature.
func (u *Unifier) IsUnified(r sentence.Reading, features map[string][]string, last, matched bool) bool {
	if u.state == Unifying {
		if matched {
			u.uniMatched = u.isSatisfied(r, features) || u.uniMatched
		}
		u.uniAllMatched = u.uniMatched
		if last {
			u.startNextToken()
			u.uniMatched = false
		}
		return u.uniAllMatched && u.finalValue(features)
	}

	u.state = Collecting
	if matched {
		u.isSatisfied(r, features)
	}
	if last {
		u.state = Unifying
		u.uniMatched = false
		u.startUnify()
	}
	return true
}

func (u *Unifier) isSatisfied(r sentence.Reading, features map[string][]string) bool {
	if u.state == Unifying && len(u.first) == 0 {
		return false
	}
	u.features = features
	if u.state == Unifying {
		return u.checkNext(r, features)
	}

	sets := make(typeSets)
	for _, f := range sortedFeatures(features) {
		for _, typ := range u.eq.typesOf(f, features[f]) {
			test := u.eq.test(f, typ)
			if test == nil {
				return false
			}
			if test.Matches(r, false) {
				sets.add(f, typ)
			}
		}
		if _, ok := sets[f]; !ok {
			return false
		}
	}

	u.first = append(u.first, sets)
	if len(u.seq) == 0 {
		u.seq = append(u.seq, nil)
	}
	u.seq[0] = append(u.seq[0], entry{reading: r, sets: sets})
	return true
}

// checkNext tests r against each first-token reading's remaining types.
func (u *Unifier) checkNext(r sentence.Reading, features map[string][]string) bool {
	anyOK := false
	tokFound := append([]bool(nil), u.tmpFound...)
	here := make(typeSets)
	feats := sortedFeatures(features)
	for i := range u.first {
		all := true
		for _, f := range feats {
			featOK := false
			for _, typ := range u.eq.typesOf(f, features[f]) {
				if !u.first[i].has(f, typ) {
					continue
				}
				if u.eq.test(f, typ).Matches(r, false) {
					featOK = true
					u.keep.add(f, typ)
					here.add(f, typ)
				}
			}
			all = all && featOK
		}
		tokFound[i] = tokFound[i] || all
		anyOK = anyOK || all
	}
	if !anyOK {
		return false
	}

	switch {
	case len(u.seq) == u.reading:
		u.seq = append(u.seq, []entry{{reading: r, sets: here}})
	case u.reading < len(u.seq):
		u.seq[u.reading] = append(u.seq[u.reading], entry{reading: r, sets: here})
	default:
		return false
	}
	u.tmpFound = tokFound
	return true
}

func (u *Unifier) startUnify() {
	u.found = make([]bool, len(u.first))
	u.tmpFound = append([]bool(nil), u.found...)
}

// startNextToken commits the types kept by the token just scanned: every
// stored reading is narrowed to them, and features with no kept type are
// dropped.
func (u *Unifier) startNextToken() {
	u.found = append([]bool(nil), u.tmpFound...)
	u.reading++
	for _, tok := range u.seq {
		for _, e := range tok {
			if e.neutral {
				continue
			}
			for f, types := range e.sets {
				kept, ok := u.keep[f]
				if !ok {
					delete(e.sets, f)
					continue
				}
				for typ := range types {
					if _, ok := kept[typ]; !ok {
						delete(types, typ)
					}
				}
			}
		}
	}
	u.keep = make(typeSets)
}

// AddNeutral adds a token that belongs to the block without being tested,
// such as punctuation inside a noun phrase.
func (u *Unifier) AddNeutral(tok *sentence.Token) {
	entries := make([]entry, len(tok.Readings))
	for i, r := range tok.Readings {
		entries[i] = entry{reading: r, neutral: true}
	}
	u.seq = append(u.seq, entries)
	u.reading++
}

// unified reports whether every requested feature of e still has a
// type.
func (u *Unifier) unified(e entry, features map[string][]string) bool {
	n := 0
	for _, f := range sortedFeatures(features) {
		if types, ok := e.sets[f]; ok && len(types) == 0 {
			n = 0
		} else {
			n++
		}
	}
	return n == len(u.features)
}

// finalValue reports whether every stored token has a reading whose
// requested features all still have a type.
func (u *Unifier) finalValue(features map[string][]string) bool {
	tokUnified := 0
	for j, tok := range u.seq {
		found := false
		for i, e := range tok {
			if e.neutral {
				if i == 0 {
					tokUnified++
				}
				found = true
				continue
			}
			if u.unified(e, features) && tokUnified <= j {
				tokUnified++
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return tokUnified == len(u.seq)
}

// unifiedTokens returns, per block token, the readings that unified, or
// nil when the Unifier is not unifying or some token has none.
func (u *Unifier) unifiedTokens() [][]sentence.Reading {
	if u.state != Unifying || len(u.seq) == 0 {
		return nil
	}
	out := make([][]sentence.Reading, 0, len(u.seq))
	for _, tok := range u.seq {
		var readings []sentence.Reading
		for _, e := range tok {
			if e.neutral || u.unified(e, u.features) {
				readings = append(readings, e.reading)
			}
		}
		if len(readings) == 0 {
			return nil
		}
		out = append(out, readings)
	}
	return out
}

func sortedFeatures(features map[string][]string) []string {
	out := make([]string, 0, len(features))
	for f := range features {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
