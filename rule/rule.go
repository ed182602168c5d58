// Package rule matches compiled token-pattern rules against tagged
// sentences.
//
// A Rule is an ordered list of pattern tokens plus the templates used to
// report a match. Matching walks every candidate start position with a
// small backtracking automaton that honours optional and repeated tokens,
// skip windows, exceptions, AND groups and feature unification. Antipatterns
// immunize the tokens they cover against the rule.
//
// Rules are immutable after New and safe for concurrent use; all matching
// state is created per call.
package rule

import (
	"fmt"

	"github.com/coregx/corerule/message"
	"github.com/coregx/corerule/pattern"
	"github.com/coregx/corerule/sentence"
	"github.com/coregx/corerule/synth"
	"github.com/coregx/corerule/unify"
)

// Definition is the input to New. Token references inside pattern tokens
// are already expressed as token indices; the \N references of the message
// templates are element numbers and are mapped through ElementNo.
type Definition struct {
	ID          string
	SubID       string
	Description string

	Tokens []*pattern.Token
	// ElementNo holds, per pattern element, the number of tokens it
	// expanded to. Nil means one token per element.
	ElementNo []int

	// MarkerStart and MarkerEnd delimit the reported span as token
	// indices, inclusive. Without a marker the whole pattern is reported:
	// set both to -1.
	MarkerStart int
	MarkerEnd   int

	Message           string
	ShortMessage      string
	SuggestionsOutMsg string
	// Matches format the message and short message, OutMatches the
	// suggestions outside the message. Each \N occurrence consumes the
	// next directive.
	Matches    []*synth.Match
	OutMatches []*synth.Match

	Antipatterns []*Rule

	Filter     Filter
	FilterArgs map[string]string

	MinPrevMatches int
	Distance       int

	// Equivalences back the unification tokens.
	Equivalences *unify.Equivalences
}

// Rule is a compiled token-pattern rule.
type Rule struct {
	id, subID, description string

	tokens      []*pattern.Token
	elementNo   []int
	markerStart int
	markerEnd   int

	message      *message.Template
	shortMessage *message.Template
	outMessage   *message.Template
	matches      []*synth.Match
	outMatches   []*synth.Match

	antipatterns []*Rule
	filter       Filter
	filterArgs   map[string]string

	minPrevMatches int
	distance       int

	eq *unify.Equivalences

	countMin0 int
	sentStart bool
	unifies   bool // uses unification
	grouped   bool // uses unification or AND groups

	words, lemmas []string
}

// New validates def and builds a Rule.
func New(def Definition) (*Rule, error) {
	if len(def.Tokens) == 0 {
		return nil, fmt.Errorf("rule %s: no pattern tokens", def.ID)
	}
	r := &Rule{
		id:             def.ID,
		subID:          def.SubID,
		description:    def.Description,
		tokens:         def.Tokens,
		elementNo:      def.ElementNo,
		markerStart:    def.MarkerStart,
		markerEnd:      def.MarkerEnd,
		matches:        def.Matches,
		outMatches:     def.OutMatches,
		antipatterns:   def.Antipatterns,
		filter:         def.Filter,
		filterArgs:     def.FilterArgs,
		minPrevMatches: def.MinPrevMatches,
		distance:       def.Distance,
		eq:             def.Equivalences,
	}
	if r.markerStart < 0 {
		r.markerStart = 0
	}
	if r.markerEnd < 0 || r.markerEnd >= len(r.tokens) {
		r.markerEnd = len(r.tokens) - 1
	}
	if r.markerStart > r.markerEnd {
		return nil, fmt.Errorf("rule %s: marker start %d after marker end %d", def.ID, r.markerStart, r.markerEnd)
	}
	if r.elementNo == nil {
		r.elementNo = make([]int, len(r.tokens))
		for i := range r.elementNo {
			r.elementNo[i] = 1
		}
	}

	var err error
	if r.message, err = message.Parse(def.Message); err != nil {
		return nil, fmt.Errorf("rule %s: %w", def.ID, err)
	}
	if r.shortMessage, err = message.Parse(def.ShortMessage); err != nil {
		return nil, fmt.Errorf("rule %s: %w", def.ID, err)
	}
	if r.outMessage, err = message.Parse(def.SuggestionsOutMsg); err != nil {
		return nil, fmt.Errorf("rule %s: %w", def.ID, err)
	}

	for _, t := range r.tokens {
		if t.Min() == 0 {
			r.countMin0++
		}
		if t.Unification() != nil {
			r.unifies = true
		}
		if t.Unification() != nil || t.HasAndGroup() {
			r.grouped = true
		}
	}
	if r.unifies && r.eq == nil {
		return nil, fmt.Errorf("rule %s: unification without equivalences", def.ID)
	}
	r.sentStart = r.tokens[0].IsSentenceStart()
	r.words, r.lemmas = pattern.RequiredSets(r.tokens)
	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(def Definition) *Rule {
	r, err := New(def)
	if err != nil {
		panic(err)
	}
	return r
}

// ID returns the rule id.
func (r *Rule) ID() string { return r.id }

// SubID returns the sub-id of the rule variant.
func (r *Rule) SubID() string { return r.subID }

// FullID returns "id[subid]", or the id alone when there is no sub-id.
func (r *Rule) FullID() string {
	if r.subID == "" {
		return r.id
	}
	return r.id + "[" + r.subID + "]"
}

// Description returns the rule description.
func (r *Rule) Description() string { return r.description }

// Tokens returns the pattern tokens.
func (r *Rule) Tokens() []*pattern.Token { return r.tokens }

// ElementNo returns the token count per pattern element.
func (r *Rule) ElementNo() []int { return r.elementNo }

// Marker returns the marker token range, inclusive.
func (r *Rule) Marker() (start, end int) { return r.markerStart, r.markerEnd }

// Message returns the message template.
func (r *Rule) Message() *message.Template { return r.message }

// Antipatterns returns the antipattern rules.
func (r *Rule) Antipatterns() []*Rule { return r.antipatterns }

// MinPrevMatches is passed through for callers that gate rules on earlier
// matches in the text.
func (r *Rule) MinPrevMatches() int { return r.minPrevMatches }

// Distance is passed through together with MinPrevMatches.
func (r *Rule) Distance() int { return r.distance }

// IsSentenceStartAnchored reports whether the rule only matches at the
// start of a sentence.
func (r *Rule) IsSentenceStartAnchored() bool { return r.sentStart }

// RequiredWords returns the lowercased words every matched sentence
// contains.
func (r *Rule) RequiredWords() []string { return r.words }

// RequiredLemmas returns the lowercased lemmas every matched sentence
// contains.
func (r *Rule) RequiredLemmas() []string { return r.lemmas }

// CanMatch reports whether s contains the rule's required words and lemmas.
func (r *Rule) CanMatch(s *sentence.Sentence) bool {
	for _, w := range r.words {
		if !s.HasToken(w) {
			return false
		}
	}
	for _, l := range r.lemmas {
		if !s.HasLemma(l) {
			return false
		}
	}
	return true
}

// String returns the full id.
func (r *Rule) String() string { return r.FullID() }

// elementTokens returns the first token index and the token count of
// message element j.
func (r *Rule) elementTokens(j int) (first, count int) {
	for k := 0; k < j && k < len(r.elementNo); k++ {
		first += r.elementNo[k]
	}
	if j < len(r.elementNo) {
		return first, r.elementNo[j]
	}
	return first, 1
}
