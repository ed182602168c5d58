package rule

import (
	"sort"

	"github.com/coregx/corerule/internal/sparse"
	"github.com/coregx/corerule/sentence"
	"github.com/coregx/corerule/synth"
	"github.com/coregx/corerule/unify"
)

// span is a provisional pattern match. positions[k] is the number of
// sentence tokens consumed by pattern token k; elided optional tokens
// consume 0.
type span struct {
	positions   []int
	first, last int
	firstMarker int
	lastMarker  int
}

// markerRange returns the reported token range, inclusive, falling back to
// the whole match when the marker tokens were elided.
func (s span) markerRange(n int) (from, to int) {
	from, to = s.firstMarker, s.lastMarker
	if from < 0 {
		from = s.first
	}
	if to < 0 {
		to = s.last
	}
	return min(from, n-1), min(to, n-1)
}

// Match returns the matches of the rule in s, ordered by start offset.
func (r *Rule) Match(s *sentence.Sentence, env synth.Env) []Match {
	spans := r.spans(s, env)
	if len(spans) == 0 {
		return nil
	}
	n := len(s.Tokens)

	var immune *sparse.Set
	for _, ap := range r.antipatterns {
		for _, sp := range ap.spans(s, env) {
			if immune == nil {
				immune = sparse.NewSet(n)
			}
			immune.InsertRange(sp.markerRange(n))
		}
	}

	out := make([]Match, 0, len(spans))
	for _, sp := range spans {
		if immune != nil && immune.ContainsRange(sp.markerRange(n)) {
			continue
		}
		rd := renderer{rule: r, tokens: s.Tokens, env: env, sp: sp}
		if m, ok := rd.createMatch(); ok {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

// spans runs the pattern from every candidate start position.
func (r *Rule) spans(s *sentence.Sentence, env synth.Env) []span {
	if !r.CanMatch(s) {
		return nil
	}
	n, size := len(s.Tokens), len(r.tokens)
	limit := max(0, n-size+1) + r.countMin0
	var out []span
	for i := 0; i < limit; i++ {
		if r.sentStart && i > 0 {
			break
		}
		a := newAttempt(r, s.Tokens, env)
		if sp, ok := a.run(i); ok {
			out = append(out, sp)
		}
	}
	return out
}

// attempt is the state of matching the pattern from one start position.
type attempt struct {
	rule     *Rule
	tokens   []*sentence.Token
	env      synth.Env
	matchers []*tokenMatcher
	unifier  *unify.Unifier
	sp       span
}

func newAttempt(r *Rule, tokens []*sentence.Token, env synth.Env) *attempt {
	a := &attempt{
		rule:     r,
		tokens:   tokens,
		env:      env,
		matchers: make([]*tokenMatcher, len(r.tokens)),
		sp: span{
			positions:   make([]int, len(r.tokens)),
			first:       -1,
			last:        -1,
			firstMarker: -1,
			lastMarker:  -1,
		},
	}
	for k, t := range r.tokens {
		a.matchers[k] = newTokenMatcher(t)
	}
	if r.unifies {
		a.unifier = unify.New(r.eq)
	}
	return a
}

func (a *attempt) run(i int) (span, bool) {
	r := a.rule
	n, size := len(a.tokens), len(r.tokens)
	skipShift, minOccurSkip, prevSkip := 0, 0, 0
	var prev *tokenMatcher

	for k := 0; k < size; k++ {
		cur := a.matchers[k]
		cur.resolveReference(k, a.sp.first, a.sp.positions, a.tokens, a.env)

		next := i + k + skipShift - minOccurSkip
		if prevSkip < 0 || next+prevSkip >= n {
			prevSkip = n - (next + 1)
		}
		maxTok := min(next+prevSkip, n-(size-k)+r.countMin0, n-1)

		matched, elided := false, false
		for m := next; m <= maxTok; m++ {
			matched = a.testAllReadings(cur, prev, m)
			if cur.base.Min() == 0 && a.followerMatches(k, cur, m) {
				elided = true
				break
			}
			if matched {
				last := m + a.repeat(cur, prev, m, size-k-1)
				skip := last - next
				a.sp.positions[k] = skip + 1
				prevSkip = cur.base.Skip()
				skipShift += skip
				if a.sp.first < 0 {
					a.sp.first = m
				}
				if a.sp.firstMarker < 0 && k >= r.markerStart {
					a.sp.firstMarker = m
				}
				if k <= r.markerEnd {
					a.sp.lastMarker = last
				}
				a.sp.last = last
				break
			}
			if prev != nil && a.nextExcepted(prev, m) {
				// The window cannot skip past a token vetoed by the
				// previous position.
				break
			}
		}

		switch {
		case elided:
			minOccurSkip++
		case matched:
		case a.optionalFrom(k):
			minOccurSkip++
		default:
			return span{}, false
		}
		prev = cur
	}
	if a.sp.first < 0 {
		return span{}, false
	}
	return a.sp, true
}

// followerMatches reports whether a pattern token after the optional token
// k matches at m. Only optional tokens are looked past.
func (a *attempt) followerMatches(k int, cur *tokenMatcher, m int) bool {
	for k2 := k + 1; k2 < len(a.matchers); k2++ {
		nextM := a.matchers[k2]
		if a.testAllReadings(nextM, cur, m) {
			return true
		}
		if nextM.base.Min() > 0 {
			return false
		}
	}
	return false
}

// nextExcepted reports whether any reading of token m triggers a
// next-scope exception of prev.
func (a *attempt) nextExcepted(prev *tokenMatcher, m int) bool {
	if !prev.tok.HasNextException() {
		return false
	}
	tok := a.tokens[m]
	for _, rd := range tok.Readings {
		if prev.tok.IsMatchedByScopeNextException(rd, tok.WhitespaceBefore) {
			return true
		}
	}
	return false
}

// optionalFrom reports whether every pattern token from k on is optional.
func (a *attempt) optionalFrom(k int) bool {
	for _, t := range a.rule.tokens[k:] {
		if t.Min() > 0 {
			return false
		}
	}
	return true
}

// repeat counts the extra tokens a repeatable pattern token consumes after
// matching at m, leaving room for the remaining pattern tokens.
func (a *attempt) repeat(cur *tokenMatcher, prev *tokenMatcher, m, remaining int) int {
	maxOcc := cur.base.Max()
	n := len(a.tokens)
	extra := 0
	for j := 1; (maxOcc < 0 || j < maxOcc) && m+j < n-remaining; j++ {
		if !a.testAllReadings(cur, prev, m+j) {
			break
		}
		extra++
	}
	return extra
}

// testAllReadings reports whether sentence token m satisfies the pattern
// position cur. prev is the preceding pattern position, whose next-scope
// exceptions apply.
func (a *attempt) testAllReadings(cur, prev *tokenMatcher, m int) bool {
	tok := a.tokens[m]
	if tok.Immunized {
		return false
	}
	ws := tok.WhitespaceBefore
	cur.prepareAndGroup()

	matched := false
	last := len(tok.Readings) - 1
	for l, rd := range tok.Readings {
		if prev != nil && prev.tok.IsMatchedByScopeNextException(rd, ws) {
			return false
		}
		tested := false
		if !matched {
			matched = cur.isMatched(rd, ws)
			tested = true
		}
		if a.rule.grouped {
			matched = a.unifyAndGroup(cur, rd, ws, matched, tested, l == last) && matched
		}
	}

	if matched && a.unifier != nil && cur.tok.IsUnificationNeutral() && a.unifier.State() != unify.Idle {
		a.unifier.AddNeutral(tok)
	}
	if !matched {
		return false
	}
	for _, rd := range tok.Readings {
		if cur.tok.IsExceptionMatchedCompletely(rd, ws) {
			return false
		}
	}
	if m > 0 && cur.tok.HasPreviousException() && cur.tok.IsMatchedByPreviousException(a.tokens[m-1]) {
		return false
	}
	return true
}

// unifyAndGroup feeds one reading to the unifier and the AND group.
func (a *attempt) unifyAndGroup(cur *tokenMatcher, rd sentence.Reading, ws, matched, tested, lastReading bool) bool {
	res := matched
	if u := a.unifier; u != nil {
		t := cur.tok
		elemMatched := matched
		if !tested {
			elemMatched = cur.isMatched(rd, ws)
		}
		if matched && t.IsUnified() {
			uni := t.Unification()
			switch {
			case uni.Last && uni.Negated:
				res = !(res && u.IsUnified(rd, uni.Features, lastReading, elemMatched))
			case uni.Last:
				res = res && u.IsUnified(rd, uni.Features, lastReading, elemMatched)
			default:
				u.IsUnified(rd, uni.Features, lastReading, elemMatched)
			}
		}
		if !t.IsUnified() && !t.IsUnificationNeutral() {
			u.Reset()
		}
	}
	if cur.and != nil {
		cur.addMemberAndGroup(rd, ws)
		if lastReading {
			res = cur.checkAndGroup(res)
		}
	}
	return res
}
