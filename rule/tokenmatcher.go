package rule

import (
	"github.com/coregx/corerule/pattern"
	"github.com/coregx/corerule/sentence"
	"github.com/coregx/corerule/synth"
)

// tokenMatcher is the per-attempt state of one pattern position: the token
// bound to its back-reference, if any, and the AND group flags. Flag 0 is
// the token itself, flag i+1 the i-th AND member.
type tokenMatcher struct {
	base *pattern.Token
	tok  *pattern.Token
	and  []bool
}

func newTokenMatcher(t *pattern.Token) *tokenMatcher {
	m := &tokenMatcher{base: t, tok: t}
	if t.HasAndGroup() {
		m.and = make([]bool, len(t.AndGroup())+1)
	}
	return m
}

// resolveReference binds the token to the referent matched by an earlier
// position. k is the index of this position. The token stays unbound, and
// therefore never matches, when the referent is not matched yet or lies
// outside the sentence.
func (m *tokenMatcher) resolveReference(k, first int, positions []int, tokens []*sentence.Token, env synth.Env) {
	ref := m.base.Reference()
	if ref == nil {
		return
	}
	m.tok = m.base
	if first < 0 || ref.Index >= k {
		return
	}
	idx := first - 1
	for _, p := range positions[:ref.Index+1] {
		idx += p
	}
	if idx < 0 || idx >= len(tokens) {
		return
	}
	st := ref.Match.NewState(env, tokens, idx, 0)
	bound, err := m.base.Bind(st.FinalStrings(), st.TargetPOSTag())
	if err != nil {
		return
	}
	m.tok = bound
}

func (m *tokenMatcher) prepareAndGroup() {
	for i := range m.and {
		m.and[i] = false
	}
}

// isMatched tests the token itself and records the outcome in flag 0.
func (m *tokenMatcher) isMatched(r sentence.Reading, ws bool) bool {
	ok := m.tok.Matches(r, ws)
	if ok && m.and != nil {
		m.and[0] = true
	}
	return ok
}

func (m *tokenMatcher) addMemberAndGroup(r sentence.Reading, ws bool) {
	for i, mem := range m.tok.AndGroup() {
		if i+1 < len(m.and) && !m.and[i+1] && mem.Matches(r, ws) {
			m.and[i+1] = true
		}
	}
}

// checkAndGroup requires every AND flag once all readings were seen.
func (m *tokenMatcher) checkAndGroup(matched bool) bool {
	if m.and == nil {
		return matched
	}
	for _, f := range m.and {
		if !f {
			return false
		}
	}
	return true
}
