package synth

import (
	"sort"
	"strings"

	"github.com/coregx/corerule/sentence"
)

// State applies a Match to one matched token. It is created per use and
// never shared.
type State struct {
	match *Match
	env   Env

	// formatted is the token whose forms are rendered. It is nil when only
	// the skipped tokens are included.
	formatted *sentence.Token
	// matched is the case sample for static lemmas.
	matched *sentence.Token
	skipped string
}

// NewState prepares m for tokens[index]. next is the distance from index to
// the token that follows the skipped range; the tokens strictly between them
// are the skipped tokens. An index past the end is clamped to the last
// token.
func (m *Match) NewState(env Env, tokens []*sentence.Token, index, next int) *State {
	s := &State{match: m, env: env}
	if m.IsStaticLemma() {
		s.formatted = &sentence.Token{Readings: []sentence.Reading{{
			Surface: m.spec.Lemma,
			Lemma:   m.spec.Lemma,
			POS:     m.spec.POSTag,
		}}}
	}
	if len(tokens) == 0 {
		return s
	}

	idx := min(index, len(tokens)-1)
	if m.IsStaticLemma() {
		s.matched = tokens[idx]
	} else {
		s.formatted = tokens[idx]
	}

	if next > 1 && m.spec.Include != IncludeNone {
		if m.spec.Include == IncludeFollowing {
			s.formatted = nil
		}
		var sb strings.Builder
		for k := index + 1; k < index+next && k < len(tokens); k++ {
			if tokens[k].WhitespaceBefore && !(k == index+1 && m.spec.Include == IncludeFollowing) {
				sb.WriteByte(' ')
			}
			sb.WriteString(tokens[k].Text())
		}
		s.skipped = sb.String()
	}
	return s
}

// NewTokenState prepares m for a single token without a skipped range.
func (m *Match) NewTokenState(env Env, tok *sentence.Token) *State {
	return m.NewState(env, []*sentence.Token{tok}, 0, 0)
}

// FinalStrings returns the rendered forms. Multiple forms come from
// synthesis and are sorted.
func (s *State) FinalStrings() []string {
	m := s.match
	forms := []string{""}
	if s.formatted != nil {
		forms = []string{m.ReplaceText(s.formatted.Text())}
		if m.spec.POSTag != "" {
			switch {
			case s.env.Synthesizer == nil:
				forms = []string{s.formatted.Text()}
			case m.spec.POSRegex:
				forms = s.synthesizeRegex()
			default:
				forms = s.synthesize(m.spec.POSTag, false)
			}
		}
	}

	original := ""
	switch {
	case m.IsStaticLemma() && s.matched != nil:
		original = s.matched.Text()
	case !m.IsStaticLemma() && s.formatted != nil:
		original = s.formatted.Text()
	}
	for i, f := range forms {
		forms[i] = m.ConvertCase(f, original)
	}

	if m.spec.Include != IncludeNone && s.skipped != "" {
		for i := range forms {
			forms[i] += s.skipped
		}
	}

	if m.spec.SuppressMisspelled && s.env.Tagger != nil {
		for i, f := range forms {
			if !s.known(f) {
				forms[i] = Mistake
			}
		}
	}
	return forms
}

func (s *State) known(word string) bool {
	readings := s.env.Tagger.Tag(word)
	return len(readings) > 0 && !readings[0].HasNoTag()
}

// synthesizeRegex re-synthesizes every reading with the target tag derived
// from the POS regex. Readings the tagger knew nothing about, and the
// sentence boundary readings, keep the surface form.
func (s *State) synthesizeRegex() []string {
	set := make(map[string]struct{})
	oneForm := false
	text := s.formatted.Text()
	for _, r := range s.formatted.Readings {
		if r.Lemma != "" {
			continue
		}
		switch r.POS {
		case "":
			set[text] = struct{}{}
			oneForm = true
		case sentence.SentenceStartTag, sentence.SentenceEndTag:
			if !oneForm {
				set[text] = struct{}{}
			}
			oneForm = true
		default:
			oneForm = false
		}
	}
	if !oneForm {
		for _, f := range s.synthesize(s.TargetPOSTag(), true) {
			set[f] = struct{}{}
		}
	}
	if len(set) == 0 {
		if s.match.spec.SuppressMisspelled {
			return []string{""}
		}
		return []string{"(" + text + ")"}
	}
	return sortedKeys(set)
}

func (s *State) synthesize(posTag string, posRegex bool) []string {
	set := make(map[string]struct{})
	for _, r := range s.formatted.Readings {
		for _, f := range s.env.Synthesizer.Synthesize(r, posTag, posRegex) {
			set[f] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// TokenString joins the final forms with "|", ready to be used as a regex
// alternation. Forms are not quoted.
func (s *State) TokenString() string {
	return strings.Join(s.FinalStrings(), "|")
}

// TargetPOSTag returns the tag used for re-synthesis: the readings' tags
// matching the POS regex, rewritten with POSReplace and joined with "|".
// Without a replacement the last matching tag is used. For static lemmas
// the tags of the matched token are consulted and only the last one is
// kept.
func (s *State) TargetPOSTag() string {
	m := s.match
	target := m.spec.POSTag
	tok := s.formatted
	if m.IsStaticLemma() {
		tok = s.matched
	}

	var tags []string
	if tok != nil && m.posMatch != nil {
		for _, r := range tok.Readings {
			if r.POS != "" && m.posMatch.Matches(r.POS) {
				target = r.POS
				tags = append(tags, r.POS)
			}
		}
	}

	if m.IsStaticLemma() {
		return m.replacePOS(target)
	}
	if m.posRe == nil || m.spec.POSReplace == "" {
		return target
	}
	if len(tags) == 0 {
		tags = []string{target}
	}
	for i, t := range tags {
		tags[i] = m.replacePOS(t)
	}
	return strings.Join(tags, "|")
}
