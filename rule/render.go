package rule

import (
	"strconv"
	"strings"

	"github.com/coregx/corerule/message"
	"github.com/coregx/corerule/sentence"
	"github.com/coregx/corerule/synth"
)

// renderer turns a provisional span into a reported Match.
type renderer struct {
	rule   *Rule
	tokens []*sentence.Token
	env    synth.Env
	sp     span
}

// tokenIndex returns the sentence index of the last token consumed by
// pattern token t, clamped to the sentence.
func (rd *renderer) tokenIndex(t int) int {
	pos := rd.sp.positions
	idx := rd.sp.first - 1
	for _, p := range pos[:min(t, len(pos)-1)+1] {
		idx += p
	}
	return max(0, min(idx, len(rd.tokens)-1))
}

// format renders tmpl. Every \N occurrence takes the next directive of dirs;
// once they run out, a repeated reference reuses the directive it was
// first bound to.
func (rd *renderer) format(tmpl *message.Template, dirs []*synth.Match) string {
	if tmpl.IsEmpty() {
		return ""
	}
	counter := 0
	bound := make(map[int]*synth.Match)
	out := tmpl.Render(func(ref, _ int) []string {
		var d *synth.Match
		if len(dirs) > 0 {
			if counter < len(dirs) {
				d = dirs[counter]
				if _, ok := bound[ref]; !ok {
					bound[ref] = d
				}
				counter++
			} else if d = bound[ref]; d == nil {
				d = dirs[0]
			}
		}
		return rd.forms(ref-1, d)
	})
	if suppresses(dirs) {
		out = message.DropMisspelled(out)
	}
	return out
}

// forms renders message element j with directive d, or as plain text when
// d is nil. Multi-token elements render every token and join the
// combinations with spaces. An elided optional element renders nothing.
func (rd *renderer) forms(j int, d *synth.Match) []string {
	pos := rd.sp.positions
	t0, count := rd.rule.elementTokens(j)
	if t0 < len(pos) && pos[t0] == 0 {
		return nil
	}
	lists := make([][]string, count)
	for i := range lists {
		idx := rd.tokenIndex(t0 + i)
		if d == nil {
			lists[i] = []string{rd.tokens[idx].Text()}
			continue
		}
		next := 0
		if t1 := t0 + count; t1 < len(pos) {
			next = rd.tokenIndex(t1) - idx
		}
		lists[i] = d.NewState(rd.env, rd.tokens, idx, next).FinalStrings()
	}
	return joinPhrase(lists)
}

// joinPhrase returns every combination of one form per list, joined by
// single spaces.
func joinPhrase(lists [][]string) []string {
	if len(lists) == 1 {
		return lists[0]
	}
	acc := []string{""}
	for i, forms := range lists {
		next := make([]string, 0, len(acc)*len(forms))
		for _, a := range acc {
			for _, f := range forms {
				if i == 0 {
					next = append(next, f)
				} else {
					next = append(next, a+" "+f)
				}
			}
		}
		acc = next
	}
	return acc
}

func suppresses(dirs []*synth.Match) bool {
	for _, d := range dirs {
		if d.SuppressMisspelled() {
			return true
		}
	}
	return false
}

// preservesCase reports whether capitalizing the suggestions of tmpl is
// safe: a suggestion starting with a case-converting directive already
// has the right case.
func preservesCase(tmpl *message.Template, dirs []*synth.Match) bool {
	if !tmpl.SuggestionLeadsWithRef() {
		return true
	}
	for _, d := range dirs {
		if !d.InMessageOnly() && d.Case() != synth.CaseNone {
			return false
		}
	}
	return true
}

// createMatch renders the span. It reports false when the span collapses
// to nothing, when every suggestion was dropped as misspelled, or when the
// filter rejects the match.
func (rd *renderer) createMatch() (Match, bool) {
	r := rd.rule
	n := len(rd.tokens)
	sp := rd.sp

	msg := rd.format(r.message, r.matches)
	short := rd.format(r.shortMessage, r.matches)
	out := rd.format(r.outMessage, r.outMatches)

	idx := sp.first
	if r.markerStart > 0 {
		idx = rd.tokenIndex(r.markerStart)
	}
	idx = min(idx, n-1)
	upper := synth.StartsWithUpper(rd.tokens[idx].Text()) &&
		preservesCase(r.message, r.matches) &&
		preservesCase(r.outMessage, r.outMatches)
	if rd.tokens[idx].IsSentenceStart() && sp.first+1 < n {
		upper = synth.StartsWithUpper(rd.tokens[sp.first+1].Text())
	}

	firstMarker, lastMarker := sp.markerRange(n)
	from := rd.tokens[firstMarker].Offset
	if firstMarker >= 1 && (strings.Contains(msg, message.SuggestionStart+",") || strings.Contains(out, message.SuggestionStart+",")) {
		from = rd.tokens[firstMarker-1].EndOffset()
	}
	to := rd.tokens[lastMarker].EndOffset()
	if from >= to {
		return Match{}, false
	}

	suggestions := append(message.Suggestions(msg), message.Suggestions(out)...)
	if (suppresses(r.matches) || suppresses(r.outMatches)) && len(suggestions) == 0 {
		return Match{}, false
	}
	if upper {
		for i, s := range suggestions {
			suggestions[i] = synth.UpperFirst(s)
		}
	}

	m := Match{
		RuleID:              r.id,
		SubID:               r.subID,
		From:                from,
		To:                  to,
		PatternFrom:         rd.tokens[min(sp.first, n-1)].Offset,
		PatternTo:           rd.tokens[min(sp.last, n-1)].EndOffset(),
		Message:             strings.ReplaceAll(msg, synth.Mistake, ""),
		ShortMessage:        strings.ReplaceAll(short, synth.Mistake, ""),
		Suggestions:         suggestions,
		StartsWithUppercase: upper,
	}
	if r.filter == nil {
		return m, true
	}
	last := min(sp.last, n-1)
	return r.filter.Accept(m, rd.filterArgs(), rd.tokens[sp.first:last+1])
}

// filterArgs resolves \N values to the text of message element N.
func (rd *renderer) filterArgs() map[string]string {
	args := make(map[string]string, len(rd.rule.filterArgs))
	for k, v := range rd.rule.filterArgs {
		if ref, ok := strings.CutPrefix(v, `\`); ok {
			if j, err := strconv.Atoi(ref); err == nil && j > 0 {
				t0, _ := rd.rule.elementTokens(j - 1)
				v = rd.tokens[rd.tokenIndex(t0)].Text()
			}
		}
		args[k] = v
	}
	return args
}
