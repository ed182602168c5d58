package message

import (
	"strings"
)

// Resolver returns the forms for the index-th back-reference occurrence of
// the template, which refers to ref. An empty result elides the reference.
type Resolver func(ref, index int) []string

// Render expands the template. resolve is called once per reference
// occurrence, in template order.
//
// Outside suggestions several forms are joined with ", ". Inside a
// suggestion they multiply with the other references of the same
// suggestion, and every combination becomes its own suggestion.
//
// An elided reference takes one adjacent space with it, so that
// "the \2 house" renders as "the house".
func (t *Template) Render(resolve Resolver) string {
	var b strings.Builder
	idx := 0
	dropLead := false
	for i := 0; i < len(t.segs); i++ {
		s := t.segs[i]
		switch s.kind {
		case kindText:
			text := s.text
			if dropLead {
				text = text[1:]
				dropLead = false
			}
			b.WriteString(text)
		case kindRef:
			forms := resolve(s.ref, idx)
			idx++
			if !elided(forms) {
				b.WriteString(strings.Join(forms, ", "))
				continue
			}
			out := b.String()
			switch trimLeft, trimRight := elision(out, t.next(i)); {
			case trimLeft:
				b.Reset()
				b.WriteString(out[:len(out)-1])
			case trimRight:
				dropLead = true
			}
		case kindOpen:
			end := i + 1
			for end < len(t.segs) && t.segs[end].kind != kindClose {
				end++
			}
			alts := renderSuggestion(t.segs[i+1:end], resolve, &idx)
			b.WriteString(SuggestionStart)
			b.WriteString(strings.Join(alts, SuggestionEnd+", "+SuggestionStart))
			b.WriteString(SuggestionEnd)
			i = end
		}
	}
	return b.String()
}

// renderSuggestion returns every combination of one suggestion's forms.
func renderSuggestion(segs []segment, resolve Resolver, idx *int) []string {
	alts := []string{""}
	dropLead := false
	for i, s := range segs {
		if s.kind == kindText {
			text := s.text
			if dropLead {
				text = text[1:]
				dropLead = false
			}
			for k := range alts {
				alts[k] += text
			}
			continue
		}
		forms := resolve(s.ref, *idx)
		*idx++
		if !elided(forms) {
			alts = product(alts, forms)
			continue
		}
		right := SuggestionEnd
		if i+1 < len(segs) {
			right = segs[i+1].raw()
		}
		for k, alt := range alts {
			left := alt
			if left == "" {
				left = SuggestionStart
			}
			trimLeft, trimRight := elision(left, right)
			if trimLeft {
				alts[k] = alt[:len(alt)-1]
			}
			if trimRight {
				dropLead = true
			}
		}
	}
	return alts
}

func elided(forms []string) bool {
	return len(forms) == 0 || (len(forms) == 1 && forms[0] == "")
}

// elision decides which space to drop around an elided reference with
// left before it and right after it.
func elision(left, right string) (trimLeft, trimRight bool) {
	if strings.HasSuffix(left, " ") && right != "" && strings.ContainsRune(" \t\n,:;.!?", rune(right[0])) {
		return true, false
	}
	if strings.HasSuffix(left, "suggestion>") && strings.HasPrefix(right, " ") {
		return false, true
	}
	return false, false
}

// product appends every form to every prefix, keeping the first
// occurrence of duplicates.
func product(prefixes, forms []string) []string {
	seen := make(map[string]struct{}, len(prefixes)*len(forms))
	out := make([]string, 0, len(prefixes)*len(forms))
	for _, p := range prefixes {
		for _, f := range forms {
			s := p + f
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// next returns the source text following segment i.
func (t *Template) next(i int) string {
	if i+1 < len(t.segs) {
		return t.segs[i+1].raw()
	}
	return ""
}
