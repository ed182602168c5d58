package pattern

import (
	"strings"

	"github.com/coregx/coregex"
)

// Bind returns a copy of t with its back-reference resolved. forms are the
// formatted referent forms and posTag the target tag computed from the
// reference directive.
//
// If the directive sets the POS, the copy tests posTag and the placeholder
// is removed from the text. Otherwise the placeholder is replaced by the
// forms; several forms, or a regex template, produce a regex alternation of
// the quoted forms. The copy compiles its matchers uncached with the
// configuration t was built with. Bind on a token without a reference
// returns t.
func (t *Token) Bind(forms []string, posTag string) (*Token, error) {
	ref := t.spec.Reference
	if ref == nil {
		return t, nil
	}
	spec := t.spec
	spec.Reference = nil
	ph := ref.Placeholder()

	switch {
	case ref.Match.SetsPOS():
		if posTag != "" {
			spec.POS = posTag
			spec.POSRegex = ref.Match.POSRegex()
		}
		spec.Text = strings.ReplaceAll(spec.Text, ph, "")
	case spec.Regex:
		spec.Text = strings.ReplaceAll(spec.Text, ph, alternation(forms))
	case len(forms) == 1:
		spec.Text = strings.ReplaceAll(spec.Text, ph, forms[0])
	default:
		parts := strings.Split(spec.Text, ph)
		for i, p := range parts {
			parts[i] = coregex.QuoteMeta(p)
		}
		spec.Text = strings.Join(parts, alternation(forms))
		spec.Regex = true
	}
	return build(spec, uncached{t.bindConfig}, false)
}

func alternation(forms []string) string {
	quoted := make([]string, len(forms))
	for i, f := range forms {
		quoted[i] = coregex.QuoteMeta(f)
	}
	return "(?:" + strings.Join(quoted, "|") + ")"
}
