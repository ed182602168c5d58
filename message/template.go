// Package message parses and renders rule message templates.
//
// A template is plain text with back-references (\1, \2, ...) and
// <suggestion>...</suggestion> elements:
//
//	Did you mean <suggestion>\1 \2</suggestion>?
//
// Rendering resolves every back-reference to zero or more forms. Multiple
// forms inside a suggestion multiply into sibling suggestions.
package message

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

const (
	// SuggestionStart opens a suggestion element.
	SuggestionStart = "<suggestion>"
	// SuggestionEnd closes a suggestion element.
	SuggestionEnd = "</suggestion>"
)

// templateGrammar is the participle grammar for message templates.
//
//nolint:govet // participle grammar tags are not standard struct tags
type templateGrammar struct {
	Parts []*partGrammar `parser:"@@*"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type partGrammar struct {
	Suggestion *suggestionGrammar `parser:"  @@"`
	Inline     *inlineGrammar     `parser:"| @@"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type suggestionGrammar struct {
	Items []*inlineGrammar `parser:"SugOpen @@* SugClose"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type inlineGrammar struct {
	Ref  *string `parser:"  @Ref"`
	Text *string `parser:"| @( Text | Char )"`
}

// templateLexer tokenizes templates. Rule order matters: the tag rules
// must win over the lone '<' of Char.
var templateLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "SugOpen", Pattern: `<suggestion>`},
	{Name: "SugClose", Pattern: `</suggestion>`},
	{Name: "Ref", Pattern: `\\[1-9][0-9]*`},
	{Name: "Text", Pattern: `[^<\\]+`},
	{Name: "Char", Pattern: `[<\\]`},
})

var templateParser = participle.MustBuild[templateGrammar](
	participle.Lexer(templateLexer),
)

type kind uint8

const (
	kindText kind = iota
	kindRef
	kindOpen
	kindClose
)

type segment struct {
	kind kind
	text string
	ref  int
}

// raw returns the source text of the segment.
func (s segment) raw() string {
	switch s.kind {
	case kindRef:
		return "\\" + strconv.Itoa(s.ref)
	case kindOpen:
		return SuggestionStart
	case kindClose:
		return SuggestionEnd
	default:
		return s.text
	}
}

// Template is a parsed message template. It is immutable and safe for
// concurrent use.
type Template struct {
	src  string
	segs []segment
}

// RefUse describes one back-reference occurrence, in template order.
type RefUse struct {
	// N is the 1-based reference number.
	N int
	// InSuggestion reports whether the reference is inside a suggestion.
	InSuggestion bool
	// LeadsSuggestion reports whether the suggestion text starts with it.
	LeadsSuggestion bool
}

// Parse parses a template. Unbalanced or nested suggestion tags are an
// error.
func Parse(s string) (*Template, error) {
	g, err := templateParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("message: invalid template %q: %w", s, err)
	}
	t := &Template{src: s}
	for _, p := range g.Parts {
		if p.Suggestion != nil {
			t.segs = append(t.segs, segment{kind: kindOpen})
			for _, it := range p.Suggestion.Items {
				if err := t.addInline(it); err != nil {
					return nil, err
				}
			}
			t.segs = append(t.segs, segment{kind: kindClose})
			continue
		}
		if err := t.addInline(p.Inline); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Template {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) addInline(it *inlineGrammar) error {
	if it.Ref != nil {
		n, err := strconv.Atoi(strings.TrimPrefix(*it.Ref, "\\"))
		if err != nil {
			return fmt.Errorf("message: invalid reference %q: %w", *it.Ref, err)
		}
		t.segs = append(t.segs, segment{kind: kindRef, ref: n})
		return nil
	}
	// Merge adjacent text so elision sees the whole following run.
	if n := len(t.segs); n > 0 && t.segs[n-1].kind == kindText {
		t.segs[n-1].text += *it.Text
		return nil
	}
	t.segs = append(t.segs, segment{kind: kindText, text: *it.Text})
	return nil
}

// String returns the source text.
func (t *Template) String() string { return t.src }

// IsEmpty reports whether the template has no content.
func (t *Template) IsEmpty() bool { return len(t.segs) == 0 }

// Refs returns the back-reference occurrences in order.
func (t *Template) Refs() []RefUse {
	var out []RefUse
	in, lead := false, false
	for _, s := range t.segs {
		switch s.kind {
		case kindOpen:
			in, lead = true, true
		case kindClose:
			in = false
		case kindRef:
			out = append(out, RefUse{N: s.ref, InSuggestion: in, LeadsSuggestion: lead})
			lead = false
		case kindText:
			lead = false
		}
	}
	return out
}

// HasSuggestions reports whether the template contains a suggestion.
func (t *Template) HasSuggestions() bool {
	for _, s := range t.segs {
		if s.kind == kindOpen {
			return true
		}
	}
	return false
}

// SuggestionLeadsWithRef reports whether the first suggestion of the
// template starts with a back-reference.
func (t *Template) SuggestionLeadsWithRef() bool {
	for i, s := range t.segs {
		if s.kind == kindOpen {
			return i+1 < len(t.segs) && t.segs[i+1].kind == kindRef
		}
	}
	return false
}
