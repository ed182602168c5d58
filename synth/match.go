// Package synth renders back-references into suggestion text.
//
// A Match is the compiled form of one formatting directive: which token it
// refers to, how to change its case, an optional regex replacement, an
// optional target POS tag for morphological re-synthesis, and whether the
// skipped tokens after it are carried along. A State applies a Match to one
// matched token and produces the final word forms.
package synth

import (
	"fmt"

	"github.com/coregx/corerule/internal/capture"
	"github.com/coregx/corerule/strmatch"
)

// Mistake replaces a synthesized form that the tagger does not know when
// misspelled suggestions are suppressed.
const Mistake = "<mistake/>"

// Case selects the case conversion applied to a rendered form.
type Case int

const (
	// CaseNone leaves forms unchanged.
	CaseNone Case = iota
	// CasePreserve copies the case pattern of the original token: all upper
	// stays all upper and an upper first letter stays upper.
	CasePreserve
	// CaseStartUpper uppercases the first letter.
	CaseStartUpper
	// CaseStartLower lowercases the first letter.
	CaseStartLower
	// CaseAllUpper uppercases the whole form.
	CaseAllUpper
	// CaseAllLower lowercases the whole form.
	CaseAllLower
	// CaseStripDiacritics removes combining marks.
	CaseStripDiacritics
)

var caseNames = [...]string{"none", "preserve", "startupper", "startlower", "allupper", "alllower", "stripdiacritics"}

// String returns the lowercase name of the conversion.
func (c Case) String() string {
	if c >= 0 && int(c) < len(caseNames) {
		return caseNames[c]
	}
	return fmt.Sprintf("Case(%d)", int(c))
}

// Include selects which skipped tokens are appended to a rendered form.
type Include int

const (
	// IncludeNone renders only the referenced token.
	IncludeNone Include = iota
	// IncludeFollowing renders only the skipped tokens after it.
	IncludeFollowing
	// IncludeAll renders the token followed by the skipped tokens.
	IncludeAll
)

// MatchSpec is the uncompiled form of a formatting directive.
type MatchSpec struct {
	// TokenRef is the pattern position the directive formats.
	TokenRef int

	// POSTag requests re-synthesis with this tag. With POSRegex it is a
	// regular expression matched against the readings' tags.
	POSTag   string
	POSRegex bool
	// POSReplace rewrites matching tags ($1 syntax) to form the target tag.
	POSReplace string

	// RegexMatch and RegexReplace rewrite the surface text ($1 syntax).
	RegexMatch   string
	RegexReplace string

	Case    Case
	Include Include

	// Lemma is a static lemma synthesized instead of the referenced token;
	// the token then only serves as the case sample.
	Lemma string

	// SetsPOS makes a bound pattern token test the target POS instead of
	// the referenced text.
	SetsPOS bool

	// SuppressMisspelled replaces forms the tagger does not know with
	// Mistake.
	SuppressMisspelled bool

	// InMessageOnly marks directives that format message text but never
	// produce suggestions.
	InMessageOnly bool
}

// Match is an immutable compiled formatting directive.
type Match struct {
	spec MatchSpec

	posMatch *strmatch.Matcher // full-match test of reading tags
	posRe    *capture.Regex    // unanchored, for POSReplace
	regex    *capture.Regex    // unanchored, for RegexReplace
}

// NewMatch compiles spec.
func NewMatch(spec MatchSpec) (*Match, error) {
	m := &Match{spec: spec}
	if spec.POSTag != "" && spec.POSRegex {
		pm, err := strmatch.New(spec.POSTag, true, true)
		if err != nil {
			return nil, fmt.Errorf("synth: postag %q: %w", spec.POSTag, err)
		}
		re, err := capture.Compile(spec.POSTag)
		if err != nil {
			return nil, fmt.Errorf("synth: postag %q: %w", spec.POSTag, err)
		}
		m.posMatch, m.posRe = pm, re
	}
	if spec.RegexMatch != "" {
		re, err := capture.Compile(spec.RegexMatch)
		if err != nil {
			return nil, fmt.Errorf("synth: regex_match %q: %w", spec.RegexMatch, err)
		}
		m.regex = re
	}
	return m, nil
}

// MustNewMatch is like NewMatch but panics on error.
func MustNewMatch(spec MatchSpec) *Match {
	m, err := NewMatch(spec)
	if err != nil {
		panic(err)
	}
	return m
}

// Spec returns the directive source.
func (m *Match) Spec() MatchSpec { return m.spec }

// TokenRef returns the referenced pattern position.
func (m *Match) TokenRef() int { return m.spec.TokenRef }

// WithTokenRef returns a copy of m referring to ref.
func (m *Match) WithTokenRef(ref int) *Match {
	c := *m
	c.spec.TokenRef = ref
	return &c
}

// SetsPOS reports whether a bound token tests the target POS.
func (m *Match) SetsPOS() bool { return m.spec.SetsPOS }

// POSRegex reports whether the POS tag is a regular expression.
func (m *Match) POSRegex() bool { return m.spec.POSRegex }

// SuppressMisspelled reports whether unknown forms are replaced with
// Mistake.
func (m *Match) SuppressMisspelled() bool { return m.spec.SuppressMisspelled }

// InMessageOnly reports whether the directive never yields suggestions.
func (m *Match) InMessageOnly() bool { return m.spec.InMessageOnly }

// Case returns the case conversion.
func (m *Match) Case() Case { return m.spec.Case }

// IsStaticLemma reports whether a static lemma is synthesized.
func (m *Match) IsStaticLemma() bool { return m.spec.Lemma != "" }

// ConvertCase applies the directive's case conversion to s using sample as
// the case model.
func (m *Match) ConvertCase(s, sample string) string {
	return convertCase(m.spec.Case, s, sample)
}

// ReplaceText applies the directive's regex replacement to s.
func (m *Match) ReplaceText(s string) string {
	if m.regex == nil {
		return s
	}
	return m.regex.ReplaceAllString(s, m.spec.RegexReplace)
}

func (m *Match) replacePOS(tag string) string {
	if m.posRe == nil || m.spec.POSReplace == "" {
		return tag
	}
	return m.posRe.ReplaceAllString(tag, m.spec.POSReplace)
}
