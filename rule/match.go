package rule

import (
	"fmt"

	"github.com/coregx/corerule/sentence"
)

// Match is a reported rule match. Offsets are byte offsets into the
// sentence text.
type Match struct {
	RuleID string
	SubID  string

	// From and To delimit the marker span.
	From, To int
	// PatternFrom and PatternTo delimit the whole matched pattern.
	PatternFrom, PatternTo int

	Message      string
	ShortMessage string
	Suggestions  []string

	// StartsWithUppercase reports that the suggestions were capitalized
	// because the matched text starts with an uppercase letter.
	StartsWithUppercase bool
}

// String returns a compact description for debugging.
func (m Match) String() string {
	return fmt.Sprintf("%s[%d:%d] %q %v", m.RuleID, m.From, m.To, m.Message, m.Suggestions)
}

// Filter post-processes a match. It returns the match to report, possibly
// modified, and false to drop it. args holds the rule's filter arguments
// with \N references resolved to the text of the matched token; tokens are
// the matched sentence tokens.
type Filter interface {
	Accept(m Match, args map[string]string, tokens []*sentence.Token) (Match, bool)
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(m Match, args map[string]string, tokens []*sentence.Token) (Match, bool)

// Accept calls f.
func (f FilterFunc) Accept(m Match, args map[string]string, tokens []*sentence.Token) (Match, bool) {
	return f(m, args, tokens)
}
