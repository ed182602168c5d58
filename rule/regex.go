package rule

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/coregx/corerule/internal/capture"
	"github.com/coregx/corerule/literal"
	"github.com/coregx/corerule/message"
	"github.com/coregx/corerule/prefilter"
	"github.com/coregx/corerule/sentence"
	"github.com/coregx/corerule/synth"
)

// DefaultMaxRegexSentenceLength is the length in bytes above which regex
// rules skip a sentence.
const DefaultMaxRegexSentenceLength = 2000

// RegexDefinition is the input to NewRegex.
type RegexDefinition struct {
	ID          string
	Description string

	Pattern       string
	CaseSensitive bool
	// MarkGroup selects the capture group reported as the match span; 0 is
	// the whole match.
	MarkGroup int

	// Message and ShortMessage refer to capture groups as \N.
	Message      string
	ShortMessage string
	// Matches format capture groups: a directive whose TokenRef is N
	// applies its regex replacement and case conversion to group N.
	Matches []*synth.Match

	// MaxSentenceLength skips longer sentences; 0 selects
	// DefaultMaxRegexSentenceLength.
	MaxSentenceLength int

	// Prefilter enables a required-substring scan before the regex runs.
	Prefilter bool
	Literals  literal.ExtractorConfig
	Tracker   prefilter.TrackerConfig
	Logger    *slog.Logger
}

// RegexRule is a text-level rule matched by a regular expression over the
// whole sentence text.
type RegexRule struct {
	id, description string

	re     *capture.Regex
	mark   int
	msg    *message.Template
	short  *message.Template
	byRef  map[int]*synth.Match
	maxLen int

	tracker *prefilter.Tracker
}

// NewRegex compiles def.
func NewRegex(def RegexDefinition) (*RegexRule, error) {
	src := def.Pattern
	if !def.CaseSensitive {
		src = "(?i)" + src
	}
	re, err := capture.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("regex rule %s: %w", def.ID, err)
	}
	groups := re.Groups()
	if def.MarkGroup < 0 || def.MarkGroup > groups {
		return nil, fmt.Errorf("regex rule %s: mark group %d out of range, pattern has %d groups", def.ID, def.MarkGroup, groups)
	}
	r := &RegexRule{
		id:          def.ID,
		description: def.Description,
		re:          re,
		mark:        def.MarkGroup,
		byRef:       make(map[int]*synth.Match, len(def.Matches)),
		maxLen:      def.MaxSentenceLength,
	}
	if r.maxLen <= 0 {
		r.maxLen = DefaultMaxRegexSentenceLength
	}
	for _, m := range def.Matches {
		if ref := m.TokenRef(); ref < 0 || ref > groups {
			return nil, fmt.Errorf("regex rule %s: directive for group %d, pattern has %d groups", def.ID, ref, groups)
		}
		if _, ok := r.byRef[m.TokenRef()]; !ok {
			r.byRef[m.TokenRef()] = m
		}
	}
	if r.msg, err = message.Parse(def.Message); err != nil {
		return nil, fmt.Errorf("regex rule %s: %w", def.ID, err)
	}
	if r.short, err = message.Parse(def.ShortMessage); err != nil {
		return nil, fmt.Errorf("regex rule %s: %w", def.ID, err)
	}
	for _, t := range []*message.Template{r.msg, r.short} {
		for _, ref := range t.Refs() {
			if ref.N > groups {
				return nil, fmt.Errorf(`regex rule %s: reference \%d in %q, pattern has %d groups`, def.ID, ref.N, t, groups)
			}
		}
	}

	if def.Prefilter {
		r.tracker = buildTracker(def, re)
	}
	return r, nil
}

// MustNewRegex is like NewRegex but panics on error.
func MustNewRegex(def RegexDefinition) *RegexRule {
	r, err := NewRegex(def)
	if err != nil {
		panic(err)
	}
	return r
}

func buildTracker(def RegexDefinition, re *capture.Regex) *prefilter.Tracker {
	cfg := def.Literals
	if cfg.MaxLiterals == 0 {
		cfg = literal.DefaultConfig()
	}
	required := literal.New(cfg).ExtractInner(re.Tree())
	pf := prefilter.NewBuilder(required).Build()
	if pf == nil {
		if def.Logger != nil {
			def.Logger.Debug("no prefilter for regex rule", "rule", def.ID)
		}
		return nil
	}
	tc := def.Tracker
	if tc.CheckInterval == 0 {
		tc = prefilter.DefaultTrackerConfig()
	}
	tc.Logger = def.Logger
	tc.Name = def.ID
	return prefilter.NewTrackerWithConfig(pf, tc)
}

// ID returns the rule id.
func (r *RegexRule) ID() string { return r.id }

// Description returns the rule description.
func (r *RegexRule) Description() string { return r.description }

// Prefilter returns the prefilter tracker, or nil when the rule runs
// without one.
func (r *RegexRule) Prefilter() *prefilter.Tracker { return r.tracker }

// Match matches the rule against the text of s.
func (r *RegexRule) Match(s *sentence.Sentence) []Match {
	return r.MatchText(s.Text())
}

// MatchText returns the non-overlapping matches in text, left to right.
func (r *RegexRule) MatchText(text string) []Match {
	if len(text) > r.maxLen {
		return nil
	}
	if r.tracker != nil && r.tracker.IsActive() && r.tracker.Find([]byte(text), 0) < 0 {
		return nil
	}

	var out []Match
	for _, loc := range r.re.FindAllStringSubmatchIndex(text) {
		from, to, ok := capture.Group(loc, r.mark)
		if !ok || from >= to {
			continue
		}
		groups := func(ref, _ int) []string {
			gFrom, gTo, ok := capture.Group(loc, ref)
			if !ok {
				return nil
			}
			g := text[gFrom:gTo]
			d, ok := r.byRef[ref]
			if !ok {
				return []string{g}
			}
			return []string{d.ConvertCase(d.ReplaceText(g), g)}
		}
		msg := r.msg.Render(groups)
		m := Match{
			RuleID:       r.id,
			From:         from,
			To:           to,
			PatternFrom:  loc[0],
			PatternTo:    loc[1],
			Message:      msg,
			ShortMessage: r.short.Render(groups),
			Suggestions:  message.Suggestions(msg),
		}
		if loc[0] == 0 && synth.StartsWithUpper(text[from:to]) {
			m.StartsWithUppercase = true
			for i, s := range m.Suggestions {
				m.Suggestions[i] = synth.UpperFirst(s)
			}
		}
		out = append(out, m)
	}
	if len(out) > 0 && r.tracker != nil {
		r.tracker.ConfirmMatch()
	}
	return out
}

// String returns the id and pattern.
func (r *RegexRule) String() string {
	var sb strings.Builder
	sb.WriteString(r.id)
	sb.WriteString(" /")
	sb.WriteString(r.re.String())
	sb.WriteByte('/')
	return sb.String()
}
