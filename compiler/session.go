package compiler

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/coregx/corerule/internal/logging"
	"github.com/coregx/corerule/message"
	"github.com/coregx/corerule/pattern"
	"github.com/coregx/corerule/prefilter"
	"github.com/coregx/corerule/rule"
	"github.com/coregx/corerule/strmatch"
	"github.com/coregx/corerule/synth"
	"github.com/coregx/corerule/unify"
)

// Options configures a Session.
type Options struct {
	// Strings sets the literal decomposition limits of token matchers and
	// regex rule prefilters.
	Strings strmatch.Config

	// Prefilter enables required-substring prefilters on regex rules.
	Prefilter bool
	// Tracker configures when an ineffective prefilter is retired. The
	// zero value selects prefilter.DefaultTrackerConfig.
	Tracker prefilter.TrackerConfig
	// MaxRegexSentenceLength makes regex rules skip longer sentences; 0
	// selects rule.DefaultMaxRegexSentenceLength.
	MaxRegexSentenceLength int

	// Logger receives debug records about expansion. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns the default session options.
func DefaultOptions() Options {
	return Options{
		Strings:                strmatch.DefaultConfig(),
		Prefilter:              true,
		MaxRegexSentenceLength: rule.DefaultMaxRegexSentenceLength,
	}
}

// Session holds the tables used while loading rules. It is not safe for
// concurrent use; the rules it returns are.
type Session struct {
	opts    Options
	cache   *strmatch.Cache
	phrases map[string]Phrase
	eq      *unify.Equivalences
	logger  *slog.Logger
}

// NewSession creates a session. Zero decomposition limits select the
// defaults.
func NewSession(opts Options) *Session {
	if opts.Strings.MaxLiterals == 0 {
		opts.Strings = strmatch.DefaultConfig()
	}
	return &Session{
		opts:    opts,
		cache:   strmatch.NewCache(opts.Strings),
		phrases: make(map[string]Phrase),
		eq:      unify.NewEquivalences(),
		logger:  logging.OrDiscard(opts.Logger),
	}
}

// AddPhrase registers p for PhraseRef elements.
func (s *Session) AddPhrase(p Phrase) error {
	switch {
	case p.ID == "":
		return invalid("phrase without id")
	case len(p.Variants) == 0:
		return invalid("phrase %s has no variants", p.ID)
	}
	for i, v := range p.Variants {
		if len(v) == 0 {
			return invalid("phrase %s variant %d is empty", p.ID, i)
		}
	}
	if _, dup := s.phrases[p.ID]; dup {
		return invalid("duplicate phrase %s", p.ID)
	}
	s.phrases[p.ID] = p
	return nil
}

// AddEquivalence defines the test deciding whether a reading has type typ
// of a unification feature.
func (s *Session) AddEquivalence(feature, typ string, spec pattern.Spec) error {
	t, err := pattern.New(spec, pattern.WithCache(s.cache))
	if err != nil {
		return fmt.Errorf("equivalence %s/%s: %w", feature, typ, err)
	}
	s.eq.Add(feature, typ, t)
	return nil
}

// Equivalences returns the unification equivalences defined so far.
func (s *Session) Equivalences() *unify.Equivalences { return s.eq }

// Cache returns the string matcher cache.
func (s *Session) Cache() *strmatch.Cache { return s.cache }

// Compile expands and compiles every rule of g. Errors are *RuleError.
func (s *Session) Compile(g Group) ([]*rule.Rule, error) {
	shared, err := s.antipatterns(g.ID, g.Antipatterns)
	if err != nil {
		return nil, &RuleError{RuleID: g.ID, Err: err}
	}
	var out []*rule.Rule
	for i, src := range g.Rules {
		if src.ID == "" {
			src.ID = g.ID
		}
		if src.SubID == "" && len(g.Rules) > 1 {
			src.SubID = strconv.Itoa(i + 1)
		}
		rules, err := s.compileRule(src, shared)
		if err != nil {
			return nil, &RuleError{RuleID: src.ID, Err: err}
		}
		out = append(out, rules...)
	}
	return out, nil
}

// CompileRule compiles a single rule source without a group.
func (s *Session) CompileRule(src RuleSource) ([]*rule.Rule, error) {
	rules, err := s.compileRule(src, nil)
	if err != nil {
		return nil, &RuleError{RuleID: src.ID, Err: err}
	}
	return rules, nil
}

func (s *Session) compileRule(src RuleSource, shared []*rule.Rule) ([]*rule.Rule, error) {
	if src.ID == "" {
		return nil, invalid("rule without id")
	}
	if len(src.Elements) == 0 {
		return nil, invalid("no elements")
	}
	for _, tmpl := range []string{src.Message, src.ShortMessage, src.SuggestionsOutMsg} {
		if err := checkRefs(tmpl, len(src.Elements)); err != nil {
			return nil, err
		}
	}

	own, err := s.antipatterns(src.ID, src.Antipatterns)
	if err != nil {
		return nil, err
	}
	antipatterns := append(append([]*rule.Rule(nil), own...), shared...)

	branches, err := s.expand(src.Elements)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("expanded rule", slog.String("rule", src.ID), slog.Int("variants", len(branches)))

	out := make([]*rule.Rule, 0, len(branches))
	for k, b := range branches {
		tokens, err := s.tokens(b)
		if err != nil {
			return nil, err
		}
		matches, err := s.directives(b, src.Matches)
		if err != nil {
			return nil, err
		}
		outMatches, err := s.directives(b, src.OutMatches)
		if err != nil {
			return nil, err
		}
		start, end := b.marker()
		r, err := rule.New(rule.Definition{
			ID:                src.ID,
			SubID:             variantID(src.SubID, k, len(branches)),
			Description:       src.Description,
			Tokens:            tokens,
			ElementNo:         b.elementNo,
			MarkerStart:       start,
			MarkerEnd:         end,
			Message:           src.Message,
			ShortMessage:      src.ShortMessage,
			SuggestionsOutMsg: src.SuggestionsOutMsg,
			Matches:           matches,
			OutMatches:        outMatches,
			Antipatterns:      antipatterns,
			Filter:            src.Filter,
			FilterArgs:        src.FilterArgs,
			MinPrevMatches:    src.MinPrevMatches,
			Distance:          src.Distance,
			Equivalences:      s.eq,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// variantID numbers the k-th of n variants from 1.
func variantID(base string, k, n int) string {
	if n == 1 {
		return base
	}
	if base == "" {
		return strconv.Itoa(k + 1)
	}
	return base + "." + strconv.Itoa(k+1)
}

func checkRefs(tmpl string, elements int) error {
	t, err := message.Parse(tmpl)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	for _, ref := range t.Refs() {
		if ref.N > elements {
			return invalid(`reference \%d in %q beyond %d elements`, ref.N, tmpl, elements)
		}
	}
	return nil
}

// antipatterns compiles every pattern of pats into antipattern rules.
func (s *Session) antipatterns(id string, pats [][]Element) ([]*rule.Rule, error) {
	var out []*rule.Rule
	for i, elems := range pats {
		if len(elems) == 0 {
			return nil, invalid("antipattern %d has no elements", i)
		}
		branches, err := s.expand(elems)
		if err != nil {
			return nil, fmt.Errorf("antipattern %d: %w", i, err)
		}
		for _, b := range branches {
			tokens, err := s.tokens(b)
			if err != nil {
				return nil, fmt.Errorf("antipattern %d: %w", i, err)
			}
			start, end := b.marker()
			ap, err := rule.New(rule.Definition{
				ID:           id,
				SubID:        "antipattern",
				Tokens:       tokens,
				ElementNo:    b.elementNo,
				MarkerStart:  start,
				MarkerEnd:    end,
				Equivalences: s.eq,
			})
			if err != nil {
				return nil, fmt.Errorf("%w: antipattern %d: %v", ErrInvalidRule, i, err)
			}
			out = append(out, ap)
		}
	}
	return out, nil
}

// tokens compiles the specs of b, translating element references to token
// indices.
func (s *Session) tokens(b branch) ([]*pattern.Token, error) {
	out := make([]*pattern.Token, len(b.specs))
	for i, spec := range b.specs {
		if ref := spec.Reference; ref != nil && ref.Match != nil {
			idx, err := b.tokenIndex(ref.Index)
			if err != nil {
				return nil, fmt.Errorf("token %d: %w", i, err)
			}
			bound := &pattern.Reference{Index: idx, Match: ref.Match.WithTokenRef(idx)}
			spec.Text = strings.ReplaceAll(spec.Text, ref.Placeholder(), bound.Placeholder())
			spec.Reference = bound
		}
		t, err := pattern.New(spec, pattern.WithCache(s.cache))
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		if m := t.Test().Text(); m != nil && m.Strategy() == strmatch.Regex {
			s.logger.Debug("token text needs a regex", slog.String("pattern", m.Pattern()))
		}
		out[i] = t
	}
	return out, nil
}

// directives compiles the match directives of a rule for branch b.
func (s *Session) directives(b branch, specs []synth.MatchSpec) ([]*synth.Match, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]*synth.Match, len(specs))
	for i, spec := range specs {
		if spec.TokenRef > 0 {
			idx, err := b.tokenIndex(spec.TokenRef)
			if err != nil {
				return nil, fmt.Errorf("directive %d: %w", i, err)
			}
			spec.TokenRef = idx
		}
		m, err := synth.NewMatch(spec)
		if err != nil {
			return nil, fmt.Errorf("%w: directive %d: %v", ErrInvalidRule, i, err)
		}
		out[i] = m
	}
	return out, nil
}

// CompileRegex compiles a text-level regex rule.
func (s *Session) CompileRegex(src RegexSource) (*rule.RegexRule, error) {
	matches := make([]*synth.Match, len(src.Matches))
	for i, spec := range src.Matches {
		m, err := synth.NewMatch(spec)
		if err != nil {
			return nil, &RuleError{RuleID: src.ID, Err: fmt.Errorf("%w: directive %d: %v", ErrInvalidRule, i, err)}
		}
		matches[i] = m
	}
	r, err := rule.NewRegex(rule.RegexDefinition{
		ID:                src.ID,
		Description:       src.Description,
		Pattern:           src.Pattern,
		CaseSensitive:     src.CaseSensitive,
		MarkGroup:         src.MarkGroup,
		Message:           src.Message,
		ShortMessage:      src.ShortMessage,
		Matches:           matches,
		MaxSentenceLength: s.opts.MaxRegexSentenceLength,
		Prefilter:         s.opts.Prefilter,
		Literals:          s.opts.Strings.ExtractorConfig,
		Tracker:           s.opts.Tracker,
		Logger:            s.logger,
	})
	if err != nil {
		return nil, &RuleError{RuleID: src.ID, Err: fmt.Errorf("%w: %v", ErrInvalidRule, err)}
	}
	return r, nil
}
