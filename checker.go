// Package corerule checks tagged sentences against LanguageTool-style
// grammar rules.
//
// A rule is a sequence of pattern tokens with skips, optional and repeated
// positions, exceptions, AND groups, back-references and feature
// unification, plus a message template whose suggestions are synthesized
// from the matched tokens. Text-level regex rules run alongside.
//
// Basic usage:
//
//	the := compiler.Tok{Spec: pattern.Spec{TestSpec: pattern.TestSpec{Text: "the"}}}
//	checker, err := corerule.Compile([]compiler.Group{{
//	    ID: "DOUBLE_THE",
//	    Rules: []compiler.RuleSource{{
//	        Elements: []compiler.Element{the, the},
//	        Message:  "Remove <suggestion>the</suggestion>.",
//	    }},
//	}}, nil, corerule.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, m := range checker.Check(sentence.Parse("the the dog")) {
//	    fmt.Println(m)
//	}
//
// Compiled rules are immutable and a Checker is safe for concurrent use.
// Every call creates its own matching state.
package corerule

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coregx/corerule/compiler"
	"github.com/coregx/corerule/internal/logging"
	"github.com/coregx/corerule/pattern"
	"github.com/coregx/corerule/prefilter"
	"github.com/coregx/corerule/rule"
	"github.com/coregx/corerule/sentence"
	"github.com/coregx/corerule/strmatch"
	"github.com/coregx/corerule/synth"
)

// Equivalence defines a type of a unification feature.
type Equivalence struct {
	Feature string
	Type    string
	Spec    pattern.Spec
}

// Option customizes Compile.
type Option func(*options)

type options struct {
	env          synth.Env
	phrases      []compiler.Phrase
	equivalences []Equivalence
	tracker      prefilter.TrackerConfig
}

// WithEnv sets the synthesizer and tagger used to render suggestions.
func WithEnv(env synth.Env) Option {
	return func(o *options) { o.env = env }
}

// WithPhrases registers phrases for compiler.PhraseRef elements.
func WithPhrases(phrases ...compiler.Phrase) Option {
	return func(o *options) { o.phrases = append(o.phrases, phrases...) }
}

// WithEquivalences defines unification feature types.
func WithEquivalences(eqs ...Equivalence) Option {
	return func(o *options) { o.equivalences = append(o.equivalences, eqs...) }
}

// WithTracker configures when ineffective regex rule prefilters are
// retired.
func WithTracker(config prefilter.TrackerConfig) Option {
	return func(o *options) { o.tracker = config }
}

// Checker runs a compiled rule set.
type Checker struct {
	rules   []*rule.Rule
	regex   []*rule.RegexRule
	env     synth.Env
	workers int
	logger  *slog.Logger
}

// Compile compiles groups and regex rules with config.
func Compile(groups []compiler.Group, regex []compiler.RegexSource, config Config, opts ...Option) (*Checker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrDiscard(config.Logger)
	start := time.Now()

	s := compiler.NewSession(compiler.Options{
		Strings:                strmatch.Config{ExtractorConfig: config.extractor()},
		Prefilter:              config.EnablePrefilter,
		Tracker:                o.tracker,
		MaxRegexSentenceLength: config.MaxRegexSentenceLength,
		Logger:                 logger,
	})
	for _, p := range o.phrases {
		if err := s.AddPhrase(p); err != nil {
			return nil, err
		}
	}
	for _, eq := range o.equivalences {
		if err := s.AddEquivalence(eq.Feature, eq.Type, eq.Spec); err != nil {
			return nil, err
		}
	}

	c := &Checker{env: o.env, workers: config.Workers, logger: logger}
	for _, g := range groups {
		rules, err := s.Compile(g)
		if err != nil {
			return nil, err
		}
		c.rules = append(c.rules, rules...)
	}
	for _, src := range regex {
		r, err := s.CompileRegex(src)
		if err != nil {
			return nil, err
		}
		c.regex = append(c.regex, r)
	}

	size, hits := s.Cache().Stats()
	logger.Debug("compiled rules",
		slog.Int("rules", len(c.rules)),
		slog.Int("regex_rules", len(c.regex)),
		slog.Int("matchers", size),
		slog.Int("matcher_hits", hits),
		slog.Duration("elapsed", time.Since(start)))
	return c, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(groups []compiler.Group, regex []compiler.RegexSource, config Config, opts ...Option) *Checker {
	c, err := Compile(groups, regex, config, opts...)
	if err != nil {
		panic(`corerule: Compile: ` + err.Error())
	}
	return c
}

// Rules returns the compiled pattern rules in definition order.
func (c *Checker) Rules() []*rule.Rule { return c.rules }

// RegexRules returns the compiled regex rules in definition order.
func (c *Checker) RegexRules() []*rule.RegexRule { return c.regex }

// Check returns every match in s, ordered by start offset. Matches with
// the same start keep rule order, pattern rules before regex rules.
func (c *Checker) Check(s *sentence.Sentence) []rule.Match {
	var out []rule.Match
	for _, r := range c.rules {
		out = append(out, r.Match(s, c.env)...)
	}
	for _, r := range c.regex {
		out = append(out, r.Match(s)...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

// CheckAll checks sentences with Config.Workers goroutines. Results are in
// input order. When ctx is done before every sentence was checked, CheckAll
// returns ctx.Err() and the results computed so far.
func (c *Checker) CheckAll(ctx context.Context, sentences []*sentence.Sentence) ([][]rule.Match, error) {
	logger := c.logger.With(slog.String("run", uuid.NewString()))
	logger.Debug("check started", slog.Int("sentences", len(sentences)), slog.Int("workers", c.workers))
	start := time.Now()

	results := make([][]rule.Match, len(sentences))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(c.workers, max(len(sentences), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.Check(sentences[i])
			}
		}()
	}

	var err error
feed:
	for i := range sentences {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		logger.Debug("check canceled", slog.Any("error", err))
		return results, err
	}
	logger.Debug("check finished", slog.Duration("elapsed", time.Since(start)))
	return results, nil
}
