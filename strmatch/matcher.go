// Package strmatch provides compiled string matchers for token text and POS
// tags.
//
// A Matcher is built from (pattern, isRegex, caseSensitive) and picks the
// cheapest strategy that preserves full-match semantics:
//   - plain strings use an exact (or case-folded) comparison
//   - regular expressions that denote a small finite set of literals are
//     decomposed with the literal package and matched by set membership
//   - everything else falls back to a coregex regex anchored at both ends
//
// Decomposed matchers also enumerate their possible values, which lets rule
// pre-filters skip sentences that cannot contain a required word.
package strmatch

import (
	"errors"
	"fmt"
	"regexp/syntax"
	"sort"
	"strings"

	"github.com/coregx/coregex"
	"github.com/coregx/corerule/literal"
)

// Strategy identifies how a Matcher compares strings.
type Strategy int

const (
	// Exact compares against a single literal.
	Exact Strategy = iota
	// HashSet tests membership in a set of literals (case-sensitive).
	HashSet
	// SortedFold binary-searches a sorted set of lowercased literals.
	SortedFold
	// Regex runs a general compiled regex.
	Regex
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case Exact:
		return "Exact"
	case HashSet:
		return "HashSet"
	case SortedFold:
		return "SortedFold"
	case Regex:
		return "Regex"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Config holds the decomposition limits.
type Config struct {
	literal.ExtractorConfig
}

// DefaultConfig returns the default matcher configuration.
func DefaultConfig() Config {
	return Config{ExtractorConfig: literal.DefaultConfig()}
}

// Matcher is an immutable compiled string matcher. It is safe for concurrent
// use.
type Matcher struct {
	pattern       string
	isRegex       bool
	caseSensitive bool
	strategy      Strategy

	exact  string
	set    map[string]struct{}
	sorted []string
	re     *coregex.Regex

	// values holds the enumerated literal set; nil for Regex.
	values []string
}

// New compiles a matcher with the default configuration.
func New(pattern string, isRegex, caseSensitive bool) (*Matcher, error) {
	return NewWithConfig(pattern, isRegex, caseSensitive, DefaultConfig())
}

// MustNew is like New but panics on an invalid regex.
func MustNew(pattern string, isRegex, caseSensitive bool) *Matcher {
	m, err := New(pattern, isRegex, caseSensitive)
	if err != nil {
		panic(err)
	}
	return m
}

// NewWithConfig compiles a matcher using the given decomposition limits.
func NewWithConfig(pattern string, isRegex, caseSensitive bool, config Config) (*Matcher, error) {
	m := &Matcher{pattern: pattern, isRegex: isRegex, caseSensitive: caseSensitive}
	if !isRegex {
		m.setLiterals([]string{pattern})
		return m, nil
	}

	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("strmatch: invalid regex %q: %w", pattern, err)
	}
	seq, err := literal.New(config.ExtractorConfig).Expand(re)
	switch {
	case err == nil && seq.Len() > 0:
		m.setLiterals(seq.Strings())
		return m, nil
	case err != nil && !errors.Is(err, literal.ErrNotFinite):
		return nil, err
	}

	expr := "^(?:" + pattern + ")$"
	if !caseSensitive {
		expr = "(?i)" + expr
	}
	compiled, err := coregex.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("strmatch: invalid regex %q: %w", pattern, err)
	}
	m.strategy = Regex
	m.re = compiled
	return m, nil
}

func (m *Matcher) setLiterals(values []string) {
	m.values = values
	switch {
	case len(values) == 1:
		m.strategy = Exact
		m.exact = values[0]
	case m.caseSensitive:
		m.strategy = HashSet
		m.set = make(map[string]struct{}, len(values))
		for _, v := range values {
			m.set[v] = struct{}{}
		}
	default:
		m.strategy = SortedFold
		m.sorted = make([]string, len(values))
		for i, v := range values {
			m.sorted[i] = strings.ToLower(v)
		}
		sort.Strings(m.sorted)
	}
}

// Matches reports whether s matches the pattern as a whole.
func (m *Matcher) Matches(s string) bool {
	switch m.strategy {
	case Exact:
		if m.caseSensitive {
			return s == m.exact
		}
		return strings.EqualFold(s, m.exact)
	case HashSet:
		_, ok := m.set[s]
		return ok
	case SortedFold:
		lower := strings.ToLower(s)
		i := sort.SearchStrings(m.sorted, lower)
		return i < len(m.sorted) && m.sorted[i] == lower
	default:
		return m.re.MatchString(s)
	}
}

// PossibleValues returns every string the matcher accepts, as written in
// the pattern, or (nil, false) when the set cannot be enumerated.
// Case-insensitive matchers also accept case variants of the values.
func (m *Matcher) PossibleValues() ([]string, bool) {
	if m.values == nil {
		return nil, false
	}
	return m.values, true
}

// Pattern returns the source pattern.
func (m *Matcher) Pattern() string { return m.pattern }

// IsRegex reports whether the pattern was compiled as a regex.
func (m *Matcher) IsRegex() bool { return m.isRegex }

// CaseSensitive reports whether comparisons respect case.
func (m *Matcher) CaseSensitive() bool { return m.caseSensitive }

// Strategy returns the selected matching strategy.
func (m *Matcher) Strategy() Strategy { return m.strategy }

// String returns a debugging representation of the matcher.
func (m *Matcher) String() string {
	return fmt.Sprintf("%s(%q, regex=%v, cs=%v)", m.strategy, m.pattern, m.isRegex, m.caseSensitive)
}
