// Package capture compiles regular expressions whose capture groups are
// read back: regex rule groups and replacement directives.
//
// Matching goes through coregex. Submatch offsets come from a regexp program
// compiled from the same source, and run only when coregex reports a match.
// The group count is taken from the parsed syntax tree.
package capture

import (
	"regexp"
	"regexp/syntax"

	"github.com/coregx/coregex"
)

// Regex is a compiled expression with capture support.
type Regex struct {
	re     *coregex.Regex
	sub    *regexp.Regexp
	tree   *syntax.Regexp
	groups int
}

// Compile compiles expr.
func Compile(expr string) (*Regex, error) {
	tree, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return nil, err
	}
	re, err := coregex.Compile(expr)
	if err != nil {
		return nil, err
	}
	sub, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Regex{re: re, sub: sub, tree: tree, groups: tree.MaxCap()}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Regex {
	r, err := Compile(expr)
	if err != nil {
		panic(`capture: Compile(` + expr + `): ` + err.Error())
	}
	return r
}

// Groups returns the number of capture groups, not counting the whole match.
func (r *Regex) Groups() int { return r.groups }

// Tree returns the parsed expression. Callers must not modify it.
func (r *Regex) Tree() *syntax.Regexp { return r.tree }

// MatchString reports whether s contains a match.
func (r *Regex) MatchString(s string) bool { return r.re.MatchString(s) }

// FindAllStringSubmatchIndex returns the offsets of every non-overlapping
// match in s. Each loc holds 2*(Groups()+1) entries; an unset group is -1.
func (r *Regex) FindAllStringSubmatchIndex(s string) [][]int {
	if !r.re.MatchString(s) {
		return nil
	}
	return r.sub.FindAllStringSubmatchIndex(s, -1)
}

// ReplaceAllString replaces every match in s with repl, expanding $N and
// ${name} from the match's groups.
func (r *Regex) ReplaceAllString(s, repl string) string {
	if !r.re.MatchString(s) {
		return s
	}
	return r.sub.ReplaceAllString(s, repl)
}

// String returns the source expression.
func (r *Regex) String() string { return r.sub.String() }

// Group returns group g of a loc returned by FindAllStringSubmatchIndex, or
// false when g is out of range or did not participate.
func Group(loc []int, g int) (from, to int, ok bool) {
	if g < 0 || 2*g+1 >= len(loc) || loc[2*g] < 0 {
		return -1, -1, false
	}
	return loc[2*g], loc[2*g+1], true
}
