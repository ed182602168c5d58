package synth

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/coregx/corerule/sentence"
	"github.com/coregx/corerule/strmatch"
)

type entry struct {
	form, lemma, pos string
}

// Table is an in-memory Synthesizer and Tagger backed by a list of
// (form, lemma, tag) triples. It is safe for concurrent use once loaded.
//
// The text format has one tab-separated triple per line:
//
//	# comment
//	walked	walk	VBD
//	walks	walk	VBZ
type Table struct {
	entries []entry
	byForm  map[string][]int
	byLemma map[string][]int
	regexes *strmatch.Cache
}

// LoadTable reads a table from r.
func LoadTable(r io.Reader) (*Table, error) {
	t := &Table{
		byForm:  make(map[string][]int),
		byLemma: make(map[string][]int),
		regexes: strmatch.NewCache(strmatch.DefaultConfig()),
	}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("synth: table line %d: want 3 tab-separated fields, got %d", line, len(fields))
		}
		t.add(entry{form: fields[0], lemma: fields[1], pos: fields[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("synth: reading table: %w", err)
	}
	return t, nil
}

// ParseTable parses a table from a string.
func ParseTable(s string) (*Table, error) {
	return LoadTable(strings.NewReader(s))
}

func (t *Table) add(e entry) {
	i := len(t.entries)
	t.entries = append(t.entries, e)
	t.byForm[e.form] = append(t.byForm[e.form], i)
	t.byLemma[e.lemma] = append(t.byLemma[e.lemma], i)
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Synthesize returns the sorted forms of r's lemma whose tag equals posTag,
// or matches it entirely when posRegex is set.
func (t *Table) Synthesize(r sentence.Reading, posTag string, posRegex bool) []string {
	var m *strmatch.Matcher
	if posRegex {
		var err error
		if m, err = t.regexes.Get(posTag, true, true); err != nil {
			return nil
		}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, i := range t.byLemma[r.Lemma] {
		e := t.entries[i]
		ok := e.pos == posTag
		if m != nil {
			ok = m.Matches(e.pos)
		}
		if _, dup := seen[e.form]; ok && !dup {
			seen[e.form] = struct{}{}
			out = append(out, e.form)
		}
	}
	sort.Strings(out)
	return out
}

// Tag returns the readings of word, falling back to its lowercase form.
// Unknown words yield a single untagged reading.
func (t *Table) Tag(word string) []sentence.Reading {
	idx := t.byForm[word]
	if len(idx) == 0 {
		idx = t.byForm[strings.ToLower(word)]
	}
	if len(idx) == 0 {
		return []sentence.Reading{{Surface: word}}
	}
	out := make([]sentence.Reading, len(idx))
	for j, i := range idx {
		out[j] = sentence.Reading{Surface: word, Lemma: t.entries[i].lemma, POS: t.entries[i].pos}
	}
	return out
}

// TagToken builds a token for word at offset with the readings from Tag.
func (t *Table) TagToken(word string, offset int, whitespaceBefore bool) *sentence.Token {
	return sentence.NewToken(word, offset, whitespaceBefore, t.Tag(word)...)
}

// TagSentence splits text like sentence.Parse and tags every token.
func (t *Table) TagSentence(text string) *sentence.Sentence {
	parsed := sentence.Parse(text)
	tokens := make([]*sentence.Token, 0, parsed.Len()-1)
	for _, tok := range parsed.Tokens[1:] {
		tokens = append(tokens, t.TagToken(tok.Text(), tok.Offset, tok.WhitespaceBefore))
	}
	return sentence.New(tokens...)
}
