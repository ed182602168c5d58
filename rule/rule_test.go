package rule

import (
	"reflect"
	"strings"
	"testing"

	"github.com/coregx/corerule/pattern"
	"github.com/coregx/corerule/sentence"
	"github.com/coregx/corerule/synth"
	"github.com/coregx/corerule/unify"
)

func tok(t *testing.T, spec pattern.Spec) *pattern.Token {
	t.Helper()
	pt, err := pattern.New(spec)
	if err != nil {
		t.Fatalf("pattern.New(%+v): %v", spec, err)
	}
	return pt
}

func txt(s string) pattern.Spec { return pattern.Spec{TestSpec: pattern.TestSpec{Text: s}} }

func rx(s string) pattern.Spec {
	return pattern.Spec{TestSpec: pattern.TestSpec{Text: s, Regex: true}}
}

func pos(tag string) pattern.Spec {
	return pattern.Spec{TestSpec: pattern.TestSpec{POS: tag}}
}

// def returns an unmarked definition over tokens.
func def(tokens ...*pattern.Token) Definition {
	return Definition{ID: "TEST", Tokens: tokens, MarkerStart: -1, MarkerEnd: -1}
}

func build(t *testing.T, d Definition) *Rule {
	t.Helper()
	r, err := New(d)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

type offsets struct{ from, to int }

func spansOf(matches []Match) []offsets {
	var out []offsets
	for _, m := range matches {
		out = append(out, offsets{m.From, m.To})
	}
	return out
}

func checkSpans(t *testing.T, r *Rule, text string, want []offsets) {
	t.Helper()
	got := spansOf(r.Match(sentence.Parse(text), synth.Env{}))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s on %q: spans = %v, want %v", r.FullID(), text, got, want)
	}
}

// ============================================================================
// Pattern walk
// ============================================================================

func TestOptionalToken(t *testing.T) {
	b := txt("b")
	b.Optional = true
	r := build(t, def(tok(t, txt("a")), tok(t, b), tok(t, txt("c"))))

	checkSpans(t, r, "a c", []offsets{{0, 3}})
	checkSpans(t, r, "a b c", []offsets{{0, 5}})
	checkSpans(t, r, "a b b c", nil)
	checkSpans(t, r, "a d c", nil)
}

func TestTrailingOptionalToken(t *testing.T) {
	b := txt("b")
	b.Optional = true
	r := build(t, def(tok(t, txt("a")), tok(t, b)))

	checkSpans(t, r, "a", []offsets{{0, 1}})
	checkSpans(t, r, "x a b", []offsets{{2, 5}})
}

func TestSkip(t *testing.T) {
	a := txt("a")
	a.Skip = 2
	r := build(t, def(tok(t, a), tok(t, txt("b"))))

	checkSpans(t, r, "a b", []offsets{{0, 3}})
	checkSpans(t, r, "a x y b", []offsets{{0, 7}})
	checkSpans(t, r, "a x y z b", nil)
}

func TestUnboundedSkip(t *testing.T) {
	a := txt("a")
	a.Skip = -1
	r := build(t, def(tok(t, a), tok(t, txt("b"))))

	// Every start is scanned independently; overlapping matches are kept.
	checkSpans(t, r, "a a b", []offsets{{0, 5}, {2, 5}})
	checkSpans(t, r, "a x x x x x b", []offsets{{0, 13}})
}

func TestRepetition(t *testing.T) {
	many := txt("b")
	many.Max = -1
	r := build(t, def(tok(t, txt("a")), tok(t, many), tok(t, txt("c"))))
	checkSpans(t, r, "a b b b c", []offsets{{0, 9}})
	checkSpans(t, r, "a c", nil)

	two := txt("b")
	two.Max = 2
	r = build(t, def(tok(t, txt("a")), tok(t, two), tok(t, txt("c"))))
	checkSpans(t, r, "a b b c", []offsets{{0, 7}})
	checkSpans(t, r, "a b b b c", nil)
}

func TestMarker(t *testing.T) {
	d := def(tok(t, txt("the")), tok(t, txt("dog")), tok(t, txt("barks")))
	d.MarkerStart, d.MarkerEnd = 1, 1
	r := build(t, d)

	ms := r.Match(sentence.Parse("the dog barks"), synth.Env{})
	if len(ms) != 1 {
		t.Fatalf("got %d matches, want 1", len(ms))
	}
	m := ms[0]
	if m.From != 4 || m.To != 7 || m.PatternFrom != 0 || m.PatternTo != 13 {
		t.Errorf("match = %+v, want marker 4:7 and pattern 0:13", m)
	}
}

func TestSentenceStartAnchor(t *testing.T) {
	d := def(tok(t, pos(sentence.SentenceStartTag)), tok(t, txt("the")))
	d.Message = "Start with <suggestion>a</suggestion>."
	r := build(t, d)
	if !r.IsSentenceStartAnchored() {
		t.Fatal("rule should be sentence-start anchored")
	}

	checkSpans(t, r, "x the", nil)

	ms := r.Match(sentence.Parse("The dog"), synth.Env{})
	if len(ms) != 1 {
		t.Fatalf("got %d matches, want 1", len(ms))
	}
	if !ms[0].StartsWithUppercase || !reflect.DeepEqual(ms[0].Suggestions, []string{"A"}) {
		t.Errorf("match = %+v, want capitalized suggestion", ms[0])
	}
	ms = r.Match(sentence.Parse("the dog"), synth.Env{})
	if len(ms) != 1 || !reflect.DeepEqual(ms[0].Suggestions, []string{"a"}) {
		t.Errorf("lowercase start: %v", ms)
	}
}

func TestImmunizedToken(t *testing.T) {
	r := build(t, def(tok(t, txt("dog"))))
	s := sentence.Parse("dog")
	s.Tokens[1].Immunized = true
	if ms := r.Match(s, synth.Env{}); len(ms) != 0 {
		t.Errorf("immunized token matched: %v", ms)
	}
}

func TestRequiredWordsPrefilter(t *testing.T) {
	r := build(t, def(tok(t, txt("Foo")), tok(t, rx("ba[rz]"))))
	if got := r.RequiredWords(); !reflect.DeepEqual(got, []string{"foo"}) {
		t.Errorf("RequiredWords() = %v", got)
	}
	if r.CanMatch(sentence.Parse("bar baz")) {
		t.Error("CanMatch without foo")
	}
	if !r.CanMatch(sentence.Parse("FOO bar")) {
		t.Error("CanMatch should ignore case")
	}
}

func TestRequiredLemmasPrefilter(t *testing.T) {
	inflected := txt("was")
	inflected.Inflected = true
	r := build(t, def(tok(t, inflected)))
	if got := r.RequiredLemmas(); !reflect.DeepEqual(got, []string{"was"}) {
		t.Fatalf("RequiredLemmas() = %v", got)
	}

	// Untagged readings are tested by their surface text.
	untagged := sentence.Parse("it was")
	if !r.CanMatch(untagged) {
		t.Error("CanMatch on untagged text = false")
	}
	if ms := r.Match(untagged, synth.Env{}); len(ms) != 1 {
		t.Errorf("matches on untagged text = %v", ms)
	}

	tagged := sentence.New(
		sentence.NewToken("it", 0, false, sentence.Reading{Lemma: "it", POS: "PRP"}),
		sentence.NewToken("was", 3, true, sentence.Reading{Lemma: "be", POS: "VBD"}),
	)
	if r.CanMatch(tagged) || len(r.Match(tagged, synth.Env{})) != 0 {
		t.Error("inflected token matched a reading with another lemma")
	}
}

// ============================================================================
// Exceptions and AND groups
// ============================================================================

func TestExceptions(t *testing.T) {
	current := rx("[a-z]+")
	current.Exceptions = []pattern.ExceptionSpec{{TestSpec: pattern.TestSpec{Text: "bad"}}}

	previous := txt("dog")
	previous.Exceptions = []pattern.ExceptionSpec{{
		TestSpec: pattern.TestSpec{Text: "the"},
		Scope:    pattern.ScopePrevious,
	}}

	next := txt("a")
	next.Skip = 2
	next.Exceptions = []pattern.ExceptionSpec{{
		TestSpec: pattern.TestSpec{Text: "x"},
		Scope:    pattern.ScopeNext,
	}}

	tests := []struct {
		name   string
		tokens []*pattern.Token
		text   string
		want   []offsets
	}{
		{"current vetoes", []*pattern.Token{tok(t, current)}, "good bad", []offsets{{0, 4}}},
		{"previous vetoes", []*pattern.Token{tok(t, previous)}, "the dog", nil},
		{"previous allows", []*pattern.Token{tok(t, previous)}, "a dog", []offsets{{2, 5}}},
		{"next allows", []*pattern.Token{tok(t, next), tok(t, txt("b"))}, "a y b", []offsets{{0, 5}}},
		{"next adjacent", []*pattern.Token{tok(t, next), tok(t, txt("b"))}, "a b", []offsets{{0, 3}}},
		{"next stops skip", []*pattern.Token{tok(t, next), tok(t, txt("b"))}, "a x b", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkSpans(t, build(t, def(tt.tokens...)), tt.text, tt.want)
		})
	}
}

func TestAndGroup(t *testing.T) {
	spec := txt("run")
	spec.AndGroup = []pattern.Spec{pos("VB")}
	r := build(t, def(tok(t, spec)))

	verb := sentence.New(sentence.NewToken("run", 0, false,
		sentence.Reading{Lemma: "run", POS: "NN"},
		sentence.Reading{Lemma: "run", POS: "VB"},
	))
	if got := spansOf(r.Match(verb, synth.Env{})); !reflect.DeepEqual(got, []offsets{{0, 3}}) {
		t.Errorf("noun/verb reading: %v", got)
	}

	noun := sentence.New(sentence.NewToken("run", 0, false, sentence.Reading{Lemma: "run", POS: "NN"}))
	if got := r.Match(noun, synth.Env{}); len(got) != 0 {
		t.Errorf("noun only: %v", got)
	}
}

// ============================================================================
// Antipatterns
// ============================================================================

func TestAntipatterns(t *testing.T) {
	hotDog := build(t, def(tok(t, txt("hot")), tok(t, txt("dog"))))
	r := build(t, Definition{
		ID: "DOG", Tokens: []*pattern.Token{tok(t, txt("dog"))},
		MarkerStart: -1, MarkerEnd: -1,
		Antipatterns: []*Rule{hotDog},
	})
	checkSpans(t, r, "hot dog", nil)
	checkSpans(t, r, "the dog", []offsets{{4, 7}})
	checkSpans(t, r, "hot dog and dog", []offsets{{12, 15}})
}

func TestAntipatternPartialCover(t *testing.T) {
	dogHouse := build(t, def(tok(t, txt("dog")), tok(t, txt("house"))))
	full := build(t, def(tok(t, txt("hot")), tok(t, txt("dog")), tok(t, txt("house"))))

	partial := def(tok(t, txt("hot")), tok(t, txt("dog")))
	partial.Antipatterns = []*Rule{dogHouse}
	checkSpans(t, build(t, partial), "hot dog house", []offsets{{0, 7}})

	covered := def(tok(t, txt("hot")), tok(t, txt("dog")))
	covered.Antipatterns = []*Rule{full}
	checkSpans(t, build(t, covered), "hot dog house", nil)
}

// ============================================================================
// Messages and suggestions
// ============================================================================

func firstMatch(t *testing.T, r *Rule, s *sentence.Sentence, env synth.Env) Match {
	t.Helper()
	ms := r.Match(s, env)
	if len(ms) != 1 {
		t.Fatalf("got %d matches, want 1: %v", len(ms), ms)
	}
	return ms[0]
}

func TestMessageRendering(t *testing.T) {
	b := txt("b")
	b.Optional = true

	tests := []struct {
		name    string
		tokens  []*pattern.Token
		message string
		matches []*synth.Match
		text    string
		msg     string
		sugg    []string
		upper   bool
	}{
		{
			name:    "references",
			tokens:  []*pattern.Token{tok(t, txt("two")), tok(t, txt("dog"))},
			message: `Use <suggestion>\1 \2s</suggestion>.`,
			text:    "two dog",
			msg:     "Use <suggestion>two dogs</suggestion>.",
			sugg:    []string{"two dogs"},
		},
		{
			name:    "capitalized",
			tokens:  []*pattern.Token{tok(t, txt("an")), tok(t, txt("dog"))},
			message: `<suggestion>a \2</suggestion>`,
			text:    "An dog",
			msg:     "<suggestion>a dog</suggestion>",
			sugg:    []string{"A dog"},
			upper:   true,
		},
		{
			name:    "case directive",
			tokens:  []*pattern.Token{tok(t, txt("hello"))},
			message: `<suggestion>\1</suggestion>`,
			matches: []*synth.Match{synth.MustNewMatch(synth.MatchSpec{Case: synth.CaseAllUpper})},
			text:    "Hello",
			msg:     "<suggestion>HELLO</suggestion>",
			sugg:    []string{"HELLO"},
		},
		{
			name:    "elided optional",
			tokens:  []*pattern.Token{tok(t, txt("a")), tok(t, b), tok(t, txt("c"))},
			message: `<suggestion>\1 \2 \3</suggestion>`,
			text:    "a c",
			msg:     "<suggestion>a c</suggestion>",
			sugg:    []string{"a c"},
		},
		{
			name:    "present optional",
			tokens:  []*pattern.Token{tok(t, txt("a")), tok(t, b), tok(t, txt("c"))},
			message: `<suggestion>\1 \2 \3</suggestion>`,
			text:    "a b c",
			msg:     "<suggestion>a b c</suggestion>",
			sugg:    []string{"a b c"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := def(tt.tokens...)
			d.Message = tt.message
			d.Matches = tt.matches
			m := firstMatch(t, build(t, d), sentence.Parse(tt.text), synth.Env{})
			if m.Message != tt.msg {
				t.Errorf("Message = %q, want %q", m.Message, tt.msg)
			}
			if !reflect.DeepEqual(m.Suggestions, tt.sugg) {
				t.Errorf("Suggestions = %q, want %q", m.Suggestions, tt.sugg)
			}
			if m.StartsWithUppercase != tt.upper {
				t.Errorf("StartsWithUppercase = %v", m.StartsWithUppercase)
			}
		})
	}
}

func TestBackReferenceToken(t *testing.T) {
	again := txt(`\0`)
	again.Reference = &pattern.Reference{Index: 0, Match: synth.MustNewMatch(synth.MatchSpec{})}
	r := build(t, def(tok(t, rx("[a-z]+")), tok(t, again)))

	checkSpans(t, r, "the the cat", []offsets{{0, 7}})
	checkSpans(t, r, "the cat", nil)
}

func TestSuppressMisspelled(t *testing.T) {
	table, err := synth.ParseTable("walk\twalk\tVB\nwalks\twalk\tVBZ\ntalk\ttalk\tVB\n")
	if err != nil {
		t.Fatal(err)
	}
	env := synth.Env{Synthesizer: table, Tagger: table}

	d := def(tok(t, txt("he")), tok(t, rx("walk|talk")))
	d.Message = `Use <suggestion>\1 \2</suggestion>.`
	d.Matches = []*synth.Match{
		synth.MustNewMatch(synth.MatchSpec{}),
		synth.MustNewMatch(synth.MatchSpec{
			TokenRef:           1,
			RegexMatch:         "k$",
			RegexReplace:       "ks",
			SuppressMisspelled: true,
		}),
	}
	r := build(t, d)

	m := firstMatch(t, r, table.TagSentence("he walk"), env)
	if !reflect.DeepEqual(m.Suggestions, []string{"he walks"}) {
		t.Errorf("Suggestions = %q", m.Suggestions)
	}
	if ms := r.Match(table.TagSentence("he talk"), env); len(ms) != 0 {
		t.Errorf("unknown form should drop the match: %v", ms)
	}
}

func TestFilter(t *testing.T) {
	var seen int
	d := def(tok(t, txt("the")), tok(t, rx("[a-z]+")))
	d.Message = "noun"
	d.FilterArgs = map[string]string{"word": `\2`, "mode": "strict"}
	d.Filter = FilterFunc(func(m Match, args map[string]string, tokens []*sentence.Token) (Match, bool) {
		seen = len(tokens)
		if args["word"] == "dog" {
			return m, false
		}
		m.Message = args["mode"] + " " + args["word"]
		return m, true
	})
	r := build(t, d)

	m := firstMatch(t, r, sentence.Parse("the cat"), synth.Env{})
	if m.Message != "strict cat" || seen != 2 {
		t.Errorf("Message = %q, tokens = %d", m.Message, seen)
	}
	checkSpans(t, r, "the dog", nil)
}

// ============================================================================
// Unification
// ============================================================================

func numberEquivalences(t *testing.T) *unify.Equivalences {
	t.Helper()
	eq := unify.NewEquivalences()
	eq.Add("number", "sg", tok(t, pattern.Spec{TestSpec: pattern.TestSpec{POS: ".*:sg", POSRegex: true}}))
	eq.Add("number", "pl", tok(t, pattern.Spec{TestSpec: pattern.TestSpec{POS: ".*:pl", POSRegex: true}}))
	return eq
}

func tagged(words ...[2]string) *sentence.Sentence {
	var tokens []*sentence.Token
	off := 0
	for i, w := range words {
		if i > 0 {
			off++
		}
		tokens = append(tokens, sentence.NewToken(w[0], off, i > 0, sentence.Reading{Lemma: w[0], POS: w[1]}))
		off += len(w[0])
	}
	return sentence.New(tokens...)
}

func TestUnification(t *testing.T) {
	features := map[string][]string{"number": nil}
	block := func(negated bool) *Rule {
		det := pattern.Spec{TestSpec: pattern.TestSpec{POS: "DT.*", POSRegex: true}}
		det.Unification = &pattern.Unification{Features: features}
		noun := pattern.Spec{TestSpec: pattern.TestSpec{POS: "NN.*", POSRegex: true}}
		noun.Unification = &pattern.Unification{Features: features, Last: true, Negated: negated}
		d := def(tok(t, det), tok(t, noun))
		d.Equivalences = numberEquivalences(t)
		return build(t, d)
	}

	agree := tagged([2]string{"this", "DT:sg"}, [2]string{"dog", "NN:sg"})
	disagree := tagged([2]string{"this", "DT:sg"}, [2]string{"dogs", "NN:pl"})

	tests := []struct {
		name    string
		negated bool
		s       *sentence.Sentence
		want    int
	}{
		{"agreement matches", false, agree, 1},
		{"disagreement fails", false, disagree, 0},
		{"negated flags disagreement", true, disagree, 1},
		{"negated ignores agreement", true, agree, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(block(tt.negated).Match(tt.s, synth.Env{})); got != tt.want {
				t.Errorf("got %d matches, want %d", got, tt.want)
			}
		})
	}
}

// ============================================================================
// Construction
// ============================================================================

func TestNewErrors(t *testing.T) {
	uni := pos("NN")
	uni.Unification = &pattern.Unification{Features: map[string][]string{"number": nil}}

	tests := []struct {
		name string
		def  Definition
		want string
	}{
		{"no tokens", Definition{ID: "X"}, "no pattern tokens"},
		{"marker order", Definition{ID: "X", Tokens: []*pattern.Token{tok(t, txt("a")), tok(t, txt("b"))}, MarkerStart: 1, MarkerEnd: 0}, "marker"},
		{"bad message", Definition{ID: "X", Tokens: []*pattern.Token{tok(t, txt("a"))}, MarkerStart: -1, MarkerEnd: -1, Message: "<suggestion>open"}, "invalid template"},
		{"no equivalences", Definition{ID: "X", Tokens: []*pattern.Token{tok(t, uni)}, MarkerStart: -1, MarkerEnd: -1}, "equivalences"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.def)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("New() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestFullID(t *testing.T) {
	d := def(tok(t, txt("a")))
	if got := build(t, d).FullID(); got != "TEST" {
		t.Errorf("FullID() = %q", got)
	}
	d.SubID = "2"
	if got := build(t, d).FullID(); got != "TEST[2]" {
		t.Errorf("FullID() = %q", got)
	}
}
