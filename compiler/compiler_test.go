package compiler

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/coregx/corerule/pattern"
	"github.com/coregx/corerule/rule"
	"github.com/coregx/corerule/sentence"
	"github.com/coregx/corerule/synth"
)

func txt(s string) pattern.Spec { return pattern.Spec{TestSpec: pattern.TestSpec{Text: s}} }

func rx(s string) pattern.Spec {
	return pattern.Spec{TestSpec: pattern.TestSpec{Text: s, Regex: true}}
}

func word(s string) Tok { return Tok{Spec: txt(s)} }

func compile(t *testing.T, s *Session, src RuleSource) []*rule.Rule {
	t.Helper()
	rules, err := s.CompileRule(src)
	if err != nil {
		t.Fatalf("CompileRule(%s): %v", src.ID, err)
	}
	return rules
}

func matchCount(r *rule.Rule, text string) int {
	return len(r.Match(sentence.Parse(text), synth.Env{}))
}

// ============================================================================
// Expansion
// ============================================================================

func TestOrExpansion(t *testing.T) {
	s := NewSession(DefaultOptions())
	rules := compile(t, s, RuleSource{
		ID: "BE",
		Elements: []Element{
			Or{Alternatives: []pattern.Spec{txt("is"), txt("are")}},
			word("going"),
		},
	})
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}

	tests := []struct {
		rule  int
		subID string
		hit   string
		miss  string
	}{
		{0, "1", "is going", "are going"},
		{1, "2", "are going", "is going"},
	}
	for _, tt := range tests {
		r := rules[tt.rule]
		if r.SubID() != tt.subID {
			t.Errorf("rule %d SubID() = %q, want %q", tt.rule, r.SubID(), tt.subID)
		}
		if matchCount(r, tt.hit) != 1 {
			t.Errorf("%s missed %q", r.FullID(), tt.hit)
		}
		if matchCount(r, tt.miss) != 0 {
			t.Errorf("%s matched %q", r.FullID(), tt.miss)
		}
	}
}

func TestPhraseExpansion(t *testing.T) {
	s := NewSession(DefaultOptions())
	if err := s.AddPhrase(Phrase{
		ID:       "ALOT",
		Variants: [][]Element{{word("a"), word("lot")}, {word("lots")}},
	}); err != nil {
		t.Fatal(err)
	}
	rules := compile(t, s, RuleSource{
		ID:       "LOT_OF",
		Elements: []Element{PhraseRef{ID: "ALOT"}, word("of")},
		Message:  `Fine: <suggestion>\1 \2</suggestion>`,
	})
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}

	tests := []struct {
		elementNo []int
		text      string
		sugg      []string
	}{
		{[]int{2, 1}, "a lot of time", []string{"a lot of"}},
		{[]int{1, 1}, "lots of time", []string{"lots of"}},
	}
	for i, tt := range tests {
		r := rules[i]
		if !reflect.DeepEqual(r.ElementNo(), tt.elementNo) {
			t.Errorf("rule %d ElementNo() = %v, want %v", i, r.ElementNo(), tt.elementNo)
		}
		ms := r.Match(sentence.Parse(tt.text), synth.Env{})
		if len(ms) != 1 {
			t.Fatalf("rule %d on %q: %d matches", i, tt.text, len(ms))
		}
		if !reflect.DeepEqual(ms[0].Suggestions, tt.sugg) {
			t.Errorf("rule %d Suggestions = %q, want %q", i, ms[0].Suggestions, tt.sugg)
		}
	}
}

func TestNestedPhrase(t *testing.T) {
	s := NewSession(DefaultOptions())
	for _, p := range []Phrase{
		{ID: "COLOR", Variants: [][]Element{{word("red")}, {word("blue")}}},
		{ID: "THING", Variants: [][]Element{{PhraseRef{ID: "COLOR"}, word("car")}}},
	} {
		if err := s.AddPhrase(p); err != nil {
			t.Fatal(err)
		}
	}
	rules := compile(t, s, RuleSource{ID: "CAR", Elements: []Element{PhraseRef{ID: "THING"}}})
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
	for i, text := range []string{"a red car", "a blue car"} {
		if matchCount(rules[i], text) != 1 {
			t.Errorf("%s missed %q", rules[i].FullID(), text)
		}
	}
}

func TestGroupSubIDs(t *testing.T) {
	s := NewSession(DefaultOptions())
	rules, err := s.Compile(Group{
		ID: "G",
		Rules: []RuleSource{
			{Elements: []Element{Or{Alternatives: []pattern.Spec{txt("a"), txt("b")}}}},
			{Elements: []Element{word("c")}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range rules {
		got = append(got, r.FullID())
	}
	want := []string{"G[1.1]", "G[1.2]", "G[2]"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FullIDs = %v, want %v", got, want)
	}
}

// ============================================================================
// Markers and references
// ============================================================================

func TestMarker(t *testing.T) {
	s := NewSession(DefaultOptions())
	if err := s.AddPhrase(Phrase{ID: "BIG", Variants: [][]Element{{word("very"), word("big")}}}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		elements   []Element
		start, end int
	}{
		{"none", []Element{word("a"), word("b")}, 0, 1},
		{"single", []Element{word("a"), Tok{Spec: txt("b"), Marker: true}, word("c")}, 1, 1},
		{"phrase", []Element{word("a"), PhraseRef{ID: "BIG", Marker: true}, word("dog")}, 1, 2},
		{"or", []Element{Or{Alternatives: []pattern.Spec{txt("x"), txt("y")}, Marker: true}, word("z")}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := compile(t, s, RuleSource{ID: "M", Elements: tt.elements})
			start, end := rules[0].Marker()
			if start != tt.start || end != tt.end {
				t.Errorf("Marker() = %d, %d, want %d, %d", start, end, tt.start, tt.end)
			}
		})
	}
}

func TestReferenceTranslation(t *testing.T) {
	s := NewSession(DefaultOptions())
	if err := s.AddPhrase(Phrase{ID: "BIG", Variants: [][]Element{{word("very"), word("big")}}}); err != nil {
		t.Fatal(err)
	}
	again := txt(`\1`)
	again.Reference = &pattern.Reference{Index: 1, Match: synth.MustNewMatch(synth.MatchSpec{})}

	rules := compile(t, s, RuleSource{
		ID:       "REPEAT",
		Elements: []Element{PhraseRef{ID: "BIG"}, Tok{Spec: rx("[a-z]+")}, Tok{Spec: again}},
	})
	ref := rules[0].Tokens()[3].Reference()
	if ref == nil || ref.Index != 2 || ref.Match.TokenRef() != 2 {
		t.Fatalf("Reference = %+v, want token index 2", ref)
	}
	if got := rules[0].Tokens()[3].Text(); got != `\2` {
		t.Errorf("Text() = %q, want placeholder rewritten", got)
	}
	if matchCount(rules[0], "very big cat cat") != 1 {
		t.Error("repeated word missed")
	}
	if matchCount(rules[0], "very big cat dog") != 0 {
		t.Error("different words matched")
	}
}

func TestDirectiveTranslation(t *testing.T) {
	s := NewSession(DefaultOptions())
	if err := s.AddPhrase(Phrase{ID: "BIG", Variants: [][]Element{{word("very"), word("big")}}}); err != nil {
		t.Fatal(err)
	}
	rules := compile(t, s, RuleSource{
		ID:       "SHOUT",
		Elements: []Element{PhraseRef{ID: "BIG"}, word("dog")},
		Message:  `<suggestion>\2</suggestion>`,
		Matches:  []synth.MatchSpec{{TokenRef: 1, Case: synth.CaseAllUpper}},
	})
	ms := rules[0].Match(sentence.Parse("very big dog"), synth.Env{})
	if len(ms) != 1 || !reflect.DeepEqual(ms[0].Suggestions, []string{"DOG"}) {
		t.Errorf("matches = %v", ms)
	}
}

// ============================================================================
// Antipatterns
// ============================================================================

func TestAntipatterns(t *testing.T) {
	s := NewSession(DefaultOptions())
	rules, err := s.Compile(Group{
		ID:           "DOG",
		Antipatterns: [][]Element{{word("hot"), word("dog")}},
		Rules: []RuleSource{{
			Elements:     []Element{word("dog")},
			Antipatterns: [][]Element{{word("dog"), word("days")}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	r := rules[0]
	if len(r.Antipatterns()) != 2 {
		t.Fatalf("got %d antipatterns, want 2", len(r.Antipatterns()))
	}

	tests := []struct {
		text string
		want int
	}{
		{"the dog", 1},
		{"hot dog", 0},
		{"dog days", 0},
		{"hot dog and dog", 1},
	}
	for _, tt := range tests {
		if got := matchCount(r, tt.text); got != tt.want {
			t.Errorf("%q: %d matches, want %d", tt.text, got, tt.want)
		}
	}
}

// ============================================================================
// Errors
// ============================================================================

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    RuleSource
		target error
	}{
		{"unknown phrase", RuleSource{ID: "X", Elements: []Element{PhraseRef{ID: "NOPE"}}}, ErrUnknownPhrase},
		{"no elements", RuleSource{ID: "X"}, ErrInvalidRule},
		{"reference beyond elements", RuleSource{ID: "X", Elements: []Element{word("a")}, Message: `\2`}, ErrInvalidRule},
		{"empty or", RuleSource{ID: "X", Elements: []Element{Or{}}}, ErrInvalidRule},
		{"nil element", RuleSource{ID: "X", Elements: []Element{nil}}, ErrInvalidRule},
		{"loop", RuleSource{ID: "X", Elements: []Element{PhraseRef{ID: "LOOP"}}}, ErrInvalidRule},
		{"bad token", RuleSource{ID: "X", Elements: []Element{Tok{Spec: rx("(")}}}, pattern.ErrInvalidToken},
		{"bad message", RuleSource{ID: "X", Elements: []Element{word("a")}, Message: "<suggestion>"}, ErrInvalidRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(DefaultOptions())
			if err := s.AddPhrase(Phrase{ID: "LOOP", Variants: [][]Element{{PhraseRef{ID: "LOOP"}}}}); err != nil {
				t.Fatal(err)
			}
			_, err := s.CompileRule(tt.src)
			if !errors.Is(err, tt.target) {
				t.Fatalf("error = %v, want %v", err, tt.target)
			}
			var re *RuleError
			if !errors.As(err, &re) || re.RuleID != "X" {
				t.Errorf("error %v is not a RuleError for X", err)
			}
		})
	}
}

func TestAddPhraseErrors(t *testing.T) {
	s := NewSession(DefaultOptions())
	ok := Phrase{ID: "P", Variants: [][]Element{{word("a")}}}
	if err := s.AddPhrase(ok); err != nil {
		t.Fatal(err)
	}
	for _, p := range []Phrase{
		ok,
		{Variants: [][]Element{{word("a")}}},
		{ID: "Q"},
		{ID: "R", Variants: [][]Element{{}}},
	} {
		if err := s.AddPhrase(p); !errors.Is(err, ErrInvalidRule) {
			t.Errorf("AddPhrase(%+v) error = %v", p, err)
		}
	}
}

func TestGroupAntipatternError(t *testing.T) {
	s := NewSession(DefaultOptions())
	_, err := s.Compile(Group{ID: "G", Antipatterns: [][]Element{{}}, Rules: []RuleSource{{Elements: []Element{word("a")}}}})
	var re *RuleError
	if !errors.As(err, &re) || re.RuleID != "G" {
		t.Errorf("error = %v", err)
	}
}

// ============================================================================
// Equivalences and regex rules
// ============================================================================

func TestAddEquivalence(t *testing.T) {
	s := NewSession(DefaultOptions())
	sg := pattern.Spec{TestSpec: pattern.TestSpec{POS: "NN", POSRegex: true}}
	pl := pattern.Spec{TestSpec: pattern.TestSpec{POS: "NNS", POSRegex: true}}
	if err := s.AddEquivalence("number", "sg", sg); err != nil {
		t.Fatal(err)
	}
	if err := s.AddEquivalence("number", "pl", pl); err != nil {
		t.Fatal(err)
	}
	if got := s.Equivalences().Types("number"); !reflect.DeepEqual(got, []string{"sg", "pl"}) {
		t.Errorf("Types() = %v", got)
	}
	if err := s.AddEquivalence("number", "bad", rx("(")); err == nil {
		t.Error("invalid equivalence accepted")
	}
}

func TestCompileRegex(t *testing.T) {
	s := NewSession(DefaultOptions())
	r, err := s.CompileRegex(RegexSource{
		ID:        "TEH",
		Pattern:   `\b(teh)\b`,
		MarkGroup: 1,
		Message:   "Did you mean <suggestion>the</suggestion>?",
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.Prefilter() == nil {
		t.Error("default options should build a prefilter")
	}
	ms := r.MatchText("see teh cat")
	if len(ms) != 1 || ms[0].From != 4 || ms[0].To != 7 {
		t.Errorf("matches = %v", ms)
	}

	_, err = s.CompileRegex(RegexSource{ID: "BAD", Pattern: "("})
	var re *RuleError
	if !errors.As(err, &re) || re.RuleID != "BAD" || !errors.Is(err, ErrInvalidRule) {
		t.Errorf("error = %v", err)
	}
}

func TestExpansionLogged(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewSession(opts)
	compile(t, s, RuleSource{ID: "LOGGED", Elements: []Element{Or{Alternatives: []pattern.Spec{txt("a"), txt("b")}}}})
	if out := buf.String(); !strings.Contains(out, "LOGGED") || !strings.Contains(out, "variants=2") {
		t.Errorf("log = %q", out)
	}
}
