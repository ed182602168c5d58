package unify

import (
	"reflect"
	"testing"

	"github.com/coregx/corerule/pattern"
	"github.com/coregx/corerule/sentence"
)

func posToken(t *testing.T, posRegex string) *pattern.Token {
	t.Helper()
	tok, err := pattern.New(pattern.Spec{TestSpec: pattern.TestSpec{POS: posRegex, POSRegex: true}})
	if err != nil {
		t.Fatalf("pattern.New(%q): %v", posRegex, err)
	}
	return tok
}

func textToken(t *testing.T, re string) *pattern.Token {
	t.Helper()
	tok, err := pattern.New(pattern.Spec{TestSpec: pattern.TestSpec{Text: re, Regex: true, CaseSensitive: true}})
	if err != nil {
		t.Fatalf("pattern.New(%q): %v", re, err)
	}
	return tok
}

// caseEquivalences defines grammatical case by the POS suffix.
func caseEquivalences(t *testing.T) *Equivalences {
	t.Helper()
	eq := NewEquivalences()
	eq.Add("case", "nom", posToken(t, ".*:nom"))
	eq.Add("case", "gen", posToken(t, ".*:gen"))
	eq.Add("number", "sg", posToken(t, ".*:sg:.*"))
	eq.Add("number", "pl", posToken(t, ".*:pl:.*"))
	return eq
}

func rd(word, pos string) sentence.Reading {
	return sentence.Reading{Surface: word, Lemma: word, POS: pos}
}

// feed runs every token through u and returns the result for the last
// reading of the last token.
func feed(u *Unifier, features map[string][]string, tokens ...[]sentence.Reading) bool {
	result := false
	for _, readings := range tokens {
		for i, r := range readings {
			result = u.IsUnified(r, features, i == len(readings)-1, true)
		}
	}
	return result
}

// ============================================================================
// Equivalences
// ============================================================================

func TestEquivalences(t *testing.T) {
	eq := caseEquivalences(t)
	eq.Add("case", "nom", posToken(t, ".*:nom"))

	if got := eq.Types("case"); !reflect.DeepEqual(got, []string{"nom", "gen"}) {
		t.Errorf("Types(case) = %v", got)
	}
	if got := eq.Features(); !reflect.DeepEqual(got, []string{"case", "number"}) {
		t.Errorf("Features() = %v", got)
	}
	if eq.test("case", "dat") != nil {
		t.Error("undefined type should have no test")
	}
	if got := eq.typesOf("case", nil); len(got) != 2 {
		t.Errorf("empty request should select all types, got %v", got)
	}
}

// ============================================================================
// Unification
// ============================================================================

func TestUnifyCharacterCase(t *testing.T) {
	eq := NewEquivalences()
	eq.Add("cs", "lowercase", textToken(t, `\p{Ll}+`))
	eq.Add("cs", "uppercase", textToken(t, `\p{Lu}\p{Ll}+`))
	eq.Add("cs", "alluppercase", textToken(t, `\p{Lu}+`))

	lower1 := rd("lower", "JJR")
	lower2 := rd("lowercase", "JJ")
	upper1 := rd("Uppercase", "JJ")
	upper2 := rd("John", "NNP")
	all1 := rd("JOHN", "NNP")
	all2 := rd("JAMES", "NNP")

	lowercase := map[string][]string{"cs": {"lowercase"}}
	uppercase := map[string][]string{"cs": {"uppercase"}}
	allUpper := map[string][]string{"cs": {"alluppercase"}}

	tests := []struct {
		name     string
		features map[string][]string
		a, b     sentence.Reading
		want     bool
	}{
		{"both lower", lowercase, lower1, lower2, true},
		{"upper then lower", lowercase, upper2, lower2, false},
		{"capitalized then lower", lowercase, upper1, lower1, false},
		{"capitalized as lowercase", lowercase, upper2, upper1, false},
		{"both capitalized", uppercase, upper2, upper1, true},
		{"capitalized as all upper", allUpper, upper2, upper1, false},
		{"both all upper", allUpper, all2, all1, true},
	}
	u := New(eq)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u.Reset()
			got := feed(u, tt.features, []sentence.Reading{tt.a}, []sentence.Reading{tt.b})
			if got != tt.want {
				t.Errorf("unify(%s, %s) = %v, want %v", tt.a.Surface, tt.b.Surface, got, tt.want)
			}
		})
	}
}

func TestUnifyThreeTokens(t *testing.T) {
	features := map[string][]string{"case": nil}
	gen := []sentence.Reading{rd("des", "ART:gen")}
	adj := []sentence.Reading{rd("alten", "ADJ:gen")}
	noun := []sentence.Reading{rd("Mannes", "N:gen")}
	nom := []sentence.Reading{rd("Mann", "N:nom")}

	if !feed(New(caseEquivalences(t)), features, gen, adj, noun) {
		t.Error("three genitive tokens should unify")
	}
	if feed(New(caseEquivalences(t)), features, gen, adj, nom) {
		t.Error("a nominative noun should break genitive agreement")
	}
	if feed(New(caseEquivalences(t)), features, nom, adj, noun) {
		t.Error("a nominative article should break genitive agreement")
	}
}

func TestUnifyAmbiguousReadings(t *testing.T) {
	features := map[string][]string{"case": nil}
	art := []sentence.Reading{rd("der", "ART:nom"), rd("der", "ART:gen")}
	noun := []sentence.Reading{rd("Frau", "N:gen"), rd("Frau", "N:dat")}

	u := New(caseEquivalences(t))
	if !feed(u, features, art, noun) {
		t.Fatal("shared genitive reading should unify")
	}
	got := u.unifiedTokens()
	want := [][]sentence.Reading{
		{rd("der", "ART:gen")},
		{rd("Frau", "N:gen")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unifiedTokens() = %v, want %v", got, want)
	}
}

func TestUnifyMultipleFeatures(t *testing.T) {
	features := map[string][]string{"case": nil, "number": nil}
	adj := []sentence.Reading{rd("mały", "adj:sg:nom")}
	noun := []sentence.Reading{rd("człowiek", "subst:sg:nom")}
	plural := []sentence.Reading{rd("ludzie", "subst:pl:nom")}

	if !feed(New(caseEquivalences(t)), features, adj, noun) {
		t.Error("same case and number should unify")
	}
	if feed(New(caseEquivalences(t)), features, adj, plural) {
		t.Error("number mismatch should fail")
	}
}

func TestUnifyNeutralToken(t *testing.T) {
	features := map[string][]string{"case": nil}
	u := New(caseEquivalences(t))
	feed(u, features, []sentence.Reading{rd("des", "ART:gen")})
	u.AddNeutral(sentence.NewToken(",", 3, false, sentence.Reading{POS: "PUNCT"}))
	if !feed(u, features, []sentence.Reading{rd("Mannes", "N:gen")}) {
		t.Fatal("neutral token should not break agreement")
	}
	got := u.unifiedTokens()
	if len(got) != 3 || got[1][0].Surface != "," {
		t.Errorf("unifiedTokens() = %v, want the comma in the middle", got)
	}
}

func TestUnifyUnmatchedReadingsIgnored(t *testing.T) {
	features := map[string][]string{"case": nil}
	u := New(caseEquivalences(t))
	u.IsUnified(rd("des", "ART:gen"), features, true, true)
	u.IsUnified(rd("Mann", "N:nom"), features, false, false)
	if !u.IsUnified(rd("Mannes", "N:gen"), features, true, true) {
		t.Error("a reading that failed its pattern should not take part")
	}
}

func TestUnifyUnknownType(t *testing.T) {
	features := map[string][]string{"case": {"dat"}}
	u := New(caseEquivalences(t))
	if feed(u, features, []sentence.Reading{rd("dem", "ART:dat")}, []sentence.Reading{rd("Mann", "N:dat")}) {
		t.Error("an undefined type can never unify")
	}
	if u.unifiedTokens() != nil {
		t.Error("failed unification should expose no tokens")
	}
}

func TestUnifierState(t *testing.T) {
	features := map[string][]string{"case": nil}
	u := New(caseEquivalences(t))
	if u.State() != Idle {
		t.Fatalf("new unifier state = %v", u.State())
	}
	if u.unifiedTokens() != nil {
		t.Error("idle unifier should expose no tokens")
	}
	u.IsUnified(rd("der", "ART:nom"), features, false, true)
	if u.State() != Collecting {
		t.Errorf("state after first reading = %v, want Collecting", u.State())
	}
	u.IsUnified(rd("der", "ART:gen"), features, true, true)
	if u.State() != Unifying {
		t.Errorf("state after first token = %v, want Unifying", u.State())
	}
	u.Reset()
	if u.State() != Idle || u.unifiedTokens() != nil {
		t.Error("Reset should return to Idle")
	}
	if Unifying.String() != "Unifying" || State(9).String() != "State(?)" {
		t.Error("State.String mismatch")
	}
}
