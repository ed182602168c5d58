package message

import (
	"strings"

	"github.com/coregx/coregex"

	"github.com/coregx/corerule/synth"
)

// unsynthesized matches the "(form)" placeholder of a form that could not
// be generated.
var unsynthesized = coregex.MustCompile(`\(.*\)`)

type piece struct {
	text       string
	suggestion bool
}

// split cuts a rendered message into plain text and suggestion texts.
// An unterminated tag is kept as plain text.
func split(rendered string) []piece {
	var out []piece
	rest := rendered
	for {
		start := strings.Index(rest, SuggestionStart)
		if start < 0 {
			break
		}
		body := rest[start+len(SuggestionStart):]
		end := strings.Index(body, SuggestionEnd)
		if end < 0 {
			break
		}
		if start > 0 {
			out = append(out, piece{text: rest[:start]})
		}
		out = append(out, piece{text: body[:end], suggestion: true})
		rest = body[end+len(SuggestionEnd):]
	}
	if rest != "" {
		out = append(out, piece{text: rest})
	}
	return out
}

// Suggestions returns the texts of the suggestion elements in rendered,
// in order.
func Suggestions(rendered string) []string {
	var out []string
	for _, p := range split(rendered) {
		if p.suggestion {
			out = append(out, p.text)
		}
	}
	return out
}

// IsMisspelled reports whether a suggestion contains a form that the
// tagger did not know or that could not be synthesized.
func IsMisspelled(suggestion string) bool {
	return strings.Contains(suggestion, synth.Mistake) || unsynthesized.MatchString(suggestion)
}

// DropMisspelled removes misspelled suggestions from rendered. Within a
// run of suggestions separated by ", " the survivors stay separated.
func DropMisspelled(rendered string) string {
	pieces := split(rendered)
	var b strings.Builder
	for i := 0; i < len(pieces); i++ {
		if !pieces[i].suggestion {
			b.WriteString(pieces[i].text)
			continue
		}
		var kept []string
		for {
			if !IsMisspelled(pieces[i].text) {
				kept = append(kept, pieces[i].text)
			}
			if i+2 < len(pieces) && !pieces[i+1].suggestion && pieces[i+1].text == ", " && pieces[i+2].suggestion {
				i += 2
				continue
			}
			break
		}
		for k, s := range kept {
			if k > 0 {
				b.WriteString(", ")
			}
			b.WriteString(SuggestionStart)
			b.WriteString(s)
			b.WriteString(SuggestionEnd)
		}
	}
	return b.String()
}
