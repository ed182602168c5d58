package synth

import "github.com/coregx/corerule/sentence"

// Synthesizer generates word forms for a reading's lemma and a target POS
// tag. With posRegex the tag is a regular expression that must match the
// whole tag of a generated form.
type Synthesizer interface {
	Synthesize(r sentence.Reading, posTag string, posRegex bool) []string
}

// Tagger returns the readings of a single word. An unknown word yields no
// readings or a single reading without lemma and tag.
type Tagger interface {
	Tag(word string) []sentence.Reading
}

// Env carries the external collaborators used during rendering. Either
// field may be nil: without a Synthesizer the surface text is used, and
// without a Tagger no spelling suppression happens.
type Env struct {
	Synthesizer Synthesizer
	Tagger      Tagger
}
