package sentence

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the YAML interchange form of a list of pre-tagged sentences.
//
//	sentences:
//	  - tokens:
//	      - text: The
//	        readings: [{lemma: the, pos: DT}]
//	      - text: dog
//	        space: true
//	        readings: [{lemma: dog, pos: NN}]
type Document struct {
	Sentences []SentenceDoc `yaml:"sentences"`
}

// SentenceDoc is one sentence of a Document.
type SentenceDoc struct {
	Tokens []TokenDoc `yaml:"tokens"`
}

// TokenDoc is one token of a SentenceDoc. Offsets are computed from the
// token texts and space flags.
type TokenDoc struct {
	Text     string    `yaml:"text"`
	Space    bool      `yaml:"space,omitempty"`
	Immune   bool      `yaml:"immune,omitempty"`
	Readings []Reading `yaml:"readings,omitempty"`
}

// DecodeYAML decodes a Document and builds its sentences.
func DecodeYAML(data []byte) ([]*Sentence, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tagged sentences: %w", err)
	}
	out := make([]*Sentence, 0, len(doc.Sentences))
	for i, sd := range doc.Sentences {
		s, err := sd.Build()
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Build converts the document form into a Sentence.
func (sd SentenceDoc) Build() (*Sentence, error) {
	tokens := make([]*Token, 0, len(sd.Tokens))
	offset := 0
	for i, td := range sd.Tokens {
		if td.Text == "" {
			return nil, fmt.Errorf("token %d: empty text", i)
		}
		if td.Space && i > 0 {
			offset++
		}
		tok := NewToken(td.Text, offset, td.Space, td.Readings...)
		tok.Immunized = td.Immune
		tokens = append(tokens, tok)
		offset += len(td.Text)
	}
	return New(tokens...), nil
}
