package compiler

import (
	"fmt"

	"github.com/coregx/corerule/pattern"
)

const (
	maxPhraseDepth = 16
	maxVariants    = 4096
)

// marked is one expanded pattern token.
type marked struct {
	spec   pattern.Spec
	marker bool
}

// branch is one expansion of an element list. A branch is never modified
// once built; extending it copies.
type branch struct {
	specs     []pattern.Spec
	marked    []bool
	elementNo []int
}

// extend returns b followed by one element made of seq.
func (b branch) extend(seq []marked) branch {
	n := len(b.specs) + len(seq)
	nb := branch{
		specs:     make([]pattern.Spec, len(b.specs), n),
		marked:    make([]bool, len(b.marked), n),
		elementNo: make([]int, len(b.elementNo), len(b.elementNo)+1),
	}
	copy(nb.specs, b.specs)
	copy(nb.marked, b.marked)
	copy(nb.elementNo, b.elementNo)
	for _, m := range seq {
		nb.specs = append(nb.specs, m.spec)
		nb.marked = append(nb.marked, m.marker)
	}
	nb.elementNo = append(nb.elementNo, len(seq))
	return nb
}

// tokenIndex maps element e to the index of its first token.
func (b branch) tokenIndex(e int) (int, error) {
	if e < 0 || e >= len(b.elementNo) {
		return 0, invalid("element %d out of range [0,%d)", e, len(b.elementNo))
	}
	idx := 0
	for _, n := range b.elementNo[:e] {
		idx += n
	}
	return idx, nil
}

// marker returns the token range covered by marked tokens, or -1, -1.
func (b branch) marker() (start, end int) {
	start, end = -1, -1
	for i, m := range b.marked {
		if !m {
			continue
		}
		if start < 0 {
			start = i
		}
		end = i
	}
	return start, end
}

// expand returns every combination of the alternatives of elems. Each
// top-level element becomes one entry of elementNo.
func (s *Session) expand(elems []Element) ([]branch, error) {
	acc := []branch{{}}
	for i, e := range elems {
		alts, err := s.alternatives(e, false, 0)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if len(acc)*len(alts) > maxVariants {
			return nil, invalid("more than %d variants", maxVariants)
		}
		next := make([]branch, 0, len(acc)*len(alts))
		for _, b := range acc {
			for _, alt := range alts {
				next = append(next, b.extend(alt))
			}
		}
		acc = next
	}
	return acc, nil
}

// alternatives returns the token sequences e can stand for.
func (s *Session) alternatives(e Element, marker bool, depth int) ([][]marked, error) {
	switch e := e.(type) {
	case Tok:
		return [][]marked{{{spec: e.Spec, marker: marker || e.Marker}}}, nil
	case *Tok:
		return s.alternatives(*e, marker, depth)
	case Or:
		if len(e.Alternatives) == 0 {
			return nil, invalid("empty or")
		}
		out := make([][]marked, len(e.Alternatives))
		for i, spec := range e.Alternatives {
			out[i] = []marked{{spec: spec, marker: marker || e.Marker}}
		}
		return out, nil
	case PhraseRef:
		if depth >= maxPhraseDepth {
			return nil, invalid("phrase %s nested deeper than %d", e.ID, maxPhraseDepth)
		}
		p, ok := s.phrases[e.ID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPhrase, e.ID)
		}
		var out [][]marked
		for _, v := range p.Variants {
			seqs, err := s.sequences(v, marker || e.Marker, depth+1)
			if err != nil {
				return nil, fmt.Errorf("phrase %s: %w", e.ID, err)
			}
			out = append(out, seqs...)
		}
		return out, nil
	case nil:
		return nil, invalid("nil element")
	default:
		return nil, invalid("unsupported element %T", e)
	}
}

// sequences flattens a phrase variant into every token sequence it stands
// for.
func (s *Session) sequences(elems []Element, marker bool, depth int) ([][]marked, error) {
	acc := [][]marked{nil}
	for _, e := range elems {
		alts, err := s.alternatives(e, marker, depth)
		if err != nil {
			return nil, err
		}
		if len(acc)*len(alts) > maxVariants {
			return nil, invalid("more than %d variants", maxVariants)
		}
		next := make([][]marked, 0, len(acc)*len(alts))
		for _, prefix := range acc {
			for _, alt := range alts {
				seq := make([]marked, 0, len(prefix)+len(alt))
				seq = append(append(seq, prefix...), alt...)
				next = append(next, seq)
			}
		}
		acc = next
	}
	return acc, nil
}
