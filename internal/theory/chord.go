package theory

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownChord is returned when a chord symbol cannot be parsed.
var ErrUnknownChord = errors.New("unknown chord")

// Chord is a chord type rooted on a tonic. Chord values are never mutated after
// construction, so they may be shared freely.
type Chord struct {
	Symbol string
	Tonic  PitchClass
	// Type is the display symbol of the chord type, e.g. "m7".
	Type  string
	Name  string
	Notes []PitchClass
}

// NewChord roots a catalog type on tonic.
func NewChord(tonic PitchClass, t ChordType, acc Accidentals) Chord {
	notes := make([]PitchClass, 0, len(t.Semitones))
	for _, st := range t.Semitones {
		notes = append(notes, tonic.Transpose(st))
	}
	tonicName := tonic.Name(acc)
	return Chord{
		Symbol: tonicName + t.Symbol,
		Tonic:  tonic,
		Type:   t.Symbol,
		Name:   tonicName + " " + t.Name,
		Notes:  notes,
	}
}

// ParseChord parses a symbol such as "C", "Ebm7" or "F#7b9".
func ParseChord(symbol string, acc Accidentals) (Chord, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return Chord{}, fmt.Errorf("%w: empty symbol", ErrUnknownChord)
	}
	// Accidentals after the letter are consumed greedily first; a suffix that
	// itself starts with 'b' (e.g. "b9sus") is found by backing off.
	end := 1
	for end < len(symbol) && (symbol[end] == '#' || symbol[end] == 'b') {
		end++
	}
	for ; end >= 1; end-- {
		tonic, err := ParsePitchClass(symbol[:end])
		if err != nil {
			if errors.Is(err, ErrUnknownPitch) && end == 1 {
				return Chord{}, fmt.Errorf("%w: %q", ErrUnknownChord, symbol)
			}
			continue
		}
		if t, ok := TypeBySymbol(symbol[end:]); ok {
			return NewChord(tonic, t, acc), nil
		}
	}
	return Chord{}, fmt.Errorf("%w: %q", ErrUnknownChord, symbol)
}

// Set returns the pitch-class set of the chord.
func (c Chord) Set() PitchSet {
	return SetOf(c.Notes)
}

// Equal reports whether both chords have the same tonic and type.
func (c Chord) Equal(o Chord) bool {
	return c.Tonic == o.Tonic && c.Type == o.Type
}

// NoteNames spells the chord notes.
func (c Chord) NoteNames(acc Accidentals) []string {
	out := make([]string, len(c.Notes))
	for i, n := range c.Notes {
		out[i] = n.Name(acc)
	}
	return out
}

// String implements fmt.Stringer.
func (c Chord) String() string {
	return c.Symbol
}
