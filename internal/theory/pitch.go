// Package theory provides pitch classes, the chord-type catalog and chord detection.
package theory

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPitch is returned when a note name cannot be parsed.
var ErrUnknownPitch = errors.New("unknown pitch class")

// PitchClass is a note independent of octave, 0 (C) through 11 (B).
type PitchClass uint8

// Accidentals selects how black keys are spelled.
type Accidentals string

const (
	Sharp Accidentals = "sharp"
	Flat  Accidentals = "flat"
)

var (
	sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	flatNames  = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}
	letterPC   = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}
)

// ParseAccidentals accepts "sharp"/"#" and "flat"/"b".
func ParseAccidentals(s string) (Accidentals, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sharp", "sharps", "#":
		return Sharp, nil
	case "flat", "flats", "b":
		return Flat, nil
	}
	return "", fmt.Errorf("unknown accidentals %q (want sharp or flat)", s)
}

// FromMIDI returns the pitch class of a MIDI note number.
func FromMIDI(note uint8) PitchClass {
	return PitchClass(note % 12)
}

// Transpose moves the pitch class by the given number of semitones.
func (pc PitchClass) Transpose(semitones int) PitchClass {
	v := (int(pc) + semitones) % 12
	if v < 0 {
		v += 12
	}
	return PitchClass(v)
}

// Name spells the pitch class with the given accidentals.
func (pc PitchClass) Name(acc Accidentals) string {
	if acc == Flat {
		return flatNames[pc%12]
	}
	return sharpNames[pc%12]
}

// String implements fmt.Stringer using sharps.
func (pc PitchClass) String() string {
	return pc.Name(Sharp)
}

// ParsePitchClass parses names like "C", "f#", "Eb", "Bbb".
func ParsePitchClass(name string) (PitchClass, error) {
	pc, rest, err := parsePitchPrefix(strings.TrimSpace(name))
	if err != nil {
		return 0, err
	}
	if rest != "" {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPitch, name)
	}
	return pc, nil
}

// parsePitchPrefix consumes a letter and any accidentals, returning the remainder.
func parsePitchPrefix(s string) (PitchClass, string, error) {
	if s == "" {
		return 0, "", fmt.Errorf("%w: empty name", ErrUnknownPitch)
	}
	base, ok := letterPC[upper(s[0])]
	if !ok {
		return 0, "", fmt.Errorf("%w: %q", ErrUnknownPitch, s)
	}
	i := 1
	for i < len(s) {
		switch s[i] {
		case '#':
			base++
		case 'b':
			base--
		default:
			return PitchClass(0).Transpose(base), s[i:], nil
		}
		i++
	}
	return PitchClass(0).Transpose(base), "", nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// PitchSet is a 12-bit set of pitch classes.
type PitchSet uint16

// SetOf builds a set from pitch classes.
func SetOf(pcs []PitchClass) PitchSet {
	var s PitchSet
	for _, pc := range pcs {
		s |= 1 << (pc % 12)
	}
	return s
}

// Has reports whether pc is in the set.
func (s PitchSet) Has(pc PitchClass) bool {
	return s&(1<<(pc%12)) != 0
}

// Len returns the number of pitch classes in the set.
func (s PitchSet) Len() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// Rotate re-expresses the set relative to a new root.
func (s PitchSet) Rotate(root PitchClass) PitchSet {
	var out PitchSet
	for pc := PitchClass(0); pc < 12; pc++ {
		if s.Has(pc) {
			out |= 1 << pc.Transpose(-int(root))
		}
	}
	return out
}

// MajorScale returns the seven pitch classes of the major scale on key.
func MajorScale(key PitchClass) []PitchClass {
	steps := []int{0, 2, 4, 5, 7, 9, 11}
	out := make([]PitchClass, len(steps))
	for i, st := range steps {
		out[i] = key.Transpose(st)
	}
	return out
}
