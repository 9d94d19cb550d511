package input

import "github.com/verte-zerg/chordquiz/internal/theory"

// Key binds a computer key to a semitone offset from the keymap base.
type Key struct {
	Key    string
	Offset int
}

// Layout is the two-row piano layout: the home row plays white keys and the
// row above plays black keys, from C up to the F an octave higher.
var Layout = []Key{
	{"a", 0}, {"w", 1}, {"s", 2}, {"e", 3}, {"d", 4}, {"f", 5}, {"t", 6},
	{"g", 7}, {"y", 8}, {"h", 9}, {"u", 10}, {"j", 11}, {"k", 12}, {"o", 13},
	{"l", 14}, {"p", 15}, {";", 16}, {"'", 17},
}

const (
	// DefaultBase is middle C.
	DefaultBase uint8 = 60
	minBase     uint8 = 24
	maxBase     uint8 = 96
)

// Keymap maps computer keys to MIDI notes.
type Keymap struct {
	Base  uint8
	index map[string]int
}

// NewKeymap returns a keymap rooted on base.
func NewKeymap(base uint8) Keymap {
	idx := make(map[string]int, len(Layout))
	for _, k := range Layout {
		idx[k.Key] = k.Offset
	}
	return Keymap{Base: clampBase(base), index: idx}
}

// Note returns the MIDI note bound to key.
func (k Keymap) Note(key string) (uint8, bool) {
	off, ok := k.index[key]
	if !ok {
		return 0, false
	}
	return k.Base + uint8(off), true
}

// Shift moves the keymap by whole octaves, staying within the playable range.
func (k Keymap) Shift(octaves int) Keymap {
	base := int(k.Base) + 12*octaves
	if base < int(minBase) {
		base = int(minBase)
	}
	if base > int(maxBase) {
		base = int(maxBase)
	}
	k.Base = uint8(base)
	return k
}

// Octave returns the scientific octave number of the base note.
func (k Keymap) Octave() int {
	return int(k.Base)/12 - 1
}

// Label names the note a key plays, e.g. "C#".
func (k Keymap) Label(key Key, acc theory.Accidentals) string {
	return theory.FromMIDI(k.Base + uint8(key.Offset)).Name(acc)
}

func clampBase(base uint8) uint8 {
	if base < minBase {
		return minBase
	}
	if base > maxBase {
		return maxBase
	}
	return base
}
