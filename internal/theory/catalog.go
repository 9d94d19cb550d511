package theory

import (
	"fmt"
	"strconv"
	"strings"
)

// ChordType is one entry of the chord catalog.
type ChordType struct {
	// Symbol is the preferred suffix written after the tonic, e.g. "m7".
	Symbol    string
	Name      string
	Aliases   []string
	Intervals []string
	Semitones []int
	set       PitchSet
}

// Set returns the pitch-class set of the type rooted on C.
func (t ChordType) Set() PitchSet {
	return t.set
}

// HasPerfectFifth reports whether the type contains a perfect fifth.
func (t ChordType) HasPerfectFifth() bool {
	for _, iv := range t.Intervals {
		if iv == "5P" {
			return true
		}
	}
	return false
}

// Intervals, full name, aliases. The first alias is the display symbol.
var catalogData = [][3]string{
	// major
	{"1P 3M 5P", "major", "maj M ^"},
	{"1P 3M 5P 7M", "major seventh", "maj7 Δ ma7 M7 Maj7 ^7"},
	{"1P 3M 5P 7M 9M", "major ninth", "maj9 Δ9 ^9"},
	{"1P 3M 5P 7M 9M 13M", "major thirteenth", "maj13 Maj13 ^13"},
	{"1P 3M 5P 6M", "sixth", "6 add6 add13 M6"},
	{"1P 3M 5P 6M 9M", "sixth added ninth", "6add9 6/9 69 M69"},
	{"1P 3M 6m 7M", "major seventh flat sixth", "M7b6 ^7b6"},
	{"1P 3M 5P 7M 11A", "major seventh sharp eleventh", "maj7#11 maj#4 Δ#4 Δ#11 M7#11 ^7#11"},
	{"1P 3M 5P 9M", "added ninth", "add9 Madd9 2 add2"},
	// minor
	{"1P 3m 5P", "minor", "m min -"},
	{"1P 3m 5P 7m", "minor seventh", "m7 min7 mi7 -7"},
	{"1P 3m 5P 7M", "minor/major seventh", "mMaj7 m/ma7 m/maj7 mM7 m/M7 -Δ7 mΔ -^7"},
	{"1P 3m 5P 6M", "minor sixth", "m6 -6"},
	{"1P 3m 5P 7m 9M", "minor ninth", "m9 -9"},
	{"1P 3m 5P 7M 9M", "minor/major ninth", "mMaj9 mM9 -^9"},
	{"1P 3m 5P 7m 9M 11P", "minor eleventh", "m11 -11"},
	{"1P 3m 5P 7m 9M 13M", "minor thirteenth", "m13 -13"},
	{"1P 3m 5P 9M", "minor added ninth", "madd9"},
	// diminished
	{"1P 3m 5d", "diminished", "dim ° o"},
	{"1P 3m 5d 7d", "diminished seventh", "dim7 °7 o7"},
	{"1P 3m 5d 7m", "half-diminished", "m7b5 ø -7b5 h7 h"},
	// dominant
	{"1P 3M 5P 7m", "dominant seventh", "7 dom"},
	{"1P 3M 5P 7m 9M", "dominant ninth", "9"},
	{"1P 3M 5P 7m 9M 13M", "dominant thirteenth", "13"},
	{"1P 3M 5P 7m 11A", "lydian dominant seventh", "7#11 7#4"},
	{"1P 3M 5P 7m 9m", "dominant flat ninth", "7b9"},
	{"1P 3M 5P 7m 9A", "dominant sharp ninth", "7#9"},
	{"1P 3M 7m 9m", "altered", "alt7"},
	{"1P 3M 5d 7m", "dominant seventh flat five", "7b5"},
	{"1P 3M 5A 7m", "augmented dominant seventh", "7#5 +7 7+ 7aug aug7"},
	// suspended
	{"1P 4P 5P", "suspended fourth", "sus4 sus"},
	{"1P 2M 5P", "suspended second", "sus2"},
	{"1P 4P 5P 7m", "suspended fourth seventh", "7sus4 7sus"},
	{"1P 5P 7m 9M 11P", "eleventh", "11"},
	{"1P 4P 5P 7m 9m", "suspended fourth flat ninth", "7b9sus b9sus phryg 7b9sus4"},
	// other
	{"1P 5P", "fifth", "5"},
	{"1P 3M 5A", "augmented", "aug + +5 ^#5"},
	{"1P 3m 5A", "minor augmented", "m#5 -#5 m+"},
	{"1P 3M 5A 7M", "augmented seventh", "maj7#5 maj7+5 +maj7 ^7#5"},
	{"1P 3M 5P 7M 9M 11A", "major sharp eleventh (lydian)", "maj9#11 Δ9#11 ^9#11"},
}

var (
	catalog  []ChordType
	byAlias  map[string]int
	majorIdx int
)

func init() {
	catalog = make([]ChordType, 0, len(catalogData))
	byAlias = map[string]int{}
	for _, row := range catalogData {
		t, err := newChordType(row[0], row[1], row[2])
		if err != nil {
			panic(err)
		}
		idx := len(catalog)
		catalog = append(catalog, t)
		for _, alias := range t.Aliases {
			if _, dup := byAlias[alias]; !dup {
				byAlias[alias] = idx
			}
		}
	}
	majorIdx = byAlias["maj"]
	byAlias[""] = majorIdx
}

func newChordType(intervals, name, aliases string) (ChordType, error) {
	t := ChordType{
		Name:      name,
		Aliases:   strings.Fields(aliases),
		Intervals: strings.Fields(intervals),
	}
	if len(t.Aliases) == 0 {
		return ChordType{}, fmt.Errorf("chord type %q has no aliases", name)
	}
	t.Symbol = t.Aliases[0]
	for _, iv := range t.Intervals {
		st, err := IntervalSemitones(iv)
		if err != nil {
			return ChordType{}, fmt.Errorf("chord type %q: %w", name, err)
		}
		t.Semitones = append(t.Semitones, st)
		t.set |= 1 << (st % 12)
	}
	return t, nil
}

// IntervalSemitones converts interval names like "3M", "5d" or "11A" to semitones.
func IntervalSemitones(name string) (int, error) {
	if len(name) < 2 {
		return 0, fmt.Errorf("invalid interval %q", name)
	}
	quality := name[len(name)-1]
	number, err := strconv.Atoi(name[:len(name)-1])
	if err != nil || number < 1 {
		return 0, fmt.Errorf("invalid interval %q", name)
	}
	degree := (number - 1) % 7
	octave := (number - 1) / 7
	st := []int{0, 2, 4, 5, 7, 9, 11}[degree] + 12*octave
	perfect := degree == 0 || degree == 3 || degree == 4
	switch quality {
	case 'P':
		if !perfect {
			return 0, fmt.Errorf("invalid interval %q: not a perfect degree", name)
		}
	case 'M':
		if perfect {
			return 0, fmt.Errorf("invalid interval %q: not a major degree", name)
		}
	case 'm':
		if perfect {
			return 0, fmt.Errorf("invalid interval %q: not a minor degree", name)
		}
		st--
	case 'A':
		st++
	case 'd':
		if perfect {
			st--
		} else {
			st -= 2
		}
	default:
		return 0, fmt.Errorf("invalid interval quality in %q", name)
	}
	return st, nil
}

// Types returns a copy of the chord-type catalog in catalog order.
func Types() []ChordType {
	out := make([]ChordType, len(catalog))
	copy(out, catalog)
	return out
}

// TypeBySymbol looks up a chord type by any of its aliases.
func TypeBySymbol(symbol string) (ChordType, bool) {
	idx, ok := byAlias[symbol]
	if !ok {
		return ChordType{}, false
	}
	return catalog[idx], true
}
