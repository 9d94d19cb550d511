package theory

// DetectOptions controls chord detection.
type DetectOptions struct {
	Accidentals Accidentals
	// Disabled holds chord-type symbols that are never reported.
	Disabled map[string]struct{}
	// AllowOmissions lets a chord of four or more notes match without its fifth.
	AllowOmissions bool
}

// Detect returns every chord whose pitch classes equal the held set. The held
// pitch classes are expected bass first; interpretations rooted on the bass
// come first, then the other held notes as roots, each in catalog order.
func Detect(pitchClasses []PitchClass, opts DetectOptions) []Chord {
	held := SetOf(pitchClasses)
	if held == 0 {
		return nil
	}
	var out []Chord
	seen := map[PitchClass]bool{}
	for _, root := range pitchClasses {
		if seen[root] {
			continue
		}
		seen[root] = true
		relative := held.Rotate(root)
		for _, t := range catalog {
			if _, off := opts.Disabled[t.Symbol]; off {
				continue
			}
			if matchesType(relative, t, opts.AllowOmissions) {
				out = append(out, NewChord(root, t, opts.Accidentals))
			}
		}
	}
	return out
}

func matchesType(relative PitchSet, t ChordType, allowOmissions bool) bool {
	if relative == t.set {
		return true
	}
	if !allowOmissions || !t.HasPerfectFifth() || len(t.Semitones) < 4 {
		return false
	}
	return relative == t.set&^(1<<7)
}
