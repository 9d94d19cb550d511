package quiz

import (
	"math"

	"github.com/verte-zerg/chordquiz/internal/model"
	"github.com/verte-zerg/chordquiz/internal/theory"
)

// Scores awarded per status. Partial matches scale with set overlap.
const (
	ScoreCorrect    = 100
	ScoreEquivalent = 75
	scoreNearMiss   = 50
	scoreWrong      = 25
)

// Classifier rates one candidate interpretation of the held notes against the
// expected chord. The returned state keeps the cursor and timing of state.
type Classifier interface {
	Classify(expected theory.Chord, candidate *theory.Chord, pitchClasses []theory.PitchClass, state model.GameState) model.GameState
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(expected theory.Chord, candidate *theory.Chord, pitchClasses []theory.PitchClass, state model.GameState) model.GameState

// Classify implements Classifier.
func (f ClassifierFunc) Classify(expected theory.Chord, candidate *theory.Chord, pitchClasses []theory.PitchClass, state model.GameState) model.GameState {
	return f(expected, candidate, pitchClasses, state)
}

// Classify is the default match classifier.
func Classify(expected theory.Chord, candidate *theory.Chord, pitchClasses []theory.PitchClass, state model.GameState) model.GameState {
	state.Chord = candidate
	state.Status, state.Score = rate(expected, candidate, theory.SetOf(pitchClasses))
	return state
}

func rate(expected theory.Chord, candidate *theory.Chord, held theory.PitchSet) (model.Status, int) {
	want := expected.Set()
	if candidate != nil && candidate.Tonic == expected.Tonic && candidate.Set() == want {
		return model.StatusCorrect, ScoreCorrect
	}
	if held == want {
		return model.StatusEquivalent, ScoreEquivalent
	}
	common := (held & want).Len()
	union := (held | want).Len()
	if union == 0 {
		return model.StatusWrong, 0
	}
	jaccard := float64(common) / float64(union)
	if union-common == 1 {
		return model.StatusNearMiss, int(math.Round(scoreNearMiss * jaccard))
	}
	return model.StatusWrong, int(math.Round(scoreWrong * jaccard))
}

// Best classifies every candidate of in against expected and keeps the
// strongest result, starting from seed.
func Best(c Classifier, expected theory.Chord, in InputChanged, seed model.GameState) model.GameState {
	best := seed
	for _, candidate := range in.Chords {
		next := c.Classify(expected, candidate, in.PitchClasses, seed)
		if better(best, next) {
			best = next
		}
	}
	return best
}

// better reports whether candidate replaces best under the best-of rule.
// Later candidates win exact ties.
func better(best, candidate model.GameState) bool {
	if best.Chord == nil {
		return true
	}
	if candidate.Status != best.Status {
		return candidate.Status > best.Status
	}
	return candidate.Score >= best.Score
}
