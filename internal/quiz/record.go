package quiz

import (
	"time"

	"github.com/verte-zerg/chordquiz/internal/model"
)

// Completed reports whether game gi of s has been fully played.
func Completed(s model.Session, gi int) bool {
	if gi < 0 || gi >= len(s.Games) {
		return false
	}
	g := s.Games[gi]
	return len(g.Chords) > 0 && len(g.Played) == len(g.Chords)
}

// BuildRecord converts a played game into persistence records.
func BuildRecord(s model.Session, gi int, runID string, startedAt, endedAt time.Time) (model.GameRecord, []model.AttemptRecord) {
	g := s.Games[gi]
	rec := model.GameRecord{
		RunID:      runID,
		StartedAt:  startedAt,
		EndedAt:    endedAt,
		Key:        s.Parameters.Key.Name(s.Parameters.Accidentals),
		Chords:     len(g.Chords),
		Succeeded:  g.Succeeded,
		Score:      g.Score,
		DurationMs: endedAt.Sub(startedAt).Milliseconds(),
	}
	attempts := make([]model.AttemptRecord, 0, len(g.Played))
	for i, a := range g.Played {
		ar := model.AttemptRecord{
			Position: i,
			Status:   a.Status,
			Score:    a.Score,
		}
		if i < len(g.Chords) {
			ar.Expected = g.Chords[i].Symbol
			ar.ExpectedType = g.Chords[i].Type
		}
		if a.Chord != nil {
			ar.Played = a.Chord.Symbol
		}
		attempts = append(attempts, ar)
	}
	return rec, attempts
}
