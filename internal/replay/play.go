package replay

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/chordquiz/internal/input"
	"github.com/verte-zerg/chordquiz/internal/model"
	"github.com/verte-zerg/chordquiz/internal/quiz"
)

// Options controls a replay run.
type Options struct {
	// RunID tags stored games; a random id is used when empty.
	RunID string
	// Start anchors the file clock to wall time; now when zero.
	Start time.Time
}

// CompletedGame is a finished game ready to be stored.
type CompletedGame struct {
	Record   model.GameRecord
	Attempts []model.AttemptRecord
}

// Result is the outcome of a replay.
type Result struct {
	RunID   string
	Session model.Session
	Games   []CompletedGame
	Frames  int
}

// Play feeds frames through a fresh session built from p. The reducer reads
// time from the frame timestamps, so results do not depend on playback speed.
func Play(ctx context.Context, gen quiz.Generator, p model.Parameters, frames []Frame, opts Options) (Result, error) {
	start := opts.Start
	if start.IsZero() {
		start = time.Now()
	}
	res := Result{RunID: opts.RunID}
	if res.RunID == "" {
		res.RunID = uuid.New().String()
	}

	var offset time.Duration
	now := func() time.Time { return start.Add(offset) }
	r := quiz.NewReducer(gen, quiz.WithClock(now))

	s, err := r.ChangeParameters(model.Session{}, p)
	if err != nil {
		return res, err
	}
	detect := input.DetectOptions(p)
	started := map[int]time.Time{}

	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			res.Session = s
			return res, err
		}
		offset = f.At
		gi := s.State.GameIndex
		if _, ok := started[gi]; !ok && len(f.Notes) > 0 {
			started[gi] = now()
		}
		s = r.ChangeInput(s, input.Changed(f.Notes, detect))
		res.Frames++
		if s.State.GameIndex != gi && quiz.Completed(s, gi) {
			rec, attempts := quiz.BuildRecord(s, gi, res.RunID, started[gi], now())
			res.Games = append(res.Games, CompletedGame{Record: rec, Attempts: attempts})
		}
	}
	res.Session = s
	return res, nil
}
