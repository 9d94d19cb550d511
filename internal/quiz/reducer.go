// Package quiz implements the chord quiz session state machine.
package quiz

import (
	"errors"
	"time"

	"github.com/verte-zerg/chordquiz/internal/model"
	"github.com/verte-zerg/chordquiz/internal/theory"
)

// ErrNoGame is returned when the parameters cannot produce a game. The session
// is left unchanged and stays playable.
var ErrNoGame = errors.New("no exercises available for these settings")

// Generator produces a new game for the given parameters.
type Generator interface {
	GenerateGame(p model.Parameters) (model.Game, bool)
}

// Event is delivered to Reducer.Apply.
type Event interface {
	isEvent()
}

// ParametersChanged replaces the session settings and starts a new session.
type ParametersChanged struct {
	Parameters model.Parameters
}

// InputChanged reports the notes currently held. An empty PitchClasses means
// every note was released.
type InputChanged struct {
	PitchClasses []theory.PitchClass
	// Chords are the candidate interpretations; a nil entry stands for
	// "no recognised chord".
	Chords []*theory.Chord
}

func (ParametersChanged) isEvent() {}
func (InputChanged) isEvent()      {}

// Reducer applies events to sessions. It holds no session state; callers own
// the session value and replace it with every returned snapshot.
type Reducer struct {
	gen      Generator
	classify Classifier
	now      func() time.Time
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithClassifier overrides the default classifier.
func WithClassifier(c Classifier) Option {
	return func(r *Reducer) { r.classify = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Reducer) { r.now = now }
}

// NewReducer builds a reducer around a game generator.
func NewReducer(gen Generator, opts ...Option) *Reducer {
	r := &Reducer{
		gen:      gen,
		classify: ClassifierFunc(Classify),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply returns the session that results from ev. The input is never modified.
func (r *Reducer) Apply(s model.Session, ev Event) (model.Session, error) {
	switch ev := ev.(type) {
	case ParametersChanged:
		return r.ChangeParameters(s, ev.Parameters)
	case InputChanged:
		return r.ChangeInput(s, ev), nil
	}
	return s, nil
}

// ChangeParameters starts a fresh session for p. When no game can be
// generated it returns s unchanged together with ErrNoGame.
func (r *Reducer) ChangeParameters(s model.Session, p model.Parameters) (model.Session, error) {
	game, ok := r.gen.GenerateGame(p)
	if !ok {
		return s, ErrNoGame
	}
	return model.Session{
		Parameters: p,
		Games:      []model.Game{game},
	}, nil
}

// ChangeInput handles a held-notes or release event.
func (r *Reducer) ChangeInput(s model.Session, in InputChanged) model.Session {
	if _, ok := s.Expected(); !ok {
		return s.Clone()
	}
	if len(in.PitchClasses) == 0 {
		return r.release(s)
	}
	return r.hold(s, in)
}

func (r *Reducer) hold(s model.Session, in InputChanged) model.Session {
	next := s.Clone()
	expected, _ := s.Expected()

	seed := s.State
	if !seed.Timer.Running() {
		seed.Timer = model.RunningSince(r.now())
	}

	best := Best(r.classify, expected, in, seed)
	best.Timer = seed.Timer
	next.State = best
	return next
}

func (r *Reducer) release(s model.Session) model.Session {
	next := s.Clone()
	state := s.State

	if state.Status <= model.StatusNone {
		state.Status = model.StatusNone
		state.Chord = nil
		state.Score = 0
		next.State = state
		return next
	}

	game := next.Games[state.GameIndex]
	if state.Status.Success() {
		game.Succeeded++
	}
	game.Score += state.Score
	game.Played = append(game.Played, model.Attempt{
		Chord:  state.Chord,
		Status: state.Status,
		Score:  state.Score,
	})

	now := r.now()
	if !state.Timer.Running() {
		state.Timer = model.RunningSince(now)
	}
	state.Elapsed = now.Sub(state.Timer.Since)
	game.TimePerChord = averagePerChord(state.Elapsed, state.Index)

	if state.Index+2 >= len(game.Chords) {
		if upcoming, ok := r.gen.GenerateGame(next.Parameters); ok {
			next.Games = append(next.Games, upcoming)
			state.Timer = model.Timer{Phase: model.TimerEnded}
		}
	}
	next.Games[state.GameIndex] = game

	if state.Index+1 == len(game.Chords) {
		state.GameIndex++
		state.Index = 0
	} else {
		state.Index++
	}
	state.Status = model.StatusNone
	state.Chord = nil
	state.Score = 0
	next.State = state
	return next
}

// averagePerChord divides by the attempt index; on the first attempt of a game
// the average is not available yet.
func averagePerChord(elapsed time.Duration, index int) model.AvgTime {
	if index <= 0 {
		return model.AvgTime{}
	}
	return model.AvgTime{Value: elapsed / time.Duration(index), Valid: true}
}
