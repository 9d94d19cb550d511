// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"

	"github.com/verte-zerg/chordquiz/internal/theory"
)

// Parameters defines quiz settings. A session is rebuilt whenever they change.
type Parameters struct {
	Key            theory.PitchClass
	Accidentals    theory.Accidentals
	Types          []string // enabled chord-type symbols; empty enables all
	Disabled       []string
	Length         int
	Diatonic       bool
	AllowOmissions bool
	// Pool holds explicit chord symbols to drill; it replaces Types when set.
	Pool []string
}

// Clone returns parameters that share no slice with p.
func (p Parameters) Clone() Parameters {
	out := p
	out.Types = cloneStrings(p.Types)
	out.Disabled = cloneStrings(p.Disabled)
	out.Pool = cloneStrings(p.Pool)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// DisabledSet returns the disabled chord types as a set.
func (p Parameters) DisabledSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Disabled))
	for _, s := range p.Disabled {
		set[s] = struct{}{}
	}
	return set
}

// Status is the match quality of an attempt. Higher values dominate.
// StatusNone means no match has been observed for the current attempt.
type Status int

const (
	StatusNone Status = iota
	StatusWrong
	StatusNearMiss
	StatusEquivalent
	StatusCorrect
)

// Success reports whether the status counts as a completed chord.
func (s Status) Success() bool {
	return s > StatusNearMiss
}

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusWrong:
		return "wrong"
	case StatusNearMiss:
		return "near miss"
	case StatusEquivalent:
		return "equivalent"
	case StatusCorrect:
		return "correct"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// TimerPhase is the phase of the per-game timer.
type TimerPhase int

const (
	TimerNotStarted TimerPhase = iota
	TimerRunning
	TimerEnded
)

// Timer tracks when the active game started.
type Timer struct {
	Phase TimerPhase
	Since time.Time
}

// RunningSince returns a running timer started at t.
func RunningSince(t time.Time) Timer {
	return Timer{Phase: TimerRunning, Since: t}
}

// Running reports whether the timer has a start time.
func (t Timer) Running() bool {
	return t.Phase == TimerRunning
}

// AvgTime is a derived average; Valid is false while it cannot be computed.
type AvgTime struct {
	Value time.Duration
	Valid bool
}

func (a AvgTime) String() string {
	if !a.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.1fs", a.Value.Seconds())
}

// Attempt is one finalized attempt at a target chord.
type Attempt struct {
	Chord  *theory.Chord
	Status Status
	Score  int
}

// Game is one fixed-length sequence of target chords and its results.
type Game struct {
	Chords       []theory.Chord
	Played       []Attempt
	Score        int
	Succeeded    int
	TimePerChord AvgTime
}

// Clone copies the mutable parts of the game. Target chords are shared.
func (g Game) Clone() Game {
	out := g
	out.Played = append([]Attempt(nil), g.Played...)
	return out
}

// GameState is the live cursor into the session.
type GameState struct {
	GameIndex int
	Index     int
	Status    Status
	Chord     *theory.Chord
	Score     int
	Timer     Timer
	Elapsed   time.Duration
}

// Session is the full practice run: settings, games so far and the live cursor.
type Session struct {
	Parameters Parameters
	Games      []Game
	State      GameState
}

// Clone returns a session that shares no mutable state with s.
func (s Session) Clone() Session {
	out := s
	out.Parameters = s.Parameters.Clone()
	if s.Games != nil {
		out.Games = make([]Game, len(s.Games))
		for i, g := range s.Games {
			out.Games[i] = g.Clone()
		}
	}
	return out
}

// CurrentGame returns the active game, if any.
func (s Session) CurrentGame() (Game, bool) {
	if s.State.GameIndex < 0 || s.State.GameIndex >= len(s.Games) {
		return Game{}, false
	}
	return s.Games[s.State.GameIndex], true
}

// Expected returns the chord the learner should play next.
func (s Session) Expected() (theory.Chord, bool) {
	g, ok := s.CurrentGame()
	if !ok || s.State.Index < 0 || s.State.Index >= len(g.Chords) {
		return theory.Chord{}, false
	}
	return g.Chords[s.State.Index], true
}

// Config holds practice settings resolved from flags and the config file.
type Config struct {
	Parameters Parameters
	ListPath   string
	FocusWeak  bool
	WeakTop    int
	WeakFactor float64
	WeakWindow int
	Octave     int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
}

// GameRecord captures a completed game for persistence.
type GameRecord struct {
	RunID      string
	StartedAt  time.Time
	EndedAt    time.Time
	Key        string
	Chords     int
	Succeeded  int
	Score      int
	DurationMs int64
}

// AttemptRecord stores one attempt of a completed game.
type AttemptRecord struct {
	Position     int
	Expected     string
	ExpectedType string
	Played       string
	Status       Status
	Score        int
}

// Aggregated per-type stats for selection or reporting.

// TypeAggregate aggregates attempts per chord type across games.
type TypeAggregate struct {
	Type     string
	Correct  int
	Missed   int
	ScoreSum int64
}

// GameAggregate summarizes a game for reporting.
type GameAggregate struct {
	GameID     int64
	EndedAt    time.Time
	Chords     int
	Succeeded  int
	Score      int
	DurationMs int64
}
