package quiz

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/chordquiz/internal/model"
	"github.com/verte-zerg/chordquiz/internal/theory"
)

type stubGenerator struct {
	symbols []string
	calls   int
}

func (g *stubGenerator) GenerateGame(p model.Parameters) (model.Game, bool) {
	g.calls++
	if p.Length <= 0 {
		return model.Game{}, false
	}
	chords := make([]theory.Chord, 0, len(g.symbols))
	for _, sym := range g.symbols {
		c, err := theory.ParseChord(sym, theory.Sharp)
		if err != nil {
			panic(err)
		}
		chords = append(chords, c)
	}
	return model.Game{Chords: chords}, true
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestReducer(t *testing.T, symbols ...string) (*Reducer, *fakeClock, model.Session) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	r := NewReducer(&stubGenerator{symbols: symbols}, WithClock(clock.now))
	s, err := r.ChangeParameters(model.Session{}, model.Parameters{Length: len(symbols)})
	if err != nil {
		t.Fatalf("change parameters: %v", err)
	}
	return r, clock, s
}

func held(t *testing.T, names ...string) InputChanged {
	t.Helper()
	pcs := make([]theory.PitchClass, 0, len(names))
	for _, n := range names {
		pc, err := theory.ParsePitchClass(n)
		if err != nil {
			t.Fatalf("parse %q: %v", n, err)
		}
		pcs = append(pcs, pc)
	}
	in := InputChanged{PitchClasses: pcs}
	for _, c := range theory.Detect(pcs, theory.DetectOptions{Accidentals: theory.Sharp}) {
		c := c
		in.Chords = append(in.Chords, &c)
	}
	if len(in.Chords) == 0 {
		in.Chords = []*theory.Chord{nil}
	}
	return in
}

var released = InputChanged{}

func TestScenarioTwoChordGame(t *testing.T) {
	r, _, s := newTestReducer(t, "Cmaj", "Gmaj")

	s = r.ChangeInput(s, held(t, "C", "E", "G"))
	if s.State.Status != model.StatusCorrect {
		t.Fatalf("expected correct, got %v", s.State.Status)
	}
	if s.State.Chord == nil || s.State.Chord.Symbol != "Cmaj" {
		t.Fatalf("expected Cmaj, got %v", s.State.Chord)
	}

	s = r.ChangeInput(s, released)
	if s.Games[0].Succeeded != 1 {
		t.Fatalf("expected 1 success, got %d", s.Games[0].Succeeded)
	}
	if s.Games[0].Score <= 0 {
		t.Fatalf("expected positive score, got %d", s.Games[0].Score)
	}
	if s.State.GameIndex != 0 || s.State.Index != 1 {
		t.Fatalf("expected cursor 0/1, got %d/%d", s.State.GameIndex, s.State.Index)
	}

	s = r.ChangeInput(s, held(t, "D", "F", "A"))
	if s.State.Status != model.StatusWrong {
		t.Fatalf("expected wrong, got %v", s.State.Status)
	}
	if s.State.Chord == nil || s.State.Chord.Symbol != "Dm" {
		t.Fatalf("expected Dm as best candidate, got %v", s.State.Chord)
	}

	gamesBefore := len(s.Games)
	s = r.ChangeInput(s, released)
	if len(s.Games) != gamesBefore+1 {
		t.Fatalf("expected a new game to be appended, got %d games", len(s.Games))
	}
	if s.State.GameIndex != 1 || s.State.Index != 0 {
		t.Fatalf("expected cursor 1/0, got %d/%d", s.State.GameIndex, s.State.Index)
	}
	if got := len(s.Games[0].Played); got != 2 {
		t.Fatalf("expected 2 played attempts, got %d", got)
	}
	if s.Games[0].Succeeded != 1 {
		t.Fatalf("wrong attempt must not count as success")
	}
}

func TestUngenerableParametersAreNoOp(t *testing.T) {
	r, _, s := newTestReducer(t, "Cmaj", "Gmaj", "Fmaj")
	s = r.ChangeInput(s, held(t, "C", "E", "G"))
	before := s.Clone()

	got, err := r.ChangeParameters(s, model.Parameters{Length: 0})
	if !errors.Is(err, ErrNoGame) {
		t.Fatalf("expected ErrNoGame, got %v", err)
	}
	if !reflect.DeepEqual(got, before) {
		t.Fatalf("session changed on ungenerable parameters")
	}

	got, err = r.Apply(s, ParametersChanged{Parameters: model.Parameters{Length: -1}})
	if !errors.Is(err, ErrNoGame) || !reflect.DeepEqual(got, before) {
		t.Fatalf("Apply must behave like ChangeParameters")
	}
}

func TestParametersChangedResetsState(t *testing.T) {
	r, _, s := newTestReducer(t, "Cmaj", "Gmaj", "Fmaj")
	s = r.ChangeInput(s, held(t, "C", "E", "G"))
	s = r.ChangeInput(s, released)

	s, err := r.ChangeParameters(s, model.Parameters{Length: 3, Diatonic: true})
	if err != nil {
		t.Fatalf("change parameters: %v", err)
	}
	if len(s.Games) != 1 || len(s.Games[0].Played) != 0 {
		t.Fatalf("expected one fresh game, got %+v", s.Games)
	}
	if !reflect.DeepEqual(s.State, model.GameState{}) {
		t.Fatalf("expected initial state, got %+v", s.State)
	}
	if !s.Parameters.Diatonic {
		t.Fatalf("expected new parameters to be stored")
	}
}

func TestBestOfLaterCandidateWinsTies(t *testing.T) {
	results := map[string]model.GameState{
		"Cmaj": {Status: model.StatusNearMiss, Score: 10},
		"Am":   {Status: model.StatusCorrect, Score: 50},
		"Em":   {Status: model.StatusCorrect, Score: 50},
		"G7":   {Status: model.StatusCorrect, Score: 40},
	}
	classifier := ClassifierFunc(func(_ theory.Chord, candidate *theory.Chord, _ []theory.PitchClass, state model.GameState) model.GameState {
		res := results[candidate.Symbol]
		state.Status = res.Status
		state.Score = res.Score
		state.Chord = candidate
		return state
	})
	r := NewReducer(&stubGenerator{symbols: []string{"Cmaj", "Gmaj"}}, WithClassifier(classifier))
	s, err := r.ChangeParameters(model.Session{}, model.Parameters{Length: 2})
	if err != nil {
		t.Fatalf("change parameters: %v", err)
	}

	var in InputChanged
	for _, sym := range []string{"Cmaj", "Am", "Em", "G7"} {
		c, err := theory.ParseChord(sym, theory.Sharp)
		if err != nil {
			t.Fatalf("parse %q: %v", sym, err)
		}
		in.Chords = append(in.Chords, &c)
	}
	in.PitchClasses = []theory.PitchClass{0}

	for i := 0; i < 3; i++ {
		got := r.ChangeInput(s, in)
		if got.State.Chord == nil || got.State.Chord.Symbol != "Em" {
			t.Fatalf("expected Em to win, got %v", got.State.Chord)
		}
		if got.State.Score != 50 || got.State.Status != model.StatusCorrect {
			t.Fatalf("unexpected winner state %+v", got.State)
		}
	}
}

func TestBestOfKeepsEarlierBetterMatch(t *testing.T) {
	r, _, s := newTestReducer(t, "Cmaj", "Gmaj")
	s = r.ChangeInput(s, held(t, "C", "E", "G"))
	s = r.ChangeInput(s, held(t, "C", "E", "G", "B"))
	if s.State.Status != model.StatusCorrect || s.State.Chord.Symbol != "Cmaj" {
		t.Fatalf("expected earlier correct match to stick, got %v %v", s.State.Status, s.State.Chord)
	}
}

func TestNilCandidateIsReplacedByConcreteMatch(t *testing.T) {
	r, _, s := newTestReducer(t, "Cmaj", "Gmaj")
	cmaj, _ := theory.ParseChord("Cmaj", theory.Sharp)
	in := InputChanged{
		PitchClasses: []theory.PitchClass{0, 4, 7},
		Chords:       []*theory.Chord{nil, &cmaj},
	}
	s = r.ChangeInput(s, in)
	if s.State.Chord == nil || s.State.Status != model.StatusCorrect {
		t.Fatalf("expected concrete match to win, got %+v", s.State)
	}
}

func TestAdvancementOnSecondToLastIndex(t *testing.T) {
	r, _, s := newTestReducer(t, "Cmaj", "Dm", "Em", "Fmaj")
	chords := [][]string{{"C", "E", "G"}, {"D", "F", "A"}, {"E", "G", "B"}, {"F", "A", "C"}}
	wantGames := []int{1, 1, 2, 3}
	for i, notes := range chords {
		s = r.ChangeInput(s, held(t, notes...))
		s = r.ChangeInput(s, released)
		if len(s.Games) != wantGames[i] {
			t.Fatalf("after index %d expected %d games, got %d", i, wantGames[i], len(s.Games))
		}
	}
	if s.State.GameIndex != 1 || s.State.Index != 0 {
		t.Fatalf("expected wraparound to 1/0, got %d/%d", s.State.GameIndex, s.State.Index)
	}
	if s.Games[0].Succeeded != 4 || s.Games[0].Score != 4*ScoreCorrect {
		t.Fatalf("unexpected game totals %+v", s.Games[0])
	}
}

func TestSpuriousReleaseResetsWithoutRecording(t *testing.T) {
	r, _, s := newTestReducer(t, "Cmaj", "Gmaj")
	gen := r.gen.(*stubGenerator)
	calls := gen.calls

	s = r.ChangeInput(s, released)
	if len(s.Games[0].Played) != 0 || s.Games[0].Score != 0 {
		t.Fatalf("spurious release must not record an attempt")
	}
	if s.State.Index != 0 || s.State.Status != model.StatusNone || s.State.Chord != nil {
		t.Fatalf("expected neutral state, got %+v", s.State)
	}
	if gen.calls != calls || len(s.Games) != 1 {
		t.Fatalf("spurious release must not generate games")
	}
}

func TestTimingAndAverage(t *testing.T) {
	r, clock, s := newTestReducer(t, "Cmaj", "Dm", "Em", "Fmaj", "Gmaj")
	start := clock.t

	s = r.ChangeInput(s, held(t, "C", "E", "G"))
	if !s.State.Timer.Running() || !s.State.Timer.Since.Equal(start) {
		t.Fatalf("expected timer to start at first hold, got %+v", s.State.Timer)
	}
	clock.advance(2 * time.Second)
	s = r.ChangeInput(s, released)
	if s.State.Elapsed != 2*time.Second {
		t.Fatalf("expected 2s elapsed, got %v", s.State.Elapsed)
	}
	if s.Games[0].TimePerChord.Valid {
		t.Fatalf("average must be unavailable on the first attempt")
	}
	if s.Games[0].TimePerChord.String() != "n/a" {
		t.Fatalf("unexpected average rendering %q", s.Games[0].TimePerChord.String())
	}

	clock.advance(2 * time.Second)
	s = r.ChangeInput(s, held(t, "D", "F", "A"))
	if !s.State.Timer.Since.Equal(start) {
		t.Fatalf("running timer must not be restamped")
	}
	s = r.ChangeInput(s, released)
	avg := s.Games[0].TimePerChord
	if !avg.Valid || avg.Value != 4*time.Second {
		t.Fatalf("expected 4s average, got %+v", avg)
	}
}

func TestTimerEndsWhenNextGameIsQueued(t *testing.T) {
	r, clock, s := newTestReducer(t, "Cmaj", "Gmaj")
	s = r.ChangeInput(s, held(t, "C", "E", "G"))
	s = r.ChangeInput(s, released)
	if s.State.Timer.Phase != model.TimerEnded {
		t.Fatalf("expected ended timer, got %+v", s.State.Timer)
	}
	clock.advance(5 * time.Second)
	s = r.ChangeInput(s, held(t, "G", "B", "D"))
	if !s.State.Timer.Running() || !s.State.Timer.Since.Equal(clock.t) {
		t.Fatalf("expected fresh start time, got %+v", s.State.Timer)
	}
}

func TestReleaseWithoutTimerStampsNow(t *testing.T) {
	r, _, s := newTestReducer(t, "Cmaj", "Gmaj", "Fmaj")
	s.State.Status = model.StatusWrong
	s = r.ChangeInput(s, released)
	if !s.State.Timer.Running() || s.State.Elapsed != 0 {
		t.Fatalf("expected timer stamped at release, got %+v", s.State)
	}
	if len(s.Games[0].Played) != 1 || s.Games[0].Played[0].Chord != nil {
		t.Fatalf("expected an attempt with no chord, got %+v", s.Games[0].Played)
	}
}

func TestTransitionsDoNotAliasInput(t *testing.T) {
	r, _, s := newTestReducer(t, "Cmaj", "Gmaj", "Fmaj")
	s1 := r.ChangeInput(s, held(t, "C", "E", "G"))
	s2 := r.ChangeInput(s1, released)
	if len(s1.Games[0].Played) != 0 || s1.Games[0].Score != 0 {
		t.Fatalf("release mutated its input session")
	}
	s2.Games[0].Played[0].Score = 999
	s3 := r.ChangeInput(s2, held(t, "G", "B", "D"))
	s3.Games[0].Played[0].Score = 1
	if s2.Games[0].Played[0].Score != 999 {
		t.Fatalf("hold shares played history with its input")
	}
}

func TestGameScoreIsMonotonic(t *testing.T) {
	r, _, s := newTestReducer(t, "Cmaj", "Dm", "Em", "Fmaj", "Gmaj", "Am")
	rnd := rand.New(rand.NewSource(3))
	names := []string{"C", "D", "E", "F", "G", "A", "B", "C#", "F#"}
	last := map[int]int{}
	for i := 0; i < 300; i++ {
		if rnd.Intn(3) == 0 {
			s = r.ChangeInput(s, released)
		} else {
			n := 1 + rnd.Intn(4)
			notes := make([]string, 0, n)
			for j := 0; j < n; j++ {
				notes = append(notes, names[rnd.Intn(len(names))])
			}
			s = r.ChangeInput(s, held(t, notes...))
		}
		for gi, g := range s.Games {
			if g.Score < last[gi] {
				t.Fatalf("game %d score decreased from %d to %d", gi, last[gi], g.Score)
			}
			last[gi] = g.Score
			if len(g.Played) > len(g.Chords) || g.Succeeded > len(g.Played) {
				t.Fatalf("game %d invariants broken: %+v", gi, g)
			}
		}
	}
}

func TestBuildRecord(t *testing.T) {
	r, clock, s := newTestReducer(t, "Cmaj", "Gmaj")
	started := clock.t
	s = r.ChangeInput(s, held(t, "C", "E", "G"))
	s = r.ChangeInput(s, released)
	if Completed(s, 0) {
		t.Fatalf("game must not be complete after one attempt")
	}
	s = r.ChangeInput(s, held(t, "D", "F", "A"))
	s = r.ChangeInput(s, released)
	if !Completed(s, 0) || Completed(s, 1) {
		t.Fatalf("expected only the first game complete")
	}

	rec, attempts := BuildRecord(s, 0, "run", started, started.Add(3*time.Second))
	if rec.Chords != 2 || rec.Succeeded != 1 || rec.DurationMs != 3000 || rec.Key != "C" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if attempts[1].Expected != "Gmaj" || attempts[1].ExpectedType != "maj" || attempts[1].Played != "Dm" {
		t.Fatalf("unexpected attempt %+v", attempts[1])
	}
	if attempts[1].Status != model.StatusWrong {
		t.Fatalf("expected wrong status, got %v", attempts[1].Status)
	}
}
