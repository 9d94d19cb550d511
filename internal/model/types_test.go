package model

import (
	"testing"

	"github.com/verte-zerg/chordquiz/internal/theory"
)

func TestSessionCloneCopiesParameters(t *testing.T) {
	s := Session{
		Parameters: Parameters{
			Types:    []string{"maj7", "m7"},
			Disabled: []string{"dim"},
			Pool:     []string{"Cmaj7", "Dm7"},
			Length:   2,
		},
		Games: []Game{{Chords: []theory.Chord{{Symbol: "Cmaj7"}}}},
	}
	c := s.Clone()
	c.Parameters.Types[0] = "7"
	c.Parameters.Disabled[0] = "aug"
	c.Parameters.Pool[1] = "G7"
	c.Games[0].Played = append(c.Games[0].Played, Attempt{Status: StatusCorrect})

	if s.Parameters.Types[0] != "maj7" || s.Parameters.Disabled[0] != "dim" || s.Parameters.Pool[1] != "Dm7" {
		t.Fatalf("clone must not share parameter slices, got %+v", s.Parameters)
	}
	if len(s.Games[0].Played) != 0 {
		t.Fatalf("clone must not share played history")
	}
}

func TestParametersCloneKeepsNil(t *testing.T) {
	c := Parameters{Length: 4}.Clone()
	if c.Types != nil || c.Disabled != nil || c.Pool != nil || c.Length != 4 {
		t.Fatalf("unexpected clone %+v", c)
	}
}

func TestStatusOrder(t *testing.T) {
	order := []Status{StatusNone, StatusWrong, StatusNearMiss, StatusEquivalent, StatusCorrect}
	for i, s := range order {
		if int(s) != i {
			t.Fatalf("%v must be %d, got %d", s, i, int(s))
		}
	}
	for _, s := range order {
		if got, want := s.Success(), s > StatusNearMiss; got != want {
			t.Fatalf("%v success = %v", s, got)
		}
	}
}
