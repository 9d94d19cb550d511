package generator

import (
	"testing"

	"github.com/verte-zerg/chordquiz/internal/model"
	"github.com/verte-zerg/chordquiz/internal/theory"
)

func TestGenerateGameLengthAndNoRepeats(t *testing.T) {
	g := NewSeeded(1)
	game, ok := g.GenerateGame(model.Parameters{
		Accidentals: theory.Sharp,
		Types:       []string{"maj", "m"},
		Length:      50,
	})
	if !ok {
		t.Fatalf("expected a game")
	}
	if len(game.Chords) != 50 {
		t.Fatalf("expected 50 chords, got %d", len(game.Chords))
	}
	if len(game.Played) != 0 || game.Score != 0 || game.Succeeded != 0 {
		t.Fatalf("expected empty results, got %+v", game)
	}
	for i := 1; i < len(game.Chords); i++ {
		if game.Chords[i].Equal(game.Chords[i-1]) {
			t.Fatalf("chord %d repeats %s", i, game.Chords[i].Symbol)
		}
	}
}

func TestGenerateGameNoneWhenEverythingDisabled(t *testing.T) {
	g := NewSeeded(1)
	if _, ok := g.GenerateGame(model.Parameters{Types: []string{"maj"}, Disabled: []string{"maj"}, Length: 4}); ok {
		t.Fatalf("expected no game when all types are disabled")
	}
	if _, ok := g.GenerateGame(model.Parameters{Length: 0}); ok {
		t.Fatalf("expected no game for zero length")
	}
}

func TestPoolDiatonic(t *testing.T) {
	pool := Pool(model.Parameters{Key: 0, Accidentals: theory.Sharp, Types: []string{"maj7"}, Diatonic: true})
	got := map[string]bool{}
	for _, c := range pool {
		got[c.Symbol] = true
	}
	if len(got) != 2 || !got["Cmaj7"] || !got["Fmaj7"] {
		t.Fatalf("unexpected diatonic pool: %v", got)
	}
}

func TestPoolExplicitSymbols(t *testing.T) {
	pool := Pool(model.Parameters{Accidentals: theory.Flat, Pool: []string{"Ebm7", "nonsense", "Bb7"}})
	if len(pool) != 2 {
		t.Fatalf("expected 2 chords, got %d", len(pool))
	}
	if pool[0].Symbol != "Ebm7" || pool[1].Symbol != "Bb7" {
		t.Fatalf("unexpected pool: %v", pool)
	}
}

func TestGenerateGameWeighted(t *testing.T) {
	g := NewSeeded(7)
	g.SetWeakTypes([]string{"m"}, 9)
	params := model.Parameters{
		Key:      0,
		Types:    []string{"maj", "m"},
		Diatonic: true,
		Length:   400,
	}
	game, ok := g.GenerateGame(params)
	if !ok {
		t.Fatalf("expected a game")
	}
	minor := 0
	for _, c := range game.Chords {
		if c.Type == "m" {
			minor++
		}
	}
	if minor < len(game.Chords)/2 {
		t.Fatalf("expected weak type to dominate, got %d/%d", minor, len(game.Chords))
	}
}

func TestSetWeakTypes(t *testing.T) {
	g := NewSeeded(3)
	g.SetWeakTypes([]string{"m7", "7"}, 2)
	if got := g.WeakTypes(); len(got) != 2 || got[0] != "7" || got[1] != "m7" {
		t.Fatalf("unexpected weak types %v", got)
	}
	g.SetWeakTypes(nil, 2)
	if got := g.WeakTypes(); len(got) != 0 {
		t.Fatalf("expected bias to be cleared, got %v", got)
	}
	g.SetWeakTypes([]string{"m7"}, 0)
	if got := g.WeakTypes(); len(got) != 0 {
		t.Fatalf("zero factor must not bias, got %v", got)
	}
}

func TestGenerateGameSkipsRepeatedListEntries(t *testing.T) {
	g := NewSeeded(11)
	game, ok := g.GenerateGame(model.Parameters{
		Accidentals: theory.Flat,
		Pool:        []string{"Dm7", "Dm7", "Dm7", "G7"},
		Length:      40,
	})
	if !ok {
		t.Fatalf("expected a game")
	}
	for i := 1; i < len(game.Chords); i++ {
		if game.Chords[i].Equal(game.Chords[i-1]) {
			t.Fatalf("chord %d repeats %s", i, game.Chords[i].Symbol)
		}
	}

	game, ok = g.GenerateGame(model.Parameters{Pool: []string{"Dm7", "Dm7"}, Length: 3})
	if !ok || len(game.Chords) != 3 {
		t.Fatalf("a pool of one chord must still fill the game, got %+v", game)
	}
}
