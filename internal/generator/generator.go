// Package generator builds practice games of target chords.
package generator

import (
	"math/rand"
	"sort"
	"time"

	"github.com/verte-zerg/chordquiz/internal/model"
	"github.com/verte-zerg/chordquiz/internal/theory"
)

// Generator produces randomized games. Chord types passed to SetWeakTypes
// are drawn more often; that bias is not part of model.Parameters.
type Generator struct {
	rnd    *rand.Rand
	weak   map[string]struct{}
	factor float64
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// SetWeakTypes gives each chord of the listed types weight 1+factor in games
// generated afterwards. An empty list removes the bias.
func (g *Generator) SetWeakTypes(types []string, factor float64) {
	if len(types) == 0 || factor <= 0 {
		g.weak, g.factor = nil, 0
		return
	}
	g.weak = make(map[string]struct{}, len(types))
	for _, t := range types {
		g.weak[t] = struct{}{}
	}
	g.factor = factor
}

// WeakTypes returns the boosted chord types in sorted order.
func (g *Generator) WeakTypes() []string {
	out := make([]string, 0, len(g.weak))
	for t := range g.weak {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// GenerateGame picks p.Length target chords. It returns false when the
// parameters admit no chord at all.
func (g *Generator) GenerateGame(p model.Parameters) (model.Game, bool) {
	if p.Length <= 0 {
		return model.Game{}, false
	}
	pool := Pool(p)
	if len(pool) == 0 {
		return model.Game{}, false
	}

	weights := make([]float64, len(pool))
	for i, c := range pool {
		w := 1.0
		if _, ok := g.weak[c.Type]; ok {
			w += g.factor
		}
		weights[i] = w
	}

	chords := make([]theory.Chord, 0, p.Length)
	for i := 0; i < p.Length; i++ {
		var prev *theory.Chord
		if i > 0 {
			prev = &chords[i-1]
		}
		chords = append(chords, pool[g.pick(pool, weights, prev)])
	}
	return model.Game{Chords: chords}, true
}

// pick draws an index by weight, skipping chords equal to prev unless the
// pool holds nothing else.
func (g *Generator) pick(pool []theory.Chord, weights []float64, prev *theory.Chord) int {
	allowed := func(i int) bool { return prev == nil || !pool[i].Equal(*prev) }
	total := 0.0
	for i, w := range weights {
		if allowed(i) {
			total += w
		}
	}
	if total == 0 {
		allowed = func(int) bool { return true }
		for _, w := range weights {
			total += w
		}
	}
	r := g.rnd.Float64() * total
	acc := 0.0
	last := 0
	for i, w := range weights {
		if !allowed(i) {
			continue
		}
		acc += w
		last = i
		if r < acc {
			return i
		}
	}
	return last
}

// Pool lists every chord the parameters allow, in a stable order.
func Pool(p model.Parameters) []theory.Chord {
	disabled := p.DisabledSet()
	if len(p.Pool) > 0 {
		out := make([]theory.Chord, 0, len(p.Pool))
		for _, sym := range p.Pool {
			c, err := theory.ParseChord(sym, p.Accidentals)
			if err != nil {
				continue
			}
			if _, off := disabled[c.Type]; off {
				continue
			}
			out = append(out, c)
		}
		return out
	}

	types := enabledTypes(p, disabled)
	if len(types) == 0 {
		return nil
	}
	tonics := make([]theory.PitchClass, 0, 12)
	if p.Diatonic {
		tonics = theory.MajorScale(p.Key)
	} else {
		for i := 0; i < 12; i++ {
			tonics = append(tonics, p.Key.Transpose(i))
		}
	}

	scale := theory.SetOf(theory.MajorScale(p.Key))
	out := make([]theory.Chord, 0, len(tonics)*len(types))
	for _, tonic := range tonics {
		for _, t := range types {
			c := theory.NewChord(tonic, t, p.Accidentals)
			if p.Diatonic && c.Set()&^scale != 0 {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

func enabledTypes(p model.Parameters, disabled map[string]struct{}) []theory.ChordType {
	var types []theory.ChordType
	if len(p.Types) == 0 {
		types = theory.Types()
	} else {
		for _, sym := range p.Types {
			if t, ok := theory.TypeBySymbol(sym); ok {
				types = append(types, t)
			}
		}
	}
	out := types[:0]
	for _, t := range types {
		if _, off := disabled[t.Symbol]; off {
			continue
		}
		out = append(out, t)
	}
	return out
}
