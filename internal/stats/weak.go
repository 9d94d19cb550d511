package stats

import (
	"sort"

	"github.com/verte-zerg/chordquiz/internal/model"
)

// SelectWeakTypes returns the lowest-accuracy chord types from aggregates.
func SelectWeakTypes(aggs []model.TypeAggregate, top int) []string {
	if len(aggs) == 0 {
		return nil
	}
	candidates := make([]model.TypeAggregate, len(aggs))
	copy(candidates, aggs)
	sort.Slice(candidates, func(i, j int) bool {
		ai := accuracy(candidates[i])
		aj := accuracy(candidates[j])
		if ai == aj {
			return candidates[i].Type < candidates[j].Type
		}
		return ai < aj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	out := make([]string, 0, top)
	for _, c := range candidates[:top] {
		if accuracy(c) >= 1 {
			break
		}
		out = append(out, c.Type)
	}
	return out
}

func accuracy(agg model.TypeAggregate) float64 {
	total := agg.Correct + agg.Missed
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}
