package stats

import (
	"sort"

	"github.com/verte-zerg/chordquiz/internal/model"
)

// TopTypesByFrequency returns the n most practised chord types.
func TopTypesByFrequency(aggs []model.TypeAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := make([]model.TypeAggregate, len(aggs))
	copy(items, aggs)
	total := func(a model.TypeAggregate) int { return a.Correct + a.Missed }
	sort.Slice(items, func(i, j int) bool {
		if total(items[i]) == total(items[j]) {
			return items[i].Type < items[j].Type
		}
		return total(items[i]) > total(items[j])
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for _, it := range items[:n] {
		out = append(out, it.Type)
	}
	return out
}
