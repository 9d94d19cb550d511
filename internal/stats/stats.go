// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/chordquiz/internal/model"
)

const sparkChars = " .:-=+*#%@"

// GameMetrics computes accuracy, chords per minute and the mean attempt score.
func GameMetrics(g model.GameAggregate) (accuracy, cpm, avgScore float64) {
	if g.Chords > 0 {
		accuracy = float64(g.Succeeded) / float64(g.Chords)
		avgScore = float64(g.Score) / float64(g.Chords)
	}
	if g.DurationMs > 0 {
		minutes := float64(g.DurationMs) / 60000.0
		cpm = float64(g.Chords) / minutes
	}
	return accuracy, cpm, avgScore
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[clamp(idx, 0, len(sparkChars)-1)])
	}
	return b.String()
}

// RenderSummary prints a summary for games.
func RenderSummary(w io.Writer, games []model.GameAggregate) error {
	if len(games) == 0 {
		_, err := fmt.Fprintln(w, "No games found.")
		return err
	}
	var totalAcc, totalCPM, totalScore float64
	best := 0
	chords := 0
	for _, g := range games {
		acc, cpm, _ := GameMetrics(g)
		totalAcc += acc
		totalCPM += cpm
		totalScore += float64(g.Score)
		chords += g.Chords
		if g.Score > best {
			best = g.Score
		}
	}
	count := float64(len(games))
	lines := []string{
		"Summary",
		fmt.Sprintf("Games: %d", len(games)),
		fmt.Sprintf("Chords: %d", chords),
		fmt.Sprintf("Avg Accuracy: %.2f%%", totalAcc/count*100),
		fmt.Sprintf("Avg Chords/min: %.2f", totalCPM/count),
		fmt.Sprintf("Avg Score: %.1f", totalScore/count),
		fmt.Sprintf("Best Score: %d", best),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints learning curves for accuracy and speed.
func RenderCurves(w io.Writer, games []model.GameAggregate, window int) error {
	return RenderCurvesWithSize(w, games, window, 0, defaultChartHeight)
}

// RenderCurvesWithSize prints learning curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, games []model.GameAggregate, window, totalWidth, height int) error {
	if len(games) == 0 {
		return nil
	}
	accs := make([]float64, len(games))
	cpms := make([]float64, len(games))
	for i, g := range games {
		acc, cpm, _ := GameMetrics(g)
		accs[i] = acc * 100
		cpms[i] = cpm
	}
	if _, err := fmt.Fprintln(w, "Learning Curves"); err != nil {
		return err
	}
	for _, s := range []Series{
		{Name: "Accuracy %", Values: MovingAverage(accs, window)},
		{Name: "Chords/min", Values: MovingAverage(cpms, window)},
	} {
		if err := Chart(w, s, totalWidth, height); err != nil {
			return err
		}
	}
	return nil
}

// RenderTypeCurves prints per-type learning curves.
func RenderTypeCurves(w io.Writer, games []model.GameAggregate, perGame map[int64]map[string]model.TypeAggregate, types []string, window int) error {
	return RenderTypeCurvesWithSize(w, games, perGame, types, window, 0, defaultChartHeight)
}

// RenderTypeCurvesWithSize charts accuracy per chord type across games. Games
// that never asked for a type carry the previous value forward.
func RenderTypeCurvesWithSize(w io.Writer, games []model.GameAggregate, perGame map[int64]map[string]model.TypeAggregate, types []string, window, totalWidth, height int) error {
	if len(types) == 0 || len(games) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Type Curves"); err != nil {
		return err
	}
	for _, typ := range types {
		accs := TypeAccuracySeries(games, perGame, typ)
		if len(accs) == 0 {
			continue
		}
		if err := Chart(w, Series{Name: typ + " accuracy %", Values: MovingAverage(accs, window)}, totalWidth, height); err != nil {
			return err
		}
	}
	return nil
}

// TypeAccuracySeries returns one accuracy percentage per game for typ,
// starting at the first game that asked for it.
func TypeAccuracySeries(games []model.GameAggregate, perGame map[int64]map[string]model.TypeAggregate, typ string) []float64 {
	var out []float64
	for _, g := range games {
		agg, ok := perGame[g.GameID][typ]
		if !ok {
			if len(out) > 0 {
				out = append(out, out[len(out)-1])
			}
			continue
		}
		out = append(out, accuracy(agg)*100)
	}
	return out
}

// TypeMetrics returns the accuracy (0-1) and average attempt score of a chord
// type. A type with no attempts counts as fully accurate.
func TypeMetrics(agg model.TypeAggregate) (acc, avgScore float64) {
	acc = accuracy(agg)
	if total := agg.Correct + agg.Missed; total > 0 {
		avgScore = float64(agg.ScoreSum) / float64(total)
	}
	return acc, avgScore
}

type typeRow struct {
	typ      string
	acc      float64
	avgScore float64
	correct  int
	missed   int
}

func typeRows(aggs []model.TypeAggregate) []typeRow {
	rows := make([]typeRow, 0, len(aggs))
	for _, agg := range aggs {
		r := typeRow{typ: agg.Type, correct: agg.Correct, missed: agg.Missed}
		r.acc, r.avgScore = TypeMetrics(agg)
		if r.typ == "" {
			r.typ = "maj"
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].acc == rows[j].acc {
			return rows[i].typ < rows[j].typ
		}
		return rows[i].acc < rows[j].acc
	})
	return rows
}

var typeColumns = []Column{
	{Header: "Type"},
	{Header: "Accuracy", Right: true},
	{Header: "Avg Score", Right: true},
	{Header: "Correct", Right: true},
	{Header: "Missed", Right: true},
}

// TypeTable formats per-type aggregates, weakest first.
func TypeTable(aggs []model.TypeAggregate) []string {
	rows := typeRows(aggs)
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.typ,
			fmt.Sprintf("%.2f%%", r.acc*100),
			fmt.Sprintf("%.1f", r.avgScore),
			fmt.Sprintf("%d", r.correct),
			fmt.Sprintf("%d", r.missed),
		})
	}
	return FormatTable(typeColumns, tableRows)
}

// RenderTypeTable prints per-type aggregates.
func RenderTypeTable(w io.Writer, aggs []model.TypeAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No chord type stats found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Per-Type (Windowed)"); err != nil {
		return err
	}
	for _, line := range TypeTable(aggs) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func minMax(values []float64) (float64, float64) {
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
