package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/chordquiz/internal/model"
)

func TestGameMetrics(t *testing.T) {
	acc, cpm, avg := GameMetrics(model.GameAggregate{Chords: 8, Succeeded: 6, Score: 640, DurationMs: 30000})
	if acc != 0.75 || cpm != 16 || avg != 80 {
		t.Fatalf("unexpected metrics %v %v %v", acc, cpm, avg)
	}
	acc, cpm, avg = GameMetrics(model.GameAggregate{})
	if acc != 0 || cpm != 0 || avg != 0 {
		t.Fatalf("expected zero metrics for empty game")
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	same := MovingAverage([]float64{1, 5}, 1)
	if same[0] != 1 || same[1] != 5 {
		t.Fatalf("window 1 must copy, got %v", same)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 5, 10}); got != " +@" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3}); got != "++" {
		t.Fatalf("expected flat sparkline, got %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline")
	}
}

func TestChart(t *testing.T) {
	var buf bytes.Buffer
	if err := Chart(&buf, Series{Name: "Accuracy %", Values: []float64{10, 50, 90}}, 40, 3); err != nil {
		t.Fatalf("chart: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected title and 3 rows, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "Accuracy %") {
		t.Fatalf("unexpected title %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "█") {
		t.Fatalf("expected the maximum to reach the top row: %q", lines[1])
	}
	if !strings.Contains(lines[3], "▁") {
		t.Fatalf("expected the minimum on the bottom row: %q", lines[3])
	}
}

func TestChartWidthFor(t *testing.T) {
	if got := ChartWidthFor(80); got != 80-axisWidth {
		t.Fatalf("expected %d, got %d", 80-axisWidth, got)
	}
	if got := ChartWidthFor(0); got != minChartWidth {
		t.Fatalf("expected min width, got %d", got)
	}
}

func TestResampleAverages(t *testing.T) {
	got := resample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected resample %v", got)
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(buf.String(), "No games found.") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestTypeCurves(t *testing.T) {
	games := []model.GameAggregate{{GameID: 1}, {GameID: 2}, {GameID: 3}, {GameID: 4}}
	perGame := map[int64]map[string]model.TypeAggregate{
		2: {"m7": {Type: "m7", Correct: 1, Missed: 1}},
		3: {"7": {Type: "7", Correct: 1}},
		4: {"m7": {Type: "m7", Correct: 2}},
	}
	got := TypeAccuracySeries(games, perGame, "m7")
	want := []float64{50, 50, 100}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if got := TypeAccuracySeries(games, perGame, "dim7"); len(got) != 0 {
		t.Fatalf("expected no series for an unplayed type, got %v", got)
	}

	var buf bytes.Buffer
	if err := RenderTypeCurvesWithSize(&buf, games, perGame, []string{"m7", "dim7"}, 1, 40, 3); err != nil {
		t.Fatalf("type curves: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Per-Type Curves") || !strings.Contains(out, "m7 accuracy %") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "dim7") {
		t.Fatalf("types without attempts must not be charted:\n%s", out)
	}
}
