package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// Series is a named data series for charting.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultChartHeight = 6
	minChartWidth      = 10
	axisWidth          = 10
	fallbackWidth      = 80
)

var blocks = []rune("▁▂▃▄▅▆▇█")

// ChartWidthFor computes how many columns of a total width are left for bars.
func ChartWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minChartWidth
	}
	if w := totalWidth - axisWidth; w > minChartWidth {
		return w
	}
	return minChartWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

// Chart renders s as a column chart, height rows tall, fitted to totalWidth.
// A zero width uses the terminal width.
func Chart(w io.Writer, s Series, totalWidth, height int) error {
	if len(s.Values) == 0 {
		return nil
	}
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	if height <= 0 {
		height = defaultChartHeight
	}
	values := resample(s.Values, ChartWidthFor(totalWidth))
	lo, hi := minMax(values)
	if hi-lo < 1e-9 {
		lo, hi = lo-1, hi+1
	}

	// Each row holds len(blocks) levels.
	levels := height * len(blocks)
	heights := make([]int, len(values))
	for i, v := range values {
		heights[i] = clamp(int(math.Round((v-lo)/(hi-lo)*float64(levels-1)))+1, 1, levels)
	}

	if _, err := fmt.Fprintf(w, "%s  min=%.2f max=%.2f\n", s.Name, lo, hi); err != nil {
		return err
	}
	for row := height - 1; row >= 0; row-- {
		label := ""
		switch row {
		case height - 1:
			label = fmt.Sprintf("%.1f", hi)
		case 0:
			label = fmt.Sprintf("%.1f", lo)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%*s │", axisWidth-2, label)
		base := row * len(blocks)
		for _, h := range heights {
			switch fill := h - base; {
			case fill <= 0:
				b.WriteRune(' ')
			case fill >= len(blocks):
				b.WriteRune(blocks[len(blocks)-1])
			default:
				b.WriteRune(blocks[fill-1])
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// resample stretches or averages values into exactly width points.
func resample(values []float64, width int) []float64 {
	if len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := range out {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
