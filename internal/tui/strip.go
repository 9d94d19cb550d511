package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/chordquiz/internal/model"
)

type styledToken struct {
	s     string
	width int
}

// buildStrip renders the chords of a game: played ones coloured by result,
// the current one highlighted and the rest pending.
func buildStrip(g model.Game, current int) []styledToken {
	out := make([]styledToken, 0, len(g.Chords))
	for i, c := range g.Chords {
		style := pendingStyle
		switch {
		case i < len(g.Played):
			style = statusStyle(g.Played[i].Status)
		case i == current:
			style = currentStyle
		}
		out = append(out, styledToken{
			s:     style.Render(c.Symbol),
			width: runewidth.StringWidth(c.Symbol),
		})
	}
	return out
}

// wrapTokens joins tokens with single spaces, breaking lines at width.
func wrapTokens(tokens []styledToken, width int) string {
	var out strings.Builder
	lineWidth := 0
	for i, tok := range tokens {
		if i > 0 {
			if width > 0 && lineWidth+1+tok.width > width {
				out.WriteByte('\n')
				lineWidth = 0
			} else {
				out.WriteByte(' ')
				lineWidth++
			}
		}
		out.WriteString(tok.s)
		lineWidth += tok.width
	}
	return out.String()
}

func statusStyle(s model.Status) lipgloss.Style {
	switch s {
	case model.StatusCorrect:
		return correctStyle
	case model.StatusEquivalent:
		return equivalentStyle
	case model.StatusNearMiss:
		return nearMissStyle
	case model.StatusWrong:
		return wrongStyle
	}
	return pendingStyle
}
