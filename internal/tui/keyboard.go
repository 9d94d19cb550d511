package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/chordquiz/internal/input"
	"github.com/verte-zerg/chordquiz/internal/theory"
)

const keyCellWidth = 4

type keyKind int

const (
	keyWhite keyKind = iota
	keyBlack
	keyTarget
	keyHeld
)

func isBlack(pc theory.PitchClass) bool {
	switch pc {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}

// classifyKey decides how a key is drawn. Held keys win over target keys.
func classifyKey(note uint8, held *input.Held, target theory.PitchSet) keyKind {
	switch pc := theory.FromMIDI(note); {
	case held.IsHeld(note):
		return keyHeld
	case target.Has(pc):
		return keyTarget
	case isBlack(pc):
		return keyBlack
	}
	return keyWhite
}

func keyStyle(k keyKind) lipgloss.Style {
	switch k {
	case keyHeld:
		return heldKeyStyle
	case keyTarget:
		return targetKeyStyle
	case keyBlack:
		return blackKeyStyle
	}
	return whiteKeyStyle
}

// renderKeyboard draws the playable keys as three rows: black keys, white
// keys, then note names. Held keys and the target chord's pitch classes are
// highlighted.
func renderKeyboard(km input.Keymap, held *input.Held, target theory.PitchSet, acc theory.Accidentals) string {
	var black, white, names strings.Builder
	for _, k := range input.Layout {
		note, _ := km.Note(k.Key)
		label := runewidth.FillRight(" "+k.Key, keyCellWidth)
		blank := strings.Repeat(" ", keyCellWidth)
		cell := keyStyle(classifyKey(note, held, target)).Render(label)
		if isBlack(theory.FromMIDI(note)) {
			black.WriteString(cell)
			white.WriteString(blank)
		} else {
			black.WriteString(blank)
			white.WriteString(cell)
		}
		names.WriteString(runewidth.FillRight(" "+km.Label(k, acc), keyCellWidth))
	}
	return strings.Join([]string{black.String(), white.String(), footerStyle.Render(names.String())}, "\n")
}
