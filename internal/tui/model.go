// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/verte-zerg/chordquiz/internal/input"
	"github.com/verte-zerg/chordquiz/internal/model"
	"github.com/verte-zerg/chordquiz/internal/quiz"
	statsPkg "github.com/verte-zerg/chordquiz/internal/stats"
	"github.com/verte-zerg/chordquiz/internal/store"
	"github.com/verte-zerg/chordquiz/internal/theory"
)

// Model implements the Bubble Tea practice UI.
type Model struct {
	config            model.Config
	store             *store.Store
	reducer           *quiz.Reducer
	now               func() time.Time
	weakNoticePrinted bool

	width  int
	height int

	session    model.Session
	held       *input.Held
	keymap     input.Keymap
	candidates []*theory.Chord
	focus      weakFocus
	errMsg     string

	runID     string
	startedAt map[int]time.Time
	recorded  int

	lastAcc   float64
	lastScore int
	hasLast   bool

	allSucceeded int
	allChords    int
	allGames     int
}

var (
	correctStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	equivalentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#36CFC9"))
	nearMissStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	wrongStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true).Underline(true)
	targetStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	whiteKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E1E1E")).Background(lipgloss.Color("#D9D9D9"))
	blackKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D9D9D9")).Background(lipgloss.Color("#262626"))
	heldKeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E1E1E")).Background(lipgloss.Color("#C89A3A")).Bold(true)
	targetKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#3A6EA5"))
)

// weakFocus is implemented by generators that can favour weak chord types.
type weakFocus interface {
	SetWeakTypes(types []string, factor float64)
}

// NewModel constructs a practice TUI model. A nil store disables history.
// With FocusWeak set and a generator implementing SetWeakTypes, the weakest
// chord types from history are boosted and refreshed after every game.
func NewModel(cfg model.Config, st *store.Store, gen quiz.Generator) *Model {
	m := &Model{
		config:    cfg,
		store:     st,
		now:       time.Now,
		held:      input.NewHeld(),
		keymap:    input.NewKeymap(uint8(12 * (cfg.Octave + 1))),
		runID:     uuid.New().String(),
		startedAt: map[int]time.Time{},
	}
	if wf, ok := gen.(weakFocus); ok && cfg.FocusWeak {
		m.focus = wf
		m.refreshWeakTypes()
	}
	m.reducer = quiz.NewReducer(gen, quiz.WithClock(func() time.Time { return m.now() }))
	m.changeParameters(cfg.Parameters)
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeySpace, tea.KeyEnter:
			m.held.ReleaseAll()
			m.sendInput()
			return m, nil
		case tea.KeyTab:
			p := m.session.Parameters
			p.Accidentals = toggleAccidentals(p.Accidentals)
			m.changeParameters(p)
			return m, nil
		case tea.KeyRunes:
			m.handleKey(msg.String())
			return m, nil
		}
	}
	return m, nil
}

func (m *Model) handleKey(key string) {
	switch key {
	case "[", "]":
		p := m.session.Parameters
		step := 1
		if key == "[" {
			step = -1
		}
		p.Key = p.Key.Transpose(step)
		m.changeParameters(p)
		return
	case "z":
		m.keymap = m.keymap.Shift(-1)
		return
	case "x":
		m.keymap = m.keymap.Shift(1)
		return
	}
	note, ok := m.keymap.Note(key)
	if !ok {
		return
	}
	m.held.Toggle(note)
	m.sendInput()
}

func toggleAccidentals(acc theory.Accidentals) theory.Accidentals {
	if acc == theory.Flat {
		return theory.Sharp
	}
	return theory.Flat
}

// changeParameters restarts the session. When the new settings produce no
// game the current session is kept and the reason is shown.
func (m *Model) changeParameters(p model.Parameters) {
	next, err := m.reducer.ChangeParameters(m.session, p)
	if err != nil {
		if errors.Is(err, quiz.ErrNoGame) {
			m.errMsg = fmt.Sprintf("%v (key %s)", err, p.Key.Name(p.Accidentals))
		} else {
			m.errMsg = err.Error()
		}
		return
	}
	m.errMsg = ""
	m.session = next
	m.held.ReleaseAll()
	m.candidates = nil
	m.startedAt = map[int]time.Time{}
	m.recorded = 0
}

func (m *Model) sendInput() {
	ev := m.held.Event(input.DetectOptions(m.session.Parameters))
	gi := m.session.State.GameIndex
	if len(ev.PitchClasses) > 0 {
		if _, ok := m.startedAt[gi]; !ok {
			m.startedAt[gi] = m.now()
		}
	}
	m.session = m.reducer.ChangeInput(m.session, ev)
	m.candidates = ev.Chords
	m.recordCompleted()
}

// recordCompleted stores every finished game that has not been saved yet.
func (m *Model) recordCompleted() {
	for m.recorded < len(m.session.Games) && quiz.Completed(m.session, m.recorded) {
		m.finishGame(m.recorded)
		m.recorded++
	}
}

func (m *Model) finishGame(gi int) {
	endedAt := m.now()
	startedAt, ok := m.startedAt[gi]
	if !ok {
		startedAt = endedAt
	}
	delete(m.startedAt, gi)
	rec, attempts := quiz.BuildRecord(m.session, gi, m.runID, startedAt, endedAt)

	if m.store != nil {
		if _, err := m.store.InsertGame(context.Background(), rec, attempts); err != nil {
			logErrf("failed to save game: %v\n", err)
		}
	}
	m.lastAcc, _, _ = statsPkg.GameMetrics(model.GameAggregate{Chords: rec.Chords, Succeeded: rec.Succeeded})
	m.lastScore = rec.Score
	m.hasLast = true
	m.allGames++
	m.allChords += rec.Chords
	m.allSucceeded += rec.Succeeded

	if m.focus != nil {
		m.refreshWeakTypes()
	}
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	games, err := m.store.ListGames(context.Background(), model.StatsConfig{})
	if err != nil {
		logErrf("failed to load game stats: %v\n", err)
		return
	}
	if len(games) == 0 {
		return
	}
	last := games[len(games)-1]
	m.lastAcc, _, _ = statsPkg.GameMetrics(last)
	m.lastScore = last.Score
	m.hasLast = true
	for _, g := range games {
		m.allGames++
		m.allChords += g.Chords
		m.allSucceeded += g.Succeeded
	}
}

// refreshWeakTypes re-reads the weakest chord types into the generator. The
// session parameters are left untouched.
func (m *Model) refreshWeakTypes() {
	if m.focus == nil || m.store == nil {
		return
	}
	aggs, err := m.store.GetWeakTypes(context.Background(), m.config.WeakWindow)
	if err != nil {
		logErrf("failed to load weak chord types: %v\n", err)
		return
	}
	if len(aggs) == 0 {
		if !m.weakNoticePrinted {
			logErrln("no stats available for weak-type focus yet; using normal generator")
			m.weakNoticePrinted = true
		}
		m.focus.SetWeakTypes(nil, 0)
		return
	}
	m.focus.SetWeakTypes(statsPkg.SelectWeakTypes(aggs, m.config.WeakTop), m.config.WeakFactor)
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderContent()
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) renderContent() string {
	p := m.session.Parameters
	var lines []string
	header := fmt.Sprintf("Key %s · %ss · octave %d", p.Key.Name(p.Accidentals), accidentalsLabel(p.Accidentals), m.keymap.Octave())
	lines = append(lines, footerStyle.Render(header), "")

	if g, ok := m.session.CurrentGame(); ok {
		width := 0
		if m.width > 0 {
			width = int(float64(m.width) * 0.70)
		}
		lines = append(lines, wrapTokens(buildStrip(g, m.session.State.Index), width), "")
	}
	var target theory.PitchSet
	if expected, ok := m.session.Expected(); ok {
		target = expected.Set()
		notes := strings.Join(expected.NoteNames(p.Accidentals), " ")
		lines = append(lines, "Play  "+targetStyle.Render(expected.Symbol)+footerStyle.Render("  "+expected.Name+" · "+notes))
	}
	lines = append(lines, "Held  "+m.heldLine())
	lines = append(lines, "Match "+m.matchLine())
	if also := m.alsoLine(); also != "" {
		lines = append(lines, "Also  "+also)
	}
	lines = append(lines, "", renderKeyboard(m.keymap, m.held, target, p.Accidentals))
	if m.errMsg != "" {
		lines = append(lines, "", wrongStyle.Render(m.errMsg))
	}
	return strings.Join(lines, "\n")
}

func accidentalsLabel(acc theory.Accidentals) string {
	if acc == theory.Flat {
		return "flat"
	}
	return "sharp"
}

func (m *Model) heldLine() string {
	pcs := input.PitchClasses(m.held.Notes())
	if len(pcs) == 0 {
		return pendingStyle.Render("-")
	}
	names := make([]string, len(pcs))
	for i, pc := range pcs {
		names[i] = pc.Name(m.session.Parameters.Accidentals)
	}
	return strings.Join(names, " ")
}

func (m *Model) matchLine() string {
	st := m.session.State
	if st.Status == model.StatusNone {
		return pendingStyle.Render("-")
	}
	name := "?"
	if st.Chord != nil {
		name = st.Chord.Symbol
	}
	return statusStyle(st.Status).Render(fmt.Sprintf("%s  %s  (%d)", name, st.Status, st.Score))
}

// alsoLine lists the other interpretations of the held notes.
func (m *Model) alsoLine() string {
	shown := m.session.State.Chord
	var names []string
	for _, c := range m.candidates {
		if c == nil || (shown != nil && c.Equal(*shown)) {
			continue
		}
		names = append(names, c.Symbol)
	}
	if len(names) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(names, "  "))
}

func (m *Model) renderFooter() string {
	g, ok := m.session.CurrentGame()
	if !ok {
		return ""
	}
	segments := []string{
		fmt.Sprintf("Game %d · %d/%d", m.session.State.GameIndex+1, len(g.Played), len(g.Chords)),
		fmt.Sprintf("Score %d", g.Score),
		fmt.Sprintf("Succeeded %d", g.Succeeded),
		fmt.Sprintf("Avg/chord %s", g.TimePerChord),
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f%% · %d", m.lastAcc*100, m.lastScore))
	}
	if m.allChords > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f%% over %d games", float64(m.allSucceeded)/float64(m.allChords)*100, m.allGames))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		_ = err
	}
}
