// Package input turns held notes into reducer input events.
package input

import (
	"sort"

	"github.com/verte-zerg/chordquiz/internal/model"
	"github.com/verte-zerg/chordquiz/internal/quiz"
	"github.com/verte-zerg/chordquiz/internal/theory"
)

// Held tracks the MIDI notes currently pressed.
type Held struct {
	notes map[uint8]struct{}
}

// NewHeld returns an empty tracker.
func NewHeld() *Held {
	return &Held{notes: map[uint8]struct{}{}}
}

// Press adds a note.
func (h *Held) Press(note uint8) {
	h.notes[note] = struct{}{}
}

// Release removes a note.
func (h *Held) Release(note uint8) {
	delete(h.notes, note)
}

// Toggle flips a note and reports whether it is now held.
func (h *Held) Toggle(note uint8) bool {
	if h.IsHeld(note) {
		h.Release(note)
		return false
	}
	h.Press(note)
	return true
}

// ReleaseAll clears every held note.
func (h *Held) ReleaseAll() {
	for n := range h.notes {
		delete(h.notes, n)
	}
}

// Len returns the number of held notes.
func (h *Held) Len() int {
	return len(h.notes)
}

// IsHeld reports whether note is pressed.
func (h *Held) IsHeld(note uint8) bool {
	_, ok := h.notes[note]
	return ok
}

// Notes returns the held notes in ascending order.
func (h *Held) Notes() []uint8 {
	out := make([]uint8, 0, len(h.notes))
	for n := range h.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Event builds the reducer event for the current held set.
func (h *Held) Event(opts theory.DetectOptions) quiz.InputChanged {
	return Changed(h.Notes(), opts)
}

// PitchClasses reduces notes to distinct pitch classes, lowest note first.
func PitchClasses(notes []uint8) []theory.PitchClass {
	sorted := append([]uint8(nil), notes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var seen theory.PitchSet
	out := make([]theory.PitchClass, 0, len(sorted))
	for _, n := range sorted {
		pc := theory.FromMIDI(n)
		if seen.Has(pc) {
			continue
		}
		seen |= 1 << pc
		out = append(out, pc)
	}
	return out
}

// Changed converts a held-note set into an InputChanged event. No notes means
// release; notes with no recognised chord yield a single nil candidate.
func Changed(notes []uint8, opts theory.DetectOptions) quiz.InputChanged {
	pcs := PitchClasses(notes)
	if len(pcs) == 0 {
		return quiz.InputChanged{}
	}
	detected := theory.Detect(pcs, opts)
	in := quiz.InputChanged{PitchClasses: pcs}
	if len(detected) == 0 {
		in.Chords = []*theory.Chord{nil}
		return in
	}
	in.Chords = make([]*theory.Chord, len(detected))
	for i := range detected {
		in.Chords[i] = &detected[i]
	}
	return in
}

// DetectOptions derives chord detection settings from quiz parameters.
func DetectOptions(p model.Parameters) theory.DetectOptions {
	return theory.DetectOptions{
		Accidentals:    p.Accidentals,
		Disabled:       p.DisabledSet(),
		AllowOmissions: p.AllowOmissions,
	}
}
