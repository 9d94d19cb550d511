// Package replay drives a quiz session from a recorded Standard MIDI File.
package replay

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Frame is the set of notes held from At until the next frame.
type Frame struct {
	At    time.Duration
	Notes []uint8
}

type noteEvent struct {
	at   int64 // microseconds
	off  bool
	note uint8
}

// ReadFile decodes frames from the MIDI file at path.
func ReadFile(path string) ([]Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read midi file: %w", err)
	}
	return ReadFrames(bytes.NewReader(data))
}

// ReadFrames decodes note on/off events from every track and collapses them
// into one frame per distinct timestamp. Note-offs sort before note-ons at
// the same instant, and frames that repeat the previous held set are dropped.
func ReadFrames(r io.Reader) (frames []Frame, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			frames = nil
			err = fmt.Errorf("failed to parse midi file: %v", rec)
		}
	}()

	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse midi file: %w", err)
	}

	var events []noteEvent
	for _, track := range s.Tracks {
		var absTicks int64
		for _, ev := range track {
			absTicks += int64(ev.Delta)
			var ch, key, vel uint8
			switch {
			case ev.Message.GetNoteOn(&ch, &key, &vel):
				events = append(events, noteEvent{at: s.TimeAt(absTicks), off: vel == 0, note: key})
			case ev.Message.GetNoteOff(&ch, &key, &vel):
				events = append(events, noteEvent{at: s.TimeAt(absTicks), off: true, note: key})
			}
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].at != events[j].at {
			return events[i].at < events[j].at
		}
		return events[i].off && !events[j].off
	})

	// A note held on two tracks stays down until both release it.
	pressed := map[uint8]int{}
	var last []uint8
	for i := 0; i < len(events); {
		at := events[i].at
		for ; i < len(events) && events[i].at == at; i++ {
			ev := events[i]
			if ev.off {
				if pressed[ev.note] > 1 {
					pressed[ev.note]--
				} else {
					delete(pressed, ev.note)
				}
				continue
			}
			pressed[ev.note]++
		}
		notes := sortedNotes(pressed)
		if frames != nil && equalNotes(notes, last) {
			continue
		}
		frames = append(frames, Frame{At: time.Duration(at) * time.Microsecond, Notes: notes})
		last = notes
	}
	return frames, nil
}

func sortedNotes(pressed map[uint8]int) []uint8 {
	out := make([]uint8, 0, len(pressed))
	for n := range pressed {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func equalNotes(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
