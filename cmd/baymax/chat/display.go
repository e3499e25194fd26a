// Package chat implements the interactive terminal client for the
// assistant service. This file carries query cycle mutations from the
// cycle goroutine into the bubbletea update loop.
package chat

import (
	"baymax/internal/audio"

	tea "github.com/charmbracelet/bubbletea"
)

// eventBuffer sizes the event channel. One cycle emits fewer than a
// dozen mutations, so the pump never blocks the cycle goroutine.
const eventBuffer = 32

type eventKind int

const (
	eventBusy eventKind = iota
	eventStatus
	eventAnswer
	eventSources
	eventAudio
)

// Event is one display mutation from a query cycle.
type Event struct {
	Kind eventKind
	Busy bool
	Text string
	Clip *audio.Clip
}

// eventMsg delivers an Event as a bubbletea message.
type eventMsg Event

// Display forwards query cycle mutations into the event channel, where
// the update loop consumes them one tea message at a time.
type Display struct {
	events chan<- Event
}

// NewDisplay creates a display writing to the given channel.
func NewDisplay(events chan<- Event) *Display {
	return &Display{events: events}
}

// SetBusy implements the cycle display contract.
func (d *Display) SetBusy(busy bool) {
	d.send(Event{Kind: eventBusy, Busy: busy})
}

// SetStatus implements the cycle display contract.
func (d *Display) SetStatus(text string) {
	d.send(Event{Kind: eventStatus, Text: text})
}

// ShowAnswer implements the cycle display contract.
func (d *Display) ShowAnswer(text string) {
	d.send(Event{Kind: eventAnswer, Text: text})
}

// SetSources implements the cycle display contract.
func (d *Display) SetSources(line string) {
	d.send(Event{Kind: eventSources, Text: line})
}

// SetAudio implements the cycle display contract.
func (d *Display) SetAudio(clip *audio.Clip) {
	d.send(Event{Kind: eventAudio, Clip: clip})
}

// send never blocks; if the UI has gone away mid-cycle the event is
// dropped instead of stalling the cycle goroutine.
func (d *Display) send(ev Event) {
	select {
	case d.events <- ev:
	default:
	}
}

// waitForEvent re-arms the event pump: one event per tea message.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-m.events)
	}
}
