package voice

import (
	"fmt"

	"github.com/james-see/chordkeys/pkg/engine"
	"gitlab.com/gomidi/midi/v2"
)

// MIDI encodes play/stop calls as channel voice messages and hands them to
// Sink. Pitches without a MIDI note number are dropped.
type MIDI struct {
	Channel  uint8
	Velocity uint8
	Sink     func(midi.Message)
}

// NewMIDI creates an encoder on channel 0 with velocity 100
func NewMIDI(sink func(midi.Message)) *MIDI {
	return &MIDI{Channel: 0, Velocity: 100, Sink: sink}
}

func (m *MIDI) PlayNote(pitch int) {
	if msg, ok := m.Message(Call{ActionPlay, pitch}); ok {
		m.send(msg)
	}
}

func (m *MIDI) StopNote(pitch int) {
	if msg, ok := m.Message(Call{ActionStop, pitch}); ok {
		m.send(msg)
	}
}

// Message encodes c on the voice's channel. It reports false for pitches
// without a MIDI note number.
func (m *MIDI) Message(c Call) (midi.Message, bool) {
	key, ok := engine.MIDINote(c.Pitch)
	if !ok {
		return nil, false
	}
	if c.Action == ActionStop {
		return midi.NoteOff(m.Channel, key), true
	}
	return midi.NoteOn(m.Channel, key, m.Velocity), true
}

func (m *MIDI) send(msg midi.Message) {
	if m.Sink != nil {
		m.Sink(msg)
	}
}

// Hex renders msg as space separated hex bytes, e.g. "90 3C 64"
func Hex(msg midi.Message) string {
	return fmt.Sprintf("% X", []byte(msg))
}

var _ engine.Voice = (*MIDI)(nil)
