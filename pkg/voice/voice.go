// Package voice provides sound collaborators for the performance engine
package voice

import "github.com/james-see/chordkeys/pkg/engine"

// Action is the kind of a recorded voice call
type Action string

const (
	ActionPlay Action = "play"
	ActionStop Action = "stop"
)

// Call is one play or stop instruction
type Call struct {
	Action Action `json:"action"`
	Pitch  int    `json:"pitch"`
}

// Recorder keeps every call it receives, in order
type Recorder struct {
	calls []Call
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) PlayNote(pitch int) { r.calls = append(r.calls, Call{ActionPlay, pitch}) }
func (r *Recorder) StopNote(pitch int) { r.calls = append(r.calls, Call{ActionStop, pitch}) }

// Calls returns a copy of the calls recorded so far
func (r *Recorder) Calls() []Call {
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Drain returns the recorded calls and forgets them
func (r *Recorder) Drain() []Call {
	out := r.calls
	r.calls = nil
	return out
}

// Silent discards every call
type Silent struct{}

func (Silent) PlayNote(int) {}
func (Silent) StopNote(int) {}

// Fanout forwards each call to every voice in order
type Fanout []engine.Voice

func (f Fanout) PlayNote(pitch int) {
	for _, v := range f {
		v.PlayNote(pitch)
	}
}

func (f Fanout) StopNote(pitch int) {
	for _, v := range f {
		v.StopNote(pitch)
	}
}

var (
	_ engine.Voice = (*Recorder)(nil)
	_ engine.Voice = Silent{}
	_ engine.Voice = Fanout(nil)
)
