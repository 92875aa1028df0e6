package engine

import "github.com/james-see/chordkeys/pkg/keymap"

// LeftModifiers are the held left-hand modifiers. Zero values mean unset.
type LeftModifiers struct {
	Inversion keymap.Direction `json:"inversion"`
	Quality   keymap.Quality   `json:"quality"`
}

// RightModifiers are the held right-hand modifiers
type RightModifiers struct {
	Octave keymap.Direction `json:"octave"`
}

// State is the mutable performance session
type State struct {
	PreviousLeft  []int          `json:"previous_left"`
	PreviousRight int            `json:"previous_right"`
	HasRight      bool           `json:"has_right"`
	Left          LeftModifiers  `json:"left"`
	Right         RightModifiers `json:"right"`
	Transposition int            `json:"transposition"`
}

// NewState returns the state a session starts with
func NewState() State {
	return State{PreviousLeft: []int{}, Transposition: BaseTransposition}
}

// Sounding returns every pitch currently held by either hand
func (s State) Sounding() []int {
	out := make([]int, 0, len(s.PreviousLeft)+1)
	out = append(out, s.PreviousLeft...)
	if s.HasRight {
		out = append(out, s.PreviousRight)
	}
	return out
}

func (s State) clone() State {
	c := s
	c.PreviousLeft = append([]int{}, s.PreviousLeft...)
	return c
}

// setModifier returns s with property set to value on hand. Unknown
// hand/property pairs leave s unchanged and report false.
func (s State) setModifier(hand keymap.Hand, prop keymap.Property, value string) (State, bool) {
	switch {
	case hand == keymap.Left && prop == keymap.PropInversion:
		s.Left.Inversion = keymap.Direction(value)
	case hand == keymap.Left && prop == keymap.PropQuality:
		s.Left.Quality = keymap.Quality(value)
	case hand == keymap.Right && prop == keymap.PropOctave:
		s.Right.Octave = keymap.Direction(value)
	default:
		return s, false
	}
	return s, true
}

func (s State) clearLeft() State {
	s.PreviousLeft = []int{}
	return s
}

func (s State) clearRight() State {
	s.PreviousRight, s.HasRight = 0, false
	return s
}
