package engine

import (
	"fmt"
	"strings"

	"github.com/james-see/chordkeys/pkg/keymap"
)

// Shape is a four-voice chord voicing in semitones above the root
type Shape [4]int

// Spread voicings, one per quality
var (
	ShapeMaj  = Shape{0, 7, 12, 16}
	ShapeMin  = Shape{0, 7, 12, 15}
	ShapeMaj7 = Shape{0, 7, 11, 16}
	ShapeDom7 = Shape{0, 7, 10, 16}
	ShapeMin7 = Shape{0, 7, 10, 15}
	ShapeAug7 = Shape{0, 8, 12, 16}
	ShapeDim7 = Shape{0, 6, 9, 15}
)

const (
	// BaseTransposition puts the left-hand root key on C2
	BaseTransposition = 24
	// RightHandOffset lifts the right hand two octaves above the left
	RightHandOffset = 24
	octave          = 12
)

// ShapeFor returns the voicing of q; unknown qualities fall back to major
func ShapeFor(q keymap.Quality) Shape {
	switch q {
	case keymap.Maj7:
		return ShapeMaj7
	case keymap.Dom7:
		return ShapeDom7
	case keymap.Min:
		return ShapeMin
	case keymap.Min7:
		return ShapeMin7
	case keymap.Aug:
		return ShapeAug7
	case keymap.Dim:
		return ShapeDim7
	default:
		return ShapeMaj
	}
}

// InversionStyle selects how the inversion modifiers revoice a shape
type InversionStyle int

const (
	// StyleA moves the lower two voices up an octave (up) or the upper two
	// voices down an octave (down)
	StyleA InversionStyle = iota
	// StyleB moves only the first voice up (up) or the last voice down (down)
	StyleB
)

func (s InversionStyle) String() string {
	switch s {
	case StyleA:
		return "A"
	case StyleB:
		return "B"
	default:
		return fmt.Sprintf("style(%d)", int(s))
	}
}

// ParseInversionStyle accepts "A" or "B" in either case
func ParseInversionStyle(s string) (InversionStyle, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "":
		return StyleA, nil
	case "B":
		return StyleB, nil
	}
	return StyleA, fmt.Errorf("unknown inversion style %q (want A or B)", s)
}

// Invert applies the inversion dir to shape under this style.
// An empty dir returns shape unchanged.
func (s InversionStyle) Invert(shape Shape, dir keymap.Direction) Shape {
	switch {
	case dir == keymap.Up && s == StyleB:
		shape[0] += octave
	case dir == keymap.Up:
		shape[0] += octave
		shape[1] += octave
	case dir == keymap.Down && s == StyleB:
		shape[3] -= octave
	case dir == keymap.Down:
		shape[2] -= octave
		shape[3] -= octave
	}
	return shape
}

// LeftChord computes the four pitches a left-hand key at offset would sound
// given the modifiers and transposition in s. It does not modify s.
func LeftChord(s State, offset int, style InversionStyle) []int {
	base := offset + s.Transposition
	shape := style.Invert(ShapeFor(s.Left.Quality), s.Left.Inversion)
	notes := make([]int, len(shape))
	for i, x := range shape {
		notes[i] = x + base
	}
	return notes
}

// RightNote computes the single pitch a right-hand key at offset would sound
func RightNote(s State, offset int) int {
	pitch := offset + s.Transposition + RightHandOffset
	switch s.Right.Octave {
	case keymap.Up:
		pitch += octave
	case keymap.Down:
		pitch -= octave
	}
	return pitch
}
