// Package keymap maps physical keyboard keys to performance effects
package keymap

import "fmt"

// Hand selects which half of the keyboard an effect belongs to
type Hand int

const (
	Left Hand = iota
	Right
	Both
)

func (h Hand) String() string {
	switch h {
	case Left:
		return "left"
	case Right:
		return "right"
	case Both:
		return "both"
	default:
		return fmt.Sprintf("hand(%d)", int(h))
	}
}

// Property names a modifier slot on a hand
type Property string

const (
	PropInversion Property = "inversion"
	PropQuality   Property = "quality"
	PropOctave    Property = "octave"
)

// Direction is an up/down token used by inversion, octave and transposition
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Quality names a left-hand chord quality. The empty Quality means major.
type Quality string

const (
	Maj  Quality = ""
	Maj7 Quality = "maj7"
	Dom7 Quality = "dom7"
	Min  Quality = "min"
	Min7 Quality = "min7"
	Aug  Quality = "aug"
	Dim  Quality = "dim"
)

// Qualities lists every quality a modifier can select, major first
var Qualities = []Quality{Maj, Maj7, Dom7, Min, Min7, Aug, Dim}

// Label returns the display name, "maj" for the default quality
func (q Quality) Label() string {
	if q == Maj {
		return "maj"
	}
	return string(q)
}

// ParseQuality accepts the display names, including "maj" and ""
func ParseQuality(s string) (Quality, bool) {
	if s == "maj" {
		return Maj, true
	}
	for _, q := range Qualities {
		if string(q) == s {
			return q, true
		}
	}
	return Maj, false
}

// ParseDirection accepts "up", "down" and "" (unset)
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case Up, Down, "":
		return Direction(s), true
	}
	return "", false
}

// Effect is what a key does. It is one of Playable, Modifier, GlobalAdjust
// or Clear.
type Effect interface {
	effect()
	Kind() string
}

// Playable sounds a note (right hand) or chord (left hand) at Offset
// semitones relative to the current transposition
type Playable struct {
	Hand   Hand
	Offset int
}

// Modifier sets Property on Hand to Value while its key is held
type Modifier struct {
	Hand     Hand
	Property Property
	Value    string
}

// GlobalAdjust moves the global transposition by one semitone
type GlobalAdjust struct {
	Direction Direction
}

// Clear silences the named hand or both hands
type Clear struct {
	Hand Hand
}

func (Playable) effect()     {}
func (Modifier) effect()     {}
func (GlobalAdjust) effect() {}
func (Clear) effect()        {}

func (Playable) Kind() string     { return "playable" }
func (Modifier) Kind() string     { return "modifier" }
func (GlobalAdjust) Kind() string { return "global" }
func (Clear) Kind() string        { return "clear" }

// Describe renders an effect as a short label for key listings
func Describe(e Effect) string {
	switch e := e.(type) {
	case Playable:
		return fmt.Sprintf("%s %+d", e.Hand, e.Offset)
	case Modifier:
		return fmt.Sprintf("%s %s=%s", e.Hand, e.Property, e.Value)
	case GlobalAdjust:
		return fmt.Sprintf("transpose %s", e.Direction)
	case Clear:
		return fmt.Sprintf("clear %s", e.Hand)
	default:
		return "unknown"
	}
}
