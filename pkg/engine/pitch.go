package engine

import "fmt"

// Pitch indices count semitones from C0. The playable piano range is C0..C7.
const (
	LowestPitch  = 0
	HighestPitch = 84
	// midiOffset converts a pitch index to a MIDI note number (C0 = 12)
	midiOffset = 12
)

var pitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the scientific name of pitch, e.g. 24 -> "C2"
func NoteName(pitch int) string {
	oct, class := pitch/12, pitch%12
	if class < 0 {
		class += 12
		oct--
	}
	return fmt.Sprintf("%s%d", pitchClasses[class], oct)
}

// NoteNames maps NoteName over pitches
func NoteNames(pitches []int) []string {
	names := make([]string, len(pitches))
	for i, p := range pitches {
		names[i] = NoteName(p)
	}
	return names
}

// MIDINote returns the MIDI note number of pitch, false when it falls
// outside 0..127
func MIDINote(pitch int) (uint8, bool) {
	n := pitch + midiOffset
	if n < 0 || n > 127 {
		return 0, false
	}
	return uint8(n), true
}

// InRange reports whether pitch lies on the playable piano range
func InRange(pitch int) bool {
	return pitch >= LowestPitch && pitch <= HighestPitch
}
