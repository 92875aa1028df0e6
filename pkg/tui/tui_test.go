package tui

import (
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/james-see/chordkeys/pkg/engine"
	"github.com/james-see/chordkeys/pkg/voice"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newTestModel(rec *voice.Recorder) Model {
	return New(Options{Voice: rec, ReleaseAfter: time.Hour})
}

func press(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestTranslate(t *testing.T) {
	b := DefaultBindings()
	tests := []struct {
		key      string
		expected string
	}{
		{"r", "KeyR"},
		{"R", "KeyR"},
		{"4", "Digit4"},
		{"tab", "Tab"},
		{"enter", "Enter"},
		{" ", "Space"},
		{"`", "Backquote"},
		{"~", "ShiftLeft"},
		{"?", "ShiftRight"},
		{"\\", "Backslash"},
	}
	for _, tt := range tests {
		got, ok := b.Translate(tt.key)
		if !ok || got != tt.expected {
			t.Errorf("Translate(%q) = %q, %v, want %q", tt.key, got, ok, tt.expected)
		}
	}
	if _, ok := b.Translate("f5"); ok {
		t.Error("f5 should not be bound")
	}
}

func TestBindingsWith(t *testing.T) {
	b := DefaultBindings().With(map[string]string{"y": "KeyR", "r": ""})
	if code, _ := b.Translate("y"); code != "KeyR" {
		t.Errorf("y -> %q", code)
	}
	if _, ok := b.Translate("r"); ok {
		t.Error("r should be unbound")
	}
	if _, ok := DefaultBindings().Translate("r"); !ok {
		t.Error("With modified the original bindings")
	}
	if got := b.KeyFor("Space"); got != " " {
		t.Errorf("KeyFor(Space) = %q", got)
	}
}

func TestKeyPressPlaysChord(t *testing.T) {
	rec := voice.NewRecorder()
	m := press(newTestModel(rec), runeKey('r'))

	expected := []voice.Call{{Action: voice.ActionPlay, Pitch: 24}, {Action: voice.ActionPlay, Pitch: 31}, {Action: voice.ActionPlay, Pitch: 36}, {Action: voice.ActionPlay, Pitch: 40}}
	if got := rec.Drain(); !reflect.DeepEqual(got, expected) {
		t.Errorf("calls = %v, want %v", got, expected)
	}
	if len(m.panels.log) != 4 || !m.panels.hasLeft {
		t.Errorf("panels = %+v", m.panels)
	}

	view := m.View()
	for _, want := range []string{"LEFT HAND", "C2 G2 C3 E3", "KeyR"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRepeatsAreSuppressed(t *testing.T) {
	rec := voice.NewRecorder()
	m := press(newTestModel(rec), runeKey('n'), runeKey('n'), runeKey('n'))
	if got := rec.Drain(); !reflect.DeepEqual(got, []voice.Call{{Action: voice.ActionPlay, Pitch: 48}}) {
		t.Errorf("calls = %v", got)
	}

	m = press(m, keyReleasedMsg{code: "KeyN"}, runeKey('n'))
	expected := []voice.Call{{Action: voice.ActionStop, Pitch: 48}, {Action: voice.ActionPlay, Pitch: 48}}
	if got := rec.Drain(); !reflect.DeepEqual(got, expected) {
		t.Errorf("calls after release = %v, want %v", got, expected)
	}
}

func TestModifierHeldUntilRelease(t *testing.T) {
	rec := voice.NewRecorder()
	m := press(newTestModel(rec), runeKey('s'), runeKey('r'))
	rec.Drain()
	if q := m.engine.Snapshot().Left.Quality; q != "min" {
		t.Fatalf("quality = %q, want min", q)
	}

	m = press(m, keyReleasedMsg{code: "KeyS"}, keyReleasedMsg{code: "KeyR"}, runeKey('r'))
	if q := m.engine.Snapshot().Left.Quality; q != "" {
		t.Errorf("quality = %q after release", q)
	}
	got := rec.Drain()
	if len(got) != 8 || got[7] != (voice.Call{Action: voice.ActionPlay, Pitch: 40}) {
		t.Errorf("calls = %v", got)
	}
}

func TestUnboundAndStrayRelease(t *testing.T) {
	rec := voice.NewRecorder()
	m := press(newTestModel(rec), tea.KeyMsg{Type: tea.KeyF5}, keyReleasedMsg{code: "KeyS"}, runeKey('y'))
	if got := rec.Drain(); len(got) != 0 {
		t.Errorf("calls = %v", got)
	}
	if m.lastCode != "" {
		t.Errorf("lastCode = %q", m.lastCode)
	}
}

func TestResetAndQuit(t *testing.T) {
	rec := voice.NewRecorder()
	quit := false
	m := New(Options{Voice: rec, ReleaseAfter: time.Hour, OnQuit: func() { quit = true }})
	m = press(m, runeKey('r'), runeKey('n'))
	rec.Drain()

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if got := rec.Drain(); len(got) != 5 {
		t.Errorf("reset calls = %v", got)
	}
	if m.panels.hasLeft || len(m.engine.Snapshot().Sounding()) != 0 {
		t.Error("reset left state behind")
	}

	m = press(m, runeKey('e'))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc should quit")
	}
	if !quit {
		t.Error("OnQuit not called")
	}
	if got := rec.Drain(); len(got) != 8 {
		t.Errorf("quit should silence the chord, calls = %v", got)
	}
}

func TestInversionStyleOption(t *testing.T) {
	m := New(Options{Style: engine.StyleB, ReleaseAfter: time.Hour})
	if m.engine.Style() != engine.StyleB {
		t.Errorf("Style() = %v", m.engine.Style())
	}
	if !strings.Contains(m.View(), "inversion style B") {
		t.Error("view does not show the inversion style")
	}
}

func TestHeldKeysRelease(t *testing.T) {
	h := newHeldKeys(20 * time.Millisecond)
	if !h.press("KeyS") {
		t.Fatal("first press should be a key-down")
	}
	if h.press("KeyS") {
		t.Error("repeat reported as key-down")
	}

	select {
	case code := <-h.released:
		if code != "KeyS" {
			t.Errorf("released %q", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no release after quiet period")
	}
	if !h.release("KeyS") || h.isHeld("KeyS") {
		t.Error("release did not clear the key")
	}
	if h.release("KeyS") {
		t.Error("double release reported")
	}
}
