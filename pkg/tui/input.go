package tui

import (
	"time"

	"github.com/bep/debounce"
	tea "github.com/charmbracelet/bubbletea"
)

// keyReleasedMsg reports that a key has been quiet for the release delay
type keyReleasedMsg struct {
	code string
}

// heldKeys turns the terminal's press-and-repeat stream into down/up
// events. The first press of a code is a key-down; repeats only keep it
// alive; silence for the release delay is the key-up.
type heldKeys struct {
	after      time.Duration
	held       map[string]bool
	debouncers map[string]func(func())
	released   chan string
}

func newHeldKeys(after time.Duration) *heldKeys {
	return &heldKeys{
		after:      after,
		held:       make(map[string]bool),
		debouncers: make(map[string]func(func())),
		released:   make(chan string, 16),
	}
}

// press records a press of code and reports whether it is a new key-down
func (h *heldKeys) press(code string) bool {
	d, ok := h.debouncers[code]
	if !ok {
		d = debounce.New(h.after)
		h.debouncers[code] = d
	}
	d(func() { h.released <- code })

	if h.held[code] {
		return false
	}
	h.held[code] = true
	return true
}

// release forgets code and reports whether it was held
func (h *heldKeys) release(code string) bool {
	if !h.held[code] {
		return false
	}
	delete(h.held, code)
	return true
}

// isHeld reports whether code is currently down
func (h *heldKeys) isHeld(code string) bool {
	return h.held[code]
}

func (h *heldKeys) waitForRelease() tea.Cmd {
	return func() tea.Msg {
		return keyReleasedMsg{code: <-h.released}
	}
}
