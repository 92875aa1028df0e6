// Package engine turns key events into chord and note playback.
//
// An Engine owns one performance session. Key-downs of playable keys stop
// whatever that hand was sounding and start the newly computed notes; held
// modifier keys change what the next playable key on their hand produces.
// Notes keep sounding after their key is released until the same hand plays
// again or is cleared.
package engine

import (
	"log/slog"

	"github.com/james-see/chordkeys/pkg/keymap"
)

// Voice is the sound collaborator. Calls are fire-and-forget.
//
// One chord may repeat a pitch: inversion style A raises the first two
// shape notes an octave, so maj and min up land on their own third or
// fifth. The repeated pitch is played twice and later stopped twice. A
// Voice that cannot stack the same pitch should sit behind a refcounting
// voice such as voice.Refcount or voice.Range.
type Voice interface {
	PlayNote(pitch int)
	StopNote(pitch int)
}

// HandState describes a hand after it played, for renderers
type HandState struct {
	Hand          keymap.Hand      `json:"hand"`
	Offset        int              `json:"offset"`
	Quality       keymap.Quality   `json:"quality,omitempty"`
	Inversion     keymap.Direction `json:"inversion,omitempty"`
	Octave        keymap.Direction `json:"octave,omitempty"`
	Transposition int              `json:"transposition"`
	Notes         []int            `json:"notes"`
}

// Observer is notified after every playable key-down
type Observer interface {
	HandStateChanged(HandState)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(HandState)

func (f ObserverFunc) HandStateChanged(hs HandState) { f(hs) }

// Option configures an Engine
type Option func(*Engine)

// WithKeyMap replaces the default layout
func WithKeyMap(km *keymap.KeyMap) Option {
	return func(e *Engine) { e.keys = km }
}

// WithInversionStyle selects how inversion modifiers revoice chords
func WithInversionStyle(s InversionStyle) Option {
	return func(e *Engine) { e.style = s }
}

// WithObserver subscribes o to hand state changes
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithLogger sets the logger used for dispatch tracing and voice failures
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine is the performance state machine. It is not safe for concurrent
// use; callers deliver one event at a time.
type Engine struct {
	keys      *keymap.KeyMap
	voice     Voice
	style     InversionStyle
	observers []Observer
	log       *slog.Logger
	state     State
}

// New creates an Engine sounding through v
func New(v Voice, opts ...Option) *Engine {
	e := &Engine{
		keys:  keymap.Default(),
		voice: v,
		style: StyleA,
		log:   slog.Default(),
		state: NewState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Style returns the inversion style in use
func (e *Engine) Style() InversionStyle {
	return e.style
}

// KeyMap returns the layout in use
func (e *Engine) KeyMap() *keymap.KeyMap {
	return e.keys
}

// Snapshot returns a copy of the current session state
func (e *Engine) Snapshot() State {
	return e.state.clone()
}

// KeyDown handles a key press and reports whether code is mapped
func (e *Engine) KeyDown(code string) bool {
	effect, ok := e.keys.Lookup(code)
	if !ok {
		return false
	}
	e.log.Debug("key down", "code", code, "effect", keymap.Describe(effect))
	e.Apply(effect)
	return true
}

// KeyUp handles a key release and reports whether code is mapped
func (e *Engine) KeyUp(code string) bool {
	effect, ok := e.keys.Lookup(code)
	if !ok {
		return false
	}
	e.log.Debug("key up", "code", code, "effect", keymap.Describe(effect))
	e.Release(effect)
	return true
}

// Apply dispatches a key-down effect
func (e *Engine) Apply(effect keymap.Effect) {
	p := e.plan(effect)
	e.commit(p)
	if pl, ok := effect.(keymap.Playable); ok {
		e.notify(pl)
	}
}

// Release dispatches a key-up effect. Only modifiers react: the property
// goes back to unset.
func (e *Engine) Release(effect keymap.Effect) {
	m, ok := effect.(keymap.Modifier)
	if !ok {
		return
	}
	if next, ok := e.state.setModifier(m.Hand, m.Property, ""); ok {
		e.state = next
	}
}

// Reset silences both hands and restores modifiers and transposition to
// their starting values
func (e *Engine) Reset() {
	p := e.plan(keymap.Clear{Hand: keymap.Both})
	p.next = NewState()
	e.commit(p)
}

// plan is the outcome of one event: what to stop, what to play and the
// state afterwards
type plan struct {
	stops []int
	plays []int
	next  State
}

func (e *Engine) plan(effect keymap.Effect) plan {
	cur := e.state.clone()
	switch eff := effect.(type) {
	case keymap.Playable:
		return e.planPlayable(cur, eff)
	case keymap.Modifier:
		next, ok := cur.setModifier(eff.Hand, eff.Property, eff.Value)
		if !ok {
			e.log.Warn("modifier has no slot", "hand", eff.Hand, "property", eff.Property)
		}
		return plan{next: next}
	case keymap.GlobalAdjust:
		switch eff.Direction {
		case keymap.Up:
			cur.Transposition++
		case keymap.Down:
			cur.Transposition--
		}
		return plan{next: cur}
	case keymap.Clear:
		return planClear(cur, eff.Hand)
	default:
		return plan{next: cur}
	}
}

func (e *Engine) planPlayable(cur State, p keymap.Playable) plan {
	switch p.Hand {
	case keymap.Left:
		notes := LeftChord(cur, p.Offset, e.style)
		stops := cur.PreviousLeft
		cur.PreviousLeft = notes
		return plan{stops: stops, plays: notes, next: cur}
	case keymap.Right:
		var stops []int
		if cur.HasRight {
			stops = []int{cur.PreviousRight}
		}
		note := RightNote(cur, p.Offset)
		cur.PreviousRight, cur.HasRight = note, true
		return plan{stops: stops, plays: []int{note}, next: cur}
	default:
		return plan{next: cur}
	}
}

func planClear(cur State, hand keymap.Hand) plan {
	var stops []int
	if hand == keymap.Left || hand == keymap.Both {
		stops = append(stops, cur.PreviousLeft...)
		cur = cur.clearLeft()
	}
	if hand == keymap.Right || hand == keymap.Both {
		if cur.HasRight {
			stops = append(stops, cur.PreviousRight)
		}
		cur = cur.clearRight()
	}
	return plan{stops: stops, next: cur}
}

// commit installs the planned state, then stops before it plays
func (e *Engine) commit(p plan) {
	e.state = p.next
	for _, pitch := range p.stops {
		e.call("stop", pitch, e.voice.StopNote)
	}
	for _, pitch := range p.plays {
		e.call("play", pitch, e.voice.PlayNote)
	}
}

func (e *Engine) call(action string, pitch int, fn func(int)) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("voice call failed", "action", action, "pitch", pitch, "panic", r)
		}
	}()
	fn(pitch)
}

func (e *Engine) notify(p keymap.Playable) {
	if len(e.observers) == 0 {
		return
	}
	hs := HandState{
		Hand:          p.Hand,
		Offset:        p.Offset,
		Transposition: e.state.Transposition,
	}
	switch p.Hand {
	case keymap.Left:
		hs.Quality = e.state.Left.Quality
		hs.Inversion = e.state.Left.Inversion
		hs.Notes = append([]int{}, e.state.PreviousLeft...)
	case keymap.Right:
		hs.Octave = e.state.Right.Octave
		hs.Notes = []int{e.state.PreviousRight}
	}
	for _, o := range e.observers {
		o.HandStateChanged(hs)
	}
}
