package keymap

import "sort"

// KeyMap is an immutable table from KeyboardEvent.code to Effect
type KeyMap struct {
	effects map[string]Effect
	order   []string
}

// Entry pairs a physical key code with its effect
type Entry struct {
	Code   string
	Effect Effect
}

// left-hand roots run bottom row to number row, right-hand roots wind up
// the right side of the keyboard
var defaultEntries = []Entry{
	{"KeyB", Playable{Left, -5}},
	{"KeyV", Playable{Left, -4}},
	{"KeyG", Playable{Left, -3}},
	{"KeyF", Playable{Left, -2}},
	{"KeyT", Playable{Left, -1}},
	{"KeyR", Playable{Left, 0}},
	{"Digit4", Playable{Left, 1}},
	{"KeyE", Playable{Left, 2}},
	{"Digit3", Playable{Left, 3}},
	{"KeyW", Playable{Left, 4}},
	{"KeyQ", Playable{Left, 5}},
	{"Digit1", Playable{Left, 6}},
	{"Tab", Playable{Left, 7}},

	{"Slash", Playable{Right, -7}},
	{"Semicolon", Playable{Right, -6}},
	{"Period", Playable{Right, -5}},
	{"KeyL", Playable{Right, -4}},
	{"Comma", Playable{Right, -3}},
	{"KeyK", Playable{Right, -2}},
	{"KeyM", Playable{Right, -1}},
	{"KeyN", Playable{Right, 0}},
	{"KeyH", Playable{Right, 1}},
	{"KeyJ", Playable{Right, 2}},
	{"KeyU", Playable{Right, 3}},
	{"KeyI", Playable{Right, 4}},
	{"KeyO", Playable{Right, 5}},
	{"Digit0", Playable{Right, 6}},
	{"KeyP", Playable{Right, 7}},
	{"Minus", Playable{Right, 8}},
	{"BracketLeft", Playable{Right, 9}},
	{"Equal", Playable{Right, 10}},
	{"BracketRight", Playable{Right, 11}},
	{"Backslash", Playable{Right, 12}},

	{"ShiftLeft", Modifier{Left, PropInversion, string(Down)}},
	{"Backquote", Modifier{Left, PropInversion, string(Up)}},
	{"KeyA", Modifier{Left, PropQuality, string(Maj7)}},
	{"KeyZ", Modifier{Left, PropQuality, string(Dom7)}},
	{"KeyS", Modifier{Left, PropQuality, string(Min)}},
	{"KeyX", Modifier{Left, PropQuality, string(Min7)}},
	{"KeyD", Modifier{Left, PropQuality, string(Aug)}},
	{"KeyC", Modifier{Left, PropQuality, string(Dim)}},

	{"ShiftRight", Modifier{Right, PropOctave, string(Down)}},
	{"Enter", Modifier{Right, PropOctave, string(Up)}},

	{"Digit6", GlobalAdjust{Down}},
	{"Digit7", GlobalAdjust{Up}},

	{"AltLeft", Clear{Left}},
	{"AltRight", Clear{Right}},
	{"Space", Clear{Both}},
}

var defaultMap = New(defaultEntries)

// Default returns the standard QWERTY layout
func Default() *KeyMap {
	return defaultMap
}

// New builds a KeyMap from entries. A later entry for the same code wins.
func New(entries []Entry) *KeyMap {
	km := &KeyMap{effects: make(map[string]Effect, len(entries))}
	for _, e := range entries {
		if _, dup := km.effects[e.Code]; !dup {
			km.order = append(km.order, e.Code)
		}
		km.effects[e.Code] = e.Effect
	}
	return km
}

// Lookup returns the effect bound to code
func (k *KeyMap) Lookup(code string) (Effect, bool) {
	e, ok := k.effects[code]
	return e, ok
}

// Len returns the number of mapped keys
func (k *KeyMap) Len() int {
	return len(k.order)
}

// Codes returns every mapped code in table order
func (k *KeyMap) Codes() []string {
	out := make([]string, len(k.order))
	copy(out, k.order)
	return out
}

// Entries returns the table in order
func (k *KeyMap) Entries() []Entry {
	out := make([]Entry, 0, len(k.order))
	for _, code := range k.order {
		out = append(out, Entry{Code: code, Effect: k.effects[code]})
	}
	return out
}

// Playables returns the playable entries of hand sorted by offset
func (k *KeyMap) Playables(hand Hand) []Entry {
	var out []Entry
	for _, e := range k.Entries() {
		if p, ok := e.Effect.(Playable); ok && p.Hand == hand {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Effect.(Playable).Offset < out[j].Effect.(Playable).Offset
	})
	return out
}
