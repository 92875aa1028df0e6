package tui

import "strings"

// Bindings translates terminal key names (as bubbletea reports them) into
// KeyboardEvent.code values the engine understands
type Bindings map[string]string

// DefaultBindings follows a US QWERTY layout. Keys a terminal cannot report
// on their own (shift, alt) sit on shifted punctuation instead.
func DefaultBindings() Bindings {
	b := Bindings{
		"`":     "Backquote",
		"-":     "Minus",
		"=":     "Equal",
		"[":     "BracketLeft",
		"]":     "BracketRight",
		"\\":    "Backslash",
		";":     "Semicolon",
		"'":     "Quote",
		",":     "Comma",
		".":     "Period",
		"/":     "Slash",
		"tab":   "Tab",
		"enter": "Enter",
		" ":     "Space",
		"space": "Space",
		"~":     "ShiftLeft",
		"?":     "ShiftRight",
		"<":     "AltLeft",
		">":     "AltRight",
	}
	for c := 'a'; c <= 'z'; c++ {
		b[string(c)] = "Key" + strings.ToUpper(string(c))
	}
	for c := '0'; c <= '9'; c++ {
		b[string(c)] = "Digit" + string(c)
	}
	return b
}

// With returns a copy of b with overrides applied. An empty code removes
// the binding.
func (b Bindings) With(overrides map[string]string) Bindings {
	out := make(Bindings, len(b)+len(overrides))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range overrides {
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Translate returns the code bound to key. Single upper-case letters fall
// back to their lower-case binding so caps lock does not matter.
func (b Bindings) Translate(key string) (string, bool) {
	if code, ok := b[key]; ok {
		return code, true
	}
	if len(key) == 1 && key[0] >= 'A' && key[0] <= 'Z' {
		code, ok := b[strings.ToLower(key)]
		return code, ok
	}
	return "", false
}

// KeyFor returns a terminal key bound to code, for on-screen hints
func (b Bindings) KeyFor(code string) string {
	best := ""
	for k, v := range b {
		if v == code && (best == "" || len(k) < len(best) || (len(k) == len(best) && k < best)) {
			best = k
		}
	}
	return best
}
