package keymap

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		code     string
		expected Effect
	}{
		{"KeyR", Playable{Left, 0}},
		{"KeyB", Playable{Left, -5}},
		{"Tab", Playable{Left, 7}},
		{"KeyN", Playable{Right, 0}},
		{"Slash", Playable{Right, -7}},
		{"Backslash", Playable{Right, 12}},
		{"KeyS", Modifier{Left, PropQuality, "min"}},
		{"Backquote", Modifier{Left, PropInversion, "up"}},
		{"ShiftLeft", Modifier{Left, PropInversion, "down"}},
		{"Enter", Modifier{Right, PropOctave, "up"}},
		{"Digit7", GlobalAdjust{Up}},
		{"Digit6", GlobalAdjust{Down}},
		{"Space", Clear{Both}},
		{"AltLeft", Clear{Left}},
	}

	km := Default()
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := km.Lookup(tt.code)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.code)
			}
			if got != tt.expected {
				t.Errorf("Lookup(%q) = %#v, want %#v", tt.code, got, tt.expected)
			}
		})
	}
}

func TestLookupUnmapped(t *testing.T) {
	for _, code := range []string{"KeyY", "F1", "", "keyr", "ControlLeft"} {
		if e, ok := Default().Lookup(code); ok {
			t.Errorf("Lookup(%q) = %v, want not found", code, e)
		}
	}
}

func TestDefaultLayoutCounts(t *testing.T) {
	km := Default()
	if km.Len() != 48 {
		t.Errorf("Len() = %d, want 48", km.Len())
	}
	if n := len(km.Playables(Left)); n != 13 {
		t.Errorf("left playables = %d, want 13", n)
	}
	right := km.Playables(Right)
	if len(right) != 20 {
		t.Fatalf("right playables = %d, want 20", len(right))
	}
	if right[0].Code != "Slash" || right[len(right)-1].Code != "Backslash" {
		t.Errorf("right playables not sorted by offset: first %s last %s", right[0].Code, right[len(right)-1].Code)
	}
}

func TestModifierValuesParse(t *testing.T) {
	for _, e := range Default().Entries() {
		m, ok := e.Effect.(Modifier)
		if !ok {
			continue
		}
		switch m.Property {
		case PropQuality:
			if q, ok := ParseQuality(m.Value); !ok || q == Maj {
				t.Errorf("%s: quality %q does not parse to a non-default quality", e.Code, m.Value)
			}
		case PropInversion, PropOctave:
			if d, ok := ParseDirection(m.Value); !ok || d == "" {
				t.Errorf("%s: direction %q does not parse", e.Code, m.Value)
			}
		default:
			t.Errorf("%s: unexpected property %q", e.Code, m.Property)
		}
	}
}

func TestNewLaterEntryWins(t *testing.T) {
	km := New([]Entry{
		{"KeyR", Playable{Left, 0}},
		{"KeyR", Clear{Both}},
	})
	if km.Len() != 1 {
		t.Errorf("Len() = %d, want 1", km.Len())
	}
	if e, _ := km.Lookup("KeyR"); e != (Clear{Both}) {
		t.Errorf("Lookup(KeyR) = %v, want clear both", e)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		effect   Effect
		expected string
	}{
		{Playable{Left, -3}, "left -3"},
		{Playable{Right, 4}, "right +4"},
		{Modifier{Left, PropQuality, "min7"}, "left quality=min7"},
		{GlobalAdjust{Up}, "transpose up"},
		{Clear{Both}, "clear both"},
	}
	for _, tt := range tests {
		if got := Describe(tt.effect); got != tt.expected {
			t.Errorf("Describe(%#v) = %q, want %q", tt.effect, got, tt.expected)
		}
	}
}
