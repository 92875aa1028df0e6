package voice

import (
	"sync"

	"github.com/james-see/chordkeys/pkg/engine"
)

// Refcount lets several players share one voice. Next hears the first play
// of a pitch and the stop that releases its last holder, so one player
// stopping a pitch never silences it for another. Refcount is safe for
// concurrent use.
type Refcount struct {
	mu   sync.Mutex
	next engine.Voice
	held map[int]int
}

// NewRefcount shares next between players
func NewRefcount(next engine.Voice) *Refcount {
	return &Refcount{next: next, held: make(map[int]int)}
}

func (r *Refcount) PlayNote(pitch int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.held[pitch]++
	if r.held[pitch] == 1 {
		r.next.PlayNote(pitch)
	}
}

func (r *Refcount) StopNote(pitch int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch n := r.held[pitch]; {
	case n > 1:
		r.held[pitch] = n - 1
	case n == 1:
		delete(r.held, pitch)
		r.next.StopNote(pitch)
	default:
		// stopping a silent pitch is allowed
		r.next.StopNote(pitch)
	}
}

// Holders returns how many plays of pitch are still unmatched by a stop
func (r *Refcount) Holders(pitch int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.held[pitch]
}

var _ engine.Voice = (*Refcount)(nil)
