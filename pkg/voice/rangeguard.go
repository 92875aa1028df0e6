package voice

import (
	"log/slog"

	"github.com/james-see/chordkeys/pkg/engine"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Policy decides what Range does with a pitch outside its bounds
type Policy string

const (
	// PolicyIgnore drops out-of-range calls
	PolicyIgnore Policy = "ignore"
	// PolicyClamp moves out-of-range pitches to the nearest bound
	PolicyClamp Policy = "clamp"
)

// ParsePolicy accepts "ignore" (also "") and "clamp"
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyIgnore, "":
		return PolicyIgnore, nil
	case PolicyClamp:
		return PolicyClamp, nil
	}
	return PolicyIgnore, errors.Errorf("unknown range policy %q (want ignore or clamp)", s)
}

// Range keeps calls to the next voice inside [Low, High]. Under clamping
// several pitches can land on one bound; the bound is played once and
// stopped when the last of them stops.
type Range struct {
	Low, High int
	Policy    Policy
	log       *slog.Logger
	count     *Refcount
}

// NewRange guards next with the given bounds and policy
func NewRange(next engine.Voice, low, high int, policy Policy) *Range {
	return &Range{
		Low:    low,
		High:   high,
		Policy: policy,
		log:    slog.Default(),
		count:  NewRefcount(next),
	}
}

func (r *Range) PlayNote(pitch int) {
	if p, ok := r.resolve(pitch); ok {
		r.count.PlayNote(p)
	}
}

func (r *Range) StopNote(pitch int) {
	if p, ok := r.resolve(pitch); ok {
		r.count.StopNote(p)
	}
}

func (r *Range) resolve(pitch int) (int, bool) {
	if pitch >= r.Low && pitch <= r.High {
		return pitch, true
	}
	if r.Policy == PolicyClamp {
		return clamp(pitch, r.Low, r.High), true
	}
	r.log.Debug("pitch out of range", "pitch", pitch, "low", r.Low, "high", r.High)
	return 0, false
}

func clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ engine.Voice = (*Range)(nil)
