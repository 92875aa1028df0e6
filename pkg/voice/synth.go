package voice

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/james-see/chordkeys/pkg/engine"
	"github.com/pkg/errors"
)

// Waveform names an oscillator shape
type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveTriangle Waveform = "triangle"
	WaveSquare   Waveform = "square"
	WaveSaw      Waveform = "saw"
)

// SynthConfig sets up a Synth
type SynthConfig struct {
	SampleRate int
	Buffer     time.Duration
	Attack     time.Duration
	Release    time.Duration
	Gain       float64
	Waveform   Waveform
}

// DefaultSynthConfig is a soft triangle with a half second release
func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		SampleRate: 44100,
		Buffer:     50 * time.Millisecond,
		Attack:     10 * time.Millisecond,
		Release:    500 * time.Millisecond,
		Gain:       0.15,
		Waveform:   WaveTriangle,
	}
}

// Validate checks the config for values the synth cannot run with
func (c SynthConfig) Validate() error {
	if c.SampleRate < 8000 {
		return errors.Errorf("sample rate %d too low", c.SampleRate)
	}
	if c.Buffer <= 0 {
		return errors.New("buffer must be positive")
	}
	if c.Attack < 0 || c.Release < 0 {
		return errors.New("attack and release must not be negative")
	}
	if c.Gain <= 0 || c.Gain > 1 {
		return errors.Errorf("gain %.2f outside (0, 1]", c.Gain)
	}
	if _, ok := oscillators[c.Waveform]; !ok {
		return errors.Errorf("unknown waveform %q", c.Waveform)
	}
	return nil
}

var oscillators = map[Waveform]func(phase float64) float64{
	WaveSine: func(ph float64) float64 { return math.Sin(2 * math.Pi * ph) },
	WaveTriangle: func(ph float64) float64 {
		return 4*math.Abs(ph-math.Floor(ph+0.5)) - 1
	},
	WaveSquare: func(ph float64) float64 {
		if ph < 0.5 {
			return 1
		}
		return -1
	},
	WaveSaw: func(ph float64) float64 { return 2*ph - 1 },
}

// Synth is a small polyphonic synthesizer. Each pitch gets one oscillator
// with a linear attack/release envelope. Synth is a beep.Streamer; Start
// plays it on the system speaker.
type Synth struct {
	mu          sync.Mutex
	cfg         SynthConfig
	sr          beep.SampleRate
	osc         func(float64) float64
	attackStep  float64
	releaseStep float64
	voices      map[int]*synthVoice
}

type synthVoice struct {
	freq      float64
	phase     float64
	level     float64
	releasing bool
}

// NewSynth builds a Synth without touching the audio device
func NewSynth(cfg SynthConfig) (*Synth, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid synth config")
	}
	sr := beep.SampleRate(cfg.SampleRate)
	return &Synth{
		cfg:         cfg,
		sr:          sr,
		osc:         oscillators[cfg.Waveform],
		attackStep:  envelopeStep(sr, cfg.Attack),
		releaseStep: envelopeStep(sr, cfg.Release),
		voices:      make(map[int]*synthVoice),
	}, nil
}

func envelopeStep(sr beep.SampleRate, d time.Duration) float64 {
	n := sr.N(d)
	if n < 1 {
		return 1
	}
	return 1 / float64(n)
}

// Start opens the speaker and begins streaming
func (s *Synth) Start() error {
	if err := speaker.Init(s.sr, s.sr.N(s.cfg.Buffer)); err != nil {
		return errors.Wrap(err, "failed to initialise speaker")
	}
	speaker.Play(s)
	return nil
}

// Close stops playback and releases the audio device
func (s *Synth) Close() {
	speaker.Clear()
	speaker.Close()
}

// Frequency returns the equal-tempered frequency of a pitch index (A4 = 440Hz)
func Frequency(pitch int) float64 {
	return 440 * math.Pow(2, float64(pitch-57)/12)
}

// PlayNote starts pitch, restarting its envelope if it is still releasing
func (s *Synth) PlayNote(pitch int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.voices[pitch]; ok {
		v.releasing = false
		return
	}
	s.voices[pitch] = &synthVoice{freq: Frequency(pitch)}
}

// StopNote lets pitch fade out over the release time
func (s *Synth) StopNote(pitch int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.voices[pitch]; ok {
		v.releasing = true
	}
}

// StopAll releases every sounding pitch
func (s *Synth) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.voices {
		v.releasing = true
	}
}

// Active returns the number of voices still producing sound
func (s *Synth) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.voices)
}

// Stream mixes all voices into samples. It never runs dry.
func (s *Synth) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rate := float64(s.sr)
	for i := range samples {
		var out float64
		for pitch, v := range s.voices {
			if v.releasing {
				v.level -= s.releaseStep
				if v.level <= 0 {
					delete(s.voices, pitch)
					continue
				}
			} else if v.level < 1 {
				v.level = math.Min(1, v.level+s.attackStep)
			}
			out += s.osc(v.phase) * v.level * s.cfg.Gain
			_, v.phase = math.Modf(v.phase + v.freq/rate)
		}
		out = math.Max(-1, math.Min(1, out))
		samples[i][0] = out
		samples[i][1] = out
	}
	return len(samples), true
}

func (s *Synth) Err() error {
	return nil
}

var (
	_ engine.Voice  = (*Synth)(nil)
	_ beep.Streamer = (*Synth)(nil)
)
