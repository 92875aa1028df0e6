// Package config loads chordkeys settings from defaults, a YAML file and flags
package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/james-see/chordkeys/pkg/engine"
	"github.com/james-see/chordkeys/pkg/voice"
	"github.com/pkg/errors"
)

// Voice backends
const (
	VoiceSynth  = "synth"
	VoiceSilent = "silent"
)

// Config is the full application configuration
type Config struct {
	InversionStyle string       `yaml:"inversion_style"`
	Voice          string       `yaml:"voice"`
	Range          RangeConfig  `yaml:"range"`
	Synth          SynthConfig  `yaml:"synth"`
	TUI            TUIConfig    `yaml:"tui"`
	Server         ServerConfig `yaml:"server"`
	Log            LogConfig    `yaml:"log"`
}

// RangeConfig bounds the pitches handed to the sound backend
type RangeConfig struct {
	Low    int    `yaml:"low"`
	High   int    `yaml:"high"`
	Policy string `yaml:"policy"`
}

// SynthConfig mirrors voice.SynthConfig with millisecond fields
type SynthConfig struct {
	SampleRate int     `yaml:"sample_rate"`
	BufferMS   int     `yaml:"buffer_ms"`
	AttackMS   int     `yaml:"attack_ms"`
	ReleaseMS  int     `yaml:"release_ms"`
	Gain       float64 `yaml:"gain"`
	Waveform   string  `yaml:"waveform"`
}

// TUIConfig controls the terminal front end
type TUIConfig struct {
	// ReleaseAfterMS is how long a key must stay quiet before it counts as
	// released. It has to exceed the terminal's auto-repeat delay.
	ReleaseAfterMS int `yaml:"release_after_ms"`
	// Bindings adds or overrides terminal key -> KeyboardEvent.code entries
	Bindings map[string]string `yaml:"bindings"`
	// MaxLog is the number of recent voice messages shown
	MaxLog int `yaml:"max_log"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxSessions    int      `yaml:"max_sessions"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration
func Default() Config {
	s := voice.DefaultSynthConfig()
	return Config{
		InversionStyle: "A",
		Voice:          VoiceSynth,
		Range: RangeConfig{
			Low:    engine.LowestPitch,
			High:   engine.HighestPitch,
			Policy: string(voice.PolicyIgnore),
		},
		Synth: SynthConfig{
			SampleRate: s.SampleRate,
			BufferMS:   int(s.Buffer / time.Millisecond),
			AttackMS:   int(s.Attack / time.Millisecond),
			ReleaseMS:  int(s.Release / time.Millisecond),
			Gain:       s.Gain,
			Waveform:   string(s.Waveform),
		},
		TUI: TUIConfig{
			ReleaseAfterMS: 600,
			MaxLog:         8,
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
			MaxSessions:    64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config")
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML data into cfg, keeping fields the data leaves out
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrap(err, "failed to parse YAML")
	}
	return cfg.Validate()
}

// Validate checks every section
func (c Config) Validate() error {
	if _, err := engine.ParseInversionStyle(c.InversionStyle); err != nil {
		return errors.Wrap(err, "inversion_style")
	}
	switch c.Voice {
	case VoiceSynth, VoiceSilent:
	default:
		return errors.Errorf("voice: unknown backend %q", c.Voice)
	}
	if c.Range.Low > c.Range.High {
		return errors.Errorf("range: low %d above high %d", c.Range.Low, c.Range.High)
	}
	if _, err := voice.ParsePolicy(c.Range.Policy); err != nil {
		return errors.Wrap(err, "range")
	}
	if c.Voice == VoiceSynth {
		if err := c.SynthSettings().Validate(); err != nil {
			return errors.Wrap(err, "synth")
		}
	}
	if c.TUI.ReleaseAfterMS <= 0 {
		return errors.New("tui: release_after_ms must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("server: invalid port %d", c.Server.Port)
	}
	if c.Server.MaxSessions <= 0 {
		return errors.New("server: max_sessions must be positive")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log")
	}
	return nil
}

// Style returns the parsed inversion style
func (c Config) Style() engine.InversionStyle {
	s, _ := engine.ParseInversionStyle(c.InversionStyle)
	return s
}

// SynthSettings converts the synth section for voice.NewSynth
func (c Config) SynthSettings() voice.SynthConfig {
	return voice.SynthConfig{
		SampleRate: c.Synth.SampleRate,
		Buffer:     time.Duration(c.Synth.BufferMS) * time.Millisecond,
		Attack:     time.Duration(c.Synth.AttackMS) * time.Millisecond,
		Release:    time.Duration(c.Synth.ReleaseMS) * time.Millisecond,
		Gain:       c.Synth.Gain,
		Waveform:   voice.Waveform(c.Synth.Waveform),
	}
}

// Guard wraps next in the configured range guard
func (c Config) Guard(next engine.Voice) *voice.Range {
	policy, _ := voice.ParsePolicy(c.Range.Policy)
	return voice.NewRange(next, c.Range.Low, c.Range.High, policy)
}

// ReleaseAfter returns the TUI release delay
func (c Config) ReleaseAfter() time.Duration {
	return time.Duration(c.TUI.ReleaseAfterMS) * time.Millisecond
}

// NewLogger builds the slog logger described by the log section
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(l.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, errors.Errorf("unknown log format %q", l.Format)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, errors.Errorf("unknown log level %q", s)
	}
	return level, nil
}
