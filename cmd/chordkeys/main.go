// Package main is the entry point for the chordkeys CLI
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/james-see/chordkeys/pkg/api"
	"github.com/james-see/chordkeys/pkg/config"
	"github.com/james-see/chordkeys/pkg/engine"
	"github.com/james-see/chordkeys/pkg/keymap"
	"github.com/james-see/chordkeys/pkg/tui"
	"github.com/james-see/chordkeys/pkg/voice"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	styleName  string
	voiceName  string
	logLevel   string
	logFile    string
	serverPort int
	serveSound bool

	chordOffset        int
	chordQuality       string
	chordInversion     string
	chordOctave        string
	chordTransposition int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chordkeys",
	Short: "Play chords and melodies from a computer keyboard",
	Long: `chordkeys turns a QWERTY keyboard into a two-handed instrument.

The left hand plays four-note chords on its root keys, shaped by held
quality and inversion modifiers. The right hand plays single notes with
octave modifiers. Notes sound until the same hand plays again or is cleared.

Examples:
  chordkeys play
  chordkeys play --style B --voice silent
  chordkeys keys
  chordkeys chord --offset 2 --quality min7 --inversion up
  chordkeys serve --port 8080`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Launch the terminal performance interface",
	RunE:  runPlay,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Print the key map",
	RunE:  runKeys,
}

var chordCmd = &cobra.Command{
	Use:   "chord",
	Short: "Print the notes a key would play",
	Args:  cobra.NoArgs,
	RunE:  runChord,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&styleName, "style", "s", "", "Inversion style (A or B)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	// play command
	playCmd.Flags().StringVar(&voiceName, "voice", "", "Sound backend (synth or silent)")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "Server port")
	serveCmd.Flags().BoolVar(&serveSound, "sound", false, "Also play every session on this machine's speaker")

	// chord command
	chordCmd.Flags().IntVarP(&chordOffset, "offset", "o", 0, "Root offset in semitones")
	chordCmd.Flags().StringVarP(&chordQuality, "quality", "q", "", "Quality (maj, maj7, dom7, min, min7, aug, dim)")
	chordCmd.Flags().StringVarP(&chordInversion, "inversion", "i", "", "Inversion (up or down)")
	chordCmd.Flags().StringVar(&chordOctave, "octave", "", "Right-hand octave (up or down)")
	chordCmd.Flags().IntVarP(&chordTransposition, "transposition", "t", engine.BaseTransposition, "Global transposition")

	// Add commands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(chordCmd)
}

// loadConfig merges the config file with any flags given on the command line
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("style") {
		cfg.InversionStyle = styleName
	}
	if flags.Changed("voice") {
		cfg.Voice = voiceName
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("port") {
		cfg.Server.Port = serverPort
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// newLogger writes to --log-file when given, otherwise to fallback
func newLogger(cfg config.Config, fallback io.Writer) (*slog.Logger, func(), error) {
	w, closeFn := fallback, func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open log file")
		}
		w, closeFn = f, func() { _ = f.Close() }
	}
	logger, err := cfg.Log.NewLogger(w)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

// startSynth opens the speaker; callers must Close the returned synth
func startSynth(cfg config.Config, logger *slog.Logger) (*voice.Synth, error) {
	synth, err := voice.NewSynth(cfg.SynthSettings())
	if err != nil {
		return nil, err
	}
	if err := synth.Start(); err != nil {
		return nil, err
	}
	logger.Info("synth started", "sample_rate", cfg.Synth.SampleRate, "waveform", cfg.Synth.Waveform)
	return synth, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// the alternate screen owns stdout/stderr while playing
	logger, closeLog, err := newLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	opts := tui.Options{
		Style:        cfg.Style(),
		ReleaseAfter: cfg.ReleaseAfter(),
		Bindings:     tui.DefaultBindings().With(cfg.TUI.Bindings),
		MaxLog:       cfg.TUI.MaxLog,
		Logger:       logger,
		Voice:        cfg.Guard(voice.Silent{}),
	}
	if cfg.Voice == config.VoiceSynth {
		synth, err := startSynth(cfg, logger)
		if err != nil {
			return err
		}
		defer synth.Close()
		opts.Voice = cfg.Guard(synth)
		opts.OnQuit = synth.StopAll
	}

	return tui.Run(opts)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	opts := api.Options{
		Style:          cfg.Style(),
		MaxSessions:    cfg.Server.MaxSessions,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Guard:          func(v engine.Voice) engine.Voice { return cfg.Guard(v) },
		Logger:         logger,
	}
	if serveSound {
		synth, err := startSynth(cfg, logger)
		if err != nil {
			return err
		}
		defer synth.Close()
		opts.Voice = synth
	}

	fmt.Printf("Starting API server on port %d...\n", cfg.Server.Port)
	return api.StartServer(cfg.Server.Port, opts)
}

func runKeys(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	bindings := tui.DefaultBindings().With(cfg.TUI.Bindings)

	rows := make([][]string, 0)
	for _, e := range keymap.Default().Entries() {
		term := bindings.KeyFor(e.Code)
		if term == " " {
			term = "space"
		}
		rows = append(rows, []string{e.Code, term, e.Effect.Kind(), keymap.Describe(e.Effect)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("CODE", "TERMINAL", "KIND", "EFFECT").
		Rows(rows...)
	fmt.Println(t.String())
	return nil
}

func runChord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	q, ok := keymap.ParseQuality(chordQuality)
	if !ok {
		return errors.Errorf("unknown quality %q", chordQuality)
	}
	inv, ok := keymap.ParseDirection(chordInversion)
	if !ok {
		return errors.Errorf("inversion must be up or down, got %q", chordInversion)
	}
	oct, ok := keymap.ParseDirection(chordOctave)
	if !ok {
		return errors.Errorf("octave must be up or down, got %q", chordOctave)
	}

	state := engine.NewState()
	state.Transposition = chordTransposition
	state.Left = engine.LeftModifiers{Inversion: inv, Quality: q}
	state.Right = engine.RightModifiers{Octave: oct}

	left := engine.LeftChord(state, chordOffset, cfg.Style())
	right := engine.RightNote(state, chordOffset)

	fmt.Printf("left  %s%s: %s (%s)\n", q.Label(), inversionSuffix(inv), joinInts(left), strings.Join(engine.NoteNames(left), " "))
	fmt.Printf("right %s (%s)\n", strconv.Itoa(right), engine.NoteName(right))
	return nil
}

func inversionSuffix(d keymap.Direction) string {
	if d == "" {
		return ""
	}
	return " " + string(d)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, " ")
}
