// Package tui provides the terminal performance interface for chordkeys
package tui

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/chordkeys/pkg/engine"
	"github.com/james-see/chordkeys/pkg/keymap"
	"github.com/james-see/chordkeys/pkg/voice"
	"gitlab.com/gomidi/midi/v2"
)

// Ivory-and-ebony color scheme
var (
	ivory     = lipgloss.Color("#FFFFF0")
	brass     = lipgloss.Color("#D4A017")
	felt      = lipgloss.Color("#8B0000")
	ebony     = lipgloss.Color("#1C1C1C")
	slateGray = lipgloss.Color("#708090")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(brass).
			Background(ebony).
			Padding(0, 2).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(slateGray)

	valueStyle = lipgloss.NewStyle().
			Foreground(ivory).
			Bold(true)

	activeStyle = lipgloss.NewStyle().
			Foreground(ebony).
			Background(brass).
			Bold(true).
			Padding(0, 1)

	noteStyle = lipgloss.NewStyle().
			Foreground(brass).
			Bold(true)

	logStyle = lipgloss.NewStyle().
			Foreground(slateGray)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(felt).
			Padding(1, 2).
			Width(36)
)

// Options configures the performance UI
type Options struct {
	// Voice receives every play/stop call; nil means silence
	Voice        engine.Voice
	Style        engine.InversionStyle
	ReleaseAfter time.Duration
	Bindings     Bindings
	MaxLog       int
	Logger       *slog.Logger
	// OnQuit runs after the engine is silenced on exit
	OnQuit func()
}

type controlKeys struct {
	Quit  key.Binding
	Reset key.Binding
	Help  key.Binding
}

func (k controlKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Reset, k.Help}
}

func (k controlKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Reset, k.Help},
		{
			key.NewBinding(key.WithKeys("b"), key.WithHelp("b…tab", "left-hand roots")),
			key.NewBinding(key.WithKeys("/"), key.WithHelp("/…\\", "right-hand notes")),
		},
		{
			key.NewBinding(key.WithKeys("a"), key.WithHelp("a z s x d c", "maj7 dom7 min min7 aug dim")),
			key.NewBinding(key.WithKeys("`"), key.WithHelp("` ~", "invert up/down")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter ?", "octave up/down")),
		},
		{
			key.NewBinding(key.WithKeys("7"), key.WithHelp("7 6", "transpose up/down")),
			key.NewBinding(key.WithKeys("<"), key.WithHelp("< > space", "clear left/right/both")),
		},
	}
}

var controls = controlKeys{
	Quit:  key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	Reset: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
	Help:  key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "more keys")),
}

// panels holds what the engine last reported for each hand. It is shared
// by pointer so the engine observer can fill it in during Update.
type panels struct {
	left, right       engine.HandState
	hasLeft, hasRight bool
	log               []string
	maxLog            int
}

func (p *panels) HandStateChanged(hs engine.HandState) {
	switch hs.Hand {
	case keymap.Left:
		p.left, p.hasLeft = hs, true
	case keymap.Right:
		p.right, p.hasRight = hs, true
	}
}

func (p *panels) record(msg midi.Message) {
	p.log = append(p.log, msg.String())
	if len(p.log) > p.maxLog {
		p.log = p.log[len(p.log)-p.maxLog:]
	}
}

// Model represents the TUI model
type Model struct {
	engine   *engine.Engine
	bindings Bindings
	input    *heldKeys
	panels   *panels
	help     help.Model
	lastCode string
	onQuit   func()
	width    int
	height   int
}

// New creates a new TUI model
func New(opts Options) Model {
	if opts.Voice == nil {
		opts.Voice = voice.Silent{}
	}
	if opts.Bindings == nil {
		opts.Bindings = DefaultBindings()
	}
	if opts.ReleaseAfter <= 0 {
		opts.ReleaseAfter = 600 * time.Millisecond
	}
	if opts.MaxLog <= 0 {
		opts.MaxLog = 8
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p := &panels{maxLog: opts.MaxLog}
	eng := engine.New(
		voice.Fanout{opts.Voice, voice.NewMIDI(p.record)},
		engine.WithInversionStyle(opts.Style),
		engine.WithObserver(p),
		engine.WithLogger(opts.Logger),
	)

	return Model{
		engine:   eng,
		bindings: opts.Bindings,
		input:    newHeldKeys(opts.ReleaseAfter),
		panels:   p,
		help:     help.New(),
		onQuit:   opts.OnQuit,
	}
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return m.input.waitForRelease()
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case keyReleasedMsg:
		if m.input.release(msg.code) {
			m.engine.KeyUp(msg.code)
		}
		return m, m.input.waitForRelease()
	}

	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, controls.Quit):
		m.engine.Reset()
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit
	case key.Matches(msg, controls.Reset):
		m.engine.Reset()
		m.panels.hasLeft, m.panels.hasRight = false, false
		return m, nil
	case key.Matches(msg, controls.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	code, ok := m.bindings.Translate(msg.String())
	if !ok {
		return m, nil
	}
	if m.input.press(code) && m.engine.KeyDown(code) {
		m.lastCode = code
	}
	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(logo())
	s.WriteString("\n")

	state := m.engine.Snapshot()
	hands := lipgloss.JoinHorizontal(lipgloss.Top, m.viewLeft(state), m.viewRight(state))
	s.WriteString(hands)
	s.WriteString("\n")
	s.WriteString(m.viewStatus(state))
	s.WriteString("\n\n")
	s.WriteString(m.viewLog())
	s.WriteString("\n")
	s.WriteString(m.help.View(controls))

	return s.String()
}

func (m Model) viewLeft(state engine.State) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(" LEFT HAND "))
	s.WriteString("\n")

	s.WriteString(field("quality", modifierTag(state.Left.Quality.Label(), state.Left.Quality != keymap.Maj)))
	s.WriteString(field("inversion", modifierTag(orDash(string(state.Left.Inversion)), state.Left.Inversion != "")))

	if m.panels.hasLeft {
		hs := m.panels.left
		s.WriteString(field("last", valueStyle.Render(fmt.Sprintf("%+d %s %s", hs.Offset, hs.Quality.Label(), string(hs.Inversion)))))
	}
	s.WriteString(field("sounding", noteStyle.Render(orDash(strings.Join(engine.NoteNames(state.PreviousLeft), " ")))))

	return boxStyle.Render(s.String())
}

func (m Model) viewRight(state engine.State) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(" RIGHT HAND "))
	s.WriteString("\n")

	s.WriteString(field("octave", modifierTag(orDash(string(state.Right.Octave)), state.Right.Octave != "")))

	if m.panels.hasRight {
		hs := m.panels.right
		s.WriteString(field("last", valueStyle.Render(fmt.Sprintf("%+d %s", hs.Offset, string(hs.Octave)))))
	}
	sounding := "-"
	if state.HasRight {
		sounding = engine.NoteName(state.PreviousRight)
	}
	s.WriteString(field("sounding", noteStyle.Render(sounding)))

	return boxStyle.Render(s.String())
}

func (m Model) viewStatus(state engine.State) string {
	root := engine.NoteName(state.Transposition)
	status := fmt.Sprintf("transposition %d (root %s)  inversion style %s", state.Transposition, root, m.engine.Style())
	if m.lastCode != "" {
		status += "  last key " + m.lastCode
	}
	return labelStyle.Render(status)
}

func (m Model) viewLog() string {
	if len(m.panels.log) == 0 {
		return logStyle.Render("no notes yet")
	}
	return logStyle.Render(strings.Join(m.panels.log, "\n"))
}

func field(label, value string) string {
	return fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-10s", label)), value)
}

func modifierTag(value string, active bool) string {
	if active {
		return activeStyle.Render(value)
	}
	return valueStyle.Render(value)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func logo() string {
	logo := `
   ___ _                _ _  __
  / __| |_  ___ _ _ __| | |/ /___ _  _ ___
 | (__| ' \/ _ \ '_/ _' | ' </ -_) || (_-<
  \___|_||_\___/_| \__,_|_|\_\___|\_, /__/
                                  |__/
`
	return lipgloss.NewStyle().Foreground(brass).Render(logo)
}

// Run starts the TUI application
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
