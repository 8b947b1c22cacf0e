// Pilot radio console rendered with bubbletea.
package comlink

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"

	"stratus-atc/internal/ollama"
	"stratus-atc/internal/telemetry"
	"stratus-atc/internal/warmup"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// pilotMsg echoes a submitted pilot transmission into the transcript.
type pilotMsg struct{ text string }

// chunkMsg carries one streamed response chunk.
type chunkMsg struct{ chunk ollama.StreamChunk }

// statsMsg carries a warmup stats update for the footer.
type statsMsg struct{ warmup.Stats }

// telemetryMsg carries a telemetry snapshot for the footer.
type telemetryMsg struct{ telemetry.Snapshot }

// statusMsg carries a status line (availability, errors).
type statusMsg struct{ line string }

var (
	pilotStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	atcStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).
			BorderStyle(lipgloss.NormalBorder()).BorderTop(true)
)

// ComLink owns the console program. Pilot transmissions are handed to
// the submit callback; responses stream back via AppendChunk.
type ComLink struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// New starts the console. submit runs on its own goroutine per
// transmission; it must not block forever.
func New(callsign string, submit func(string)) *ComLink {
	c := &ComLink{done: make(chan struct{})}
	c.sendSignal.Store(true)
	m := newModel(callsign, submit)
	p := tea.NewProgram(m, tea.WithAltScreen())
	c.program = p
	go func() {
		_, _ = p.Run()
		close(c.done)
		if c.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return c
}

// AppendPilot echoes a transmission submitted outside the console.
func (c *ComLink) AppendPilot(text string) {
	c.program.Send(pilotMsg{text: text})
}

// AppendChunk renders one streamed response chunk.
func (c *ComLink) AppendChunk(chunk ollama.StreamChunk) {
	c.program.Send(chunkMsg{chunk: chunk})
}

// SetStats updates the warmup footer.
func (c *ComLink) SetStats(st warmup.Stats) {
	c.program.Send(statsMsg{Stats: st})
}

// SetTelemetry updates the aircraft footer.
func (c *ComLink) SetTelemetry(snap telemetry.Snapshot) {
	c.program.Send(telemetryMsg{Snapshot: snap})
}

// Status prints a status line into the transcript.
func (c *ComLink) Status(line string) {
	c.program.Send(statusMsg{line: line})
}

// Close shuts the console down and waits for terminal cleanup.
func (c *ComLink) Close() error {
	c.sendSignal.Store(false)
	if c.program != nil {
		c.program.Send(tea.Quit())
	}
	if c.done != nil {
		<-c.done
	}
	return nil
}

type model struct {
	callsign string
	submit   func(string)

	vp      viewport.Model
	input   textinput.Model
	lines   []string
	partial string

	stats    warmup.Stats
	snap     telemetry.Snapshot
	haveSnap bool

	wrap       bool
	autoscroll bool
	width      int
	height     int
}

func newModel(callsign string, submit func(string)) model {
	input := textinput.New()
	input.Placeholder = "transmission"
	input.Prompt = callsign + " > "
	input.Focus()

	// WindowSizeMsg arrives once the program runs; size from the tty
	// covers the first frame.
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}

	vp := viewport.New(width, height-3)
	return model{
		callsign:   callsign,
		submit:     submit,
		vp:         vp,
		input:      input,
		autoscroll: true,
		width:      width,
		height:     height,
	}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.vp.Height = msg.Height - lipgloss.Height(m.footer()) - 1
		m.refresh()
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			m.appendLine(pilotStyle.Render("PILOT: " + text))
			if m.submit != nil {
				go m.submit(text)
			}
			return m, nil
		case tea.KeyCtrlW:
			m.wrap = !m.wrap
			m.refresh()
			return m, nil
		case tea.KeyCtrlS:
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case tea.KeyPgUp:
			m.vp.LineUp(10)
			return m, nil
		case tea.KeyPgDown:
			m.vp.LineDown(10)
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	case pilotMsg:
		m.appendLine(pilotStyle.Render("PILOT: " + msg.text))
	case chunkMsg:
		if m.partial == "" {
			m.partial = "ATC: " + msg.chunk.Text
		} else {
			m.partial += " " + msg.chunk.Text
		}
		if msg.chunk.Final {
			line := atcStyle.Render(m.partial)
			line += statusStyle.Render(fmt.Sprintf("  [%dms]", msg.chunk.LatencyMs))
			m.partial = ""
			m.appendLine(line)
		} else {
			m.refresh()
		}
	case statsMsg:
		m.stats = msg.Stats
	case telemetryMsg:
		m.snap = msg.Snapshot
		m.haveSnap = true
	case statusMsg:
		m.appendLine(statusStyle.Render(msg.line))
	}
	return m, nil
}

func (m *model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.refresh()
}

func (m *model) refresh() {
	lines := m.lines
	if m.partial != "" {
		lines = append(append([]string{}, m.lines...), atcStyle.Render(m.partial))
	}
	if m.wrap && m.vp.Width > 0 {
		wrapped := make([]string, 0, len(lines))
		for _, l := range lines {
			wrapped = append(wrapped, wordwrap.String(l, m.vp.Width))
		}
		lines = wrapped
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m model) footer() string {
	hb := "hb stopped"
	if m.stats.Running {
		hb = fmt.Sprintf("hb %d · %dms", m.stats.Count, m.stats.LastLatencyMs)
		if m.stats.Paused {
			hb += " · paused"
		}
	}
	pos := "no telemetry"
	if m.haveSnap {
		pos = fmt.Sprintf("%s · %.0f m MSL · hdg %03.0f · sq %04d",
			m.snap.Aircraft,
			m.snap.Position.AltMSLM,
			m.snap.Orientation.HeadingMag,
			m.snap.Transponder.Code)
	}
	return footerStyle.Width(m.width).Render(pos + "  |  " + hb)
}

func (m model) View() string {
	return m.vp.View() + "\n" + m.input.View() + "\n" + m.footer()
}
