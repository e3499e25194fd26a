// Package chat implements the interactive terminal client for the
// assistant service. The chat functionality is split across files:
//   - model.go: Types, Init, Update loop (this file)
//   - display.go: Query cycle events delivered into the update loop
//   - commands.go: /command handling
//   - view.go: Rendering functions
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"baymax/cmd/baymax/ui"
	"baymax/internal/assistant"
	"baymax/internal/audio"
	"baymax/internal/logging"
	"baymax/internal/orchestrator"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const greeting = "Halo, saya Baymax, pendamping kesehatan pribadi Anda. Apa yang bisa saya bantu hari ini?"

// Options configures the interactive chat session.
type Options struct {
	// BaseURL points at the assistant service.
	BaseURL string

	// VoiceMode selects the synthesis voice (pro, max, kids).
	VoiceMode string

	// UseRetrieval grounds answers in the knowledge index.
	UseRetrieval bool

	// Player overrides the audio player binary; empty auto-detects.
	Player string
}

// Message is one transcript entry.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
	Sources string // rendered citation line, assistant messages only
	Time    time.Time
}

// Model is the main model for the interactive chat interface
type Model struct {
	// UI Components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   ui.Styles
	renderer *glamour.TermRenderer

	// Conversation state
	history       []Message
	statusMessage string
	isLoading     bool

	// Input history for up/down recall
	inputHistory []string
	historyIndex int

	// Submission settings
	useRetrieval bool
	voiceMode    string

	// Query cycle plumbing
	orch   *orchestrator.Orchestrator
	player *audio.Player
	events chan Event

	// Layout
	width  int
	height int
	ready  bool
}

// NewModel builds the chat model and wires the query cycle behind it.
func NewModel(opts Options) Model {
	styles := ui.DefaultStyles()

	ta := textarea.New()
	ta.Placeholder = "Tanya Baymax... (Enter untuk kirim, Ctrl+C untuk keluar)"
	ta.Focus()
	ta.Prompt = "| "
	ta.CharLimit = 4096
	ta.SetWidth(80)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// Markdown renderer for assistant answers
	var renderer *glamour.TermRenderer
	if styles.Theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
	} else {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(80),
		)
	}

	voice := opts.VoiceMode
	if voice == "" {
		voice = "pro"
	}

	events := make(chan Event, eventBuffer)
	client := assistant.NewClient(opts.BaseURL)

	// The TUI owns the terminal, so the cycle and the player log nowhere.
	orch := orchestrator.New(client, NewDisplay(events), logging.Nop())
	player := audio.NewPlayer(opts.Player, logging.Nop())

	m := Model{
		textarea:     ta,
		viewport:     vp,
		spinner:      sp,
		styles:       styles,
		renderer:     renderer,
		useRetrieval: opts.UseRetrieval,
		voiceMode:    voice,
		orch:         orch,
		player:       player,
		events:       events,
	}
	m.history = append(m.history, Message{
		Role:    "assistant",
		Content: greeting,
		Time:    time.Now(),
	})
	return m
}

// Init starts the cursor blink, the spinner, and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		tea.EnableMouseCellMotion,
		m.waitForEvent(),
	)
}

// submitDoneMsg reports that one query cycle finished; everything the
// UI shows arrives separately through display events.
type submitDoneMsg struct {
	err error
}

// submitCmd runs one query cycle off the UI goroutine.
func (m Model) submitCmd(input string) tea.Cmd {
	return func() tea.Msg {
		err := m.orch.Submit(context.Background(), input, m.useRetrieval, m.voiceMode)
		return submitDoneMsg{err: err}
	}
}

// Update is the bubbletea message loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.player.Stop()
			return m, tea.Quit

		case tea.KeyCtrlR:
			m.useRetrieval = !m.useRetrieval
			return m, nil

		case tea.KeyEnter:
			// Alt+Enter and bracketed paste insert newlines instead
			if msg.Alt || msg.Paste {
				break
			}
			if !m.isLoading {
				return m.handleSubmit()
			}
			return m, nil

		case tea.KeyUp:
			// History previous (if at top line)
			if m.textarea.Line() == 0 {
				if m.historyIndex > 0 {
					m.historyIndex--
					m.textarea.SetValue(m.inputHistory[m.historyIndex])
					m.textarea.CursorEnd()
				}
				return m, nil
			}

		case tea.KeyDown:
			// History next (if at bottom line)
			if m.textarea.Line() == m.textarea.LineCount()-1 {
				if m.historyIndex < len(m.inputHistory) {
					m.historyIndex++
					if m.historyIndex == len(m.inputHistory) {
						m.textarea.SetValue("")
					} else {
						m.textarea.SetValue(m.inputHistory[m.historyIndex])
						m.textarea.CursorEnd()
					}
				}
				return m, nil
			}

		case tea.KeyPgUp, tea.KeyPgDown:
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.MouseMsg:
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, vpCmd

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}
		return m, nil

	case eventMsg:
		m.applyEvent(Event(msg))
		return m, m.waitForEvent()

	case submitDoneMsg:
		// Busy and status bookkeeping arrive through display events;
		// the only direct error is a submission racing a running cycle.
		if errors.Is(msg.err, orchestrator.ErrBusy) {
			m.statusMessage = "Masih memproses pertanyaan sebelumnya..."
		}
		return m, nil
	}

	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

// handleSubmit processes the textarea content on Enter.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}

	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	m.history = append(m.history, Message{
		Role:    "user",
		Content: input,
		Time:    time.Now(),
	})

	// Record input history for up/down recall
	if len(m.inputHistory) == 0 || m.inputHistory[len(m.inputHistory)-1] != input {
		m.inputHistory = append(m.inputHistory, input)
	}
	m.historyIndex = len(m.inputHistory)

	m.textarea.Reset()
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	m.isLoading = true
	m.statusMessage = ""

	return m, tea.Batch(m.spinner.Tick, m.submitCmd(input))
}

// applyEvent folds one query cycle mutation into the UI state.
func (m *Model) applyEvent(ev Event) {
	switch ev.Kind {
	case eventBusy:
		m.isLoading = ev.Busy

	case eventStatus:
		m.statusMessage = ev.Text

	case eventAnswer:
		m.history = append(m.history, Message{
			Role:    "assistant",
			Content: ev.Text,
			Time:    time.Now(),
		})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case eventSources:
		// A cleared source line has no transcript effect; sources stay
		// with the answer they annotate.
		if ev.Text == "" {
			return
		}
		for i := len(m.history) - 1; i >= 0; i-- {
			if m.history[i].Role == "assistant" {
				m.history[i].Sources = ev.Text
				break
			}
		}
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case eventAudio:
		if ev.Clip == nil {
			m.player.Stop()
			return
		}
		if err := m.player.Play(ev.Clip); err != nil {
			m.statusMessage = "Gagal memutar audio: " + err.Error()
		}
	}
}

// layout recomputes component sizes after a terminal resize.
func (m *Model) layout() {
	headerHeight := 2
	footerHeight := 2
	inputHeight := 3

	calcHeight := m.height - headerHeight - footerHeight - inputHeight
	if calcHeight < 1 {
		calcHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(m.width, calcHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = calcHeight
	}

	// Reduce input width to accommodate border (2) + padding (2)
	m.textarea.SetWidth(m.width - 4)

	// Update renderer word wrap and re-render the transcript
	if m.renderer != nil {
		wrap := m.width - 4
		if wrap < 20 {
			wrap = 20
		}
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

// Run starts the interactive chat and blocks until the user quits.
func Run(opts Options) error {
	m := NewModel(opts)
	defer m.player.Stop()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
