package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"smart-study-buddy/internal/domain"
	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/infra/i18n"
	"smart-study-buddy/internal/infra/logging"
	"smart-study-buddy/internal/infra/render"
	"smart-study-buddy/internal/usecase"
)

const (
	uploadCmd = "/upload"
	quitCmd   = "/quit"

	headerHeight = 2
	footerHeight = 4
)

type (
	exchangeDoneMsg struct{ c usecase.Completion }
	uploadDoneMsg   struct{ o usecase.UploadOutcome }
)

type Options struct {
	// MarkdownStyle is a glamour standard style name; empty picks one from the terminal.
	MarkdownStyle string
	OpenFile      func(path string) (model.File, error)
}

// Model is the bubbletea front-end over one session. Every session call runs
// inside Update; network and file work runs in the commands it returns.
type Model struct {
	ctx     context.Context
	session usecase.SessionUseCase
	render  *render.Renderer
	labels  *i18n.Translator
	md      *glamour.TermRenderer
	mdStyle string
	open    func(path string) (model.File, error)
	log     *zerolog.Logger

	input  textinput.Model
	vp     viewport.Model
	spin   spinner.Model
	styles styles
	status string
}

func New(ctx context.Context, s usecase.SessionUseCase, r *render.Renderer, labels *i18n.Translator, opts Options, log *zerolog.Logger) Model {
	if log == nil {
		log = logging.Nop()
	}
	if opts.OpenFile == nil {
		opts.OpenFile = FileFromPath
	}
	ti := textinput.New()
	ti.Placeholder = "Ask a question, or /upload <path> (Enter to send, Esc to quit)"
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:     ctx,
		session: s,
		render:  r,
		labels:  labels,
		mdStyle: opts.MarkdownStyle,
		open:    opts.OpenFile,
		log:     log,
		input:   ti,
		vp:      viewport.New(80, 20),
		spin:    sp,
		styles:  defaultStyles(),
	}
	m.md = m.newMarkdown(80)
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleSubmit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.vp.Width = msg.Width
		m.vp.Height = max(msg.Height-headerHeight-footerHeight, 3)
		m.input.Width = max(msg.Width-4, 10)
		m.md = m.newMarkdown(msg.Width - 4)
		m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case exchangeDoneMsg:
		m.session.Complete(msg.c)
		m.status = ""
		m.input.Focus()
		m.refresh()
		return m, textinput.Blink

	case uploadDoneMsg:
		m.session.CompleteUpload(msg.o)
		m.status = ""
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	switch {
	case text == quitCmd:
		return m, tea.Quit
	case text == uploadCmd || strings.HasPrefix(text, uploadCmd+" "):
		return m.handleUpload(strings.TrimSpace(strings.TrimPrefix(text, uploadCmd)))
	}

	// The composer is blurred while an answer is pending.
	if !m.input.Focused() {
		return m, nil
	}
	m.session.SetDraft(text)
	ex, err := m.session.Submit()
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionPending) {
			m.status = m.labels.T("pending_busy")
		}
		return m, nil
	}
	if ex == nil {
		return m, nil
	}
	m.input.Reset()
	m.input.Blur()
	m.status = m.labels.T("thinking")
	m.refresh()

	ctx := m.ctx
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		return exchangeDoneMsg{c: ex.Run(ctx)}
	})
}

func (m Model) handleUpload(path string) (tea.Model, tea.Cmd) {
	if path == "" {
		m.status = m.labels.T("upload_hint")
		return m, nil
	}
	f, err := m.open(path)
	if err != nil {
		m.status = "Error: " + err.Error()
		return m, nil
	}
	job, err := m.session.Upload(f)
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		m.status = m.labels.T("upload_unsupported", f.MIMEType)
		return m, nil
	case errors.Is(err, domain.ErrUploadPending):
		m.status = m.labels.T("upload_busy")
		return m, nil
	case err != nil:
		m.status = "Error: " + err.Error()
		return m, nil
	}
	m.input.Reset()
	m.status = m.labels.T("solving")
	m.refresh()

	ctx := m.ctx
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		return uploadDoneMsg{o: job.Run(ctx)}
	})
}

func (m Model) newMarkdown(width int) *glamour.TermRenderer {
	style := glamour.WithAutoStyle()
	if m.mdStyle != "" {
		style = glamour.WithStandardStyle(m.mdStyle)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(max(width, 20)))
	if err != nil {
		m.log.Warn().Err(err).Msg("markdown renderer unavailable")
		return nil
	}
	return r
}

// refresh rebuilds the viewport from a session snapshot.
func (m *Model) refresh() {
	m.vp.SetContent(m.transcriptView(m.session.Snapshot()))
	m.vp.GotoBottom()
}
