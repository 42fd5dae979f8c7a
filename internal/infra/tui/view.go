package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/usecase"
)

type styles struct {
	header    lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	errLabel  lipgloss.Style
	errBody   lipgloss.Style
	muted     lipgloss.Style
	status    lipgloss.Style
	input     lipgloss.Style
}

func defaultStyles() styles {
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	pink := lipgloss.Color("#ff71ce")
	muted := lipgloss.Color("#9ca3d8")
	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(mint).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true),
		user:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		assistant: lipgloss.NewStyle().Foreground(mint).Bold(true),
		errLabel:  lipgloss.NewStyle().Foreground(pink).Bold(true),
		errBody:   lipgloss.NewStyle().Foreground(pink),
		muted:     lipgloss.NewStyle().Foreground(muted),
		status:    lipgloss.NewStyle().Foreground(blue),
		input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted),
	}
}

func (m Model) View() string {
	header := m.styles.header.Render(fmt.Sprintf("Smart Study Buddy  %s", m.styles.muted.Render(shortID(m.session.ID()))))

	status := m.status
	if status != "" && (m.session.Pending() || m.session.Uploading()) {
		status = m.spin.View() + " " + status
	}
	footer := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.status.Render(status),
		m.styles.input.Render(m.input.View()),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, m.vp.View(), footer)
}

func (m Model) transcriptView(st usecase.SessionState) string {
	var b strings.Builder
	for _, msg := range st.Messages {
		b.WriteString(m.messageView(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) messageView(msg model.Message) string {
	stamp := m.styles.muted.Render(msg.Timestamp.Format("15:04"))
	switch msg.Role {
	case model.RoleUser:
		body := msg.Content
		if msg.Attachment != nil {
			body += m.styles.muted.Render(" [" + msg.Attachment.MIMEType + "]")
		}
		return m.styles.user.Render("You") + " " + stamp + "\n" + body + "\n"
	case model.RoleError:
		return m.styles.errLabel.Render("Error") + " " + stamp + "\n" + m.styles.errBody.Render(msg.Content) + "\n"
	default:
		return m.styles.assistant.Render("Buddy") + " " + stamp + "\n" + m.markdown(m.render.Markdown(msg))
	}
}

func (m Model) markdown(src string) string {
	if m.md == nil {
		return src + "\n"
	}
	out, err := m.md.Render(src)
	if err != nil {
		return src + "\n"
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
