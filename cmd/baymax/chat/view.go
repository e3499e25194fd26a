// Package chat implements the interactive terminal client for the
// assistant service. This file contains view rendering functions.
package chat

import (
	"fmt"
	"strings"
	"time"

	"baymax/internal/orchestrator"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderHistory() string {
	var sb strings.Builder

	for _, msg := range m.history {
		switch msg.Role {
		case "user":
			userStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Primary).
				MarginTop(1)
			sb.WriteString(userStyle.Render("Anda") + "\n")
			sb.WriteString(m.styles.UserInput.Render(msg.Content))
			sb.WriteString("\n\n")

		default: // "assistant"
			assistantStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Accent).
				MarginTop(1)
			sb.WriteString(assistantStyle.Render("Baymax") + "\n")
			sb.WriteString(m.safeRenderMarkdown(msg.Content))
			sb.WriteString("\n")
			if msg.Sources != "" {
				sb.WriteString(m.styles.Muted.Render(msg.Sources))
				sb.WriteString("\n")
			}
		}
	}

	return sb.String()
}

// safeRenderMarkdown renders markdown with panic recovery
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			// If glamour panics, return plain text
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}

func (m Model) View() string {
	if !m.ready {
		return "Menyiapkan..."
	}

	header := m.renderHeader()
	chatView := m.styles.Content.Render(m.viewport.View())

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Theme.Accent).
		Padding(0, 1)
	inputArea := inputStyle.Render(m.textarea.View())

	footer := m.renderFooter()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		chatView,
		inputArea,
		footer,
	)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" Baymax ")
	badge := m.styles.Badge.Render("pendamping kesehatan")

	var status string
	switch {
	case m.isLoading:
		spin := m.spinner.View()
		msg := m.statusMessage
		if msg == "" {
			msg = orchestrator.StatusThinking
		}
		status = lipgloss.JoinHorizontal(lipgloss.Center, spin, " ", m.styles.Badge.Render(msg))
	case strings.HasPrefix(m.statusMessage, orchestrator.ErrorPrefix):
		status = m.styles.Error.Render(m.statusMessage)
	case m.statusMessage != "":
		status = m.styles.Muted.Render(m.statusMessage)
	default:
		status = m.styles.Success.Render("Siap")
	}

	headerLine := lipgloss.JoinHorizontal(
		lipgloss.Center,
		title,
		" ",
		badge,
		"  ",
		status,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerLine,
		m.styles.RenderDivider(m.width),
	)
}

func (m Model) renderFooter() string {
	ragState := "RAG aktif"
	if !m.useRetrieval {
		ragState = "RAG nonaktif"
	}

	hotkeys := "Enter: kirim | Ctrl+R: rag | /help | Ctrl+C: keluar"
	timestamp := time.Now().Format("15:04")
	help := m.styles.Muted.Render(fmt.Sprintf("Suara: %s | %s | %s | %s",
		m.voiceMode, ragState, timestamp, hotkeys))
	return lipgloss.NewStyle().
		MarginTop(1).
		Render(help)
}
