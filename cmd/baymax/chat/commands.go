// Package chat implements the interactive terminal client for the
// assistant service. This file contains /command handling.
package chat

import (
	"strings"
	"time"

	"baymax/internal/config"

	tea "github.com/charmbracelet/bubbletea"
)

const helpText = `## Perintah

| Perintah | Fungsi |
|----------|--------|
| /help | Tampilkan bantuan ini |
| /clear | Hapus riwayat percakapan |
| /rag on atau off | Nyalakan atau matikan pencarian basis pengetahuan |
| /voice pro, max, kids | Ganti mode suara |
| /stop | Hentikan pemutaran audio |
| /quit | Keluar |`

// handleCommand processes all /command inputs from the user.
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case "/quit", "/exit", "/q":
		m.player.Stop()
		return m, tea.Quit

	case "/clear":
		m.history = nil
		m.viewport.SetContent("")
		m.textarea.Reset()
		return m, nil

	case "/help":
		return m.note(helpText), nil

	case "/rag":
		if len(parts) < 2 {
			m.useRetrieval = !m.useRetrieval
		} else {
			switch parts[1] {
			case "on":
				m.useRetrieval = true
			case "off":
				m.useRetrieval = false
			default:
				return m.note("Gunakan: /rag on|off"), nil
			}
		}
		state := "nonaktif"
		if m.useRetrieval {
			state = "aktif"
		}
		return m.note("Pencarian basis pengetahuan " + state + "."), nil

	case "/voice":
		modes := strings.Join(config.ValidVoiceModes, ", ")
		if len(parts) < 2 {
			return m.note("Mode suara saat ini: " + m.voiceMode + " (pilihan: " + modes + ")"), nil
		}
		mode := strings.ToLower(parts[1])
		valid := false
		for _, v := range config.ValidVoiceModes {
			if mode == v {
				valid = true
				break
			}
		}
		if !valid {
			return m.note("Mode suara tidak dikenal: " + mode + " (pilihan: " + modes + ")"), nil
		}
		m.voiceMode = mode
		return m.note("Mode suara diganti ke " + mode + "."), nil

	case "/stop":
		m.player.Stop()
		m.textarea.Reset()
		return m, nil

	default:
		return m.note("Perintah tidak dikenal: " + cmd + " (coba /help)"), nil
	}
}

// note appends an assistant-side notice to the transcript and resets
// the input.
func (m Model) note(text string) Model {
	m.history = append(m.history, Message{
		Role:    "assistant",
		Content: text,
		Time:    time.Now(),
	})
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	m.textarea.Reset()
	return m
}
