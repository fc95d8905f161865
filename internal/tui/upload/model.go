// Package upload содержит экран добавления файлов в библиотеку для TUI
package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/config"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Margin(1, 0)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Margin(1, 0)
)

// Importer добавляет файлы в каталог
type Importer interface {
	AcceptPaths(ctx context.Context, paths []string) ([]catalog.Track, error)
}

// GoBackMsg отправляется при возврате к библиотеке
type GoBackMsg struct{}

// DoneMsg отправляется после добавления файлов
type DoneMsg struct {
	Tracks []catalog.Track
	Err    error
}

// Model представляет экран добавления файлов
type Model struct {
	importer Importer
	input    textinput.Model
	busy     bool
	err      string
	success  string
}

// NewModel создает экран добавления файлов
func NewModel(importer Importer) *Model {
	input := textinput.New()
	input.Placeholder = "~/Music/song.mp3; ~/Downloads/album"
	input.PromptStyle = focusedStyle
	input.TextStyle = focusedStyle
	input.Focus()

	return &Model{
		importer: importer,
		input:    input,
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg {
				return GoBackMsg{}
			}

		case "enter":
			if m.busy {
				return m, nil
			}
			paths := ParsePaths(m.input.Value())
			if len(paths) == 0 {
				m.err = "Укажите хотя бы один файл"
				m.success = ""
				return m, nil
			}
			m.busy = true
			m.err = ""
			m.success = ""
			return m, m.submit(paths)
		}

	case tea.WindowSizeMsg:
		m.input.Width = max(20, msg.Width-10)
		return m, nil

	case DoneMsg:
		m.busy = false
		m.err = ""
		m.success = ""
		if msg.Err != nil {
			m.err = msg.Err.Error()
		}
		if len(msg.Tracks) == 0 {
			if m.err == "" {
				m.err = "Аудио файлы не найдены"
			}
			return m, nil
		}

		m.success = fmt.Sprintf("Добавлено треков: %d", len(msg.Tracks))
		m.input.SetValue("")
		if m.err != "" {
			return m, nil
		}
		// Возвращаемся к библиотеке через небольшую задержку
		return m, tea.Tick(time.Second, func(time.Time) tea.Msg {
			return GoBackMsg{}
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit добавляет файлы в фоне
func (m *Model) submit(paths []string) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.importer.AcceptPaths(context.Background(), paths)
		return DoneMsg{Tracks: tracks, Err: err}
	}
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Добавление файлов"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Файлы или каталоги через ';':"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.busy {
		b.WriteString(helpStyle.Render("⏳ Чтение файлов..."))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}
	if m.success != "" {
		b.WriteString(successStyle.Render(m.success))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Enter: добавить • Esc: назад"))
	return b.String()
}

// ParsePaths разбирает строку путей, разделенных ';'. Каталоги
// раскрываются в список своих файлов без вложенных каталогов.
func ParsePaths(value string) []string {
	home, _ := os.UserHomeDir()

	var paths []string
	for _, part := range strings.Split(value, ";") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part == "" {
			continue
		}
		path := config.ExpandHome(part, home)

		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			paths = append(paths, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			paths = append(paths, path)
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
	}
	return paths
}
