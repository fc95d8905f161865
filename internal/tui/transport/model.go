// Package transport содержит панель управления воспроизведением для TUI
package transport

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/playback"
	"github.com/hazadus/go-melody/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5f87ff"))

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	flagOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	flagOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// StateMsg содержит новый снимок состояния воспроизведения
type StateMsg struct {
	State playback.State
}

// ClosedMsg отправляется, когда контроллер закрыт
type ClosedMsg struct{}

// Listen ждет следующий снимок из канала контроллера
func Listen(changes <-chan playback.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-changes
		if !ok {
			return ClosedMsg{}
		}
		return StateMsg{State: state}
	}
}

// Model отображает активный трек и состояние воспроизведения
type Model struct {
	state       playback.State
	track       catalog.Track
	progressBar progress.Model
	width       int
}

// NewModel создает панель
func NewModel() *Model {
	prog := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	prog.Width = 40

	return &Model{
		state:       playback.State{Volume: 1},
		progressBar: prog,
	}
}

// SetState обновляет состояние и трек, к которому оно относится
func (m *Model) SetState(state playback.State, track catalog.Track) {
	m.state = state
	m.track = track
}

// State возвращает последнее отображаемое состояние
func (m *Model) State() playback.State {
	return m.state
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.progressBar.Width = max(10, min(60, msg.Width-30))
	}
	return m, nil
}

// View отображает панель
func (m *Model) View() string {
	var b strings.Builder

	switch {
	case m.state.Status == playback.StatusError:
		b.WriteString(titleStyle.Render("Трек не выбран"))
		if m.state.Err != nil {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render("❌ " + m.state.Err.Error()))
		}
	case m.state.ActiveTrackID == "":
		b.WriteString(titleStyle.Render("Трек не выбран"))
	default:
		b.WriteString(fmt.Sprintf("%s %s", statusIcon(m.state), titleStyle.Render(m.track.Title)))
		b.WriteString("\n")
		b.WriteString(trackInfoStyle.Render(fmt.Sprintf("🎤 %s  💿 %s", m.track.Artist, m.track.Album)))
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s %s  %s",
		utils.FormatClock(m.state.Position),
		m.progressBar.ViewAs(m.state.Progress()),
		clock(m.state),
		utils.FormatPercent(m.state.Progress()),
	))

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("🔊 %s  %s  %s",
		utils.FormatPercent(m.state.Volume),
		flag("shuffle", m.state.Shuffle),
		flag("repeat", m.state.Repeat),
	))

	view := b.String()
	if m.width > 4 {
		return panelStyle.Width(m.width - 4).Render(view)
	}
	return panelStyle.Render(view)
}

func clock(state playback.State) string {
	if state.ActiveTrackID == "" {
		return utils.FormatClock(0)
	}
	return utils.FormatTrackDuration(state.Duration)
}

func statusIcon(state playback.State) string {
	switch state.Status {
	case playback.StatusLoading:
		return "⏳"
	case playback.StatusPlaying:
		return "▶️"
	case playback.StatusPaused:
		return "⏸️"
	}
	if state.IsPlaying {
		return "▶️"
	}
	return "⏸️"
}

func flag(name string, on bool) string {
	if on {
		return flagOnStyle.Render("● " + name)
	}
	return flagOffStyle.Render("○ " + name)
}
