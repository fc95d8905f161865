// Package app содержит основную логику TUI приложения
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/playback"
	"github.com/hazadus/go-melody/internal/tui/tracklist"
	"github.com/hazadus/go-melody/internal/tui/transport"
	"github.com/hazadus/go-melody/internal/tui/upload"
)

const (
	// VolumeStep шаг изменения громкости
	VolumeStep = 0.1
	// SeekStep шаг перемотки
	SeekStep = 5 * time.Second
	// refreshInterval период перечитывания каталога
	refreshInterval = 2 * time.Second
	// transportHeight высота панели воспроизведения с рамкой
	transportHeight = 7
)

var (
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).PaddingLeft(2)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).PaddingLeft(2)
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// LibraryScreen - библиотека с панелью воспроизведения
	LibraryScreen ScreenType = iota
	// UploadScreen - добавление файлов
	UploadScreen
)

// Controller операции управления воспроизведением
type Controller interface {
	SelectAndPlay(id string) error
	TogglePlayPause() error
	Next() error
	Previous() error
	Seek(pos time.Duration) error
	SetVolume(v float64)
	ToggleShuffle()
	ToggleRepeat()
	State() playback.State
	Changes() <-chan playback.State
}

// Library каталог треков
type Library interface {
	Tracks() []catalog.Track
	Find(id string) (catalog.Track, bool)
	Remove(id string) (catalog.Track, bool)
}

// actionDoneMsg результат операции контроллера
type actionDoneMsg struct {
	err error
}

// refreshMsg запускает перечитывание каталога
type refreshMsg struct{}

// MainModel представляет главную модель TUI
type MainModel struct {
	ctrl           Controller
	lib            Library
	importer       upload.Importer
	currentScreen  ScreenType
	tracklistModel *tracklist.Model
	transportModel *transport.Model
	uploadModel    *upload.Model
	notice         string
	width          int
	height         int
}

// NewMainModel создает новую главную модель
func NewMainModel(ctrl Controller, lib Library, importer upload.Importer) *MainModel {
	m := &MainModel{
		ctrl:           ctrl,
		lib:            lib,
		importer:       importer,
		currentScreen:  LibraryScreen,
		tracklistModel: tracklist.NewModel(lib),
		transportModel: transport.NewModel(),
	}
	m.applyState(ctrl.State())
	return m
}

// Init инициализирует модель
func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(
		m.tracklistModel.Init(),
		transport.Listen(m.ctrl.Changes()),
		scheduleRefresh(),
	)
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.currentScreen == LibraryScreen && !m.tracklistModel.Filtering() {
			if cmd, handled := m.handleLibraryKey(msg); handled {
				return m, cmd
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.transportModel.Update(msg)
		m.tracklistModel.Update(tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-transportHeight-1, 3)})
		if m.uploadModel != nil {
			m.uploadModel.Update(msg)
		}
		return m, nil

	case transport.StateMsg:
		cmd := m.applyState(msg.State)
		return m, tea.Batch(cmd, transport.Listen(m.ctrl.Changes()))

	case transport.ClosedMsg:
		return m, tea.Quit

	case refreshMsg:
		return m, tea.Batch(m.tracklistModel.Refresh(), scheduleRefresh())

	case actionDoneMsg:
		m.notice = ""
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		return m, nil

	case tracklist.TrackSelectedMsg:
		return m, m.action(func() error { return m.ctrl.SelectAndPlay(msg.ID) })

	case tracklist.TrackRemoveMsg:
		m.lib.Remove(msg.ID)
		return m, m.tracklistModel.Refresh()

	case upload.DoneMsg:
		var cmd tea.Cmd
		if m.uploadModel != nil {
			m.uploadModel, cmd = m.uploadModel.Update(msg)
		}
		return m, tea.Batch(cmd, m.tracklistModel.Refresh())

	case upload.GoBackMsg:
		m.currentScreen = LibraryScreen
		m.uploadModel = nil
		return m, m.tracklistModel.Refresh()
	}

	// Передаем сообщение активной модели
	var cmd tea.Cmd
	switch m.currentScreen {
	case LibraryScreen:
		m.tracklistModel, cmd = m.tracklistModel.Update(msg)
	case UploadScreen:
		if m.uploadModel != nil {
			m.uploadModel, cmd = m.uploadModel.Update(msg)
		}
	}
	return m, cmd
}

// handleLibraryKey обрабатывает горячие клавиши библиотеки
func (m *MainModel) handleLibraryKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return tea.Quit, true
	case " ":
		return m.action(m.ctrl.TogglePlayPause), true
	case "n":
		return m.action(m.ctrl.Next), true
	case "b":
		return m.action(m.ctrl.Previous), true
	case "s":
		m.ctrl.ToggleShuffle()
		return nil, true
	case "r":
		m.ctrl.ToggleRepeat()
		return nil, true
	case "+", "=":
		m.ctrl.SetVolume(m.ctrl.State().Volume + VolumeStep)
		return nil, true
	case "-":
		m.ctrl.SetVolume(m.ctrl.State().Volume - VolumeStep)
		return nil, true
	case ".", "right":
		pos := m.ctrl.State().Position + SeekStep
		return m.action(func() error { return m.ctrl.Seek(pos) }), true
	case ",", "left":
		pos := m.ctrl.State().Position - SeekStep
		return m.action(func() error { return m.ctrl.Seek(pos) }), true
	case "a":
		if m.importer == nil {
			return nil, true
		}
		m.currentScreen = UploadScreen
		m.uploadModel = upload.NewModel(m.importer)
		if m.width > 0 {
			m.uploadModel.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		}
		return m.uploadModel.Init(), true
	}
	return nil, false
}

// action выполняет операцию контроллера вне цикла отрисовки
func (m *MainModel) action(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: fn()}
	}
}

// applyState передает снимок состояния панели и списку
func (m *MainModel) applyState(state playback.State) tea.Cmd {
	track, _ := m.lib.Find(state.ActiveTrackID)
	m.transportModel.SetState(state, track)
	return m.tracklistModel.SetActive(state.ActiveTrackID)
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case LibraryScreen:
		view := m.tracklistModel.View() + "\n" + m.transportModel.View()
		if m.notice != "" {
			view += "\n" + noticeStyle.Render(m.notice)
		}
		return view + "\n" + helpStyle.Render(
			"enter: играть • space: пауза • n/b: след/пред • ,/.: перемотка • +/-: громкость • s: shuffle • r: repeat • /: поиск • a: добавить • x: удалить • q: выход")

	case UploadScreen:
		if m.uploadModel != nil {
			return m.uploadModel.View()
		}
		return "Ошибка: экран добавления не инициализирован"

	default:
		return "Неизвестный экран"
	}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}
