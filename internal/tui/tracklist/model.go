// Package tracklist содержит модель экрана списка треков для TUI
package tracklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	activeItemStyle   = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("42"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4)
)

// Source источник треков для списка
type Source interface {
	Tracks() []catalog.Track
}

// TrackSelectedMsg отправляется при выборе трека для воспроизведения
type TrackSelectedMsg struct {
	ID string
}

// TrackRemoveMsg отправляется при удалении трека из каталога
type TrackRemoveMsg struct {
	ID string
}

// trackItem реализует интерфейс list.Item для трека
type trackItem struct {
	track  catalog.Track
	active bool
}

// FilterValue используется встроенным поиском списка
func (i trackItem) FilterValue() string {
	return strings.Join([]string{i.track.Title, i.track.Artist, i.track.Album}, " ")
}

// trackItemDelegate реализует отображение элементов списка
type trackItemDelegate struct{}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}

	// Название | Исполнитель | Альбом | Длительность
	str := fmt.Sprintf("%-40s %-20s %-20s %5s",
		utils.TruncateString(i.track.Title, 40),
		utils.TruncateString(i.track.Artist, 20),
		utils.TruncateString(i.track.Album, 20),
		utils.FormatTrackDuration(i.track.Duration))

	marker := "  "
	if i.active {
		marker = "♪ "
	}

	fn := itemStyle.Render
	if i.active {
		fn = activeItemStyle.Render
	}
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(marker+str))
}

// Model представляет модель экрана списка треков
type Model struct {
	list     list.Model
	source   Source
	activeID string
}

// NewModel создает новую модель списка треков
func NewModel(source Source) *Model {
	l := list.New(nil, trackItemDelegate{}, 0, 0)
	l.Title = "Библиотека"
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	m := &Model{
		list:   l,
		source: source,
	}
	m.Refresh()
	return m
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// Refresh перечитывает треки из каталога, сохраняя позицию курсора
func (m *Model) Refresh() tea.Cmd {
	tracks := m.source.Tracks()

	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, active: t.ID == m.activeID}
	}

	index := m.list.Index()
	cmd := m.list.SetItems(items)
	if index >= len(items) {
		index = len(items) - 1
	}
	if index >= 0 {
		m.list.Select(index)
	}
	return cmd
}

// SetActive отмечает активный трек
func (m *Model) SetActive(id string) tea.Cmd {
	if id == m.activeID {
		return nil
	}
	m.activeID = id
	return m.Refresh()
}

// Filtering сообщает, вводится ли сейчас строка поиска
func (m *Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Len возвращает число отображаемых треков
func (m *Model) Len() int {
	return len(m.list.VisibleItems())
}

// Selected возвращает трек под курсором
func (m *Model) Selected() (catalog.Track, bool) {
	item, ok := m.list.SelectedItem().(trackItem)
	if !ok {
		return catalog.Track{}, false
	}
	return item.track, true
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.Filtering() {
			break
		}
		switch msg.String() {
		case "enter":
			if track, ok := m.Selected(); ok {
				return m, func() tea.Msg {
					return TrackSelectedMsg{ID: track.ID}
				}
			}
			return m, nil

		case "x", "delete":
			if track, ok := m.Selected(); ok {
				return m, func() tea.Msg {
					return TrackRemoveMsg{ID: track.ID}
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	if len(m.list.Items()) == 0 {
		return titleStyle.Render("Библиотека пуста. Нажмите a, чтобы добавить файлы.")
	}
	return m.list.View()
}
