// Package tui содержит тесты для TUI компонентов
package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/playback"
	"github.com/hazadus/go-melody/internal/tui/app"
	"github.com/hazadus/go-melody/internal/tui/tracklist"
	"github.com/hazadus/go-melody/internal/tui/transport"
	"github.com/hazadus/go-melody/internal/tui/upload"
)

// fakeController записывает вызванные операции
type fakeController struct {
	mu      sync.Mutex
	calls   []string
	state   playback.State
	changes chan playback.State
}

func newFakeController() *fakeController {
	return &fakeController{
		state:   playback.State{Volume: 0.5},
		changes: make(chan playback.State, 1),
	}
}

func (f *fakeController) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeController) SelectAndPlay(id string) error {
	f.record("select:" + id)
	f.state.ActiveTrackID = id
	return nil
}
func (f *fakeController) TogglePlayPause() error { f.record("toggle"); return nil }
func (f *fakeController) Next() error            { f.record("next"); return nil }
func (f *fakeController) Previous() error        { f.record("previous"); return nil }
func (f *fakeController) Seek(pos time.Duration) error {
	f.record("seek:" + pos.String())
	return nil
}
func (f *fakeController) SetVolume(v float64) {
	f.record("volume")
	f.state.Volume = min(max(v, 0), 1)
}
func (f *fakeController) ToggleShuffle()                 { f.record("shuffle") }
func (f *fakeController) ToggleRepeat()                  { f.record("repeat") }
func (f *fakeController) State() playback.State          { return f.state }
func (f *fakeController) Changes() <-chan playback.State { return f.changes }

type nopImporter struct{}

func (nopImporter) AcceptPaths(context.Context, []string) ([]catalog.Track, error) {
	return nil, nil
}

func newTestModel(t *testing.T) (*app.MainModel, *fakeController, *catalog.Catalog) {
	t.Helper()
	cat := catalog.New()
	err := cat.Load([]catalog.Track{
		{ID: "1", Title: "Test Track", Artist: "Test Artist", Album: "Test Album", SourceRef: "/songs/a.mp3"},
		{ID: "2", Title: "Other Track", Artist: "Other Artist", Album: "Test Album", SourceRef: "/songs/b.mp3"},
	})
	if err != nil {
		t.Fatal(err)
	}
	ctrl := newFakeController()
	model := NewApp(ctrl, cat, nopImporter{}).Model()
	model.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return model, ctrl, cat
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press отправляет клавишу и выполняет полученные команды, передавая их
// сообщения обратно в модель
func press(model *app.MainModel, msg tea.Msg) {
	_, cmd := model.Update(msg)
	if cmd == nil {
		return
	}
	if result := cmd(); result != nil {
		switch result.(type) {
		case tea.BatchMsg, tea.QuitMsg:
			return
		}
		model.Update(result)
	}
}

func TestLibraryKeys(t *testing.T) {
	model, ctrl, _ := newTestModel(t)

	for _, k := range []string{" ", "n", "b", "s", "r", "+", "-", ".", ","} {
		press(model, key(k))
	}

	expected := []string{"toggle", "next", "previous", "shuffle", "repeat", "volume", "volume", "seek:5s", "seek:-5s"}
	if strings.Join(ctrl.calls, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected calls %v, got %v", expected, ctrl.calls)
	}
}

func TestEnterSelectsTrack(t *testing.T) {
	model, ctrl, _ := newTestModel(t)

	_, cmd := model.Update(key("enter"))
	if cmd == nil {
		t.Fatal("Expected command after enter")
	}
	msg := cmd()
	if sel, ok := msg.(tracklist.TrackSelectedMsg); !ok || sel.ID != "1" {
		t.Fatalf("Expected TrackSelectedMsg for track 1, got %#v", msg)
	}

	press(model, msg)
	if len(ctrl.calls) != 1 || ctrl.calls[0] != "select:1" {
		t.Errorf("Expected select:1, got %v", ctrl.calls)
	}
}

func TestStateMsgUpdatesView(t *testing.T) {
	model, _, _ := newTestModel(t)

	model.Update(transport.StateMsg{State: playback.State{
		ActiveTrackID: "2",
		IsPlaying:     true,
		Position:      30 * time.Second,
		Duration:      time.Minute,
		Volume:        1,
		Status:        playback.StatusPlaying,
	}})

	view := model.View()
	for _, part := range []string{"Other Track", "Other Artist", "0:30", "1:00"} {
		if !strings.Contains(view, part) {
			t.Errorf("Expected %q in view:\n%s", part, view)
		}
	}
}

func TestClosedQuits(t *testing.T) {
	model, _, _ := newTestModel(t)

	_, cmd := model.Update(transport.ClosedMsg{})
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestRemoveTrack(t *testing.T) {
	model, _, cat := newTestModel(t)

	model.Update(tracklist.TrackRemoveMsg{ID: "1"})
	if cat.Len() != 1 {
		t.Errorf("Expected 1 track after removal, got %d", cat.Len())
	}
	if strings.Contains(model.View(), "Test Track") {
		t.Error("Removed track must disappear from the list")
	}
}

func TestUploadScreenRouting(t *testing.T) {
	model, _, _ := newTestModel(t)

	model.Update(key("a"))
	if !strings.Contains(model.View(), "Добавление файлов") {
		t.Fatalf("Expected upload screen, got:\n%s", model.View())
	}

	// Клавиши библиотеки не работают на экране добавления
	model.Update(key("q"))
	if !strings.Contains(model.View(), "Добавление файлов") {
		t.Error("Expected to stay on upload screen")
	}

	model.Update(upload.GoBackMsg{})
	if !strings.Contains(model.View(), "Библиотека") {
		t.Errorf("Expected library screen, got:\n%s", model.View())
	}
}

func TestCtrlCQuits(t *testing.T) {
	model, _, _ := newTestModel(t)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("Expected tea.Quit command after Ctrl+C")
	}
}
