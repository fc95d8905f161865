package tracklist

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-melody/internal/catalog"
)

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	err := c.Load([]catalog.Track{
		{ID: "1", Artist: "Test Artist 1", Title: "Test Track 1", Album: "Album", SourceRef: "a", Duration: 3 * time.Minute},
		{ID: "2", Artist: "Test Artist 2", Title: "Test Track 2", Album: "Album", SourceRef: "b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewModel(t *testing.T) {
	model := NewModel(newCatalog(t))

	if model.Len() != 2 {
		t.Fatalf("Expected 2 items, got %d", model.Len())
	}
	selected, ok := model.Selected()
	if !ok || selected.ID != "1" {
		t.Errorf("Expected first track selected, got %+v", selected)
	}
}

func TestEnterSelectsTrack(t *testing.T) {
	model := NewModel(newCatalog(t))
	model.Update(tea.WindowSizeMsg{Width: 120, Height: 20})

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyDown})
	if cmd != nil {
		cmd()
	}
	_, cmd = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Expected command after enter")
	}

	msg, ok := cmd().(TrackSelectedMsg)
	if !ok || msg.ID != "2" {
		t.Errorf("Expected TrackSelectedMsg for track 2, got %#v", msg)
	}
}

func TestRemoveKey(t *testing.T) {
	model := NewModel(newCatalog(t))

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if cmd == nil {
		t.Fatal("Expected command after x")
	}
	if msg, ok := cmd().(TrackRemoveMsg); !ok || msg.ID != "1" {
		t.Errorf("Expected TrackRemoveMsg for track 1, got %#v", msg)
	}
}

func TestRefreshAfterCatalogChange(t *testing.T) {
	c := newCatalog(t)
	model := NewModel(c)

	c.Append(catalog.Track{Title: "New", SourceRef: "blob:x"})
	model.Refresh()
	if model.Len() != 3 {
		t.Errorf("Expected 3 items after append, got %d", model.Len())
	}

	c.Remove("1")
	c.Remove("2")
	model.Refresh()
	if model.Len() != 1 {
		t.Errorf("Expected 1 item after remove, got %d", model.Len())
	}
}

func TestSetActive(t *testing.T) {
	model := NewModel(newCatalog(t))
	model.SetActive("2")

	for _, item := range model.list.Items() {
		ti := item.(trackItem)
		if ti.active != (ti.track.ID == "2") {
			t.Errorf("Unexpected active flag for track %s", ti.track.ID)
		}
	}
	if cmd := model.SetActive("2"); cmd != nil {
		t.Error("Expected no refresh for the same active track")
	}
}

func TestFilterValue(t *testing.T) {
	item := trackItem{track: catalog.Track{Title: "Photograph", Artist: "ED Sheeran", Album: "Multiply"}}
	value := item.FilterValue()
	for _, part := range []string{"Photograph", "ED Sheeran", "Multiply"} {
		if !strings.Contains(value, part) {
			t.Errorf("FilterValue must contain %q, got %q", part, value)
		}
	}
}

func TestEmptyView(t *testing.T) {
	model := NewModel(catalog.New())
	if !strings.Contains(model.View(), "пуста") {
		t.Errorf("Expected empty library message, got %q", model.View())
	}
	if _, ok := model.Selected(); ok {
		t.Error("Expected no selection in empty list")
	}
}
