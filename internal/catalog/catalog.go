// Package catalog содержит упорядоченный каталог треков плеера
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var (
	// ErrTrackNotFound возвращается, если трека с таким ID нет в каталоге
	ErrTrackNotFound = errors.New("трек не найден")
	// ErrInvalidTrack возвращается для трека без ID или источника
	ErrInvalidTrack = errors.New("у трека не заполнены обязательные поля")
	// ErrDuplicateID возвращается при повторяющихся ID в загружаемом списке
	ErrDuplicateID = errors.New("повторяющийся ID трека")
	// ErrInvalidDuration возвращается для отрицательной длительности
	ErrInvalidDuration = errors.New("некорректная длительность")
)

// Track описывает трек каталога
type Track struct {
	ID        string        `yaml:"id"`
	Title     string        `yaml:"title"`
	Artist    string        `yaml:"artist"`
	Album     string        `yaml:"album"`
	SourceRef string        `yaml:"source"`   // Путь ассета, URL или ссылка blob:
	Duration  time.Duration `yaml:"duration"` // 0 - длительность неизвестна
	AddedAt   time.Time     `yaml:"added_at"`
	CoverRef  string        `yaml:"cover,omitempty"`
}

// HasDuration сообщает, известна ли длительность трека
func (t Track) HasDuration() bool {
	return t.Duration > 0
}

// Catalog хранит треки в порядке добавления. Запись идет только через его
// методы, чтение - через копии.
type Catalog struct {
	mu       sync.RWMutex
	tracks   []Track
	onRemove []func(Track)
	now      func() time.Time
	newID    func() string
}

// New создает пустой каталог
func New() *Catalog {
	return &Catalog{
		tracks: make([]Track, 0),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Load заменяет содержимое каталога
func (c *Catalog) Load(tracks []Track) error {
	seen := make(map[string]struct{}, len(tracks))
	for _, t := range tracks {
		if t.ID == "" || t.SourceRef == "" {
			return fmt.Errorf("%w: %q", ErrInvalidTrack, t.Title)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	loaded := make([]Track, len(tracks))
	copy(loaded, tracks)

	c.mu.Lock()
	c.tracks = loaded
	c.mu.Unlock()
	return nil
}

// Append добавляет треки в конец каталога, присваивая каждому новый ID.
// Возвращает добавленные треки в том виде, в каком они сохранены.
func (c *Catalog) Append(tracks ...Track) []Track {
	c.mu.Lock()
	defer c.mu.Unlock()

	appended := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		t.ID = c.freshIDLocked()
		if t.AddedAt.IsZero() {
			t.AddedAt = c.now()
		}
		if t.Duration < 0 {
			t.Duration = 0
		}
		c.tracks = append(c.tracks, t)
		appended = append(appended, t)
	}
	return appended
}

// Remove удаляет трек по ID. Отсутствие трека не считается ошибкой.
// Подписчики OnRemove вызываются после снятия блокировки.
func (c *Catalog) Remove(id string) (Track, bool) {
	c.mu.Lock()
	_, index, ok := lo.FindIndexOf(c.tracks, func(t Track) bool { return t.ID == id })
	if !ok {
		c.mu.Unlock()
		return Track{}, false
	}
	removed := c.tracks[index]
	c.tracks = append(c.tracks[:index:index], c.tracks[index+1:]...)
	hooks := make([]func(Track), len(c.onRemove))
	copy(hooks, c.onRemove)
	c.mu.Unlock()

	for _, hook := range hooks {
		hook(removed)
	}
	return removed, true
}

// Find возвращает трек по ID
func (c *Catalog) Find(id string) (Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return lo.Find(c.tracks, func(t Track) bool { return t.ID == id })
}

// UpdateDuration записывает длительность трека. Длительность задается один
// раз: повторный вызов с тем же или другим значением ничего не меняет.
func (c *Catalog) UpdateDuration(id string, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, d)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.tracks {
		if c.tracks[i].ID != id {
			continue
		}
		if c.tracks[i].Duration == 0 {
			c.tracks[i].Duration = d
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
}

// Tracks возвращает копию списка треков
func (c *Catalog) Tracks() []Track {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tracks := make([]Track, len(c.tracks))
	copy(tracks, c.tracks)
	return tracks
}

// Len возвращает количество треков
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracks)
}

// Search ищет треки по подстроке в названии, исполнителе или альбоме без учета
// регистра. Пустой запрос ничего не находит.
func (c *Catalog) Search(query string) []Track {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	return lo.Filter(c.Tracks(), func(t Track, _ int) bool {
		return strings.Contains(strings.ToLower(t.Title), query) ||
			strings.Contains(strings.ToLower(t.Artist), query) ||
			strings.Contains(strings.ToLower(t.Album), query)
	})
}

// OnRemove регистрирует обработчик удаления трека
func (c *Catalog) OnRemove(fn func(Track)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRemove = append(c.onRemove, fn)
}

// freshIDLocked генерирует ID, которого нет в каталоге
func (c *Catalog) freshIDLocked() string {
	for {
		id := c.newID()
		if !lo.ContainsBy(c.tracks, func(t Track) bool { return t.ID == id }) {
			return id
		}
	}
}
