package assets

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
)

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]string
	types     map[string]string
	deleted   []string
	uploadErr error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]string), types: make(map[string]string)}
}

func (s *fakeStore) UploadFile(_ context.Context, r io.Reader, key, contentType string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = string(data)
	s.types[key] = contentType
	return "https://cdn.example.com/" + key, nil
}

func (s *fakeStore) DeleteFile(_ context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "songs", "Ve Maahi.mp3"), "song")
	writeFile(t, filepath.Join(dir, "covers", "Ve Maahi.jpg"), "cover")
	writeFile(t, filepath.Join(dir, "songs", ".DS_Store"), "junk")
	writeFile(t, filepath.Join(dir, "other", "ignored.txt"), "other")

	store := newFakeStore()
	n, err := NewPublisher(store, dir, nil).Publish(context.Background())
	if err != nil {
		t.Fatalf("Ошибка публикации: %v", err)
	}
	if n != 2 {
		t.Errorf("Ожидалось 2 загруженных файла, получено %d", n)
	}

	keys := make([]string, 0, len(store.objects))
	for k := range store.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "covers/Ve Maahi.jpg" || keys[1] != "songs/Ve Maahi.mp3" {
		t.Errorf("Неожиданные ключи: %v", keys)
	}
	if store.objects["songs/Ve Maahi.mp3"] != "song" {
		t.Error("Содержимое загружено неверно")
	}
	if store.types["songs/Ve Maahi.mp3"] != "audio/mpeg" || store.types["covers/Ve Maahi.jpg"] != "image/jpeg" {
		t.Errorf("Неожиданные типы: %v", store.types)
	}
}

func TestPublishMissingDirs(t *testing.T) {
	store := newFakeStore()
	n, err := NewPublisher(store, t.TempDir(), nil).Publish(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Пустой каталог: ожидалось 0 без ошибки, получено %d, %v", n, err)
	}
}

func TestPublishError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "songs", "a.mp3"), "a")

	store := newFakeStore()
	store.uploadErr = errors.New("denied")
	if _, err := NewPublisher(store, dir, nil).Publish(context.Background()); !errors.Is(err, store.uploadErr) {
		t.Errorf("Ожидалась ошибка загрузки, получено: %v", err)
	}
}

func TestUnpublish(t *testing.T) {
	store := newFakeStore()
	publisher := NewPublisher(store, t.TempDir(), nil)

	if err := publisher.Unpublish(context.Background(), "You"); err != nil {
		t.Fatal(err)
	}
	if len(store.deleted) != 2 || store.deleted[0] != "songs/You.mp3" || store.deleted[1] != "covers/You.jpg" {
		t.Errorf("Неожиданные удаленные ключи: %v", store.deleted)
	}

	if err := publisher.Unpublish(context.Background(), " "); err == nil {
		t.Error("Ожидалась ошибка для пустого имени")
	}

	store.deleteErr = errors.New("denied")
	if err := publisher.Unpublish(context.Background(), "You"); !errors.Is(err, store.deleteErr) {
		t.Errorf("Ожидалась ошибка удаления, получено: %v", err)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"songs/a.mp3":   "audio/mpeg",
		"covers/a.jpg":  "image/jpeg",
		"covers/a.JPEG": "image/jpeg",
		"covers/a.png":  "image/png",
	}
	for key, expected := range tests {
		if got := ContentType(key); got != expected {
			t.Errorf("ContentType(%q): ожидалось %q, получено %q", key, expected, got)
		}
	}
}
