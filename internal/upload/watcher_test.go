package upload

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hazadus/go-melody/internal/catalog"
)

type recordingImporter struct {
	mu    sync.Mutex
	paths []string
	calls chan string
}

func newRecordingImporter() *recordingImporter {
	return &recordingImporter{calls: make(chan string, 16)}
}

func (r *recordingImporter) AcceptPaths(_ context.Context, paths []string) ([]catalog.Track, error) {
	r.mu.Lock()
	r.paths = append(r.paths, paths...)
	r.mu.Unlock()
	for _, p := range paths {
		r.calls <- p
	}
	return []catalog.Track{{ID: "1"}}, nil
}

func (r *recordingImporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func waitPath(t *testing.T, calls <-chan string) string {
	t.Helper()
	select {
	case p := <-calls:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("Файл не импортирован")
		return ""
	}
}

func startWatcher(t *testing.T, dir string, importer Importer) {
	t.Helper()
	w := NewWatcher(dir, importer, nil)
	w.delay = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run завершился с ошибкой: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run не завершился после отмены")
		}
	})
}

func TestWatcherImportsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "old.mp3")
	if err := os.WriteFile(existing, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	importer := newRecordingImporter()
	startWatcher(t, dir, importer)

	if got := waitPath(t, importer.calls); got != existing {
		t.Errorf("Ожидался импорт %s, получено %s", existing, got)
	}
}

func TestWatcherImportsNewFileOnce(t *testing.T) {
	dir := t.TempDir()
	importer := newRecordingImporter()
	startWatcher(t, dir, importer)

	// Даем наблюдателю запуститься
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "new.mp3")
	if err := os.WriteFile(path, []byte("part one"), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.Write([]byte(" part two"))
	f.Close()

	if got := waitPath(t, importer.calls); got != path {
		t.Errorf("Ожидался импорт %s, получено %s", path, got)
	}

	// Повторная запись не приводит к повторному импорту
	if err := os.WriteFile(path, []byte("rewrite"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := importer.count(); n != 1 {
		t.Errorf("Файл должен импортироваться один раз, импортов: %d", n)
	}
}

func TestWatcherCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	startWatcher(t, dir, newRecordingImporter())

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Каталог входящих файлов должен создаваться")
}
