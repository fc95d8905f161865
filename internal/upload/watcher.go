package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/logger"
)

// DefaultSettleDelay пауза после последней записи перед импортом файла
const DefaultSettleDelay = 500 * time.Millisecond

// Importer принимает файлы по путям
type Importer interface {
	AcceptPaths(ctx context.Context, paths []string) ([]catalog.Track, error)
}

// Watcher следит за каталогом входящих файлов и импортирует новые.
// Каждый путь импортируется один раз.
type Watcher struct {
	dir      string
	importer Importer
	log      *zap.Logger
	delay    time.Duration

	mu       sync.Mutex
	pending  map[string]*time.Timer
	imported map[string]bool
	ready    chan string
}

// NewWatcher создает наблюдателя за каталогом dir
func NewWatcher(dir string, importer Importer, log *zap.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		importer: importer,
		log:      logger.OrNop(log),
		delay:    DefaultSettleDelay,
		pending:  make(map[string]*time.Timer),
		imported: make(map[string]bool),
		ready:    make(chan string),
	}
}

// Run импортирует уже лежащие в каталоге файлы и следит за новыми
// до отмены контекста
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания каталога: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ошибка создания наблюдателя: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("ошибка наблюдения за %s: %w", w.dir, err)
	}
	defer w.stopTimers()

	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("ошибка наблюдения", zap.Error(err))
		case path := <-w.ready:
			w.importPath(ctx, path)
		}
	}
}

// scan импортирует файлы, лежащие в каталоге до запуска
func (w *Watcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Warn("ошибка чтения каталога", zap.Error(err))
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			w.importPath(ctx, filepath.Join(w.dir, entry.Name()))
		}
	}
}

// schedule откладывает импорт, пока файл продолжает записываться
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.imported[path] {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.delay)
		return
	}
	w.pending[path] = time.AfterFunc(w.delay, func() {
		select {
		case w.ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) importPath(ctx context.Context, path string) {
	w.mu.Lock()
	delete(w.pending, path)
	if w.imported[path] {
		w.mu.Unlock()
		return
	}
	w.imported[path] = true
	w.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	tracks, err := w.importer.AcceptPaths(ctx, []string{path})
	if err != nil {
		w.log.Warn("ошибка импорта", zap.String("path", path), zap.Error(err))
		return
	}
	if len(tracks) > 0 {
		w.log.Info("файл импортирован", zap.String("path", path), zap.String("track", tracks[0].ID))
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}
