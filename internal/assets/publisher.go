// Package assets публикует статические ассеты плеера в объектное хранилище
// по той же схеме путей, что и у локального каталога
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hazadus/go-melody/internal/logger"
	"github.com/hazadus/go-melody/internal/source"
)

const uploadConcurrency = 4

// ObjectStore хранилище объектов
type ObjectStore interface {
	UploadFile(ctx context.Context, reader io.Reader, key, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

// Publisher загружает songs/ и covers/ из локального каталога ассетов
type Publisher struct {
	store ObjectStore
	dir   string
	log   *zap.Logger
}

// NewPublisher создает публикатор для каталога dir
func NewPublisher(store ObjectStore, dir string, log *zap.Logger) *Publisher {
	return &Publisher{
		store: store,
		dir:   dir,
		log:   logger.OrNop(log),
	}
}

// Publish загружает все файлы ассетов. Возвращает число загруженных файлов.
// Отсутствующие подкаталоги пропускаются.
func (p *Publisher) Publish(ctx context.Context) (int, error) {
	files, err := p.collect()
	if err != nil {
		return 0, err
	}

	var uploaded atomic.Int32
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	for key, localPath := range files {
		g.Go(func() error {
			if err := p.upload(ctx, localPath, key); err != nil {
				return err
			}
			uploaded.Add(1)
			return nil
		})
	}

	err = g.Wait()
	return int(uploaded.Load()), err
}

// Unpublish удаляет аудиоассет и обложку с именем name
func (p *Publisher) Unpublish(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("пустое имя ассета")
	}

	var errs []error
	for _, ref := range []string{source.SongPath(name), source.CoverPath(name)} {
		key := source.AssetKey(ref)
		if err := p.store.DeleteFile(ctx, key); err != nil {
			errs = append(errs, err)
			continue
		}
		p.log.Info("ассет удален", zap.String("key", key))
	}
	return errors.Join(errs...)
}

// collect возвращает файлы ассетов по ключам хранилища
func (p *Publisher) collect() (map[string]string, error) {
	files := make(map[string]string)
	for _, prefix := range []string{source.SongsPrefix, source.CoversPrefix} {
		root := filepath.Join(p.dir, filepath.FromSlash(source.AssetKey(prefix)))
		err := filepath.WalkDir(root, func(localPath string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) && localPath == root {
					return fs.SkipDir
				}
				return err
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}

			rel, err := filepath.Rel(p.dir, localPath)
			if err != nil {
				return err
			}
			files[source.AssetKey(filepath.ToSlash(rel))] = localPath
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка обхода %s: %w", root, err)
		}
	}
	return files, nil
}

func (p *Publisher) upload(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("ошибка открытия %s: %w", localPath, err)
	}
	defer file.Close()

	url, err := p.store.UploadFile(ctx, file, key, ContentType(key))
	if err != nil {
		return err
	}
	p.log.Info("ассет загружен", zap.String("key", key), zap.String("url", url))
	return nil
}

// ContentType возвращает MIME-тип ассета по расширению
func ContentType(key string) string {
	switch ext := strings.ToLower(path.Ext(key)); ext {
	case source.SongExt:
		return "audio/mpeg"
	case source.CoverExt, ".jpeg":
		return "image/jpeg"
	default:
		return mime.TypeByExtension(ext)
	}
}
