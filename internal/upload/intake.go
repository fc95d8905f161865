// Package upload принимает пользовательские аудио файлы в каталог
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/hazadus/go-melody/internal/audio"
	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/logger"
	"github.com/hazadus/go-melody/internal/metadata"
	"github.com/hazadus/go-melody/internal/source"
)

const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// audioExtensions декодируемые типы, которых может не быть в системной таблице MIME
var audioExtensions = map[string]string{
	".mp3":  audio.MP3,
	".wav":  audio.WAV,
	".ogg":  audio.Ogg,
	".oga":  audio.Ogg,
	".flac": audio.FLAC,
}

// File загружаемый файл
type File struct {
	Name     string
	MimeType string // Пустой тип определяется по расширению, затем по содержимому
	Data     []byte
}

// Library часть каталога, нужная приему файлов
type Library interface {
	Append(tracks ...catalog.Track) []catalog.Track
	OnRemove(fn func(catalog.Track))
}

// TagReader читает встроенные теги
type TagReader interface {
	ReadTags(r io.ReadSeeker) (metadata.Tags, error)
}

// ProbeStarter запускает определение длительности в фоне
type ProbeStarter interface {
	Start(ctx context.Context, tracks []catalog.Track) <-chan int
}

// Intake добавляет загруженные файлы в каталог. Данные хранятся в памяти,
// пока трек находится в каталоге.
type Intake struct {
	lib    Library
	blobs  *source.BlobStore
	tags   TagReader
	prober ProbeStarter
	log    *zap.Logger
}

// NewIntake создает прием файлов и подписывает освобождение данных
// на удаление треков. prober может быть nil.
func NewIntake(lib Library, blobs *source.BlobStore, tags TagReader, prober ProbeStarter, log *zap.Logger) *Intake {
	in := &Intake{
		lib:    lib,
		blobs:  blobs,
		tags:   tags,
		prober: prober,
		log:    logger.OrNop(log),
	}
	lib.OnRemove(in.release)
	return in
}

// Accept добавляет аудио файлы в конец каталога и возвращает добавленные
// треки. Остальные файлы пропускаются без ошибки.
func (in *Intake) Accept(ctx context.Context, files []File) ([]catalog.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tracks := make([]catalog.Track, 0, len(files))
	for _, f := range files {
		mimeType, ok := AudioType(f)
		if !ok {
			in.log.Debug("файл пропущен", zap.String("name", f.Name), zap.String("mime", mimeType))
			continue
		}
		tracks = append(tracks, in.newTrack(f, mimeType))
	}
	if len(tracks) == 0 {
		return nil, nil
	}

	appended := in.lib.Append(tracks...)
	in.log.Info("треки добавлены", zap.Int("count", len(appended)))

	if in.prober != nil {
		in.prober.Start(ctx, appended)
	}
	return appended, nil
}

// AcceptPaths читает файлы с диска и передает их в Accept. Нечитаемые
// файлы пропускаются, их ошибки возвращаются вместе.
func (in *Intake) AcceptPaths(ctx context.Context, paths []string) ([]catalog.Track, error) {
	files := make([]File, 0, len(paths))
	var errs []error
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("ошибка чтения %s: %w", path, err))
			continue
		}
		files = append(files, File{Name: filepath.Base(path), Data: data})
	}

	tracks, err := in.Accept(ctx, files)
	if err != nil {
		errs = append(errs, err)
	}
	return tracks, errors.Join(errs...)
}

func (in *Intake) newTrack(f File, mimeType string) catalog.Track {
	t := catalog.Track{
		Title:     metadata.TitleFromName(f.Name),
		Artist:    UnknownArtist,
		Album:     UnknownAlbum,
		SourceRef: in.blobs.Put(f.Data, mimeType),
	}

	if in.tags == nil {
		return t
	}
	tags, err := in.tags.ReadTags(bytes.NewReader(f.Data))
	if err != nil {
		return t
	}
	if tags.Artist != "" {
		t.Artist = tags.Artist
	}
	if tags.Album != "" {
		t.Album = tags.Album
	}
	if tags.Picture != nil {
		t.CoverRef = in.blobs.Put(tags.Picture.Data, tags.Picture.MIMEType)
	}
	return t
}

// release освобождает данные удаленного трека
func (in *Intake) release(t catalog.Track) {
	for _, ref := range []string{t.SourceRef, t.CoverRef} {
		if source.IsBlob(ref) && in.blobs.Release(ref) {
			in.log.Debug("данные освобождены", zap.String("ref", ref))
		}
	}
}

// AudioType определяет MIME-тип файла и сообщает, может ли плеер его
// воспроизвести. Звук в других форматах, например AAC, не принимается.
func AudioType(f File) (string, bool) {
	mimeType := f.MimeType
	if mimeType == "" {
		mimeType = typeByExtension(f.Name)
	}
	if mimeType == "" && len(f.Data) > 0 {
		mimeType = mimetype.Detect(f.Data).String()
	}
	return mimeType, audio.Supported(mimeType)
}

func typeByExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if t, ok := audioExtensions[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}
