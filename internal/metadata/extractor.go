// Package metadata извлекает теги и длительность из аудио данных
package metadata

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/hazadus/go-melody/internal/audio"
)

// Picture обложка, встроенная в теги
type Picture struct {
	MIMEType string
	Ext      string
	Data     []byte
}

// Tags теги аудио файла. Пустые поля означают отсутствие значения.
type Tags struct {
	Artist  string
	Title   string
	Album   string
	Picture *Picture
}

// Extractor извлекает метаданные из аудио файлов
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ReadTags читает теги ID3/MP4/FLAC/OGG
func (e *Extractor) ReadTags(reader io.ReadSeeker) (Tags, error) {
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return Tags{}, fmt.Errorf("ошибка перемотки: %w", err)
	}

	m, err := tag.ReadFrom(reader)
	if err != nil {
		return Tags{}, fmt.Errorf("ошибка чтения тегов: %w", err)
	}

	tags := Tags{
		Artist: strings.TrimSpace(m.Artist()),
		Title:  strings.TrimSpace(m.Title()),
		Album:  strings.TrimSpace(m.Album()),
	}
	if p := m.Picture(); p != nil && len(p.Data) > 0 {
		tags.Picture = &Picture{MIMEType: p.MIMEType, Ext: p.Ext, Data: p.Data}
	}
	return tags, nil
}

// Duration декодирует MP3, WAV, FLAC или Ogg Vorbis и возвращает
// длительность. Поток без возможности перемотки предварительно читается в память.
func (e *Extractor) Duration(reader io.Reader) (time.Duration, error) {
	rc, ok := reader.(io.ReadSeekCloser)
	if !ok {
		data, err := io.ReadAll(reader)
		if err != nil {
			return 0, fmt.Errorf("ошибка чтения данных: %w", err)
		}
		rc = nopSeekCloser{bytes.NewReader(data)}
	}

	streamer, format, err := audio.Decode(rc)
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования: %w", err)
	}
	defer streamer.Close()

	samples := streamer.Len()
	if samples <= 0 {
		return 0, fmt.Errorf("длительность не определена")
	}
	return format.SampleRate.D(samples), nil
}

// TitleFromName возвращает имя файла без последнего расширения
func TitleFromName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }
