// Package audio выбирает декодер beep по содержимому потока
package audio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// sniffLen сколько байт читается для определения формата
const sniffLen = 3072

// MIME-типы, которые умеет декодировать плеер
const (
	MP3  = "audio/mpeg"
	WAV  = "audio/wav"
	FLAC = "audio/flac"
	Ogg  = "audio/ogg"
)

// decodable поддерживаемые типы вместе с распространенными синонимами
var decodable = []string{
	MP3, "audio/mp3", "audio/x-mp3", "audio/mpeg3",
	WAV, "audio/x-wav", "audio/wave", "audio/vnd.wave",
	FLAC, "audio/x-flac",
	Ogg, "audio/vorbis", "application/ogg",
}

// Supported сообщает, может ли плеер декодировать данные с таким MIME-типом
func Supported(mimeType string) bool {
	return mimetype.EqualsAny(mimeType, decodable...)
}

// Decode определяет формат по первым байтам и возвращает поток.
// Неопознанные данные декодируются как MP3. Источник без перемотки
// для WAV, FLAC и Ogg читается в память: их декодеры перематывают поток.
// Закрытие возвращенного потока закрывает src.
func Decode(src io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	src, kind, err := sniff(src)
	if err != nil {
		src.Close()
		return nil, beep.Format{}, fmt.Errorf("ошибка чтения заголовка: %w", err)
	}

	var decode func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)
	switch {
	case kind.Is(WAV):
		decode = func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(rc) }
	case kind.Is(FLAC):
		decode = func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return flac.Decode(rc) }
	case kind.Is(Ogg), kind.Is("application/ogg"):
		decode = vorbis.Decode
	default:
		return mp3.Decode(src)
	}

	rc, err := seekable(src)
	if err != nil {
		return nil, beep.Format{}, err
	}
	streamer, format, err := decode(rc)
	if err != nil {
		rc.Close()
		return nil, beep.Format{}, err
	}
	return streamer, format, nil
}

// sniff читает начало потока, не теряя прочитанные байты
func sniff(src io.ReadCloser) (io.ReadCloser, *mimetype.MIME, error) {
	if rs, ok := src.(io.ReadSeeker); ok {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(rs, head)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return src, nil, err
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return src, nil, err
		}
		return src, mimetype.Detect(head[:n]), nil
	}

	br := bufio.NewReaderSize(src, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return src, nil, err
	}
	return readCloser{Reader: br, Closer: src}, mimetype.Detect(head), nil
}

// seekable возвращает источник с перемоткой, при необходимости читая его в память
func seekable(src io.ReadCloser) (io.ReadCloser, error) {
	if _, ok := src.(io.ReadSeeker); ok {
		return src, nil
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}
	return memory{bytes.NewReader(data)}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

type memory struct {
	*bytes.Reader
}

func (memory) Close() error { return nil }
