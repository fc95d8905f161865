// Package source открывает источники звука по их ссылкам: загруженные
// пользователем данные в памяти, статические ассеты и HTTP-адреса
package source

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// BlobScheme префикс ссылок на данные в памяти
const BlobScheme = "blob:"

var (
	// ErrBlobNotFound возвращается для освобожденной или неизвестной ссылки
	ErrBlobNotFound = errors.New("данные по ссылке не найдены")
	// ErrEmptyRef возвращается для пустой ссылки на источник
	ErrEmptyRef = errors.New("пустая ссылка на источник")
)

type blob struct {
	data     []byte
	mimeType string
}

// BlobStore хранит загруженные файлы в памяти до их освобождения.
// Ссылка живет, пока трек находится в каталоге.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// NewBlobStore создает пустое хранилище
func NewBlobStore() *BlobStore {
	return &BlobStore{
		blobs: make(map[string]blob),
	}
}

// Put сохраняет данные и возвращает новую ссылку вида blob:<uuid>
func (s *BlobStore) Put(data []byte, mimeType string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := BlobScheme + uuid.NewString()
	for {
		if _, exists := s.blobs[ref]; !exists {
			break
		}
		ref = BlobScheme + uuid.NewString()
	}

	s.blobs[ref] = blob{data: data, mimeType: mimeType}
	return ref
}

// Open возвращает читатель данных по ссылке
func (s *BlobStore) Open(ref string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[ref]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return nopCloser{bytes.NewReader(b.data)}, nil
}

// MimeType возвращает MIME-тип сохраненных данных
func (s *BlobStore) MimeType(ref string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[ref]
	return b.mimeType, ok
}

// Release освобождает данные. Для неизвестной ссылки возвращает false.
func (s *BlobStore) Release(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[ref]; !ok {
		return false
	}
	delete(s.blobs, ref)
	return true
}

// Len возвращает количество хранимых объектов
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// IsBlob сообщает, указывает ли ссылка на данные в памяти
func IsBlob(ref string) bool {
	return strings.HasPrefix(ref, BlobScheme)
}

// nopCloser превращает bytes.Reader в io.ReadSeekCloser
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
