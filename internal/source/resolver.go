package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Resolver открывает источник по ссылке трека
type Resolver struct {
	blobs      *BlobStore
	assetsDir  string
	baseURL    string
	bufferSize int
}

// NewResolver создает резолвер. Если baseURL не пуст, статические ассеты
// читаются по HTTP относительно него, иначе из каталога assetsDir.
func NewResolver(blobs *BlobStore, assetsDir, baseURL string) *Resolver {
	return &Resolver{
		blobs:      blobs,
		assetsDir:  assetsDir,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		bufferSize: DefaultBufferSize,
	}
}

// Open открывает источник для чтения
func (r *Resolver) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	switch {
	case ref == "":
		return nil, ErrEmptyRef
	case IsBlob(ref):
		if r.blobs == nil {
			return nil, ErrBlobNotFound
		}
		return r.blobs.Open(ref)
	case IsRemote(ref):
		return NewStreamReader(ctx, ref, r.bufferSize)
	case r.baseURL != "":
		u, err := r.URL(ref)
		if err != nil {
			return nil, err
		}
		return NewStreamReader(ctx, u, r.bufferSize)
	default:
		file, err := os.Open(r.LocalPath(ref))
		if err != nil {
			return nil, fmt.Errorf("ошибка открытия ассета: %w", err)
		}
		return file, nil
	}
}

// LocalPath возвращает путь ассета в локальном каталоге
func (r *Resolver) LocalPath(ref string) string {
	return filepath.Join(r.assetsDir, filepath.FromSlash(AssetKey(ref)))
}

// URL возвращает адрес ассета относительно baseURL
func (r *Resolver) URL(ref string) (string, error) {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return "", fmt.Errorf("неверный адрес ассетов: %w", err)
	}
	return u.JoinPath(AssetKey(ref)).String(), nil
}
