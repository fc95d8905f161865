package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBlobStoreLifecycle(t *testing.T) {
	store := NewBlobStore()

	ref := store.Put([]byte("audio"), "audio/mpeg")
	if !IsBlob(ref) {
		t.Fatalf("Ожидалась ссылка со схемой blob:, получено: %s", ref)
	}

	other := store.Put([]byte("audio"), "audio/mpeg")
	if other == ref {
		t.Error("Ссылки на разные загрузки не должны совпадать")
	}

	mimeType, ok := store.MimeType(ref)
	if !ok || mimeType != "audio/mpeg" {
		t.Errorf("Ожидался MIME-тип audio/mpeg, получено: %q (%v)", mimeType, ok)
	}

	rc, err := store.Open(ref)
	if err != nil {
		t.Fatalf("Ошибка открытия данных: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "audio" {
		t.Errorf("Ожидались данные 'audio', получено: %q", data)
	}

	if !store.Release(ref) {
		t.Error("Release должен вернуть true для существующей ссылки")
	}
	if store.Release(ref) {
		t.Error("Повторный Release должен вернуть false")
	}
	if _, err := store.Open(ref); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("Ожидалась ErrBlobNotFound после освобождения, получено: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Ожидался 1 объект в хранилище, получено: %d", store.Len())
	}
}

func TestStaticPaths(t *testing.T) {
	if got := SongPath("Ve Maahi"); got != "/songs/Ve Maahi.mp3" {
		t.Errorf("SongPath = %q", got)
	}
	if got := CoverPath("Stay"); got != "/covers/Stay.jpg" {
		t.Errorf("CoverPath = %q", got)
	}
	if !IsStatic("/songs/Stay.mp3") || IsStatic("blob:123") {
		t.Error("IsStatic работает некорректно")
	}
	if !IsRemote("https://example.com/a.mp3") || IsRemote("/songs/a.mp3") {
		t.Error("IsRemote работает некорректно")
	}
	if got := AssetKey("/songs/../covers/x.jpg"); got != "covers/x.jpg" {
		t.Errorf("AssetKey = %q", got)
	}
}

func TestResolverOpensLocalAsset(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "songs"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "songs", "Stay.mp3"), []byte("local"), 0644); err != nil {
		t.Fatal(err)
	}

	resolver := NewResolver(NewBlobStore(), dir, "")
	rc, err := resolver.Open(context.Background(), SongPath("Stay"))
	if err != nil {
		t.Fatalf("Ошибка открытия ассета: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "local" {
		t.Errorf("Ожидались данные 'local', получено: %q", data)
	}

	if _, err := resolver.Open(context.Background(), SongPath("Missing")); err == nil {
		t.Error("Ожидалась ошибка для отсутствующего ассета")
	}
}

func TestResolverOpensBlobAndEmptyRef(t *testing.T) {
	blobs := NewBlobStore()
	ref := blobs.Put([]byte("blob data"), "audio/mpeg")
	resolver := NewResolver(blobs, t.TempDir(), "")

	rc, err := resolver.Open(context.Background(), ref)
	if err != nil {
		t.Fatalf("Ошибка открытия blob: %v", err)
	}
	rc.Close()

	if _, err := resolver.Open(context.Background(), ""); !errors.Is(err, ErrEmptyRef) {
		t.Errorf("Ожидалась ErrEmptyRef, получено: %v", err)
	}
}

func TestResolverStreamsFromBaseURL(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		if r.URL.Path != "/bucket/songs/Ve Maahi.mp3" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("remote"))
	}))
	defer server.Close()

	resolver := NewResolver(nil, "", server.URL+"/bucket/")
	rc, err := resolver.Open(context.Background(), SongPath("Ve Maahi"))
	if err != nil {
		t.Fatalf("Ошибка открытия потока: %v (запрошен путь %s)", err, requested)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "remote" {
		t.Errorf("Ожидались данные 'remote', получено: %q", data)
	}

	u, err := resolver.URL(SongPath("Ve Maahi"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(u, "/bucket/songs/Ve%20Maahi.mp3") {
		t.Errorf("Ожидался экранированный адрес, получено: %s", u)
	}
}

func TestStreamReaderHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := NewStreamReader(context.Background(), server.URL+"/a.mp3", 0); err == nil {
		t.Error("Ожидалась ошибка HTTP 404")
	}
}
