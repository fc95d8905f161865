package source

import (
	"path"
	"strings"
)

// Схема путей статических ассетов, которую отдает файловый сервер развертывания
const (
	SongsPrefix  = "/songs/"
	CoversPrefix = "/covers/"
	SongExt      = ".mp3"
	CoverExt     = ".jpg"
)

// SongPath возвращает путь аудиоассета: /songs/<name>.mp3
func SongPath(name string) string {
	return SongsPrefix + name + SongExt
}

// CoverPath возвращает путь обложки: /covers/<name>.jpg
func CoverPath(name string) string {
	return CoversPrefix + name + CoverExt
}

// IsStatic сообщает, указывает ли ссылка на статический ассет
func IsStatic(ref string) bool {
	return strings.HasPrefix(ref, SongsPrefix) || strings.HasPrefix(ref, CoversPrefix)
}

// IsRemote сообщает, является ли ссылка HTTP-адресом
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// AssetKey преобразует путь ассета в ключ объекта хранилища (без ведущего слеша)
func AssetKey(ref string) string {
	return strings.TrimPrefix(path.Clean("/"+ref), "/")
}
