package catalog

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazadus/go-melody/internal/source"
)

// PreloadAlbum альбом предзагруженных треков
const PreloadAlbum = "___"

// Entry описывает предзагруженный трек в манифесте.
// Song и Cover - имена ассетов без расширения.
type Entry struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Artist string `yaml:"artist"`
	Album  string `yaml:"album"`
	Song   string `yaml:"song"`
	Cover  string `yaml:"cover"`
}

// Manifest список предзагруженных треков
type Manifest struct {
	Tracks []Entry `yaml:"tracks"`
}

// defaultEntries встроенный список треков, поставляемый вместе с ассетами
var defaultEntries = []Entry{
	{Title: "You", Artist: "Armaan Malik", Song: "You", Cover: "You"},
	{Title: "Feelings", Artist: "LAUV", Song: "Feelings", Cover: "Feelings"},
	{Title: "Photograph", Artist: "ED Sheeran", Song: "Photograph", Cover: "Photograph"},
	{Title: "Theres Nothing Holdin Me Back", Artist: "Shawn Mendes", Song: "Shawn", Cover: "Theres Nothing Holdin Me Back"},
	{Title: "Aankhon Se Batana", Artist: "Dikshant", Song: "Aankhon Se Batana", Cover: "Aankhon Se Batana"},
	{Title: "Ve Maahi", Artist: "Arijit Singh", Song: "Ve Maahi", Cover: "Ve Maahi"},
	{Title: "Into You", Artist: "Hiten", Song: "Into You", Cover: "Into You"},
	{Title: "O Re Piya", Artist: "Atif Aslam", Song: "O re Piya", Cover: "O Re Piya"},
	{Title: "Tera Rastaa Chodoon Na", Artist: "Vishal-Shekhar", Song: "Tera Rastaa Chhodoon Na", Cover: "Cover of Tera Rastaa Chhodoon Na"},
	{Title: "Stay", Artist: "KING", Song: "Stay", Cover: "Stay"},
	{Title: "Laapata", Artist: "KK", Song: "Laapata", Cover: "Laapata"},
	{Title: "Mai Rang Sharbaton Ka", Artist: "Atif Aslam", Song: "Mai Rang Sharbaton Ka", Cover: "Main Rang Sharbaton Ka"},
	{Title: "Samjho Na", Artist: "Aditya Rikhari", Song: "Samjho Na", Cover: "Samjho Na"},
	{Title: "Tu Jaana Na Piya", Artist: "KING", Song: "Tu Jaana Na Piya", Cover: "Tu Jaana Na Piya"},
	{Title: "Ikk Vaari Aa", Artist: "Arijit Singh", Song: "Ik Vaari Aa", Cover: "Ik Vaari Aa"},
	{Title: "Tere Bina", Artist: "Zaeden", Song: "tere bina", Cover: "tere bina"},
	{Title: "Subhanallah", Artist: "Pritam", Song: "Subhanallah", Cover: "Subhanallah"},
	{Title: "Waalian", Artist: "Harnoor", Song: "Waalian", Cover: "Waalian"},
	{Title: "What Makes You Beautiful", Artist: "One Direction", Song: "What Makes You Beautiful", Cover: "What Makes You Beautiful"},
	{Title: "Mere Liye Tum Kaafi Ho", Artist: "Ayushmaan Khurana", Song: "Mere Liye Tum Kaafi Ho", Cover: "Mere Liye Tum Kaafi Ho"},
	{Title: "Manjha", Artist: "Vishal Mishra", Song: "Manjha", Cover: "Manjha"},
}

// DefaultTracks возвращает встроенный список предзагруженных треков
func DefaultTracks(now time.Time) []Track {
	return Manifest{Tracks: defaultEntries}.ToTracks(now)
}

// ToTracks преобразует записи манифеста в треки. Пустые ID нумеруются
// с единицы по порядку, пустой альбом заменяется на PreloadAlbum.
func (m Manifest) ToTracks(now time.Time) []Track {
	tracks := make([]Track, 0, len(m.Tracks))
	for i, e := range m.Tracks {
		id := e.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		album := e.Album
		if album == "" {
			album = PreloadAlbum
		}
		t := Track{
			ID:        id,
			Title:     e.Title,
			Artist:    e.Artist,
			Album:     album,
			SourceRef: source.SongPath(e.Song),
			AddedAt:   now,
		}
		if e.Song == "" {
			t.SourceRef = ""
		}
		if e.Cover != "" {
			t.CoverRef = source.CoverPath(e.Cover)
		}
		tracks = append(tracks, t)
	}
	return tracks
}

// LoadManifest читает манифест из YAML файла
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения манифеста: %w", err)
	}

	manifest := &Manifest{}
	if err := yaml.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("ошибка разбора манифеста: %w", err)
	}
	return manifest, nil
}

// Preload возвращает треки из манифеста или встроенный список, если путь не задан
func Preload(manifestPath string, now time.Time) ([]Track, error) {
	if manifestPath == "" {
		return DefaultTracks(now), nil
	}

	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	return manifest.ToTracks(now), nil
}
