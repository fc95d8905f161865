// Package playback связывает каталог с единственным ресурсом воспроизведения
package playback

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTrackNotFound возвращается при выборе трека, которого нет в каталоге
	ErrTrackNotFound = errors.New("трек не найден в каталоге")
	// ErrClosed возвращается после закрытия контроллера
	ErrClosed = errors.New("контроллер закрыт")
)

// Status состояние привязки ресурса
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State снимок состояния воспроизведения
type State struct {
	ActiveTrackID string
	IsPlaying     bool
	Position      time.Duration
	Duration      time.Duration // 0 - неизвестна
	Volume        float64       // 0..1
	Shuffle       bool
	Repeat        bool
	Status        Status
	Err           error // Последняя ошибка загрузки ресурса
}

// Progress возвращает долю проигранного от 0 до 1
func (s State) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := float64(s.Position) / float64(s.Duration)
	return min(max(p, 0), 1)
}

// Listener получает события ресурса. Вызовы могут приходить из любых горутин.
type Listener interface {
	TimeUpdate(pos time.Duration)
	DurationKnown(d time.Duration)
	Ended()
	Failed(err error)
}

// Resource единственный ресурс воспроизведения.
//
// Load привязывает источник и слушателя, отвязывая предыдущего: после
// возврата из Load и Unload старый слушатель событий не получает.
// Load может долго ждать сеть, остальные методы вызываются параллельно
// с ним. Unload во время Load отменяет незавершенную загрузку.
// Реализация не должна вызывать слушателя синхронно из своих методов.
type Resource interface {
	Load(ctx context.Context, ref string, l Listener) error
	Play() error
	Pause()
	Seek(pos time.Duration) error
	SetVolume(v float64)
	Unload()
	Close() error
}
