// Package player воспроизводит аудио через системный аудиовыход
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"github.com/hazadus/go-melody/internal/audio"
	"github.com/hazadus/go-melody/internal/logger"
	"github.com/hazadus/go-melody/internal/playback"
)

const (
	// SampleRate частота вывода. Треки с другой частотой передискретизируются.
	SampleRate = beep.SampleRate(44100)
	// DefaultProgressInterval период отправки позиции
	DefaultProgressInterval = 250 * time.Millisecond
)

var (
	// ErrNotLoaded возвращается при воспроизведении без привязанного трека
	ErrNotLoaded = errors.New("трек не загружен")
	// ErrSuperseded возвращается из Load, если во время загрузки
	// трек был отвязан
	ErrSuperseded = errors.New("загрузка прервана")
)

// Opener открывает источник по ссылке трека
type Opener interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Option настраивает плеер
type Option func(*Player)

// WithProgressInterval задает период отправки позиции
func WithProgressInterval(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger задает логгер
func WithLogger(log *zap.Logger) Option {
	return func(p *Player) {
		p.log = logger.OrNop(log)
	}
}

// Player реализует playback.Resource поверх beep.
// События слушателю отправляются из отдельных горутин и только
// для текущей привязки.
type Player struct {
	mu       sync.Mutex
	opener   Opener
	interval time.Duration
	log      *zap.Logger

	initialized bool
	volume      float64

	gen      uint64
	listener playback.Listener
	src      io.ReadCloser
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	gain     *effects.Volume
	queued   bool // поток добавлен в speaker и еще не закончился
	stop     chan struct{}
}

var _ playback.Resource = (*Player)(nil)

// NewPlayer создает новый экземпляр плеера
func NewPlayer(opener Opener, opts ...Option) *Player {
	p := &Player{
		opener:   opener,
		interval: DefaultProgressInterval,
		log:      zap.NewNop(),
		volume:   1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load привязывает источник и слушателя. Воспроизведение не начинается
// до вызова Play. Открытие и декодирование идут без блокировки плеера.
func (p *Player) Load(ctx context.Context, ref string, l playback.Listener) error {
	p.mu.Lock()
	p.unloadLocked()
	gen := p.gen
	p.mu.Unlock()

	src, err := p.opener.Open(ctx, ref)
	if err != nil {
		return fmt.Errorf("ошибка открытия источника: %w", err)
	}
	if !p.isCurrent(gen) {
		src.Close()
		return ErrSuperseded
	}

	streamer, format, err := audio.Decode(src)
	if err != nil {
		src.Close()
		return fmt.Errorf("ошибка декодирования: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		streamer.Close()
		src.Close()
		return ErrSuperseded
	}
	if err := p.initSpeakerLocked(); err != nil {
		streamer.Close()
		src.Close()
		return err
	}

	p.listener = l
	p.src = src
	p.streamer = streamer
	p.format = format
	p.ctrl = &beep.Ctrl{
		Streamer: beep.Resample(4, format.SampleRate, SampleRate, streamer),
		Paused:   true,
	}
	p.gain = &effects.Volume{Streamer: p.ctrl, Base: 2}
	p.applyVolumeLocked()
	p.queued = false
	p.stop = make(chan struct{})

	if n := streamer.Len(); n > 0 {
		d := format.SampleRate.D(n)
		go p.emit(gen, func(l playback.Listener) { l.DurationKnown(d) })
	}
	go p.monitor(gen, p.stop, streamer, format)

	p.log.Debug("трек загружен", zap.String("source", ref), zap.Int("sample_rate", int(format.SampleRate)))
	return nil
}

func (p *Player) isCurrent(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gen == p.gen
}

// Play начинает или возобновляет воспроизведение
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl == nil {
		return ErrNotLoaded
	}

	if !p.queued {
		p.queued = true
		gen := p.gen
		speaker.Play(beep.Seq(p.gain, beep.Callback(func() {
			// Колбэк вызывается из горутины speaker под его блокировкой
			go p.finished(gen)
		})))
	}

	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause приостанавливает воспроизведение
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Seek перематывает трек. Позиция ограничивается границами трека.
func (p *Player) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return nil
	}

	speaker.Lock()
	n := clampSamples(p.format.SampleRate.N(pos), p.streamer.Len())
	err := p.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("ошибка перемотки: %w", err)
	}

	actual := p.format.SampleRate.D(n)
	go p.emit(p.gen, func(l playback.Listener) { l.TimeUpdate(actual) })
	return nil
}

// SetVolume задает громкость от 0 до 1
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = v
	if p.gain != nil {
		speaker.Lock()
		p.applyVolumeLocked()
		speaker.Unlock()
	}
}

// Unload останавливает воспроизведение и отвязывает слушателя
func (p *Player) Unload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unloadLocked()
}

// Close отвязывает трек и закрывает аудиовыход
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unloadLocked()
	if p.initialized {
		speaker.Close()
		p.initialized = false
	}
	return nil
}

func (p *Player) initSpeakerLocked() error {
	if p.initialized {
		return nil
	}
	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("ошибка инициализации динамиков: %w", err)
	}
	p.initialized = true
	return nil
}

// unloadLocked освобождает поток (должен вызываться под мьютексом)
func (p *Player) unloadLocked() {
	p.gen++
	p.listener = nil

	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	if p.initialized && p.ctrl != nil {
		speaker.Clear()
	}
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	if p.src != nil {
		p.src.Close()
		p.src = nil
	}

	p.ctrl = nil
	p.gain = nil
	p.queued = false
}

func (p *Player) applyVolumeLocked() {
	level, silent := volumeLevel(p.volume)
	p.gain.Volume = level
	p.gain.Silent = silent
}

// emit вызывает слушателя, если привязка gen все еще текущая
func (p *Player) emit(gen uint64, fn func(playback.Listener)) {
	p.mu.Lock()
	l := p.listener
	current := gen == p.gen && l != nil
	p.mu.Unlock()

	if current {
		fn(l)
	}
}

func (p *Player) finished(gen uint64) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.queued = false
	p.mu.Unlock()

	p.emit(gen, func(l playback.Listener) { l.Ended() })
}

// monitor периодически отправляет позицию, пока привязка актуальна
func (p *Player) monitor(gen uint64, stop <-chan struct{}, streamer beep.StreamSeekCloser, format beep.Format) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	last := time.Duration(-1)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			if gen != p.gen {
				p.mu.Unlock()
				return
			}
			speaker.Lock()
			pos := format.SampleRate.D(streamer.Position())
			err := streamer.Err()
			speaker.Unlock()
			p.mu.Unlock()

			if err != nil {
				p.log.Warn("ошибка потока", zap.Error(err))
				p.emit(gen, func(l playback.Listener) { l.Failed(err) })
				return
			}
			if pos != last {
				last = pos
				p.emit(gen, func(l playback.Listener) { l.TimeUpdate(pos) })
			}
		}
	}
}

// volumeLevel переводит громкость 0..1 в степень двойки для effects.Volume
func volumeLevel(v float64) (level float64, silent bool) {
	if math.IsNaN(v) || v <= 0 {
		return 0, true
	}
	return math.Log2(min(v, 1)), false
}

// clampSamples ограничивает позицию границами потока. Неизвестная длина
// ограничивает только снизу.
func clampSamples(n, length int) int {
	n = max(n, 0)
	if length > 0 {
		n = min(n, length)
	}
	return n
}
