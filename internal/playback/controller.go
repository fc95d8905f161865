package playback

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/logger"
	"github.com/hazadus/go-melody/internal/selection"
)

// Library часть каталога, нужная контроллеру
type Library interface {
	Tracks() []catalog.Track
	Find(id string) (catalog.Track, bool)
	UpdateDuration(id string, d time.Duration) error
	OnRemove(fn func(catalog.Track))
}

// Option настраивает контроллер
type Option func(*Controller)

// WithRand задает источник случайности для перемешивания
func WithRand(rng selection.Rand) Option {
	return func(c *Controller) {
		c.rng = rng
	}
}

// WithLogger задает логгер
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		c.log = logger.OrNop(log)
	}
}

// WithVolume задает начальную громкость
func WithVolume(v float64) Option {
	return func(c *Controller) {
		if !math.IsNaN(v) {
			c.state.Volume = clampVolume(v)
		}
	}
}

// Controller единолично владеет ресурсом воспроизведения и состоянием.
// Каждая привязка трека получает свой номер поколения: события
// от предыдущих привязок отбрасываются.
type Controller struct {
	mu      sync.Mutex
	res     Resource
	lib     Library
	rng     selection.Rand
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	state   State
	gen     uint64
	closed  bool
	changes chan State

	// Пока идет Load, команды копят намерения и применяются после загрузки
	loading     bool
	autoplay    bool
	seekPending bool
	seekTarget  time.Duration
}

// New создает контроллер и подписывает его на удаление треков из каталога
func New(res Resource, lib Library, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		res:     res,
		lib:     lib,
		rng:     selection.DefaultRand,
		log:     zap.NewNop(),
		ctx:     ctx,
		cancel:  cancel,
		state:   State{Volume: 1, Status: StatusIdle},
		changes: make(chan State, 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	res.SetVolume(c.state.Volume)
	lib.OnRemove(c.trackRemoved)
	return c
}

// State возвращает снимок состояния
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Changes возвращает канал снимков состояния. Медленный читатель
// получает только последний снимок. Канал закрывается в Close.
func (c *Controller) Changes() <-chan State {
	return c.changes
}

// SelectAndPlay начинает воспроизведение трека. Повторный выбор активного
// трека переключает паузу.
func (c *Controller) SelectAndPlay(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if id != "" && id == c.state.ActiveTrackID {
		return c.toggleLocked()
	}

	track, ok := c.lib.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	return c.bindLocked(track, true)
}

// TogglePlayPause ставит на паузу или возобновляет активный трек
func (c *Controller) TogglePlayPause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return c.toggleLocked()
}

// Next переключает на следующий трек по правилам выбора
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	track, ok := selection.Next(c.lib.Tracks(), c.state.ActiveTrackID, c.state.Shuffle, c.rng)
	if !ok {
		return nil
	}
	return c.bindLocked(track, c.playingLocked())
}

// Previous переключает на предыдущий трек. Перемешивание не учитывается.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	track, ok := selection.Previous(c.lib.Tracks(), c.state.ActiveTrackID)
	if !ok {
		return nil
	}
	return c.bindLocked(track, c.playingLocked())
}

// Seek перематывает активный трек. Позиция в состоянии обновляется сразу,
// затем уточняется событием ресурса.
func (c *Controller) Seek(target time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.state.ActiveTrackID == "" {
		return nil
	}

	pos := max(target, 0)
	if c.state.Duration > 0 {
		pos = min(pos, c.state.Duration)
	}
	c.state.Position = pos
	c.publishLocked()

	if c.loading {
		c.seekPending = true
		c.seekTarget = target
		return nil
	}
	if err := c.res.Seek(target); err != nil {
		c.log.Warn("ошибка перемотки", zap.Duration("target", target), zap.Error(err))
		return fmt.Errorf("ошибка перемотки: %w", err)
	}
	return nil
}

// SetVolume задает громкость, значения вне [0, 1] ограничиваются
func (c *Controller) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	v = clampVolume(v)
	c.res.SetVolume(v)
	if c.state.Volume != v {
		c.state.Volume = v
		c.publishLocked()
	}
}

// ToggleShuffle переключает режим перемешивания
func (c *Controller) ToggleShuffle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.state.Shuffle = !c.state.Shuffle
	c.publishLocked()
}

// ToggleRepeat переключает повтор трека
func (c *Controller) ToggleRepeat() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.state.Repeat = !c.state.Repeat
	c.publishLocked()
}

// Close отвязывает ресурс и освобождает его
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.gen++
	c.loading = false
	c.cancel()
	c.res.Unload()
	close(c.changes)
	return c.res.Close()
}

func (c *Controller) toggleLocked() error {
	if c.state.ActiveTrackID == "" {
		return nil
	}
	if c.loading {
		c.autoplay = !c.autoplay
		return nil
	}

	if c.state.IsPlaying {
		c.res.Pause()
		c.state.IsPlaying = false
		if c.state.Status == StatusPlaying {
			c.state.Status = StatusPaused
		}
		c.publishLocked()
		return nil
	}

	if err := c.res.Play(); err != nil {
		return c.failLocked(err)
	}
	c.state.IsPlaying = true
	if c.state.Status == StatusPaused {
		c.state.Status = StatusPlaying
	}
	c.publishLocked()
	return nil
}

// bindLocked отвязывает текущий трек и привязывает новый. На время Load
// мьютекс отпускается: результат применяется, только если за это время
// привязка не сменилась.
func (c *Controller) bindLocked(track catalog.Track, autoplay bool) error {
	c.res.Unload()
	c.gen++
	gen := c.gen

	c.state.ActiveTrackID = track.ID
	c.state.IsPlaying = false
	c.state.Position = 0
	c.state.Duration = track.Duration
	c.state.Status = StatusLoading
	c.state.Err = nil
	c.loading = true
	c.autoplay = autoplay
	c.seekPending = false
	c.publishLocked()

	c.log.Info("привязка трека", zap.String("track", track.ID), zap.String("source", track.SourceRef))

	c.mu.Unlock()
	err := c.res.Load(c.ctx, track.SourceRef, &binding{c: c, gen: gen})
	c.mu.Lock()

	if !c.currentLocked(gen) {
		c.log.Debug("загрузка устарела", zap.String("track", track.ID))
		return nil
	}
	c.loading = false
	if err != nil {
		return c.failLocked(err)
	}
	c.res.SetVolume(c.state.Volume)

	if c.seekPending {
		c.seekPending = false
		if err := c.res.Seek(c.seekTarget); err != nil {
			c.log.Warn("ошибка перемотки", zap.Duration("target", c.seekTarget), zap.Error(err))
		}
	}
	if c.autoplay {
		if err := c.res.Play(); err != nil {
			return c.failLocked(err)
		}
		c.state.IsPlaying = true
	}
	c.publishLocked()
	return nil
}

// playingLocked сообщает, должен ли звучать текущий трек
func (c *Controller) playingLocked() bool {
	if c.loading {
		return c.autoplay
	}
	return c.state.IsPlaying
}

// failLocked переводит контроллер в состояние ошибки без активного трека
func (c *Controller) failLocked(err error) error {
	c.log.Warn("ошибка ресурса", zap.String("track", c.state.ActiveTrackID), zap.Error(err))

	c.res.Unload()
	c.gen++
	c.loading = false
	c.state.ActiveTrackID = ""
	c.state.IsPlaying = false
	c.state.Position = 0
	c.state.Duration = 0
	c.state.Status = StatusError
	c.state.Err = err
	c.publishLocked()
	return fmt.Errorf("ошибка воспроизведения: %w", err)
}

// idleLocked отвязывает ресурс без ошибки
func (c *Controller) idleLocked() {
	c.res.Unload()
	c.gen++
	c.loading = false
	c.state.ActiveTrackID = ""
	c.state.IsPlaying = false
	c.state.Position = 0
	c.state.Duration = 0
	c.state.Status = StatusIdle
	c.publishLocked()
}

func (c *Controller) trackRemoved(track catalog.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || track.ID != c.state.ActiveTrackID {
		return
	}
	c.log.Info("активный трек удален", zap.String("track", track.ID))
	c.idleLocked()
}

// resolveLoadingLocked завершает загрузку по первому событию ресурса
func (c *Controller) resolveLoadingLocked() {
	if c.loading || c.state.Status != StatusLoading {
		return
	}
	if c.state.IsPlaying {
		c.state.Status = StatusPlaying
	} else {
		c.state.Status = StatusPaused
	}
}

func (c *Controller) publishLocked() {
	if c.closed {
		return
	}
	select {
	case <-c.changes:
	default:
	}
	select {
	case c.changes <- c.state:
	default:
	}
}

func (c *Controller) onTimeUpdate(gen uint64, pos time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLocked(gen) {
		return
	}
	pos = max(pos, 0)
	if c.state.Duration > 0 {
		pos = min(pos, c.state.Duration)
	}
	c.state.Position = pos
	c.resolveLoadingLocked()
	c.publishLocked()
}

func (c *Controller) onDurationKnown(gen uint64, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLocked(gen) || d <= 0 {
		return
	}
	c.state.Duration = d
	c.resolveLoadingLocked()
	if err := c.lib.UpdateDuration(c.state.ActiveTrackID, d); err != nil {
		c.log.Debug("длительность не сохранена", zap.Error(err))
	}
	c.publishLocked()
}

func (c *Controller) onEnded(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLocked(gen) {
		return
	}

	if c.state.Repeat {
		if err := c.res.Seek(0); err != nil {
			_ = c.failLocked(err)
			return
		}
		if err := c.res.Play(); err != nil {
			_ = c.failLocked(err)
			return
		}
		c.state.Position = 0
		c.state.IsPlaying = true
		c.state.Status = StatusPlaying
		c.publishLocked()
		return
	}

	next, ok := selection.Next(c.lib.Tracks(), c.state.ActiveTrackID, c.state.Shuffle, c.rng)
	if !ok {
		c.idleLocked()
		return
	}
	_ = c.bindLocked(next, true)
}

func (c *Controller) onFailed(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLocked(gen) {
		return
	}
	_ = c.failLocked(err)
}

func (c *Controller) currentLocked(gen uint64) bool {
	return !c.closed && gen == c.gen && c.state.ActiveTrackID != ""
}

// binding слушатель одной привязки трека
type binding struct {
	c   *Controller
	gen uint64
}

func (b *binding) TimeUpdate(pos time.Duration)  { b.c.onTimeUpdate(b.gen, pos) }
func (b *binding) DurationKnown(d time.Duration) { b.c.onDurationKnown(b.gen, d) }
func (b *binding) Ended()                        { b.c.onEnded(b.gen) }
func (b *binding) Failed(err error)              { b.c.onFailed(b.gen, err) }

func clampVolume(v float64) float64 {
	return min(max(v, 0), 1)
}
