package metadata

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/logger"
)

// DefaultConcurrency число одновременных проверок по умолчанию
const DefaultConcurrency = 4

// Opener открывает источник по ссылке трека
type Opener interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// DurationStore принимает найденные длительности
type DurationStore interface {
	Tracks() []catalog.Track
	UpdateDuration(id string, d time.Duration) error
}

// MeasureFunc определяет длительность по данным источника
type MeasureFunc func(r io.Reader) (time.Duration, error)

// Prober определяет длительность треков, у которых она неизвестна.
// Ошибки не повторяются: длительность такого трека остается нулевой.
type Prober struct {
	opener  Opener
	measure MeasureFunc
	store   DurationStore
	log     *zap.Logger
	limit   int
}

// NewProber создает новый пробер. limit <= 0 означает DefaultConcurrency.
func NewProber(opener Opener, measure MeasureFunc, store DurationStore, log *zap.Logger, limit int) *Prober {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &Prober{
		opener:  opener,
		measure: measure,
		store:   store,
		log:     logger.OrNop(log),
		limit:   limit,
	}
}

// ProbeAll проверяет все треки каталога без длительности
func (p *Prober) ProbeAll(ctx context.Context) int {
	return p.Probe(ctx, p.store.Tracks())
}

// Probe проверяет переданные треки и ждет завершения.
// Возвращает число треков, для которых длительность записана.
func (p *Prober) Probe(ctx context.Context, tracks []catalog.Track) int {
	var updated atomic.Int32

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	for _, track := range tracks {
		if track.HasDuration() {
			continue
		}
		g.Go(func() error {
			if p.probeOne(ctx, track) {
				updated.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(updated.Load())
}

// Start запускает проверку в фоне. Канал закрывается по завершении.
func (p *Prober) Start(ctx context.Context, tracks []catalog.Track) <-chan int {
	done := make(chan int, 1)
	go func() {
		defer close(done)
		done <- p.Probe(ctx, tracks)
	}()
	return done
}

func (p *Prober) probeOne(ctx context.Context, track catalog.Track) bool {
	if ctx.Err() != nil {
		return false
	}

	reader, err := p.opener.Open(ctx, track.SourceRef)
	if err != nil {
		p.log.Debug("источник недоступен", zap.String("track", track.ID), zap.Error(err))
		return false
	}
	defer reader.Close()

	d, err := p.measure(reader)
	if err != nil || d <= 0 {
		p.log.Debug("длительность не определена", zap.String("track", track.ID), zap.Error(err))
		return false
	}

	if err := p.store.UpdateDuration(track.ID, d); err != nil {
		// Трек мог быть удален, пока шла проверка
		p.log.Debug("длительность не сохранена", zap.String("track", track.ID), zap.Error(err))
		return false
	}

	p.log.Debug("длительность определена", zap.String("track", track.ID), zap.Duration("duration", d))
	return true
}
