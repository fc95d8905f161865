package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/config"
	"github.com/hazadus/go-melody/internal/logger"
	"github.com/hazadus/go-melody/internal/metadata"
	"github.com/hazadus/go-melody/internal/playback"
	"github.com/hazadus/go-melody/internal/player"
	"github.com/hazadus/go-melody/internal/source"
	"github.com/hazadus/go-melody/internal/upload"
)

const (
	defaultConfigPath = "~/.melody"
)

// DurationProber определяет длительности треков каталога
type DurationProber interface {
	ProbeAll(ctx context.Context) int
	Start(ctx context.Context, tracks []catalog.Track) <-chan int
}

// Application связывает компоненты плеера для команд CLI
type Application struct {
	Config    *config.Config
	Log       *zap.Logger
	Catalog   *catalog.Catalog
	Blobs     *source.BlobStore
	Resolver  *source.Resolver
	Extractor *metadata.Extractor
	Prober    DurationProber
	Intake    *upload.Intake
}

// NewApplication создает приложение и заполняет каталог предзагруженными треками
func NewApplication(cfg *config.Config, log *zap.Logger) (*Application, error) {
	log = logger.OrNop(log)

	tracks, err := catalog.Preload(cfg.ManifestPath, time.Now())
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки списка треков: %w", err)
	}

	cat := catalog.New()
	if err := cat.Load(tracks); err != nil {
		return nil, fmt.Errorf("ошибка заполнения каталога: %w", err)
	}

	blobs := source.NewBlobStore()
	resolver := source.NewResolver(blobs, cfg.AssetsDir, cfg.AssetsBaseURL)
	extractor := metadata.NewExtractor()
	prober := metadata.NewProber(resolver, extractor.Duration, cat, log, cfg.ProbeConcurrency)

	return &Application{
		Config:    cfg,
		Log:       log,
		Catalog:   cat,
		Blobs:     blobs,
		Resolver:  resolver,
		Extractor: extractor,
		Prober:    prober,
		Intake:    upload.NewIntake(cat, blobs, extractor, prober, log),
	}, nil
}

// NewController создает контроллер воспроизведения поверх звуковой карты.
// Закрытие контроллера освобождает и плеер.
func (app *Application) NewController() *playback.Controller {
	p := player.NewPlayer(app.Resolver,
		player.WithProgressInterval(app.Config.ProgressInterval),
		player.WithLogger(app.Log.Named("player")),
	)
	return playback.New(p, app.Catalog,
		playback.WithLogger(app.Log.Named("playback")),
		playback.WithVolume(app.Config.Volume),
	)
}

// FindTrack ищет трек по ID или по однозначному префиксу ID
func (app *Application) FindTrack(id string) (catalog.Track, error) {
	if track, ok := app.Catalog.Find(id); ok {
		return track, nil
	}

	matches := lo.Filter(app.Catalog.Tracks(), func(t catalog.Track, _ int) bool {
		return id != "" && strings.HasPrefix(t.ID, id)
	})
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return catalog.Track{}, fmt.Errorf("трек %q не найден: %w", id, catalog.ErrTrackNotFound)
	default:
		return catalog.Track{}, fmt.Errorf("префикс %q подходит к %d трекам", id, len(matches))
	}
}

func main() {
	cfg, err := config.LoadConfig(defaultConfigPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zl, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("Ошибка настройки логирования: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	app, err := NewApplication(cfg, zl)
	if err != nil {
		log.Fatalf("Ошибка инициализации: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.createRootCommand(ctx).Execute(); err != nil {
		stop()
		os.Exit(1)
	}
}
