package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hazadus/go-melody/internal/tui"
	"github.com/hazadus/go-melody/internal/upload"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand(ctx context.Context) *cobra.Command {
	var (
		add   []string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long: `Launch interactive terminal user interface for browsing and playing tracks.
With --watch, audio files dropped into upload_dir are added to the library.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI(ctx, add, watch)
		},
	}
	cmd.Flags().StringSliceVar(&add, "add", nil, "audio files to add to the library")
	cmd.Flags().BoolVar(&watch, "watch", false, "import files appearing in upload_dir")

	return cmd
}

func (app *Application) launchTUI(ctx context.Context, add []string, watch bool) error {
	if watch && app.Config.UploadDir == "" {
		return errors.New("для --watch нужно указать upload_dir в конфигурации")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if _, err := app.prepareLibrary(ctx, add); err != nil {
		return err
	}

	if watch {
		w := upload.NewWatcher(app.Config.UploadDir, app.Intake, app.Log.Named("watcher"))
		go func() {
			if err := w.Run(ctx); err != nil {
				app.Log.Warn("наблюдение за каталогом остановлено", zap.Error(err))
			}
		}()
	}

	ctrl := app.NewController()
	defer func() { _ = ctrl.Close() }()

	return tui.NewApp(ctrl, app.Catalog, app.Intake).Run()
}

// prepareLibrary запускает фоновое определение длительностей предзагруженных
// треков и добавляет файлы из --add. Добавленные треки обрабатывает Intake,
// поэтому в общий запуск они не попадают. Возвращает канал завершения
// фоновой обработки предзагруженных треков.
func (app *Application) prepareLibrary(ctx context.Context, add []string) (<-chan int, error) {
	done := app.Prober.Start(ctx, app.Catalog.Tracks())

	if len(add) > 0 {
		added, err := app.Intake.AcceptPaths(ctx, add)
		if err != nil && len(added) == 0 {
			return done, fmt.Errorf("ошибка добавления файлов: %w", err)
		}
	}
	return done, nil
}
