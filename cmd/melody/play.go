package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/playback"
	"github.com/hazadus/go-melody/internal/utils"
)

const (
	volumeStep = 0.1
	seekStep   = 5 * time.Second
)

// transport операции контроллера, доступные с клавиатуры
type transport interface {
	TogglePlayPause() error
	Next() error
	Previous() error
	Seek(pos time.Duration) error
	SetVolume(v float64)
	ToggleShuffle()
	ToggleRepeat()
	State() playback.State
}

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	var add []string

	cmd := &cobra.Command{
		Use:   "play [trackid]",
		Short: "Play a track by its ID",
		Long: `Play a track by its ID (or a unique ID prefix) and keep playing the library.
Files passed with --add are appended to the library first; without an ID the first added file is played.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			track, err := app.pickTrack(ctx, args, add)
			if err != nil {
				return err
			}
			return app.playTrack(ctx, track)
		},
	}
	cmd.Flags().StringSliceVar(&add, "add", nil, "audio files to add to the library")

	return cmd
}

// pickTrack добавляет файлы из --add и выбирает трек для воспроизведения
func (app *Application) pickTrack(ctx context.Context, args, add []string) (catalog.Track, error) {
	var added []catalog.Track
	if len(add) > 0 {
		var err error
		added, err = app.Intake.AcceptPaths(ctx, add)
		if err != nil {
			if len(added) == 0 {
				return catalog.Track{}, fmt.Errorf("ошибка добавления файлов: %w", err)
			}
			fmt.Printf("⚠️  Не все файлы добавлены: %v\n", err)
		}
		fmt.Printf("➕ Добавлено треков: %d\n", len(added))
	}

	if len(args) == 1 {
		return app.FindTrack(args[0])
	}
	if len(added) > 0 {
		return added[0], nil
	}
	return catalog.Track{}, errors.New("укажите ID трека или аудио файлы через --add")
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Без stty клавиши просто придут после Enter
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}

// readKeys читает одиночные символы без ожидания Enter
func readKeys(keys chan<- byte) {
	buffer := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buffer); err != nil {
			return
		}
		keys <- buffer[0]
	}
}

func (app *Application) playTrack(ctx context.Context, track catalog.Track) error {
	ctrl := app.NewController()
	defer func() { _ = ctrl.Close() }()

	if err := ctrl.SelectAndPlay(track.ID); err != nil {
		return fmt.Errorf("ошибка запуска воспроизведения: %w", err)
	}

	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] пауза  [n/b] след/пред  [,/.] перемотка  [+/-] громкость\n")
	fmt.Printf("   [s] shuffle  [r] repeat  [q] выход\n")
	fmt.Println()

	enableRawMode()
	defer disableRawMode()

	keys := make(chan byte)
	go readKeys(keys)

	// Печатаем заголовок при смене трека
	var shownID string
	changes := ctrl.Changes()

	for {
		select {
		case state, ok := <-changes:
			if !ok {
				return nil
			}
			if state.ActiveTrackID != "" && state.ActiveTrackID != shownID {
				shownID = state.ActiveTrackID
				if t, found := app.Catalog.Find(shownID); found {
					fmt.Printf("\r\033[K🎵 Сейчас играет: %s - %s\n", t.Artist, t.Title)
				}
			}
			fmt.Printf("\r\033[K%s", formatStatusLine(state))

		case key := <-keys:
			quit, err := applyKey(ctrl, key)
			if quit {
				fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
				return nil
			}
			if err != nil {
				fmt.Printf("\r\033[K⚠️  %v\n", err)
			}

		case <-ctx.Done():
			fmt.Println("\n⏹️  Воспроизведение остановлено")
			return nil
		}
	}
}

// applyKey выполняет команду клавиши. Возвращает true для выхода.
func applyKey(ctrl transport, key byte) (bool, error) {
	state := ctrl.State()

	switch key {
	case ' ', '\n', '\r':
		return false, ctrl.TogglePlayPause()
	case 'n':
		return false, ctrl.Next()
	case 'b':
		return false, ctrl.Previous()
	case 's':
		ctrl.ToggleShuffle()
	case 'r':
		ctrl.ToggleRepeat()
	case '+', '=':
		ctrl.SetVolume(state.Volume + volumeStep)
	case '-':
		ctrl.SetVolume(state.Volume - volumeStep)
	case '.':
		return false, ctrl.Seek(state.Position + seekStep)
	case ',':
		return false, ctrl.Seek(state.Position - seekStep)
	case 'q':
		return true, nil
	}
	return false, nil
}

// formatStatusLine формирует строку состояния воспроизведения
func formatStatusLine(state playback.State) string {
	var b strings.Builder

	switch state.Status {
	case playback.StatusError:
		fmt.Fprintf(&b, "❌ Ошибка воспроизведения: %v", state.Err)
		return b.String()
	case playback.StatusIdle:
		return "⏹️  Нет активного трека"
	case playback.StatusLoading:
		b.WriteString("⏳ ")
	case playback.StatusPaused:
		b.WriteString("⏸️  ")
	default:
		b.WriteString("▶️  ")
	}

	fmt.Fprintf(&b, "%s / %s",
		utils.FormatClock(state.Position),
		utils.FormatTrackDuration(state.Duration))
	if state.Duration > 0 {
		fmt.Fprintf(&b, " (%s)", utils.FormatPercent(state.Progress()))
	}
	fmt.Fprintf(&b, " | 🔊 %s", utils.FormatPercent(state.Volume))

	if state.Shuffle {
		b.WriteString(" | 🔀")
	}
	if state.Repeat {
		b.WriteString(" | 🔁")
	}
	return b.String()
}
