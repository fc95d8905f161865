package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/hazadus/go-melody/internal/catalog"
	"github.com/hazadus/go-melody/internal/source"
	"github.com/hazadus/go-melody/internal/utils"
)

// shortIDLength длина ID в таблице; play принимает такой префикс
const shortIDLength = 8

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand(ctx context.Context) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tracks from the library",
		Long:  `Display the track catalog: preloaded tracks and tracks added with --add.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if probe {
				app.Prober.ProbeAll(ctx)
			}
			app.listTracks(app.Catalog.Tracks())
			return nil
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "measure unknown durations before listing")

	return cmd
}

func (app *Application) listTracks(tracks []catalog.Track) {
	if len(tracks) == 0 {
		fmt.Println("📚 Библиотека пуста. Добавьте треки с помощью 'melody tui --add'.")
		return
	}

	fmt.Printf("📚 Найдено треков: %d\n\n", len(tracks))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Исполнитель", "Название", "Альбом", "Длительность", "Источник"})

	for _, track := range tracks {
		duration := utils.FormatTrackDuration(track.Duration)
		if !track.HasDuration() {
			duration = text.FgHiBlack.Sprint(duration)
		}

		t.AppendRow(table.Row{
			shortID(track.ID),
			utils.TruncateString(track.Artist, 28),
			utils.TruncateString(track.Title, 28),
			utils.TruncateString(track.Album, 18),
			duration,
			sourceKind(track.SourceRef),
		})
	}

	t.Render()

	fmt.Println()
	fmt.Println("💡 Используйте 'melody play [ID]' для воспроизведения трека")
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

// sourceKind описывает происхождение трека для таблицы
func sourceKind(ref string) string {
	switch {
	case source.IsBlob(ref):
		return "загружен"
	case source.IsRemote(ref):
		return "url"
	default:
		return "ассет"
	}
}
