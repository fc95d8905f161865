package main

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/hazadus/go-melody/internal/catalog"
)

// createProbeCommand создает команду probe с привязкой к экземпляру приложения
func (app *Application) createProbeCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Measure durations of library tracks",
		Long:  `Decode every track with unknown duration and report how many durations were determined.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.probeTracks(ctx)
		},
	}
}

func (app *Application) probeTracks(ctx context.Context) error {
	unknown := lo.CountBy(app.Catalog.Tracks(), func(t catalog.Track) bool {
		return !t.HasDuration()
	})
	if unknown == 0 {
		fmt.Println("✅ Длительности всех треков уже известны")
		return nil
	}

	fmt.Printf("🔎 Определяем длительность треков: %d\n", unknown)
	probed := app.Prober.ProbeAll(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	fmt.Printf("✅ Определено: %d из %d\n", probed, unknown)
	if probed < unknown {
		fmt.Printf("⚠️  Остальные источники недоступны или не декодируются (%s)\n", app.Config.AssetsDir)
	}
	return nil
}
