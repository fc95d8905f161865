package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "melody",
		Short: "A terminal music player",
		Long:  `A terminal music player with a preloaded library, local uploads, shuffle and repeat.`,
	}
	rootCmd.SilenceUsage = true

	// Добавляем команды, передавая в них экземпляр приложения и контекст
	rootCmd.AddCommand(app.createListCommand(ctx))
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createTUICommand(ctx))
	rootCmd.AddCommand(app.createProbeCommand(ctx))
	rootCmd.AddCommand(app.createAssetsCommand(ctx))

	return rootCmd
}
