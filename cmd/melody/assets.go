package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-melody/internal/assets"
	"github.com/hazadus/go-melody/internal/s3"
	"github.com/hazadus/go-melody/internal/source"
)

// createAssetsCommand создает группу команд для статических ассетов в S3
func (app *Application) createAssetsCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage static assets in S3 storage",
		Long:  `Publish the local songs/ and covers/ tree to an S3 bucket using the same paths the player reads.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "push",
		Short: "Upload songs/ and covers/ to S3",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.pushAssets(ctx)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [name]",
		Short: "Delete a song and its cover from S3",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.removeAssets(ctx, args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List assets stored in S3",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.listAssets(ctx)
		},
	})

	return cmd
}

// newS3Client создает клиента S3 по настройкам приложения
func (app *Application) newS3Client() (*s3.Client, error) {
	client, err := s3.NewClient(s3.Config{
		Region:     app.Config.AwsRegion,
		AccessKey:  app.Config.AwsAccessKey,
		SecretKey:  app.Config.AwsSecretKey,
		Endpoint:   app.Config.AwsEndpoint,
		BucketName: app.Config.AwsBucketName,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания S3 клиента: %w", err)
	}
	return client, nil
}

func (app *Application) pushAssets(ctx context.Context) error {
	client, err := app.newS3Client()
	if err != nil {
		return err
	}

	fmt.Printf("📤 Публикуем ассеты:\n")
	fmt.Printf("   Каталог: %s\n", app.Config.AssetsDir)
	fmt.Printf("   Бакет: %s\n", app.Config.AwsBucketName)
	fmt.Println()

	publisher := assets.NewPublisher(client, app.Config.AssetsDir, app.Log.Named("assets"))
	uploaded, err := publisher.Publish(ctx)
	if err != nil {
		return fmt.Errorf("загружено %d файлов, ошибка публикации: %w", uploaded, err)
	}

	fmt.Printf("✅ Загружено файлов: %d\n", uploaded)
	fmt.Printf("💡 Укажите assets_base_url: %s\n", client.BaseURL())
	return nil
}

func (app *Application) removeAssets(ctx context.Context, name string) error {
	client, err := app.newS3Client()
	if err != nil {
		return err
	}

	fmt.Printf("🗑️  Удаляем %s и %s\n", source.SongPath(name), source.CoverPath(name))

	publisher := assets.NewPublisher(client, app.Config.AssetsDir, app.Log.Named("assets"))
	if err := publisher.Unpublish(ctx, name); err != nil {
		return err
	}

	fmt.Println("✅ Ассеты удалены из S3")
	return nil
}

func (app *Application) listAssets(ctx context.Context) error {
	client, err := app.newS3Client()
	if err != nil {
		return err
	}

	total := 0
	for _, prefix := range []string{source.SongsPrefix, source.CoversPrefix} {
		keys, err := client.ListKeys(ctx, source.AssetKey(prefix)+"/")
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Println(client.ObjectURL(key))
		}
		total += len(keys)
	}

	fmt.Printf("\n📦 Объектов: %d\n", total)
	return nil
}
