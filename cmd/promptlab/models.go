package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/promptlab/promptlab/internal/config"
	"github.com/promptlab/promptlab/internal/ollama"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available on the generation backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			client := ollama.NewClient(cfg.OllamaURL, logger)

			if !client.CheckConnection(context.Background()) {
				fmt.Printf("backend at %s is not reachable\n", cfg.OllamaURL)
				return nil
			}

			models := client.ListModels(context.Background())
			if len(models) == 0 {
				fmt.Println("no local models found")
				return nil
			}
			for _, m := range models {
				fmt.Printf("%-40s %12d bytes  %s\n", m.Name, m.Size, m.ModifiedAt)
			}
			return nil
		},
	}
}
