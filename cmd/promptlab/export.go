package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/promptlab/promptlab/internal/config"
	"github.com/promptlab/promptlab/internal/ledger"
	"github.com/promptlab/promptlab/internal/store"
)

func newExportCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the experiment ledger without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			st, err := store.NewSQLite(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := st.Close(); closeErr != nil {
					logger.Error("Failed to close store", "error", closeErr)
				}
			}()

			lgr, err := ledger.New(context.Background(), st, logger)
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case "json":
				data, err = lgr.ExportJSON()
			case "csv":
				data, err = lgr.ExportCSV()
			default:
				return fmt.Errorf("format must be json or csv, got %q", format)
			}
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			logger.Info("Export written", "path", out, "bytes", len(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "export format: json or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to stdout)")
	return cmd
}
