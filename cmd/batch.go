package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/powerm17/automated-home-decor/internal/batch"
	"github.com/powerm17/automated-home-decor/internal/config"
	"github.com/powerm17/automated-home-decor/internal/upload"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	var backendURL string
	var outputPath string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Upload every room photo in a directory and save the suggestions",
		Long: `Uploads each image in a directory to the decor backend, one flow per
photo, and writes the results to a Parquet or YAML file.

Parquet output has one row per suggested item; YAML keeps one entry per photo.`,
		Example: `  # Save suggestions for a folder of photos
  roomdecor batch ./rooms --output rooms.parquet

  # Two uploads at a time, YAML report
  roomdecor batch ./rooms --output rooms.yaml --concurrency 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if backendURL == "" {
				backendURL = cfg.BackendURL
			}
			dir := args[0]

			format := strings.ToLower(filepath.Ext(outputPath))
			switch format {
			case ".parquet", ".yaml", ".yml":
			default:
				return fmt.Errorf("unsupported output format: %s (supported: .parquet, .yaml)", outputPath)
			}

			paths, err := batch.FindImages(dir)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no images found in %s", dir)
			}
			slog.Info("Uploading images", "count", len(paths), "backend", backendURL, "concurrency", concurrency)

			client := upload.NewClient(upload.ClientOpts{URL: backendURL})
			results, err := batch.Run(cmd.Context(), client, nil, paths, concurrency)
			if err != nil {
				return err
			}

			if format == ".parquet" {
				err = batch.WriteParquet(outputPath, results)
			} else {
				err = batch.WriteYAML(outputPath, batch.NewReport(backendURL, dir, results, time.Now()))
			}
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Status != batch.StatusOK {
					failed++
				}
			}
			absPath, _ := filepath.Abs(outputPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d images (%d failed), results saved to: %s\n", len(results), failed, absPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&backendURL, "backend", "", "Decor backend upload URL")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "suggestions.parquet", "Output file (.parquet or .yaml)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Uploads in flight at once")

	return cmd
}
