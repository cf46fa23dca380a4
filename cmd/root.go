package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/powerm17/automated-home-decor/internal/config"
	"github.com/powerm17/automated-home-decor/internal/logging"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var logLevel string
	var logFormat string

	cmd := &cobra.Command{
		Use:   "roomdecor",
		Short: "Room photo uploader that renders AI decor suggestions",
		Long: `Roomdecor sends a photo of a room to the decor backend and shows the
furniture suggestions and prominent colours it finds.

It ships a small web front end and command line tools that drive the same
select, upload and render flow.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg := config.Load()
			if logLevel == "" {
				logLevel = cfg.LogLevel
			}
			if logFormat == "" {
				logFormat = cfg.LogFormat
			}
			slog.SetDefault(logging.New(os.Stderr, logFormat, logLevel))
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text or json)")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newBatchCmd())

	return cmd
}
