package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/baderkha/patek-transfer/pkg/migrate"
	"github.com/baderkha/patek-transfer/pkg/migrate/config"
	"github.com/baderkha/patek-transfer/pkg/migrate/connection"
	"github.com/baderkha/patek-transfer/pkg/migrate/export"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func FetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "patek-fetch",
		Short:        "Prints a sample of the patek table",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log := connection.NewLogger("fetcher")
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			log.Info().Msg("Connecting to BigQuery...")
			wh, err := connection.Open(ctx, cfg, afero.NewOsFs(), log)
			if err != nil {
				return err
			}
			defer wh.Close()

			opts := []migrate.FetcherOption{
				migrate.WithFetcherLogger(log),
				migrate.WithOutput(cmd.OutOrStdout()),
			}
			if cfg.Export.Enabled() {
				opts = append(opts, migrate.WithExporter(export.NewS3Exporter(cfg.Export)))
			}
			_, err = migrate.NewFetcher(wh, cfg.Original(), opts...).Fetch(ctx)
			return err
		},
	}
}

func main() {
	if err := FetchCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
