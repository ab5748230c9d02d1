package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baderkha/patek-transfer/pkg/migrate"
	"github.com/baderkha/patek-transfer/pkg/migrate/config"
	"github.com/baderkha/patek-transfer/pkg/migrate/connection"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "patek-migrate",
		Short:        "Backs up the patek table then drops its rows without a price",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			startTime := time.Now()
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log := connection.NewLogger("migrator")
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			wh, err := connection.Open(ctx, cfg, afero.NewOsFs(), log)
			if err != nil {
				return err
			}
			defer wh.Close()

			var runner migrate.Runner = migrate.NewMigrator(wh, cfg.Original(),
				migrate.WithMigratorLogger(log),
				migrate.WithVerify(cfg.Verify),
				migrate.WithDryRun(cfg.DryRun),
			)
			runErr := runner.Run(ctx)

			fmt.Fprintf(cmd.OutOrStdout(), "Time taken: %s\n", time.Since(startTime))
			return runErr
		},
	}
}

func main() {
	if err := MigrateCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
