package connection

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/baderkha/patek-transfer/pkg/migrate/config"
	"github.com/baderkha/patek-transfer/pkg/migrate/warehouse"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DialBigQuery : opens a client for the configured project , credentials are read through fs
func DialBigQuery(ctx context.Context, cfg *config.Config, fs afero.Fs) (*bigquery.Client, error) {
	opts, err := cfg.Warehouse.ClientOptions(fs)
	if err != nil {
		return nil, err
	}
	client, err := bigquery.NewClient(ctx, cfg.Warehouse.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("BIGQUERY : Could not create client for project %s due to : %w", cfg.Warehouse.ProjectID, err)
	}
	if cfg.Warehouse.Location != "" {
		client.Location = cfg.Warehouse.Location
	}
	return client, nil
}

// Open : dials bigquery and wraps the client as a warehouse , adding the query log when asked for
func Open(ctx context.Context, cfg *config.Config, fs afero.Fs, log zerolog.Logger) (warehouse.Warehouse, error) {
	log.Info().Str("project", cfg.Warehouse.ProjectID).Msg("getting BigQuery con")
	client, err := DialBigQuery(ctx, cfg, fs)
	if err != nil {
		return nil, err
	}
	var wh warehouse.Warehouse = warehouse.NewBigQuery(client, warehouse.WithDryRun(cfg.DryRun))
	if cfg.QueryLogging {
		wh = warehouse.WithLogging(wh, log.With().Str("driver", "bigquery").Logger())
	}
	log.Info().Msg("got BigQuery con")
	return wh, nil
}
