package config

import (
	"fmt"
	"strings"

	"github.com/baderkha/patek-transfer/pkg/migrate/config/exportcfg"
	"github.com/baderkha/patek-transfer/pkg/migrate/config/warehousecfg"
	"github.com/baderkha/patek-transfer/pkg/migrate/table"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "PATEK"

	DefaultProject      = "projectbdm-487109"
	DefaultDataset      = "patek_data"
	DefaultExportPrefix = "samples"

	// TableName : the table that gets sampled and cleaned
	TableName = "patek"
)

// Config : configuration for a fetch or a migration , everything comes from the environment
type Config struct {
	Warehouse    warehousecfg.BigQuery `json:"warehouse"`
	Export       exportcfg.S3          `json:"export"`
	QueryLogging bool                  `json:"query_log"`
	Verify       bool                  `json:"verify"`
	DryRun       bool                  `json:"dry_run"`
}

// Original : the table the fetcher reads and the migrator cleans
func (c *Config) Original() table.Ref {
	return c.Warehouse.Table(TableName)
}

// Validate : reports every problem at once rather than the first
func (c *Config) Validate() error {
	var finalErr error
	if err := c.Original().Validate(); err != nil {
		finalErr = multierror.Append(finalErr, err)
	}
	if c.Export.Enabled() && strings.HasPrefix(c.Export.Prefix, "/") {
		finalErr = multierror.Append(finalErr, fmt.Errorf("export prefix %q must be relative", c.Export.Prefix))
	}
	return finalErr
}

// Load : reads the PATEK_* environment (and GOOGLE_APPLICATION_CREDENTIALS) through v
func Load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("credentials_file", "GOOGLE_APPLICATION_CREDENTIALS"); err != nil {
		return nil, err
	}

	v.SetDefault("project", DefaultProject)
	v.SetDefault("dataset", DefaultDataset)
	v.SetDefault("location", "")
	v.SetDefault("query_log", false)
	v.SetDefault("verify", false)
	v.SetDefault("dry_run", false)
	v.SetDefault("export_s3_bucket", "")
	v.SetDefault("export_s3_prefix", DefaultExportPrefix)

	cfg := &Config{
		Warehouse: warehousecfg.BigQuery{
			ProjectID:       v.GetString("project"),
			Dataset:         v.GetString("dataset"),
			Location:        v.GetString("location"),
			CredentialsFile: v.GetString("credentials_file"),
		},
		Export: exportcfg.S3{
			Bucket: v.GetString("export_s3_bucket"),
			Prefix: v.GetString("export_s3_prefix"),
		},
		QueryLogging: v.GetBool("query_log"),
		Verify:       v.GetBool("verify"),
		DryRun:       v.GetBool("dry_run"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("CONFIG : invalid environment due to : %w", err)
	}
	return cfg, nil
}

func FromEnv() (*Config, error) {
	return Load(viper.New())
}
