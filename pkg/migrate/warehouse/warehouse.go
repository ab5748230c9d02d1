// package warehouse
//
// the one capability the fetcher and migrator need from the remote store :
// submit a statement , wait for it and (for reads) materialize the rows
package warehouse

import (
	"context"
	"time"

	"github.com/baderkha/patek-transfer/pkg/migrate/frame"
	"github.com/baderkha/patek-transfer/pkg/migrate/query"
	"github.com/baderkha/patek-transfer/pkg/migrate/table"
)

// JobStats : what the warehouse reported about a finished job
type JobStats struct {
	JobID          string
	Kind           query.Kind
	SQL            string
	BytesProcessed int64
	// DDLOperation is CREATE / REPLACE for the table writing statements
	DDLOperation string
	Duration     time.Duration
	DryRun       bool
}

type Warehouse interface {
	table.InfoFetcher
	// Query : submits a read , blocks until it completes and returns the rows
	Query(ctx context.Context, stmt query.Statement) (*frame.Frame, *JobStats, error)
	// Exec : submits a statement and blocks until it completes
	Exec(ctx context.Context, stmt query.Statement) (*JobStats, error)
	Close() error
}
