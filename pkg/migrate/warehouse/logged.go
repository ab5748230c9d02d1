package warehouse

import (
	"context"
	"time"

	"github.com/baderkha/patek-transfer/pkg/migrate/frame"
	"github.com/baderkha/patek-transfer/pkg/migrate/query"
	"github.com/baderkha/patek-transfer/pkg/migrate/table"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// WithLogging : wraps a warehouse so every statement is logged with its sql and duration
func WithLogging(wh Warehouse, log zerolog.Logger) Warehouse {
	return &logged{Warehouse: wh, log: log}
}

type logged struct {
	Warehouse
	log zerolog.Logger
}

func (l *logged) Query(ctx context.Context, stmt query.Statement) (*frame.Frame, *JobStats, error) {
	start := time.Now()
	f, stats, err := l.Warehouse.Query(ctx, stmt)
	ev := l.event(stmt, stats, time.Since(start), err)
	if f != nil {
		rows, _ := f.Shape()
		ev = ev.Int("rows", rows)
	}
	msg, _ := stmt.SQL()
	ev.Msg(msg)
	return f, stats, err
}

func (l *logged) Exec(ctx context.Context, stmt query.Statement) (*JobStats, error) {
	start := time.Now()
	stats, err := l.Warehouse.Exec(ctx, stmt)
	msg, _ := stmt.SQL()
	l.event(stmt, stats, time.Since(start), err).Msg(msg)
	return stats, err
}

func (l *logged) Describe(ctx context.Context, ref table.Ref) (*table.Info, error) {
	start := time.Now()
	ifo, err := l.Warehouse.Describe(ctx, ref)
	ev := l.log.Debug()
	if err != nil {
		ev = l.log.Error().Err(err)
	}
	ev.Str("table", ref.String()).Int64("dur_ms", time.Since(start).Milliseconds()).Msg("describe")
	return ifo, err
}

func (l *logged) event(stmt query.Statement, stats *JobStats, dur time.Duration, err error) *zerolog.Event {
	ev := l.log.Info()
	if err != nil {
		ev = l.log.Error().Err(err)
	}
	ev = ev.
		Str("kind", string(stmt.Kind)).
		Int64("dur_ms", dur.Milliseconds())
	if stmt.RunID != "" {
		ev = ev.Str("run_id", stmt.RunID)
	}
	if stats != nil {
		ev = ev.
			Str("job_id", stats.JobID).
			Str("bytes_processed", humanize.Bytes(uint64(stats.BytesProcessed))).
			Bool("dry_run", stats.DryRun)
	}
	return ev
}
