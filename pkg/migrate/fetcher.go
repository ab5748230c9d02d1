package migrate

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/baderkha/patek-transfer/pkg/migrate/export"
	"github.com/baderkha/patek-transfer/pkg/migrate/frame"
	"github.com/baderkha/patek-transfer/pkg/migrate/query"
	"github.com/baderkha/patek-transfer/pkg/migrate/table"
	"github.com/baderkha/patek-transfer/pkg/migrate/warehouse"
	"github.com/dustin/go-humanize"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// PreviewRows : rows of the sample printed after a fetch
const PreviewRows = 5

type FetcherOption func(f *Fetcher)

// WithOutput : where the preview of the sample is printed
func WithOutput(w io.Writer) FetcherOption {
	return func(f *Fetcher) {
		f.out = w
	}
}

func WithExporter(e export.Exporter) FetcherOption {
	return func(f *Fetcher) {
		f.exporter = e
	}
}

func WithFetcherLogger(log zerolog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.log = log
	}
}

func NewFetcher(wh warehouse.Warehouse, ref table.Ref, opts ...FetcherOption) *Fetcher {
	uid, err := uuid.NewV4()
	if err != nil {
		panic(err)
	}
	f := &Fetcher{
		wh:    wh,
		ref:   ref,
		runID: uid.String(),
		out:   os.Stdout,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetcher : reads a bounded sample of a table for inspection
type Fetcher struct {
	wh       warehouse.Warehouse
	ref      table.Ref
	runID    string
	out      io.Writer
	exporter export.Exporter
	log      zerolog.Logger
}

func (f *Fetcher) Fetch(ctx context.Context) (*frame.Frame, error) {
	f.log.Info().Str("table", f.ref.String()).Msgf("Querying up to %d rows...", query.SampleLimit)
	df, stats, err := f.wh.Query(ctx, query.Sample(f.ref, query.SampleLimit).Tag(f.runID))
	if err != nil {
		return nil, fmt.Errorf("FETCH : Could not read a sample of %s due to : %w", f.ref, err)
	}

	rows, cols := df.Shape()
	ev := f.log.Info()
	if stats != nil {
		ev = ev.Str("job_id", stats.JobID).Str("bytes_processed", humanize.Bytes(uint64(stats.BytesProcessed)))
	}
	ev.Msgf("Data loaded! Shape: (%d, %d)", rows, cols)
	df.Head(PreviewRows).Render(f.out)

	if f.exporter != nil {
		url, err := f.exporter.Export(ctx, f.ref, f.runID, df)
		if err != nil {
			return nil, err
		}
		f.log.Info().Str("url", url).Msg("Sample exported.")
	}
	return df, nil
}
