package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/baderkha/patek-transfer/pkg/migrate/frame"
	"github.com/baderkha/patek-transfer/pkg/migrate/query"
	"github.com/baderkha/patek-transfer/pkg/migrate/table"
	"google.golang.org/api/iterator"
)

type Option func(b *BigQuery)

// WithDryRun : jobs are validated and priced by the warehouse but never run
func WithDryRun(dryRun bool) Option {
	return func(b *BigQuery) {
		b.dryRun = dryRun
	}
}

func NewBigQuery(client *bigquery.Client, opts ...Option) *BigQuery {
	b := &BigQuery{
		InfoFetcher: table.NewInfoFetcherBigQuery(client),
		client:      client,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type BigQuery struct {
	table.InfoFetcher
	client *bigquery.Client
	dryRun bool
}

// JobID : job ids are derived from the run so every step of a run can be found in the console
func JobID(stmt query.Statement) string {
	return fmt.Sprintf("patek_%s_%s", strings.ToLower(string(stmt.Kind)), stmt.RunID)
}

func (b *BigQuery) newQuery(stmt query.Statement) (*bigquery.Query, string, error) {
	sqlText, err := stmt.SQL()
	if err != nil {
		return nil, "", err
	}
	q := b.client.Query(sqlText)
	q.DryRun = b.dryRun
	if stmt.RunID != "" {
		q.Labels = map[string]string{
			"run_id": stmt.RunID,
			"step":   strings.ToLower(string(stmt.Kind)),
		}
		q.JobID = JobID(stmt)
		q.AddJobIDSuffix = true
	}
	return q, sqlText, nil
}

func (b *BigQuery) run(ctx context.Context, stmt query.Statement) (*bigquery.Job, *JobStats, error) {
	start := time.Now()
	q, sqlText, err := b.newQuery(stmt)
	if err != nil {
		return nil, nil, err
	}
	job, err := q.Run(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("SUBMIT : Could not submit %s job due to : %w", stmt.Kind, err)
	}
	stats := &JobStats{
		JobID:  job.ID(),
		Kind:   stmt.Kind,
		SQL:    sqlText,
		DryRun: b.dryRun,
	}
	if b.dryRun {
		fillStats(stats, job.LastStatus())
		return job, stats, nil
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("EXECUTE : Could not wait for %s job %s due to : %w", stmt.Kind, job.ID(), err)
	}
	if err := status.Err(); err != nil {
		return nil, nil, fmt.Errorf("EXECUTE : %s job %s failed due to : %w", stmt.Kind, job.ID(), err)
	}
	fillStats(stats, status)
	stats.Duration = time.Since(start)
	return job, stats, nil
}

func fillStats(stats *JobStats, status *bigquery.JobStatus) {
	if status == nil || status.Statistics == nil {
		return
	}
	stats.BytesProcessed = status.Statistics.TotalBytesProcessed
	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		stats.DDLOperation = qs.DDLOperationPerformed
	}
}

func (b *BigQuery) Query(ctx context.Context, stmt query.Statement) (*frame.Frame, *JobStats, error) {
	job, stats, err := b.run(ctx, stmt)
	if err != nil {
		return nil, nil, err
	}
	if b.dryRun {
		return b.dryRunFrame(job), stats, nil
	}

	it, err := job.Read(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("MATERIALIZE : Could not read results of job %s due to : %w", job.ID(), err)
	}
	var rows [][]bigquery.Value
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("MATERIALIZE : Could not read row %d of job %s due to : %w", len(rows), job.ID(), err)
		}
		rows = append(rows, row)
	}
	cols, err := frame.ColumnsFromSchema(it.Schema)
	if err != nil {
		return nil, nil, fmt.Errorf("MATERIALIZE : result of job %s does not fit a frame due to : %w", job.ID(), err)
	}
	f := frame.New(cols)
	for _, row := range rows {
		if err := f.Append(row); err != nil {
			return nil, nil, fmt.Errorf("MATERIALIZE : %w", err)
		}
	}
	return f, stats, nil
}

// a dry run has no rows but the warehouse still reports the result schema
func (b *BigQuery) dryRunFrame(job *bigquery.Job) *frame.Frame {
	status := job.LastStatus()
	if status == nil || status.Statistics == nil {
		return frame.New(nil)
	}
	qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics)
	if !ok {
		return frame.New(nil)
	}
	cols, err := frame.ColumnsFromSchema(qs.Schema)
	if err != nil {
		return frame.New(nil)
	}
	return frame.New(cols)
}

func (b *BigQuery) Exec(ctx context.Context, stmt query.Statement) (*JobStats, error) {
	_, stats, err := b.run(ctx, stmt)
	return stats, err
}

func (b *BigQuery) Close() error {
	return b.client.Close()
}
