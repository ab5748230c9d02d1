package warehouse_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/baderkha/patek-transfer/pkg/migrate/query"
	"github.com/baderkha/patek-transfer/pkg/migrate/table"
	"github.com/baderkha/patek-transfer/pkg/migrate/warehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/option"
)

const fakeProject = "p1"

var watchSchema = &bq.TableSchema{
	Fields: []*bq.TableFieldSchema{
		{Name: "id", Type: "INTEGER", Mode: "REQUIRED"},
		{Name: "model", Type: "STRING", Mode: "NULLABLE"},
		{Name: "price", Type: "FLOAT", Mode: "NULLABLE"},
	},
}

// fakeBigQuery answers the REST calls the bigquery client makes for a query job
// and a table metadata read
type fakeBigQuery struct {
	mu       sync.Mutex
	jobs     map[string]*bq.Job
	inserted []*bq.Job
	rows     []*bq.TableRow
	failWith *bq.ErrorProto
	denied   bool
}

func newFakeBigQuery() *fakeBigQuery {
	return &fakeBigQuery{
		jobs: map[string]*bq.Job{},
		rows: []*bq.TableRow{
			{F: []*bq.TableCell{{V: "1"}, {V: "Nautilus 5711"}, {V: "100"}}},
			{F: []*bq.TableCell{{V: "2"}, {V: "Aquanaut 5167"}, {V: nil}}},
			{F: []*bq.TableCell{{V: "3"}, {V: "Calatrava 5196"}, {V: "50"}}},
		},
	}
}

func (f *fakeBigQuery) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	idx := strings.Index(r.URL.Path, "projects/")
	if idx < 0 {
		writeAPIError(w, http.StatusNotFound, "notFound", "unknown path "+r.URL.Path)
		return
	}
	parts := strings.Split(strings.Trim(r.URL.Path[idx+len("projects/"):], "/"), "/")
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case len(parts) == 2 && parts[1] == "jobs" && r.Method == http.MethodPost:
		f.insertJob(w, r)
	case len(parts) == 3 && parts[1] == "jobs" && r.Method == http.MethodGet:
		job, ok := f.jobs[parts[2]]
		if !ok {
			writeAPIError(w, http.StatusNotFound, "notFound", "Not found: Job "+parts[2])
			return
		}
		writeJSON(w, job)
	case len(parts) == 3 && parts[1] == "queries":
		f.queryResults(w, parts[2])
	case len(parts) == 5 && parts[1] == "datasets" && parts[3] == "tables":
		f.tableMetadata(w, parts[2], parts[4])
	default:
		writeAPIError(w, http.StatusNotFound, "notFound", "unknown path "+r.URL.Path)
	}
}

func (f *fakeBigQuery) insertJob(w http.ResponseWriter, r *http.Request) {
	if f.denied {
		writeAPIError(w, http.StatusForbidden, "accessDenied", "Access Denied: Project p1")
		return
	}
	var job bq.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid", err.Error())
		return
	}
	if job.JobReference == nil {
		job.JobReference = &bq.JobReference{ProjectId: fakeProject, JobId: "generated"}
	}
	f.inserted = append(f.inserted, &job)

	sqlText := job.Configuration.Query.Query
	stats := &bq.JobStatistics2{TotalBytesProcessed: 2048}
	if strings.HasPrefix(sqlText, "CREATE") {
		stats.StatementType = "CREATE_TABLE_AS_SELECT"
		stats.DdlOperationPerformed = "REPLACE"
	} else {
		stats.StatementType = "SELECT"
		stats.Schema = watchSchema
		job.Configuration.Query.DestinationTable = &bq.TableReference{
			ProjectId: fakeProject,
			DatasetId: "_anon",
			TableId:   "anon_" + job.JobReference.JobId,
		}
	}
	job.Statistics = &bq.JobStatistics{TotalBytesProcessed: 2048, Query: stats}
	job.Status = &bq.JobStatus{State: "DONE"}
	if f.failWith != nil && !job.Configuration.DryRun {
		job.Status.ErrorResult = f.failWith
		job.Status.Errors = []*bq.ErrorProto{f.failWith}
	}
	f.jobs[job.JobReference.JobId] = &job
	writeJSON(w, &job)
}

func (f *fakeBigQuery) queryResults(w http.ResponseWriter, jobID string) {
	job, ok := f.jobs[jobID]
	if !ok {
		writeAPIError(w, http.StatusNotFound, "notFound", "Not found: Job "+jobID)
		return
	}
	res := &bq.GetQueryResultsResponse{
		JobComplete:  true,
		JobReference: job.JobReference,
	}
	if job.Configuration.Query.DestinationTable != nil {
		res.Schema = watchSchema
		res.Rows = f.rows
		res.TotalRows = uint64(len(f.rows))
	}
	writeJSON(w, res)
}

func (f *fakeBigQuery) tableMetadata(w http.ResponseWriter, datasetID string, tableID string) {
	if tableID != "patek" {
		writeAPIError(w, http.StatusNotFound, "notFound", "Not found: Table p1:"+datasetID+"."+tableID)
		return
	}
	writeJSON(w, &bq.Table{
		TableReference:   &bq.TableReference{ProjectId: fakeProject, DatasetId: datasetID, TableId: tableID},
		Schema:           watchSchema,
		NumRows:          uint64(len(f.rows)),
		NumBytes:         1024 * 1024,
		LastModifiedTime: uint64(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli()),
		Type:             "TABLE",
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, code int, reason string, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": msg,
			"errors":  []map[string]string{{"reason": reason, "message": msg}},
		},
	})
}

func newTestBigQuery(t *testing.T, fake *fakeBigQuery, opts ...warehouse.Option) *warehouse.BigQuery {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := bigquery.NewClient(context.Background(), fakeProject,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	wh := warehouse.NewBigQuery(client, opts...)
	t.Cleanup(func() { _ = wh.Close() })
	return wh
}

func TestBigQueryQuery(t *testing.T) {
	ctx := context.Background()
	fake := newFakeBigQuery()
	wh := newTestBigQuery(t, fake)
	ref := table.NewRef(fakeProject, "patek_data", "patek")

	f, stats, err := wh.Query(ctx, query.Sample(ref, query.SampleLimit).Tag("run-1"))
	require.NoError(t, err)

	rows, cols := f.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []string{"id", "model", "price"}, f.ColumnNames())
	assert.Equal(t, int64(1), f.Rows[0][0])
	assert.Equal(t, "Nautilus 5711", f.Rows[0][1])
	assert.Equal(t, 100.0, f.Rows[0][2])
	assert.Nil(t, f.Rows[1][2])
	assert.False(t, f.Columns[0].Nullable)
	assert.True(t, f.Columns[2].Nullable)

	assert.Equal(t, int64(2048), stats.BytesProcessed)
	assert.False(t, stats.DryRun)
	assert.True(t, strings.HasPrefix(stats.JobID, "patek_sample_run-1"), stats.JobID)

	info, err := wh.Describe(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, info.ColumnNames(), f.ColumnNames(), "sample columns follow the table schema")

	require.Len(t, fake.inserted, 1)
	sent := fake.inserted[0]
	assert.Equal(t, "SELECT * FROM `p1.patek_data.patek` LIMIT 20", sent.Configuration.Query.Query)
	assert.Equal(t, map[string]string{"run_id": "run-1", "step": "sample"}, sent.Configuration.Labels)
}

func TestBigQueryExec(t *testing.T) {
	fake := newFakeBigQuery()
	wh := newTestBigQuery(t, fake)
	original := table.NewRef(fakeProject, "patek_data", "patek")

	stats, err := wh.Exec(context.Background(), query.Backup(original, original.Backup()).Tag("run-2"))
	require.NoError(t, err)
	assert.Equal(t, "REPLACE", stats.DDLOperation)
	assert.True(t, strings.HasPrefix(stats.JobID, "patek_backup_run-2"), stats.JobID)

	require.Len(t, fake.inserted, 1)
	assert.Equal(t,
		"CREATE OR REPLACE TABLE `p1.patek_data.patek_raw` AS SELECT * FROM `p1.patek_data.patek`",
		fake.inserted[0].Configuration.Query.Query,
	)
}

func TestBigQueryDryRun(t *testing.T) {
	fake := newFakeBigQuery()
	wh := newTestBigQuery(t, fake, warehouse.WithDryRun(true))
	ref := table.NewRef(fakeProject, "patek_data", "patek")

	f, stats, err := wh.Query(context.Background(), query.Sample(ref, query.SampleLimit))
	require.NoError(t, err)

	rows, _ := f.Shape()
	assert.Equal(t, 0, rows)
	assert.Equal(t, []string{"id", "model", "price"}, f.ColumnNames())
	assert.True(t, stats.DryRun)
	assert.Equal(t, int64(2048), stats.BytesProcessed)

	require.Len(t, fake.inserted, 1)
	assert.True(t, fake.inserted[0].Configuration.DryRun)
}

func TestBigQueryFailedJob(t *testing.T) {
	fake := newFakeBigQuery()
	fake.failWith = &bq.ErrorProto{Reason: "invalidQuery", Message: "Unrecognized name: price"}
	wh := newTestBigQuery(t, fake)
	original := table.NewRef(fakeProject, "patek_data", "patek")

	_, err := wh.Exec(context.Background(), query.Clean(original, original.Backup(), query.PriceColumn))
	require.Error(t, err)
	assert.ErrorContains(t, err, "EXECUTE :")
	assert.ErrorContains(t, err, "Unrecognized name: price")
}

func TestBigQuerySubmitDenied(t *testing.T) {
	fake := newFakeBigQuery()
	fake.denied = true
	wh := newTestBigQuery(t, fake)

	_, _, err := wh.Query(context.Background(), query.Sample(table.NewRef(fakeProject, "patek_data", "patek"), 5))
	require.Error(t, err)
	assert.ErrorContains(t, err, "SUBMIT :")
}

func TestBigQueryDescribe(t *testing.T) {
	ctx := context.Background()
	wh := newTestBigQuery(t, newFakeBigQuery())

	info, err := wh.Describe(ctx, table.NewRef(fakeProject, "patek_data", "patek"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), info.NumRows)
	assert.Equal(t, 1.0, info.SizeMB)
	assert.Equal(t, []string{"id", "model", "price"}, info.ColumnNames())
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), info.LastModified.UTC())

	_, err = wh.Describe(ctx, table.NewRef(fakeProject, "patek_data", "missing"))
	assert.ErrorContains(t, err, "TABLE_INFO : Could not read metadata")

	_, err = wh.Describe(ctx, table.NewRef(fakeProject, "patek_data", "bad`name"))
	assert.ErrorContains(t, err, "invalid table id")
}
