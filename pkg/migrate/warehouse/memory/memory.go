// package memory
//
// a warehouse kept in process memory. it dispatches on the statement kind
// instead of parsing sql and is what tests run the fetcher and migrator against
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/bigquery"
	"github.com/baderkha/patek-transfer/pkg/migrate/frame"
	"github.com/baderkha/patek-transfer/pkg/migrate/query"
	"github.com/baderkha/patek-transfer/pkg/migrate/table"
	"github.com/baderkha/patek-transfer/pkg/migrate/table/colmap"
	"github.com/baderkha/patek-transfer/pkg/migrate/warehouse"
)

var _ warehouse.Warehouse = (*Warehouse)(nil)

// ErrNotFound : the statement referenced a table that does not exist
var ErrNotFound = errors.New("table not found")

type Warehouse struct {
	mu        sync.Mutex
	tables    map[table.Ref]*frame.Frame
	failOn    map[query.Kind]error
	journal   []query.Statement
	jobSeq    int
	closed    bool
	BeforeRun func(stmt query.Statement)
}

func New() *Warehouse {
	return &Warehouse{
		tables: make(map[table.Ref]*frame.Frame),
		failOn: make(map[query.Kind]error),
	}
}

// Put : stores a copy of f under ref , replacing what was there
func (w *Warehouse) Put(ref table.Ref, f *frame.Frame) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tables[ref] = f.Clone()
}

// Table : a copy of the table stored under ref
func (w *Warehouse) Table(ref table.Ref) (*frame.Frame, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.tables[ref]
	if !ok {
		return nil, false
	}
	return f.Clone(), true
}

// FailOn : every statement of kind fails with err after being journaled
func (w *Warehouse) FailOn(kind query.Kind, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failOn[kind] = err
}

// Journal : the statements submitted so far in order
func (w *Warehouse) Journal() []query.Statement {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]query.Statement(nil), w.journal...)
}

func (w *Warehouse) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Warehouse) submit(ctx context.Context, stmt query.Statement) (*warehouse.JobStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sqlText, err := stmt.SQL()
	if err != nil {
		return nil, err
	}
	if w.BeforeRun != nil {
		w.BeforeRun(stmt)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.journal = append(w.journal, stmt)
	if err := w.failOn[stmt.Kind]; err != nil {
		return nil, err
	}
	w.jobSeq++
	return &warehouse.JobStats{
		JobID: fmt.Sprintf("memory_%d", w.jobSeq),
		Kind:  stmt.Kind,
		SQL:   sqlText,
	}, nil
}

func (w *Warehouse) source(ref table.Ref) (*frame.Frame, error) {
	f, ok := w.tables[ref]
	if !ok {
		return nil, fmt.Errorf("%s : %w", ref, ErrNotFound)
	}
	return f, nil
}

func (w *Warehouse) Query(ctx context.Context, stmt query.Statement) (*frame.Frame, *warehouse.JobStats, error) {
	if stmt.Writes() {
		return nil, nil, fmt.Errorf("%s statements go through Exec", stmt.Kind)
	}
	stats, err := w.submit(ctx, stmt)
	if err != nil {
		return nil, nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	src, err := w.source(stmt.Source)
	if err != nil {
		return nil, nil, err
	}

	switch stmt.Kind {
	case query.KindSample:
		return src.Head(stmt.Limit).Clone(), stats, nil
	case query.KindCount:
		rows, _ := src.Shape()
		f := frame.New([]frame.Column{intColumn(query.RowCountColumn)})
		_ = f.Append([]bigquery.Value{int64(rows)})
		return f, stats, nil
	case query.KindNullCount:
		idx := src.ColumnIndex(stmt.Column)
		if idx < 0 {
			return nil, nil, fmt.Errorf("Unrecognized name: %s", stmt.Column)
		}
		nulls := src.Filter(func(row []bigquery.Value) bool { return row[idx] == nil })
		nullRows, _ := nulls.Shape()
		rows, _ := src.Shape()
		f := frame.New([]frame.Column{intColumn(query.NullCountColumn), intColumn(query.RowCountColumn)})
		_ = f.Append([]bigquery.Value{int64(nullRows), int64(rows)})
		return f, stats, nil
	}
	return nil, nil, fmt.Errorf("Unsupported statement kind %q", stmt.Kind)
}

func (w *Warehouse) Exec(ctx context.Context, stmt query.Statement) (*warehouse.JobStats, error) {
	if !stmt.Writes() {
		_, stats, err := w.Query(ctx, stmt)
		return stats, err
	}
	stats, err := w.submit(ctx, stmt)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	src, err := w.source(stmt.Source)
	if err != nil {
		return nil, err
	}
	stats.DDLOperation = "CREATE"
	if _, exists := w.tables[stmt.Target]; exists {
		stats.DDLOperation = "REPLACE"
	}

	switch stmt.Kind {
	case query.KindBackup:
		w.tables[stmt.Target] = src.Clone()
	case query.KindClean:
		idx := src.ColumnIndex(stmt.Column)
		if idx < 0 {
			return nil, fmt.Errorf("Unrecognized name: %s", stmt.Column)
		}
		w.tables[stmt.Target] = src.Filter(func(row []bigquery.Value) bool { return row[idx] != nil }).Clone()
	}
	return stats, nil
}

func (w *Warehouse) Describe(ctx context.Context, ref table.Ref) (*table.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	src, err := w.source(ref)
	if err != nil {
		return nil, err
	}
	rows, _ := src.Shape()
	ifo := &table.Info{Ref: ref, NumRows: uint64(rows)}
	for _, col := range src.Columns {
		ifo.Schema = append(ifo.Schema, &table.ColumnTypes{
			ColumnName: col.Name,
			Type:       col.SourceType,
			TargetType: col.Kind,
			Nullable:   col.Nullable,
		})
	}
	return ifo, nil
}

func (w *Warehouse) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func intColumn(name string) frame.Column {
	return frame.Column{Name: name, SourceType: string(bigquery.IntegerFieldType), Kind: colmap.KindInt}
}
