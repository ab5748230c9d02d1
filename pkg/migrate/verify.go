package migrate

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/baderkha/patek-transfer/pkg/migrate/frame"
	"github.com/baderkha/patek-transfer/pkg/migrate/query"
	"github.com/baderkha/patek-transfer/pkg/migrate/table"
	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"
)

var (
	ErrBackupRowMismatch  = errors.New("backup row count differs from the original")
	ErrNullPriceRemaining = errors.New("cleaned table still has rows without a price")
	ErrCleanRowMismatch   = errors.New("cleaned table row count differs from the priced rows of the backup")
	ErrSchemaDrift        = errors.New("cleaned table columns differ from the backup")
)

func (m *Migrator) count(ctx context.Context, ref table.Ref) (int64, error) {
	f, _, err := m.wh.Query(ctx, query.Count(ref).Tag(m.runID))
	if err != nil {
		return 0, fmt.Errorf("VERIFY : Could not count rows of %s due to : %w", ref, err)
	}
	return scalar(f, query.RowCountColumn)
}

func (m *Migrator) nullCount(ctx context.Context, ref table.Ref) (nulls int64, total int64, err error) {
	f, _, err := m.wh.Query(ctx, query.NullCount(ref, m.column).Tag(m.runID))
	if err != nil {
		return 0, 0, fmt.Errorf("VERIFY : Could not count null %s in %s due to : %w", m.column, ref, err)
	}
	if nulls, err = scalar(f, query.NullCountColumn); err != nil {
		return 0, 0, err
	}
	if total, err = scalar(f, query.RowCountColumn); err != nil {
		return 0, 0, err
	}
	return nulls, total, nil
}

func (m *Migrator) verifyBackup(ctx context.Context) error {
	rows, err := m.count(ctx, m.backup)
	if err != nil {
		return err
	}
	m.report.RowsBackup = rows
	if rows != m.report.RowsBefore {
		return fmt.Errorf("VERIFY : %s has %d rows , %s had %d : %w", m.backup, rows, m.original, m.report.RowsBefore, ErrBackupRowMismatch)
	}
	return nil
}

// verifyClean : the original must hold exactly the priced rows of the backup
// with the same columns. the four reads are independent so they run together
func (m *Migrator) verifyClean(ctx context.Context) error {
	var (
		backupNulls, backupTotal int64
		origNulls, origTotal     int64
		backupInfo, origInfo     *table.Info
	)
	wg, gctx := errgroup.WithContext(ctx)
	wg.Go(func() (err error) {
		backupNulls, backupTotal, err = m.nullCount(gctx, m.backup)
		return err
	})
	wg.Go(func() (err error) {
		origNulls, origTotal, err = m.nullCount(gctx, m.original)
		return err
	})
	wg.Go(func() (err error) {
		backupInfo, err = m.wh.Describe(gctx, m.backup)
		return err
	})
	wg.Go(func() (err error) {
		origInfo, err = m.wh.Describe(gctx, m.original)
		return err
	})
	if err := wg.Wait(); err != nil {
		return err
	}

	m.report.RowsAfter = origTotal
	m.report.RowsDropped = backupTotal - origTotal
	if origNulls != 0 {
		return fmt.Errorf("VERIFY : %s has %d rows with null %s : %w", m.original, origNulls, m.column, ErrNullPriceRemaining)
	}
	if origTotal != backupTotal-backupNulls {
		return fmt.Errorf("VERIFY : %s has %d rows , expected %d : %w", m.original, origTotal, backupTotal-backupNulls, ErrCleanRowMismatch)
	}
	backupCols, origCols := backupInfo.ColumnNames(), origInfo.ColumnNames()
	if !slices.Equal(backupCols, origCols) {
		return fmt.Errorf("VERIFY : %s has columns %v , %s has %v : %w", m.original, origCols, m.backup, backupCols, ErrSchemaDrift)
	}
	return nil
}

// scalar : the single value of a one row result
func scalar(f *frame.Frame, column string) (int64, error) {
	idx := f.ColumnIndex(column)
	if idx < 0 {
		return 0, fmt.Errorf("VERIFY : result has no %s column", column)
	}
	if len(f.Rows) != 1 {
		return 0, fmt.Errorf("VERIFY : expected one row with %s got %d", column, len(f.Rows))
	}
	val, err := cast.ToInt64E(f.Rows[0][idx])
	if err != nil {
		return 0, fmt.Errorf("VERIFY : %s is not a number due to : %w", column, err)
	}
	return val, nil
}
