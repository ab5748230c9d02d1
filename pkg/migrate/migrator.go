package migrate

import (
	"context"
	"fmt"

	"github.com/baderkha/patek-transfer/pkg/conditional"
	"github.com/baderkha/patek-transfer/pkg/migrate/query"
	"github.com/baderkha/patek-transfer/pkg/migrate/state"
	"github.com/baderkha/patek-transfer/pkg/migrate/table"
	"github.com/baderkha/patek-transfer/pkg/migrate/warehouse"
	"github.com/dustin/go-humanize"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// Runner : runs a migration to completion or until the first failure
type Runner interface {
	Run(ctx context.Context) error
}

// Report : what a migration run did
type Report struct {
	RunID     string
	Status    state.RunLogState
	BackupJob *warehouse.JobStats
	CleanJob  *warehouse.JobStats
	// the row counts are only filled in when verification is on
	RowsBefore  int64
	RowsBackup  int64
	RowsAfter   int64
	RowsDropped int64
}

type MigratorOption func(m *Migrator)

// WithVerify : count rows around each step and check the results of the run
func WithVerify(verify bool) MigratorOption {
	return func(m *Migrator) {
		m.verify = verify
	}
}

// WithDryRun : the warehouse is expected to be in dry run mode too , the migrator
// only needs to know so it does not submit a clean step that reads a missing backup
func WithDryRun(dryRun bool) MigratorOption {
	return func(m *Migrator) {
		m.dryRun = dryRun
	}
}

func WithMigratorLogger(log zerolog.Logger) MigratorOption {
	return func(m *Migrator) {
		m.log = log
	}
}

// WithStateManager : where run and step status is tracked , defaults to an in memory manager
func WithStateManager(mger state.Manager) MigratorOption {
	return func(m *Migrator) {
		m.state = mger
	}
}

// WithRunID : replaces the generated run id
func WithRunID(runID string) MigratorOption {
	return func(m *Migrator) {
		m.runID = runID
	}
}

func NewMigrator(wh warehouse.Warehouse, original table.Ref, opts ...MigratorOption) *Migrator {
	uid, err := uuid.NewV4()
	if err != nil {
		panic(err)
	}
	m := &Migrator{
		wh:       wh,
		original: original,
		backup:   original.Backup(),
		column:   query.PriceColumn,
		runID:    uid.String(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.state == nil {
		m.state = state.NewMemoryManager(m.log)
	}
	return m
}

// Migrator : copies the original table to its backup then recreates the original
// from the backup keeping only rows with a price
type Migrator struct {
	wh       warehouse.Warehouse
	original table.Ref
	backup   table.Ref
	column   string
	runID    string
	verify   bool
	dryRun   bool
	log      zerolog.Logger
	state    state.Manager
	report   Report
}

func (m *Migrator) RunID() string {
	return m.runID
}

// Report : the report of the last Run
func (m *Migrator) Report() Report {
	return m.report
}

func (m *Migrator) GetStateManager() state.Manager {
	return m.state
}

func (m *Migrator) Run(ctx context.Context) (err error) {
	m.report = Report{RunID: m.runID}
	m.state.InitRunLog(m.runID)
	defer func() {
		if err != nil {
			m.state.FailedRunLog(m.runID, err)
		} else {
			m.state.PassedRunLog(m.runID)
		}
		if run := m.state.GetRunLog(m.runID); run != nil {
			m.report.Status = run.Status
		}
	}()
	log := m.log.With().Str("run_id", m.runID).Logger()
	log.Info().
		Str("mode", conditional.Ternary(m.dryRun, "dry run", "live")).
		Bool("verify", m.verify).
		Msg("Starting Migration...")

	if m.verify && !m.dryRun {
		m.report.RowsBefore, err = m.count(ctx, m.original)
		if err != nil {
			return err
		}
		log.Info().Str("rows", humanize.Comma(m.report.RowsBefore)).Msgf("%s has rows before migration", m.original)
	}

	log.Info().Msgf("1. Copying data to %s...", m.backup)
	stats, err := m.exec(ctx, query.Backup(m.original, m.backup).Tag(m.runID))
	if err != nil {
		return fmt.Errorf("BACKUP_STEP : Could not copy %s to %s due to : %w", m.original, m.backup, err)
	}
	m.report.BackupJob = stats
	logJob(log, stats).Msg(conditional.Ternary(m.dryRun, "Backup validated.", "Backup created."))

	if m.verify && !m.dryRun {
		if err := m.verifyBackup(ctx); err != nil {
			return err
		}
	}

	clean := query.Clean(m.original, m.backup, m.column).Tag(m.runID)
	if m.dryRun {
		sqlText, err := clean.SQL()
		if err != nil {
			return fmt.Errorf("CLEAN_STEP : %w", err)
		}
		log.Info().Str("sql_query", sqlText).Msg("2. Clean step not submitted in dry run , it reads the table the backup step creates")
		return nil
	}

	log.Info().Msgf("2. Cleaning %s...", m.original)
	stats, err = m.exec(ctx, clean)
	if err != nil {
		return fmt.Errorf("CLEAN_STEP : Could not replace %s with the priced rows of %s due to : %w", m.original, m.backup, err)
	}
	m.report.CleanJob = stats
	logJob(log, stats).Msgf("'%s' table replaced with cleaned data.", m.original.TableID)

	if m.verify {
		if err := m.verifyClean(ctx); err != nil {
			return err
		}
		log.Info().
			Str("rows", humanize.Comma(m.report.RowsAfter)).
			Str("dropped", humanize.Comma(m.report.RowsDropped)).
			Msg("Migration verified.")
	}
	return nil
}

// exec : runs one step and records its outcome with the state manager
func (m *Migrator) exec(ctx context.Context, stmt query.Statement) (*warehouse.JobStats, error) {
	step := string(stmt.Kind)
	m.state.InitStepRunLog(m.runID, step)
	stats, err := m.wh.Exec(ctx, stmt)
	if err != nil {
		m.state.FailedStepRun(m.runID, step, err)
		return nil, err
	}
	m.state.PassedStepRun(m.runID, step, stats.JobID)
	return stats, nil
}

func logJob(log zerolog.Logger, stats *warehouse.JobStats) *zerolog.Event {
	ev := log.Info()
	if stats == nil {
		return ev
	}
	return ev.
		Str("job_id", stats.JobID).
		Str("ddl", stats.DDLOperation).
		Str("bytes_processed", humanize.Bytes(uint64(stats.BytesProcessed))).
		Dur("took", stats.Duration)
}
