// package query
//
// the fixed sql the fetcher and the migrator submit. table identifiers are never
// concatenated in by callers , they are passed as table.Ref values which are
// validated before a template is rendered
package query

import (
	"fmt"
	"regexp"

	"github.com/baderkha/patek-transfer/pkg/migrate/table"
)

// Kind : what a statement does , fakes dispatch on it instead of parsing sql
type Kind string

const (
	KindSample    Kind = "SAMPLE"
	KindBackup    Kind = "BACKUP"
	KindClean     Kind = "CLEAN"
	KindCount     Kind = "COUNT"
	KindNullCount Kind = "NULL_COUNT"
)

const (
	// SampleTemplate : source , limit
	SampleTemplate = "SELECT * FROM %s LIMIT %d"
	// BackupTemplate : backup , original
	BackupTemplate = "CREATE OR REPLACE TABLE %s AS SELECT * FROM %s"
	// CleanTemplate : original , backup , predicate column
	CleanTemplate = "CREATE OR REPLACE TABLE %s AS SELECT * FROM %s WHERE %s IS NOT NULL"
	// CountTemplate : source
	CountTemplate = "SELECT COUNT(*) AS row_count FROM %s"
	// NullCountTemplate : column , source
	NullCountTemplate = "SELECT COUNTIF(%s IS NULL) AS null_count, COUNT(*) AS row_count FROM %s"
)

const (
	// SampleLimit : rows returned by a sample read
	SampleLimit = 20
	// PriceColumn : rows without a value here are dropped by the clean step
	PriceColumn = "price"
)

// result columns of the count statements
const (
	RowCountColumn  = "row_count"
	NullCountColumn = "null_count"
)

var columnPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,299}$`)

type Statement struct {
	Kind   Kind
	Source table.Ref
	// Target is only set for statements that write a table
	Target table.Ref
	Column string
	Limit  int
	// RunID tags the warehouse job , it does not change the sql
	RunID string
}

// Sample : SELECT * FROM source LIMIT limit
func Sample(source table.Ref, limit int) Statement {
	return Statement{Kind: KindSample, Source: source, Limit: limit}
}

// Backup : replaces backup with a full copy of original
func Backup(original table.Ref, backup table.Ref) Statement {
	return Statement{Kind: KindBackup, Source: original, Target: backup}
}

// Clean : replaces original with the rows of backup whose column is not null
func Clean(original table.Ref, backup table.Ref, column string) Statement {
	return Statement{Kind: KindClean, Source: backup, Target: original, Column: column}
}

func Count(source table.Ref) Statement {
	return Statement{Kind: KindCount, Source: source}
}

// NullCount : counts rows where column is null next to the total
func NullCount(source table.Ref, column string) Statement {
	return Statement{Kind: KindNullCount, Source: source, Column: column}
}

// Tag : a copy of the statement labelled with a run id
func (s Statement) Tag(runID string) Statement {
	s.RunID = runID
	return s
}

// Writes : true if the statement replaces a table
func (s Statement) Writes() bool {
	return s.Kind == KindBackup || s.Kind == KindClean
}

// SQL : validates the identifiers and renders the template for the statement kind
func (s Statement) SQL() (string, error) {
	if err := s.Source.Validate(); err != nil {
		return "", fmt.Errorf("%s : bad source table due to : %w", s.Kind, err)
	}
	if s.Writes() {
		if err := s.Target.Validate(); err != nil {
			return "", fmt.Errorf("%s : bad target table due to : %w", s.Kind, err)
		}
		if s.Target == s.Source {
			return "", fmt.Errorf("%s : source and target are both %s", s.Kind, s.Source)
		}
	}
	if s.Kind == KindClean || s.Kind == KindNullCount {
		if !columnPattern.MatchString(s.Column) {
			return "", fmt.Errorf("%s : invalid column name %q", s.Kind, s.Column)
		}
	}

	switch s.Kind {
	case KindSample:
		if s.Limit <= 0 {
			return "", fmt.Errorf("%s : limit must be positive got %d", s.Kind, s.Limit)
		}
		return fmt.Sprintf(SampleTemplate, s.Source.Quoted(), s.Limit), nil
	case KindBackup:
		return fmt.Sprintf(BackupTemplate, s.Target.Quoted(), s.Source.Quoted()), nil
	case KindClean:
		return fmt.Sprintf(CleanTemplate, s.Target.Quoted(), s.Source.Quoted(), s.Column), nil
	case KindCount:
		return fmt.Sprintf(CountTemplate, s.Source.Quoted()), nil
	case KindNullCount:
		return fmt.Sprintf(NullCountTemplate, s.Column, s.Source.Quoted()), nil
	}
	return "", fmt.Errorf("Unsupported statement kind %q", s.Kind)
}
