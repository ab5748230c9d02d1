package table

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/hashicorp/go-multierror"
)

// BackupSuffix : appended to a table name to get the name of its backup
const BackupSuffix = "_raw"

// MaxNameLength : longest dataset or table id the warehouse accepts
const MaxNameLength = 1024

var (
	projectPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.:-]*$`)
	datasetPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	tablePattern   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Ref : a table addressed by project , dataset and table name
type Ref struct {
	ProjectID string `json:"project_id"`
	DatasetID string `json:"dataset_id"`
	TableID   string `json:"table_id"`
}

func NewRef(projectID string, datasetID string, tableID string) Ref {
	return Ref{ProjectID: projectID, DatasetID: datasetID, TableID: tableID}
}

func (r Ref) String() string {
	return fmt.Sprintf("%s.%s.%s", r.ProjectID, r.DatasetID, r.TableID)
}

// Quoted : the fully qualified name wrapped in backticks so it can be placed in a query
func (r Ref) Quoted() string {
	return "`" + r.String() + "`"
}

// WithTable : a ref to another table in the same dataset
func (r Ref) WithTable(tableID string) Ref {
	r.TableID = tableID
	return r
}

// Backup : the ref the table gets copied to before it is cleaned
func (r Ref) Backup() Ref {
	return r.WithTable(r.TableID + BackupSuffix)
}

// Validate : identifiers cannot be bound as query parameters so every part
// has to pass the warehouse naming rules before it is placed in sql
func (r Ref) Validate() error {
	var finalErr error
	if !projectPattern.MatchString(r.ProjectID) {
		finalErr = multierror.Append(finalErr, fmt.Errorf("invalid project id %q", r.ProjectID))
	}
	if len(r.DatasetID) > MaxNameLength || !datasetPattern.MatchString(r.DatasetID) {
		finalErr = multierror.Append(finalErr, fmt.Errorf("invalid dataset id %q", r.DatasetID))
	}
	if len(r.TableID) > MaxNameLength || !tablePattern.MatchString(r.TableID) {
		finalErr = multierror.Append(finalErr, fmt.Errorf("invalid table id %q", r.TableID))
	}
	return finalErr
}

type ColumnTypes struct {
	ColumnName string `db:"col_name"`
	Type       string `db:"col_type"`
	TargetType string `db:"target_type"`
	Nullable   bool   `db:"is_nullable"`
}

type Info struct {
	Ref
	Schema       []*ColumnTypes
	NumRows      uint64
	SizeMB       float64
	LastModified time.Time
}

func (i *Info) ColumnNames() []string {
	names := make([]string, 0, len(i.Schema))
	for _, col := range i.Schema {
		names = append(names, col.ColumnName)
	}
	return names
}

type InfoFetcher interface {
	// fetches the schema and row count of a table and maps its column types to frame kinds
	Describe(ctx context.Context, ref Ref) (*Info, error)
}
