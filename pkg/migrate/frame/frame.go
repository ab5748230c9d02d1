// package frame
//
// the in memory tabular value a query result is materialized into
package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/big"

	"cloud.google.com/go/bigquery"
	"github.com/baderkha/patek-transfer/pkg/migrate/table/colmap"
	"github.com/hashicorp/go-multierror"
	"github.com/kataras/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// NullText : how a null cell is rendered
const NullText = "NULL"

type Column struct {
	Name       string
	SourceType string
	Kind       string
	Nullable   bool
}

type Frame struct {
	Columns []Column
	Rows    [][]bigquery.Value
}

func New(columns []Column) *Frame {
	return &Frame{Columns: columns}
}

// ColumnsFromSchema : maps a result schema to frame columns , every column that
// has no frame kind is reported
func ColumnsFromSchema(schema bigquery.Schema) ([]Column, error) {
	var (
		cols     = make([]Column, 0, len(schema))
		finalErr error
	)
	for _, field := range schema {
		col := Column{
			Name:       field.Name,
			SourceType: string(field.Type),
			Nullable:   !field.Required,
		}
		if field.Repeated {
			col.Kind = colmap.KindList
			cols = append(cols, col)
			continue
		}
		kind, err := colmap.Convert(colmap.BigQueryToFrame, col.SourceType)
		if err != nil {
			finalErr = multierror.Append(finalErr, fmt.Errorf("column %s : %w", field.Name, err))
			continue
		}
		col.Kind = kind
		cols = append(cols, col)
	}
	if finalErr != nil {
		return nil, finalErr
	}
	return cols, nil
}

// Append : adds a row , the row must be as wide as the frame
func (f *Frame) Append(row []bigquery.Value) error {
	if len(row) != len(f.Columns) {
		return fmt.Errorf("row has %d values but frame has %d columns", len(row), len(f.Columns))
	}
	f.Rows = append(f.Rows, row)
	return nil
}

// Shape : (rows , columns)
func (f *Frame) Shape() (int, int) {
	return len(f.Rows), len(f.Columns)
}

func (f *Frame) ColumnNames() []string {
	return lo.Map(f.Columns, func(c Column, _ int) string {
		return c.Name
	})
}

// ColumnIndex : position of the named column or -1
func (f *Frame) ColumnIndex(name string) int {
	_, idx, ok := lo.FindIndexOf(f.Columns, func(c Column) bool {
		return c.Name == name
	})
	if !ok {
		return -1
	}
	return idx
}

// Head : a frame with the first n rows
func (f *Frame) Head(n int) *Frame {
	if n > len(f.Rows) {
		n = len(f.Rows)
	}
	if n < 0 {
		n = 0
	}
	out := New(f.Columns)
	out.Rows = make([][]bigquery.Value, n)
	copy(out.Rows, f.Rows[:n])
	return out
}

// Filter : a frame with only the rows keep returns true for
func (f *Frame) Filter(keep func(row []bigquery.Value) bool) *Frame {
	out := New(f.Columns)
	for _, row := range f.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func (f *Frame) Clone() *Frame {
	out := New(append([]Column(nil), f.Columns...))
	out.Rows = make([][]bigquery.Value, len(f.Rows))
	for i, row := range f.Rows {
		out.Rows[i] = append([]bigquery.Value(nil), row...)
	}
	return out
}

// Render : writes the frame as a text table
func (f *Frame) Render(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader(f.ColumnNames())
	for _, row := range f.Rows {
		tw.Append(formatRow(row))
	}
	tw.Render()
}

// WriteCSV : header line followed by one line per row
func (f *Frame) WriteCSV(w io.Writer) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(f.ColumnNames()); err != nil {
		return err
	}
	for _, row := range f.Rows {
		if err := csvWriter.Write(formatRow(row)); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func formatRow(row []bigquery.Value) []string {
	return lo.Map(row, func(v bigquery.Value, _ int) string {
		return FormatValue(v)
	})
}

// FormatValue : renders a single cell as text
func FormatValue(v bigquery.Value) string {
	switch val := v.(type) {
	case nil:
		return NullText
	case *big.Rat:
		if val == nil {
			return NullText
		}
		return bigquery.NumericString(val)
	case []byte:
		return fmt.Sprintf("%x", val)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
