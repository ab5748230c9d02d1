package migrate

import (
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/baderkha/patek-transfer/pkg/migrate/frame"
	"github.com/baderkha/patek-transfer/pkg/migrate/table"
	"github.com/baderkha/patek-transfer/pkg/migrate/table/colmap"
	"github.com/baderkha/patek-transfer/pkg/migrate/warehouse/memory"
	"github.com/stretchr/testify/require"
)

var (
	original = table.NewRef("projectbdm-487109", "patek_data", "patek")
	backup   = original.Backup()
)

func watchColumns() []frame.Column {
	return []frame.Column{
		{Name: "id", SourceType: "INTEGER", Kind: colmap.KindInt},
		{Name: "model", SourceType: "STRING", Kind: colmap.KindString, Nullable: true},
		{Name: "price", SourceType: "FLOAT", Kind: colmap.KindFloat, Nullable: true},
	}
}

func watches(t *testing.T, rows ...[]bigquery.Value) *frame.Frame {
	t.Helper()
	f := frame.New(watchColumns())
	for _, row := range rows {
		require.NoError(t, f.Append(row))
	}
	return f
}

// the three row scenario : one watch without a price
func seeded(t *testing.T) *memory.Warehouse {
	t.Helper()
	wh := memory.New()
	wh.Put(original, watches(t,
		[]bigquery.Value{int64(1), "Nautilus 5711", 100.0},
		[]bigquery.Value{int64(2), "Aquanaut 5167", nil},
		[]bigquery.Value{int64(3), "Calatrava 5196", 50.0},
	))
	return wh
}
