package query

import (
	"testing"

	"github.com/baderkha/patek-transfer/pkg/migrate/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	original = table.NewRef("projectbdm-487109", "patek_data", "patek")
	backup   = original.Backup()
)

func TestSQL(t *testing.T) {
	cases := []struct {
		name string
		stmt Statement
		want string
	}{
		{
			name: "sample",
			stmt: Sample(original, SampleLimit),
			want: "SELECT * FROM `projectbdm-487109.patek_data.patek` LIMIT 20",
		},
		{
			name: "backup",
			stmt: Backup(original, backup),
			want: "CREATE OR REPLACE TABLE `projectbdm-487109.patek_data.patek_raw` AS SELECT * FROM `projectbdm-487109.patek_data.patek`",
		},
		{
			name: "clean",
			stmt: Clean(original, backup, PriceColumn),
			want: "CREATE OR REPLACE TABLE `projectbdm-487109.patek_data.patek` AS SELECT * FROM `projectbdm-487109.patek_data.patek_raw` WHERE price IS NOT NULL",
		},
		{
			name: "count",
			stmt: Count(backup),
			want: "SELECT COUNT(*) AS row_count FROM `projectbdm-487109.patek_data.patek_raw`",
		},
		{
			name: "null count",
			stmt: NullCount(original, PriceColumn),
			want: "SELECT COUNTIF(price IS NULL) AS null_count, COUNT(*) AS row_count FROM `projectbdm-487109.patek_data.patek`",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := c.stmt.SQL()
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestCleanReadsFromBackup(t *testing.T) {
	stmt := Clean(original, backup, PriceColumn)
	assert.Equal(t, backup, stmt.Source)
	assert.Equal(t, original, stmt.Target)
	assert.True(t, stmt.Writes())
	assert.False(t, Sample(original, 1).Writes())
}

func TestSQLRejects(t *testing.T) {
	evil := original.WithTable("patek` ; DROP TABLE `x")

	_, err := Sample(evil, SampleLimit).SQL()
	assert.ErrorContains(t, err, "bad source table")

	_, err = Backup(original, evil).SQL()
	assert.ErrorContains(t, err, "bad target table")

	_, err = Backup(original, original).SQL()
	assert.ErrorContains(t, err, "source and target")

	_, err = Clean(original, backup, "price IS NOT NULL OR 1=1 --").SQL()
	assert.ErrorContains(t, err, "invalid column name")

	_, err = Sample(original, 0).SQL()
	assert.ErrorContains(t, err, "limit must be positive")

	_, err = Statement{Kind: Kind("DROP"), Source: original}.SQL()
	assert.ErrorContains(t, err, "Unsupported statement kind")
}

func TestTag(t *testing.T) {
	stmt := Backup(original, backup)
	tagged := stmt.Tag("run-1")
	assert.Equal(t, "run-1", tagged.RunID)
	assert.Empty(t, stmt.RunID)
}
