// package colmap
//
// maps warehouse column types to the column kinds of the local frame
package colmap

import (
	"fmt"
	"strings"
)

// Type : column mapping type
type Type string

const (
	// BigQueryToFrame : bigquery -> in memory frame kind
	BigQueryToFrame Type = "BIGQUERY_FRAME"
)

// frame column kinds
const (
	KindString    = "STRING"
	KindBytes     = "BYTES"
	KindInt       = "INT64"
	KindFloat     = "FLOAT64"
	KindDecimal   = "DECIMAL"
	KindBool      = "BOOL"
	KindTimestamp = "TIMESTAMP"
	KindDate      = "DATE"
	KindTime      = "TIME"
	KindDateTime  = "DATETIME"
	KindRecord    = "RECORD"
	KindGeography = "GEOGRAPHY"
	KindInterval  = "INTERVAL"
	KindJSON      = "JSON"
	KindRange     = "RANGE"
	KindList      = "LIST"
)

var (
	// the go client reports legacy names (INTEGER, FLOAT), INFORMATION_SCHEMA reports
	// standard sql names (INT64, FLOAT64) so both are accepted
	bigQueryToFrameMap = map[string]string{
		"STRING":     KindString,
		"BYTES":      KindBytes,
		"INTEGER":    KindInt,
		"INT64":      KindInt,
		"FLOAT":      KindFloat,
		"FLOAT64":    KindFloat,
		"NUMERIC":    KindDecimal,
		"DECIMAL":    KindDecimal,
		"BIGNUMERIC": KindDecimal,
		"BIGDECIMAL": KindDecimal,
		"BOOLEAN":    KindBool,
		"BOOL":       KindBool,
		"TIMESTAMP":  KindTimestamp,
		"DATE":       KindDate,
		"TIME":       KindTime,
		"DATETIME":   KindDateTime,
		"RECORD":     KindRecord,
		"STRUCT":     KindRecord,
		"GEOGRAPHY":  KindGeography,
		"INTERVAL":   KindInterval,
		"JSON":       KindJSON,
		"RANGE":      KindRange,
	}
)

// Convert : converts types to the target kind if it cannot then it will error out
func Convert(t Type, colTypeSource string) (string, error) {
	colTypeSource = strings.ToUpper(strings.TrimSpace(strings.Split(colTypeSource, "(")[0]))
	switch t {
	case BigQueryToFrame:
		if strings.HasPrefix(colTypeSource, "ARRAY<") {
			return KindList, nil
		}
		if strings.HasPrefix(colTypeSource, "STRUCT<") {
			return KindRecord, nil
		}
		itm, ok := bigQueryToFrameMap[colTypeSource]
		if !ok {
			return "", fmt.Errorf("This col type %s does not have a frame mapping", colTypeSource)
		}
		return itm, nil
	}
	return "", fmt.Errorf("Unsupported type %s", t)
}
