package table

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/baderkha/patek-transfer/pkg/migrate/table/colmap"
	"github.com/hashicorp/go-multierror"
)

func NewInfoFetcherBigQuery(client *bigquery.Client) InfoFetcher {
	return &InfoFetcherBigQuery{
		source: client,
	}
}

type InfoFetcherBigQuery struct {
	source *bigquery.Client
}

func (m *InfoFetcherBigQuery) Describe(ctx context.Context, ref Ref) (*Info, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	md, err := m.source.DatasetInProject(ref.ProjectID, ref.DatasetID).Table(ref.TableID).Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("TABLE_INFO : Could not read metadata for %s due to : %w", ref, err)
	}
	return InfoFromMetadata(ref, md)
}

// InfoFromMetadata : converts the client's table metadata into an Info
func InfoFromMetadata(ref Ref, md *bigquery.TableMetadata) (*Info, error) {
	var finalErr error
	ifo := &Info{
		Ref:          ref,
		NumRows:      md.NumRows,
		SizeMB:       float64(md.NumBytes) / 1024 / 1024,
		LastModified: md.LastModifiedTime,
	}
	for _, field := range md.Schema {
		col := &ColumnTypes{
			ColumnName: field.Name,
			Type:       string(field.Type),
			Nullable:   !field.Required,
		}
		if field.Repeated {
			col.TargetType = colmap.KindList
			ifo.Schema = append(ifo.Schema, col)
			continue
		}
		target, err := colmap.Convert(colmap.BigQueryToFrame, col.Type)
		if err != nil {
			finalErr = multierror.Append(finalErr, fmt.Errorf("Cast Error : Bad Casting for %s for column %s due to : %w", ref, field.Name, err))
			continue
		}
		col.TargetType = target
		ifo.Schema = append(ifo.Schema, col)
	}
	if finalErr != nil {
		return nil, finalErr
	}
	return ifo, nil
}
