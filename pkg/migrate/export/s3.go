// package export
//
// ships a fetched sample out of the process so it can be looked at without rerunning the query
package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/baderkha/patek-transfer/pkg/migrate/config/exportcfg"
	"github.com/baderkha/patek-transfer/pkg/migrate/frame"
	"github.com/baderkha/patek-transfer/pkg/migrate/table"
)

// Exporter : anything that can take a sample somewhere and tell where it went
type Exporter interface {
	Export(ctx context.Context, ref table.Ref, runID string, f *frame.Frame) (string, error)
}

func NewS3Exporter(cfg exportcfg.S3) *S3Exporter {
	return &S3Exporter{
		target: s3.New(session.Must(session.NewSession(aws.NewConfig()))),
		cfg:    cfg,
		now:    time.Now,
	}
}

// NewS3ExporterWithClient : same as NewS3Exporter with a caller supplied client
func NewS3ExporterWithClient(client s3iface.S3API, cfg exportcfg.S3) *S3Exporter {
	return &S3Exporter{target: client, cfg: cfg, now: time.Now}
}

type S3Exporter struct {
	target s3iface.S3API
	cfg    exportcfg.S3
	now    func() time.Time
}

// Key : <prefix>/date=<yyyy-mm-dd>/run_id=<run>/<table>.csv
func (e *S3Exporter) Key(ref table.Ref, runID string) string {
	return path.Join(
		e.cfg.Prefix,
		"date="+e.now().UTC().Format(time.DateOnly),
		"run_id="+runID,
		ref.TableID+".csv",
	)
}

// Export : one PutObject of the frame as csv , a failed upload is not retried
func (e *S3Exporter) Export(ctx context.Context, ref table.Ref, runID string, f *frame.Frame) (string, error) {
	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		return "", fmt.Errorf("EXPORT : Could not encode %s as csv due to : %w", ref, err)
	}
	key := e.Key(ref, runID)
	_, err := e.target.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Body:        bytes.NewReader(buf.Bytes()),
		Bucket:      aws.String(e.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("EXPORT : Could not upload key (%s) to bucket %s due to : %w", key, e.cfg.Bucket, err)
	}
	return fmt.Sprintf("s3://%s/%s", e.cfg.Bucket, key), nil
}
