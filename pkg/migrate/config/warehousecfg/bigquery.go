package warehousecfg

import (
	"fmt"

	"github.com/baderkha/patek-transfer/pkg/migrate/table"
	"github.com/spf13/afero"
	"google.golang.org/api/option"
)

type BigQuery struct {
	ProjectID string `json:"project_id"`
	Dataset   string `json:"dataset"`
	// Location is left empty to let the client pick the dataset's location
	Location string `json:"location"`
	// CredentialsFile is a service account key , empty means application default credentials
	CredentialsFile string `json:"credentials_file"`
}

// Table : ref to a table in the configured dataset
func (b *BigQuery) Table(name string) table.Ref {
	return table.NewRef(b.ProjectID, b.Dataset, name)
}

// ClientOptions : reads the credential material through fs and hands it to the client explicitly
func (b *BigQuery) ClientOptions(fs afero.Fs) ([]option.ClientOption, error) {
	if b.CredentialsFile == "" {
		return nil, nil
	}
	raw, err := afero.ReadFile(fs, b.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("BIGQUERY : Could not read credentials file %s due to : %w", b.CredentialsFile, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("BIGQUERY : credentials file %s is empty", b.CredentialsFile)
	}
	return []option.ClientOption{option.WithCredentialsJSON(raw)}, nil
}
