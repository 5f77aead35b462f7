package jobs

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileSource reads jobs from a YAML file of the form
//
//	tenants:
//	  acme:
//	    - id: wh-01
//	      title: Warehouse operator
//	      required_skills: [forklift]
//	      required_years: 1
//	      language_level: A2
//
// The file is re-read on every call so edits apply without a restart.
type FileSource struct {
	Path string
}

type fileDocument struct {
	Tenants map[string][]Job `yaml:"tenants"`
}

func (f *FileSource) Jobs(_ context.Context, tenantID string) ([]Job, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode jobs file %q: %w", f.Path, err)
	}

	list, ok := doc.Tenants[tenantID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTenant, tenantID)
	}
	return NormalizeAll(list)
}
