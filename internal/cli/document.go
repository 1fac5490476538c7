// Package cli implements the interactive terminal front end.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arborlabs/arbor/pkg/dialog"
)

// LoadDocumentFile reads a dialog document from disk. The format is
// chosen by extension: .json, or .yaml/.yml.
func LoadDocumentFile(path string) (*dialog.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc dialog.Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := doc.UnmarshalJSON(data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported document format %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
	return &doc, nil
}
