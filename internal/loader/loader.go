// Package loader reads a dataset file into a table, choosing the parser from
// the file extension.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/config"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/csvparser"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/xlsxparser"
)

// Extensions lists the accepted input extensions.
var Extensions = []string{".csv", ".txt", ".tsv", ".xlsx", ".xlsm", ".xls"}

// LoadFile parses path using the sheet and CSV settings of dataset.
// A .tsv file is always tab-separated.
func LoadFile(path string, dataset config.DatasetConfig) (*types.Table, error) {
	var (
		table *types.Table
		err   error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		table, err = csvparser.Parse(path, dataset.CSVSettings)
	case ".tsv":
		settings := dataset.CSVSettings
		settings.Delimiter = "tab"
		table, err = csvparser.Parse(path, settings)
	case ".xlsx", ".xlsm":
		table, err = xlsxparser.Parse(path, dataset.Sheet)
	case ".xls":
		table, err = xlsxparser.ParseXLS(path, dataset.Sheet)
	default:
		return nil, fmt.Errorf("unsupported file type %q (expected one of %s)", ext, strings.Join(Extensions, ", "))
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Load parses the file named by dataset.Path.
func Load(dataset config.DatasetConfig) (*types.Table, error) {
	if dataset.Path == "" {
		return nil, fmt.Errorf("%s: no input file configured", dataset.Name)
	}
	return LoadFile(dataset.Path, dataset)
}
