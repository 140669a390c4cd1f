// =============================================================================
// GSTR-2B Reconciler - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the configuration file.
// A single YAML file describes global settings plus one section for each of
// the two datasets being reconciled.
//
// CONFIGURATION FILE (config.yaml):
//   output_dir: ./output
//   tolerance: 1
//   two_b:
//     path: ./input/gstr2b.xlsx
//     mapping:
//       gstin: GSTIN of supplier
//       invoice_number: Invoice number
//   books:
//     path: ./input/purchase_register.csv
//     csv_settings:
//       encoding: Windows-1252
//
// ENVIRONMENT OVERRIDES:
//   GSTRECON_OUTPUT_DIR, GSTRECON_LOG_LEVEL and GSTRECON_TOLERANCE replace the
//   matching file values. A .env file in the working directory is read first.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/transform"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvOutputDir = "GSTRECON_OUTPUT_DIR"
	EnvLogLevel  = "GSTRECON_LOG_LEVEL"
	EnvTolerance = "GSTRECON_TOLERANCE"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// OutputDir is where the reconciliation workbook and summary are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is an optional JSON log file. Empty disables file logging.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat defines the workbook file name.
	// Placeholders: {uuid}, {timestamp}, {date}, {time}
	// Default: "reconciliation_{timestamp}_{uuid}.xlsx"
	OutputNameFormat string `yaml:"output_name_format"`

	// =========================================================================
	// RECONCILIATION SETTINGS
	// =========================================================================

	// Tolerance is the largest amount difference still treated as equal.
	// A nil value means the default of 1.
	Tolerance *decimal.Decimal `yaml:"tolerance"`

	// AutoMap fills unmapped fields from header suggestions.
	// Default: true
	AutoMap *bool `yaml:"auto_map"`

	// Suggester selects the header suggestion strategy.
	// Valid values: "regex", "fuzzy", "chain"
	// Default: "chain"
	Suggester string `yaml:"suggester"`

	// =========================================================================
	// DATASETS
	// =========================================================================

	TwoB  DatasetConfig `yaml:"two_b"`
	Books DatasetConfig `yaml:"books"`
}

// =============================================================================
// DATASET CONFIGURATION STRUCTURE
// =============================================================================

// DatasetConfig describes where one dataset lives and how to read it.
type DatasetConfig struct {
	// Name is used in logs, validation messages and the workbook.
	Name string `yaml:"name"`

	// Path is the input file (.csv, .tsv, .txt, .xlsx, .xlsm or .xls).
	Path string `yaml:"path"`

	// Sheet selects a worksheet by name for spreadsheet inputs.
	// Default: the first sheet.
	Sheet string `yaml:"sheet"`

	// CSVSettings applies to delimited-text inputs.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// Mapping names the header of every semantic field.
	Mapping types.Mapping `yaml:"mapping"`

	// TransformationRules are applied to raw cells before normalization.
	TransformationRules []transform.Rule `yaml:"transformation_rules"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields in the CSV.
	// Common values: "," (comma), "|" (pipe), "\t" or "tab", ";"
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows in the CSV file.
	// Multi-row headers are merged column by column with a space.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-based row number where the data begins.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`

	// Encoding is the character encoding of the CSV file.
	// Supported: "UTF-8", "ISO-8859-1", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file, then applies
// environment overrides and defaults, then validates the result.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ApplyEnvOverrides(&config); err != nil {
		return nil, err
	}

	applyMainConfigDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault behaves like LoadMainConfig but falls back to defaults when
// the file does not exist. Environment overrides are applied and validated
// either way.
func LoadOrDefault(configPath string) (*MainConfig, error) {
	cfg, err := LoadMainConfig(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = &MainConfig{}
		if err := ApplyEnvOverrides(cfg); err != nil {
			return nil, err
		}
		applyMainConfigDefaults(cfg)
		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}
	return cfg, err
}

// LoadDotEnv reads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides copies GSTRECON_* variables into the configuration.
func ApplyEnvOverrides(config *MainConfig) error {
	if v := os.Getenv(EnvOutputDir); v != "" {
		config.OutputDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv(EnvTolerance); v != "" {
		t, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTolerance, v, err)
		}
		config.Tolerance = &t
	}
	return nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "reconciliation_{timestamp}_{uuid}.xlsx"
	}
	if config.Tolerance == nil {
		one := decimal.NewFromInt(1)
		config.Tolerance = &one
	}
	if config.AutoMap == nil {
		on := true
		config.AutoMap = &on
	}
	if config.Suggester == "" {
		config.Suggester = "chain"
	}

	applyDatasetDefaults(&config.TwoB, "GSTR-2B")
	applyDatasetDefaults(&config.Books, "Books")
}

// applyDatasetDefaults sets default values for one dataset section.
func applyDatasetDefaults(dataset *DatasetConfig, name string) {
	if dataset.Name == "" {
		dataset.Name = name
	}
	if dataset.CSVSettings.Delimiter == "" {
		dataset.CSVSettings.Delimiter = ","
	}
	if dataset.CSVSettings.HeaderRows == 0 {
		dataset.CSVSettings.HeaderRows = 1
	}
	if dataset.CSVSettings.DataStartRow == 0 {
		dataset.CSVSettings.DataStartRow = dataset.CSVSettings.HeaderRows + 1
	}
	if dataset.CSVSettings.Encoding == "" {
		dataset.CSVSettings.Encoding = "UTF-8"
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks values that cannot be repaired with defaults.
func Validate(config *MainConfig) error {
	var errs []error

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", config.LogLevel))
	}

	if config.Tolerance != nil && config.Tolerance.IsNegative() {
		errs = append(errs, fmt.Errorf("tolerance must not be negative, got %s", config.Tolerance))
	}

	switch config.Suggester {
	case "regex", "fuzzy", "chain":
	default:
		errs = append(errs, fmt.Errorf("unknown suggester %q", config.Suggester))
	}

	for _, dataset := range []*DatasetConfig{&config.TwoB, &config.Books} {
		if dataset.CSVSettings.DataStartRow <= dataset.CSVSettings.HeaderRows {
			errs = append(errs, fmt.Errorf("%s: data_start_row %d must come after %d header row(s)",
				dataset.Name, dataset.CSVSettings.DataStartRow, dataset.CSVSettings.HeaderRows))
		}
		if _, err := transform.New(dataset.TransformationRules); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dataset.Name, err))
		}
	}

	return errors.Join(errs...)
}
