package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sources describes the CSV bulk inputs consumed by the migration driver.
type Sources struct {
	BatchSize int                  `yaml:"batch_size"`
	Tables    map[string]CSVSource `yaml:"tables"`
}

// CSVSource locates one table's CSV file and names its columns. Header
// declares whether the first line carries column names and must be skipped.
type CSVSource struct {
	Path    string   `yaml:"path"`
	Header  bool     `yaml:"header"`
	Columns []string `yaml:"columns"`
}

// LoadSources parses the migration sources file.
func LoadSources(path string) (*Sources, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var src Sources
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return &src, nil
}

// Validate performs strict validation on the sources configuration.
func (s *Sources) Validate() error {
	if len(s.Tables) == 0 {
		return fmt.Errorf("no tables defined")
	}
	if s.BatchSize < 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	for name, tbl := range s.Tables {
		if tbl.Path == "" {
			return fmt.Errorf("table %s: path required", name)
		}
		if len(tbl.Columns) == 0 {
			return fmt.Errorf("table %s: columns required", name)
		}
	}
	return nil
}
