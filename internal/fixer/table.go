package fixer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/starford/linkmend/internal/apperr"
	"github.com/starford/linkmend/internal/models"
)

// LoadTable reads a YAML fix table from filename.
func LoadTable(filename string) (models.FixTable, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return models.FixTable{}, fmt.Errorf("fixer: read table %s: %w", filename, err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a YAML fix table.
func ParseTable(data []byte) (models.FixTable, error) {
	var table models.FixTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return models.FixTable{}, fmt.Errorf("fixer: parse table: %w", err)
	}
	if err := ValidateTable(table); err != nil {
		return models.FixTable{}, err
	}
	return table, nil
}

// ValidateTable checks every entry and reports the first invalid one.
func ValidateTable(table models.FixTable) error {
	for i, e := range table.Fixes {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("fixer: entry %d: %w: %v", i, apperr.ErrInvalidEntry, err)
		}
	}
	return nil
}

// MarshalTable encodes table as YAML.
func MarshalTable(table models.FixTable) ([]byte, error) {
	if table.Fixes == nil {
		table.Fixes = []models.FixEntry{}
	}
	out, err := yaml.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("fixer: marshal table: %w", err)
	}
	return out, nil
}
