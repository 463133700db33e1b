package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oicur0t/boardlog/pkg/models"
	"gopkg.in/yaml.v3"
)

// WriteRunReport saves the run report as YAML
func WriteRunReport(path string, r models.RunReport) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}

// LoadRunReport reads a report written by WriteRunReport
func LoadRunReport(path string) (models.RunReport, error) {
	var r models.RunReport

	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("failed to read run report: %w", err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to unmarshal run report: %w", err)
	}
	return r, nil
}
