package batch

import (
	"fmt"
	"os"
	"time"

	"github.com/powerm17/automated-home-decor/internal/suggestions"
	"gopkg.in/yaml.v3"
)

type RunConfig struct {
	Backend   string `yaml:"backend"`
	Directory string `yaml:"directory"`
	Images    int    `yaml:"images"`
	Timestamp string `yaml:"timestamp"`
}

type ResultEntry struct {
	Image    string                `yaml:"image"`
	Status   string                `yaml:"status"`
	Error    string                `yaml:"error,omitempty"`
	Response *suggestions.Response `yaml:"response,omitempty"`
}

// Report is the YAML document written for a batch run.
type Report struct {
	Config  RunConfig     `yaml:"config"`
	Results []ResultEntry `yaml:"results"`
}

func NewReport(backend, dir string, results []Result, now time.Time) Report {
	report := Report{
		Config: RunConfig{
			Backend:   backend,
			Directory: dir,
			Images:    len(results),
			Timestamp: now.Format("2006-01-02_15-04-05"),
		},
		Results: make([]ResultEntry, 0, len(results)),
	}
	for _, r := range results {
		report.Results = append(report.Results, ResultEntry{
			Image:    r.Image,
			Status:   r.Status,
			Error:    r.Error,
			Response: r.Response,
		})
	}
	return report
}

func WriteYAML(path string, report Report) error {
	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}
