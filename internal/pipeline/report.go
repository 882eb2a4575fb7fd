// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// Report is the on-disk record of one run. Operators keep these alongside
// cron logs to answer "what did the newsletter do last night" without
// querying the history database.
type Report struct {
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	DryRun     bool      `yaml:"dry_run,omitempty"`

	Queries     []string `yaml:"queries"`
	QueryErrors []string `yaml:"query_errors,omitempty"`

	Candidates  int `yaml:"candidates"`
	Duplicates  int `yaml:"duplicates_removed"`
	AlreadySeen int `yaml:"already_seen"`
	Selected    int `yaml:"selected"`

	Summarized      int `yaml:"summarized"`
	SummaryFailures int `yaml:"summary_failures,omitempty"`

	Subject      string   `yaml:"subject,omitempty"`
	SentPaperIDs []string `yaml:"sent_paper_ids,omitempty"`
	Delivered    bool     `yaml:"delivered"`
	Recipients   int      `yaml:"recipients,omitempty"`
}

func (r *Report) finish(t time.Time) {
	r.FinishedAt = t
}

// writeReport saves the report as YAML. An empty path disables reporting.
func writeReport(path string, report *Report) error {
	if path == "" {
		return nil
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return nil
}
