package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-radar/internal/email"
	"github.com/pdiddy/research-radar/internal/gemini"
	"github.com/pdiddy/research-radar/internal/history"
	"github.com/pdiddy/research-radar/internal/pipeline"
	"github.com/pdiddy/research-radar/internal/querygen"
	"github.com/pdiddy/research-radar/internal/relevance"
	"github.com/pdiddy/research-radar/internal/search"
	"github.com/pdiddy/research-radar/internal/secrets"
	"github.com/pdiddy/research-radar/internal/summarize"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one newsletter cycle: search, summarize, and send",
	Long: `Run executes one end-to-end newsletter cycle. It searches every backend
with the configured (or LLM-generated) queries, drops papers already sent,
optionally filters by relevance, summarizes the remainder with Gemini, and
emails the digest. Papers are marked as sent only after the digest is
delivered, so a failed run is retried in full on the next cycle.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "execute every stage except delivery and state write-back")
	runCmd.Flags().String("report", "", "write a YAML run report to this path")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	reportPath, _ := cmd.Flags().GetString("report")

	client := &http.Client{Timeout: cfg.HTTP.Timeout}
	llm := gemini.NewClient(client, cfg.Summarization.AIConfig)

	deps := pipeline.Deps{
		Backends:   newBackends(client, cfg.HTTP.UserAgent),
		Queries:    querygen.NewGenerator(llm),
		Relevance:  relevance.NewFilter(llm),
		Summarizer: summarize.NewSummarizer(llm),
		Sender:     email.NewSender(cfg.SMTP),
	}

	if !dryRun {
		archive, err := history.NewStore(cfg.History)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: digest archive unavailable: %v\n", err)
		} else {
			defer archive.Close()
			deps.Archive = archive
		}
	}

	opts := pipeline.Options{DryRun: dryRun, ReportPath: reportPath}
	report, err := pipeline.Run(context.Background(), deps, cfg, opts, os.Stdout)
	if err != nil {
		return err
	}

	if report.Delivered {
		fmt.Printf("Delivered %d papers to %d recipients\n", report.Summarized, report.Recipients)
	}
	return nil
}

// newBackends builds the production backend set in fan-out order.
func newBackends(client *http.Client, userAgent string) []search.Backend {
	return []search.Backend{
		&search.ArxivBackend{Client: client, UserAgent: userAgent},
		&search.CrossrefBackend{Client: client, UserAgent: userAgent},
		&search.SemanticScholarBackend{
			Client:    client,
			UserAgent: userAgent,
			APIKey:    secretDefault(secrets.SemanticScholarAPIKey, ""),
		},
	}
}
