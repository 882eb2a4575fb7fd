package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/research-radar/internal/search"
	"github.com/pdiddy/research-radar/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Preview a search without summarizing or sending",
	Long: `Search issues one query (or the configured queries when none is given)
against the paper APIs and prints the normalized results. Nothing is
summarized, mailed, or marked as seen; use it to tune queries before
enabling them for the pipeline.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("source", "", "restrict to one backend: arxiv, crossref, or semantic_scholar")
	searchCmd.Flags().Int("max-results", 0, "maximum results per source (default from config)")
	searchCmd.Flags().Int("window", 0, "lookback window in days (default from config)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	queries := cfg.Search.Queries
	if len(args) > 0 {
		queries = []string{strings.Join(args, " ")}
	}
	if len(queries) == 0 {
		return fmt.Errorf("provide a query argument or configure search.queries")
	}

	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Search.MaxResultsPerSource = n
	}
	if n, _ := cmd.Flags().GetInt("window"); n > 0 {
		cfg.Search.SearchWindowDays = n
	}

	client := &http.Client{Timeout: cfg.HTTP.Timeout}
	backends := newBackends(client, cfg.HTTP.UserAgent)
	if source, _ := cmd.Flags().GetString("source"); source != "" {
		backends = filterBackends(backends, source)
		if len(backends) == 0 {
			return fmt.Errorf("unknown source %q: use arxiv, crossref, or semantic_scholar", source)
		}
	}

	out, err := search.All(context.Background(), backends, queries, cfg.Search, os.Stderr)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out.Papers)
	}

	printPaperTable(out.Papers)
	if len(out.QueryErrors) > 0 {
		fmt.Fprintf(os.Stderr, "%d query error(s)\n", len(out.QueryErrors))
	}
	return nil
}

func filterBackends(backends []search.Backend, source string) []search.Backend {
	var kept []search.Backend
	for _, b := range backends {
		if b.Name() == source {
			kept = append(kept, b)
		}
	}
	return kept
}

func printPaperTable(papers []types.Paper) {
	if len(papers) == 0 {
		fmt.Println("No papers found.")
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Title", "Date", "Source", "ID"})

	for i, p := range papers {
		title := p.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		date := ""
		if !p.Date.IsZero() {
			date = p.Date.Format("2006-01-02")
		}
		tw.AppendRow(table.Row{i + 1, title, date, p.Source, p.ID})
	}
	tw.Render()

	fmt.Printf("\n%d papers\n", len(papers))
}
