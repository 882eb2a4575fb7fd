// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries external paper APIs and normalizes their responses
// into the common Paper shape. Each backend (arXiv, Crossref, Semantic
// Scholar) implements the Backend interface; the pipeline fans the configured
// boolean queries out to every backend in a fixed order, one request at a
// time.
package search

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/research-radar/pkg/types"
)

// Backend searches a single external paper API. The query string may carry
// boolean operators (AND/OR/NOT, quoted phrases) interpreted by the remote
// API, not by this package.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, lookbackDays, maxResults int) ([]types.Paper, error)
}

// Output holds the concatenated results of one fan-out plus diagnostics.
type Output struct {
	// Papers is the concatenation of all per-backend, per-query results in
	// iteration order: backends in configured order, queries in order within
	// each backend. Duplicate identifiers are expected here; the merge stage
	// collapses them.
	Papers []types.Paper

	// QueryErrors lists "backend/query: error" strings for the query-backend
	// pairs that failed. A failed pair contributes no papers and never
	// aborts the fan-out.
	QueryErrors []string
}

// All issues every query against every backend sequentially and concatenates
// the normalized results. Progress and warnings go to w. A politeness delay
// separates consecutive requests.
func All(ctx context.Context, backends []Backend, queries []string, cfg types.SearchConfig, w io.Writer) (Output, error) {
	if len(queries) == 0 {
		return Output{}, fmt.Errorf("no search queries configured")
	}
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no search backends configured")
	}

	var out Output
	first := true
	for _, b := range backends {
		fmt.Fprintf(w, "searching %s...\n", b.Name())
		for _, q := range queries {
			if !first && cfg.RequestDelay > 0 {
				select {
				case <-ctx.Done():
					return out, ctx.Err()
				case <-time.After(cfg.RequestDelay):
				}
			}
			first = false

			papers, err := b.Search(ctx, q, cfg.SearchWindowDays, cfg.MaxResultsPerSource)
			if err != nil {
				msg := fmt.Sprintf("%s/%q: %v", b.Name(), truncateQuery(q), err)
				out.QueryErrors = append(out.QueryErrors, msg)
				fmt.Fprintf(w, "warning: %s\n", msg)
				continue
			}
			fmt.Fprintf(w, "  query %q: %d papers\n", truncateQuery(q), len(papers))
			out.Papers = append(out.Papers, papers...)
		}
	}
	return out, nil
}

// truncateQuery shortens long boolean queries for log lines.
func truncateQuery(q string) string {
	if len(q) <= 60 {
		return q
	}
	return q[:57] + "..."
}

// cutoff returns the oldest acceptable publication time for a lookback
// window. A non-positive window means no cutoff.
func cutoff(now time.Time, lookbackDays int) time.Time {
	if lookbackDays <= 0 {
		return time.Time{}
	}
	return now.UTC().AddDate(0, 0, -lookbackDays)
}
