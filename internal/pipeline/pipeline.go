// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one end-to-end newsletter cycle: search, dedup
// against persisted state, optional relevance filtering, summarization,
// digest delivery, and state write-back. Stages run strictly in order; a
// run either commits its state at the end or leaves the state file exactly
// as it found it.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/research-radar/internal/email"
	"github.com/pdiddy/research-radar/internal/merge"
	"github.com/pdiddy/research-radar/internal/search"
	"github.com/pdiddy/research-radar/internal/state"
	"github.com/pdiddy/research-radar/pkg/types"
)

// QuerySource provides the query list for one run.
type QuerySource interface {
	Queries(ctx context.Context, cfg types.SearchConfig, w io.Writer) []string
}

// PaperSummarizer generates per-paper digest content.
type PaperSummarizer interface {
	Summarize(ctx context.Context, paper types.Paper) (string, error)
	PracticalApplication(ctx context.Context, paper types.Paper, businessContext string) (string, error)
}

// RelevanceSelector scores papers and returns the digest selection.
type RelevanceSelector interface {
	Select(ctx context.Context, papers []types.Paper, cfg types.RelevanceConfig, w io.Writer) ([]types.Paper, error)
}

// DigestSender delivers a composed digest.
type DigestSender interface {
	Send(ctx context.Context, digest email.Digest, cfg types.EmailConfig) error
}

// RunArchiver records a sent digest. Optional; a nil archiver disables
// archiving.
type RunArchiver interface {
	AppendRun(sentAt time.Time, subject string, recipients int, papers []types.Paper) (int64, error)
}

// Deps are the stage implementations one run is wired with.
type Deps struct {
	Backends   []search.Backend
	Queries    QuerySource
	Relevance  RelevanceSelector
	Summarizer PaperSummarizer
	Sender     DigestSender
	Archive    RunArchiver

	// Now supplies the run timestamp; defaults to time.Now.
	Now func() time.Time
}

// Options modify a run without changing its wiring.
type Options struct {
	// DryRun executes every stage except delivery and leaves the state
	// file untouched.
	DryRun bool

	// ReportPath, when set, receives a YAML run report.
	ReportPath string
}

// Run executes one newsletter cycle. It returns a Report describing what
// happened; the error is non-nil only for failures that aborted the run
// (state lock, search setup, delivery).
func Run(ctx context.Context, deps Deps, cfg types.Config, opts Options, w io.Writer) (*Report, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	started := now().UTC()

	store, err := state.Open(cfg.State.Path, w)
	if err != nil {
		return nil, fmt.Errorf("opening state: %w", err)
	}
	defer store.Close()

	report := &Report{StartedAt: started, DryRun: opts.DryRun}

	// commit persists state mutations; dry runs never write.
	commit := func() error {
		if opts.DryRun {
			return nil
		}
		store.Touch(now().UTC())
		if err := store.Save(); err != nil {
			return fmt.Errorf("saving state: %w", err)
		}
		return nil
	}

	queries := deps.Queries.Queries(ctx, cfg.Search, w)
	report.Queries = queries
	if len(queries) == 0 {
		return report, fmt.Errorf("no search queries available")
	}

	out, err := search.All(ctx, deps.Backends, queries, cfg.Search, w)
	if err != nil {
		return report, fmt.Errorf("searching: %w", err)
	}
	report.Candidates = len(out.Papers)
	report.QueryErrors = out.QueryErrors

	merged, stats := merge.Merge(out.Papers, store.Seen(), 0)
	report.Duplicates = stats.Duplicates
	report.AlreadySeen = stats.AlreadySeen
	fmt.Fprintf(w, "%d new papers (%d duplicates, %d already sent)\n",
		len(merged), stats.Duplicates, stats.AlreadySeen)

	if len(merged) == 0 {
		fmt.Fprintln(w, "no new papers; not sending")
		report.finish(now().UTC())
		if err := commit(); err != nil {
			return report, err
		}
		return report, writeReport(opts.ReportPath, report)
	}

	selected := merged
	if cfg.Relevance.Enabled {
		picked, err := deps.Relevance.Select(ctx, merged, cfg.Relevance, w)
		if err != nil {
			return report, fmt.Errorf("relevance filtering: %w", err)
		}
		selected = picked
		report.Selected = len(selected)
		if len(selected) == 0 {
			fmt.Fprintln(w, "no papers passed the relevance filter; not sending")
			report.finish(now().UTC())
			if err := commit(); err != nil {
				return report, err
			}
			return report, writeReport(opts.ReportPath, report)
		}
	} else {
		report.Selected = len(selected)
	}

	if max := cfg.Summarization.MaxSummaries; max > 0 && len(selected) > max {
		fmt.Fprintf(w, "limiting to %d papers\n", max)
		selected = selected[:max]
	}

	var summarized []types.Paper
	for _, paper := range selected {
		fmt.Fprintf(w, "summarizing %q\n", truncateTitle(paper.Title))
		summary, err := deps.Summarizer.Summarize(ctx, paper)
		if err != nil {
			// A paper that fails to summarize is skipped and stays
			// unseen, so a later run can retry it.
			fmt.Fprintf(w, "warning: %v\n", err)
			report.SummaryFailures++
			continue
		}
		paper.Summary = summary
		summarized = append(summarized, paper)
	}
	report.Summarized = len(summarized)

	if len(summarized) == 0 {
		fmt.Fprintln(w, "no papers were summarized; not sending")
		report.finish(now().UTC())
		if err := commit(); err != nil {
			return report, err
		}
		return report, writeReport(opts.ReportPath, report)
	}

	if bc := cfg.Relevance.BusinessContext; bc != "" {
		for i := range summarized {
			app, err := deps.Summarizer.PracticalApplication(ctx, summarized[i], bc)
			if err != nil {
				fmt.Fprintf(w, "warning: %v\n", err)
				continue
			}
			summarized[i].PracticalApplication = app
		}
	}

	sentAt := now().UTC()
	digest, err := email.Compose(summarized, sentAt, cfg.Email)
	if err != nil {
		return report, fmt.Errorf("composing digest: %w", err)
	}
	report.Subject = digest.Subject
	report.SentPaperIDs = merge.IDs(summarized)

	switch {
	case opts.DryRun:
		fmt.Fprintf(w, "dry run: would send %d papers to %d recipients\n",
			len(summarized), len(cfg.Email.Recipients))
	case len(cfg.Email.Recipients) == 0:
		fmt.Fprintln(w, "warning: no recipients configured; skipping delivery")
	default:
		if err := deps.Sender.Send(ctx, digest, cfg.Email); err != nil {
			// Delivery failed: abort before the state write-back so every
			// paper in this digest is retried next run.
			return report, fmt.Errorf("sending digest: %w", err)
		}
		report.Delivered = true
		report.Recipients = len(cfg.Email.Recipients)
		fmt.Fprintf(w, "sent %d papers to %d recipients\n", len(summarized), len(cfg.Email.Recipients))

		store.MarkSent(summarized, sentAt)

		if deps.Archive != nil {
			if _, err := deps.Archive.AppendRun(sentAt, digest.Subject, len(cfg.Email.Recipients), summarized); err != nil {
				fmt.Fprintf(w, "warning: archiving run: %v\n", err)
			}
		}
	}

	report.finish(now().UTC())
	if err := commit(); err != nil {
		return report, err
	}
	return report, writeReport(opts.ReportPath, report)
}

func truncateTitle(title string) string {
	if len(title) <= 60 {
		return title
	}
	return title[:57] + "..."
}
