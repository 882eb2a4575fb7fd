// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-radar/internal/email"
	"github.com/pdiddy/research-radar/internal/search"
	"github.com/pdiddy/research-radar/internal/state"
	"github.com/pdiddy/research-radar/pkg/types"
)

type stubBackend struct {
	name   string
	papers []types.Paper
	err    error
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Search(_ context.Context, _ string, _, _ int) ([]types.Paper, error) {
	return s.papers, s.err
}

type stubQueries struct{ queries []string }

func (s *stubQueries) Queries(_ context.Context, _ types.SearchConfig, _ io.Writer) []string {
	return s.queries
}

type stubRelevance struct {
	selected []types.Paper
	err      error
	called   bool
}

func (s *stubRelevance) Select(_ context.Context, papers []types.Paper, _ types.RelevanceConfig, _ io.Writer) ([]types.Paper, error) {
	s.called = true
	if s.selected == nil && s.err == nil {
		return papers, nil
	}
	return s.selected, s.err
}

type stubSummarizer struct {
	failTitles map[string]bool
	appErr     error
}

func (s *stubSummarizer) Summarize(_ context.Context, p types.Paper) (string, error) {
	if s.failTitles[p.Title] {
		return "", fmt.Errorf("summarizing %q: quota exceeded", p.Title)
	}
	return "SUMMARY:\nsummary of " + p.Title, nil
}

func (s *stubSummarizer) PracticalApplication(_ context.Context, p types.Paper, _ string) (string, error) {
	if s.appErr != nil {
		return "", s.appErr
	}
	return "apply " + p.Title, nil
}

type stubSender struct {
	err    error
	sent   []email.Digest
	emails []types.EmailConfig
}

func (s *stubSender) Send(_ context.Context, d email.Digest, cfg types.EmailConfig) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, d)
	s.emails = append(s.emails, cfg)
	return nil
}

type stubArchive struct {
	runs [][]types.Paper
	err  error
}

func (s *stubArchive) AppendRun(_ time.Time, _ string, _ int, papers []types.Paper) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.runs = append(s.runs, papers)
	return int64(len(s.runs)), nil
}

func paper(id, title string) types.Paper {
	return types.Paper{
		ID:       id,
		Title:    title,
		Authors:  []string{"A. Author"},
		Date:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		URL:      "https://example.com/" + id,
		Abstract: "abstract",
		Source:   "arxiv",
	}
}

func testConfig(t *testing.T) types.Config {
	t.Helper()
	cfg := types.Defaults()
	cfg.State.Path = filepath.Join(t.TempDir(), "seen_ids.json")
	cfg.Search.Queries = []string{`"digital twin" AND consumer`}
	cfg.Search.RequestDelay = 0
	cfg.Email.Recipients = []string{"team@example.com"}
	return cfg
}

func testDeps(backends []search.Backend, sender *stubSender) Deps {
	return Deps{
		Backends:   backends,
		Queries:    &stubQueries{queries: []string{`"digital twin" AND consumer`}},
		Relevance:  &stubRelevance{},
		Summarizer: &stubSummarizer{},
		Sender:     sender,
		Now:        func() time.Time { return time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC) },
	}
}

func seenIDs(t *testing.T, path string) map[string]struct{} {
	t.Helper()
	store, err := state.Open(path, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	return store.Seen()
}

func TestRunSendsAndMarksSeen(t *testing.T) {
	cfg := testConfig(t)
	sender := &stubSender{}
	archive := &stubArchive{}
	deps := testDeps([]search.Backend{
		&stubBackend{name: "arxiv", papers: []types.Paper{paper("a1", "Paper One"), paper("a2", "Paper Two")}},
	}, sender)
	deps.Archive = archive

	report, err := Run(context.Background(), deps, cfg, Options{}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	if !report.Delivered || report.Summarized != 2 {
		t.Errorf("report = %+v", report)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d digests, want 1", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].Subject, "2026-03-10 14:30 UTC") {
		t.Errorf("Subject = %q", sender.sent[0].Subject)
	}
	if len(archive.runs) != 1 || len(archive.runs[0]) != 2 {
		t.Errorf("archive.runs = %v", archive.runs)
	}

	seen := seenIDs(t, cfg.State.Path)
	for _, id := range []string{"a1", "a2"} {
		if _, ok := seen[id]; !ok {
			t.Errorf("id %s not marked seen", id)
		}
	}
}

func TestRunSendFailureLeavesStateUntouched(t *testing.T) {
	cfg := testConfig(t)
	sender := &stubSender{err: errors.New("connection refused")}
	deps := testDeps([]search.Backend{
		&stubBackend{name: "arxiv", papers: []types.Paper{paper("a1", "Paper One")}},
	}, sender)

	_, err := Run(context.Background(), deps, cfg, Options{}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "sending digest") {
		t.Fatalf("err = %v, want delivery failure", err)
	}

	if _, statErr := os.Stat(cfg.State.Path); !os.IsNotExist(statErr) {
		t.Error("state file must not be written after a failed delivery")
	}
}

func TestRunSummaryFailureSkipsPaperAndKeepsItUnseen(t *testing.T) {
	cfg := testConfig(t)
	sender := &stubSender{}
	deps := testDeps([]search.Backend{
		&stubBackend{name: "arxiv", papers: []types.Paper{paper("a1", "Good Paper"), paper("a2", "Bad Paper")}},
	}, sender)
	deps.Summarizer = &stubSummarizer{failTitles: map[string]bool{"Bad Paper": true}}

	report, err := Run(context.Background(), deps, cfg, Options{}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if report.Summarized != 1 || report.SummaryFailures != 1 {
		t.Errorf("report = %+v", report)
	}

	seen := seenIDs(t, cfg.State.Path)
	if _, ok := seen["a1"]; !ok {
		t.Error("a1 should be marked seen")
	}
	if _, ok := seen["a2"]; ok {
		t.Error("a2 failed summarization and must stay unseen for retry")
	}
}

func TestRunNoNewPapersTouchesLastRunOnly(t *testing.T) {
	cfg := testConfig(t)

	// Pre-mark the only candidate as seen.
	store, err := state.Open(cfg.State.Path, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	store.MarkSent([]types.Paper{paper("a1", "Paper One")}, time.Now())
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}
	store.Close()

	sender := &stubSender{}
	deps := testDeps([]search.Backend{
		&stubBackend{name: "arxiv", papers: []types.Paper{paper("a1", "Paper One")}},
	}, sender)

	report, err := Run(context.Background(), deps, cfg, Options{}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if report.Delivered || len(sender.sent) != 0 {
		t.Error("nothing should be sent when every paper is seen")
	}
	if report.AlreadySeen != 1 {
		t.Errorf("AlreadySeen = %d, want 1", report.AlreadySeen)
	}

	store, err = state.Open(cfg.State.Path, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if store.LastRun().IsZero() {
		t.Error("last_run should be set after an empty run")
	}
	if store.Len() != 1 {
		t.Errorf("state has %d entries, want 1", store.Len())
	}
}

func TestRunDryRunSkipsDeliveryAndStateWrite(t *testing.T) {
	cfg := testConfig(t)
	sender := &stubSender{}
	deps := testDeps([]search.Backend{
		&stubBackend{name: "arxiv", papers: []types.Paper{paper("a1", "Paper One")}},
	}, sender)

	report, err := Run(context.Background(), deps, cfg, Options{DryRun: true}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if report.Delivered || len(sender.sent) != 0 {
		t.Error("dry run must not deliver")
	}
	if report.Summarized != 1 {
		t.Errorf("dry run should still summarize, got %d", report.Summarized)
	}
	if _, statErr := os.Stat(cfg.State.Path); !os.IsNotExist(statErr) {
		t.Error("dry run must not write the state file")
	}
}

func TestRunNoRecipientsSkipsDeliveryAndMarking(t *testing.T) {
	cfg := testConfig(t)
	cfg.Email.Recipients = nil
	sender := &stubSender{}
	deps := testDeps([]search.Backend{
		&stubBackend{name: "arxiv", papers: []types.Paper{paper("a1", "Paper One")}},
	}, sender)

	var log strings.Builder
	report, err := Run(context.Background(), deps, cfg, Options{}, &log)
	if err != nil {
		t.Fatal(err)
	}
	if report.Delivered || len(sender.sent) != 0 {
		t.Error("no delivery without recipients")
	}
	if !strings.Contains(log.String(), "no recipients") {
		t.Errorf("expected warning, got %q", log.String())
	}

	seen := seenIDs(t, cfg.State.Path)
	if _, ok := seen["a1"]; ok {
		t.Error("papers must stay unseen when delivery was skipped")
	}
}

func TestRunRelevanceFilterNarrowsSelection(t *testing.T) {
	cfg := testConfig(t)
	cfg.Relevance.Enabled = true
	cfg.Relevance.BusinessContext = "customer twins"

	keep := paper("a2", "Relevant Paper")
	keep.RelevanceScore = 9

	sender := &stubSender{}
	rel := &stubRelevance{selected: []types.Paper{keep}}
	deps := testDeps([]search.Backend{
		&stubBackend{name: "arxiv", papers: []types.Paper{paper("a1", "Irrelevant"), paper("a2", "Relevant Paper")}},
	}, sender)
	deps.Relevance = rel

	report, err := Run(context.Background(), deps, cfg, Options{}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if !rel.called {
		t.Fatal("relevance filter was not invoked")
	}
	if report.Selected != 1 || report.Summarized != 1 {
		t.Errorf("report = %+v", report)
	}

	seen := seenIDs(t, cfg.State.Path)
	if _, ok := seen["a2"]; !ok {
		t.Error("selected paper should be marked seen")
	}
	if _, ok := seen["a1"]; ok {
		t.Error("filtered-out paper must stay unseen")
	}
}

func TestRunRelevanceEmptySelectionSendsNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Relevance.Enabled = true

	sender := &stubSender{}
	deps := testDeps([]search.Backend{
		&stubBackend{name: "arxiv", papers: []types.Paper{paper("a1", "Irrelevant")}},
	}, sender)
	deps.Relevance = &stubRelevance{selected: []types.Paper{}}

	report, err := Run(context.Background(), deps, cfg, Options{}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if report.Delivered || len(sender.sent) != 0 {
		t.Error("nothing should be sent with an empty selection")
	}
}

func TestRunCapsToMaxSummaries(t *testing.T) {
	cfg := testConfig(t)
	cfg.Summarization.MaxSummaries = 2

	var papers []types.Paper
	for i := 0; i < 5; i++ {
		papers = append(papers, paper(fmt.Sprintf("a%d", i), fmt.Sprintf("Paper %d", i)))
	}
	sender := &stubSender{}
	deps := testDeps([]search.Backend{&stubBackend{name: "arxiv", papers: papers}}, sender)

	report, err := Run(context.Background(), deps, cfg, Options{}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if report.Summarized != 2 {
		t.Errorf("Summarized = %d, want cap of 2", report.Summarized)
	}
	if got := report.SentPaperIDs; len(got) != 2 || got[0] != "a0" || got[1] != "a1" {
		t.Errorf("SentPaperIDs = %v, want positional first two", got)
	}
}

func TestRunWritesReportFile(t *testing.T) {
	cfg := testConfig(t)
	reportPath := filepath.Join(t.TempDir(), "run.yaml")
	sender := &stubSender{}
	deps := testDeps([]search.Backend{
		&stubBackend{name: "arxiv", papers: []types.Paper{paper("a1", "Paper One")}},
	}, sender)

	_, err := Run(context.Background(), deps, cfg, Options{ReportPath: reportPath}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	var got Report
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Delivered || got.Summarized != 1 || len(got.SentPaperIDs) != 1 {
		t.Errorf("report file = %+v", got)
	}
	if len(got.Queries) != 1 {
		t.Errorf("Queries = %v", got.Queries)
	}
}

func TestRunFailedBackendIsNonFatal(t *testing.T) {
	cfg := testConfig(t)
	sender := &stubSender{}
	deps := testDeps([]search.Backend{
		&stubBackend{name: "arxiv", err: errors.New("HTTP 500")},
		&stubBackend{name: "crossref", papers: []types.Paper{paper("c1", "Crossref Paper")}},
	}, sender)

	report, err := Run(context.Background(), deps, cfg, Options{}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.QueryErrors) != 1 {
		t.Errorf("QueryErrors = %v", report.QueryErrors)
	}
	if !report.Delivered || report.Summarized != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestRunArchiveFailureIsNonFatal(t *testing.T) {
	cfg := testConfig(t)
	sender := &stubSender{}
	deps := testDeps([]search.Backend{
		&stubBackend{name: "arxiv", papers: []types.Paper{paper("a1", "Paper One")}},
	}, sender)
	deps.Archive = &stubArchive{err: errors.New("disk full")}

	var log strings.Builder
	report, err := Run(context.Background(), deps, cfg, Options{}, &log)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Delivered {
		t.Error("delivery should succeed despite archive failure")
	}
	if !strings.Contains(log.String(), "archiving run") {
		t.Errorf("expected archive warning, got %q", log.String())
	}
}
