// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/pdiddy/research-radar/pkg/types"
)

// scriptedGenerator replies with canned responses in call order.
type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, prompt)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var resp string
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	return resp, err
}

func scoreResponse(score float64, reason string) string {
	return fmt.Sprintf("SCORE: %.1f\nREASON: %s", score, reason)
}

func testConfig() types.RelevanceConfig {
	return types.RelevanceConfig{
		Enabled:                 true,
		BusinessContext:         "customer digital twins",
		HighlyRelevantThreshold: 7.0,
		AlsoRelevantThreshold:   5.0,
		MinPapers:               3,
	}
}

func papersNamed(titles ...string) []types.Paper {
	papers := make([]types.Paper, len(titles))
	for i, title := range titles {
		papers[i] = types.Paper{ID: fmt.Sprintf("id-%d", i), Title: title, Abstract: "abs"}
	}
	return papers
}

func TestScoreParsesResponse(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"SCORE: 8.5\nREASON: Directly about twin validation."}}
	f := NewFilter(gen)

	score, reason, err := f.Score(context.Background(), types.Paper{Title: "T", Abstract: "A"}, "ctx")
	if err != nil {
		t.Fatal(err)
	}
	if score != 8.5 {
		t.Errorf("score = %v", score)
	}
	if reason != "Directly about twin validation." {
		t.Errorf("reason = %q", reason)
	}
	if !strings.Contains(gen.prompts[0], "BUSINESS CONTEXT:\nctx") {
		t.Error("prompt missing business context")
	}
}

func TestScoreErrors(t *testing.T) {
	tests := []struct {
		name     string
		response string
		genErr   error
	}{
		{"generator failure", "", errors.New("quota")},
		{"missing score line", "REASON: no score given", nil},
		{"unparseable score", "SCORE: high\nREASON: r", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(&scriptedGenerator{responses: []string{tt.response}, errs: []error{tt.genErr}})
			if _, _, err := f.Score(context.Background(), types.Paper{Title: "T"}, "ctx"); err == nil {
				t.Fatal("want error")
			}
		})
	}
}

func TestSelectTwoTier(t *testing.T) {
	// Scores: 9, 6, 8, 4, 5.5. Highly relevant: 9, 8. MinPapers 3 pulls in
	// the best also-relevant paper (6).
	gen := &scriptedGenerator{responses: []string{
		scoreResponse(9, "core"),
		scoreResponse(6, "somewhat"),
		scoreResponse(8, "relevant"),
		scoreResponse(4, "tangential"),
		scoreResponse(5.5, "some concepts"),
	}}
	f := NewFilter(gen)

	got, err := f.Select(context.Background(), papersNamed("a", "b", "c", "d", "e"), testConfig(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	wantTitles := []string{"a", "c", "b"}
	if len(got) != len(wantTitles) {
		t.Fatalf("selected %d papers, want %d", len(got), len(wantTitles))
	}
	for i, want := range wantTitles {
		if got[i].Title != want {
			t.Errorf("selected[%d] = %q, want %q", i, got[i].Title, want)
		}
	}
	if got[0].RelevanceScore != 9 || got[0].RelevanceReason != "core" {
		t.Errorf("selected[0] score/reason = %v %q", got[0].RelevanceScore, got[0].RelevanceReason)
	}
}

func TestSelectAllHighlyRelevantKept(t *testing.T) {
	// Five papers above the high threshold; MinPapers 3 must not cap them.
	gen := &scriptedGenerator{responses: []string{
		scoreResponse(7, "r1"),
		scoreResponse(8, "r2"),
		scoreResponse(9, "r3"),
		scoreResponse(7.5, "r4"),
		scoreResponse(10, "r5"),
	}}
	f := NewFilter(gen)

	got, err := f.Select(context.Background(), papersNamed("a", "b", "c", "d", "e"), testConfig(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("selected %d papers, want all 5", len(got))
	}
	if got[0].Title != "e" || got[1].Title != "c" {
		t.Errorf("order = %q, %q; want highest first", got[0].Title, got[1].Title)
	}
}

func TestSelectNothingRelevant(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		scoreResponse(2, "irrelevant"),
		scoreResponse(4.9, "below floor"),
	}}
	f := NewFilter(gen)

	got, err := f.Select(context.Background(), papersNamed("a", "b"), testConfig(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("selected %d papers, want none", len(got))
	}
}

func TestSelectScoringFailureSkipsPaper(t *testing.T) {
	gen := &scriptedGenerator{
		responses: []string{"", scoreResponse(8, "good")},
		errs:      []error{errors.New("quota"), nil},
	}
	f := NewFilter(gen)

	var log strings.Builder
	got, err := f.Select(context.Background(), papersNamed("a", "b"), testConfig(), &log)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "b" {
		t.Fatalf("selected = %v", got)
	}
	if !strings.Contains(log.String(), "warning:") {
		t.Errorf("expected warning in log, got %q", log.String())
	}
}

func TestSelectStableOrderForTies(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		scoreResponse(8, "r"),
		scoreResponse(8, "r"),
		scoreResponse(8, "r"),
	}}
	f := NewFilter(gen)

	got, err := f.Select(context.Background(), papersNamed("a", "b", "c"), testConfig(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].Title != want {
			t.Errorf("selected[%d] = %q, want %q (input order for equal scores)", i, got[i].Title, want)
		}
	}
}

func TestSelectEmptyInput(t *testing.T) {
	f := NewFilter(&scriptedGenerator{})
	got, err := f.Select(context.Background(), nil, testConfig(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Select(nil) = %v, want nil", got)
	}
}
