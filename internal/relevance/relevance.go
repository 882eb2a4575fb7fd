// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance scores papers against a business context with the
// Gemini API and selects a two-tier digest: every highly relevant paper,
// topped up with also-relevant papers to reach a minimum digest size.
package relevance

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/pdiddy/research-radar/internal/gemini"
	"github.com/pdiddy/research-radar/pkg/types"
)

var scorePromptTmpl = template.Must(template.New("score").Parse(`You are evaluating research papers for relevance to a specific business.

BUSINESS CONTEXT:
{{.BusinessContext}}

PAPER TO EVALUATE:
Title: {{.Title}}
Abstract: {{.Abstract}}

Task: Score this paper's relevance to the business on a scale of 0-10:
- 0-2: Completely irrelevant (e.g., manufacturing, IoT devices, infrastructure)
- 3-4: Tangentially related but not useful
- 5-6: Somewhat relevant, has some applicable concepts
- 7-8: Relevant, directly applicable to the business
- 9-10: Highly relevant, core to the business focus

CRITICAL EVALUATION CRITERIA:
1. Is this about CONSUMER/CUSTOMER research or industrial/manufacturing applications?
2. Does it involve behavioral modeling, preference prediction, or market research?
3. Does it use AI/LLM agents for understanding human behavior?
4. Is it about creating synthetic data/personas for consumer insights?

FORMAT YOUR RESPONSE EXACTLY AS:
SCORE: [number 0-10]
REASON: [one sentence explanation]

Example:
SCORE: 2
REASON: This paper is about aerostatic thrust bearings in manufacturing, which is completely irrelevant to consumer behavioral modeling.

Evaluate the paper now:`))

// Filter scores and selects papers for the digest.
type Filter struct {
	Generator gemini.TextGenerator
}

// NewFilter wraps a text generator.
func NewFilter(g gemini.TextGenerator) *Filter {
	return &Filter{Generator: g}
}

// Score rates one paper 0-10 against the business context and returns the
// score with the model's one-sentence reason.
func (f *Filter) Score(ctx context.Context, paper types.Paper, businessContext string) (float64, string, error) {
	var b strings.Builder
	err := scorePromptTmpl.Execute(&b, struct {
		BusinessContext string
		Title           string
		Abstract        string
	}{
		BusinessContext: businessContext,
		Title:           orDefault(paper.Title, "Unknown"),
		Abstract:        orDefault(paper.Abstract, "No abstract available"),
	})
	if err != nil {
		return 0, "", fmt.Errorf("filling score prompt: %w", err)
	}

	text, err := f.Generator.Generate(ctx, b.String())
	if err != nil {
		return 0, "", fmt.Errorf("scoring %q: %w", paper.Title, err)
	}

	score, reason, err := parseScore(text)
	if err != nil {
		return 0, "", fmt.Errorf("scoring %q: %w", paper.Title, err)
	}
	return score, reason, nil
}

// Select scores every paper and returns the digest selection, highest score
// first: all papers at or above HighlyRelevantThreshold, plus also-relevant
// papers (at or above AlsoRelevantThreshold) to fill up to MinPapers. Papers
// that fail to score are logged and left out of the scored pool, so they
// stay unseen for the next run. The returned papers carry RelevanceScore
// and RelevanceReason.
func (f *Filter) Select(ctx context.Context, papers []types.Paper, cfg types.RelevanceConfig, w io.Writer) ([]types.Paper, error) {
	if len(papers) == 0 {
		return nil, nil
	}

	fmt.Fprintf(w, "scoring %d papers for relevance\n", len(papers))

	var scored []types.Paper
	for i, paper := range papers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score, reason, err := f.Score(ctx, paper, cfg.BusinessContext)
		if err != nil {
			fmt.Fprintf(w, "warning: [%d/%d] %v\n", i+1, len(papers), err)
			continue
		}

		fmt.Fprintf(w, "  [%d/%d] %.1f/10 %s\n", i+1, len(papers), score, truncate(paper.Title, 60))

		if score >= cfg.AlsoRelevantThreshold {
			paper.RelevanceScore = score
			paper.RelevanceReason = reason
			scored = append(scored, paper)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	var highly, also []types.Paper
	for _, p := range scored {
		if p.RelevanceScore >= cfg.HighlyRelevantThreshold {
			highly = append(highly, p)
		} else {
			also = append(also, p)
		}
	}

	selected := highly
	if len(selected) < cfg.MinPapers {
		needed := cfg.MinPapers - len(selected)
		if needed > len(also) {
			needed = len(also)
		}
		selected = append(selected, also[:needed]...)
	}

	fmt.Fprintf(w, "selected %d papers (%d highly relevant, %d also relevant)\n",
		len(selected), len(highly), len(selected)-len(highly))
	return selected, nil
}

// parseScore extracts the SCORE: and REASON: lines from the model output.
func parseScore(text string) (float64, string, error) {
	var (
		score    float64
		reason   = "Unknown"
		gotScore bool
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "SCORE:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "SCORE:"))
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return 0, "", fmt.Errorf("unparseable score %q", raw)
			}
			score = v
			gotScore = true
		case strings.HasPrefix(line, "REASON:"):
			reason = strings.TrimSpace(strings.TrimPrefix(line, "REASON:"))
		}
	}
	if !gotScore {
		return 0, "", fmt.Errorf("response has no SCORE line")
	}
	return score, reason, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
