// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize turns paper metadata and abstracts into digest-ready
// summaries via the Gemini API.
package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/research-radar/internal/gemini"
	"github.com/pdiddy/research-radar/pkg/types"
)

// Summarizer generates one summary per paper. A nil or failing generator
// yields an error per paper; callers decide whether to skip or abort.
type Summarizer struct {
	Generator gemini.TextGenerator
}

// NewSummarizer wraps a text generator.
func NewSummarizer(g gemini.TextGenerator) *Summarizer {
	return &Summarizer{Generator: g}
}

// promptFields is the data handed to the summary prompt template.
type promptFields struct {
	Title    string
	Authors  string
	Date     string
	URL      string
	Abstract string
}

// Summarize generates a summary for one paper. The returned text keeps the
// model's TITLE/LINK/AUTHORS/DATE/SUMMARY structure after cleanup.
func (s *Summarizer) Summarize(ctx context.Context, paper types.Paper) (string, error) {
	prompt, err := s.buildPrompt(paper)
	if err != nil {
		return "", err
	}

	text, err := s.Generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarizing %q: %w", paper.Title, err)
	}

	summary := cleanOutput(text)
	if summary == "" {
		return "", fmt.Errorf("summarizing %q: model returned no usable text", paper.Title)
	}
	return summary, nil
}

// PracticalApplication generates one paragraph describing how a team working
// in businessContext could apply the paper. Optional digest enrichment;
// callers treat an error as skip-and-continue.
func (s *Summarizer) PracticalApplication(ctx context.Context, paper types.Paper, businessContext string) (string, error) {
	if strings.TrimSpace(businessContext) == "" {
		return "", fmt.Errorf("business context is empty")
	}

	var b strings.Builder
	err := applicationPromptTmpl.Execute(&b, struct {
		BusinessContext string
		Title           string
		Abstract        string
	}{
		BusinessContext: businessContext,
		Title:           orUnavailable(paper.Title, "Title not available"),
		Abstract:        orUnavailable(paper.Abstract, "Abstract not available"),
	})
	if err != nil {
		return "", fmt.Errorf("filling application prompt: %w", err)
	}

	text, err := s.Generator.Generate(ctx, b.String())
	if err != nil {
		return "", fmt.Errorf("practical application for %q: %w", paper.Title, err)
	}
	return strings.TrimSpace(text), nil
}

func (s *Summarizer) buildPrompt(paper types.Paper) (string, error) {
	fields := promptFields{
		Title:    orUnavailable(paper.Title, "Title not available"),
		Authors:  formatAuthors(paper.Authors, 5),
		Date:     formatDate(paper.Date),
		URL:      orUnavailable(paper.URL, "URL not available"),
		Abstract: orUnavailable(paper.Abstract, "Abstract not available"),
	}

	var b strings.Builder
	if err := summaryPromptTmpl.Execute(&b, fields); err != nil {
		return "", fmt.Errorf("filling summary prompt: %w", err)
	}
	return b.String(), nil
}

// formatAuthors joins up to max author names; the remainder collapses into
// an "et al." suffix carrying the total count.
func formatAuthors(authors []string, max int) string {
	if len(authors) == 0 {
		return "Authors not available"
	}
	if len(authors) <= max {
		return strings.Join(authors, ", ")
	}
	return fmt.Sprintf("%s et al. (%d authors total)", strings.Join(authors[:max], ", "), len(authors))
}

// cleanOutput strips any echoed prompt scaffolding from the model response.
// Some models replay the OUTPUT FORMAT header or prepend chatter before the
// SUMMARY: marker; keep only the structured part.
func cleanOutput(text string) string {
	out := strings.TrimSpace(text)
	if idx := strings.Index(out, "OUTPUT FORMAT"); idx >= 0 {
		out = strings.TrimSpace(out[idx+len("OUTPUT FORMAT"):])
	} else if idx := strings.Index(out, "SUMMARY:"); idx > 0 && !strings.HasPrefix(out, "TITLE:") {
		out = "SUMMARY:\n" + strings.TrimSpace(out[idx+len("SUMMARY:"):])
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "Date not available"
	}
	return t.Format("2006-01-02")
}

func orUnavailable(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
