// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package querygen generates boolean search queries from a research-focus
// description using the Gemini API. When generation fails the configured
// static queries are used instead, so a model outage never skips a run.
package querygen

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/pdiddy/research-radar/internal/gemini"
	"github.com/pdiddy/research-radar/pkg/types"
)

var queryPromptTmpl = template.Must(template.New("queries").Parse(`You are a research librarian helping to find academic papers.

RESEARCH FOCUS:
{{.ResearchFocus}}

TOPICS TO EXPLICITLY EXCLUDE:
{{.ExcludeTopics}}

Generate {{.NumQueries}} search queries for arXiv and academic databases. Each query should:
1. Be FOCUSED but not overly restrictive - aim for 2-3 core concepts with OR alternatives
2. Use quoted phrases for multi-word concepts (e.g., "digital twin", "synthetic users")
3. Combine concepts with AND, use OR for synonyms/alternatives
4. Use NOT to exclude major irrelevant topics (manufacturing, IoT, infrastructure)
5. Keep queries SIMPLE - too many AND conditions will find nothing

CRITICAL: The queries must be balanced - specific enough to filter out irrelevant papers, but broad enough to actually find papers.

Format: Return ONLY the queries, one per line, with no numbering or explanation.
Use arXiv search syntax: quotes for phrases, AND, OR, NOT for operators.

Example GOOD queries (focused but findable):
"digital twin" AND consumer NOT (manufacturing OR IoT)
"synthetic users" AND (behavior OR preference)
"LLM agent" AND (consumer OR customer OR marketing)

Example BAD queries (too restrictive, will find nothing):
"digital twin" AND consumer AND "behavioral model" AND AI AND marketing NOT manufacturing

Generate {{.NumQueries}} balanced queries now:`))

// Generator produces search queries from the configured research focus.
type Generator struct {
	Generator gemini.TextGenerator
}

// NewGenerator wraps a text generator.
func NewGenerator(g gemini.TextGenerator) *Generator {
	return &Generator{Generator: g}
}

// Queries returns the query list for one run. With LLM generation disabled
// it returns cfg.Queries as-is. With it enabled it asks the model and falls
// back to cfg.Queries on any failure, logging a warning to w.
func (g *Generator) Queries(ctx context.Context, cfg types.SearchConfig, w io.Writer) []string {
	if !cfg.UseLLMQueryGeneration {
		return cfg.Queries
	}

	queries, err := g.generate(ctx, cfg)
	if err != nil {
		fmt.Fprintf(w, "warning: query generation failed, using configured queries: %v\n", err)
		return cfg.Queries
	}

	fmt.Fprintf(w, "generated %d search queries\n", len(queries))
	return queries
}

func (g *Generator) generate(ctx context.Context, cfg types.SearchConfig) ([]string, error) {
	if strings.TrimSpace(cfg.ResearchFocus) == "" {
		return nil, fmt.Errorf("research_focus is empty")
	}

	exclude := "None"
	if len(cfg.ExcludeTopics) > 0 {
		exclude = strings.Join(cfg.ExcludeTopics, ", ")
	}

	var b strings.Builder
	err := queryPromptTmpl.Execute(&b, struct {
		ResearchFocus string
		ExcludeTopics string
		NumQueries    int
	}{cfg.ResearchFocus, exclude, cfg.NumQueries})
	if err != nil {
		return nil, fmt.Errorf("filling query prompt: %w", err)
	}

	text, err := g.Generator.Generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	queries := parseQueries(text, cfg.NumQueries)
	if len(queries) == 0 {
		return nil, fmt.Errorf("model returned no usable queries")
	}
	return queries, nil
}

// parseQueries extracts at most limit query lines from the model output.
// Models sometimes number the lines or add short connective lines; numbering
// is stripped and lines of ten characters or fewer are dropped.
func parseQueries(text string, limit int) []string {
	var queries []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cleaned := strings.TrimLeft(line, "0123456789.-) ")
		if len(cleaned) > 10 {
			queries = append(queries, cleaned)
		}
	}
	if limit > 0 && len(queries) > limit {
		queries = queries[:limit]
	}
	return queries
}
