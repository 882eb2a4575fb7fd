// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package email composes and sends the research digest. The digest is a
// multipart message: an HTML body for mail clients and a plain-text
// alternative carrying the same content.
package email

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/pdiddy/research-radar/pkg/types"
)

// Digest is a fully rendered message ready for the sender.
type Digest struct {
	Subject string
	HTML    string
	Text    string
}

var htmlTmpl = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;line-height:1.6;color:#e0e0e0;background:#0a0a0a;padding:20px;">
<div style="max-width:1200px;margin:0 auto;background:#121212;border-radius:16px;border:1px solid #2a2a2a;overflow:hidden;">
<div style="padding:40px 30px;border-bottom:2px solid #d4ff00;">
<h1 style="font-size:32px;font-weight:900;color:#ffffff;text-transform:uppercase;margin:0 0 12px 0;"><span style="color:#d4ff00;">RESEARCH</span> RADAR</h1>
<p style="color:#888;font-size:14px;margin:0;">Latest research on digital twins, synthetic users, and LLM agents for consumer research</p>
</div>
<div style="padding:30px;">
{{- range .Papers}}
<div style="margin-bottom:30px;padding:24px;background:#1a1a1a;border:1px solid #2a2a2a;border-left:4px solid #d4ff00;border-radius:12px;">
<span style="display:inline-block;background:#d4ff00;color:#000;font-size:11px;font-weight:900;padding:4px 10px;border-radius:4px;margin-bottom:12px;">PAPER {{printf "%02d" .Index}}</span>
<div style="font-size:18px;font-weight:700;margin-bottom:12px;"><a href="{{.URL}}" target="_blank" style="color:#ffffff;text-decoration:none;">{{.Title}}</a></div>
<div style="color:#888;font-size:12px;margin-bottom:16px;padding-bottom:16px;border-bottom:1px solid #2a2a2a;">
<strong style="color:#d4ff00;">Authors:</strong> {{.Authors}} &nbsp;
<strong style="color:#d4ff00;">Date:</strong> {{.Date}} &nbsp;
<strong style="color:#d4ff00;">Source:</strong> {{.Source}}
</div>
<div style="color:#b0b0b0;font-size:14px;">
{{- range .SummaryParagraphs}}
<p style="margin:0 0 12px 0;">{{.}}</p>
{{- end}}
</div>
{{- if .PracticalApplication}}
<div style="margin-top:16px;padding:16px;background:#0d0d0d;border:1px solid #d4ff00;border-left:4px solid #d4ff00;border-radius:8px;">
<div style="color:#d4ff00;font-size:10px;font-weight:900;letter-spacing:1px;text-transform:uppercase;margin-bottom:10px;">HOW TO APPLY THIS</div>
<p style="color:#b0b0b0;font-size:13px;margin:0;">{{.PracticalApplication}}</p>
</div>
{{- end}}
</div>
{{- end}}
</div>
<div style="padding:30px;text-align:center;border-top:1px solid #2a2a2a;background:#0f0f0f;">
<p style="color:#666;font-size:12px;margin:0 0 8px 0;"><strong style="color:#d4ff00;font-size:18px;">{{.Count}}</strong> papers &bull; {{.Generated}}</p>
<p style="color:#666;font-size:11px;margin:0;">Automated research digest from arXiv, Crossref, and Semantic Scholar &bull; Powered by Gemini</p>
</div>
</div>
</body>
</html>
`))

// paperView is the per-paper data handed to the HTML template.
type paperView struct {
	Index                int
	Title                string
	URL                  string
	Authors              string
	Date                 string
	Source               string
	SummaryParagraphs    []string
	PracticalApplication string
}

type digestView struct {
	Papers    []paperView
	Count     int
	Generated string
}

// Compose renders the digest for the given papers. The subject carries the
// configured prefix plus the generation timestamp in UTC.
func Compose(papers []types.Paper, now time.Time, cfg types.EmailConfig) (Digest, error) {
	if len(papers) == 0 {
		return Digest{}, fmt.Errorf("no papers to compose")
	}

	now = now.UTC()
	view := digestView{
		Count:     len(papers),
		Generated: now.Format("2006-01-02 15:04 UTC"),
	}
	for i, p := range papers {
		view.Papers = append(view.Papers, paperView{
			Index:                i + 1,
			Title:                orDefault(p.Title, "Title not available"),
			URL:                  orDefault(p.URL, "#"),
			Authors:              formatAuthors(p.Authors),
			Date:                 formatDate(p.Date),
			Source:               strings.ToUpper(orDefault(p.Source, "Unknown")),
			SummaryParagraphs:    summaryParagraphs(p.Summary),
			PracticalApplication: p.PracticalApplication,
		})
	}

	var html strings.Builder
	if err := htmlTmpl.Execute(&html, view); err != nil {
		return Digest{}, fmt.Errorf("rendering HTML digest: %w", err)
	}

	return Digest{
		Subject: fmt.Sprintf("%s - %s", cfg.SubjectPrefix, now.Format("2006-01-02 15:04 UTC")),
		HTML:    html.String(),
		Text:    composeText(papers, now),
	}, nil
}

func composeText(papers []types.Paper, now time.Time) string {
	var b strings.Builder
	rule := strings.Repeat("-", 40)

	b.WriteString("RESEARCH RADAR\n")
	b.WriteString(strings.Repeat("=", 40) + "\n\n")
	fmt.Fprintf(&b, "Generated on %s\n", now.Format("2006-01-02 15:04 UTC"))
	plural := "s"
	if len(papers) == 1 {
		plural = ""
	}
	fmt.Fprintf(&b, "This digest includes %d paper%s.\n\n%s\n\n", len(papers), plural, rule)

	for i, p := range papers {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, orDefault(p.Title, "Title not available"))
		fmt.Fprintf(&b, "Authors: %s\n", formatAuthors(p.Authors))
		fmt.Fprintf(&b, "Date: %s\n", formatDate(p.Date))
		fmt.Fprintf(&b, "Source: %s\n", strings.ToUpper(orDefault(p.Source, "Unknown")))
		fmt.Fprintf(&b, "Link: %s\n\n", orDefault(p.URL, "URL not available"))
		fmt.Fprintf(&b, "Summary:\n%s\n", summaryBody(p.Summary))
		if p.PracticalApplication != "" {
			fmt.Fprintf(&b, "\nHow to apply this:\n%s\n", p.PracticalApplication)
		}
		fmt.Fprintf(&b, "\n%s\n\n", rule)
	}
	return b.String()
}

// summaryBody strips the structured TITLE/LINK/AUTHORS/DATE header the
// summarizer's output format carries; the digest renders that metadata
// itself.
func summaryBody(summary string) string {
	if summary == "" {
		return "Summary not available."
	}
	if strings.Contains(summary, "TITLE:") && strings.Contains(summary, "SUMMARY:") {
		if _, after, ok := strings.Cut(summary, "SUMMARY:"); ok {
			return strings.TrimSpace(after)
		}
	}
	return strings.TrimSpace(summary)
}

func summaryParagraphs(summary string) []string {
	var paragraphs []string
	for _, p := range strings.Split(summaryBody(summary), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// formatAuthors shows the first three authors; the rest collapse to et al.
func formatAuthors(authors []string) string {
	if len(authors) == 0 {
		return "Authors not available"
	}
	if len(authors) <= 3 {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:3], ", ") + " et al."
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "Date not available"
	}
	return t.Format("2006-01-02")
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
