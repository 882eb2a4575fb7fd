// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/research-radar/internal/httputil"
	"github.com/pdiddy/research-radar/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "paperId,title,abstract,authors,externalIds,url,publicationDate,year"

// SemanticScholarBackend queries the Semantic Scholar Graph API.
type SemanticScholarBackend struct {
	Client    *http.Client
	UserAgent string
	APIKey    string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// Search queries Semantic Scholar and returns papers inside the lookback
// window. The API only filters by year, so the exact day cutoff is applied
// client-side on publicationDate.
func (b *SemanticScholarBackend) Search(ctx context.Context, query string, lookbackDays, maxResults int) ([]types.Paper, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	if maxResults <= 0 {
		maxResults = 12
	}

	oldest := cutoff(time.Now(), lookbackDays)

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(maxResults)},
		"fields": {semanticFields},
	}
	if !oldest.IsZero() {
		params.Set("year", fmt.Sprintf("%d-", oldest.Year()))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", b.UserAgent)
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var papers []types.Paper
	for _, item := range sr.Data {
		title := collapseWhitespace(item.Title)
		if item.PaperID == "" || title == "" {
			continue
		}

		p := types.Paper{
			ID:       semanticID(item),
			Title:    title,
			Abstract: collapseWhitespace(item.Abstract),
			URL:      item.URL,
			Source:   "semantic_scholar",
		}
		for _, a := range item.Authors {
			if a.Name != "" {
				p.Authors = append(p.Authors, a.Name)
			}
		}
		if item.PublicationDate != "" {
			if t, parseErr := time.Parse("2006-01-02", item.PublicationDate); parseErr == nil {
				p.Date = t
			}
		} else if item.Year > 0 {
			p.Date = time.Date(item.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		}

		if !oldest.IsZero() && !p.Date.IsZero() && p.Date.Before(oldest) {
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// semanticID picks the identifier the rest of the pipeline deduplicates on:
// arXiv ID or DOI when the paper has one (so the same paper found on arXiv
// or Crossref collapses), otherwise the prefixed Semantic Scholar ID.
func semanticID(item semanticPaper) string {
	if item.ExternalIDs.ArXiv != "" {
		return item.ExternalIDs.ArXiv
	}
	if item.ExternalIDs.DOI != "" {
		return item.ExternalIDs.DOI
	}
	return "s2:" + item.PaperID
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	URL             string              `json:"url"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
