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

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/research-radar/internal/httputil"
	"github.com/pdiddy/research-radar/pkg/types"
)

// crossrefAPIBase is the Crossref works endpoint. Declared as a var so tests
// can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// CrossrefBackend queries the Crossref REST API. Crossref identifies papers
// by DOI and frequently returns abstracts as JATS XML fragments.
type CrossrefBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *CrossrefBackend) Name() string { return "crossref" }

// Search queries Crossref for recent journal articles and preprints matching
// the query. The lookback window is applied server-side through the
// from-created-date filter.
func (b *CrossrefBackend) Search(ctx context.Context, query string, lookbackDays, maxResults int) ([]types.Paper, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Crossref query")
	}
	if maxResults <= 0 {
		maxResults = 12
	}

	filter := "type:posted-content,type:journal-article"
	if oldest := cutoff(time.Now(), lookbackDays); !oldest.IsZero() {
		filter = "from-created-date:" + oldest.Format("2006-01-02") + "," + filter
	}

	params := url.Values{
		"query":  {query},
		"rows":   {strconv.Itoa(maxResults)},
		"sort":   {"created"},
		"order":  {"desc"},
		"filter": {filter},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", b.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Crossref API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}

	var papers []types.Paper
	for _, item := range cr.Message.Items {
		p, ok := crossrefPaper(item)
		if !ok {
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// crossrefPaper maps one works item into a Paper. Items without a DOI or
// title are rejected.
func crossrefPaper(item crossrefItem) (types.Paper, bool) {
	doi := strings.TrimSpace(item.DOI)
	title := collapseWhitespace(strings.Join(item.Title, " "))
	if doi == "" || title == "" {
		return types.Paper{}, false
	}

	p := types.Paper{
		ID:       doi,
		Title:    title,
		URL:      "https://doi.org/" + doi,
		Source:   "crossref",
		Abstract: cleanAbstract(item.Abstract),
	}

	for _, a := range item.Author {
		switch {
		case a.Given != "" && a.Family != "":
			p.Authors = append(p.Authors, a.Given+" "+a.Family)
		case a.Family != "":
			p.Authors = append(p.Authors, a.Family)
		}
	}

	if len(item.Created.DateParts) > 0 && len(item.Created.DateParts[0]) > 0 {
		parts := item.Created.DateParts[0]
		year, month, day := parts[0], 1, 1
		if len(parts) > 1 {
			month = parts[1]
		}
		if len(parts) > 2 {
			day = parts[2]
		}
		p.Date = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	}

	if p.Abstract == "" {
		p.Abstract = "Abstract not available from Crossref."
	}
	return p, true
}

// cleanAbstract strips the JATS/HTML markup Crossref embeds in abstracts
// (e.g. "<jats:p>...</jats:p>") down to plain text.
func cleanAbstract(abstract string) string {
	abstract = strings.TrimSpace(abstract)
	if abstract == "" || !strings.Contains(abstract, "<") {
		return collapseWhitespace(abstract)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(abstract))
	if err != nil {
		return collapseWhitespace(abstract)
	}
	return collapseWhitespace(doc.Text())
}

// Crossref API JSON structures.
type crossrefResponse struct {
	Message crossrefMessage `json:"message"`
}

type crossrefMessage struct {
	Items []crossrefItem `json:"items"`
}

type crossrefItem struct {
	DOI      string           `json:"DOI"`
	Title    []string         `json:"title"`
	Abstract string           `json:"abstract"`
	Author   []crossrefAuthor `json:"author"`
	Created  crossrefDate     `json:"created"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}
