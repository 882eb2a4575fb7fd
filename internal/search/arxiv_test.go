// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const arxivFeedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <title>Efficient
      Attention Mechanisms</title>
    <summary>  We study attention.  </summary>
    <published>%s</published>
    <author><name>Jane Smith</name></author>
    <author><name>Bob Jones</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2301.99999v1</id>
    <title></title>
    <summary>No title, must be dropped.</summary>
    <published>%s</published>
  </entry>
  <entry>
    <id>http://example.org/not-an-arxiv-url</id>
    <title>No identifier, must be dropped</title>
    <published>%s</published>
  </entry>
</feed>`

func arxivTestServer(t *testing.T, published time.Time) (*httptest.Server, func()) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		date := published.Format(time.RFC3339)
		fmt.Fprintf(w, arxivFeedTemplate, date, date, date)
	}))
	orig := arxivAPIBase
	arxivAPIBase = ts.URL
	return ts, func() {
		arxivAPIBase = orig
		ts.Close()
	}
}

func TestArxivSearchNormalizesAndDrops(t *testing.T) {
	_, cleanup := arxivTestServer(t, time.Now().UTC().Add(-24*time.Hour))
	defer cleanup()

	b := &ArxivBackend{Client: http.DefaultClient, UserAgent: "test/0.1"}
	papers, err := b.Search(context.Background(), `"attention" AND efficiency`, 7, 12)
	if err != nil {
		t.Fatal(err)
	}

	if len(papers) != 1 {
		t.Fatalf("got %d papers, want 1 (malformed entries dropped)", len(papers))
	}
	p := papers[0]
	if p.ID != "2301.07041" {
		t.Errorf("ID = %q, want version suffix stripped", p.ID)
	}
	if p.Title != "Efficient Attention Mechanisms" {
		t.Errorf("Title = %q, want embedded newlines collapsed", p.Title)
	}
	if p.Abstract != "We study attention." {
		t.Errorf("Abstract = %q", p.Abstract)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "Jane Smith" {
		t.Errorf("Authors = %v", p.Authors)
	}
	if p.Source != "arxiv" {
		t.Errorf("Source = %q", p.Source)
	}
	if p.URL != "http://arxiv.org/abs/2301.07041v2" {
		t.Errorf("URL = %q", p.URL)
	}
}

func TestArxivSearchAppliesLookbackWindow(t *testing.T) {
	_, cleanup := arxivTestServer(t, time.Now().UTC().Add(-30*24*time.Hour))
	defer cleanup()

	b := &ArxivBackend{Client: http.DefaultClient, UserAgent: "test/0.1"}
	papers, err := b.Search(context.Background(), "attention", 7, 12)
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 0 {
		t.Errorf("got %d papers, want 0 outside the lookback window", len(papers))
	}
}

func TestArxivSearchRequestShape(t *testing.T) {
	var captured *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`)
	}))
	defer ts.Close()
	orig := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = orig }()

	b := &ArxivBackend{Client: http.DefaultClient, UserAgent: "radar-test/0.1"}
	if _, err := b.Search(context.Background(), "digital twin", 7, 5); err != nil {
		t.Fatal(err)
	}

	q := captured.URL.Query()
	if got := q.Get("search_query"); got != "all:digital twin" {
		t.Errorf("search_query = %q", got)
	}
	if got := q.Get("max_results"); got != "5" {
		t.Errorf("max_results = %q", got)
	}
	if got := q.Get("sortBy"); got != "submittedDate" {
		t.Errorf("sortBy = %q", got)
	}
	if got := captured.Header.Get("User-Agent"); got != "radar-test/0.1" {
		t.Errorf("User-Agent = %q", got)
	}
}

func TestArxivSearchHTTPErrorSurfaces(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()
	orig := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = orig }()

	b := &ArxivBackend{Client: http.DefaultClient, UserAgent: "test/0.1"}
	if _, err := b.Search(context.Background(), "q", 7, 12); err == nil {
		t.Fatal("want error on HTTP 500")
	}
}

func TestArxivEmptyQueryRejected(t *testing.T) {
	b := &ArxivBackend{Client: http.DefaultClient}
	if _, err := b.Search(context.Background(), "  ", 7, 12); err == nil {
		t.Fatal("want error for empty query")
	}
}
