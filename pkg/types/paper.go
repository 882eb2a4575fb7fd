// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-radar pipeline.
package types

import "time"

// Paper is the normalized record for one discovered research paper. Every
// search backend maps its response items into this shape at the boundary;
// items missing an identifier or title never make it out of a backend.
type Paper struct {
	// ID is the canonical identifier from the source: an arXiv ID
	// ("2301.07041"), a DOI ("10.1000/xyz"), or a prefixed Semantic Scholar
	// ID ("s2:..."). Stable across repeated fetches of the same paper.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Date is the publication or preprint date.
	Date time.Time `json:"date" yaml:"date"`

	// Abstract is the paper abstract or summary text.
	Abstract string `json:"abstract" yaml:"abstract"`

	// URL points at the paper's landing page.
	URL string `json:"url" yaml:"url"`

	// Source identifies which backend found this paper (e.g. "arxiv",
	// "crossref", "semantic_scholar"). Diagnostics only, never identity.
	Source string `json:"source" yaml:"source"`

	// Summary is the generated digest summary. Empty until the
	// summarization stage fills it in.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// PracticalApplication is the generated how-could-we-use-this paragraph.
	// Optional; the digest renders it when present.
	PracticalApplication string `json:"practical_application,omitempty" yaml:"practical_application,omitempty"`

	// RelevanceScore and RelevanceReason are set by the optional relevance
	// filter (0-10 scale).
	RelevanceScore  float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`
	RelevanceReason string  `json:"relevance_reason,omitempty" yaml:"relevance_reason,omitempty"`
}
