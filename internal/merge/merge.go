// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge combines per-query, per-source search results into the
// candidate list handed to summarization. It collapses intra-run duplicates,
// filters out previously digested papers, and applies the per-run cap.
package merge

import "github.com/pdiddy/research-radar/pkg/types"

// Stats reports what Merge removed.
type Stats struct {
	// Duplicates is the number of candidates dropped because an earlier
	// candidate carried the same identifier.
	Duplicates int

	// AlreadySeen is the number of candidates dropped because their
	// identifier was in the seen-set.
	AlreadySeen int

	// Truncated is the number of candidates dropped by the cap.
	Truncated int
}

// Merge reduces the concatenated candidate sequence to the papers that go
// to summarization.
//
// The first occurrence of an identifier wins; later duplicates are dropped,
// so the caller's concatenation order (first backend, first query) is the
// tie-break. Candidates whose identifier is in seen are dropped. The
// survivors keep their input order and are truncated positionally to cap;
// cap <= 0 means no cap.
//
// Merge never mutates seen, so re-running it with the same inputs yields
// the same output.
func Merge(candidates []types.Paper, seen map[string]struct{}, cap int) ([]types.Paper, Stats) {
	var stats Stats
	inRun := make(map[string]struct{}, len(candidates))
	out := make([]types.Paper, 0, len(candidates))

	for _, p := range candidates {
		if _, dup := inRun[p.ID]; dup {
			stats.Duplicates++
			continue
		}
		inRun[p.ID] = struct{}{}

		if _, sent := seen[p.ID]; sent {
			stats.AlreadySeen++
			continue
		}
		out = append(out, p)
	}

	if cap > 0 && len(out) > cap {
		stats.Truncated = len(out) - cap
		out = out[:cap]
	}
	return out, stats
}

// IDs returns the identifiers of papers in order.
func IDs(papers []types.Paper) []string {
	ids := make([]string, len(papers))
	for i, p := range papers {
		ids[i] = p.ID
	}
	return ids
}
