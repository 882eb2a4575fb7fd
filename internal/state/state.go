// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state persists the seen-set: the identifiers of every paper that
// has appeared in a digest, used to keep papers from being sent twice.
//
// The on-disk format is a JSON document:
//
//	{"papers": {"<id>": {"sent_date": "...", "title": "..."}}, "last_run": "..."|null}
//
// Operators reset it by replacing the file with {"papers": {}, "last_run": null}
// or running the state reset command.
package state

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/pdiddy/research-radar/pkg/types"
)

// Entry records when a paper was first included in a digest. Entries are
// created once and never mutated.
type Entry struct {
	SentDate time.Time `json:"sent_date"`
	Title    string    `json:"title,omitempty"`
}

// document is the serialized state file shape.
type document struct {
	Papers  map[string]Entry `json:"papers"`
	LastRun *time.Time       `json:"last_run"`
}

// Store owns the state file. There is exactly one reader and one writer per
// run; a file lock rejects a second process touching the same state.
type Store struct {
	path    string
	lock    *flock.Flock
	papers  map[string]Entry
	lastRun *time.Time
}

// Open loads the state file at path, acquiring a lock beside it. A missing
// or corrupt file is treated as empty state (first-ever run semantics); the
// corrupt case writes a warning to w.
func Open(path string, w io.Writer) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking state file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("state file %s is locked: another run is active", path)
	}

	s := &Store{
		path:   path,
		lock:   lock,
		papers: map[string]Entry{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		lock.Unlock()
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Fprintf(w, "warning: state file %s is corrupt (%v), starting with empty state\n", path, err)
		return s, nil
	}
	if doc.Papers != nil {
		s.papers = doc.Papers
	}
	s.lastRun = doc.LastRun
	return s, nil
}

// Close releases the state file lock.
func (s *Store) Close() error {
	return s.lock.Unlock()
}

// Seen returns the set of identifiers already digested. The returned map is
// a copy; mutating it does not touch the store.
func (s *Store) Seen() map[string]struct{} {
	seen := make(map[string]struct{}, len(s.papers))
	for id := range s.papers {
		seen[id] = struct{}{}
	}
	return seen
}

// Len returns the number of seen entries.
func (s *Store) Len() int { return len(s.papers) }

// LastRun returns the previous run timestamp, or the zero time if the
// pipeline has never completed a run. Display only; the search window is
// driven by configuration, not by this value.
func (s *Store) LastRun() time.Time {
	if s.lastRun == nil {
		return time.Time{}
	}
	return *s.lastRun
}

// Entries returns a copy of all seen entries keyed by identifier.
func (s *Store) Entries() map[string]Entry {
	out := make(map[string]Entry, len(s.papers))
	for id, e := range s.papers {
		out[id] = e
	}
	return out
}

// MarkSent records papers as digested at now. Existing entries are left
// untouched.
func (s *Store) MarkSent(papers []types.Paper, now time.Time) {
	for _, p := range papers {
		if _, ok := s.papers[p.ID]; ok {
			continue
		}
		s.papers[p.ID] = Entry{SentDate: now.UTC(), Title: p.Title}
	}
}

// Touch updates the last-run timestamp without adding entries. Called on
// runs that found nothing new.
func (s *Store) Touch(now time.Time) {
	t := now.UTC()
	s.lastRun = &t
}

// Prune drops entries whose sent date is older than the cutoff and returns
// how many were removed. Never called by the pipeline itself; it backs the
// explicit state prune command.
func (s *Store) Prune(cutoff time.Time) int {
	removed := 0
	for id, e := range s.papers {
		if !e.SentDate.IsZero() && e.SentDate.Before(cutoff) {
			delete(s.papers, id)
			removed++
		}
	}
	return removed
}

// Reset wipes all entries and the last-run timestamp.
func (s *Store) Reset() {
	s.papers = map[string]Entry{}
	s.lastRun = nil
}

// Save rewrites the state file atomically: write a temp file in the same
// directory, then rename over the target.
func (s *Store) Save() error {
	doc := document{Papers: s.papers, LastRun: s.lastRun}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing state temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
