// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history archives sent digests in a SQLite database. The archive
// is diagnostic only: the dedup contract lives in the JSON state file, and
// deleting the archive never causes a paper to be re-sent.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-radar/pkg/types"
)

// Store manages the digest archive database.
type Store struct {
	db *sql.DB
}

// Run is one archived digest delivery.
type Run struct {
	ID         int64
	SentAt     time.Time
	Subject    string
	PaperCount int
	Recipients int
}

// ArchivedPaper is one paper as it appeared in a sent digest.
type ArchivedPaper struct {
	RunID          int64
	PaperID        string
	Title          string
	Source         string
	URL            string
	Date           string
	RelevanceScore float64
}

// NewStore opens or creates the archive database at cfg.Path, creating
// parent directories and the schema as needed.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sent_at TEXT NOT NULL,
			subject TEXT NOT NULL,
			paper_count INTEGER NOT NULL,
			recipient_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			paper_id TEXT NOT NULL,
			title TEXT,
			source TEXT,
			url TEXT,
			date TEXT,
			relevance_score REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_run_id ON papers(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_paper_id ON papers(paper_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// AppendRun records one sent digest with its papers in a single
// transaction and returns the new run ID.
func (s *Store) AppendRun(sentAt time.Time, subject string, recipients int, papers []types.Paper) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (sent_at, subject, paper_count, recipient_count) VALUES (?, ?, ?, ?)`,
		sentAt.UTC().Format(time.RFC3339), subject, len(papers), recipients,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for _, p := range papers {
		date := ""
		if !p.Date.IsZero() {
			date = p.Date.Format("2006-01-02")
		}
		_, err := tx.Exec(
			`INSERT INTO papers (run_id, paper_id, title, source, url, date, relevance_score)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, p.ID, p.Title, p.Source, p.URL, date, p.RelevanceScore,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting paper %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Runs returns archived runs, newest first, up to limit (0 means all).
func (s *Store) Runs(limit int) ([]Run, error) {
	query := `SELECT id, sent_at, subject, paper_count, recipient_count FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r      Run
			sentAt string
		)
		if err := rows.Scan(&r.ID, &sentAt, &r.Subject, &r.PaperCount, &r.Recipients); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, sentAt); err == nil {
			r.SentAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Papers returns the papers recorded for one run, in digest order.
func (s *Store) Papers(runID int64) ([]ArchivedPaper, error) {
	rows, err := s.db.Query(
		`SELECT run_id, paper_id, title, source, url, date, relevance_score
		 FROM papers WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying papers for run %d: %w", runID, err)
	}
	defer rows.Close()

	var papers []ArchivedPaper
	for rows.Next() {
		var p ArchivedPaper
		if err := rows.Scan(&p.RunID, &p.PaperID, &p.Title, &p.Source, &p.URL, &p.Date, &p.RelevanceScore); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// SearchTitles returns archived papers whose titles contain the term,
// newest run first.
func (s *Store) SearchTitles(term string, limit int) ([]ArchivedPaper, error) {
	query := `SELECT run_id, paper_id, title, source, url, date, relevance_score
		 FROM papers WHERE title LIKE ? ORDER BY run_id DESC, rowid`
	args := []any{"%" + strings.TrimSpace(term) + "%"}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching titles: %w", err)
	}
	defer rows.Close()

	var papers []ArchivedPaper
	for rows.Next() {
		var p ArchivedPaper
		if err := rows.Scan(&p.RunID, &p.PaperID, &p.Title, &p.Source, &p.URL, &p.Date, &p.RelevanceScore); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}
