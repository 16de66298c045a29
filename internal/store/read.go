package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/vqb/internal/pipeline"
)

// Revision is one saved version of a named pipeline.
type Revision struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Number      int64             `json:"revision"`
	Fingerprint string            `json:"fingerprint"`
	Pipeline    pipeline.Pipeline `json:"pipeline"`
	SavedAt     time.Time         `json:"saved_at"`
}

// Summary describes a saved name by its latest revision.
type Summary struct {
	Name        string    `json:"name"`
	Latest      int64     `json:"latest"`
	Fingerprint string    `json:"fingerprint"`
	Steps       int       `json:"steps"`
	SavedAt     time.Time `json:"saved_at"`
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRevision reads the columns id, name, revision, fingerprint, body,
// saved_at. sql.ErrNoRows is returned unwrapped.
func scanRevision(row rowScanner) (Revision, error) {
	var (
		rev     Revision
		body    string
		savedAt string
	)
	if err := row.Scan(&rev.ID, &rev.Name, &rev.Number, &rev.Fingerprint, &body, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Revision{}, err
		}
		return Revision{}, fmt.Errorf("scan revision: %w", err)
	}

	p, err := unmarshalPipeline(body)
	if err != nil {
		return Revision{}, fmt.Errorf("revision %s: %w", rev.ID, err)
	}
	rev.Pipeline = p

	if rev.SavedAt, err = parseTime(savedAt); err != nil {
		return Revision{}, fmt.Errorf("revision %s: %w", rev.ID, err)
	}
	return rev, nil
}

// Latest returns the newest revision of name.
// Returns ErrNotFound if name was never saved.
func (s *Store) Latest(ctx context.Context, name string) (Revision, error) {
	rev, err := scanRevision(s.db.QueryRowContext(ctx, `
		SELECT id, name, revision, fingerprint, body, saved_at
		FROM revisions
		WHERE name = ?
		ORDER BY revision DESC
		LIMIT 1
	`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return rev, err
}

// Get returns revision number of name.
// Returns ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, name string, number int64) (Revision, error) {
	rev, err := scanRevision(s.db.QueryRowContext(ctx, `
		SELECT id, name, revision, fingerprint, body, saved_at
		FROM revisions
		WHERE name = ? AND revision = ?
	`, name, number))
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, fmt.Errorf("%q revision %d: %w", name, number, ErrNotFound)
	}
	return rev, err
}

// History returns every revision of name, oldest first.
// Returns an empty slice (not nil) if name was never saved.
func (s *Store) History(ctx context.Context, name string) ([]Revision, error) {
	return s.queryRevisions(ctx, `
		SELECT id, name, revision, fingerprint, body, saved_at
		FROM revisions
		WHERE name = ?
		ORDER BY revision ASC
	`, name)
}

// FindByFingerprint returns the revisions whose content matches
// fingerprint, ordered by name then revision.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) ([]Revision, error) {
	return s.queryRevisions(ctx, `
		SELECT id, name, revision, fingerprint, body, saved_at
		FROM revisions
		WHERE fingerprint = ?
		ORDER BY name COLLATE BINARY ASC, revision ASC
	`, fingerprint)
}

func (s *Store) queryRevisions(ctx context.Context, query string, args ...any) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	revisions := []Revision{}
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return revisions, nil
}

// List summarizes every saved name by its latest revision, sorted by name.
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.name, r.revision, r.fingerprint, r.body, r.saved_at
		FROM revisions r
		JOIN (
			SELECT name, MAX(revision) AS revision
			FROM revisions
			GROUP BY name
		) latest ON latest.name = r.name AND latest.revision = r.revision
		ORDER BY r.name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var (
			sum     Summary
			body    string
			savedAt string
		)
		if err := rows.Scan(&sum.Name, &sum.Latest, &sum.Fingerprint, &body, &savedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		p, err := unmarshalPipeline(body)
		if err != nil {
			return nil, fmt.Errorf("summary %q: %w", sum.Name, err)
		}
		sum.Steps = len(p)
		if sum.SavedAt, err = parseTime(savedAt); err != nil {
			return nil, fmt.Errorf("summary %q: %w", sum.Name, err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}
