package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/vqb/internal/pipeline"
)

// Save appends p as the next revision of name.
// Returns the revision and whether a new row was inserted.
//
// If the latest revision of name has the same fingerprint, nothing is
// written and that revision is returned with inserted=false. An older
// identical revision does not count: saving A, B, A yields three revisions.
func (s *Store) Save(ctx context.Context, name string, p pipeline.Pipeline) (rev Revision, inserted bool, err error) {
	if name == "" {
		return Revision{}, false, ErrEmptyName
	}

	fingerprint, err := pipeline.Fingerprint(p)
	if err != nil {
		return Revision{}, false, fmt.Errorf("save %q: %w", name, err)
	}
	body, err := marshalPipeline(p)
	if err != nil {
		return Revision{}, false, fmt.Errorf("save %q: %w", name, err)
	}

	// Read-then-insert must be atomic
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Revision{}, false, fmt.Errorf("save %q: begin tx: %w", name, err)
	}
	defer tx.Rollback() // No-op if committed

	latest, err := scanRevision(tx.QueryRowContext(ctx, `
		SELECT id, name, revision, fingerprint, body, saved_at
		FROM revisions
		WHERE name = ?
		ORDER BY revision DESC
		LIMIT 1
	`, name))
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Revision{}, false, fmt.Errorf("save %q: read latest: %w", name, err)
	case latest.Fingerprint == fingerprint:
		slog.Debug("pipeline unchanged",
			"name", name,
			"revision", latest.Number,
			"fingerprint", fingerprint)
		return latest, false, nil
	}

	rev = Revision{
		ID:          s.ids.Generate(),
		Name:        name,
		Number:      latest.Number + 1,
		Fingerprint: fingerprint,
		Pipeline:    p.Clone(),
		SavedAt:     s.now().UTC(),
	}
	if rev.Pipeline == nil {
		rev.Pipeline = pipeline.Pipeline{}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO revisions
		(id, name, revision, fingerprint, body, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		rev.ID,
		rev.Name,
		rev.Number,
		rev.Fingerprint,
		body,
		formatTime(rev.SavedAt),
	)
	if err != nil {
		return Revision{}, false, fmt.Errorf("save %q: insert: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return Revision{}, false, fmt.Errorf("save %q: commit: %w", name, err)
	}

	slog.Info("pipeline saved",
		"name", name,
		"revision", rev.Number,
		"fingerprint", fingerprint)
	return rev, true, nil
}

// Delete removes every revision of name and returns how many were removed.
// Returns ErrNotFound if name has no revisions.
func (s *Store) Delete(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM revisions WHERE name = ?`, name)
	if err != nil {
		return 0, fmt.Errorf("delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %q: %w", name, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("delete %q: %w", name, ErrNotFound)
	}

	slog.Info("pipeline deleted", "name", name, "revisions", n)
	return n, nil
}
