// Package store provides SQLite-backed storage for named pipelines.
//
// Every Save of a name appends a revision (1, 2, 3...) holding the pipeline
// JSON and its content fingerprint. Revisions are never updated in place.
// Saving a pipeline identical to the latest revision of its name is a no-op
// that returns the existing revision.
//
// # Deterministic Query Results
//
// Every query orders its rows explicitly: revisions by revision number,
// names with COLLATE BINARY. The saved_at column is informational and
// never used for ordering.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Fingerprints are computed by pipeline.Fingerprint (SHA-256 with domain
// separation over the canonical pipeline JSON).
package store
