// Package harness runs translation conformance scenarios.
//
// A scenario names a pipeline file, the backends to translate it with and
// assertions over the translations. Translations are captured in a
// snapshot that can be compared against a golden file.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: europe_filter
//	description: "Equality filter and projection on every backend"
//	pipeline: ../pipelines/sales.json
//	backends: [mongo36, sqlite]
//	assertions:
//	  - type: translates
//	    backend: mongo36
//	  - type: output_contains
//	    backend: sqlite
//	    contains: WHERE "Region" = ?
//	  - type: round_trip
//
// The pipeline path is relative to the scenario file. Without backends,
// every registered backend is used.
//
// # Assertion Types
//
//   - translates: the backend translates the pipeline
//   - fails: the backend fails with the given error code
//   - output_contains: the rendered output contains text
//   - supports: the backend handles every listed step kind
//   - valid: the pipeline has no validation warnings
//   - round_trip: pipeToMongo output survives mongoToPipe unchanged
//
// # Deterministic Testing
//
// Translators are pure and the registry is sorted by name, so snapshots
// are stable across runs.
package harness
