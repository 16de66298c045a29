package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/vqb/internal/pipeline"
)

// marshalPipeline converts a pipeline to JSON TEXT for storage.
// Document key order inside expressions is preserved.
func marshalPipeline(p pipeline.Pipeline) (string, error) {
	if p == nil {
		p = pipeline.Pipeline{}
	}
	data, err := p.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal pipeline: %w", err)
	}
	return string(data), nil
}

// unmarshalPipeline parses JSON TEXT back into a pipeline.
func unmarshalPipeline(data string) (pipeline.Pipeline, error) {
	var p pipeline.Pipeline
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal pipeline: %w", err)
	}
	if p == nil {
		p = pipeline.Pipeline{}
	}
	return p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse saved_at: %w", err)
	}
	return t, nil
}
