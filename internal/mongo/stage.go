package mongo

import (
	"fmt"
	"maps"
	"slices"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roach88/vqb/internal/pipeline"
)

// Stage operators with dedicated handling.
const (
	OpMatch   = "$match"
	OpProject = "$project"
	OpGroup   = "$group"
)

// Operator returns the operator key of a stage, or "" when the stage does
// not hold exactly one key.
func Operator(stage bson.D) string {
	if len(stage) != 1 {
		return ""
	}
	return stage[0].Key
}

// NewStage builds a single-operator stage.
func NewStage(op string, body bson.D) bson.D {
	return bson.D{{Key: op, Value: body}}
}

// asDocument returns v as an ordered document. Unordered maps are accepted
// and sorted by key so the result is deterministic.
func asDocument(v any) (bson.D, bool) {
	switch d := v.(type) {
	case bson.D:
		return d, true
	case bson.M:
		return sortedDocument(d), true
	case map[string]any:
		return sortedDocument(d), true
	default:
		return nil, false
	}
}

func sortedDocument(m map[string]any) bson.D {
	out := make(bson.D, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, bson.E{Key: k, Value: m[k]})
	}
	return out
}

// stageBody returns the document held by a single-operator stage.
func stageBody(i int, stage bson.D) (bson.D, error) {
	body, ok := asDocument(stage[0].Value)
	if !ok {
		return nil, fmt.Errorf("%w: stage %d: %s body must be a document, got %T",
			pipeline.ErrMalformedStep, i, stage[0].Key, stage[0].Value)
	}
	return body, nil
}

// mergeInto shallow-merges src into dst. A key already present in dst
// keeps its position and takes the value from src; new keys are appended.
func mergeInto(dst, src bson.D) bson.D {
	for _, e := range src {
		v := pipeline.CloneValue(e.Value)
		if i := slices.IndexFunc(dst, func(d bson.E) bool { return d.Key == e.Key }); i >= 0 {
			dst[i].Value = v
			continue
		}
		dst = append(dst, bson.E{Key: e.Key, Value: v})
	}
	return dst
}
