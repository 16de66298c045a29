package mongo

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roach88/vqb/internal/pipeline"
)

// mergeable reports whether adjacent stages with operator op collapse.
func mergeable(op string) bool {
	return op == OpMatch || op == OpProject
}

// Simplify merges each $match or $project stage into the stage right before
// it when both share the operator. Later keys overwrite earlier ones.
//
// Only adjacent stages merge and stages are never reordered. The result is
// a fresh slice of fresh documents; an empty input yields an empty result.
func Simplify(stages []bson.D) []bson.D {
	out := make([]bson.D, 0, len(stages))
	for _, stage := range stages {
		op := Operator(stage)
		if n := len(out); n > 0 && mergeable(op) && Operator(out[n-1]) == op {
			last, lok := asDocument(out[n-1][0].Value)
			next, nok := asDocument(stage[0].Value)
			if lok && nok {
				out[n-1][0].Value = mergeInto(last, next)
				continue
			}
		}
		out = append(out, copyStage(stage))
	}
	return out
}

// copyStage deep-copies a stage. Bodies given as unordered maps are turned
// into ordered documents so later merges can append to them.
func copyStage(stage bson.D) bson.D {
	c := pipeline.CloneDocument(stage)
	if Operator(c) != "" {
		if body, ok := asDocument(c[0].Value); ok {
			c[0].Value = body
		}
	}
	return c
}
