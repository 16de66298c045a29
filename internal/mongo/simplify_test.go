package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestSimplify(t *testing.T) {
	group := bson.D{{Key: OpGroup, Value: bson.D{{Key: "_id", Value: "$x"}}}}

	tests := []struct {
		name   string
		stages []bson.D
		want   []bson.D
	}{
		{
			name:   "empty",
			stages: nil,
			want:   []bson.D{},
		},
		{
			name:   "single stage",
			stages: []bson.D{match(bson.E{Key: "a", Value: int32(1)})},
			want:   []bson.D{match(bson.E{Key: "a", Value: int32(1)})},
		},
		{
			name: "adjacent matches merge",
			stages: []bson.D{
				match(bson.E{Key: "a", Value: int32(1)}),
				match(bson.E{Key: "b", Value: int32(2)}),
				match(bson.E{Key: "c", Value: int32(3)}),
			},
			want: []bson.D{match(
				bson.E{Key: "a", Value: int32(1)},
				bson.E{Key: "b", Value: int32(2)},
				bson.E{Key: "c", Value: int32(3)},
			)},
		},
		{
			name: "later keys overwrite in place",
			stages: []bson.D{
				project(bson.E{Key: "a", Value: int32(1)}, bson.E{Key: "b", Value: int32(1)}),
				project(bson.E{Key: "a", Value: int32(0)}, bson.E{Key: "c", Value: int32(1)}),
			},
			want: []bson.D{project(
				bson.E{Key: "a", Value: int32(0)},
				bson.E{Key: "b", Value: int32(1)},
				bson.E{Key: "c", Value: int32(1)},
			)},
		},
		{
			name: "non-adjacent stages stay separate",
			stages: []bson.D{
				match(bson.E{Key: "a", Value: int32(1)}),
				project(bson.E{Key: "a", Value: int32(1)}),
				match(bson.E{Key: "b", Value: int32(2)}),
			},
			want: []bson.D{
				match(bson.E{Key: "a", Value: int32(1)}),
				project(bson.E{Key: "a", Value: int32(1)}),
				match(bson.E{Key: "b", Value: int32(2)}),
			},
		},
		{
			name: "other operators never merge",
			stages: []bson.D{
				group,
				group,
				match(bson.E{Key: "a", Value: int32(1)}),
			},
			want: []bson.D{group, group, match(bson.E{Key: "a", Value: int32(1)})},
		},
		{
			name: "unordered body becomes ordered",
			stages: []bson.D{
				{{Key: OpMatch, Value: bson.M{"b": int32(2), "a": int32(1)}}},
				match(bson.E{Key: "c", Value: int32(3)}),
			},
			want: []bson.D{match(
				bson.E{Key: "a", Value: int32(1)},
				bson.E{Key: "b", Value: int32(2)},
				bson.E{Key: "c", Value: int32(3)},
			)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Simplify(tt.stages))
		})
	}
}

func TestSimplify_NeverReorders(t *testing.T) {
	stages := []bson.D{
		match(bson.E{Key: "domain", Value: "d"}),
		{{Key: "$unwind", Value: "$tags"}},
		project(bson.E{Key: "a", Value: int32(1)}),
		{{Key: "$limit", Value: int32(10)}},
		match(bson.E{Key: "a", Value: "x"}),
	}

	got := Simplify(stages)

	ops := make([]string, len(got))
	for i, st := range got {
		ops[i] = Operator(st)
	}
	assert.Equal(t, []string{OpMatch, "$unwind", OpProject, "$limit", OpMatch}, ops)
}

func TestSimplify_DoesNotMutateInput(t *testing.T) {
	first := match(bson.E{Key: "a", Value: int32(1)})
	second := match(bson.E{Key: "b", Value: int32(2)})
	stages := []bson.D{first, second}

	got := Simplify(stages)

	assert.Equal(t, match(bson.E{Key: "a", Value: int32(1)}), first)
	assert.Len(t, stages, 2)

	got[0][0].Value.(bson.D)[0].Value = "changed"
	assert.Equal(t, int32(1), first[0].Value.(bson.D)[0].Value)
}

func TestOperator(t *testing.T) {
	assert.Equal(t, OpMatch, Operator(match()))
	assert.Equal(t, "", Operator(bson.D{}))
	assert.Equal(t, "", Operator(bson.D{{Key: "a"}, {Key: "b"}}))
}
