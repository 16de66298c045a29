package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roach88/vqb/internal/pipeline"
	"github.com/roach88/vqb/internal/translator"
)

func TestQuery(t *testing.T) {
	tests := []struct {
		name       string
		p          pipeline.Pipeline
		wantSQL    string
		wantParams []any
	}{
		{
			name:    "domain only",
			p:       pipeline.Pipeline{&pipeline.Domain{Domain: "sales"}},
			wantSQL: `SELECT * FROM "sales"`,
		},
		{
			name: "filter then select",
			p: pipeline.Pipeline{
				&pipeline.Domain{Domain: "sales"},
				&pipeline.Filter{Column: "Region", Value: "Europe"},
				&pipeline.Select{Columns: []string{"Region", "Value"}},
			},
			wantSQL:    `SELECT "Region", "Value" FROM (SELECT * FROM (SELECT * FROM "sales") AS s1 WHERE "Region" = ?) AS s2`,
			wantParams: []any{"Europe"},
		},
		{
			name: "comparison operators",
			p: pipeline.Pipeline{
				&pipeline.Domain{Domain: "sales"},
				&pipeline.Filter{Column: "Year", Value: int32(2018), Operator: pipeline.OpGe},
				&pipeline.Filter{Column: "Value", Value: 10.5, Operator: pipeline.OpLt},
			},
			wantSQL:    `SELECT * FROM (SELECT * FROM (SELECT * FROM "sales") AS s1 WHERE "Year" >= ?) AS s2 WHERE "Value" < ?`,
			wantParams: []any{int32(2018), 10.5},
		},
		{
			name: "membership",
			p: pipeline.Pipeline{
				&pipeline.Domain{Domain: "sales"},
				&pipeline.Filter{Column: "Region", Value: bson.A{"Europe", "Asia"}, Operator: pipeline.OpIn},
			},
			wantSQL:    `SELECT * FROM (SELECT * FROM "sales") AS s1 WHERE "Region" IN (?,?)`,
			wantParams: []any{"Europe", "Asia"},
		},
		{
			name: "exclusion",
			p: pipeline.Pipeline{
				&pipeline.Domain{Domain: "sales"},
				&pipeline.Filter{Column: "Region", Value: "Asia", Operator: pipeline.OpNin},
			},
			wantSQL:    `SELECT * FROM (SELECT * FROM "sales") AS s1 WHERE "Region" NOT IN (?)`,
			wantParams: []any{"Asia"},
		},
		{
			name: "aggregate",
			p: pipeline.Pipeline{
				&pipeline.Domain{Domain: "sales"},
				&pipeline.Aggregate{
					On: []string{"Region"},
					Aggregations: []pipeline.Aggregation{
						{Name: "total", Column: "Value", AggFunction: pipeline.AggSum},
						{Name: "rows", AggFunction: pipeline.AggCount},
					},
				},
			},
			wantSQL: `SELECT "Region", SUM("Value") AS "total", COUNT(*) AS "rows" FROM (SELECT * FROM "sales") AS s1 GROUP BY "Region" ORDER BY "Region"`,
		},
		{
			name: "aggregate without group keys",
			p: pipeline.Pipeline{
				&pipeline.Domain{Domain: "sales"},
				&pipeline.Aggregate{Aggregations: []pipeline.Aggregation{
					{Name: "avg", Column: "Value", AggFunction: pipeline.AggAvg},
				}},
			},
			wantSQL: `SELECT AVG("Value") AS "avg" FROM (SELECT * FROM "sales") AS s1`,
		},
		{
			name:    "quoted identifiers",
			p:       pipeline.Pipeline{&pipeline.Domain{Domain: `we"ird`}},
			wantSQL: `SELECT * FROM "we""ird"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLite().Query(tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantParams == nil {
				assert.Empty(t, params)
			} else {
				assert.Equal(t, tt.wantParams, params)
			}
		})
	}
}

func TestQuery_NoStringInterpolation(t *testing.T) {
	dangerous := "'; DROP TABLE sales; --"

	sql, params, err := NewSQLite().Query(pipeline.Pipeline{
		&pipeline.Domain{Domain: "sales"},
		&pipeline.Filter{Column: "Region", Value: dangerous},
	})

	require.NoError(t, err)
	assert.NotContains(t, sql, dangerous)
	assert.Equal(t, []any{dangerous}, params)
}

func TestQuery_NullEquality(t *testing.T) {
	sql, params, err := NewSQLite().Query(pipeline.Pipeline{
		&pipeline.Domain{Domain: "sales"},
		&pipeline.Filter{Column: "Manager", Value: nil},
	})

	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM (SELECT * FROM "sales") AS s1 WHERE "Manager" IS NULL`, sql)
	assert.Empty(t, params)
}

func TestQuery_Errors(t *testing.T) {
	tests := []struct {
		name  string
		p     pipeline.Pipeline
		check func(t *testing.T, err error)
	}{
		{
			name: "no domain",
			p:    pipeline.Pipeline{&pipeline.Filter{Column: "a", Value: "x"}},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoDomain)
			},
		},
		{
			name: "empty pipeline",
			p:    pipeline.Pipeline{},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoDomain)
			},
		},
		{
			name: "second domain",
			p: pipeline.Pipeline{
				&pipeline.Domain{Domain: "a"},
				&pipeline.Domain{Domain: "b"},
			},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), `domain "b" must be the first step`)
			},
		},
		{
			name: "unsupported step",
			p: pipeline.Pipeline{
				&pipeline.Domain{Domain: "sales"},
				&pipeline.Rename{OldName: "a", NewName: "b"},
			},
			check: func(t *testing.T, err error) {
				assert.True(t, translator.IsStepNotSupported(err))
				assert.Equal(t, pipeline.KindRename, translator.UnsupportedKind(err))
			},
		},
		{
			name: "unknown operator",
			p: pipeline.Pipeline{
				&pipeline.Domain{Domain: "sales"},
				&pipeline.Filter{Column: "a", Value: "x", Operator: "like"},
			},
			check: func(t *testing.T, err error) {
				assert.True(t, translator.IsUnsupportedOperator(err))
			},
		},
		{
			name: "document value",
			p: pipeline.Pipeline{
				&pipeline.Domain{Domain: "sales"},
				&pipeline.Filter{Column: "a", Value: bson.D{{Key: "$gt", Value: int32(1)}}},
			},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "value of type bson.D cannot be a SQL parameter")
			},
		},
		{
			name: "unknown aggfunction",
			p: pipeline.Pipeline{
				&pipeline.Domain{Domain: "sales"},
				&pipeline.Aggregate{Aggregations: []pipeline.Aggregation{{Name: "m", Column: "v", AggFunction: "median"}}},
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, pipeline.ErrMalformedStep)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewSQLite().Query(tt.p)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestCompile_RejectsForeignOutput(t *testing.T) {
	_, _, err := Compile([]translator.OutputStep{From{Table: "t"}, "not a fragment"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fragment 1: expected Fragment, got string")
}

func TestSQLite_Capabilities(t *testing.T) {
	tr := NewSQLite()

	assert.Equal(t, []pipeline.Kind{
		pipeline.KindAggregate, pipeline.KindDomain, pipeline.KindFilter, pipeline.KindSelect,
	}, tr.SupportedSteps())
	assert.Equal(t, []pipeline.Kind{
		pipeline.KindCustom, pipeline.KindDelete, pipeline.KindNewColumn, pipeline.KindRename,
	}, tr.UnsupportedSteps())
}

func TestSQLite_Registered(t *testing.T) {
	tr, err := translator.Default.New(Backend)
	require.NoError(t, err)
	assert.True(t, tr.Supports(pipeline.KindAggregate))
	assert.Contains(t, translator.BackendsSupporting(pipeline.KindFilter), Backend)
	assert.NotContains(t, translator.BackendsSupporting(pipeline.KindRename), Backend)
}
