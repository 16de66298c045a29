package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestFingerprint_Deterministic(t *testing.T) {
	p := Pipeline{
		&Domain{Domain: "test_cube"},
		&Filter{Column: "Region", Value: "Europe"},
	}

	a, err := Fingerprint(p)
	require.NoError(t, err)
	b, err := Fingerprint(p.Clone())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64, "hex-encoded SHA-256")
}

func TestFingerprint_NFCNormalization(t *testing.T) {
	// "é" precomposed (U+00E9) vs decomposed (e + U+0301)
	composed := Pipeline{&Domain{Domain: "caf\u00e9"}}
	decomposed := Pipeline{&Domain{Domain: "cafe\u0301"}}

	a, err := Fingerprint(composed)
	require.NoError(t, err)
	b, err := Fingerprint(decomposed)
	require.NoError(t, err)

	assert.Equal(t, a, b, "canonically equivalent strings must share a fingerprint")
}

func TestFingerprint_StepOrderMatters(t *testing.T) {
	a, err := Fingerprint(Pipeline{&Domain{Domain: "d"}, &Select{Columns: []string{"a"}}, &Delete{Columns: []string{"b"}}})
	require.NoError(t, err)
	b, err := Fingerprint(Pipeline{&Domain{Domain: "d"}, &Delete{Columns: []string{"b"}}, &Select{Columns: []string{"a"}}})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	p := Pipeline{&NewColumn{Column: "flag", Query: bson.D{{Key: "$cond", Value: bson.A{"a<b", "x&y", "z"}}}}}

	data, err := MarshalCanonical(p)
	require.NoError(t, err)

	assert.Contains(t, string(data), "a<b")
	assert.Contains(t, string(data), "x&y")
}
