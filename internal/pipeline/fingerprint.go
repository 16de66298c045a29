package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/text/unicode/norm"
)

// DomainPipeline is the domain-separation prefix for pipeline fingerprints.
// The version suffix allows a future change of canonical form.
const DomainPipeline = "vqb/pipeline/v1"

// MarshalCanonical produces the canonical JSON form of a pipeline.
//
// Canonical form differs from MarshalJSON in two ways:
//  1. Every string (keys included) is NFC normalized
//  2. No HTML escaping
//
// Key order is preserved: it is meaningful for $project documents.
func MarshalCanonical(p Pipeline) ([]byte, error) {
	docs := make([]bson.D, len(p))
	for i, s := range p {
		doc, err := EncodeStep(s)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		docs[i] = normalizeDocument(doc)
	}
	return EncodeDocuments(docs)
}

// Fingerprint computes a content-addressed identity for a pipeline.
// Format: hex(SHA256(domain + 0x00 + canonical JSON)).
func Fingerprint(p Pipeline) (string, error) {
	canonical, err := MarshalCanonical(p)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainPipeline))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func normalizeDocument(d bson.D) bson.D {
	out := make(bson.D, len(d))
	for i, e := range d {
		out[i] = bson.E{Key: norm.NFC.String(e.Key), Value: normalizeValue(e.Value)}
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return norm.NFC.String(val)
	case bson.D:
		return normalizeDocument(val)
	case bson.A:
		out := make(bson.A, len(val))
		for i, elem := range val {
			out[i] = normalizeValue(elem)
		}
		return out
	default:
		return v
	}
}
