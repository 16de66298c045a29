package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrMalformedStep is returned when a step document cannot be decoded.
var ErrMalformedStep = errors.New("malformed step")

// Wire field names.
const (
	fieldName         = "name"
	fieldLegacyName   = "step"
	fieldDomain       = "domain"
	fieldColumn       = "column"
	fieldColumns      = "columns"
	fieldValue        = "value"
	fieldOperator     = "operator"
	fieldOldName      = "oldname"
	fieldNewName      = "newname"
	fieldQuery        = "query"
	fieldOn           = "on"
	fieldAggregations = "aggregations"
	fieldAggFunction  = "aggfunction"
)

// MarshalJSON encodes the pipeline as a JSON array of step objects.
func (p Pipeline) MarshalJSON() ([]byte, error) {
	docs := make([]bson.D, len(p))
	for i, s := range p {
		doc, err := EncodeStep(s)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		docs[i] = doc
	}
	return EncodeDocuments(docs)
}

// UnmarshalJSON decodes a JSON array of step objects.
func (p *Pipeline) UnmarshalJSON(data []byte) error {
	docs, err := DecodeDocuments(data)
	if err != nil {
		return err
	}
	out := make(Pipeline, len(docs))
	for i, doc := range docs {
		s, err := DecodeStep(doc)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		out[i] = s
	}
	*p = out
	return nil
}

// EncodeStep converts a step to its ordered document form.
func EncodeStep(s Step) (bson.D, error) {
	switch st := s.(type) {
	case *Domain:
		return bson.D{{Key: fieldName, Value: string(KindDomain)}, {Key: fieldDomain, Value: st.Domain}}, nil
	case *Filter:
		doc := bson.D{
			{Key: fieldName, Value: string(KindFilter)},
			{Key: fieldColumn, Value: st.Column},
			{Key: fieldValue, Value: st.Value},
		}
		if st.Operator != "" {
			doc = append(doc, bson.E{Key: fieldOperator, Value: st.Operator})
		}
		return doc, nil
	case *Select:
		return bson.D{{Key: fieldName, Value: string(KindSelect)}, {Key: fieldColumns, Value: stringsToArray(st.Columns)}}, nil
	case *Rename:
		return bson.D{
			{Key: fieldName, Value: string(KindRename)},
			{Key: fieldOldName, Value: st.OldName},
			{Key: fieldNewName, Value: st.NewName},
		}, nil
	case *Delete:
		return bson.D{{Key: fieldName, Value: string(KindDelete)}, {Key: fieldColumns, Value: stringsToArray(st.Columns)}}, nil
	case *NewColumn:
		return bson.D{
			{Key: fieldName, Value: string(KindNewColumn)},
			{Key: fieldColumn, Value: st.Column},
			{Key: fieldQuery, Value: st.Query},
		}, nil
	case *Aggregate:
		aggs := make(bson.A, len(st.Aggregations))
		for i, a := range st.Aggregations {
			aggs[i] = bson.D{
				{Key: fieldName, Value: a.Name},
				{Key: fieldColumn, Value: a.Column},
				{Key: fieldAggFunction, Value: a.AggFunction},
			}
		}
		return bson.D{
			{Key: fieldName, Value: string(KindAggregate)},
			{Key: fieldOn, Value: stringsToArray(st.On)},
			{Key: fieldAggregations, Value: aggs},
		}, nil
	case *Custom:
		return bson.D{{Key: fieldName, Value: string(KindCustom)}, {Key: fieldQuery, Value: st.Query}}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported step type %T", ErrMalformedStep, s)
	}
}

// DecodeStep converts an ordered document to a step.
//
// The step tag is read from "name", falling back to "step". Missing fields
// decode to zero values; Validate reports them. Fields of the wrong shape
// are errors.
func DecodeStep(doc bson.D) (Step, error) {
	name, ok := lookup(doc, fieldName)
	if !ok {
		name, ok = lookup(doc, fieldLegacyName)
	}
	if !ok {
		return nil, fmt.Errorf("%w: missing %q tag", ErrMalformedStep, fieldName)
	}
	tag, isString := name.(string)
	if !isString {
		return nil, fmt.Errorf("%w: step tag must be a string, got %T", ErrMalformedStep, name)
	}
	kind, err := ParseKind(tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedStep, err)
	}

	d := decoder{doc: doc, kind: kind}
	var s Step
	switch kind {
	case KindDomain:
		s = &Domain{Domain: d.str(fieldDomain)}
	case KindFilter:
		v, _ := lookup(doc, fieldValue)
		s = &Filter{Column: d.str(fieldColumn), Value: v, Operator: d.str(fieldOperator)}
	case KindSelect:
		s = &Select{Columns: d.strs(fieldColumns)}
	case KindRename:
		s = &Rename{OldName: d.str(fieldOldName), NewName: d.str(fieldNewName)}
	case KindDelete:
		s = &Delete{Columns: d.strs(fieldColumns)}
	case KindNewColumn:
		q, _ := lookup(doc, fieldQuery)
		s = &NewColumn{Column: d.str(fieldColumn), Query: q}
	case KindAggregate:
		s = &Aggregate{On: d.strs(fieldOn), Aggregations: d.aggregations()}
	case KindCustom:
		s = &Custom{Query: d.document(fieldQuery)}
	}
	if d.err != nil {
		return nil, d.err
	}
	return s, nil
}

// decoder records the first shape error while reading fields of one step.
type decoder struct {
	doc  bson.D
	kind Kind
	err  error
}

func (d *decoder) fail(field, want string, got any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s.%s must be %s, got %T", ErrMalformedStep, d.kind, field, want, got)
	}
}

func (d *decoder) str(field string) string {
	v, ok := lookup(d.doc, field)
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(field, "a string", v)
	}
	return s
}

func (d *decoder) strs(field string) []string {
	v, ok := lookup(d.doc, field)
	if !ok || v == nil {
		return nil
	}
	arr, ok := v.(bson.A)
	if !ok {
		d.fail(field, "an array of strings", v)
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, elem := range arr {
		s, ok := elem.(string)
		if !ok {
			d.fail(field, "an array of strings", elem)
			return nil
		}
		out = append(out, s)
	}
	return out
}

func (d *decoder) document(field string) bson.D {
	v, ok := lookup(d.doc, field)
	if !ok || v == nil {
		return nil
	}
	doc, ok := v.(bson.D)
	if !ok {
		d.fail(field, "a document", v)
	}
	return doc
}

func (d *decoder) aggregations() []Aggregation {
	v, ok := lookup(d.doc, fieldAggregations)
	if !ok || v == nil {
		return nil
	}
	arr, ok := v.(bson.A)
	if !ok {
		d.fail(fieldAggregations, "an array", v)
		return nil
	}
	out := make([]Aggregation, 0, len(arr))
	for _, elem := range arr {
		doc, ok := elem.(bson.D)
		if !ok {
			d.fail(fieldAggregations, "an array of documents", elem)
			return nil
		}
		sub := decoder{doc: doc, kind: d.kind}
		out = append(out, Aggregation{
			Name:        sub.str(fieldName),
			Column:      sub.str(fieldColumn),
			AggFunction: sub.str(fieldAggFunction),
		})
		if sub.err != nil && d.err == nil {
			d.err = sub.err
		}
	}
	return out
}

// lookup returns the value of key in doc.
func lookup(doc bson.D, key string) (any, bool) {
	for _, e := range doc {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func stringsToArray(s []string) bson.A {
	arr := make(bson.A, len(s))
	for i, v := range s {
		arr[i] = v
	}
	return arr
}

// EncodeDocuments writes documents as a JSON array in relaxed Extended JSON.
// Key order inside each document is preserved.
func EncodeDocuments(docs []bson.D) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, doc := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		if doc == nil {
			doc = bson.D{}
		}
		b, err := bson.MarshalExtJSON(doc, false, false)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// DecodeDocuments reads a JSON array of objects into ordered documents.
func DecodeDocuments(data []byte) ([]bson.D, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode document list: %w", err)
	}
	docs := make([]bson.D, len(raw))
	for i, r := range raw {
		var doc bson.D
		if err := bson.UnmarshalExtJSON(r, false, &doc); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs[i] = doc
	}
	return docs, nil
}
