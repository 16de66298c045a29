// Package pipeline provides the backend-neutral pipeline intermediate
// representation (IR) of the visual query builder.
//
// A Pipeline is an ordered sequence of steps. Each step applies to the
// output of the previous one, so order is significant:
//
//	[domain] → [filter] → [select] → ... → backend translator
//
// By convention the first step selects the base dataset with a Domain step.
// The IR does not enforce this; Validate reports it as a warning.
//
// SEALED INTERFACE:
//
// Step is a sealed interface using the marker method pattern. Only types in
// this package implement it, so a type switch over the eight variants is
// exhaustive:
//
//	switch s := step.(type) {
//	case *Domain:
//	case *Filter:
//	case *Select:
//	case *Rename:
//	case *Delete:
//	case *NewColumn:
//	case *Aggregate:
//	case *Custom:
//	}
//
// Adding a step kind means updating Kinds, every translator dispatch table
// and the Mongo converter.
//
// EXPRESSIONS:
//
// Free-form expressions (Filter.Value, NewColumn.Query, Custom.Query) use the
// bson types from the MongoDB driver: bson.D for documents, bson.A for
// arrays, Go scalars otherwise. bson.D is ordered, which keeps key order
// stable from the input file through every transform.
//
// WIRE FORMAT:
//
// Steps encode as JSON objects tagged by "name":
//
//	[
//	  {"name": "domain", "domain": "test_cube"},
//	  {"name": "filter", "column": "Region", "value": "Europe"},
//	  {"name": "rename", "oldname": "Region", "newname": "zone"}
//	]
//
// Encoding goes through relaxed Extended JSON so documents keep their order.
package pipeline
