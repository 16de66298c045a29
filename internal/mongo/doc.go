// Package mongo converts between pipelines and MongoDB aggregation stages.
//
// A stage is a bson.D holding exactly one operator key ("$match",
// "$project", "$group", ...). Two conversions are provided:
//
//   - MongoToPipe classifies each stage into pipeline steps. $match becomes a
//     domain step plus one filter per column (columns sorted by name),
//     $project becomes select/rename/delete/newcolumn steps, and any other
//     operator is kept verbatim as a custom step.
//   - PipeToMongo emits one stage per step and then runs Simplify, which
//     merges adjacent $match stages and adjacent $project stages.
//
// PipeToMongo is the strict structural converter: it rejects filter
// operators other than equality and the aggregate step. The mongo36
// translator registered by this package is the full backend and handles
// every step kind.
//
// All functions are pure. Inputs are never mutated and results never alias
// the input documents.
package mongo
