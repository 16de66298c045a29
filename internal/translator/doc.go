// Package translator provides the base machinery for backend translators
// and the process-wide translator registry.
//
// A translator converts pipeline steps into a backend's native query
// fragments (OutputStep values). Each translator owns a dispatch table with
// one entry per step kind. Every entry starts as an "unsupported" sentinel;
// a concrete translator declares support by replacing entries in its
// constructor:
//
//	func NewDummy() *Dummy {
//	    d := &Dummy{Base: translator.NewBase()}
//	    d.Handle(pipeline.KindDomain, d.domain)
//	    d.Handle(pipeline.KindFilter, d.filter)
//	    return d
//	}
//
// Capability queries (Supports, SupportedSteps, UnsupportedSteps) read the
// table directly, so declaring a handler is the only bookkeeping needed.
//
// REGISTRY LIFECYCLE:
//
// The Default registry starts empty. Backend packages register a Factory
// from init(); after program start it is read-mostly. Registration of an
// existing name replaces the previous entry. Entries are never removed.
// All registry methods are safe for concurrent use.
package translator
