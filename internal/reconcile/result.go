package reconcile

// ResolutionFailure records one reference that could not be resolved.
type ResolutionFailure struct {
	Reference string
	Err       error
}

// Result reports what one collection's reconciliation did.
type Result struct {
	Library    string
	Collection string

	Created           bool
	Added             int
	Removed           int
	Moved             int
	AttributesUpdated bool
	PosterSet         bool

	Unresolved []ResolutionFailure
	// Err is set when a remote call failed and the collection's remaining
	// steps were abandoned. The run continues with the next collection.
	Err error
}

// Failed reports whether this collection needs attention: a remote failure
// or any reference that did not resolve.
func (r Result) Failed() bool {
	return r.Err != nil || len(r.Unresolved) > 0
}

// Changed reports whether any remote state was modified.
func (r Result) Changed() bool {
	return r.Created || r.Added > 0 || r.Removed > 0 || r.Moved > 0 || r.AttributesUpdated || r.PosterSet
}
