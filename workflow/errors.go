package workflow

import "fmt"

// ValidationError is raised before any network I/O; nothing has been touched
// and the user can fix the input and retry.
type ValidationError struct {
	Reason error
}

func (e *ValidationError) Error() string { return e.Reason.Error() }
func (e *ValidationError) Unwrap() error { return e.Reason }

// IdentityAllocationError aborts a first-time create before any write; there
// is no orphaned state to clean up.
type IdentityAllocationError struct {
	Err error
}

func (e *IdentityAllocationError) Error() string {
	return fmt.Sprintf("could not allocate a record id: %v", e.Err)
}
func (e *IdentityAllocationError) Unwrap() error { return e.Err }

// AggregateWriteError means the final document write failed. Uploads from this
// attempt stay orphaned in blob storage (unreferenced, not corrupting) and a
// retry re-uploads under new names.
type AggregateWriteError struct {
	Err error
}

func (e *AggregateWriteError) Error() string {
	return fmt.Sprintf("could not save the record: %v", e.Err)
}
func (e *AggregateWriteError) Unwrap() error { return e.Err }
