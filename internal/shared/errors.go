package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrBranchRequired indicates a posting request without a branch.
	ErrBranchRequired = errors.New("branch is required")
	// ErrBranchForbidden indicates the actor may not act on the branch.
	ErrBranchForbidden = errors.New("branch not in actor scope")
)
