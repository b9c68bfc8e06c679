package model

import (
	"errors"
)

var (
	// ErrNotFound is returned when no open submission or pending approval
	// matches a selector. Callers racing on the same approval must treat it
	// as "already resolved", not as a failure to surface.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyDecided is returned when a decision update targets a
	// submission that already has one recorded.
	ErrAlreadyDecided = errors.New("submission already decided")

	// ErrDuplicateApproval is returned when a pending approval insert
	// collides on submission id or message id.
	ErrDuplicateApproval = errors.New("duplicate pending approval")
)
