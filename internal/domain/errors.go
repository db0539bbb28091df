package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business-level failure conditions shared
// across layers. Per-item structural defects in a notification batch are
// recovered locally (logged, skipped); everything listed here propagates
// to the caller.
var (
	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")

	// Structurally invalid input
	ErrMalformedBatch    = errors.New("malformed notification batch")
	ErrMalformedManifest = errors.New("malformed manifest")

	// Unrecognized protocol values; propagated, never silently defaulted
	ErrUnsupportedAction  = errors.New("unsupported event action")
	ErrInvalidEventAction = errors.New("invalid event action")

	// Registry transport errors
	ErrRegistryRequestFailed = errors.New("registry request failed")
	ErrRegistryUnreachable   = errors.New("registry unreachable")
	ErrMissingDigest         = errors.New("registry did not provide a content digest header")

	// Unexpected internal failure during notification classification
	ErrEventProcessingFailed = errors.New("event processing failed")
)

// RegistryRequestError carries the status and body of a non-success,
// non-404 registry response. It matches ErrRegistryRequestFailed under
// errors.Is.
type RegistryRequestError struct {
	Status int
	Body   string
}

func (e *RegistryRequestError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("registry request failed with status %d", e.Status)
	}
	return fmt.Sprintf("registry request failed with status %d: %s", e.Status, e.Body)
}

func (e *RegistryRequestError) Is(target error) bool {
	return target == ErrRegistryRequestFailed
}
