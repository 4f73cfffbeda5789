package api

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an update targets a node that does not exist.
	ErrNotFound = errors.New("node not found")

	// ErrInvalidReference is returned when an edge references a nonexistent node.
	ErrInvalidReference = errors.New("edge endpoint does not exist")

	// ErrDuplicateEdge is returned when an edge would duplicate an existing
	// (source, target, port) triple and the graph's policy rejects duplicates.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrUnknownBlockType is returned when a node is created with a type that
	// is not present in the configured block catalog.
	ErrUnknownBlockType = errors.New("unknown block type")

	// ErrSaveInProgress is returned by Save while a previous save is still
	// validating or persisting.
	ErrSaveInProgress = errors.New("save already in progress")

	// ErrNoSession is returned when an operation requires a session token and
	// none is available.
	ErrNoSession = errors.New("no active session")

	// ErrNotConnected is returned by an IntegrationGateway while the third-party
	// service has not been authorized yet.
	ErrNotConnected = errors.New("integration not connected")

	// ErrWorkflowNotFound is returned by transport stores when a workflow id is
	// not known to them.
	ErrWorkflowNotFound = errors.New("workflow not found")
)

// TransportErrorKind classifies a failed transport call. There are exactly
// three externally distinguishable kinds; callers must branch on the kind,
// never on error text.
type TransportErrorKind string

const (
	// NetworkUnavailable means the request could not reach the server at all.
	NetworkUnavailable TransportErrorKind = "network_unavailable"

	// Rejected means the server understood the request but declined it,
	// typically because server-side validation re-detected a structural problem.
	Rejected TransportErrorKind = "rejected"

	// TransportUnknown covers every other transport failure.
	TransportUnknown TransportErrorKind = "unknown"
)

// TransportError wraps a failure from the persistence transport with its kind.
type TransportError struct {
	Kind  TransportErrorKind
	Cause error
}

func (e *TransportError) Error() string {
	if e.Cause == nil {
		return "transport: " + string(e.Kind)
	}
	return fmt.Sprintf("transport: %s: %v", e.Kind, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// NewTransportError wraps cause with the given kind. If cause is already a
// TransportError it is returned unchanged so classification done close to the
// wire survives re-wrapping.
func NewTransportError(kind TransportErrorKind, cause error) error {
	var te *TransportError
	if errors.As(cause, &te) {
		return cause
	}
	return &TransportError{Kind: kind, Cause: cause}
}

// TransportKind extracts the classification from err. The second return is
// false when err is not a transport failure.
func TransportKind(err error) (TransportErrorKind, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return "", false
}

// ValidationError is returned by Save when the graph failed structural
// validation. It carries the specific issues so callers can present them.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError returns the issues carried by err, if any.
func IsValidationError(err error) ([]ValidationIssue, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Issues, true
	}
	return nil, false
}
