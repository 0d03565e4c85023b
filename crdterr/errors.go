// Package crdterr defines the closed error taxonomy returned by every
// fallible operation in tinycrdt. Nothing outside this package's Kind
// values is ever returned, so callers can exhaustively switch on it.
package crdterr

import "fmt"

// Kind identifies one of the fixed failure categories a CRDT operation
// can report. The set is closed: no operation returns an error whose
// Kind is not one of these.
type Kind int

const (
	// CapacityExceeded is returned when an insert or merge would grow
	// a bounded container (GSet, ORSet, LWWMap) past its configured
	// element capacity.
	CapacityExceeded Kind = iota

	// InvalidNodeID is returned when a node id passed to a constructor
	// or an operation (GCounter.NodeValue, ORSet.Remove's tag) falls
	// outside [0, MaxNodes). Merge does not check the node ids held by
	// a peer.
	InvalidNodeID

	// InvalidTimestamp is returned when a per-node timestamp would
	// regress (LWWRegister.Set, MVRegister.Set, LWWMap.Insert).
	InvalidTimestamp

	// Overflow is returned when a counter increment would wrap its
	// integer width.
	Overflow

	// InvalidOperation is the catch-all for misuse not covered above,
	// e.g. merging two GCounters sized for different node counts, or a
	// Capacity with non-positive sizes.
	InvalidOperation
)

// String renders the Kind the way the teacher renders its IMAP command
// names: short, upper-snake, stable across versions.
func (k Kind) String() string {
	switch k {
	case CapacityExceeded:
		return "CAPACITY_EXCEEDED"
	case InvalidNodeID:
		return "INVALID_NODE_ID"
	case InvalidTimestamp:
		return "INVALID_TIMESTAMP"
	case Overflow:
		return "OVERFLOW"
	case InvalidOperation:
		return "INVALID_OPERATION"
	default:
		return "UNKNOWN"
	}
}

// Error is the concrete error type returned by tinycrdt operations. It
// carries the operation that failed (e.g. "GCounter.Increment") for
// diagnostics and wraps an optional underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, crdterr.ErrCapacityExceeded) match any *Error
// of the same Kind, regardless of Op or wrapped cause.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Recoverable reports whether a caller could plausibly retry the
// operation with adjusted inputs and succeed. CapacityExceeded is not
// recoverable: capacity is fixed for the lifetime of the CRDT. The
// others name a caller mistake (bad node id, clock regression, stale
// tag, overflowing delta) that the caller can in principle correct and
// retry. This mirrors the original Rust implementation's
// CRDTError::is_recoverable classification.
func (e *Error) Recoverable() bool {
	return e.Kind != CapacityExceeded
}

// New constructs an *Error of the given kind for operation op, wrapping
// cause (which may be nil).
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Sentinel values for use with errors.Is(err, crdterr.ErrCapacityExceeded)
// style comparisons against a bare Kind, without needing to construct an
// *Error wrapper first.
var (
	ErrCapacityExceeded = &Error{Kind: CapacityExceeded, Op: "sentinel"}
	ErrInvalidNodeID    = &Error{Kind: InvalidNodeID, Op: "sentinel"}
	ErrInvalidTimestamp = &Error{Kind: InvalidTimestamp, Op: "sentinel"}
	ErrOverflow         = &Error{Kind: Overflow, Op: "sentinel"}
	ErrInvalidOperation = &Error{Kind: InvalidOperation, Op: "sentinel"}
)
