package orchestrator

import "errors"

// Kind classifies orchestration failures so handlers can map them to status
// codes without inspecting error strings.
type Kind int

const (
	// KindValidation covers caller mistakes: unknown test or candidate,
	// cross-tenant references, malformed input.
	KindValidation Kind = iota
	// KindConflict means an instance already exists for the pair.
	KindConflict
	// KindNotFound means the referenced instance row does not exist.
	KindNotFound
	// KindInfrastructure covers Docker-layer failures: daemon unreachable,
	// image pull failure, port exhaustion, health timeout. The instance row
	// survives in a degraded state and the operation is retryable.
	KindInfrastructure
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the failure kind, defaulting to infrastructure for
// unclassified errors.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindInfrastructure
}
