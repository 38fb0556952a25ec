// Package ferrors defines Forge's error taxonomy: eight kinds shared across
// every component, each a sentinel plus a *Error wrapper carrying operation
// context. Components never construct bare errors.New for domain failures —
// they wrap a kind so the HTTP surface and the orchestrator's fallback logic
// can dispatch on it with errors.Is/errors.As.
package ferrors

import (
	"errors"
	"fmt"
)

// Kind identifies which of the eight error categories a failure belongs to.
type Kind string

const (
	// KindConfig — missing or malformed required env/config. Fatal at startup only.
	KindConfig Kind = "config"
	// KindStorage — Knowledge Store persistence unavailable or corrupt.
	KindStorage Kind = "storage"
	// KindGraph — topology query failure.
	KindGraph Kind = "graph"
	// KindMetrics — observability backend failure.
	KindMetrics Kind = "metrics"
	// KindRemediation — remediation provider rejected the action.
	KindRemediation Kind = "remediation"
	// KindValidation — a network/stability probe failed to complete.
	KindValidation Kind = "validation"
	// KindLLM — timeout, invalid JSON, or tool-dispatch failure. Recovered internally.
	KindLLM Kind = "llm"
	// KindNotFound — requested service/insight/work-item does not exist.
	KindNotFound Kind = "not_found"
)

// Sentinel errors for errors.Is comparisons that don't need operation context.
var (
	ErrConfigMissing    = errors.New("required configuration missing")
	ErrConfigInvalid    = errors.New("configuration value invalid")
	ErrStorageUnwritable = errors.New("storage path unwritable")
	ErrStorageCorrupt   = errors.New("persisted document corrupt")
	ErrGraphUnreachable = errors.New("graph adapter unreachable")
	ErrMetricsUnavailable = errors.New("metrics adapter unavailable")
	ErrRemediationRejected = errors.New("remediation provider rejected action")
	ErrValidationIncomplete = errors.New("validation probe did not complete")
	ErrLLMUnparseable   = errors.New("llm response had no enclosing JSON object")
	ErrLLMTimeout       = errors.New("llm call timed out")
	ErrNotFound         = errors.New("resource not found")
)

// Error wraps an underlying error with the Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a kinded error. Op names the failing operation
// ("store.AddInsight", "graph.Dependencies") for log/trace correlation.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries the given Kind, unwrapping *Error chains.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
