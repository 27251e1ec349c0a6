package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies why a run aborted. The set is closed: every error returned by Run carries exactly one Kind.
type Kind int

const (
	KindUnknown Kind = iota
	// KindFetch: the provider failed or returned no rows at all.
	KindFetch
	// KindSchemaResolution: no temporal column could be identified or parsed.
	KindSchemaResolution
	// KindEmptyResult: rows were fetched but none fall inside the lookback window.
	KindEmptyResult
	// KindPersistence: a partition directory or file could not be written.
	KindPersistence
)

var (
	ErrFetch            = errors.New("fetch error")
	ErrSchemaResolution = errors.New("schema resolution error")
	ErrEmptyResult      = errors.New("empty result error")
	ErrPersistence      = errors.New("persistence error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindFetch:
		return ErrFetch
	case KindSchemaResolution:
		return ErrSchemaResolution
	case KindEmptyResult:
		return ErrEmptyResult
	case KindPersistence:
		return ErrPersistence
	default:
		return nil
	}
}

func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindSchemaResolution:
		return "schema_resolution"
	case KindEmptyResult:
		return "empty_result"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is the failure variant of a run.
type Error struct {
	Kind Kind
	Op   string
	// Columns lists the observed column names for schema resolution failures.
	Columns []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if s := e.Kind.sentinel(); s != nil {
		b.WriteString(s.Error())
	} else {
		b.WriteString("pipeline error")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Columns) > 0 {
		fmt.Fprintf(&b, " (available columns: [%s])", strings.Join(e.Columns, ", "))
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
