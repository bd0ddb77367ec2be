// Package apperr carries the error taxonomy shared by every domain package.
// Domain sentinels are *Error values; callers match them with errors.Is and
// map them to transport codes with KindOf.
package apperr

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindIntegrity    Kind = "integrity"
	KindUpstream     Kind = "upstream"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInternal     Kind = "internal"
)

// PostgreSQL SQLSTATE codes the store surfaces.
const (
	PgUniqueViolation     = "23505"
	PgForeignKeyViolation = "23503"
	PgNotNullViolation    = "23502"
	PgCheckViolation      = "23514"
	PgNumericOutOfRange   = "22003"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap keeps err reachable through errors.Unwrap while reporting msg.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// With returns a copy of the sentinel carrying detail, still matching the
// sentinel under errors.Is.
func (e *Error) With(detail string) error {
	return &detailed{base: e, detail: detail}
}

type detailed struct {
	base   *Error
	detail string
}

func (d *detailed) Error() string { return d.base.Message + ": " + d.detail }
func (d *detailed) Unwrap() error { return d.base }

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message is the caller-safe text of err. Internal errors are not exposed.
func Message(err error) string {
	if KindOf(err) == KindInternal {
		return "internal server error"
	}
	return err.Error()
}

// FromPQ translates constraint violations into Conflict or Integrity
// errors and numeric overflow into Validation. Any other error, including
// nil, is returned unchanged.
func FromPQ(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case PgUniqueViolation:
		return Wrap(KindConflict, "duplicate value violates "+pqErr.Constraint, err)
	case PgForeignKeyViolation, PgNotNullViolation, PgCheckViolation:
		return Wrap(KindIntegrity, "constraint violation", err)
	case PgNumericOutOfRange:
		return Wrap(KindValidation, "numeric value out of range", err)
	}
	return err
}

func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation
}
