// Package errs classifies failures into the taxonomy every component
// dispatches on: transient (retry), permanent (skip the unit), and fatal
// (startup errors that exit the process). Terminal per-tick failures
// have no type here; the scheduler and engine report them as outcomes.
package errs

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Transient wraps an error that is worth retrying with backoff: network
// timeouts, HTTP 5xx/429, lock timeouts, connection resets.
type Transient struct {
	Err error
}

func (e *Transient) Error() string { return "transient: " + e.Err.Error() }
func (e *Transient) Unwrap() error { return e.Err }

func WrapTransient(err error) error {
	if err == nil {
		return nil
	}
	return &Transient{Err: err}
}

// Permanent wraps an error specific to one unit of work (one row, one
// asset): the caller skips the unit, counts it, and continues.
type Permanent struct {
	Err error
}

func (e *Permanent) Error() string { return "permanent: " + e.Err.Error() }
func (e *Permanent) Unwrap() error { return e.Err }

func WrapPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &Permanent{Err: err}
}

func IsTransient(err error) bool {
	var t *Transient
	return errors.As(err, &t)
}

func IsPermanent(err error) bool {
	var p *Permanent
	return errors.As(err, &p)
}

// ClassifyPQ maps a *pq.Error (or any error) into the transient/permanent
// taxonomy by its SQLSTATE class, per the Gateway's documented contract:
// connectivity/lock-timeout classes are transient, constraint-violation
// classes are permanent.
func ClassifyPQ(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return WrapTransient(err)
	}
	class := string(pqErr.Code.Class())
	switch class {
	case "08", "53", "57", "40":
		// connection exception, insufficient resources, operator
		// intervention (includes query_canceled/admin_shutdown),
		// transaction rollback (serialization/deadlock).
		return WrapTransient(err)
	case "23":
		// integrity constraint violation.
		return WrapPermanent(err)
	default:
		return WrapTransient(err)
	}
}

// Fatal marks a configuration or startup error that should exit the
// process non-zero; it is never retried.
type Fatal struct {
	Err  error
	Code int
}

func (e *Fatal) Error() string { return fmt.Sprintf("fatal(%d): %s", e.Code, e.Err.Error()) }
func (e *Fatal) Unwrap() error { return e.Err }

func NewFatal(code int, format string, args ...any) *Fatal {
	return &Fatal{Err: fmt.Errorf(format, args...), Code: code}
}
