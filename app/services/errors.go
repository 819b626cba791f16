package services

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/shashiranjanraj/kabadi/app/repositories"
	"github.com/shashiranjanraj/kabadi/pkg/metrics"
)

// Kind classifies a service failure. Controllers map it to an HTTP status.
type Kind int

const (
	KindUpstream Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	}
	return "upstream"
}

// Error is a failure with a stable Code and Message plus the underlying cause.
// errors.Is matches on Code, so a sentinel matches every copy made by With.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// With returns a copy of e carrying err as its cause.
func (e *Error) With(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// Withf is With(errors.Errorf(format, args...)).
func (e *Error) Withf(format string, args ...interface{}) *Error {
	return e.With(errors.Errorf(format, args...))
}

// Cause is the message of the underlying error, or "".
func (e *Error) Cause() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidInput          = newError(KindValidation, "invalid_input", "Invalid input")
	ErrInvalidStatus         = newError(KindValidation, "invalid_status", "Invalid status")
	ErrInvalidDeliveryPerson = newError(KindValidation, "invalid_delivery_person", "Invalid delivery person")
	ErrItemUnavailable       = newError(KindValidation, "item_unavailable", "Item is not available")
	ErrAddressMissing        = newError(KindValidation, "address_missing", "Address is missing")
	ErrUpload                = newError(KindUpstream, "upload_failed", "Image upload failed")

	ErrInvalidCredentials = newError(KindUnauthorized, "invalid_credentials", "Invalid credentials")
	ErrForbidden          = newError(KindForbidden, "forbidden", "Forbidden")
	ErrRoleNotAllowed     = newError(KindForbidden, "role_not_allowed", "Role cannot be self-registered")

	ErrUserNotFound         = newError(KindNotFound, "user_not_found", "User not found")
	ErrItemNotFound         = newError(KindNotFound, "item_not_found", "Item not found")
	ErrOrderNotFound        = newError(KindNotFound, "order_not_found", "Order not found")
	ErrDeliveryNotFound     = newError(KindNotFound, "delivery_not_found", "Delivery not found")
	ErrDeliveryNotAvailable = newError(KindNotFound, "delivery_not_available", "Delivery not available or already accepted")

	ErrUserExists = newError(KindConflict, "user_exists", "User already exists")

	ErrInternal = newError(KindUpstream, "internal", "Internal error")
)

// KindOf returns the Kind of the first *Error in err's chain, or KindUpstream.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// PartialWriteError reports a workflow that failed after some of its writes
// had already committed. It only occurs on a non-transactional store.
type PartialWriteError struct {
	Operation string
	Committed []string
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s partially applied (committed: %s): %v",
		e.Operation, strings.Join(e.Committed, ", "), e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// writes records the writes a workflow has committed so far. Reset it at the
// start of a transaction callback, since the store may run it again.
type writes []string

func (w *writes) reset()          { *w = (*w)[:0] }
func (w *writes) add(name string) { *w = append(*w, name) }
func (w writes) list() []string   { return append([]string(nil), w...) }
func (w writes) any() bool        { return len(w) > 0 }

// settle turns a failed workflow error into a PartialWriteError when the store
// could not roll back the writes that had already succeeded.
func settle(store repositories.Store, op string, done writes, err error) error {
	if err == nil {
		return nil
	}
	if store.Transactional() || !done.any() {
		return err
	}
	metrics.PartialWrites.WithLabelValues(op).Inc()
	return &PartialWriteError{Operation: op, Committed: done.list(), Err: err}
}

// upstream wraps a store failure unless it is already a service error.
func upstream(err error, msg string) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return ErrInternal.With(errors.Wrap(err, msg))
}
