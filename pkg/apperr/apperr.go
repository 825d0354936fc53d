// Package apperr defines the error kinds surfaced to callers of the story core.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindFetch           Kind = "fetch"
	KindUpdate          Kind = "update"
	KindUnauthenticated Kind = "unauthenticated"
	KindConflict        Kind = "conflict"
)

// Error is a categorised failure. Op names the operation that failed,
// Fields lists offending draft fields for validation failures.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(op string, fields []string, err error) *Error {
	msg := "invalid draft"
	if len(fields) > 0 {
		msg = fmt.Sprintf("invalid draft (fields: %s)", strings.Join(fields, ", "))
	}
	return &Error{Kind: KindValidation, Op: op, Message: msg, Fields: fields, Err: err}
}

func NotFound(op, what string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: what + " not found"}
}

func Fetch(op string, err error) *Error {
	return &Error{Kind: KindFetch, Op: op, Message: "failed to fetch", Err: err}
}

func Update(op string, err error) *Error {
	return &Error{Kind: KindUpdate, Op: op, Message: "failed to update", Err: err}
}

func Unauthenticated(op, message string) *Error {
	return &Error{Kind: KindUnauthenticated, Op: op, Message: message}
}

func Conflict(op, message string) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the status code handlers reply with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindFetch, KindUpdate:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Write replies with err's status and its public message. The wrapped
// cause is never sent to the client.
func Write(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	msg := http.StatusText(status)
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		msg = e.Message
	}
	http.Error(w, msg, status)
}
