package errors

import (
	"errors"
	"net/http"
	"strings"
)

type ErrCode string

const (
	ErrCodeNotImplemented    ErrCode = "NotImplemented"
	ErrCodeNotFound          ErrCode = "NotFound"
	ErrCodeServiceFailure    ErrCode = "ServiceFailure"
	ErrCodeAPIBadRequest     ErrCode = "BadRequest"
	ErrCodeDependencyFailure ErrCode = "DependencyFailure"
	ErrCodeExisted           ErrCode = "Existed"
	ErrCodeUnauthenticated   ErrCode = "Unauthenticated"
	ErrCodePermissionDenied  ErrCode = "PermissionDenied"
)

// Err is the application error type. It carries a coarse error code which maps to an
// http status code, plus an optional wrapped cause for diagnosis.
type Err struct {
	Code  ErrCode
	msg   string
	cause error
}

func (e *Err) Error() string {
	return e.msg
}

// Trace returns the chain of causes associated with the error
func (e *Err) Trace() string {
	b := &strings.Builder{}
	b.WriteString(e.msg)
	depth := 1
	err := errors.Unwrap(e)
	for err != nil {
		b.WriteString("\n")
		b.WriteString(strings.Repeat("\t", depth))
		b.WriteString("Caused by: ")
		b.WriteString(err.Error())
		depth++
		err = errors.Unwrap(err)
	}
	return b.String()
}

func (e *Err) Unwrap() error {
	return e.cause
}

func (e *Err) WithCause(c error) *Err {
	e.cause = c
	return e
}

func (e *Err) WithMsg(m string) *Err {
	e.msg = m
	return e
}

// prefer NewX(msg) over NewX(msg, cause) since the latter's method signature has less
// readability - user needs to look up docs to know the 2nd param is for cause, while the
// first one can use WithCause() to be explicit
func NewServiceFailure(m string) *Err {
	return &Err{Code: ErrCodeServiceFailure, msg: m}
}

func NewNotFound(m string) *Err {
	return &Err{Code: ErrCodeNotFound, msg: m}
}

func NewBadInput(m string) *Err {
	return &Err{Code: ErrCodeAPIBadRequest, msg: m}
}

func NewNotImplemented() *Err {
	return &Err{Code: ErrCodeNotImplemented, msg: "Not implemented"}
}

func NewExisted(m string) *Err {
	return &Err{Code: ErrCodeExisted, msg: m}
}

// NewDependencyFailure flags an upstream service failure (database offline, chat platform
// API rate-limited or rejecting our credential). Such failures must surface as failures
// instead of being coerced into "no permission" decisions.
func NewDependencyFailure(m string) *Err {
	return &Err{Code: ErrCodeDependencyFailure, msg: m}
}

func NewUnauthenticated(m string) *Err {
	return &Err{Code: ErrCodeUnauthenticated, msg: m}
}

func NewPermissionDenied(m string) *Err {
	return &Err{Code: ErrCodePermissionDenied, msg: m}
}

// StatusCode returns the http response status code associated with the Err value
func (e *Err) StatusCode() int {
	switch e.Code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAPIBadRequest:
		return http.StatusBadRequest
	case ErrCodeExisted:
		return http.StatusConflict
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodePermissionDenied:
		return http.StatusForbidden
	case ErrCodeDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
