// Package apperr defines the error taxonomy shared by the services and the
// HTTP boundary. Services return *Error values; handlers translate them into
// JSON responses via StatusCode.
package apperr

import "net/http"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindUpstream
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// FieldError is a single field-tagged validation message.
type FieldError struct {
	Msg   string `json:"msg"`
	Param string `json:"param,omitempty"`
}

type Error struct {
	Kind   Kind
	Msg    string
	Fields []FieldError
	// Status overrides the default HTTP status for Kind when non-zero.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind, so callers can write
// errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Kind == e.Kind
}

// WithStatus returns a copy of e reporting the given HTTP status.
func (e *Error) WithStatus(code int) *Error {
	c := *e
	c.Status = code
	return &c
}

func (e *Error) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuth, KindForbidden:
		return http.StatusUnauthorized
	case KindNotFound, KindUpstream:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrUpstream   = &Error{Kind: KindUpstream}
)

func Validation(fields ...FieldError) *Error {
	msg := "validation failed"
	if len(fields) > 0 {
		msg = fields[0].Msg
	}
	return &Error{Kind: KindValidation, Msg: msg, Fields: fields}
}

func Auth(msg string) *Error      { return &Error{Kind: KindAuth, Msg: msg} }
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Msg: msg} }
func NotFound(msg string) *Error  { return &Error{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) *Error  { return &Error{Kind: KindConflict, Msg: msg} }

func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: err}
}

func RateLimited(msg string) *Error { return &Error{Kind: KindRateLimited, Msg: msg} }
