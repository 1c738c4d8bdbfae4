package api

import (
	"fmt"

	"github.com/creaverse/dao-rewards/internal/apperr"
)

// Standard JSON-RPC error codes
const (
	ErrParseError     = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternalError  = -32603
)

// Application error codes
const (
	ErrQuotaExhausted = -32002
	ErrForbidden      = -32003
	ErrNotFound       = -32004
	ErrConflict       = -32009
	ErrUnavailable    = -32010
	ErrRateLimited    = -32029
)

// Error represents an API error
type Error struct {
	Code    int
	Message string
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// errorCode maps a handler error onto a JSON-RPC code and a message safe to
// return to callers
func errorCode(err error) (int, string) {
	if e, ok := err.(*Error); ok {
		return e.Code, e.Message
	}

	msg := apperr.Message(err)
	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		return ErrInvalidParams, msg
	case apperr.KindForbidden:
		return ErrForbidden, msg
	case apperr.KindNotFound:
		return ErrNotFound, msg
	case apperr.KindConflict:
		return ErrConflict, msg
	case apperr.KindRateLimited:
		return ErrRateLimited, msg
	case apperr.KindQuotaExhausted:
		return ErrQuotaExhausted, msg
	case apperr.KindServiceError, apperr.KindFormatError:
		return ErrUnavailable, msg
	default:
		return ErrInternalError, "internal error"
	}
}
