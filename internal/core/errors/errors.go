// Package errors defines the coded errors returned across nsguard's layers.
package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeNotSupported    ErrorCode = "NOT_SUPPORTED"
	CodeUnavailable     ErrorCode = "UNAVAILABLE"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
}

// Context keys.
const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxLanguage  = "language"
	CtxPolicy    = "policy"
	CtxRunID     = "run_id"
)

func (e *DomainError) WithContext(key string, value any) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		pairs := make([]string, 0, len(e.Context))
		for _, key := range slices.Sorted(maps.Keys(e.Context)) {
			pairs = append(pairs, fmt.Sprintf("%s=%v", key, e.Context[key]))
		}
		msg += " (" + strings.Join(pairs, ", ") + ")"
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches key to the outermost DomainError in err's chain, or wraps
// a plain error as an internal one.
func AddContext(err error, key string, value any) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "unexpected error",
		Err:     err,
		Context: map[string]any{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
