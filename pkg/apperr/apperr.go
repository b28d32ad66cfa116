package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error for callers and transports
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindInvalidQuantity   Kind = "INVALID_QUANTITY"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindEmptyOrder        Kind = "EMPTY_ORDER"
	KindEmptyProduct      Kind = "EMPTY_PRODUCT"
	KindInternal          Kind = "INTERNAL"
)

// Detail codes carried in Error.Code for finer classification
const (
	CodeDuplicateSkuCode = "DUPLICATE_SKU_CODE"
	CodeDuplicateBarcode = "DUPLICATE_BARCODE"
	CodeUnknownSku       = "UNKNOWN_SKU"
	CodeDuplicateNumber  = "DUPLICATE_ORDER_NUMBER"
	CodeDuplicateCode    = "DUPLICATE_WAREHOUSE_CODE"
	CodeOrderLocked      = "ORDER_LOCKED"
)

// Error is the single error type returned across use case boundaries
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Code != "" {
		b.WriteString("/")
		b.WriteString(e.Code)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString(")")
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches on Kind so errors.Is(err, &Error{Kind: KindNotFound}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithCode returns a copy of the error with a detail code
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// Validation creates a validation error with per-field messages
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// InvalidField creates a validation error for one field
func InvalidField(field, msg string) *Error {
	return Validation(map[string]string{field: msg})
}

// NotFound creates a not found error for an entity
func NotFound(entity string, key interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %v not found", entity, key)}
}

// Conflict creates a conflict error with a detail code
func Conflict(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransition creates a state machine rejection
func InvalidTransition(from, to string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf("transition from %s to %s is not allowed", from, to)}
}

// Internal hides the cause behind an opaque message
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", cause: cause}
}

// KindOf reports the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// From returns err unchanged if it is an *Error, wrapping foreign errors as Internal
func From(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
