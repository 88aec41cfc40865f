// Package apperr defines the closed error taxonomy shared by every bizcore
// service. Each error carries a machine-readable code, a technical message,
// a separate user-facing message, a severity, a timestamp and optional
// structured detail. Normalize guarantees that any thrown value can be
// coerced into the taxonomy, so every failure reaching a UI boundary has a
// user-facing string.
package apperr

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Code is a machine-readable error identifier, grouped by domain.
type Code string

// Validation codes (user-actionable input failures).
const (
	CodeRequiredField Code = "VALIDATION_REQUIRED_FIELD"
	CodeInvalidFormat Code = "VALIDATION_INVALID_FORMAT"
	CodeDuplicate     Code = "VALIDATION_DUPLICATE"
)

// Data codes.
const (
	CodeNotFound Code = "DATA_NOT_FOUND"
	CodeCorrupt  Code = "DATA_CORRUPT"
)

// Storage codes.
const (
	CodeSaveFailed    Code = "STORAGE_SAVE_FAILED"
	CodeLoadFailed    Code = "STORAGE_LOAD_FAILED"
	CodeQuotaExceeded Code = "STORAGE_QUOTA_EXCEEDED"
)

// Business-rule codes (reserved for rule-level failures).
const (
	CodeRuleViolation       Code = "BUSINESS_RULE_VIOLATION"
	CodeInvalidState        Code = "BUSINESS_INVALID_STATE"
	CodeOperationNotAllowed Code = "BUSINESS_OPERATION_NOT_ALLOWED"
)

// System codes (fallback bucket for normalization).
const (
	CodeUnknown Code = "SYSTEM_UNKNOWN"
	CodeNetwork Code = "SYSTEM_NETWORK"
	CodeTimeout Code = "SYSTEM_TIMEOUT"
)

// Severity ranks how serious an error is for triage and display.
type Severity string

// Severity levels from least to most serious.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error is a taxonomy instance. It satisfies the error interface and
// marshals to the structured export shape consumed by log sinks and UI
// error boundaries.
type Error struct {
	Name             string
	Code             Code
	Message          string
	UserMessage      string
	Severity         Severity
	Timestamp        time.Time
	Field            string
	TechnicalDetails map[string]any
	Stack            string
	cause            error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s [%s] %s: %s", e.Name, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Name, e.Code, e.Message)
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// WithDetail attaches one structured technical detail and returns the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.TechnicalDetails == nil {
		e.TechnicalDetails = make(map[string]any)
	}
	e.TechnicalDetails[key] = value
	return e
}

// export is the stable serialized contract. Field names are camelCase
// because the export shape predates this implementation.
type export struct {
	Name             string         `json:"name"`
	Code             Code           `json:"code"`
	Message          string         `json:"message"`
	UserMessage      string         `json:"userMessage"`
	Severity         Severity       `json:"severity"`
	Timestamp        time.Time      `json:"timestamp"`
	Field            string         `json:"field,omitempty"`
	TechnicalDetails map[string]any `json:"technicalDetails,omitempty"`
	Stack            string         `json:"stack,omitempty"`
}

// MarshalJSON renders the structured export shape.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(export{
		Name:             e.Name,
		Code:             e.Code,
		Message:          e.Message,
		UserMessage:      e.UserMessage,
		Severity:         e.Severity,
		Timestamp:        e.Timestamp,
		Field:            e.Field,
		TechnicalDetails: e.TechnicalDetails,
		Stack:            e.Stack,
	})
}

func newError(name string, code Code, severity Severity, message, userMessage string) *Error {
	return &Error{
		Name:        name,
		Code:        code,
		Message:     message,
		UserMessage: userMessage,
		Severity:    severity,
		Timestamp:   time.Now().UTC(),
		Stack:       captureStack(3),
	}
}

func captureStack(skip int) string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}

// New builds a medium-severity error with the given code. The specialized
// constructors below are preferred where they apply; New covers business and
// system codes without a dedicated shape.
func New(code Code, message string) *Error {
	return newError("AppError", code, SeverityMedium, message, genericUserMessage)
}

// NewValidation builds a low-severity validation error scoped to a field.
// Validation feedback is inherently user-visible, so the user message equals
// the technical message.
func NewValidation(field, message string) *Error {
	e := newError("ValidationError", CodeInvalidFormat, SeverityLow, message, message)
	e.Field = field
	return e
}

// NewRequired builds a validation error for an empty required field.
func NewRequired(field string) *Error {
	e := NewValidation(field, fmt.Sprintf("%s is required", field))
	e.Code = CodeRequiredField
	return e
}

// NewDuplicate builds a validation error for a uniqueness conflict on field.
func NewDuplicate(field, message string) *Error {
	e := NewValidation(field, message)
	e.Code = CodeDuplicate
	return e
}

// NewNotFound builds a medium-severity error naming the resource kind and,
// when known, the missing id.
func NewNotFound(resource, id string) *Error {
	msg := fmt.Sprintf("%s not found", resource)
	if id != "" {
		msg = fmt.Sprintf("%s %q not found", resource, id)
	}
	e := newError("NotFoundError", CodeNotFound, SeverityMedium, msg,
		fmt.Sprintf("The requested %s could not be found.", resource))
	if id != "" {
		e.WithDetail("id", id)
	}
	e.WithDetail("resource", resource)
	return e
}

// NewStorage builds a high-severity error for a failed persistence
// operation. The attempted operation name is recorded as technical detail
// and the user message is a generic retry prompt.
func NewStorage(operation string, cause error) *Error {
	msg := fmt.Sprintf("storage operation %s failed", operation)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	e := newError("StorageError", CodeSaveFailed, SeverityHigh, msg,
		"Something went wrong while saving your data. Please try again.")
	e.WithDetail("operation", operation)
	e.cause = cause
	return e
}

const genericUserMessage = "An unexpected error occurred. Please try again."

// Normalize coerces any thrown value into a taxonomy instance. Taxonomy
// errors pass through unchanged; generic errors are wrapped preserving
// their message as technical detail; anything else is string-coerced. The
// result always carries a non-empty user message.
func Normalize(v any) *Error {
	switch err := v.(type) {
	case nil:
		return newError("UnknownError", CodeUnknown, SeverityMedium, "unknown error", genericUserMessage)
	case *Error:
		if err.UserMessage == "" {
			err.UserMessage = genericUserMessage
		}
		return err
	case error:
		e := newError("UnknownError", CodeUnknown, SeverityMedium, err.Error(), genericUserMessage)
		e.WithDetail("cause", err.Error())
		e.cause = err
		return e
	default:
		msg := fmt.Sprint(v)
		e := newError("UnknownError", CodeUnknown, SeverityMedium, msg, genericUserMessage)
		e.WithDetail("value", msg)
		return e
	}
}

// IsValidation reports whether err is a taxonomy error with a validation code.
func IsValidation(err error) bool {
	e, ok := err.(*Error)
	return ok && (e.Code == CodeRequiredField || e.Code == CodeInvalidFormat || e.Code == CodeDuplicate)
}

// IsNotFound reports whether err is a taxonomy not-found error.
func IsNotFound(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == CodeNotFound
}

// IsStorage reports whether err is a taxonomy storage error.
func IsStorage(err error) bool {
	e, ok := err.(*Error)
	return ok && (e.Code == CodeSaveFailed || e.Code == CodeLoadFailed || e.Code == CodeQuotaExceeded)
}
