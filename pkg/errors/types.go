// Package errors provides structured error handling for the TCP provider.
// Errors carry a numeric code, a category used to tell contract violations
// apart from runtime failures, and a context describing where they happened.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"
)

// Category represents the type/category of an error for classification and handling
type Category string

const (
	// CategoryContract marks a broken precondition. These indicate a caller bug
	// and are never recovered or retried.
	CategoryContract   Category = "contract"
	CategoryConfig     Category = "config"
	CategoryConnection Category = "connection"
	CategoryListener   Category = "listener"
	CategoryFormatter  Category = "formatter"
	CategoryInternal   Category = "internal"
)

// Severity indicates how critical an error is
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Context provides additional context about where and when an error occurred
type Context struct {
	ConnectionID  string    `json:"connection_id,omitempty"`
	ServerNumber  int       `json:"server_number,omitempty"`
	LocalAddress  string    `json:"local_address,omitempty"`
	RemoteAddress string    `json:"remote_address,omitempty"`
	Component     string    `json:"component,omitempty"`
	Operation     string    `json:"operation,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// ProviderError defines the interface for all structured provider errors
type ProviderError interface {
	error

	// Code returns the numeric error code
	Code() int

	// Message returns a human-readable error message
	Message() string

	// Details returns detailed technical description for debugging
	Details() string

	// Data returns structured error data for programmatic handling
	Data() interface{}

	Category() Category
	Severity() Severity
	Context() *Context

	// WithContext returns a new error with the provided context
	WithContext(ctx *Context) ProviderError

	// WithDetail returns a new error with additional detail
	WithDetail(detail string) ProviderError

	// WithData returns a new error with structured data
	WithData(data interface{}) ProviderError

	// Unwrap returns the underlying error for error chain traversal
	Unwrap() error

	// ToJSON returns the error as a JSON-serializable map
	ToJSON() map[string]interface{}
}

type baseError struct {
	code     int
	message  string
	details  string
	data     interface{}
	category Category
	severity Severity
	context  *Context
	cause    error
}

func (e *baseError) Error() string {
	if e.details != "" {
		return fmt.Sprintf("%s: %s", e.message, e.details)
	}
	return e.message
}

func (e *baseError) Code() int          { return e.code }
func (e *baseError) Message() string    { return e.message }
func (e *baseError) Details() string    { return e.details }
func (e *baseError) Data() interface{}  { return e.data }
func (e *baseError) Category() Category { return e.category }
func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) Context() *Context  { return e.context }
func (e *baseError) Unwrap() error      { return e.cause }

// WithContext returns a copy carrying ctx. A zero timestamp is filled in.
func (e *baseError) WithContext(ctx *Context) ProviderError {
	newErr := *e
	if ctx != nil && ctx.Timestamp.IsZero() {
		c := *ctx
		c.Timestamp = time.Now()
		ctx = &c
	}
	newErr.context = ctx
	return &newErr
}

// WithDetail returns a new error with additional detail
func (e *baseError) WithDetail(detail string) ProviderError {
	newErr := *e
	if newErr.details != "" {
		newErr.details = fmt.Sprintf("%s; %s", newErr.details, detail)
	} else {
		newErr.details = detail
	}
	return &newErr
}

// WithData returns a new error with structured data
func (e *baseError) WithData(data interface{}) ProviderError {
	newErr := *e
	newErr.data = data
	return &newErr
}

// ToJSON returns the error as a JSON-serializable map
func (e *baseError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"code":     e.code,
		"name":     GetErrorCodeName(e.code),
		"message":  e.message,
		"category": string(e.category),
		"severity": string(e.severity),
	}

	if e.details != "" {
		result["details"] = e.details
	}
	if e.data != nil {
		result["data"] = e.data
	}
	if e.context != nil {
		result["context"] = e.context
	}
	if e.cause != nil {
		result["cause"] = e.cause.Error()
	}

	return result
}

// MarshalJSON implements json.Marshaler for baseError
func (e *baseError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToJSON())
}

// NewError creates a new ProviderError with the specified parameters
func NewError(code int, message string, category Category, severity Severity) ProviderError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		context:  &Context{Timestamp: time.Now()},
	}
}

// NewErrorf creates a new ProviderError with formatted message
func NewErrorf(code int, category Category, severity Severity, format string, args ...interface{}) ProviderError {
	return NewError(code, fmt.Sprintf(format, args...), category, severity)
}

// WrapError wraps an existing error as a ProviderError
func WrapError(err error, code int, message string, category Category, severity Severity) ProviderError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		cause:    err,
		context:  &Context{Timestamp: time.Now()},
	}
}

// AsProviderError finds the first ProviderError in err's chain.
func AsProviderError(err error) (ProviderError, bool) {
	if err == nil {
		return nil, false
	}
	var perr ProviderError
	if stderrors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

// IsProviderError checks if an error is a ProviderError
func IsProviderError(err error) bool {
	_, ok := AsProviderError(err)
	return ok
}

// IsCategory checks if an error is of a specific category
func IsCategory(err error, category Category) bool {
	if perr, ok := AsProviderError(err); ok {
		return perr.Category() == category
	}
	return false
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code int) bool {
	if perr, ok := AsProviderError(err); ok {
		return perr.Code() == code
	}
	return false
}

// IsContractViolation reports whether err is a broken precondition.
func IsContractViolation(err error) bool {
	return IsCategory(err, CategoryContract)
}
