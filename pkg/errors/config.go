package errors

import "fmt"

// ConfigErrorData contains structured data for configuration errors
type ConfigErrorData struct {
	Field    string `json:"field"`
	Value    string `json:"value,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// InvalidConfig reports a configuration field that failed validation.
func InvalidConfig(field, value, expected string) ProviderError {
	return NewError(
		CodeInvalidConfig,
		fmt.Sprintf("invalid configuration %s=%q: expected %s", field, value, expected),
		CategoryConfig,
		SeverityError,
	).WithData(&ConfigErrorData{Field: field, Value: value, Expected: expected})
}

// UnknownInitializer reports a descriptor type with no registered factory.
func UnknownInitializer(typeName string) ProviderError {
	return NewError(
		CodeUnknownInitializer,
		fmt.Sprintf("no initializer registered for type %q", typeName),
		CategoryConfig,
		SeverityError,
	).WithData(&ConfigErrorData{Field: "type", Value: typeName})
}

// InvalidDescriptor reports descriptor arguments that a factory rejected.
func InvalidDescriptor(typeName string, cause error) ProviderError {
	return WrapError(
		cause,
		CodeInvalidDescriptor,
		fmt.Sprintf("invalid arguments for initializer %q: %s", typeName, reason(cause)),
		CategoryConfig,
		SeverityError,
	).WithData(&ConfigErrorData{Field: "args", Value: typeName})
}

// UnknownFormatter reports a formatter name with no registered constructor.
func UnknownFormatter(name string) ProviderError {
	return NewError(
		CodeUnknownFormatter,
		fmt.Sprintf("no formatter registered as %q", name),
		CategoryConfig,
		SeverityError,
	).WithData(&ConfigErrorData{Field: "formatter", Value: name})
}

// FrameTooLarge reports a frame beyond the formatter's size limit.
func FrameTooLarge(formatter string, size, limit int) ProviderError {
	return NewErrorf(CodeFrameTooLarge, CategoryFormatter, SeverityError,
		"%s frame of %d bytes exceeds limit of %d", formatter, size, limit)
}

// EncodeFailed wraps a formatter encoding failure.
func EncodeFailed(formatter string, cause error) ProviderError {
	return WrapError(cause, CodeEncodeFailed,
		fmt.Sprintf("%s encode failed: %s", formatter, reason(cause)),
		CategoryFormatter, SeverityError)
}

// DecodeFailed wraps a formatter decoding failure.
func DecodeFailed(formatter string, cause error) ProviderError {
	return WrapError(cause, CodeDecodeFailed,
		fmt.Sprintf("%s decode failed: %s", formatter, reason(cause)),
		CategoryFormatter, SeverityError)
}
