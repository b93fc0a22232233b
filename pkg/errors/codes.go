package errors

// Contract Errors (1000 to 1099)
const (
	CodeContractViolation int = 1000 // Generic precondition failure
	CodeNilEndpoint       int = 1001 // Listener notification without an endpoint
	CodeNilSocket         int = 1002 // Socket preparation without a socket
)

// Configuration Errors (1100 to 1199)
const (
	CodeInvalidConfig      int = 1100 // Configuration failed validation
	CodeUnknownInitializer int = 1101 // Descriptor names an unregistered type
	CodeInvalidDescriptor  int = 1102 // Descriptor arguments could not be decoded
	CodeUnknownFormatter   int = 1103 // Formatter name not registered
)

// Connection Errors (1200 to 1299)
const (
	CodeConnectionSetupFailed int = 1200 // Socket preparation or formatter selection failed
	CodeDialFailed            int = 1201 // Outbound connect failed
	CodeConnectionClosed      int = 1202 // Operation on a closed connection
)

// Listener Errors (1300 to 1399)
const (
	CodeListenerBindFailed   int = 1300 // bind/listen failed before the listener started
	CodeListenerAcceptFailed int = 1301 // accept loop failed
	CodeListenerAlreadyUsed  int = 1302 // Serve called more than once
)

// Formatter Errors (1400 to 1499)
const (
	CodeFrameTooLarge int = 1400 // Frame exceeds the configured maximum
	CodeEncodeFailed  int = 1401
	CodeDecodeFailed  int = 1402
)

// ErrorCodeInfo provides human-readable information about error codes
type ErrorCodeInfo struct {
	Code        int
	Name        string
	Description string
	Category    Category
	Severity    Severity
}

var errorCodeRegistry = map[int]ErrorCodeInfo{
	CodeContractViolation: {CodeContractViolation, "ContractViolation", "Precondition violated", CategoryContract, SeverityCritical},
	CodeNilEndpoint:       {CodeNilEndpoint, "NilEndpoint", "Listener endpoint is nil or empty", CategoryContract, SeverityCritical},
	CodeNilSocket:         {CodeNilSocket, "NilSocket", "Socket handle is nil", CategoryContract, SeverityCritical},

	CodeInvalidConfig:      {CodeInvalidConfig, "InvalidConfig", "Invalid configuration", CategoryConfig, SeverityError},
	CodeUnknownInitializer: {CodeUnknownInitializer, "UnknownInitializer", "Initializer type not registered", CategoryConfig, SeverityError},
	CodeInvalidDescriptor:  {CodeInvalidDescriptor, "InvalidDescriptor", "Initializer arguments invalid", CategoryConfig, SeverityError},
	CodeUnknownFormatter:   {CodeUnknownFormatter, "UnknownFormatter", "Formatter not registered", CategoryConfig, SeverityError},

	CodeConnectionSetupFailed: {CodeConnectionSetupFailed, "ConnectionSetupFailed", "Connection could not be established", CategoryConnection, SeverityError},
	CodeDialFailed:            {CodeDialFailed, "DialFailed", "Outbound connect failed", CategoryConnection, SeverityError},
	CodeConnectionClosed:      {CodeConnectionClosed, "ConnectionClosed", "Connection closed", CategoryConnection, SeverityWarning},

	CodeListenerBindFailed:   {CodeListenerBindFailed, "ListenerBindFailed", "Listener could not bind", CategoryListener, SeverityCritical},
	CodeListenerAcceptFailed: {CodeListenerAcceptFailed, "ListenerAcceptFailed", "Listener accept loop failed", CategoryListener, SeverityError},
	CodeListenerAlreadyUsed:  {CodeListenerAlreadyUsed, "ListenerAlreadyUsed", "Listener already served", CategoryListener, SeverityError},

	CodeFrameTooLarge: {CodeFrameTooLarge, "FrameTooLarge", "Frame exceeds maximum size", CategoryFormatter, SeverityError},
	CodeEncodeFailed:  {CodeEncodeFailed, "EncodeFailed", "Message could not be encoded", CategoryFormatter, SeverityError},
	CodeDecodeFailed:  {CodeDecodeFailed, "DecodeFailed", "Message could not be decoded", CategoryFormatter, SeverityError},
}

// GetErrorCodeInfo returns information about an error code
func GetErrorCodeInfo(code int) (ErrorCodeInfo, bool) {
	info, exists := errorCodeRegistry[code]
	return info, exists
}

// GetErrorCodeName returns the name of an error code
func GetErrorCodeName(code int) string {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Name
	}
	return "UnknownError"
}

// GetErrorCodeCategory returns the category of an error code
func GetErrorCodeCategory(code int) Category {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Category
	}
	return CategoryInternal
}

// GetErrorCodeSeverity returns the severity of an error code
func GetErrorCodeSeverity(code int) Severity {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Severity
	}
	return SeverityError
}

// ListErrorCodes returns all registered error codes
func ListErrorCodes() []ErrorCodeInfo {
	codes := make([]ErrorCodeInfo, 0, len(errorCodeRegistry))
	for _, info := range errorCodeRegistry {
		codes = append(codes, info)
	}
	return codes
}
