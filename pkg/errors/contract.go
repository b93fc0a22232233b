package errors

import "fmt"

// ContractErrorData describes a broken precondition.
type ContractErrorData struct {
	Operation string `json:"operation"`
	Argument  string `json:"argument"`
	Got       string `json:"got,omitempty"`
}

// ContractViolation creates an error for a precondition that did not hold.
func ContractViolation(operation, argument, reason string) ProviderError {
	return NewError(
		CodeContractViolation,
		fmt.Sprintf("contract violation in %s: %s %s", operation, argument, reason),
		CategoryContract,
		SeverityCritical,
	).WithData(&ContractErrorData{
		Operation: operation,
		Argument:  argument,
	}).WithContext(&Context{Component: "initializer", Operation: operation})
}

// NilEndpoint creates the error raised when a listener notification has no endpoint.
func NilEndpoint(operation string, serverNumber int) ProviderError {
	return NewError(
		CodeNilEndpoint,
		fmt.Sprintf("contract violation in %s: endPoint must not be nil or empty", operation),
		CategoryContract,
		SeverityCritical,
	).WithData(&ContractErrorData{
		Operation: operation,
		Argument:  "endPoint",
		Got:       "nil",
	}).WithContext(&Context{Component: "initializer", Operation: operation, ServerNumber: serverNumber})
}

// NilSocket creates the error raised when socket preparation receives no socket.
func NilSocket(operation string) ProviderError {
	return NewError(
		CodeNilSocket,
		fmt.Sprintf("contract violation in %s: socket must not be nil", operation),
		CategoryContract,
		SeverityCritical,
	).WithData(&ContractErrorData{
		Operation: operation,
		Argument:  "socket",
		Got:       "nil",
	}).WithContext(&Context{Component: "initializer", Operation: operation})
}
