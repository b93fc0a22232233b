package errors

import (
	"fmt"
	"time"
)

// ConnectionErrorData contains structured data for connection-related errors
type ConnectionErrorData struct {
	Side          string        `json:"side"`
	Stage         string        `json:"stage,omitempty"`
	LocalAddress  string        `json:"local_address,omitempty"`
	RemoteAddress string        `json:"remote_address,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty"`
	Reason        string        `json:"reason,omitempty"`
}

// ListenerErrorData contains structured data for listener errors
type ListenerErrorData struct {
	ServerNumber int    `json:"server_number"`
	Address      string `json:"address,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

func reason(cause error) string {
	if cause == nil {
		return ""
	}
	return cause.Error()
}

// ConnectionSetupFailed reports that one connection could not be established.
// side is "client" or "server"; stage names the failing step ("prepare",
// "formatter"). Only that connection is affected.
func ConnectionSetupFailed(side, stage, remote string, cause error) ProviderError {
	message := fmt.Sprintf("%s connection setup failed during %s", side, stage)
	if remote != "" {
		message = fmt.Sprintf("%s connection setup with %s failed during %s", side, remote, stage)
	}
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}

	return WrapError(
		cause,
		CodeConnectionSetupFailed,
		message,
		CategoryConnection,
		SeverityError,
	).WithData(&ConnectionErrorData{
		Side:          side,
		Stage:         stage,
		RemoteAddress: remote,
		Reason:        reason(cause),
	})
}

// DialFailed reports an outbound connect failure.
func DialFailed(address string, timeout time.Duration, cause error) ProviderError {
	message := fmt.Sprintf("failed to connect to %s", address)
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}

	return WrapError(
		cause,
		CodeDialFailed,
		message,
		CategoryConnection,
		SeverityError,
	).WithData(&ConnectionErrorData{
		Side:          "client",
		Stage:         "dial",
		RemoteAddress: address,
		Timeout:       timeout,
		Reason:        reason(cause),
	})
}

// ConnectionClosed reports use of a connection after Close.
func ConnectionClosed(connectionID string) ProviderError {
	return NewError(
		CodeConnectionClosed,
		"connection closed",
		CategoryConnection,
		SeverityWarning,
	).WithContext(&Context{ConnectionID: connectionID, Component: "conn"})
}

// ListenerBindFailed reports a bind/listen failure. The listener never started.
func ListenerBindFailed(serverNumber int, address string, cause error) ProviderError {
	message := fmt.Sprintf("listener %d failed to bind %s", serverNumber, address)
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}

	return WrapError(
		cause,
		CodeListenerBindFailed,
		message,
		CategoryListener,
		SeverityCritical,
	).WithData(&ListenerErrorData{
		ServerNumber: serverNumber,
		Address:      address,
		Reason:       reason(cause),
	})
}

// ListenerAcceptFailed reports a fatal accept loop error.
func ListenerAcceptFailed(serverNumber int, address string, cause error) ProviderError {
	return WrapError(
		cause,
		CodeListenerAcceptFailed,
		fmt.Sprintf("listener %d on %s stopped accepting: %s", serverNumber, address, reason(cause)),
		CategoryListener,
		SeverityError,
	).WithData(&ListenerErrorData{
		ServerNumber: serverNumber,
		Address:      address,
		Reason:       reason(cause),
	})
}

// ListenerAlreadyUsed reports a second Serve call on the same server.
func ListenerAlreadyUsed(serverNumber int) ProviderError {
	return NewErrorf(CodeListenerAlreadyUsed, CategoryListener, SeverityError,
		"listener %d has already been served", serverNumber)
}
