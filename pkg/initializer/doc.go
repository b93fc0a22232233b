// Package initializer defines the extension point a host uses to customize
// the TCP provider's sockets.
//
// An Initializer observes listener lifecycle, prepares each socket before it
// carries traffic and picks the Formatter for that socket's byte stream:
//
//	ListenerStarted(id)          once, after bind/listen succeeded
//	  Prepare(conn)              once per socket (client or accepted)
//	  NewFormatter()             at most once per socket, after Prepare
//	ListenerStopped(id)          once, after every in-flight setup finished
//
// # Construction inside the provider
//
// Hosts never hand the provider a live Initializer. They hand it a
// Descriptor, a registered type name plus JSON arguments, and the provider
// constructs the instance itself from inside its own serve or dial goroutine:
//
//	cfg := provider.DefaultConfig()
//	cfg.Initializer = initializer.Descriptor{
//	    Type: "socket-options",
//	    Args: json.RawMessage(`{"no_delay":true,"formatter":"ndjson"}`),
//	}
//
// Custom types are added with Register.
//
// # Contract
//
// Contract wraps any Initializer and rejects nil endpoints and nil sockets
// before the wrapped implementation runs, so implementations never re-check
// them. Violations are programming errors: the decorator panics with a
// pkg/errors value in CategoryContract. ValidateListener and ValidateSocket
// expose the same checks as plain error returns.
//
// # Concurrency
//
// Prepare and NewFormatter run concurrently for different connections, and
// concurrently with notifications for other listeners. Implementations with
// shared mutable state must synchronize it themselves.
package initializer
