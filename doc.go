// Package tcpprovider is a TCP transport whose socket setup is delegated to a
// host-supplied initializer.
//
// The provider owns listening, accepting and dialing. The host customizes
// four points through initializer.Initializer:
//
//   - ListenerStarted, once after a listener binds
//   - ListenerStopped, once after that listener shuts down
//   - Prepare, once for every accepted or dialed socket, before any I/O
//   - NewFormatter, once per socket after Prepare; nil selects the default
//
// # Sub-packages
//
//   - pkg/initializer: the Initializer interface, the validating Contract
//     decorator, middleware, SocketOptions and the Descriptor registry
//   - pkg/provider: Server, Dial and Conn
//   - pkg/codec: formatters ("json" length-prefixed, "ndjson")
//   - pkg/observability: Prometheus metrics and OpenTelemetry tracing
//   - pkg/logging, pkg/errors: structured logs and errors
//
// # Serving
//
//	cfg := tcpprovider.DefaultConfig()
//	cfg.Address = ":7000"
//	cfg.Initializer = initializer.Descriptor{
//	    Type: initializer.TypeSocketOptions,
//	    Args: json.RawMessage(`{"no_delay":true,"formatter":"ndjson"}`),
//	}
//
//	srv, err := tcpprovider.NewServer(cfg, tcpprovider.HandlerFunc(
//	    func(ctx context.Context, conn *tcpprovider.Conn) {
//	        var msg map[string]any
//	        for conn.Receive(&msg) == nil {
//	            _ = conn.Send(msg)
//	        }
//	    }))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(srv.Serve(ctx))
//
// # Custom initializers
//
// Initializers are passed by description, not by value. Register a factory
// and name it in the config; Serve and Dial build the instance themselves:
//
//	initializer.Register("audit", func(args json.RawMessage) (initializer.Initializer, error) {
//	    return &auditInitializer{}, nil
//	})
//	cfg.Initializer = initializer.Descriptor{Type: "audit"}
package tcpprovider
