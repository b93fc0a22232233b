package initializer

import (
	"fmt"
	"net"

	"github.com/ajitpratap0/tcpprovider-go/pkg/logging"
)

// RecoveryMiddleware shields the provider from host panics.
//
// A panic in a lifecycle notification is logged and dropped. A panic in
// Prepare becomes an error, failing only that connection. Place it inside
// ContractMiddleware so contract violations still propagate.
type RecoveryMiddleware struct {
	logger logging.Logger
}

// NewRecoveryMiddleware creates a new recovery middleware
func NewRecoveryMiddleware(logger logging.Logger) Middleware {
	if logger == nil {
		logger = logging.Nop()
	}
	return &RecoveryMiddleware{
		logger: logger.WithFields(logging.String("component", "initializer")),
	}
}

// Wrap implements the Middleware interface
func (rm *RecoveryMiddleware) Wrap(next Initializer) Initializer {
	return &recoveryInitializer{forwarder: forwarder{next: next}, logger: rm.logger}
}

type recoveryInitializer struct {
	forwarder
	logger logging.Logger
}

func (ri *recoveryInitializer) ListenerStarted(id ListenerIdentity) {
	defer ri.swallow("listener_started", id)
	ri.next.ListenerStarted(id)
}

func (ri *recoveryInitializer) ListenerStopped(id ListenerIdentity) {
	defer ri.swallow("listener_stopped", id)
	ri.next.ListenerStopped(id)
}

func (ri *recoveryInitializer) swallow(operation string, id ListenerIdentity) {
	if r := recover(); r != nil {
		ri.logger.Error("listener notification panicked",
			logging.String("operation", operation),
			logging.Int("server_number", id.ServerNumber),
			logging.Addr("endpoint", id.EndPoint),
			logging.Any("panic", r))
	}
}

func (ri *recoveryInitializer) Prepare(conn net.Conn) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("initializer panicked during prepare: %v", r)
		}
	}()
	return ri.next.Prepare(conn)
}
