package initializer

import (
	"net"
	"time"

	"github.com/ajitpratap0/tcpprovider-go/pkg/codec"
	"github.com/ajitpratap0/tcpprovider-go/pkg/logging"
)

// LoggingMiddleware logs every initializer call.
type LoggingMiddleware struct {
	logger logging.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger logging.Logger) Middleware {
	if logger == nil {
		logger = logging.Nop()
	}
	return &LoggingMiddleware{
		logger: logger.WithFields(logging.String("component", "initializer")),
	}
}

// Wrap implements the Middleware interface
func (lm *LoggingMiddleware) Wrap(next Initializer) Initializer {
	return &loggingInitializer{forwarder: forwarder{next: next}, logger: lm.logger}
}

type loggingInitializer struct {
	forwarder
	logger logging.Logger
}

func (li *loggingInitializer) ListenerStarted(id ListenerIdentity) {
	li.logger.Info("listener started",
		logging.Int("server_number", id.ServerNumber),
		logging.Addr("endpoint", id.EndPoint))
	li.next.ListenerStarted(id)
}

func (li *loggingInitializer) ListenerStopped(id ListenerIdentity) {
	li.next.ListenerStopped(id)
	li.logger.Info("listener stopped",
		logging.Int("server_number", id.ServerNumber),
		logging.Addr("endpoint", id.EndPoint))
}

func (li *loggingInitializer) Prepare(conn net.Conn) error {
	start := time.Now()
	err := li.next.Prepare(conn)
	fields := []logging.Field{
		logging.String("operation", "prepare"),
		logging.Addr("local", conn.LocalAddr()),
		logging.Addr("remote", conn.RemoteAddr()),
		logging.Duration("duration", time.Since(start)),
	}
	if err != nil {
		li.logger.WithError(err).Warn("socket preparation failed", fields...)
		return err
	}
	li.logger.Debug("socket prepared", fields...)
	return nil
}

func (li *loggingInitializer) NewFormatter() codec.Formatter {
	f := li.next.NewFormatter()
	name := "default"
	if f != nil {
		name = f.Name()
	}
	li.logger.Debug("formatter selected",
		logging.String("operation", "formatter"),
		logging.String("formatter", name))
	return f
}
