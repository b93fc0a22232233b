package initializer

import (
	"net"

	"github.com/ajitpratap0/tcpprovider-go/pkg/codec"
)

// Middleware wraps an Initializer to add behavior around its calls.
type Middleware interface {
	Wrap(next Initializer) Initializer
}

// MiddlewareFunc is an adapter to allow the use of ordinary functions as middleware
type MiddlewareFunc func(Initializer) Initializer

// Wrap implements the Middleware interface
func (f MiddlewareFunc) Wrap(next Initializer) Initializer {
	return f(next)
}

// Chain composes middleware so that the first one is outermost.
func Chain(middleware ...Middleware) Middleware {
	return MiddlewareFunc(func(next Initializer) Initializer {
		for i := len(middleware) - 1; i >= 0; i-- {
			if middleware[i] == nil {
				continue
			}
			next = middleware[i].Wrap(next)
		}
		return next
	})
}

// forwarder delegates every call to next. Middleware embed it and override
// what they need.
type forwarder struct {
	next Initializer
}

func (f *forwarder) ListenerStarted(id ListenerIdentity) { f.next.ListenerStarted(id) }
func (f *forwarder) ListenerStopped(id ListenerIdentity) { f.next.ListenerStopped(id) }
func (f *forwarder) Prepare(conn net.Conn) error         { return f.next.Prepare(conn) }
func (f *forwarder) NewFormatter() codec.Formatter       { return f.next.NewFormatter() }
func (f *forwarder) Unwrap() Initializer                 { return f.next }
