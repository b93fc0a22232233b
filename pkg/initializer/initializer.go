package initializer

import (
	"fmt"
	"net"

	"github.com/ajitpratap0/tcpprovider-go/pkg/codec"
)

// ListenerIdentity identifies one listener among those hosted by a process.
type ListenerIdentity struct {
	// ServerNumber tells concurrent listeners in the same process apart.
	ServerNumber int
	// EndPoint is the bound address. Never nil in a notification.
	EndPoint net.Addr
}

// String renders the identity as "#<number>@<endpoint>".
func (id ListenerIdentity) String() string {
	if id.EndPoint == nil {
		return fmt.Sprintf("#%d@<nil>", id.ServerNumber)
	}
	return fmt.Sprintf("#%d@%s", id.ServerNumber, id.EndPoint.String())
}

// Initializer is implemented by hosts to customize transport setup.
type Initializer interface {
	// ListenerStarted is called once per listener after bind/listen succeeds.
	// It is an observer: the provider neither retries nor rolls back based on it.
	ListenerStarted(id ListenerIdentity)

	// ListenerStopped is called once per listener on shutdown, graceful or
	// not, and only for listeners whose ListenerStarted was called.
	ListenerStopped(id ListenerIdentity)

	// Prepare configures a socket before any I/O, e.g. disabling Nagle or
	// enabling keep-alive. conn is borrowed: it must not be closed or kept
	// after Prepare returns. An error aborts only this connection's setup.
	Prepare(conn net.Conn) error

	// NewFormatter returns the formatter for the socket just prepared, or nil
	// to use the provider default. The returned formatter belongs to that
	// connection from then on.
	NewFormatter() codec.Formatter
}

// Nop is an Initializer that changes nothing and selects the default formatter.
type Nop struct{}

func (Nop) ListenerStarted(ListenerIdentity) {}
func (Nop) ListenerStopped(ListenerIdentity) {}
func (Nop) Prepare(net.Conn) error           { return nil }
func (Nop) NewFormatter() codec.Formatter    { return nil }

// Funcs adapts plain functions to Initializer. Nil fields behave like Nop.
type Funcs struct {
	OnStarted   func(ListenerIdentity)
	OnStopped   func(ListenerIdentity)
	OnPrepare   func(net.Conn) error
	OnFormatter func() codec.Formatter
}

func (f Funcs) ListenerStarted(id ListenerIdentity) {
	if f.OnStarted != nil {
		f.OnStarted(id)
	}
}

func (f Funcs) ListenerStopped(id ListenerIdentity) {
	if f.OnStopped != nil {
		f.OnStopped(id)
	}
}

func (f Funcs) Prepare(conn net.Conn) error {
	if f.OnPrepare != nil {
		return f.OnPrepare(conn)
	}
	return nil
}

func (f Funcs) NewFormatter() codec.Formatter {
	if f.OnFormatter != nil {
		return f.OnFormatter()
	}
	return nil
}
