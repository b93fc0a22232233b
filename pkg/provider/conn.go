package provider

import (
	"net"
	"sync"
	"time"

	"github.com/ajitpratap0/tcpprovider-go/pkg/codec"
	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
	"github.com/ajitpratap0/tcpprovider-go/pkg/observability"
)

// Conn is an established connection and the formatter chosen for it.
// Send and Receive may be called concurrently with each other; concurrent
// Sends are serialized, as are concurrent Receives.
type Conn struct {
	id            string
	raw           net.Conn
	formatter     codec.Formatter
	defaultChosen bool
	readMu        sync.Mutex
	writeMu       sync.Mutex
	closeOnce     sync.Once
	closed        chan struct{}
	closeErr      error
	onClose       func()
	metrics       observability.MetricsProvider
}

func newConn(id string, raw net.Conn, f codec.Formatter, defaultChosen bool) *Conn {
	return &Conn{
		id:            id,
		raw:           raw,
		formatter:     f,
		defaultChosen: defaultChosen,
		closed:        make(chan struct{}),
	}
}

// ID returns the connection identifier used in logs and errors.
func (c *Conn) ID() string { return c.id }

// FormatterName returns the wire format in use.
func (c *Conn) FormatterName() string { return c.formatter.Name() }

// UsesDefaultFormatter reports whether the initializer left the choice to
// the provider.
func (c *Conn) UsesDefaultFormatter() bool { return c.defaultChosen }

func (c *Conn) LocalAddr() net.Addr  { return c.raw.LocalAddr() }
func (c *Conn) RemoteAddr() net.Addr { return c.raw.RemoteAddr() }

func (c *Conn) SetDeadline(t time.Time) error      { return c.raw.SetDeadline(t) }
func (c *Conn) SetReadDeadline(t time.Time) error  { return c.raw.SetReadDeadline(t) }
func (c *Conn) SetWriteDeadline(t time.Time) error { return c.raw.SetWriteDeadline(t) }

// Metrics returns the metrics provider of a dialed connection. It records
// nothing unless observability is enabled.
func (c *Conn) Metrics() observability.MetricsProvider {
	if c.metrics == nil {
		return observability.NopMetrics()
	}
	return c.metrics
}

// Send encodes v onto the connection.
func (c *Conn) Send(v interface{}) error {
	if c.isClosed() {
		return perrors.ConnectionClosed(c.id)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.formatter.Encode(c.raw, v)
}

// Receive decodes the next message into v.
func (c *Conn) Receive(v interface{}) error {
	if c.isClosed() {
		return perrors.ConnectionClosed(c.id)
	}
	c.readMu.Lock()
	defer c.readMu.Unlock()
	return c.formatter.Decode(c.raw, v)
}

// Close closes the socket. Subsequent calls return the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.closeErr = c.raw.Close()
		if c.onClose != nil {
			c.onClose()
		}
	})
	return c.closeErr
}

// Done is closed when Close is called.
func (c *Conn) Done() <-chan struct{} { return c.closed }

func (c *Conn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
