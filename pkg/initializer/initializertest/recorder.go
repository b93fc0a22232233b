// Package initializertest provides a recording Initializer for tests of code
// that drives initializers.
package initializertest

import (
	"fmt"
	"net"
	"reflect"
	"sync"
	"time"

	"github.com/ajitpratap0/tcpprovider-go/pkg/codec"
	"github.com/ajitpratap0/tcpprovider-go/pkg/initializer"
)

// Kind names a recorded call.
type Kind string

const (
	KindStarted   Kind = "started"
	KindStopped   Kind = "stopped"
	KindPrepare   Kind = "prepare"
	KindFormatter Kind = "formatter"
)

// Call is one recorded initializer call.
type Call struct {
	Kind         Kind
	ServerNumber int
	EndPoint     net.Addr
	// Socket identifies the prepared socket as "local->remote (pointer)".
	// The socket itself is borrowed and is not kept.
	Socket string
	// Formatter is the selected formatter name, empty for the default.
	Formatter string
}

// Recorder is a thread-safe Initializer that logs every call. StartedFunc
// and PrepareFunc run after their call is recorded; FormatterFunc runs first
// so the chosen name can be logged.
type Recorder struct {
	PrepareFunc   func(net.Conn) error
	FormatterFunc func() codec.Formatter
	StartedFunc   func(initializer.ListenerIdentity)

	mu      sync.Mutex
	calls   []Call
	changed chan struct{}
}

var _ initializer.Initializer = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{changed: make(chan struct{})}
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.changed == nil {
		r.changed = make(chan struct{})
	}
	r.calls = append(r.calls, c)
	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *Recorder) ListenerStarted(id initializer.ListenerIdentity) {
	r.record(Call{Kind: KindStarted, ServerNumber: id.ServerNumber, EndPoint: id.EndPoint})
	if r.StartedFunc != nil {
		r.StartedFunc(id)
	}
}

func (r *Recorder) ListenerStopped(id initializer.ListenerIdentity) {
	r.record(Call{Kind: KindStopped, ServerNumber: id.ServerNumber, EndPoint: id.EndPoint})
}

func (r *Recorder) Prepare(conn net.Conn) error {
	r.record(Call{Kind: KindPrepare, Socket: SocketKey(conn)})
	if r.PrepareFunc != nil {
		return r.PrepareFunc(conn)
	}
	return nil
}

func (r *Recorder) NewFormatter() codec.Formatter {
	var f codec.Formatter
	if r.FormatterFunc != nil {
		f = r.FormatterFunc()
	}
	name := ""
	if f != nil {
		name = f.Name()
	}
	r.record(Call{Kind: KindFormatter, Formatter: name})
	return f
}

// Calls returns a copy of the call log.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many calls of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// DefaultFormatterCount counts formatter selections that returned nil.
func (r *Recorder) DefaultFormatterCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Kind == KindFormatter && c.Formatter == "" {
			n++
		}
	}
	return n
}

// WaitFor blocks until at least n calls of kind are recorded or the timeout
// expires. It reports whether the count was reached.
func (r *Recorder) WaitFor(kind Kind, n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		r.mu.Lock()
		if r.changed == nil {
			r.changed = make(chan struct{})
		}
		changed := r.changed
		count := 0
		for _, c := range r.calls {
			if c.Kind == kind {
				count++
			}
		}
		r.mu.Unlock()

		if count >= n {
			return true
		}
		select {
		case <-changed:
		case <-deadline.C:
			return false
		}
	}
}

// CheckOrdering verifies the call log against the initializer call rules:
// every endpoint is non-nil, each listener sees at most one started followed
// by at most one stopped, every socket is prepared exactly once, and no
// formatter is selected before a matching preparation.
func (r *Recorder) CheckOrdering() error {
	calls := r.Calls()

	lifecycle := make(map[int][]Kind)
	prepared := make(map[string]int)
	prepares, formatters := 0, 0

	for i, c := range calls {
		switch c.Kind {
		case KindStarted, KindStopped:
			if c.EndPoint == nil {
				return fmt.Errorf("call %d: %s for server %d has nil endpoint", i, c.Kind, c.ServerNumber)
			}
			seen := lifecycle[c.ServerNumber]
			switch {
			case c.Kind == KindStarted && len(seen) != 0:
				return fmt.Errorf("call %d: server %d started again after %v", i, c.ServerNumber, seen)
			case c.Kind == KindStopped && (len(seen) != 1 || seen[0] != KindStarted):
				return fmt.Errorf("call %d: server %d stopped after %v", i, c.ServerNumber, seen)
			}
			lifecycle[c.ServerNumber] = append(seen, c.Kind)
		case KindPrepare:
			if c.Socket == "" {
				return fmt.Errorf("call %d: prepare with nil socket", i)
			}
			prepared[c.Socket]++
			if prepared[c.Socket] > 1 {
				return fmt.Errorf("call %d: socket %s prepared %d times", i, c.Socket, prepared[c.Socket])
			}
			prepares++
		case KindFormatter:
			formatters++
			if formatters > prepares {
				return fmt.Errorf("call %d: formatter selection %d precedes its preparation", i, formatters)
			}
		}
	}
	return nil
}

// SocketKey returns the identifier Recorder stores for conn, or "" for a
// nil socket.
func SocketKey(conn net.Conn) string {
	if conn == nil || reflect.ValueOf(conn).Kind() == reflect.Ptr && reflect.ValueOf(conn).IsNil() {
		return ""
	}
	local, remote := "<nil>", "<nil>"
	if a := conn.LocalAddr(); a != nil {
		local = a.String()
	}
	if a := conn.RemoteAddr(); a != nil {
		remote = a.String()
	}
	return fmt.Sprintf("%s->%s (%p)", local, remote, conn)
}
