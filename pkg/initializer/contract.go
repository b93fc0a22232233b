package initializer

import (
	"net"
	"reflect"

	"github.com/ajitpratap0/tcpprovider-go/pkg/codec"
	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
)

// ValidateListener checks the listener notification precondition.
func ValidateListener(operation string, id ListenerIdentity) error {
	if isNil(id.EndPoint) || id.EndPoint.String() == "" {
		return perrors.NilEndpoint(operation, id.ServerNumber)
	}
	return nil
}

// ValidateSocket checks the socket preparation precondition.
func ValidateSocket(operation string, conn net.Conn) error {
	if isNil(conn) {
		return perrors.NilSocket(operation)
	}
	return nil
}

// isNil also catches typed nil pointers stored in an interface.
func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// contract checks preconditions and forwards unconditionally.
type contract struct {
	next Initializer
}

// Contract returns an Initializer that validates every call before
// forwarding it to next. A broken precondition panics with a
// CategoryContract error.
//
// With a nil next, the result is a terminal stub: validated no-ops and a nil
// formatter. Wrapping an existing contract returns it unchanged.
func Contract(next Initializer) Initializer {
	if c, ok := next.(*contract); ok {
		return c
	}
	return &contract{next: next}
}

// ContractMiddleware installs Contract in a middleware chain.
func ContractMiddleware() Middleware {
	return MiddlewareFunc(Contract)
}

func (c *contract) ListenerStarted(id ListenerIdentity) {
	if err := ValidateListener("ListenerStarted", id); err != nil {
		panic(err)
	}
	if c.next != nil {
		c.next.ListenerStarted(id)
	}
}

func (c *contract) ListenerStopped(id ListenerIdentity) {
	if err := ValidateListener("ListenerStopped", id); err != nil {
		panic(err)
	}
	if c.next != nil {
		c.next.ListenerStopped(id)
	}
}

func (c *contract) Prepare(conn net.Conn) error {
	if err := ValidateSocket("Prepare", conn); err != nil {
		panic(err)
	}
	if c.next == nil {
		return nil
	}
	return c.next.Prepare(conn)
}

// NewFormatter has no inputs to check.
func (c *contract) NewFormatter() codec.Formatter {
	if c.next == nil {
		return nil
	}
	return c.next.NewFormatter()
}

// Unwrap returns the decorated initializer, or nil for a terminal stub.
func (c *contract) Unwrap() Initializer {
	return c.next
}
