package initializer_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tcpprovider-go/pkg/codec"
	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
	"github.com/ajitpratap0/tcpprovider-go/pkg/initializer"
	"github.com/ajitpratap0/tcpprovider-go/pkg/initializer/initializertest"
)

var testEndpoint = &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}

// emptyAddr renders as an empty string.
type emptyAddr struct{}

func (emptyAddr) Network() string { return "tcp" }
func (emptyAddr) String() string  { return "" }

func pipe(t *testing.T) net.Conn {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a
}

// recoverError runs fn and returns the error it panicked with.
func recoverError(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		var ok bool
		err, ok = r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
	}()
	fn()
	return nil
}

func TestContractRejectsNilEndpoint(t *testing.T) {
	var typedNil *net.TCPAddr

	tests := []struct {
		name     string
		endpoint net.Addr
	}{
		{"nil interface", nil},
		{"typed nil pointer", typedNil},
		{"empty address", emptyAddr{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := initializertest.NewRecorder()
			c := initializer.Contract(rec)
			id := initializer.ListenerIdentity{ServerNumber: 1, EndPoint: tt.endpoint}

			err := recoverError(t, func() { c.ListenerStarted(id) })
			assert.True(t, perrors.IsContractViolation(err))
			assert.True(t, perrors.IsCode(err, perrors.CodeNilEndpoint))

			err = recoverError(t, func() { c.ListenerStopped(id) })
			assert.True(t, perrors.IsCode(err, perrors.CodeNilEndpoint))

			assert.Empty(t, rec.Calls(), "host must not see rejected calls")
		})
	}
}

func TestContractRejectsNilSocket(t *testing.T) {
	var typedNil *net.TCPConn
	rec := initializertest.NewRecorder()
	c := initializer.Contract(rec)

	for _, conn := range []net.Conn{nil, typedNil} {
		err := recoverError(t, func() { _ = c.Prepare(conn) })
		assert.True(t, perrors.IsCode(err, perrors.CodeNilSocket))
	}
	assert.Zero(t, rec.Count(initializertest.KindPrepare))
}

func TestContractForwardsUnchanged(t *testing.T) {
	rec := initializertest.NewRecorder()
	rec.FormatterFunc = func() codec.Formatter { return codec.NewLineJSON(0) }
	c := initializer.Contract(rec)

	id := initializer.ListenerIdentity{ServerNumber: 3, EndPoint: testEndpoint}
	conn := pipe(t)

	c.ListenerStarted(id)
	require.NoError(t, c.Prepare(conn))
	f := c.NewFormatter()
	c.ListenerStopped(id)

	require.NotNil(t, f)
	assert.Equal(t, "ndjson", f.Name())

	calls := rec.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, initializertest.KindStarted, calls[0].Kind)
	assert.Equal(t, 3, calls[0].ServerNumber)
	assert.Equal(t, testEndpoint, calls[0].EndPoint)
	assert.Equal(t, initializertest.SocketKey(conn), calls[1].Socket)
	assert.Equal(t, "ndjson", calls[2].Formatter)
	assert.Equal(t, initializertest.KindStopped, calls[3].Kind)
	assert.NoError(t, rec.CheckOrdering())
}

func TestContractPassesPrepareErrorThrough(t *testing.T) {
	want := assert.AnError
	rec := initializertest.NewRecorder()
	rec.PrepareFunc = func(net.Conn) error { return want }

	err := initializer.Contract(rec).Prepare(pipe(t))
	assert.Same(t, want, err)
}

func TestContractTerminalStub(t *testing.T) {
	stub := initializer.Contract(nil)
	id := initializer.ListenerIdentity{ServerNumber: 1, EndPoint: testEndpoint}

	assert.NotPanics(t, func() {
		stub.ListenerStarted(id)
		stub.ListenerStopped(id)
	})
	assert.NoError(t, stub.Prepare(pipe(t)))
	assert.Nil(t, stub.NewFormatter())

	// The stub still validates.
	assert.Panics(t, func() { _ = stub.Prepare(nil) })
}

func TestContractIsIdempotent(t *testing.T) {
	c := initializer.Contract(initializer.Nop{})
	assert.Same(t, c, initializer.Contract(c))

	u, ok := c.(interface {
		Unwrap() initializer.Initializer
	})
	require.True(t, ok)
	assert.Equal(t, initializer.Nop{}, u.Unwrap())
}

func TestValidateFunctions(t *testing.T) {
	assert.NoError(t, initializer.ValidateListener("op", initializer.ListenerIdentity{EndPoint: testEndpoint}))
	assert.Error(t, initializer.ValidateListener("op", initializer.ListenerIdentity{}))
	assert.NoError(t, initializer.ValidateSocket("op", pipe(t)))

	err := initializer.ValidateSocket("Prepare", nil)
	require.Error(t, err)
	pe, ok := perrors.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, perrors.SeverityCritical, pe.Severity())
}

func TestListenerIdentityString(t *testing.T) {
	assert.Equal(t, "#2@127.0.0.1:8080", initializer.ListenerIdentity{ServerNumber: 2, EndPoint: testEndpoint}.String())
	assert.Equal(t, "#0@<nil>", initializer.ListenerIdentity{}.String())
}

func TestFuncsDefaultsToNop(t *testing.T) {
	var f initializer.Funcs
	assert.NoError(t, f.Prepare(pipe(t)))
	assert.Nil(t, f.NewFormatter())
	assert.NotPanics(t, func() { f.ListenerStarted(initializer.ListenerIdentity{}) })
}
