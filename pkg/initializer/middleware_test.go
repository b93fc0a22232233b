package initializer_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tcpprovider-go/pkg/codec"
	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
	"github.com/ajitpratap0/tcpprovider-go/pkg/initializer"
	"github.com/ajitpratap0/tcpprovider-go/pkg/initializer/initializertest"
	"github.com/ajitpratap0/tcpprovider-go/pkg/logging"
)

// tracing records the order middleware see a Prepare call.
func tracing(name string, order *[]string) initializer.Middleware {
	return initializer.MiddlewareFunc(func(next initializer.Initializer) initializer.Initializer {
		return initializer.Funcs{
			OnPrepare: func(conn net.Conn) error {
				*order = append(*order, name)
				return next.Prepare(conn)
			},
		}
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	rec := initializertest.NewRecorder()
	rec.PrepareFunc = func(net.Conn) error {
		order = append(order, "host")
		return nil
	}

	wrapped := initializer.Chain(
		tracing("first", &order),
		nil,
		tracing("second", &order),
	).Wrap(rec)

	require.NoError(t, wrapped.Prepare(pipe(t)))
	assert.Equal(t, []string{"first", "second", "host"}, order)
}

func TestEmptyChainReturnsNext(t *testing.T) {
	rec := initializertest.NewRecorder()
	assert.Same(t, rec, initializer.Chain().Wrap(rec))
}

// safeBuffer serializes writes from concurrent loggers.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) entries(t *testing.T) []map[string]interface{} {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func newJSONLogger(buf *safeBuffer) logging.Logger {
	logger := logging.New(buf, logging.NewJSONFormatter())
	logger.SetLevel(logging.DebugLevel)
	return logger
}

func TestLoggingMiddleware(t *testing.T) {
	buf := &safeBuffer{}
	rec := initializertest.NewRecorder()
	rec.FormatterFunc = func() codec.Formatter { return codec.NewLineJSON(0) }

	wrapped := initializer.NewLoggingMiddleware(newJSONLogger(buf)).Wrap(rec)
	id := initializer.ListenerIdentity{ServerNumber: 4, EndPoint: testEndpoint}

	wrapped.ListenerStarted(id)
	require.NoError(t, wrapped.Prepare(pipe(t)))
	wrapped.NewFormatter()
	wrapped.ListenerStopped(id)

	entries := buf.entries(t)
	require.Len(t, entries, 4)

	assert.Equal(t, "listener started", entries[0]["message"])
	assert.Equal(t, float64(4), entries[0]["server_number"])
	assert.Equal(t, "127.0.0.1:8080", entries[0]["endpoint"])
	assert.Equal(t, "initializer", entries[0]["component"])

	assert.Equal(t, "socket prepared", entries[1]["message"])
	assert.Equal(t, "DEBUG", entries[1]["level"])

	assert.Equal(t, "formatter selected", entries[2]["message"])
	assert.Equal(t, "ndjson", entries[2]["formatter"])

	assert.Equal(t, "listener stopped", entries[3]["message"])
	assert.Equal(t, 4, len(rec.Calls()))
}

func TestLoggingMiddlewareLogsPrepareFailure(t *testing.T) {
	buf := &safeBuffer{}
	rec := initializertest.NewRecorder()
	cause := perrors.ConnectionSetupFailed("server", "prepare", "", errors.New("setsockopt: invalid argument"))
	rec.PrepareFunc = func(net.Conn) error { return cause }

	wrapped := initializer.NewLoggingMiddleware(newJSONLogger(buf)).Wrap(rec)
	assert.Same(t, cause, wrapped.Prepare(pipe(t)))
	assert.Nil(t, wrapped.NewFormatter())

	entries := buf.entries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, "socket preparation failed", entries[0]["message"])
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, string(perrors.CategoryConnection), entries[0]["error_category"])
	assert.Equal(t, "default", entries[1]["formatter"])
}

func TestRecoveryMiddlewareSwallowsNotificationPanics(t *testing.T) {
	buf := &safeBuffer{}
	rec := initializertest.NewRecorder()
	rec.StartedFunc = func(initializer.ListenerIdentity) { panic("observer failed") }

	wrapped := initializer.NewRecoveryMiddleware(newJSONLogger(buf)).Wrap(rec)
	id := initializer.ListenerIdentity{ServerNumber: 1, EndPoint: testEndpoint}

	assert.NotPanics(t, func() { wrapped.ListenerStarted(id) })
	assert.Equal(t, 1, rec.Count(initializertest.KindStarted))

	entries := buf.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "listener notification panicked", entries[0]["message"])
	assert.Equal(t, "observer failed", entries[0]["panic"])
}

func TestRecoveryMiddlewareConvertsPreparePanic(t *testing.T) {
	rec := initializertest.NewRecorder()
	rec.PrepareFunc = func(net.Conn) error { panic("bad socket option") }

	wrapped := initializer.NewRecoveryMiddleware(nil).Wrap(rec)

	var err error
	require.NotPanics(t, func() { err = wrapped.Prepare(pipe(t)) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad socket option")
}

func TestRecoveryInsideContractKeepsViolations(t *testing.T) {
	wrapped := initializer.Chain(
		initializer.ContractMiddleware(),
		initializer.NewRecoveryMiddleware(nil),
	).Wrap(initializertest.NewRecorder())

	err := recoverError(t, func() { _ = wrapped.Prepare(nil) })
	assert.True(t, perrors.IsContractViolation(err))
}
