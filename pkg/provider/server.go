package provider

import (
	"context"
	"errors"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
	"github.com/ajitpratap0/tcpprovider-go/pkg/initializer"
	"github.com/ajitpratap0/tcpprovider-go/pkg/logging"
	"github.com/ajitpratap0/tcpprovider-go/pkg/observability"
)

// Handler serves one established connection. The server closes the
// connection when ServeConn returns. ctx is canceled on shutdown.
type Handler interface {
	ServeConn(ctx context.Context, conn *Conn)
}

// HandlerFunc is an adapter to allow the use of ordinary functions as handlers
type HandlerFunc func(ctx context.Context, conn *Conn)

// ServeConn implements Handler
func (f HandlerFunc) ServeConn(ctx context.Context, conn *Conn) { f(ctx, conn) }

var lastServerNumber atomic.Int64

// nextServerNumber hands out process-wide listener numbers starting at 1.
func nextServerNumber() int {
	return int(lastServerNumber.Add(1))
}

// Server accepts TCP connections and drives the initializer for each one.
// A Server serves once.
type Server struct {
	config  Config
	handler Handler
	number  int
	logger  logging.Logger

	used  atomic.Bool
	ready chan struct{}

	mu      sync.Mutex
	addr    net.Addr
	cancel  context.CancelFunc
	closed  bool
	conns   map[*Conn]struct{}
	metrics observability.MetricsProvider
}

// NewServer validates cfg and reserves a server number.
func NewServer(cfg Config, handler Handler) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, perrors.InvalidConfig("handler", "nil", "non-nil Handler")
	}

	number := cfg.ServerNumber
	if number == 0 {
		number = nextServerNumber()
	}

	return &Server{
		config:  cfg,
		handler: handler,
		number:  number,
		logger: cfg.logger().WithFields(
			logging.String("component", "provider"),
			logging.Int("server_number", number),
		),
		ready:   make(chan struct{}),
		conns:   make(map[*Conn]struct{}),
		metrics: observability.NopMetrics(),
	}, nil
}

// ServerNumber returns the number reported in listener notifications.
func (s *Server) ServerNumber() int { return s.number }

// Ready is closed once Serve has bound the listener or failed to.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound address, or nil before binding or after a failed bind.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Metrics returns the metrics provider of a running server. It records
// nothing unless observability is enabled.
func (s *Server) Metrics() observability.MetricsProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// Close stops the listener and closes active connections. Serve returns
// after in-flight setups and handlers have finished.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// Serve binds the listener and serves until ctx is canceled, Close is
// called or accepting fails for good. Clean shutdown returns nil.
//
// ListenerStarted is called after a successful bind and ListenerStopped
// after every connection goroutine has returned. A failed bind or
// initializer construction produces neither.
func (s *Server) Serve(ctx context.Context) error {
	if !s.used.CompareAndSwap(false, true) {
		return perrors.ListenerAlreadyUsed(s.number)
	}

	readyOnce := sync.OnceFunc(func() { close(s.ready) })
	defer readyOnce()

	p, err := buildPipeline(s.config, s.logger)
	if err != nil {
		s.logger.WithError(err).Error("failed to create initializer",
			logging.String("type", s.config.Initializer.Type))
		return err
	}

	lc := net.ListenConfig{KeepAlive: -1}
	ln, err := lc.Listen(ctx, s.config.Network, s.config.Address)
	if err != nil {
		p.close(s.logger)
		bindErr := perrors.ListenerBindFailed(s.number, s.config.Address, err)
		s.logger.WithError(bindErr).Error("listener bind failed")
		return bindErr
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		p.close(s.logger)
		return nil
	}
	s.addr = ln.Addr()
	s.cancel = cancel
	s.metrics = p.metrics
	s.mu.Unlock()
	readyOnce()

	id := initializer.ListenerIdentity{ServerNumber: s.number, EndPoint: ln.Addr()}
	p.init.ListenerStarted(id)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		_ = ln.Close()
		s.closeConns()
		return nil
	})

	g.Go(func() error {
		return s.acceptLoop(gctx, g, ln, p)
	})

	waitErr := g.Wait()
	p.init.ListenerStopped(id)
	p.close(s.logger)
	return waitErr
}

func (s *Server) acceptLoop(ctx context.Context, g *errgroup.Group, ln net.Listener, p *pipeline) error {
	delay := backoff.NewExponentialBackOff()
	delay.InitialInterval = 5 * time.Millisecond
	delay.MaxInterval = s.config.MaxAcceptDelay
	if delay.MaxInterval == 0 {
		delay.MaxInterval = time.Second
	}
	delay.MaxElapsedTime = 0
	delay.Reset()

	for {
		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if isTemporary(err) {
				wait := delay.NextBackOff()
				s.logger.WithError(err).Warn("accept failed, retrying", logging.Duration("retry_in", wait))
				select {
				case <-time.After(wait):
					continue
				case <-ctx.Done():
					return nil
				}
			}
			acceptErr := perrors.ListenerAcceptFailed(s.number, ln.Addr().String(), err)
			s.logger.WithError(acceptErr).Error("listener stopped accepting")
			return acceptErr
		}
		delay.Reset()

		g.Go(func() error {
			s.serveConn(ctx, raw, p)
			return nil
		})
	}
}

func (s *Server) serveConn(ctx context.Context, raw net.Conn, p *pipeline) {
	conn, err := p.setup(raw, sideServer, s.config.defaultFormatter())
	if err != nil {
		_ = raw.Close()
		logSetupFailure(s.logger, s.config, err, logging.Addr("remote", raw.RemoteAddr()))
		return
	}

	if !s.track(conn) {
		_ = conn.Close()
		return
	}
	defer func() {
		s.untrack(conn)
		_ = conn.Close()
	}()

	ctx = logging.ContextWithConnectionID(ctx, conn.ID())
	logger := s.logger.WithContext(ctx)
	logger.Debug("connection established",
		logging.Addr("remote", conn.RemoteAddr()),
		logging.String("formatter", conn.FormatterName()))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())))
		}
	}()
	s.handler.ServeConn(ctx, conn)
}

// track registers conn for shutdown. It fails once shutdown has begun.
func (s *Server) track(conn *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeConns() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for conn := range conns {
		_ = conn.Close()
	}
}

// ActiveConnections returns the number of connections being served.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// isTemporary matches accept errors worth retrying, such as EMFILE.
func isTemporary(err error) bool {
	var te interface{ Temporary() bool }
	return errors.As(err, &te) && te.Temporary()
}
