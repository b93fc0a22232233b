package provider

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ajitpratap0/tcpprovider-go/pkg/codec"
	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
	"github.com/ajitpratap0/tcpprovider-go/pkg/initializer"
	"github.com/ajitpratap0/tcpprovider-go/pkg/logging"
	"github.com/ajitpratap0/tcpprovider-go/pkg/observability"
)

const (
	sideServer = "server"
	sideClient = "client"

	shutdownTimeout = 5 * time.Second
)

// pipeline is the instantiated initializer chain plus what the provider
// needs to report on it.
type pipeline struct {
	init    initializer.Initializer
	metrics observability.MetricsProvider
	obs     *observability.ObservabilityMiddleware
}

// buildPipeline instantiates the configured initializer and wraps it:
// contract, observability, logging, recovery, caller middleware, host.
func buildPipeline(cfg Config, logger logging.Logger) (*pipeline, error) {
	host, err := cfg.registry().New(cfg.Initializer)
	if err != nil {
		return nil, err
	}

	p := &pipeline{metrics: observability.NopMetrics()}
	chain := []initializer.Middleware{initializer.ContractMiddleware()}

	if cfg.Features.EnableObservability {
		obs, err := observability.NewObservabilityMiddleware(cfg.Observability)
		if err != nil {
			return nil, err
		}
		p.obs = obs
		p.metrics = obs.Metrics()
		chain = append(chain, obs)
	}
	if cfg.Features.EnableLogging {
		chain = append(chain, initializer.NewLoggingMiddleware(logger))
	}
	chain = append(chain, initializer.NewRecoveryMiddleware(logger))
	chain = append(chain, cfg.Middleware...)

	p.init = initializer.Chain(chain...).Wrap(host)
	return p, nil
}

// close releases what buildPipeline started. It is safe to call more than
// once.
func (p *pipeline) close(logger logging.Logger) {
	if p.obs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := p.obs.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("failed to shut down tracing")
	}
}

// setup runs Prepare then NewFormatter on raw, each exactly once, and
// resolves the formatter. raw is not closed on failure.
func (p *pipeline) setup(raw net.Conn, side, defaultFormatter string) (*Conn, error) {
	start := time.Now()
	conn, err := p.setupConn(raw, side, defaultFormatter)
	status := "success"
	if err != nil {
		status = "failure"
	}
	p.metrics.RecordConnectionSetup(side, status, time.Since(start))
	if err != nil {
		return nil, err
	}

	p.metrics.RecordActiveConnections(side, 1)
	conn.onClose = func() { p.metrics.RecordActiveConnections(side, -1) }
	return conn, nil
}

func (p *pipeline) setupConn(raw net.Conn, side, defaultFormatter string) (*Conn, error) {
	id := logging.NewConnectionID()
	remote := ""
	if a := raw.RemoteAddr(); a != nil {
		remote = a.String()
	}
	fail := func(stage string, cause error) error {
		return perrors.ConnectionSetupFailed(side, stage, remote, cause).
			WithContext(&perrors.Context{
				ConnectionID:  id,
				RemoteAddress: remote,
				Component:     "provider",
				Operation:     stage,
			})
	}

	if err := p.init.Prepare(raw); err != nil {
		return nil, fail("prepare", err)
	}

	f, err := p.newFormatter()
	if err != nil {
		return nil, fail("formatter", err)
	}
	defaultChosen := f == nil
	if defaultChosen {
		if f, err = codec.Lookup(defaultFormatter); err != nil {
			return nil, fail("formatter", err)
		}
	}
	return newConn(id, raw, f, defaultChosen), nil
}

// logSetupFailure reports a failed setup. Prepare failures are already
// logged at warn by the logging middleware when it is enabled.
func logSetupFailure(logger logging.Logger, cfg Config, err error, fields ...logging.Field) {
	l := logger.WithError(err)
	if cfg.Features.EnableLogging && failedStage(err) == "prepare" {
		l.Debug("connection setup failed", fields...)
		return
	}
	l.Warn("connection setup failed", fields...)
}

func failedStage(err error) string {
	if pe, ok := perrors.AsProviderError(err); ok && pe.Context() != nil {
		return pe.Context().Operation
	}
	return ""
}

// newFormatter turns a host panic into an error. Contract violations are
// programming errors and keep unwinding.
func (p *pipeline) newFormatter() (f codec.Formatter, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && perrors.IsContractViolation(e) {
				panic(r)
			}
			err = fmt.Errorf("initializer panicked selecting formatter: %v", r)
		}
	}()
	return p.init.NewFormatter(), nil
}
