package provider

import (
	"context"
	"net"

	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
	"github.com/ajitpratap0/tcpprovider-go/pkg/logging"
)

// Dial connects to cfg.Address and runs the configured initializer on the
// new socket: one Prepare, then one NewFormatter. No listener
// notifications are made on the client side. Providers built for
// observability live until the returned Conn is closed.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.logger().WithFields(logging.String("component", "provider"))

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: -1}
	raw, err := d.DialContext(ctx, cfg.Network, cfg.Address)
	if err != nil {
		p.close(logger)
		dialErr := perrors.DialFailed(cfg.Address, cfg.DialTimeout, err)
		logger.WithError(dialErr).Warn("dial failed")
		return nil, dialErr
	}

	conn, err := p.setup(raw, sideClient, cfg.defaultFormatter())
	if err != nil {
		_ = raw.Close()
		p.close(logger)
		logSetupFailure(logger, cfg, err, logging.String("address", cfg.Address))
		return nil, err
	}

	conn.metrics = p.metrics
	release := conn.onClose
	conn.onClose = func() {
		release()
		p.close(logger)
	}

	logger.WithContext(logging.ContextWithConnectionID(ctx, conn.ID())).Debug("connected",
		logging.Addr("remote", conn.RemoteAddr()),
		logging.String("formatter", conn.FormatterName()))
	return conn, nil
}
