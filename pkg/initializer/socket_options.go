package initializer

import (
	"net"
	"strconv"
	"time"

	"github.com/ajitpratap0/tcpprovider-go/pkg/codec"
	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
)

// SocketOptionsConfig holds the TCP options applied to every prepared socket.
// Durations are encoded in JSON as nanoseconds.
type SocketOptionsConfig struct {
	// NoDelay disables Nagle's algorithm.
	NoDelay bool `json:"no_delay"`

	KeepAlive         bool          `json:"keep_alive"`
	KeepAliveIdle     time.Duration `json:"keep_alive_idle,omitempty"`
	KeepAliveInterval time.Duration `json:"keep_alive_interval,omitempty"`
	KeepAliveCount    int           `json:"keep_alive_count,omitempty"`

	// Zero leaves the kernel default.
	ReadBuffer  int `json:"read_buffer,omitempty"`
	WriteBuffer int `json:"write_buffer,omitempty"`

	// Linger is passed to SetLinger when set.
	Linger *int `json:"linger,omitempty"`

	// UserTimeout sets TCP_USER_TIMEOUT. Ignored outside Linux.
	UserTimeout time.Duration `json:"user_timeout,omitempty"`

	// Formatter names a registered codec. Empty selects the provider default.
	Formatter string `json:"formatter,omitempty"`
}

// DefaultSocketOptionsConfig returns low-latency defaults with keep-alive on.
func DefaultSocketOptionsConfig() SocketOptionsConfig {
	return SocketOptionsConfig{
		NoDelay:           true,
		KeepAlive:         true,
		KeepAliveIdle:     30 * time.Second,
		KeepAliveInterval: 15 * time.Second,
		KeepAliveCount:    4,
	}
}

// Validate checks the configuration
func (c SocketOptionsConfig) Validate() error {
	if c.KeepAliveIdle < 0 {
		return perrors.InvalidConfig("keep_alive_idle", c.KeepAliveIdle.String(), "non-negative duration")
	}
	if c.KeepAliveInterval < 0 {
		return perrors.InvalidConfig("keep_alive_interval", c.KeepAliveInterval.String(), "non-negative duration")
	}
	if c.KeepAliveCount < 0 {
		return perrors.InvalidConfig("keep_alive_count", strconv.Itoa(c.KeepAliveCount), "non-negative integer")
	}
	if c.ReadBuffer < 0 {
		return perrors.InvalidConfig("read_buffer", strconv.Itoa(c.ReadBuffer), "non-negative integer")
	}
	if c.WriteBuffer < 0 {
		return perrors.InvalidConfig("write_buffer", strconv.Itoa(c.WriteBuffer), "non-negative integer")
	}
	if c.UserTimeout < 0 {
		return perrors.InvalidConfig("user_timeout", c.UserTimeout.String(), "non-negative duration")
	}
	if c.Formatter != "" {
		if _, err := codec.Lookup(c.Formatter); err != nil {
			return err
		}
	}
	return nil
}

// SocketOptions is an Initializer that tunes TCP sockets and picks a
// formatter by name. Non-TCP connections are left untouched.
type SocketOptions struct {
	Nop
	config SocketOptionsConfig
}

// NewSocketOptions validates config and returns the initializer.
func NewSocketOptions(config SocketOptionsConfig) (*SocketOptions, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SocketOptions{config: config}, nil
}

// Config returns the applied configuration
func (s *SocketOptions) Config() SocketOptionsConfig {
	return s.config
}

// Prepare applies the configured options. The first failing option aborts
// the preparation.
func (s *SocketOptions) Prepare(conn net.Conn) error {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	c := s.config

	if err := tc.SetNoDelay(c.NoDelay); err != nil {
		return err
	}
	if err := tc.SetKeepAliveConfig(net.KeepAliveConfig{
		Enable:   c.KeepAlive,
		Idle:     c.KeepAliveIdle,
		Interval: c.KeepAliveInterval,
		Count:    c.KeepAliveCount,
	}); err != nil {
		return err
	}
	if c.ReadBuffer > 0 {
		if err := tc.SetReadBuffer(c.ReadBuffer); err != nil {
			return err
		}
	}
	if c.WriteBuffer > 0 {
		if err := tc.SetWriteBuffer(c.WriteBuffer); err != nil {
			return err
		}
	}
	if c.Linger != nil {
		if err := tc.SetLinger(*c.Linger); err != nil {
			return err
		}
	}
	if c.UserTimeout > 0 {
		if err := setUserTimeout(tc, c.UserTimeout); err != nil {
			return err
		}
	}
	return nil
}

// NewFormatter returns a fresh instance of the configured formatter, or nil
// for the provider default.
func (s *SocketOptions) NewFormatter() codec.Formatter {
	if s.config.Formatter == "" {
		return nil
	}
	f, err := codec.Lookup(s.config.Formatter)
	if err != nil {
		// Validated at construction; only a registry change can get here.
		return nil
	}
	return f
}
