package provider

import (
	"strconv"
	"time"

	"github.com/ajitpratap0/tcpprovider-go/pkg/codec"
	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
	"github.com/ajitpratap0/tcpprovider-go/pkg/initializer"
	"github.com/ajitpratap0/tcpprovider-go/pkg/logging"
	"github.com/ajitpratap0/tcpprovider-go/pkg/observability"
)

// Config configures a Server or a Dial call.
type Config struct {
	// Network is "tcp", "tcp4" or "tcp6".
	Network string `json:"network"`
	// Address is the listen address for a Server and the remote address for Dial.
	Address string `json:"address"`

	// ServerNumber identifies the listener in notifications. Zero assigns
	// the next process-wide number.
	ServerNumber int `json:"server_number,omitempty"`

	// Initializer describes the host initializer. It is instantiated by
	// Serve or Dial, never by the caller.
	Initializer initializer.Descriptor `json:"initializer"`

	// DefaultFormatter is used when the initializer selects none.
	DefaultFormatter string `json:"default_formatter"`

	DialTimeout time.Duration `json:"dial_timeout"`

	// MaxAcceptDelay caps the backoff between temporary accept failures.
	MaxAcceptDelay time.Duration `json:"max_accept_delay"`

	Features      FeatureConfig                     `json:"features"`
	Observability observability.ObservabilityConfig `json:"observability"`

	// Registry resolves Initializer. Nil uses initializer.DefaultRegistry().
	Registry *initializer.Registry `json:"-"`
	// Middleware wrap the host initializer inside the built-in chain.
	Middleware []initializer.Middleware `json:"-"`
	Logger     logging.Logger           `json:"-"`
}

// FeatureConfig controls which initializer middleware the provider installs.
type FeatureConfig struct {
	EnableLogging       bool `json:"enable_logging"`
	EnableObservability bool `json:"enable_observability"`
}

// DefaultConfig returns a loopback configuration with the nop initializer.
func DefaultConfig() Config {
	return Config{
		Network:          "tcp",
		Address:          "127.0.0.1:0",
		Initializer:      initializer.Descriptor{Type: initializer.TypeNop},
		DefaultFormatter: codec.DefaultName,
		DialTimeout:      10 * time.Second,
		MaxAcceptDelay:   time.Second,
		Features: FeatureConfig{
			EnableLogging: true,
		},
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	switch c.Network {
	case "tcp", "tcp4", "tcp6":
	default:
		return perrors.InvalidConfig("network", c.Network, "tcp, tcp4 or tcp6")
	}
	if c.Address == "" {
		return perrors.InvalidConfig("address", c.Address, "host:port")
	}
	if c.ServerNumber < 0 {
		return perrors.InvalidConfig("server_number", strconv.Itoa(c.ServerNumber), "non-negative integer")
	}
	if c.DialTimeout < 0 {
		return perrors.InvalidConfig("dial_timeout", c.DialTimeout.String(), "non-negative duration")
	}
	if c.MaxAcceptDelay < 0 {
		return perrors.InvalidConfig("max_accept_delay", c.MaxAcceptDelay.String(), "non-negative duration")
	}
	if _, err := codec.Lookup(c.defaultFormatter()); err != nil {
		return err
	}
	return nil
}

func (c Config) defaultFormatter() string {
	if c.DefaultFormatter == "" {
		return codec.DefaultName
	}
	return c.DefaultFormatter
}

func (c Config) registry() *initializer.Registry {
	if c.Registry == nil {
		return initializer.DefaultRegistry()
	}
	return c.Registry
}

func (c Config) logger() logging.Logger {
	if c.Logger == nil {
		return logging.Nop()
	}
	return c.Logger
}
