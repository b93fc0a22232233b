package tcpprovider

import (
	"github.com/ajitpratap0/tcpprovider-go/pkg/initializer"
	"github.com/ajitpratap0/tcpprovider-go/pkg/provider"
)

// Version represents the current version of the module
const Version = "0.1.0"

// These exports provide direct access to the core components
var (
	// NewServer creates a TCP server
	NewServer = provider.NewServer

	// Dial connects to a TCP server
	Dial = provider.Dial

	// DefaultConfig returns a loopback configuration with the nop initializer
	DefaultConfig = provider.DefaultConfig

	// RegisterInitializer adds an initializer factory to the default registry
	RegisterInitializer = initializer.Register
)

// Type aliases for convenience
type (
	Config      = provider.Config
	Server      = provider.Server
	Conn        = provider.Conn
	Handler     = provider.Handler
	HandlerFunc = provider.HandlerFunc

	Initializer      = initializer.Initializer
	ListenerIdentity = initializer.ListenerIdentity
	Descriptor       = initializer.Descriptor
)
