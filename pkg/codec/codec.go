// Package codec holds the formatters that encode and decode application
// messages over a connection's byte stream.
//
// A Formatter returned for a connection is owned by that connection. Stateful
// formatters such as LineJSON buffer reads and must not be shared; the
// constructors in this package always return fresh instances.
package codec

import (
	"io"
	"sort"
	"sync"

	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
)

// Formatter encodes and decodes messages for one connection.
type Formatter interface {
	// Name identifies the wire format, e.g. "json".
	Name() string
	// Encode writes one message to w.
	Encode(w io.Writer, v interface{}) error
	// Decode reads exactly one message from r into v.
	Decode(r io.Reader, v interface{}) error
}

// Constructor builds a fresh Formatter.
type Constructor func() Formatter

// DefaultName is the formatter used when an initializer does not pick one.
const DefaultName = "json"

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{
		"json":   func() Formatter { return NewLengthPrefixedJSON(DefaultMaxFrameSize) },
		"ndjson": func() Formatter { return NewLineJSON(DefaultMaxFrameSize) },
	}
)

// Register adds or replaces a named formatter constructor.
func Register(name string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = ctor
}

// Lookup returns a new formatter registered under name.
func Lookup(name string) (Formatter, error) {
	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, perrors.UnknownFormatter(name)
	}
	return ctor(), nil
}

// Default returns a new instance of the provider's default formatter.
func Default() Formatter {
	f, err := Lookup(DefaultName)
	if err != nil {
		return NewLengthPrefixedJSON(DefaultMaxFrameSize)
	}
	return f
}

// Names lists registered formatter names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
