package initializer

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	perrors "github.com/ajitpratap0/tcpprovider-go/pkg/errors"
)

// Descriptor names an initializer type and its arguments. The provider
// builds the Initializer from it inside its own serve or dial goroutine, so
// callers never hand a live object across that boundary.
type Descriptor struct {
	// Type is a registered factory name. Empty means "nop".
	Type string `json:"type"`
	// Args is decoded by the factory.
	Args json.RawMessage `json:"args,omitempty"`
}

// Factory builds an Initializer from descriptor arguments. args is nil when
// the descriptor carries none.
type Factory func(args json.RawMessage) (Initializer, error)

// Built-in initializer types
const (
	TypeNop           = "nop"
	TypeSocketOptions = "socket-options"
)

// Registry maps type names to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry holding the built-in types.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(TypeNop, func(json.RawMessage) (Initializer, error) {
		return Nop{}, nil
	})
	r.Register(TypeSocketOptions, newSocketOptionsFromArgs)
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(typeName string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typeName] = factory
}

// New builds the initializer a descriptor names.
func (r *Registry) New(d Descriptor) (Initializer, error) {
	typeName := d.Type
	if typeName == "" {
		typeName = TypeNop
	}

	r.mu.RLock()
	factory, ok := r.factories[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, perrors.UnknownInitializer(typeName)
	}

	var args json.RawMessage
	if len(bytes.TrimSpace(d.Args)) > 0 && !bytes.Equal(bytes.TrimSpace(d.Args), []byte("null")) {
		args = d.Args
	}

	in, err := factory(args)
	if err != nil {
		if perrors.IsProviderError(err) {
			return nil, err
		}
		return nil, perrors.InvalidDescriptor(typeName, err)
	}
	if isNil(in) {
		return nil, perrors.InvalidDescriptor(typeName, errors.New("factory returned a nil initializer"))
	}
	return in, nil
}

// Types lists registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Register adds a factory to the default registry.
func Register(typeName string, factory Factory) {
	defaultRegistry.Register(typeName, factory)
}

// New builds an initializer from the default registry.
func New(d Descriptor) (Initializer, error) {
	return defaultRegistry.New(d)
}

// DefaultRegistry returns the process-wide registry used by New.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// DecodeArgs strictly decodes descriptor arguments into v. Nil args leave v
// unchanged.
func DecodeArgs(args json.RawMessage, v interface{}) error {
	if args == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// socket-options args overlay DefaultSocketOptionsConfig.
func newSocketOptionsFromArgs(args json.RawMessage) (Initializer, error) {
	config := DefaultSocketOptionsConfig()
	if err := DecodeArgs(args, &config); err != nil {
		return nil, err
	}
	return NewSocketOptions(config)
}
