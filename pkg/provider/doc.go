// Package provider is the TCP listener and dialer that drive an
// initializer.Initializer.
//
// For every listener a Server reports ListenerStarted after binding and
// ListenerStopped once all of its connections are done. For every socket,
// accepted or dialed, it calls Prepare and then NewFormatter exactly once
// before any application data moves, falling back to the configured default
// formatter when the initializer returns nil. A failed preparation closes
// that socket only.
//
// The initializer itself is described by an initializer.Descriptor in Config
// and built inside Serve or Dial.
package provider
