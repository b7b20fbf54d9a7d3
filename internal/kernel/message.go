// Package kernel is the host side of the port protocol: it keeps the registry
// of component constructors, starts one instance per configured port, feeds
// each inbox with lifecycle messages and fans emitted records out to sinks.
package kernel

// Message is delivered to a component inbox.
type Message interface {
	Kind() string
}

// Init is the first message every component receives. It carries no payload.
type Init struct{}

// Kind implements Message.
func (Init) Kind() string { return "Init" }

// ConfigUpdated carries a component's untyped configuration.
type ConfigUpdated struct {
	Config any
}

// Kind implements Message.
func (ConfigUpdated) Kind() string { return "ConfigUpdated" }
