package testutil

import (
	"time"

	"github.com/yadejumobi/foundrymesh/core"
)

// DescriptorBuilder helps construct agent descriptors with fluent chaining
// for tests. Example:
//
//	desc := NewDescriptorBuilder("inventory").SchemaTag("products").Role("product search").Build()
type DescriptorBuilder struct {
	desc core.AgentDescriptor
}

// NewDescriptorBuilder creates a new builder for a descriptor with the given
// capability name. The endpoint defaults to "stub://<name>" and the mode to
// stub so tests never touch the network unless they ask to.
func NewDescriptorBuilder(name string) *DescriptorBuilder {
	return &DescriptorBuilder{desc: core.AgentDescriptor{
		Name:     name,
		Endpoint: "stub://" + name,
		Mode:     core.ModeStub,
	}}
}

// Endpoint sets the invocation endpoint (chainable).
func (b *DescriptorBuilder) Endpoint(endpoint string) *DescriptorBuilder {
	b.desc.Endpoint = endpoint
	return b
}

// SchemaTag sets the required response field (chainable).
func (b *DescriptorBuilder) SchemaTag(tag string) *DescriptorBuilder {
	b.desc.SchemaTag = tag
	return b
}

// Role sets the free-text role description (chainable).
func (b *DescriptorBuilder) Role(role string) *DescriptorBuilder {
	b.desc.Role = role
	return b
}

// Mode sets the transport mode (chainable).
func (b *DescriptorBuilder) Mode(mode string) *DescriptorBuilder {
	b.desc.Mode = mode
	return b
}

// Timeout sets the per-invocation timeout (chainable).
func (b *DescriptorBuilder) Timeout(d time.Duration) *DescriptorBuilder {
	b.desc.Timeout = d
	return b
}

// Build returns the assembled descriptor.
func (b *DescriptorBuilder) Build() core.AgentDescriptor {
	return b.desc
}

// RetailDescriptors returns the four standard retail capabilities used
// across tests: inventory, matchmaking, location and navigation, each with
// its schema tag and a router-friendly role.
func RetailDescriptors() []core.AgentDescriptor {
	return []core.AgentDescriptor{
		NewDescriptorBuilder("inventory").SchemaTag("products").Role("product catalog search").Build(),
		NewDescriptorBuilder("location").SchemaTag("stores").Role("store location lookup").Build(),
		NewDescriptorBuilder("matchmaking").SchemaTag("matches").Role("product recommendation matching").Build(),
		NewDescriptorBuilder("navigation").SchemaTag("directions").Role("in-store navigation directions").Build(),
	}
}
