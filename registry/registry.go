package registry

import (
	"fmt"
	"sort"

	"github.com/yadejumobi/foundrymesh/core"
)

// Registry is the in-memory core.Registry implementation. The descriptor map
// is never mutated after New returns, which makes every read lock-free.
type Registry struct {
	byName  map[string]core.AgentDescriptor
	ordered []core.AgentDescriptor
}

// New builds a registry from the given descriptors. Duplicate capability
// names are rejected; the last-writer-wins alternative would hide
// configuration mistakes.
func New(descriptors ...core.AgentDescriptor) (*Registry, error) {
	byName := make(map[string]core.AgentDescriptor, len(descriptors))
	for _, d := range descriptors {
		if d.Name == "" {
			return nil, fmt.Errorf("agent descriptor without a name")
		}
		if _, ok := byName[d.Name]; ok {
			return nil, fmt.Errorf("duplicate agent descriptor %q", d.Name)
		}
		byName[d.Name] = d
	}

	ordered := make([]core.AgentDescriptor, 0, len(byName))
	for _, d := range byName {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	return &Registry{byName: byName, ordered: ordered}, nil
}

// MustNew is New for static descriptor sets; it panics on invalid input.
func MustNew(descriptors ...core.AgentDescriptor) *Registry {
	r, err := New(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the descriptor registered for a capability name.
func (r *Registry) Resolve(name string) (core.AgentDescriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return core.AgentDescriptor{}, fmt.Errorf("%w: %q", core.ErrUnknownAgent, name)
	}
	return d, nil
}

// All returns every descriptor in stable name order.
func (r *Registry) All() []core.AgentDescriptor {
	out := make([]core.AgentDescriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int { return len(r.ordered) }
