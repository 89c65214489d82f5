package registry

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/yadejumobi/foundrymesh/core"
)

// Load reads a standalone agents file (YAML, JSON or anything else viper
// understands) and builds a registry from its "agents" list.
//
// Expected shape:
//
//	agents:
//	  - name: inventory
//	    endpoint: http://inventory.internal/api/query
//	    schema_tag: products
//	    role: product availability and pricing
//	    timeout: 5s
func Load(path string) (*Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read agents file: %w", err)
	}

	var descriptors []core.AgentDescriptor
	if err := v.UnmarshalKey("agents", &descriptors); err != nil {
		return nil, fmt.Errorf("decode agents file: %w", err)
	}
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("agents file %s declares no agents", path)
	}

	return New(descriptors...)
}
