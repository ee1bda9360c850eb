package kvconfig

import (
	"fmt"

	"kvtoolkit/kv"
	"kvtoolkit/kv/boltkv"
	"kvtoolkit/kv/memkv"
)

// OpenStore builds the kv.Backend named by alias in cfg. A "boltkv" store
// opens (creating if absent) the bbolt file at its configured Path; a
// "memkv" store ignores Path and returns a fresh in-memory backend.
func (c *Config) OpenStore(alias string) (kv.Backend, error) {
	sc, ok := c.Store[alias]
	if !ok {
		return nil, fmt.Errorf("kvconfig: no store named %q", alias)
	}
	switch sc.Engine {
	case "memkv":
		return memkv.New(), nil
	case "boltkv":
		if sc.Path == "" {
			return nil, fmt.Errorf("kvconfig: store %q: boltkv requires a path", alias)
		}
		return boltkv.Open(sc.Path)
	default:
		return nil, fmt.Errorf("kvconfig: store %q: unknown engine %q", alias, sc.Engine)
	}
}
