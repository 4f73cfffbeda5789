// Package catalog holds the closed set of block types a workflow may use.
// The engine stores a node's chosen type tag opaquely; the catalog only backs
// the "add block" selection surface and rejects tags it has never heard of.
package catalog

import (
	"fmt"
	"sync"

	"github.com/flowboard/flowboard/pkg/api"
)

// Catalog is a registry of block type descriptors. It is goroutine-safe.
type Catalog struct {
	mu    sync.RWMutex
	types map[string]api.BlockType
	order []string
}

// New creates a catalog pre-populated with the given types.
// It panics on a duplicate id, which indicates a wiring mistake.
func New(types ...api.BlockType) *Catalog {
	c := &Catalog{types: make(map[string]api.BlockType, len(types))}
	for _, bt := range types {
		if err := c.Register(bt); err != nil {
			panic(fmt.Sprintf("catalog: %v", err))
		}
	}
	return c
}

// Register adds a block type. Registering an id twice is an error.
func (c *Catalog) Register(bt api.BlockType) error {
	if bt.ID == "" {
		return fmt.Errorf("block type id must not be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.types[bt.ID]; exists {
		return fmt.Errorf("block type already registered: %s", bt.ID)
	}
	c.types[bt.ID] = bt
	c.order = append(c.order, bt.ID)
	return nil
}

// Get returns the descriptor for the given type tag.
func (c *Catalog) Get(id string) (api.BlockType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bt, ok := c.types[id]
	return bt, ok
}

// List returns all block types in registration order.
func (c *Catalog) List() []api.BlockType {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]api.BlockType, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.types[id])
	}
	return out
}
