// Package blossom defines the contract for atomic task units and the
// registry that maps (group, type) pairs to implementations. Built-in
// blossoms cover shell commands, text and path file tasks and apt
// package management.
package blossom

import (
	"context"
	"sync"

	"github.com/sakura-stack/sakura-tree/internal/items"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

// Schema maps input key names to whether they are required.
type Schema map[string]bool

// Blossom is a four-phase task unit. Each phase communicates only
// through the fields of the blossom item it receives. The engine calls
// the phases in order and stops at the first phase that leaves
// Success false.
type Blossom interface {
	// RequiredKeys returns the static input schema.
	RequiredKeys() Schema

	// HasOutput reports whether the blossom produces an output value.
	HasOutput() bool

	// Init parses and type-checks inputs from the item's values.
	Init(ctx context.Context, item *items.Blossom)

	// PreCheck probes for idempotence: when the desired state already
	// holds it sets Skip and Success.
	PreCheck(ctx context.Context, item *items.Blossom)

	// Run performs the side effect.
	Run(ctx context.Context, item *items.Blossom)

	// PostCheck verifies the observable effect.
	PostCheck(ctx context.Context, item *items.Blossom)

	// Close releases transient resources.
	Close(ctx context.Context, item *items.Blossom)
}

// Factory creates a fresh blossom instance. Instances carry parsed
// input state between phases, so every execution gets its own.
type Factory func() Blossom

// Registry maps (group, type) pairs to blossom factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[registryKey]Factory
}

type registryKey struct {
	group string
	typ   string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[registryKey]Factory{}}
}

// Register adds a factory for the given group and type, replacing any
// previous registration.
func (r *Registry) Register(groupType, blossomType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[registryKey{groupType, blossomType}] = f
}

// Lookup returns a fresh blossom instance, or nil when the pair is
// unknown.
func (r *Registry) Lookup(groupType, blossomType string) Blossom {
	r.mu.RLock()
	f, ok := r.factories[registryKey{groupType, blossomType}]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return f()
}

// Has reports whether the pair is registered.
func (r *Registry) Has(groupType, blossomType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[registryKey{groupType, blossomType}]
	return ok
}

// --- input helpers shared by the built-in blossoms ---

// inputValue returns the filled value for key.
func inputValue(item *items.Blossom, key string) (value.Value, bool) {
	it, ok := item.ItemValues.Get(key)
	if !ok {
		return value.Null(), false
	}
	return it.Value, true
}

// inputString returns the string form of the input for key.
func inputString(item *items.Blossom, key string) (string, bool) {
	v, ok := inputValue(item, key)
	if !ok || v.IsNull() {
		return "", false
	}
	return v.String(), true
}

// inputBool returns the bool input for key. present is false when the
// key is absent or null (ok is then true); ok is false only when the
// key is present but not a bool.
func inputBool(item *items.Blossom, key string) (val bool, present bool, ok bool) {
	v, found := inputValue(item, key)
	if !found || v.IsNull() {
		return false, false, true
	}
	if v.Kind() != value.KindBool {
		return false, true, false
	}
	return v.Bool(), true, true
}

// failInit marks the item as failed during input parsing.
func failInit(item *items.Blossom, msg string) {
	item.Success = false
	item.Message = msg
}
