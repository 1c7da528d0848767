// Package validator performs static checks on a compiled tree before
// execution: blossom registry membership, required input keys, output
// declarations and uninitialized value detection.
package validator

import (
	"github.com/sakura-stack/sakura-tree/internal/blossom"
	sakuraerr "github.com/sakura-stack/sakura-tree/internal/errors"
	"github.com/sakura-stack/sakura-tree/internal/items"
	"github.com/sakura-stack/sakura-tree/internal/resolver"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

// Validator checks compiled trees against a blossom registry.
type Validator struct {
	registry *blossom.Registry
}

// New returns a validator bound to the registry.
func New(registry *blossom.Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate walks the tree and returns every problem found. A
// non-empty result is a hard failure.
func (v *Validator) Validate(item items.Item) []error {
	var errs []error
	v.validateItem(item, &errs)
	return errs
}

func (v *Validator) validateItem(item items.Item, errs *[]error) {
	switch n := item.(type) {
	case *items.Blossom:
		v.validateBlossom(n, errs)
	case *items.BlossomGroup:
		for _, b := range n.Blossoms {
			if b.GroupType == "" {
				b.GroupType = n.GroupType
			}
			v.validateBlossom(b, errs)
		}
	case *items.Tree:
		for _, c := range n.Children {
			v.validateItem(c, errs)
		}
	case *items.Seed:
		if n.Child != nil {
			v.validateItem(n.Child, errs)
		}
	case *items.Sequential:
		for _, c := range n.Children {
			v.validateItem(c, errs)
		}
	case *items.Parallel:
		for _, c := range n.Children {
			v.validateItem(c, errs)
		}
	case *items.If:
		if n.Then != nil {
			v.validateItem(n.Then, errs)
		}
		if n.Else != nil {
			v.validateItem(n.Else, errs)
		}
	case *items.For:
		if n.Body != nil {
			v.validateItem(n.Body, errs)
		}
	case *items.ForEach:
		if n.Body != nil {
			v.validateItem(n.Body, errs)
		}
	case *items.Subtree:
		// Name resolution happens at run time through the tree handler.
	}
}

func (v *Validator) validateBlossom(b *items.Blossom, errs *[]error) {
	impl := v.registry.Lookup(b.GroupType, b.Type)
	if impl == nil {
		*errs = append(*errs, sakuraerr.UnknownBlossom(b.GroupType, b.Type))
		return
	}

	for key, required := range impl.RequiredKeys() {
		if required && !b.ItemValues.Contains(key) {
			*errs = append(*errs, sakuraerr.MissingKey(b.Type, key))
		}
	}

	if !impl.HasOutput() && hasOutputItems(b.ItemValues) {
		*errs = append(*errs, sakuraerr.OutputMismatch(b.Type,
			"output items declared but the blossom produces no output"))
	}

	if uninit := resolver.CheckItems(b.ItemValues); len(uninit) > 0 {
		*errs = append(*errs, sakuraerr.Unresolved(uninit))
	}
}

func hasOutputItems(m *value.ItemMap) bool {
	for _, k := range m.Keys() {
		it, _ := m.Get(k)
		if it.Role == value.RoleOutput {
			return true
		}
	}
	return false
}
