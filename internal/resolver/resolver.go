// Package resolver implements value resolution: identifier lookup,
// transform-function application, template rendering and the fill and
// override operations that move values between item maps and
// namespaces.
package resolver

import (
	"strconv"
	"strings"

	sakuraerr "github.com/sakura-stack/sakura-tree/internal/errors"
	"github.com/sakura-stack/sakura-tree/internal/template"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

// RenderFunc renders a template string against a namespace. The
// default is the built-in {{...}} renderer; an external engine can be
// injected through it.
type RenderFunc func(tmpl string, ns value.Namespace) (string, error)

// Resolver resolves value items against namespaces.
type Resolver struct {
	Render RenderFunc
}

// New returns a resolver using the built-in template renderer.
func New() *Resolver {
	return &Resolver{Render: template.Render}
}

// ResolveIdentifier returns the referenced namespace value when the
// item is an identifier, or the literal payload otherwise.
func (r *Resolver) ResolveIdentifier(it value.Item, ns value.Namespace) (value.Value, error) {
	if !it.IsIdentifier {
		return it.Value, nil
	}
	name := it.Value.Str()
	v, ok := ns[name]
	if !ok {
		return value.Null(), sakuraerr.UnknownIdentifier(name)
	}
	return v.Copy(), nil
}

// ApplyFunctions folds the function chain over v, left to right.
// Functions are pure; source maps and arrays are never mutated.
func (r *Resolver) ApplyFunctions(v value.Value, fns []value.Function, ns value.Namespace) (value.Value, error) {
	cur := v
	for _, fn := range fns {
		args, err := r.resolveArgs(fn, ns)
		if err != nil {
			return value.Null(), err
		}

		switch fn.Kind {
		case value.FuncGet:
			cur, err = applyGet(cur, args)
		case value.FuncSplit:
			cur, err = applySplit(cur, args)
		case value.FuncContains:
			cur, err = applyContains(cur, args)
		case value.FuncSize:
			cur = value.Int(int64(cur.Len()))
		case value.FuncInsert:
			cur, err = applyInsert(cur, args)
		case value.FuncAppend:
			cur, err = applyAppend(cur, args)
		default:
			err = sakuraerr.FunctionTypeError(fn.Kind.String(), "unknown function")
		}
		if err != nil {
			return value.Null(), err
		}
	}
	return cur, nil
}

// resolveArgs resolves every function argument against the namespace.
func (r *Resolver) resolveArgs(fn value.Function, ns value.Namespace) ([]value.Value, error) {
	args := make([]value.Value, len(fn.Args))
	for i, a := range fn.Args {
		v, err := r.ResolveIdentifier(a, ns)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func applyGet(v value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null(), sakuraerr.FunctionTypeError("get", "expects exactly one argument")
	}
	key := args[0]

	switch v.Kind() {
	case value.KindMap:
		entry, ok := v.Entry(key.String())
		if !ok {
			return value.Null(), sakuraerr.FunctionTypeError("get", "key "+key.String()+" not found")
		}
		return entry.Copy(), nil
	case value.KindArray:
		idx, err := toIndex(key)
		if err != nil {
			return value.Null(), err
		}
		entry, ok := v.At(idx)
		if !ok {
			return value.Null(), sakuraerr.IndexRange(idx, v.Len())
		}
		return entry.Copy(), nil
	default:
		return value.Null(), sakuraerr.FunctionTypeError("get", "requires a map or array, got "+v.Kind().String())
	}
}

func applySplit(v value.Value, args []value.Value) (value.Value, error) {
	if v.Kind() != value.KindString {
		return value.Null(), sakuraerr.FunctionTypeError("split", "requires a string, got "+v.Kind().String())
	}
	if len(args) != 1 {
		return value.Null(), sakuraerr.FunctionTypeError("split", "expects exactly one argument")
	}

	var parts []value.Value
	for _, p := range strings.Split(v.Str(), args[0].String()) {
		if p != "" {
			parts = append(parts, value.String(p))
		}
	}
	return value.Array(parts...), nil
}

func applyContains(v value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null(), sakuraerr.FunctionTypeError("contains", "expects exactly one argument")
	}
	needle := args[0]

	switch v.Kind() {
	case value.KindString:
		return value.Bool(strings.Contains(v.Str(), needle.String())), nil
	case value.KindArray:
		for _, e := range v.Items() {
			if e.Equal(needle) || e.String() == needle.String() {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	case value.KindMap:
		_, ok := v.Entry(needle.String())
		return value.Bool(ok), nil
	default:
		return value.Null(), sakuraerr.FunctionTypeError("contains", "requires a string, array or map, got "+v.Kind().String())
	}
}

func applyInsert(v value.Value, args []value.Value) (value.Value, error) {
	if v.Kind() != value.KindMap {
		return value.Null(), sakuraerr.FunctionTypeError("insert", "requires a map, got "+v.Kind().String())
	}
	if len(args) != 2 {
		return value.Null(), sakuraerr.FunctionTypeError("insert", "expects key and value arguments")
	}

	out := v.Copy()
	out.Entries()[args[0].String()] = args[1].Copy()
	return out, nil
}

func applyAppend(v value.Value, args []value.Value) (value.Value, error) {
	if v.Kind() != value.KindArray {
		return value.Null(), sakuraerr.FunctionTypeError("append", "requires an array, got "+v.Kind().String())
	}
	if len(args) != 1 {
		return value.Null(), sakuraerr.FunctionTypeError("append", "expects exactly one argument")
	}

	items := make([]value.Value, 0, v.Len()+1)
	for _, e := range v.Items() {
		items = append(items, e.Copy())
	}
	items = append(items, args[0].Copy())
	return value.Array(items...), nil
}

func toIndex(v value.Value) (int, error) {
	switch v.Kind() {
	case value.KindInt:
		return int(v.Int()), nil
	case value.KindString:
		i, err := strconv.Atoi(v.Str())
		if err != nil {
			return 0, sakuraerr.FunctionTypeError("get", "array index must be an integer")
		}
		return i, nil
	default:
		return 0, sakuraerr.FunctionTypeError("get", "array index must be an integer")
	}
}

// FillValueItem resolves the item's identifier, applies its function
// chain and renders string results, writing the final value back into
// the item so later code can treat it as a literal.
func (r *Resolver) FillValueItem(it *value.Item, ns value.Namespace) (value.Value, error) {
	v, err := r.ResolveIdentifier(*it, ns)
	if err != nil {
		return value.Null(), err
	}

	v, err = r.ApplyFunctions(v, it.Functions, ns)
	if err != nil {
		return value.Null(), err
	}

	if v.Kind() == value.KindString {
		rendered, err := r.Render(v.Str(), ns)
		if err != nil {
			return value.Null(), sakuraerr.TemplateError(v.Str(), err)
		}
		v = value.String(rendered)
	}

	it.Value = v
	it.IsIdentifier = false
	it.Functions = nil
	return v, nil
}

// FillInputItemMap fills every input-role entry of the map against the
// namespace. Non-input entries are untouched.
func (r *Resolver) FillInputItemMap(m *value.ItemMap, ns value.Namespace) error {
	for _, key := range m.Keys() {
		it, _ := m.Get(key)
		if it.Role != value.RoleInput {
			continue
		}
		if _, err := r.FillValueItem(&it, ns); err != nil {
			return err
		}
		m.Set(key, it)
	}
	return nil
}

// FillOutputItemMap publishes blossom output into the parent
// namespace. For every output-role entry whose value is an identifier
// naming a key k, blossomOutput[k] (or the whole output when the
// identifier is empty) is stored under the entry's map key, both in
// the item map and in parent.
func FillOutputItemMap(m *value.ItemMap, output value.Value, parent value.Namespace) {
	for _, key := range m.Keys() {
		it, _ := m.Get(key)
		if it.Role != value.RoleOutput || !it.IsIdentifier {
			continue
		}

		var published value.Value
		sourceKey := it.Value.Str()
		if sourceKey == "" {
			published = output.Copy()
		} else if entry, ok := output.Entry(sourceKey); ok {
			published = entry.Copy()
		} else {
			published = value.Null()
		}

		it.Value = published
		it.IsIdentifier = false
		m.Set(key, it)
		parent[key] = published.Copy()
	}
}

// OverrideItems writes every entry of source into target. When
// onlyExisting is set, keys absent from target are dropped so child
// scopes cannot leak intermediates.
func OverrideItems(target, source value.Namespace, onlyExisting bool) {
	for k, v := range source {
		if onlyExisting {
			if _, ok := target[k]; !ok {
				continue
			}
		}
		target[k] = v.Copy()
	}
}

// OverrideFromItemMap writes the resolved values of source into the
// target namespace, keyed by entry name.
func OverrideFromItemMap(target value.Namespace, source *value.ItemMap, onlyExisting bool) {
	for _, k := range source.Keys() {
		it, _ := source.Get(k)
		if it.IsIdentifier {
			continue
		}
		if onlyExisting {
			if _, ok := target[k]; !ok {
				continue
			}
		}
		target[k] = it.Value.Copy()
	}
}

// OverrideItemMap merges source entries into the target item map.
// When onlyExisting is set, keys absent from target are dropped.
func OverrideItemMap(target, source *value.ItemMap, onlyExisting bool) {
	for _, k := range source.Keys() {
		it, _ := source.Get(k)
		if onlyExisting && !target.Contains(k) {
			continue
		}
		target.Set(k, it.Copy())
	}
}

// CheckItems returns the keys of entries still carrying the
// uninitialized sentinel.
func CheckItems(m *value.ItemMap) []string {
	var uninit []string
	for _, k := range m.Keys() {
		it, _ := m.Get(k)
		if it.Value.Kind() == value.KindString && it.Value.Str() == template.Sentinel {
			uninit = append(uninit, k)
		}
	}
	return uninit
}
