// Package converter lowers the raw nested-map description of a task
// tree (as decoded from YAML) into the typed items of the execution
// engine. Node kinds are selected by the b_type tag.
package converter

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sakura-stack/sakura-tree/internal/items"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

// ParseYAML decodes a tree document into the raw map the converter
// consumes.
func ParseYAML(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing tree document: %w", err)
	}
	return raw, nil
}

// ConvertTree converts a raw document into a tree root.
func ConvertTree(raw map[string]any) (*items.Tree, error) {
	tree := &items.Tree{
		ID:         stringField(raw, "b_id"),
		ItemValues: value.NewItemMap(),
	}

	var err error
	if tree.ItemValues, err = convertItemMap(raw, "items", value.RoleInput); err != nil {
		return nil, err
	}
	if tree.Children, err = convertParts(raw, "parts"); err != nil {
		return nil, err
	}
	return tree, nil
}

// Convert converts a raw node into an item, dispatching on b_type.
func Convert(raw map[string]any) (items.Item, error) {
	bType := stringField(raw, "b_type")

	switch bType {
	case "tree":
		return ConvertTree(raw)
	case "blossom_group":
		return convertBlossomGroup(raw)
	case "subtree":
		return convertSubtree(raw)
	case "seed":
		return convertSeed(raw)
	case "if":
		return convertIf(raw)
	case "for":
		return convertFor(raw, false)
	case "parallel_for":
		return convertFor(raw, true)
	case "for_each":
		return convertForEach(raw, false)
	case "parallel_for_each":
		return convertForEach(raw, true)
	case "sequential":
		return convertSequential(raw)
	case "parallel":
		return convertParallel(raw)
	default:
		return nil, fmt.Errorf("unknown b_type %q", bType)
	}
}

func convertBlossomGroup(raw map[string]any) (items.Item, error) {
	group := &items.BlossomGroup{
		ID:        stringField(raw, "b_id"),
		GroupType: stringField(raw, "blossom-group-type"),
	}

	var err error
	if group.ItemValues, err = convertItemMap(raw, "items", value.RoleInput); err != nil {
		return nil, err
	}

	rawBlossoms, _ := raw["blossoms"].([]any)
	if len(rawBlossoms) == 0 {
		return nil, fmt.Errorf("blossom_group %q has no blossoms", group.ID)
	}

	for i, rb := range rawBlossoms {
		m, ok := rb.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("blossom %d of group %q is not a map", i, group.ID)
		}

		b := &items.Blossom{
			GroupType: group.GroupType,
			Type:      stringField(m, "blossom-type"),
		}
		if b.ItemValues, err = convertItemMap(m, "items-input", value.RoleInput); err != nil {
			return nil, err
		}
		if err = addOutputItems(b.ItemValues, m); err != nil {
			return nil, err
		}
		group.Blossoms = append(group.Blossoms, b)
	}

	return group, nil
}

func convertSubtree(raw map[string]any) (items.Item, error) {
	st := &items.Subtree{NameOrPath: stringField(raw, "b_id")}
	if st.NameOrPath == "" {
		return nil, fmt.Errorf("subtree is missing b_id")
	}

	var err error
	if st.ItemValues, err = convertItemMap(raw, "items", value.RoleInput); err != nil {
		return nil, err
	}

	if rawInternal, ok := raw["internal-subtrees"].(map[string]any); ok {
		st.InternalSubtrees = map[string]*value.ItemMap{}
		for name, pack := range rawInternal {
			packMap, ok := pack.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("internal subtree %q is not a map", name)
			}
			m := value.NewItemMap()
			for key, entry := range packMap {
				it, err := convertValueItem(entry, value.RoleInput)
				if err != nil {
					return nil, fmt.Errorf("internal subtree %q key %q: %w", name, key, err)
				}
				m.Set(key, it)
			}
			st.InternalSubtrees[name] = m
		}
	}
	return st, nil
}

func convertSeed(raw map[string]any) (items.Item, error) {
	seed := &items.Seed{
		Name:       stringField(raw, "b_id"),
		Address:    stringField(raw, "address"),
		SSHUser:    stringField(raw, "ssh_user"),
		SSHKey:     stringField(raw, "ssh_key"),
		Content:    stringField(raw, "content"),
		ItemValues: value.NewItemMap(),
	}
	if port, ok := raw["ssh_port"].(int); ok {
		seed.SSHPort = port
	}

	if rawChild, ok := raw["subtree"].(map[string]any); ok {
		child, err := Convert(rawChild)
		if err != nil {
			return nil, fmt.Errorf("seed %q child: %w", seed.Name, err)
		}
		seed.Child = child
	}
	return seed, nil
}

func convertIf(raw map[string]any) (items.Item, error) {
	cond := &items.If{ItemValues: value.NewItemMap()}

	var err error
	if cond.Left, err = convertValueItem(raw["left"], value.RoleCompareEq); err != nil {
		return nil, fmt.Errorf("if left side: %w", err)
	}
	if cond.Right, err = convertValueItem(raw["right"], value.RoleCompareEq); err != nil {
		return nil, fmt.Errorf("if right side: %w", err)
	}

	if cond.Op, err = parseCompareOp(stringField(raw, "compare_type")); err != nil {
		return nil, err
	}

	thenChildren, err := convertParts(raw, "if_parts")
	if err != nil {
		return nil, err
	}
	cond.Then = &items.Sequential{Children: thenChildren, ItemValues: value.NewItemMap()}

	elseChildren, err := convertParts(raw, "else_parts")
	if err != nil {
		return nil, err
	}
	cond.Else = &items.Sequential{Children: elseChildren, ItemValues: value.NewItemMap()}

	return cond, nil
}

func parseCompareOp(s string) (items.CompareOp, error) {
	switch s {
	case "==":
		return items.OpEqual, nil
	case "!=":
		return items.OpUnequal, nil
	case ">":
		return items.OpGreater, nil
	case ">=":
		return items.OpGreaterEqual, nil
	case "<":
		return items.OpLesser, nil
	case "<=":
		return items.OpLesserEqual, nil
	default:
		return 0, fmt.Errorf("unknown compare_type %q", s)
	}
}

func convertFor(raw map[string]any, parallel bool) (items.Item, error) {
	loop := &items.For{
		CounterName: stringField(raw, "variable"),
		Parallel:    parallel,
	}
	if loop.CounterName == "" {
		return nil, fmt.Errorf("for-loop is missing variable")
	}

	var err error
	if loop.Start, err = convertValueItem(raw["start"], value.RoleInput); err != nil {
		return nil, fmt.Errorf("for-loop start: %w", err)
	}
	if loop.End, err = convertValueItem(raw["end"], value.RoleInput); err != nil {
		return nil, fmt.Errorf("for-loop end: %w", err)
	}
	if loop.ItemValues, err = convertItemMap(raw, "items", value.RoleInput); err != nil {
		return nil, err
	}
	if loop.Body, err = convertBody(raw); err != nil {
		return nil, err
	}
	return loop, nil
}

func convertForEach(raw map[string]any, parallel bool) (items.Item, error) {
	loop := &items.ForEach{
		CounterName: stringField(raw, "variable"),
		Parallel:    parallel,
	}
	if loop.CounterName == "" {
		return nil, fmt.Errorf("for-each loop is missing variable")
	}

	arrayItem, err := convertValueItem(raw["array"], value.RoleInput)
	if err != nil {
		return nil, fmt.Errorf("for-each array: %w", err)
	}
	loop.Iterable = value.NewItemMap()
	loop.Iterable.Set("array", arrayItem)

	if loop.ItemValues, err = convertItemMap(raw, "items", value.RoleInput); err != nil {
		return nil, err
	}
	if loop.Body, err = convertBody(raw); err != nil {
		return nil, err
	}
	return loop, nil
}

func convertSequential(raw map[string]any) (items.Item, error) {
	children, err := convertParts(raw, "parts")
	if err != nil {
		return nil, err
	}
	return &items.Sequential{Children: children, ItemValues: value.NewItemMap()}, nil
}

func convertParallel(raw map[string]any) (items.Item, error) {
	children, err := convertParts(raw, "parts")
	if err != nil {
		return nil, err
	}
	return &items.Parallel{Children: children, ItemValues: value.NewItemMap()}, nil
}

// convertBody wraps a loop's parts into a sequential body.
func convertBody(raw map[string]any) (items.Item, error) {
	children, err := convertParts(raw, "parts")
	if err != nil {
		return nil, err
	}
	return &items.Sequential{Children: children, ItemValues: value.NewItemMap()}, nil
}

func convertParts(raw map[string]any, key string) ([]items.Item, error) {
	rawParts, ok := raw[key].([]any)
	if !ok {
		return nil, nil
	}

	var children []items.Item
	for i, rp := range rawParts {
		m, ok := rp.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("part %d is not a map", i)
		}
		child, err := Convert(m)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		children = append(children, child)
	}
	return children, nil
}

// convertItemMap converts the raw entries under key into an item map
// with the given role.
func convertItemMap(raw map[string]any, key string, role value.Role) (*value.ItemMap, error) {
	m := value.NewItemMap()

	rawItems, ok := raw[key].(map[string]any)
	if !ok {
		return m, nil
	}

	for k, entry := range rawItems {
		it, err := convertValueItem(entry, role)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", k, err)
		}
		m.Set(k, it)
	}
	return m, nil
}

// addOutputItems attaches output-role entries from the raw node's
// items-output map: entry key → source key in the blossom output (an
// empty source publishes the whole output).
func addOutputItems(m *value.ItemMap, raw map[string]any) error {
	rawOutputs, ok := raw["items-output"].(map[string]any)
	if !ok {
		return nil
	}

	for k, entry := range rawOutputs {
		source, ok := entry.(string)
		if !ok {
			return fmt.Errorf("output item %q must name a source key", k)
		}
		it := value.Identifier(source)
		it.Role = value.RoleOutput
		m.Set(k, it)
	}
	return nil
}

// convertValueItem converts one raw entry. A map tagged
// b_type=identifier becomes a namespace reference with an optional
// function chain; everything else is a literal.
func convertValueItem(entry any, role value.Role) (value.Item, error) {
	m, ok := entry.(map[string]any)
	if !ok || stringField(m, "b_type") != "identifier" {
		it := value.Literal(value.FromAny(entry))
		it.Role = role
		return it, nil
	}

	name := stringField(m, "b_ident")
	if name == "" {
		return value.Item{}, fmt.Errorf("identifier is missing b_ident")
	}
	it := value.Identifier(name)
	it.Role = role

	rawFns, _ := m["functions"].([]any)
	for i, rf := range rawFns {
		fm, ok := rf.(map[string]any)
		if !ok {
			return value.Item{}, fmt.Errorf("function %d is not a map", i)
		}
		fn, err := convertFunction(fm)
		if err != nil {
			return value.Item{}, fmt.Errorf("function %d: %w", i, err)
		}
		it.Functions = append(it.Functions, fn)
	}
	return it, nil
}

func convertFunction(raw map[string]any) (value.Function, error) {
	var kind value.FunctionKind
	switch stringField(raw, "b_type") {
	case "get":
		kind = value.FuncGet
	case "split":
		kind = value.FuncSplit
	case "contains":
		kind = value.FuncContains
	case "size":
		kind = value.FuncSize
	case "insert":
		kind = value.FuncInsert
	case "append":
		kind = value.FuncAppend
	default:
		return value.Function{}, fmt.Errorf("unknown function %q", stringField(raw, "b_type"))
	}

	fn := value.Function{Kind: kind}

	var rawArgs []any
	if args, ok := raw["args"].([]any); ok {
		rawArgs = args
	} else if arg, ok := raw["arg"]; ok {
		rawArgs = []any{arg}
	}

	for _, ra := range rawArgs {
		argItem, err := convertValueItem(ra, value.RoleInput)
		if err != nil {
			return value.Function{}, err
		}
		fn.Args = append(fn.Args, argItem)
	}
	return fn, nil
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}
