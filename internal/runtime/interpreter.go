package runtime

import (
	"context"
	"strconv"
	"strings"

	sakuraerr "github.com/sakura-stack/sakura-tree/internal/errors"
	"github.com/sakura-stack/sakura-tree/internal/items"
	"github.com/sakura-stack/sakura-tree/internal/resolver"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

// Interpreter recursively walks a working copy of the tree. One
// instance exists per work unit; its namespace and hierarchy are never
// shared across goroutines.
type Interpreter struct {
	engine    *Engine
	hierarchy []string
	parent    value.Namespace
}

func newInterpreter(e *Engine) *Interpreter {
	return &Interpreter{engine: e, parent: value.NewNamespace()}
}

// processItem dispatches on the item kind. Errors are values: every
// handler returns false to abort the enclosing scope.
func (in *Interpreter) processItem(ctx context.Context, item items.Item) bool {
	switch n := item.(type) {
	case *items.Tree:
		in.hierarchy = append(in.hierarchy, "TREE: "+n.ID)
		return in.processTree(ctx, n)
	case *items.Subtree:
		return in.processSubtree(ctx, n)
	case *items.Blossom:
		return in.processBlossom(ctx, n)
	case *items.BlossomGroup:
		return in.processBlossomGroup(ctx, n)
	case *items.If:
		return in.processIf(ctx, n)
	case *items.For:
		return in.processFor(ctx, n)
	case *items.ForEach:
		return in.processForEach(ctx, n)
	case *items.Sequential:
		return in.processSequential(ctx, n)
	case *items.Parallel:
		return in.processParallel(ctx, n)
	case *items.Seed:
		return in.processSeed(ctx, n)
	default:
		in.engine.logger.Error("unknown item kind", "kind", item.Kind())
		return false
	}
}

// processBlossom runs the per-blossom driver: fill inputs, enforce the
// schema, execute the four phases and publish outputs back into the
// parent namespace. A diagnostic record is emitted before returning.
func (in *Interpreter) processBlossom(ctx context.Context, b *items.Blossom) bool {
	if len(b.NameHierarchy) == 0 {
		b.NameHierarchy = append(append([]string(nil), in.hierarchy...), "BLOSSOM: "+b.Type)
	}

	working := in.parent.Copy()

	if err := in.engine.res.FillInputItemMap(b.ItemValues, working); err != nil {
		return in.failBlossom(b, items.StateErrorInit, err.Error())
	}

	impl := in.engine.registry.Lookup(b.GroupType, b.Type)
	if impl == nil {
		return in.failBlossom(b, items.StateErrorInit, "unknown blossom type")
	}

	var missing []string
	for key, required := range impl.RequiredKeys() {
		if required && !b.ItemValues.Contains(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return in.failBlossom(b, items.StateErrorInit,
			"following keys are not set: "+strings.Join(missing, ", "))
	}

	in.runPhases(ctx, impl, b)

	if b.Success && impl.HasOutput() {
		resolver.FillOutputItemMap(b.ItemValues, b.Output, in.parent)
	}
	resolver.OverrideFromItemMap(in.parent, b.ItemValues, true)

	in.engine.printer.PrintBlossom(b)
	return b.Success
}

// runPhases walks the four-phase lifecycle, stopping at the first
// failing phase and mapping it to the matching result state.
func (in *Interpreter) runPhases(ctx context.Context, impl blossomImpl, b *items.Blossom) {
	impl.Init(ctx, b)
	if !b.Success {
		b.ResultState = items.StateErrorInit
		return
	}

	impl.PreCheck(ctx, b)
	switch {
	case !b.Success:
		b.ResultState = items.StateErrorPreCheck
	case b.Skip:
		b.ResultState = items.StateSkipped
	default:
		impl.Run(ctx, b)
		if !b.Success {
			b.ResultState = items.StateErrorExec
		} else {
			impl.PostCheck(ctx, b)
			if !b.Success {
				b.ResultState = items.StateErrorPostCheck
			} else {
				b.ResultState = items.StateChanged
			}
		}
	}

	if b.ResultState.IsError() {
		return
	}

	success := b.Success
	impl.Close(ctx, b)
	if !b.Success && success {
		b.ResultState = items.StateErrorClose
	}
}

// failBlossom records a driver-level failure and emits the record.
func (in *Interpreter) failBlossom(b *items.Blossom, state items.ResultState, msg string) bool {
	b.Success = false
	b.ResultState = state
	b.Message = msg
	in.engine.printer.PrintBlossom(b)
	return false
}

// processBlossomGroup runs the group's blossoms in order, pushing each
// rendered id onto the hierarchy and seeding group values as a
// prelude. Aborts on the first failure.
func (in *Interpreter) processBlossomGroup(ctx context.Context, g *items.BlossomGroup) bool {
	for _, b := range g.Blossoms {
		b.GroupType = g.GroupType

		for _, key := range g.ItemValues.Keys() {
			if !b.ItemValues.Contains(key) {
				it, _ := g.ItemValues.Get(key)
				b.ItemValues.Set(key, it.Copy())
			}
		}

		rendered, err := in.engine.res.Render(g.ID, in.parent)
		if err != nil {
			in.engine.logger.Error("failed to render blossom-group id", "id", g.ID, "error", err)
			return false
		}
		b.NameHierarchy = append(append([]string(nil), in.hierarchy...), "BLOSSOM: "+rendered)

		if !in.processBlossom(ctx, b) {
			return false
		}
	}
	return true
}

// processTree verifies no tree value is still uninitialized, then runs
// the children in order.
func (in *Interpreter) processTree(ctx context.Context, t *items.Tree) bool {
	if uninit := resolver.CheckItems(t.ItemValues); len(uninit) > 0 {
		err := sakuraerr.Unresolved(uninit)
		in.engine.logger.Error("tree has uninitialized items", "tree", t.ID, "error", err)
		return false
	}

	for _, child := range t.Children {
		if !in.processItem(ctx, child) {
			return false
		}
	}
	return true
}

// processSubtree resolves the named tree, merges caller arguments over
// the subtree's declared defaults and executes a private copy.
func (in *Interpreter) processSubtree(ctx context.Context, s *items.Subtree) bool {
	tmpl, err := in.engine.trees.GetTree(s.NameOrPath)
	if err != nil || tmpl == nil {
		in.engine.logger.Error("subtree not found", "name", s.NameOrPath, "error", err)
		return false
	}
	copied := tmpl.Copy()

	if err := in.engine.res.FillInputItemMap(s.ItemValues, in.parent); err != nil {
		in.engine.logger.Error("failed to fill subtree values", "name", s.NameOrPath, "error", err)
		return false
	}
	resolver.OverrideItemMap(copied.Values(), s.ItemValues, false)

	// Render the named argument packs used by nested subtree
	// references and attach them under the reserved key.
	if len(s.InternalSubtrees) > 0 {
		packs := map[string]value.Value{}
		for _, name := range s.InternalSubtreeNames() {
			pack := s.InternalSubtrees[name]
			entries := map[string]value.Value{}
			for _, key := range pack.Keys() {
				it, _ := pack.Get(key)
				v, err := in.engine.res.FillValueItem(&it, in.parent)
				if err != nil {
					in.engine.logger.Error("failed to fill internal subtree values",
						"name", s.NameOrPath, "pack", name, "error", err)
					return false
				}
				entries[key] = v
			}
			packs[name] = value.Map(entries)
		}
		copied.Values().Set("internal_subtypes", value.Literal(value.Map(packs)))
	}

	resolver.OverrideFromItemMap(in.parent, copied.Values(), false)

	return in.processItem(ctx, copied)
}

// processSeed executes the payload tree locally. The remote session
// hook is out of the core's scope; a seed without a child is a no-op.
func (in *Interpreter) processSeed(ctx context.Context, s *items.Seed) bool {
	if s.Child == nil {
		return true
	}
	in.hierarchy = append(in.hierarchy, "SEED: "+s.Name)
	return in.processItem(ctx, s.Child)
}

// processIf evaluates the comparison and runs exactly one branch.
func (in *Interpreter) processIf(ctx context.Context, n *items.If) bool {
	left, err := in.engine.res.FillValueItem(&n.Left, in.parent)
	if err != nil {
		in.engine.logger.Error("failed to resolve if-condition left side", "error", err)
		return false
	}
	right, err := in.engine.res.FillValueItem(&n.Right, in.parent)
	if err != nil {
		in.engine.logger.Error("failed to resolve if-condition right side", "error", err)
		return false
	}

	match := compare(left.String(), right.String(), n.Op)

	branch := n.Else
	if match {
		branch = n.Then
	}
	if branch == nil {
		return true
	}
	return in.processItem(ctx, branch)
}

// compare applies the operator to both sides in string form. The
// ordering operators compare as integers when both sides parse as
// such, lexicographically otherwise.
func compare(left, right string, op items.CompareOp) bool {
	switch op {
	case items.OpEqual:
		return left == right
	case items.OpUnequal:
		return left != right
	}

	var cmp int
	li, lerr := strconv.ParseInt(left, 10, 64)
	ri, rerr := strconv.ParseInt(right, 10, 64)
	if lerr == nil && rerr == nil {
		switch {
		case li < ri:
			cmp = -1
		case li > ri:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(left, right)
	}

	switch op {
	case items.OpGreater:
		return cmp > 0
	case items.OpGreaterEqual:
		return cmp >= 0
	case items.OpLesser:
		return cmp < 0
	case items.OpLesserEqual:
		return cmp <= 0
	default:
		return false
	}
}

// processFor runs a bounded counter loop, sequentially or fanned out
// over the worker pool.
func (in *Interpreter) processFor(ctx context.Context, n *items.For) bool {
	start, err := in.engine.res.FillValueItem(&n.Start, in.parent)
	if err != nil {
		in.engine.logger.Error("failed to resolve for-loop start", "error", err)
		return false
	}
	end, err := in.engine.res.FillValueItem(&n.End, in.parent)
	if err != nil {
		in.engine.logger.Error("failed to resolve for-loop end", "error", err)
		return false
	}

	startVal, endVal := start.Int(), end.Int()

	if !n.Parallel {
		return in.runSequentialLoop(ctx, n.CounterName, n.Body, nil, func(yield func(value.Value) bool) bool {
			for i := startVal; i < endVal; i++ {
				if !yield(value.Int(i)) {
					return false
				}
			}
			return true
		})
	}

	if endVal <= startVal {
		return true
	}

	units := make([]*WorkUnit, 0, endVal-startVal)
	counter := NewActiveCounter(uint32(endVal - startVal))
	internal := in.parent.Copy()
	for i := startVal; i < endVal; i++ {
		internal[n.CounterName] = value.Int(i)
		units = append(units, in.spawn(n.Body, internal.Copy(), counter))
	}

	counter.Wait()
	return in.aggregateLoopOutputs(n.ItemValues, units)
}

// processForEach iterates over the resolved "array" entry of the
// iterable map.
func (in *Interpreter) processForEach(ctx context.Context, n *items.ForEach) bool {
	if err := in.engine.res.FillInputItemMap(n.Iterable, in.parent); err != nil {
		in.engine.logger.Error("failed to resolve for-each iterable", "error", err)
		return false
	}
	arrItem, ok := n.Iterable.Get("array")
	if !ok || arrItem.Value.Kind() != value.KindArray {
		in.engine.logger.Error("for-each iterable has no array entry")
		return false
	}
	elements := arrItem.Value.Items()

	if !n.Parallel {
		return in.runSequentialLoop(ctx, n.CounterName, n.Body, n.ItemValues, func(yield func(value.Value) bool) bool {
			for _, e := range elements {
				if !yield(e.Copy()) {
					return false
				}
			}
			return true
		})
	}

	if len(elements) == 0 {
		return true
	}

	units := make([]*WorkUnit, 0, len(elements))
	counter := NewActiveCounter(uint32(len(elements)))
	internal := in.parent.Copy()
	for _, e := range elements {
		internal[n.CounterName] = e.Copy()
		units = append(units, in.spawn(n.Body, internal.Copy(), counter))
	}

	counter.Wait()
	return in.aggregateLoopOutputs(n.ItemValues, units)
}

// runSequentialLoop executes one deep copy of body per iteration with
// the counter bound, then restores the pre-loop namespace so only keys
// that existed before the loop propagate out.
func (in *Interpreter) runSequentialLoop(ctx context.Context, counterName string, body items.Item, loopValues *value.ItemMap, iterate func(func(value.Value) bool) bool) bool {
	pre := in.parent.Copy()
	if loopValues != nil {
		resolver.OverrideFromItemMap(in.parent, loopValues, false)
	}

	ok := iterate(func(counter value.Value) bool {
		in.parent[counterName] = counter
		return in.processItem(ctx, body.Copy())
	})

	post := in.parent
	in.parent = pre
	resolver.OverrideItems(in.parent, post, true)
	return ok
}

// spawn packages one loop iteration or parallel child as a work unit
// and pushes it onto the subtree queue.
func (in *Interpreter) spawn(body items.Item, ns value.Namespace, counter *ActiveCounter) *WorkUnit {
	unit := &WorkUnit{
		Subtree:   body.Copy(),
		Items:     ns,
		Hierarchy: append([]string(nil), in.hierarchy...),
		Counter:   counter,
	}
	in.engine.queue.Push(unit)
	return unit
}

// aggregateLoopOutputs re-fills the loop's declared values from every
// spawned unit's final namespace and publishes them into the parent,
// existing keys only. With overlapping keys the highest-index
// iteration wins (last-wins policy).
func (in *Interpreter) aggregateLoopOutputs(loopValues *value.ItemMap, units []*WorkUnit) bool {
	ok := true
	agg := loopValues.Copy()

	for _, unit := range units {
		if !unit.Success {
			ok = false
		}
		vals := loopValues.Copy()
		if err := in.engine.res.FillInputItemMap(vals, unit.Items); err != nil {
			in.engine.logger.Error("failed to aggregate loop outputs", "error", err)
			ok = false
			continue
		}
		resolver.OverrideItemMap(agg, vals, false)
	}

	resolver.OverrideFromItemMap(in.parent, agg, true)
	return ok
}

// processSequential runs the children in order on the shared
// namespace, stopping at the first failure.
func (in *Interpreter) processSequential(ctx context.Context, n *items.Sequential) bool {
	for _, child := range n.Children {
		if !in.processItem(ctx, child) {
			return false
		}
	}
	return true
}

// processParallel fans the children out as work units, each with its
// own namespace copy. Results are not merged back: parallel siblings
// communicate through explicit outputs, never namespace mutation. The
// aggregate waits for every child, even after a failure.
func (in *Interpreter) processParallel(ctx context.Context, n *items.Parallel) bool {
	if len(n.Children) == 0 {
		return true
	}

	counter := NewActiveCounter(uint32(len(n.Children)))
	units := make([]*WorkUnit, 0, len(n.Children))
	for _, child := range n.Children {
		units = append(units, in.spawn(child, in.parent.Copy(), counter))
	}

	counter.Wait()

	ok := true
	for i, unit := range units {
		if !unit.Success {
			in.engine.logger.Error("parallel child failed",
				"error", sakuraerr.ParallelChildFailed(i))
			ok = false
		}
	}
	return ok
}
