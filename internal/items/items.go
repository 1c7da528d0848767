// Package items defines the compiled task-tree data model: one node
// type per control-flow or task kind, each owning its children and its
// value-item map. Nodes are created by the converter, validated once
// and deep-copied for every execution that mutates per-run state.
package items

import (
	"sort"

	"github.com/sakura-stack/sakura-tree/internal/value"
)

// Kind identifies a tree node type.
type Kind int

const (
	KindBlossom Kind = iota
	KindBlossomGroup
	KindTree
	KindSubtree
	KindSeed
	KindSequential
	KindParallel
	KindIf
	KindFor
	KindForEach
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindBlossom:
		return "blossom"
	case KindBlossomGroup:
		return "blossom_group"
	case KindTree:
		return "tree"
	case KindSubtree:
		return "subtree"
	case KindSeed:
		return "seed"
	case KindSequential:
		return "sequential"
	case KindParallel:
		return "parallel"
	case KindIf:
		return "if"
	case KindFor:
		return "for"
	case KindForEach:
		return "for_each"
	default:
		return "unknown"
	}
}

// Item is a node of the compiled execution tree.
type Item interface {
	Kind() Kind
	Values() *value.ItemMap
	Copy() Item
}

// ResultState is the terminal state of a blossom execution.
type ResultState int

const (
	StateUndefined ResultState = iota
	StateSkipped
	StateChanged
	StateErrorInit
	StateErrorPreCheck
	StateErrorExec
	StateErrorPostCheck
	StateErrorClose
)

// String returns the result label used in diagnostic records.
func (s ResultState) String() string {
	switch s {
	case StateSkipped:
		return "SKIPPED"
	case StateChanged:
		return "CHANGED"
	case StateErrorInit:
		return "ERROR in init-state"
	case StateErrorPreCheck:
		return "ERROR in pre-check-state"
	case StateErrorExec:
		return "ERROR in exec-state"
	case StateErrorPostCheck:
		return "ERROR in post-check-state"
	case StateErrorClose:
		return "ERROR in close-state"
	default:
		return "UNDEFINED"
	}
}

// IsError reports whether the state marks a failed phase.
func (s ResultState) IsError() bool {
	return s >= StateErrorInit
}

// Blossom is a terminal task node. The result fields are per-execution
// state and only ever mutated on a working copy.
type Blossom struct {
	ItemValues *value.ItemMap
	GroupType  string
	Type       string
	Path       string

	// Diagnostic breadcrumb, set by the interpreter.
	NameHierarchy []string

	// Per-execution result slots.
	Output      value.Value
	Success     bool
	Skip        bool
	Message     string
	ExecState   int
	ResultState ResultState
}

func (b *Blossom) Kind() Kind             { return KindBlossom }
func (b *Blossom) Values() *value.ItemMap { return b.ItemValues }

// Copy returns a deep copy. Per-execution result fields are copied
// as-is; a compiled template carries only their zero values.
func (b *Blossom) Copy() Item {
	out := &Blossom{
		ItemValues:  b.ItemValues.Copy(),
		GroupType:   b.GroupType,
		Type:        b.Type,
		Path:        b.Path,
		Output:      b.Output.Copy(),
		Success:     b.Success,
		Skip:        b.Skip,
		Message:     b.Message,
		ExecState:   b.ExecState,
		ResultState: b.ResultState,
	}
	out.NameHierarchy = append([]string(nil), b.NameHierarchy...)
	return out
}

// BlossomGroup is a named sequence of blossoms sharing a group type
// and the group's values as a prelude.
type BlossomGroup struct {
	ID         string
	GroupType  string
	Blossoms   []*Blossom
	ItemValues *value.ItemMap
}

func (g *BlossomGroup) Kind() Kind             { return KindBlossomGroup }
func (g *BlossomGroup) Values() *value.ItemMap { return g.ItemValues }

func (g *BlossomGroup) Copy() Item {
	out := &BlossomGroup{
		ID:         g.ID,
		GroupType:  g.GroupType,
		ItemValues: g.ItemValues.Copy(),
	}
	out.Blossoms = make([]*Blossom, len(g.Blossoms))
	for i, b := range g.Blossoms {
		out.Blossoms[i] = b.Copy().(*Blossom)
	}
	return out
}

// Tree is a file-level root node.
type Tree struct {
	ID         string
	Children   []Item
	ItemValues *value.ItemMap
}

func (t *Tree) Kind() Kind             { return KindTree }
func (t *Tree) Values() *value.ItemMap { return t.ItemValues }

func (t *Tree) Copy() Item {
	out := &Tree{ID: t.ID, ItemValues: t.ItemValues.Copy()}
	out.Children = copyChildren(t.Children)
	return out
}

// Subtree calls a named tree with caller-supplied values and named
// argument packs for nested subtree references.
type Subtree struct {
	NameOrPath       string
	InternalSubtrees map[string]*value.ItemMap
	ItemValues       *value.ItemMap
}

func (s *Subtree) Kind() Kind             { return KindSubtree }
func (s *Subtree) Values() *value.ItemMap { return s.ItemValues }

func (s *Subtree) Copy() Item {
	out := &Subtree{NameOrPath: s.NameOrPath, ItemValues: s.ItemValues.Copy()}
	if s.InternalSubtrees != nil {
		out.InternalSubtrees = make(map[string]*value.ItemMap, len(s.InternalSubtrees))
		for k, m := range s.InternalSubtrees {
			out.InternalSubtrees[k] = m.Copy()
		}
	}
	return out
}

// InternalSubtreeNames returns the argument-pack names sorted for
// deterministic iteration.
func (s *Subtree) InternalSubtreeNames() []string {
	names := make([]string, 0, len(s.InternalSubtrees))
	for k := range s.InternalSubtrees {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Seed describes a remote invocation of a subtree on another host.
// The local interpreter treats its child as a plain tree.
type Seed struct {
	Name       string
	Address    string
	SSHPort    int
	SSHUser    string
	SSHKey     string
	Content    string
	Child      Item
	ItemValues *value.ItemMap
}

func (s *Seed) Kind() Kind             { return KindSeed }
func (s *Seed) Values() *value.ItemMap { return s.ItemValues }

func (s *Seed) Copy() Item {
	out := &Seed{
		Name:       s.Name,
		Address:    s.Address,
		SSHPort:    s.SSHPort,
		SSHUser:    s.SSHUser,
		SSHKey:     s.SSHKey,
		Content:    s.Content,
		ItemValues: s.ItemValues.Copy(),
	}
	if s.Child != nil {
		out.Child = s.Child.Copy()
	}
	return out
}

// Sequential runs its children in order, sharing the namespace.
type Sequential struct {
	Children   []Item
	ItemValues *value.ItemMap
}

func (s *Sequential) Kind() Kind             { return KindSequential }
func (s *Sequential) Values() *value.ItemMap { return s.ItemValues }

func (s *Sequential) Copy() Item {
	out := &Sequential{ItemValues: s.ItemValues.Copy()}
	out.Children = copyChildren(s.Children)
	return out
}

// Parallel fans its children out to the worker pool; each child gets
// its own namespace copy and results are not merged back.
type Parallel struct {
	Children   []Item
	ItemValues *value.ItemMap
}

func (p *Parallel) Kind() Kind             { return KindParallel }
func (p *Parallel) Values() *value.ItemMap { return p.ItemValues }

func (p *Parallel) Copy() Item {
	out := &Parallel{ItemValues: p.ItemValues.Copy()}
	out.Children = copyChildren(p.Children)
	return out
}

// CompareOp is the comparison operator of an if-condition.
type CompareOp int

const (
	OpEqual CompareOp = iota
	OpUnequal
	OpGreater
	OpGreaterEqual
	OpLesser
	OpLesserEqual
)

// String returns the operator spelling used by the converter input.
func (op CompareOp) String() string {
	switch op {
	case OpEqual:
		return "=="
	case OpUnequal:
		return "!="
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpLesser:
		return "<"
	case OpLesserEqual:
		return "<="
	default:
		return "?"
	}
}

// If evaluates a comparison and runs exactly one branch.
type If struct {
	Left       value.Item
	Right      value.Item
	Op         CompareOp
	Then       *Sequential
	Else       *Sequential
	ItemValues *value.ItemMap
}

func (i *If) Kind() Kind             { return KindIf }
func (i *If) Values() *value.ItemMap { return i.ItemValues }

func (i *If) Copy() Item {
	out := &If{
		Left:       i.Left.Copy(),
		Right:      i.Right.Copy(),
		Op:         i.Op,
		ItemValues: i.ItemValues.Copy(),
	}
	if i.Then != nil {
		out.Then = i.Then.Copy().(*Sequential)
	}
	if i.Else != nil {
		out.Else = i.Else.Copy().(*Sequential)
	}
	return out
}

// For is a bounded counter loop.
type For struct {
	CounterName string
	Start       value.Item
	End         value.Item
	Body        Item
	Parallel    bool
	ItemValues  *value.ItemMap
}

func (f *For) Kind() Kind             { return KindFor }
func (f *For) Values() *value.ItemMap { return f.ItemValues }

func (f *For) Copy() Item {
	out := &For{
		CounterName: f.CounterName,
		Start:       f.Start.Copy(),
		End:         f.End.Copy(),
		Parallel:    f.Parallel,
		ItemValues:  f.ItemValues.Copy(),
	}
	if f.Body != nil {
		out.Body = f.Body.Copy()
	}
	return out
}

// ForEach iterates over the "array" entry of its iterable map.
type ForEach struct {
	CounterName string
	Iterable    *value.ItemMap
	Body        Item
	Parallel    bool
	ItemValues  *value.ItemMap
}

func (f *ForEach) Kind() Kind             { return KindForEach }
func (f *ForEach) Values() *value.ItemMap { return f.ItemValues }

func (f *ForEach) Copy() Item {
	out := &ForEach{
		CounterName: f.CounterName,
		Iterable:    f.Iterable.Copy(),
		Parallel:    f.Parallel,
		ItemValues:  f.ItemValues.Copy(),
	}
	if f.Body != nil {
		out.Body = f.Body.Copy()
	}
	return out
}

func copyChildren(children []Item) []Item {
	out := make([]Item, len(children))
	for i, c := range children {
		out[i] = c.Copy()
	}
	return out
}
