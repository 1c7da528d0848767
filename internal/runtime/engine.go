package runtime

import (
	"context"
	"io"
	"log/slog"

	"github.com/sakura-stack/sakura-tree/internal/blossom"
	"github.com/sakura-stack/sakura-tree/internal/items"
	"github.com/sakura-stack/sakura-tree/internal/resolver"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

// blossomImpl is the contract the interpreter drives.
type blossomImpl = blossom.Blossom

// TreeHandler resolves subtree names to compiled trees.
type TreeHandler interface {
	GetTree(nameOrPath string) (items.Item, error)
}

// noTrees is the default handler when no tree directory is configured.
type noTrees struct{}

func (noTrees) GetTree(string) (items.Item, error) { return nil, nil }

// DefaultWorkers is the worker pool size used when none is configured.
const DefaultWorkers = 2

// Config carries the collaborators of an engine. Zero fields fall
// back to sensible defaults.
type Config struct {
	Registry *blossom.Registry
	Trees    TreeHandler
	Resolver *resolver.Resolver
	Workers  int
	Logger   *slog.Logger
	Output   io.Writer
}

// Engine drives tree execution: it owns the subtree queue, starts the
// worker pool and submits the root work unit.
type Engine struct {
	queue    *SubtreeQueue
	registry *blossom.Registry
	res      *resolver.Resolver
	trees    TreeHandler
	printer  *Printer
	logger   *slog.Logger
	workers  int
}

// NewEngine creates an engine from the config.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		queue:    NewSubtreeQueue(),
		registry: cfg.Registry,
		res:      cfg.Resolver,
		trees:    cfg.Trees,
		printer:  NewPrinter(cfg.Output),
		logger:   cfg.Logger,
		workers:  cfg.Workers,
	}
	if e.registry == nil {
		e.registry = blossom.NewRegistry()
	}
	if e.res == nil {
		e.res = resolver.New()
	}
	if e.trees == nil {
		e.trees = noTrees{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.workers < 1 {
		e.workers = DefaultWorkers
	}
	return e
}

// Run executes the tree against the initial namespace. It starts the
// worker pool, submits one root work unit, blocks on its counter and
// shuts the pool down again. The returned namespace is the root
// unit's final items map; ok is false on any failure.
func (e *Engine) Run(ctx context.Context, tree items.Item, initial value.Namespace) (value.Namespace, bool) {
	if initial == nil {
		initial = value.NewNamespace()
	}

	pool := NewPool(e, e.workers)
	pool.Start(ctx)
	defer pool.Stop()

	root := &WorkUnit{
		Subtree: tree.Copy(),
		Items:   initial.Copy(),
		Counter: NewActiveCounter(1),
	}
	e.queue.Push(root)
	root.Counter.Wait()

	return root.Items, root.Success
}
