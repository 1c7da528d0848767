package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/sakura-stack/sakura-tree/internal/resolver"
)

// queuePollInterval is how long an idle worker sleeps before asking
// the queue again.
const queuePollInterval = time.Millisecond

// Pool runs N long-lived workers that pull work units off the queue
// and drive the interpreter on them.
type Pool struct {
	engine  *Engine
	queue   *SubtreeQueue
	workers int

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewPool creates a pool of the given size over the engine's queue.
func NewPool(engine *Engine, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		engine:  engine,
		queue:   engine.queue,
		workers: workers,
		stop:    make(chan struct{}),
	}
}

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.runWorker(ctx, id)
		}(i)
	}
}

// Stop signals the workers and waits for them to drain and exit.
// No units may be pushed after Stop.
func (p *Pool) Stop() {
	close(p.stop)
	p.wg.Wait()
}

// runWorker is the worker main loop.
func (p *Pool) runWorker(ctx context.Context, id int) {
	logger := p.engine.logger.With("worker", id)

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		unit := p.queue.Pop()
		if unit == nil {
			time.Sleep(queuePollInterval)
			continue
		}

		p.processUnit(ctx, unit)
		logger.Debug("work unit processed", "success", unit.Success)
	}
}

// processUnit drives the interpreter on one work unit. The counter is
// incremented as the last step so producers can safely observe
// completion.
func (p *Pool) processUnit(ctx context.Context, unit *WorkUnit) {
	in := newInterpreter(p.engine)
	in.hierarchy = append([]string(nil), unit.Hierarchy...)

	// Fresh namespace for this unit: subtree-declared values first,
	// then the producer-supplied items.
	resolver.OverrideFromItemMap(in.parent, unit.Subtree.Values(), false)
	resolver.OverrideItems(in.parent, unit.Items, false)

	unit.Success = in.processItem(ctx, unit.Subtree)

	// Copy results back, existing keys only, before signaling.
	resolver.OverrideItems(unit.Items, in.parent, true)

	if unit.Counter != nil {
		unit.Counter.Increment()
	}
}
