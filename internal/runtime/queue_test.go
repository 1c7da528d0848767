package runtime

import (
	"sync"
	"testing"

	"github.com/sakura-stack/sakura-tree/internal/items"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

func TestQueueFIFO(t *testing.T) {
	q := NewSubtreeQueue()

	a := &WorkUnit{Items: value.Namespace{"id": value.String("a")}}
	b := &WorkUnit{Items: value.Namespace{"id": value.String("b")}}
	q.Push(a)
	q.Push(b)

	if got := q.Pop(); got != a {
		t.Error("expected first pushed unit first")
	}
	if got := q.Pop(); got != b {
		t.Error("expected second pushed unit second")
	}
	if got := q.Pop(); got != nil {
		t.Error("expected nil from empty queue")
	}
}

func TestQueueConcurrentPushPop(t *testing.T) {
	q := NewSubtreeQueue()
	const producers = 8
	const perProducer = 50

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				q.Push(&WorkUnit{})
			}
		}()
	}
	wg.Wait()

	var drained int
	for q.Pop() != nil {
		drained++
	}
	if drained != producers*perProducer {
		t.Errorf("expected %d units, drained %d", producers*perProducer, drained)
	}
}

func TestActiveCounter(t *testing.T) {
	c := NewActiveCounter(10)
	if c.IsDone() {
		t.Error("fresh counter with expected=10 must not be done")
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Increment()
		}()
	}
	wg.Wait()

	if !c.IsDone() {
		t.Error("counter must be done after 10 increments")
	}
	c.Wait() // must return immediately
}

func TestActiveCounterZeroExpected(t *testing.T) {
	c := NewActiveCounter(0)
	if !c.IsDone() {
		t.Error("zero-expected counter is immediately done")
	}
}

func TestWorkUnitHoldsSubtree(t *testing.T) {
	tree := &items.Tree{ID: "t", ItemValues: value.NewItemMap()}
	u := &WorkUnit{Subtree: tree, Counter: NewActiveCounter(1)}

	if u.Subtree.Kind() != items.KindTree {
		t.Error("subtree kind lost in work unit")
	}
}
