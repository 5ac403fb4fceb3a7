package synthesizer

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// graphNode is one unit of per-frame work. Nodes declare dependencies by
// name; nodes with satisfied dependencies run concurrently within a level.
type graphNode struct {
	name string
	deps []string
	run  func() error
}

// taskGraph evaluates a fixed set of frame tasks in dependency order. The
// graph is leveled once at construction; each evaluation fans a level's nodes
// out on the compute pool and waits on a barrier before starting the next
// level, so no node observes another's output out of dependency order.
type taskGraph struct {
	pool   worker.DynamicWorkerPool
	levels [][]graphNode
	nextID int
}

// newTaskGraph builds the level schedule for the given nodes and spins up the
// compute pool. Panics on an unknown dependency or a dependency cycle; the
// node set is fixed at construction so either is a wiring bug.
func newTaskGraph(workers int, nodes []graphNode) *taskGraph {
	byName := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if byName[n.name] {
			panic(fmt.Sprintf("synthesizer: duplicate task graph node %q", n.name))
		}
		byName[n.name] = true
	}

	scheduled := make(map[string]bool, len(nodes))
	remaining := append([]graphNode(nil), nodes...)
	var levels [][]graphNode
	for len(remaining) > 0 {
		var level []graphNode
		var next []graphNode
		for _, n := range remaining {
			ready := true
			for _, dep := range n.deps {
				if !byName[dep] {
					panic(fmt.Sprintf("synthesizer: task graph node %q depends on unknown node %q", n.name, dep))
				}
				if !scheduled[dep] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, n)
			} else {
				next = append(next, n)
			}
		}
		if len(level) == 0 {
			panic("synthesizer: task graph contains a dependency cycle")
		}
		for _, n := range level {
			scheduled[n.name] = true
		}
		levels = append(levels, level)
		remaining = next
	}

	return &taskGraph{
		// Queue size of 64 covers the default node set with headroom for
		// caller-registered nodes.
		pool:   worker.NewDynamicWorkerPool(workers, 64, 1*time.Second),
		levels: levels,
	}
}

// evaluate runs every node to completion for this frame. Nodes within a level
// are submitted to the compute pool and joined with a WaitGroup barrier;
// workers are reused across frames. A node error is a contract violation and
// panics after the level drains.
func (g *taskGraph) evaluate() {
	for _, level := range g.levels {
		var wg sync.WaitGroup
		var mu sync.Mutex
		var firstErr error

		for _, n := range level {
			wg.Add(1)
			node := n // capture for closure
			g.nextID++
			g.pool.SubmitTask(worker.Task{
				ID: g.nextID,
				Do: func() (any, error) {
					defer wg.Done()
					if err := node.run(); err != nil {
						mu.Lock()
						if firstErr == nil {
							firstErr = fmt.Errorf("task %q: %w", node.name, err)
						}
						mu.Unlock()
					}
					return nil, nil
				},
			})
		}
		wg.Wait()

		if firstErr != nil {
			panic(fmt.Sprintf("synthesizer: task graph failed: %v", firstErr))
		}
	}
}
