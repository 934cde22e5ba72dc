package static

import "sync"

// HookQueue holds one-shot callbacks run after the next render pass.
type HookQueue struct {
	mu    sync.Mutex
	hooks []func()
}

// Add queues fn.
func (q *HookQueue) Add(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.hooks = append(q.hooks, fn)
	q.mu.Unlock()
}

// Len returns the number of queued hooks.
func (q *HookQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.hooks)
}

// Drain runs the queued hooks in the order they were added and returns how
// many ran. The queue is swapped out first: hooks added while draining run
// on the next drain.
func (q *HookQueue) Drain() int {
	q.mu.Lock()
	hooks := q.hooks
	q.hooks = nil
	q.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return len(hooks)
}
