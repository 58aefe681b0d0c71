package chat

import "sync"

// UsageTracker accumulates token usage across calls on one client instance.
// Actual reflects the most recent call, Total the monotonic sum. Updates are
// serialized so concurrent calls sharing a client never lose counts.
type UsageTracker struct {
	mu     sync.Mutex
	actual RequestUsage
	total  RequestUsage
}

// Record replaces the actual usage and adds it to the running total.
func (t *UsageTracker) Record(u RequestUsage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.actual = u
	t.total = t.total.Add(u)
}

// Actual returns the usage of the most recent call.
func (t *UsageTracker) Actual() RequestUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.actual
}

// Total returns the accumulated usage of all calls.
func (t *UsageTracker) Total() RequestUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}
