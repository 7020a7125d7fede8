package engine

import "sort"

// Context is the run-scoped mutable key/value store nodes read from and
// write into. It preserves key insertion order for stable snapshots and
// error listings. A single run's context is only ever touched by the one
// worker executing that run, so no internal locking is needed.
type Context struct {
	values map[string]any
	order  []string
}

// FromPayload initializes a Context from a run's trigger payload.
// A nil payload yields an empty context. New keys from the payload are
// recorded in sorted order so rebuilt contexts are deterministic.
func FromPayload(payload map[string]any) *Context {
	c := &Context{values: make(map[string]any, len(payload))}
	c.Merge(payload)
	return c
}

// Merge performs a last-write-wins shallow union of additions into the
// context. A nil or empty argument is a no-op. Keys not yet present are
// appended to the insertion order; map iteration order is not stable in
// Go, so new keys within one merge are appended sorted.
func (c *Context) Merge(additions map[string]any) {
	if len(additions) == 0 {
		return
	}
	newKeys := make([]string, 0, len(additions))
	for k, v := range additions {
		if _, exists := c.values[k]; !exists {
			newKeys = append(newKeys, k)
		}
		c.values[k] = v
	}
	sort.Strings(newKeys)
	c.order = append(c.order, newKeys...)
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys returns the context keys in insertion order.
func (c *Context) Keys() []string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}

// Len returns the number of keys in the context.
func (c *Context) Len() int { return len(c.values) }

// Snapshot returns a copy of the current state. The copy is shallow but
// detached: callers mutating the returned map cannot corrupt the context.
func (c *Context) Snapshot() map[string]any {
	snap := make(map[string]any, len(c.values))
	for k, v := range c.values {
		snap[k] = v
	}
	return snap
}
