// Package fieldcache implements the Field Cache (spec.md §4.2): at-most-one
// outstanding producer per identifier within a render group, with
// concurrent readers either hitting a cached value or inheriting the
// producer role if the original producer's guard was dropped without
// setting a value.
//
// The shape is the same "outer map mutex guards slot lookup, each slot has
// its own lock for its mutable state" design as internal/hub/hub.go in the
// teacher repo, adapted from fan-out-buffer bookkeeping to a fill-once
// value cell.
package fieldcache

import (
	"fmt"
	"os"
	"sync"

	"github.com/LucasPickering/slumber/internal/ast"
	"github.com/LucasPickering/slumber/internal/value"
)

// slot holds the mutable state for one cached identifier: a mutex guarding
// an optional value. Absence (filled == false) means either nobody has
// started computing it yet, or a previous guard was dropped without
// setting it (spec.md §4.2 invariant 2).
type slot struct {
	mu     sync.Mutex
	filled bool
	value  value.Value
}

// Cache is a Field Cache scoped to one render group (spec.md GLOSSARY).
// The zero value is not usable; use New.
type Cache struct {
	mapMu sync.Mutex
	slots map[ast.Identifier]*slot
}

// New returns an empty, ready-to-use Cache.
func New() *Cache {
	return &Cache{slots: make(map[ast.Identifier]*slot)}
}

// Outcome is the result of GetOrInit: either a cached Hit, or a Miss that
// hands the caller a Guard it must fill.
type Outcome struct {
	Hit   bool
	Value value.Value
	Guard *Guard
}

// Guard is returned to the single caller responsible for computing a
// field's value. Set must be called exactly once on success; if the
// producer fails, the guard must simply be dropped (never call Set) so the
// next waiter inherits the producer role, per spec.md §4.2 invariant 2.
type Guard struct {
	s      *slot
	key    ast.Identifier
	closed bool
}

// GetOrInit implements the algorithm in spec.md §4.2: take the outer lock,
// find-or-insert the slot, drop the outer lock, then lock the slot. If the
// slot already holds a value, return Hit; otherwise the caller holds the
// slot lock via the returned Guard and is responsible for filling it.
func (c *Cache) GetOrInit(key ast.Identifier) Outcome {
	c.mapMu.Lock()
	s, ok := c.slots[key]
	if !ok {
		s = &slot{}
		c.slots[key] = s
	}
	c.mapMu.Unlock()

	s.mu.Lock()
	if s.filled {
		v := s.value
		s.mu.Unlock()
		return Outcome{Hit: true, Value: v}
	}
	// Caller now owns production of this key; slot stays locked until the
	// guard is closed (by Set or by being dropped).
	return Outcome{Hit: false, Guard: &Guard{s: s, key: key}}
}

// Set fills the slot with v and releases it to waiters. Idempotent per
// guard: a second call (or a call after Drop) is a no-op.
func (g *Guard) Set(v value.Value) {
	if g.closed {
		return
	}
	g.s.value = v
	g.s.filled = true
	g.closed = true
	g.s.mu.Unlock()
}

// Drop releases the slot without filling it, so the next waiter inherits
// the producer role instead of deadlocking. Emits a diagnostic (spec.md
// §4.2 invariant 3: "does not panic") if Set was never called.
func (g *Guard) Drop() {
	if g.closed {
		return
	}
	g.closed = true
	fmt.Fprintf(os.Stderr, "fieldcache: guard for %q dropped without a value; next waiter becomes the producer\n", g.key)
	g.s.mu.Unlock()
}
