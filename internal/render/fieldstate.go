package render

import (
	"sync"

	"github.com/LucasPickering/slumber/internal/ast"
	"github.com/LucasPickering/slumber/internal/fieldcache"
)

// fieldState pairs a render group's Field Cache with a sideband record of
// which cached identifiers resolved to a sensitive value. The cache itself
// (internal/fieldcache, C2) stores a bare value.Value per slot, with no
// room for an extra bit; sensitivity is recorded here instead of smuggled
// into the cached value's shape, so a legitimately object-shaped field
// value is never misread as cache bookkeeping.
type fieldState struct {
	cache *fieldcache.Cache

	mu        sync.Mutex
	sensitive map[ast.Identifier]bool
}

func newFieldState() *fieldState {
	return &fieldState{cache: fieldcache.New(), sensitive: make(map[ast.Identifier]bool)}
}

// markSensitive records id's sensitivity. Must be called by the slot's
// producer before Guard.Set, so that the happens-before edge created by the
// guard's mutex release/acquire makes this write visible to every later
// cache hit for id.
func (fs *fieldState) markSensitive(id ast.Identifier, sensitive bool) {
	fs.mu.Lock()
	fs.sensitive[id] = sensitive
	fs.mu.Unlock()
}

func (fs *fieldState) isSensitive(id ast.Identifier) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.sensitive[id]
}
