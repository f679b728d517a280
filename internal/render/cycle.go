package render

import (
	"context"

	"github.com/LucasPickering/slumber/internal/ast"
)

// fieldStackKey carries the chain of Field identifiers currently being
// resolved on this goroutine's call path, so a self-referential profile
// field (§4.3) is reported as ErrRecursiveField instead of deadlocking on
// its own Field Cache slot (sync.Mutex is not re-entrant).
type fieldStackKey struct{}

// pushField returns a context with name appended to the in-progress field
// stack, or ok=false if name is already on it (a cycle).
func pushField(ctx context.Context, name ast.Identifier) (next context.Context, ok bool) {
	stack, _ := ctx.Value(fieldStackKey{}).([]ast.Identifier)
	for _, s := range stack {
		if s == name {
			return ctx, false
		}
	}
	grown := make([]ast.Identifier, len(stack)+1)
	copy(grown, stack)
	grown[len(stack)] = name
	return context.WithValue(ctx, fieldStackKey{}, grown), true
}
