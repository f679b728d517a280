package collection

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/LucasPickering/slumber/internal/chain"
)

// Validate cross-checks references that a single recipe/chain's own parse
// pass can't see: a Request chain source names a recipe ID, and that ID has
// to exist somewhere in the recipe tree. Unlike the rest of collection
// parsing (which stops at the first SchemaError), Validate keeps going and
// reports every broken reference at once, so fixing a collection doesn't
// mean running the loader over and over to find them one at a time.
func (c *Collection) Validate() error {
	recipeIDs := map[string]bool{}
	collectRecipeIDs(c.Recipes, recipeIDs)

	var errs error
	for id, ch := range c.Chains {
		if ch.Source.Kind != chain.SourceRequest {
			continue
		}
		if !recipeIDs[ch.Source.RecipeID] {
			errs = multierr.Append(errs, fmt.Errorf(
				"chains.%s.source.request: recipe %q does not exist", id, ch.Source.RecipeID,
			))
		}
	}
	return errs
}

func collectRecipeIDs(n *RecipeNode, out map[string]bool) {
	if n == nil {
		return
	}
	if n.Recipe != nil {
		out[n.Recipe.ID] = true
	}
	if n.Children == nil {
		return
	}
	for pair := n.Children.Oldest(); pair != nil; pair = pair.Next() {
		collectRecipeIDs(pair.Value, out)
	}
}
