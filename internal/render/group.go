package render

import (
	"context"
	"fmt"

	"github.com/LucasPickering/slumber/internal/ast"
	"github.com/LucasPickering/slumber/internal/chain"
	"github.com/LucasPickering/slumber/internal/collection"
	"github.com/LucasPickering/slumber/internal/template"
	"github.com/LucasPickering/slumber/internal/value"
)

// Group is one render group (spec.md GLOSSARY): a single Field Cache shared
// by every template evaluated within it, so a field referenced from a
// recipe's URL, headers, and body alike is computed at most once. Build one
// Group per top-level render (one recipe execution, one live preview) and
// reuse it for every template that render touches, including the
// sub-recipe a triggered chain launches (spec.md §4.5: "same render
// context").
type Group struct {
	renderer  *Renderer
	profile   *collection.Profile
	profileID *string
	overrides map[string]string
	fs        *fieldState
	resolver  *chain.Resolver
}

// NewGroup builds a render group scoped to profileID (nil selects no
// profile) with the given CLI overrides (key -> literal replacement text,
// spec.md §6).
func (r *Renderer) NewGroup(profileID *string, overrides map[string]string) (*Group, error) {
	var profile *collection.Profile
	if profileID != nil {
		p, ok := r.Collection.Profiles[*profileID]
		if !ok {
			return nil, &ErrUnknownProfile{ProfileID: *profileID}
		}
		profile = p
	}

	g := &Group{
		renderer:  r,
		profile:   profile,
		profileID: profileID,
		overrides: overrides,
		fs:        newFieldState(),
	}
	g.resolver = chain.NewResolver(g, g, g.prompter(), &chain.DefaultRunner{}, chain.DefaultFileReader{})
	return g, nil
}

func (g *Group) prompter() chain.Prompter {
	if g.renderer.Prompts == nil {
		return noPrompts{}
	}
	return g.renderer.Prompts
}

// Get implements Context: a profile field (itself a template, rendered
// recursively within this same group) takes precedence over a chain of the
// same name, per spec.md §4.3's "usually a profile entry" phrasing — the
// closed function set's response()/file()/etc. primitives are the direct
// form of the same mechanism a named Chain desugars to.
func (g *Group) Get(ctx context.Context, id ast.Identifier) (value.Value, bool, error) {
	if g.profile != nil {
		if tpl, ok := g.profile.Data.Get(string(id)); ok {
			rendered, err := renderTemplate(ctx, g, g.fs, tpl)
			if err != nil {
				return value.Null(), false, err
			}
			return value.String(string(rendered.Bytes)), rendered.Sensitive, nil
		}
	}

	if c, ok := g.renderer.Collection.Chains[string(id)]; ok {
		resolved, err := g.resolveSelectOptions(ctx, *c)
		if err != nil {
			return value.Null(), false, err
		}
		raw, err := g.resolver.Resolve(ctx, resolved, g.profileID, g.renderer.TriggersAllowed)
		if err != nil {
			return value.Null(), false, err
		}
		return value.Bytes(raw), c.Sensitive, nil
	}

	return value.Null(), false, fmt.Errorf("render: unknown field %q", id)
}

// resolveSelectOptions renders a Select-sourced chain's option list against
// this group before resolving it. The collection loader stores each
// option as validated-but-unparsed template text (internal/collection's
// Select source is a Template per spec.md §3), so the actual parse and
// render happens here, the one place with both a render context and a
// chain.Source in hand.
func (g *Group) resolveSelectOptions(ctx context.Context, c chain.Chain) (chain.Chain, error) {
	if c.Source.Kind != chain.SourceSelect || len(c.Source.SelectOptions) == 0 {
		return c, nil
	}
	resolved := make([]string, len(c.Source.SelectOptions))
	for i, raw := range c.Source.SelectOptions {
		tpl, err := template.Parse(raw)
		if err != nil {
			return c, err
		}
		rendered, err := renderTemplate(ctx, g, g.fs, tpl)
		if err != nil {
			return c, err
		}
		resolved[i] = string(rendered.Bytes)
	}
	c.Source.SelectOptions = resolved
	return c, nil
}

// Call implements Context by dispatching to the closed builtin function
// table (spec.md §4.4).
func (g *Group) Call(ctx context.Context, name ast.Identifier, args Arguments) (value.Value, bool, error) {
	fn, ok := builtins[name]
	if !ok {
		return value.Null(), false, &ErrUnknownFunction{Name: string(name)}
	}
	return fn(ctx, g, args)
}

// Override implements Context.
func (g *Group) Override(source string) (string, bool) {
	s, ok := g.overrides[source]
	return s, ok
}

// TriggersAllowed implements Context.
func (g *Group) TriggersAllowed() bool { return g.renderer.TriggersAllowed }

// LatestExchange implements chain.HistoryProvider on top of internal/store.
func (g *Group) LatestExchange(ctx context.Context, profileID *string, recipeID string) (*chain.HistoryEntry, error) {
	ex, err := g.renderer.Store.LatestExchange(g.renderer.CollectionID, recipeID, profileID)
	if err != nil {
		return nil, err
	}
	if ex == nil {
		return nil, nil
	}
	return exchangeToHistory(ex), nil
}

// SendRecipe implements chain.RequestSender: it builds and sends
// recipeID's request using this same Group (same field cache, same
// overrides, same profile), then persists the result if both the recipe
// and the session allow it (spec.md §4.5, §4.6).
func (g *Group) SendRecipe(ctx context.Context, recipeID string) (*chain.HistoryEntry, error) {
	recipe, ok := g.renderer.recipesByID[recipeID]
	if !ok {
		return nil, &ErrUnknownRecipe{RecipeID: recipeID}
	}
	ex, err := g.renderer.execute(ctx, g, recipe)
	if err != nil {
		return nil, err
	}
	return exchangeFromResult(ex), nil
}
