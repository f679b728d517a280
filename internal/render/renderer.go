package render

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/LucasPickering/slumber/internal/chain"
	"github.com/LucasPickering/slumber/internal/collection"
	"github.com/LucasPickering/slumber/internal/httpengine"
	"github.com/LucasPickering/slumber/internal/store"
	"github.com/LucasPickering/slumber/internal/template"
)

// Renderer is the long-lived orchestrator (spec.md §4.8, C8) that ties a
// loaded Collection to its persistent store and HTTP engine. One Renderer
// is built per open collection; Groups are created per top-level render.
type Renderer struct {
	Collection   *collection.Collection
	CollectionID string
	Store        *store.Store
	Engine       *httpengine.Engine

	// Persist is the session-level switch; a recipe still needs its own
	// Persist flag set for an exchange to actually be written.
	Persist bool
	// TriggersAllowed gates whether a Request-sourced chain may launch a
	// sub-request. False for a plain one-shot CLI render (spec.md §4.5);
	// true for an interactive session that can wait on a prompt/sub-send.
	TriggersAllowed bool
	// Prompts serves interactive Prompt/Select chain sources. Nil means
	// prompts always fail (the plain CLI renderer).
	Prompts Prompter

	recipesByID map[string]*collection.Recipe
}

// NewRenderer indexes coll's recipe tree by ID and returns a ready
// Renderer.
func NewRenderer(coll *collection.Collection, collectionID string, st *store.Store, engine *httpengine.Engine) *Renderer {
	r := &Renderer{
		Collection:   coll,
		CollectionID: collectionID,
		Store:        st,
		Engine:       engine,
		recipesByID:  make(map[string]*collection.Recipe),
	}
	indexRecipes(coll.Recipes, r.recipesByID)
	return r
}

func indexRecipes(node *collection.RecipeNode, out map[string]*collection.Recipe) {
	if node == nil {
		return
	}
	if node.Recipe != nil {
		out[node.Recipe.ID] = node.Recipe
	}
	if node.Children != nil {
		for pair := node.Children.Oldest(); pair != nil; pair = pair.Next() {
			indexRecipes(pair.Value, out)
		}
	}
}

// Recipe looks up a recipe by ID.
func (r *Renderer) Recipe(recipeID string) (*collection.Recipe, bool) {
	rec, ok := r.recipesByID[recipeID]
	return rec, ok
}

// Execute is the top-level user-initiated request: build recipe's wire
// request under group, send it, and persist if enabled. Unlike a
// chain-triggered sub-request, this is always allowed to happen regardless
// of Renderer.TriggersAllowed, since it's the render the caller asked for
// directly rather than one a template decided to launch.
func (r *Renderer) Execute(ctx context.Context, group *Group, recipe *collection.Recipe) (*httpengine.Exchange, error) {
	return r.execute(ctx, group, recipe)
}

func (r *Renderer) execute(ctx context.Context, group *Group, recipe *collection.Recipe) (*httpengine.Exchange, error) {
	in, err := buildRequest(ctx, group, recipe)
	if err != nil {
		return nil, err
	}
	wire, err := httpengine.Build(*in)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ex, sendErr := r.Engine.Send(ctx, wire)
	if sendErr != nil {
		return nil, sendErr
	}

	if recipe.Persist && r.Persist {
		r.persist(recipe.ID, group.profileID, ex, start)
	}
	return ex, nil
}

func (r *Renderer) persist(recipeID string, profileID *string, ex *httpengine.Exchange, start time.Time) {
	reqHeaders, _ := json.Marshal(ex.Request.Header)
	respHeaders, _ := json.Marshal(ex.ResponseHead)
	respHeadersStr := string(respHeaders)
	status := ex.StatusCode
	end := ex.EndTime

	row := &store.Exchange{
		CollectionID:    r.CollectionID,
		RecipeID:        recipeID,
		ProfileID:       profileID,
		Method:          ex.Request.Method,
		URL:             ex.Request.URL.String(),
		RequestHeaders:  string(reqHeaders),
		RequestBody:     ex.Request.Body,
		StatusCode:      &status,
		ResponseHeaders: &respHeadersStr,
		ResponseBody:    ex.ResponseBody,
		StartTime:       start,
		EndTime:         &end,
	}
	// The insert runs before Execute returns, but a store failure is only
	// printed, never returned, so it does not fail an otherwise-successful
	// send (spec.md §4.6).
	if _, err := r.Store.InsertExchange(row); err != nil {
		fmt.Printf("render: failed to persist exchange for recipe %s: %v\n", recipeID, err)
	}
}

func exchangeToHistory(ex *store.Exchange) *chain.HistoryEntry {
	var headers map[string][]string
	if ex.ResponseHeaders != nil {
		_ = json.Unmarshal([]byte(*ex.ResponseHeaders), &headers)
	}
	status := 0
	if ex.StatusCode != nil {
		status = *ex.StatusCode
	}
	return &chain.HistoryEntry{
		Body:       ex.ResponseBody,
		Headers:    headers,
		StatusCode: status,
		StartTime:  ex.StartTime,
	}
}

func exchangeFromResult(ex *httpengine.Exchange) *chain.HistoryEntry {
	return &chain.HistoryEntry{
		Body:       ex.ResponseBody,
		Headers:    map[string][]string(ex.ResponseHead),
		StatusCode: ex.StatusCode,
		StartTime:  ex.StartTime,
	}
}

// Rendered is a fully-evaluated template: concrete bytes plus whether any
// part of the template resolved to a sensitive value.
type Rendered struct {
	Bytes     []byte
	Sensitive bool
}

// ChunkResult is one chunk's independent render outcome, used by Chunks to
// report partial success (spec.md §4.8: a failing chunk doesn't prevent
// its siblings from being reported).
type ChunkResult struct {
	Bytes     []byte
	Sensitive bool
	Err       error
}

// Template renders tpl to bytes, failing on the first chunk (in source
// order) that errors.
func (g *Group) Template(ctx context.Context, tpl *template.Template) (Rendered, error) {
	return renderTemplate(ctx, g, g.fs, tpl)
}

// TemplateString renders tpl and requires the result to be valid UTF-8
// (spec.md §4.8 render_string).
func (g *Group) TemplateString(ctx context.Context, tpl *template.Template) (string, bool, error) {
	rendered, err := renderTemplate(ctx, g, g.fs, tpl)
	if err != nil {
		return "", false, err
	}
	if !utf8.Valid(rendered.Bytes) {
		return "", false, &ErrInvalidUTF8{}
	}
	return string(rendered.Bytes), rendered.Sensitive, nil
}

// Chunks renders every chunk of tpl independently, reporting each chunk's
// own error rather than failing the whole template.
func (g *Group) Chunks(ctx context.Context, tpl *template.Template) []ChunkResult {
	return renderChunks(ctx, g, g.fs, tpl)
}

func renderChunks(ctx context.Context, rc Context, fs *fieldState, tpl *template.Template) []ChunkResult {
	results := make([]ChunkResult, len(tpl.Chunks))
	done := make(chan struct{}, len(tpl.Chunks))
	for i, c := range tpl.Chunks {
		i, c := i, c
		go func() {
			defer func() { done <- struct{}{} }()
			if c.Kind == template.ChunkRaw {
				results[i] = ChunkResult{Bytes: []byte(c.Raw)}
				return
			}
			v, sensitive, err := evaluate(ctx, rc, fs, c.Expr)
			if err != nil {
				results[i] = ChunkResult{Err: err}
				return
			}
			b, err := v.ToBytes()
			if err != nil {
				results[i] = ChunkResult{Err: err}
				return
			}
			results[i] = ChunkResult{Bytes: b, Sensitive: sensitive}
		}()
	}
	for range tpl.Chunks {
		<-done
	}
	return results
}

func renderTemplate(ctx context.Context, rc Context, fs *fieldState, tpl *template.Template) (Rendered, error) {
	chunks := renderChunks(ctx, rc, fs, tpl)
	var buf []byte
	sensitive := false
	for i, c := range chunks {
		if c.Err != nil {
			return Rendered{}, fmt.Errorf("chunk %d: %w", i, c.Err)
		}
		buf = append(buf, c.Bytes...)
		sensitive = sensitive || c.Sensitive
	}
	return Rendered{Bytes: buf, Sensitive: sensitive}, nil
}
