package chain

import (
	"context"
	"strings"
	"time"
)

// HistoryEntry is one response read back from persisted history or
// produced by a freshly triggered sub-request.
type HistoryEntry struct {
	Body       []byte
	Headers    map[string][]string
	StatusCode int
	StartTime  time.Time
}

// HistoryProvider looks up the most recent persisted exchange for a
// recipe, implemented by internal/render on top of internal/store.
type HistoryProvider interface {
	LatestExchange(ctx context.Context, profileID *string, recipeID string) (*HistoryEntry, error)
}

// RequestSender launches a sub-request for recipeID using the same render
// context (same field cache, same overrides) as the template that
// triggered it, then persists the result if the recipe and session both
// allow it. Implemented by internal/render's orchestrator.
type RequestSender interface {
	SendRecipe(ctx context.Context, recipeID string) (*HistoryEntry, error)
}

// PromptRequest is published on a Prompter's channel for a Prompt source.
type PromptRequest struct {
	Message   string
	Default   *string
	Sensitive bool
}

// SelectRequest is published on a Prompter's channel for a Select source.
type SelectRequest struct {
	Message string
	Options []string
}

// Prompter is the single-producer/single-consumer channel pair (spec.md
// §5) a concrete render context provides for interactive input.
type Prompter interface {
	Prompt(ctx context.Context, req PromptRequest) (string, error)
	Select(ctx context.Context, req SelectRequest) (string, error)
}

// CommandRunner executes a subprocess and captures stdout, implemented
// directly with os/exec by DefaultRunner but swappable for tests.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, stdin *string) ([]byte, error)
}

// FileReader reads a file's contents, implemented directly with os by
// DefaultFileReader but swappable for tests.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// Resolver resolves chained values. The zero value is not usable; use
// NewResolver.
type Resolver struct {
	History HistoryProvider
	Sender  RequestSender
	Prompts Prompter
	Runner  CommandRunner
	Files   FileReader
}

// NewResolver builds a Resolver from its five capability dependencies.
func NewResolver(history HistoryProvider, sender RequestSender, prompts Prompter, runner CommandRunner, files FileReader) *Resolver {
	return &Resolver{History: history, Sender: sender, Prompts: prompts, Runner: runner, Files: files}
}

// Resolve resolves a named Chain's value as raw bytes, per spec.md §4.5;
// sensitivity is not returned here, it is the Chain's own Sensitive field.
// triggersAllowed gates whether a
// Request source may launch a sub-request; profileID scopes history
// lookups to the active profile.
func (r *Resolver) Resolve(ctx context.Context, c Chain, profileID *string, triggersAllowed bool) ([]byte, error) {
	var raw []byte
	var err error

	switch c.Source.Kind {
	case SourceRequest:
		raw, err = r.resolveRequestSource(ctx, c.Source, c.Trigger, profileID, triggersAllowed)
	case SourceCommand:
		raw, err = r.ResolveCommand(ctx, c.Source.Argv, c.Source.Stdin)
	case SourceFile:
		raw, err = r.ResolveFile(c.Source.Path)
	case SourcePrompt:
		var s string
		s, err = r.ResolvePrompt(ctx, PromptRequest{
			Message:   c.Source.PromptMessage,
			Default:   c.Source.PromptDefault,
			Sensitive: c.Sensitive,
		})
		raw = []byte(s)
	case SourceSelect:
		var s string
		s, err = r.ResolveSelect(ctx, SelectRequest{
			Message: c.Source.SelectMessage,
			Options: c.Source.SelectOptions,
		})
		raw = []byte(s)
	}
	if err != nil {
		return nil, &ResolveError{ChainID: c.ID, Sensitive: c.Sensitive, Cause: err}
	}

	if c.Selector != "" {
		selected, err := ApplySelectorBytes(raw, c.Selector)
		if err != nil {
			return nil, &ResolveError{ChainID: c.ID, Sensitive: c.Sensitive, Cause: err}
		}
		raw = selected
	}
	return raw, nil
}

func (r *Resolver) resolveRequestSource(ctx context.Context, src Source, trigger Trigger, profileID *string, triggersAllowed bool) ([]byte, error) {
	entry, err := r.resolveTriggered(ctx, src.RecipeID, trigger, profileID, triggersAllowed)
	if err != nil {
		return nil, err
	}
	if src.Section == SectionHeader {
		values := entry.Headers[src.HeaderName]
		if len(values) == 0 {
			return nil, &ChainSourceError{Kind: SourceErrorSelectorMismatch, Detail: "header " + src.HeaderName + " not present"}
		}
		return []byte(values[0]), nil
	}
	return entry.Body, nil
}

// resolveTriggered implements the trigger policy table in spec.md §4.5.
func (r *Resolver) resolveTriggered(ctx context.Context, recipeID string, trigger Trigger, profileID *string, triggersAllowed bool) (*HistoryEntry, error) {
	switch trigger.Kind {
	case TriggerNever:
		entry, err := r.History.LatestExchange(ctx, profileID, recipeID)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, &ErrNoResponseAvailable{RecipeID: recipeID}
		}
		return entry, nil

	case TriggerNoHistory:
		entry, err := r.History.LatestExchange(ctx, profileID, recipeID)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			return entry, nil
		}
		return r.launch(ctx, recipeID, triggersAllowed)

	case TriggerExpire:
		entry, err := r.History.LatestExchange(ctx, profileID, recipeID)
		if err != nil {
			return nil, err
		}
		if entry != nil && entry.StartTime.After(time.Now().Add(-trigger.Expire)) {
			return entry, nil
		}
		return r.launch(ctx, recipeID, triggersAllowed)

	case TriggerAlways:
		return r.launch(ctx, recipeID, triggersAllowed)

	default:
		return nil, &ErrNoResponseAvailable{RecipeID: recipeID}
	}
}

func (r *Resolver) launch(ctx context.Context, recipeID string, triggersAllowed bool) (*HistoryEntry, error) {
	if !triggersAllowed {
		return nil, &ErrTriggerNotAllowed{RecipeID: recipeID}
	}
	return r.Sender.SendRecipe(ctx, recipeID)
}

// ResolveCommand runs an ad-hoc command, for both named Command chains and
// the direct `command(argv, stdin)` template function.
func (r *Resolver) ResolveCommand(ctx context.Context, argv []string, stdin *string) ([]byte, error) {
	return r.Runner.Run(ctx, argv, stdin)
}

// ResolveFile reads an ad-hoc file, for both named File chains and the
// direct `file(path)` template function.
func (r *Resolver) ResolveFile(path string) ([]byte, error) {
	return r.Files.ReadFile(path)
}

// ResolvePrompt blocks on the Prompter's channel for a reply. The reply is
// trimmed of leading/trailing whitespace before becoming the chain's value,
// since terminal input routinely carries a trailing newline.
func (r *Resolver) ResolvePrompt(ctx context.Context, req PromptRequest) (string, error) {
	s, err := r.Prompts.Prompt(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// ResolveSelect blocks on the Prompter's channel for a choice, trimmed the
// same way ResolvePrompt trims its reply.
func (r *Resolver) ResolveSelect(ctx context.Context, req SelectRequest) (string, error) {
	s, err := r.Prompts.Select(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// ResolveResponse is the ad-hoc form of a Request source, used by the
// direct `response(recipe_id, trigger)` template function rather than a
// named Chain (so no selector or sensitivity wrapping applies).
func (r *Resolver) ResolveResponse(ctx context.Context, recipeID string, trigger Trigger, profileID *string, triggersAllowed bool) ([]byte, error) {
	entry, err := r.resolveTriggered(ctx, recipeID, trigger, profileID, triggersAllowed)
	if err != nil {
		return nil, err
	}
	return entry.Body, nil
}

// ResolveResponseHeader is the ad-hoc form backing `response_header`.
func (r *Resolver) ResolveResponseHeader(ctx context.Context, recipeID, header string, trigger Trigger, profileID *string, triggersAllowed bool) (string, error) {
	entry, err := r.resolveTriggered(ctx, recipeID, trigger, profileID, triggersAllowed)
	if err != nil {
		return "", err
	}
	values := entry.Headers[header]
	if len(values) == 0 {
		return "", &ChainSourceError{Kind: SourceErrorSelectorMismatch, Detail: "header " + header + " not present"}
	}
	return values[0], nil
}
