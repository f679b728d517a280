package render

import (
	"context"
	"encoding/base64"
	"net/url"
	"os"
	"strings"

	"github.com/LucasPickering/slumber/internal/ast"
	"github.com/LucasPickering/slumber/internal/chain"
	"github.com/LucasPickering/slumber/internal/value"
)

// builtin is the shape of every function in the closed set described in
// spec.md §4.4. The bool result reports sensitivity.
type builtin func(ctx context.Context, g *Group, args Arguments) (value.Value, bool, error)

var builtins = map[ast.Identifier]builtin{
	"response":        fnResponse,
	"response_header": fnResponseHeader,
	"env":             fnEnv,
	"file":            fnFile,
	"command":         fnCommand,
	"prompt":          fnPrompt,
	"select":          fnSelect,
	"jsonpath":        fnJSONPath,
	"jq":              fnJSONPath,
	"trim":            fnTrim,
	"to_string":       fnToString,
	"base64encode":    fnBase64Encode,
	"base64decode":    fnBase64Decode,
	"urlencode":       fnURLEncode,
}

func argString(args Arguments, idx int, name ast.Identifier, fn string) (string, error) {
	v, ok := args.Lookup(idx, name)
	if !ok {
		return "", &ErrArgument{Function: fn, Message: "missing required argument " + string(name)}
	}
	return value.CoerceString(v)
}

func argStringOpt(args Arguments, idx int, name ast.Identifier, def string) string {
	v, ok := args.Lookup(idx, name)
	if !ok || v.IsNull() {
		return def
	}
	s, err := value.CoerceString(v)
	if err != nil {
		return def
	}
	return s
}

func fnResponse(ctx context.Context, g *Group, args Arguments) (value.Value, bool, error) {
	recipeID, err := argString(args, 0, "recipe_id", "response")
	if err != nil {
		return value.Null(), false, err
	}
	trigger, err := argTrigger(args, 1, "trigger")
	if err != nil {
		return value.Null(), false, err
	}
	raw, err := g.resolver.ResolveResponse(ctx, recipeID, trigger, g.profileID, g.renderer.TriggersAllowed)
	if err != nil {
		return value.Null(), false, err
	}
	return value.Bytes(raw), false, nil
}

func fnResponseHeader(ctx context.Context, g *Group, args Arguments) (value.Value, bool, error) {
	recipeID, err := argString(args, 0, "recipe_id", "response_header")
	if err != nil {
		return value.Null(), false, err
	}
	header, err := argString(args, 1, "header", "response_header")
	if err != nil {
		return value.Null(), false, err
	}
	trigger, err := argTrigger(args, 2, "trigger")
	if err != nil {
		return value.Null(), false, err
	}
	s, err := g.resolver.ResolveResponseHeader(ctx, recipeID, header, trigger, g.profileID, g.renderer.TriggersAllowed)
	if err != nil {
		return value.Null(), false, err
	}
	return value.String(s), false, nil
}

func argTrigger(args Arguments, idx int, name ast.Identifier) (chain.Trigger, error) {
	v, ok := args.Lookup(idx, name)
	if !ok || v.IsNull() {
		return chain.Trigger{Kind: chain.TriggerNever}, nil
	}
	s, err := value.CoerceString(v)
	if err != nil {
		return chain.Trigger{}, err
	}
	return parseTriggerArg(s)
}

func fnEnv(_ context.Context, _ *Group, args Arguments) (value.Value, bool, error) {
	name, err := argString(args, 0, "name", "env")
	if err != nil {
		return value.Null(), false, err
	}
	v, ok := os.LookupEnv(name)
	if !ok {
		return value.Null(), false, nil
	}
	return value.String(v), false, nil
}

func fnFile(_ context.Context, g *Group, args Arguments) (value.Value, bool, error) {
	path, err := argString(args, 0, "path", "file")
	if err != nil {
		return value.Null(), false, err
	}
	raw, err := g.resolver.ResolveFile(path)
	if err != nil {
		return value.Null(), false, err
	}
	return value.Bytes(raw), false, nil
}

func fnCommand(ctx context.Context, g *Group, args Arguments) (value.Value, bool, error) {
	argvVal, ok := args.Lookup(0, "argv")
	if !ok {
		return value.Null(), false, &ErrArgument{Function: "command", Message: "missing required argument argv"}
	}
	argvArr, ok := argvVal.AsArray()
	if !ok {
		return value.Null(), false, &ErrArgument{Function: "command", Message: "argv must be an array of strings"}
	}
	argv := make([]string, len(argvArr))
	for i, elem := range argvArr {
		s, err := value.CoerceString(elem)
		if err != nil {
			return value.Null(), false, &ErrArgument{Function: "command", Message: "argv elements must be strings"}
		}
		argv[i] = s
	}

	var stdin *string
	if v, ok := args.Lookup(1, "stdin"); ok && !v.IsNull() {
		s, err := value.CoerceString(v)
		if err != nil {
			return value.Null(), false, err
		}
		stdin = &s
	}

	raw, err := g.resolver.ResolveCommand(ctx, argv, stdin)
	if err != nil {
		return value.Null(), false, err
	}
	return value.Bytes(raw), false, nil
}

func fnPrompt(ctx context.Context, g *Group, args Arguments) (value.Value, bool, error) {
	message := argStringOpt(args, 0, "message", "")
	var def *string
	if v, ok := args.Lookup(1, "default"); ok && !v.IsNull() {
		s, err := value.CoerceString(v)
		if err != nil {
			return value.Null(), false, err
		}
		def = &s
	}
	sensitive := false
	if v, ok := args.Lookup(2, "sensitive"); ok && !v.IsNull() {
		b, err := value.CoerceBool(v)
		if err != nil {
			return value.Null(), false, err
		}
		sensitive = b
	}

	s, err := g.resolver.ResolvePrompt(ctx, chain.PromptRequest{Message: message, Default: def, Sensitive: sensitive})
	if err != nil {
		return value.Null(), false, err
	}
	return value.String(s), sensitive, nil
}

func fnSelect(ctx context.Context, g *Group, args Arguments) (value.Value, bool, error) {
	message := argStringOpt(args, 0, "message", "")
	optsVal, ok := args.Lookup(1, "options")
	if !ok {
		return value.Null(), false, &ErrArgument{Function: "select", Message: "missing required argument options"}
	}
	optsArr, ok := optsVal.AsArray()
	if !ok {
		return value.Null(), false, &ErrArgument{Function: "select", Message: "options must be an array of strings"}
	}
	options := make([]string, len(optsArr))
	for i, elem := range optsArr {
		s, err := value.CoerceString(elem)
		if err != nil {
			return value.Null(), false, &ErrArgument{Function: "select", Message: "options elements must be strings"}
		}
		options[i] = s
	}

	s, err := g.resolver.ResolveSelect(ctx, chain.SelectRequest{Message: message, Options: options})
	if err != nil {
		return value.Null(), false, err
	}
	return value.String(s), false, nil
}

// fnJSONPath implements jsonpath/jq, almost always used as a pipe filter:
// `response(...) | jsonpath(expr="$.user.name")`.
func fnJSONPath(_ context.Context, _ *Group, args Arguments) (value.Value, bool, error) {
	lhs, ok := args.Arg(0)
	if !ok {
		return value.Null(), false, &ErrArgument{Function: "jsonpath", Message: "missing input value"}
	}
	expr, err := argString(args, 1, "expr", "jsonpath")
	if err != nil {
		return value.Null(), false, err
	}
	raw, err := lhs.ToBytes()
	if err != nil {
		return value.Null(), false, err
	}
	selected, err := chain.ApplySelectorBytes(raw, expr)
	if err != nil {
		return value.Null(), false, err
	}
	return value.Bytes(selected), false, nil
}

func fnTrim(_ context.Context, _ *Group, args Arguments) (value.Value, bool, error) {
	s, err := argString(args, 0, "value", "trim")
	if err != nil {
		return value.Null(), false, err
	}
	return value.String(strings.TrimSpace(s)), false, nil
}

func fnToString(_ context.Context, _ *Group, args Arguments) (value.Value, bool, error) {
	v, ok := args.Arg(0)
	if !ok {
		return value.Null(), false, &ErrArgument{Function: "to_string", Message: "missing required argument"}
	}
	s, err := value.Stringify(v)
	if err != nil {
		return value.Null(), false, err
	}
	return value.String(s), false, nil
}

func fnBase64Encode(_ context.Context, _ *Group, args Arguments) (value.Value, bool, error) {
	v, ok := args.Arg(0)
	if !ok {
		return value.Null(), false, &ErrArgument{Function: "base64encode", Message: "missing required argument"}
	}
	raw, err := v.ToBytes()
	if err != nil {
		return value.Null(), false, err
	}
	return value.String(base64.StdEncoding.EncodeToString(raw)), false, nil
}

func fnBase64Decode(_ context.Context, _ *Group, args Arguments) (value.Value, bool, error) {
	s, err := argString(args, 0, "value", "base64decode")
	if err != nil {
		return value.Null(), false, err
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return value.Null(), false, &ErrArgument{Function: "base64decode", Message: err.Error()}
	}
	return value.Bytes(raw), false, nil
}

func fnURLEncode(_ context.Context, _ *Group, args Arguments) (value.Value, bool, error) {
	s, err := argString(args, 0, "value", "urlencode")
	if err != nil {
		return value.Null(), false, err
	}
	return value.String(url.QueryEscape(s)), false, nil
}
