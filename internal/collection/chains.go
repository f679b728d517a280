package collection

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LucasPickering/slumber/internal/chain"
	"github.com/LucasPickering/slumber/internal/template"
)

var chainKeys = []string{"source", "sensitive", "selector", "trigger", "content_type"}

func parseChains(node *yaml.Node) (map[string]*chain.Chain, error) {
	entries, err := mapEntries(node, "chains")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*chain.Chain, len(entries))
	for _, e := range entries {
		path := "chains." + e.Key
		c, err := parseChain(e.Key, e.ValueNode, path)
		if err != nil {
			return nil, err
		}
		out[e.Key] = c
	}
	return out, nil
}

func parseChain(id string, node *yaml.Node, path string) (*chain.Chain, error) {
	entries, err := mapEntries(node, path)
	if err != nil {
		return nil, err
	}
	fields, err := requireKnownKeys(entries, chainKeys, path)
	if err != nil {
		return nil, err
	}

	c := &chain.Chain{ID: id, Trigger: chain.Trigger{Kind: chain.TriggerNever}}

	srcEntry, ok := fields["source"]
	if !ok {
		return nil, &SchemaError{Path: path, Message: "missing required field \"source\""}
	}
	if c.Source, err = parseChainSource(srcEntry.ValueNode, path+".source"); err != nil {
		return nil, err
	}

	if e, ok := fields["sensitive"]; ok {
		if c.Sensitive, err = scalarBool(e.ValueNode, path+".sensitive", false); err != nil {
			return nil, err
		}
	}
	if e, ok := fields["selector"]; ok {
		if c.Selector, err = scalarString(e.ValueNode, path+".selector"); err != nil {
			return nil, err
		}
	}
	if e, ok := fields["trigger"]; ok {
		if c.Trigger, err = parseTrigger(e.ValueNode, path+".trigger"); err != nil {
			return nil, err
		}
	}
	if e, ok := fields["content_type"]; ok {
		if c.ContentType, err = scalarString(e.ValueNode, path+".content_type"); err != nil {
			return nil, err
		}
	}
	return c, nil
}

var sourceKindKeys = []string{"request", "command", "file", "prompt", "select"}
var requestKeys = []string{"recipe", "header"}
var commandKeys = []string{"argv", "stdin"}
var fileKeys = []string{"path"}
var promptKeys = []string{"message", "default"}
var selectKeys = []string{"message", "options"}

func parseChainSource(node *yaml.Node, path string) (chain.Source, error) {
	entries, err := mapEntries(node, path)
	if err != nil {
		return chain.Source{}, err
	}
	fields, err := requireKnownKeys(entries, sourceKindKeys, path)
	if err != nil {
		return chain.Source{}, err
	}

	switch {
	case has(fields, "request"):
		inner, err := mapEntries(fields["request"].ValueNode, path+".request")
		if err != nil {
			return chain.Source{}, err
		}
		innerFields, err := requireKnownKeys(inner, requestKeys, path+".request")
		if err != nil {
			return chain.Source{}, err
		}
		src := chain.Source{Kind: chain.SourceRequest, Section: chain.SectionBody}
		recipeEntry, ok := innerFields["recipe"]
		if !ok {
			return chain.Source{}, &SchemaError{Path: path + ".request", Message: "missing required field \"recipe\""}
		}
		if src.RecipeID, err = scalarString(recipeEntry.ValueNode, path+".request.recipe"); err != nil {
			return chain.Source{}, err
		}
		if h, ok := innerFields["header"]; ok {
			src.Section = chain.SectionHeader
			if src.HeaderName, err = scalarString(h.ValueNode, path+".request.header"); err != nil {
				return chain.Source{}, err
			}
		}
		return src, nil

	case has(fields, "command"):
		inner, err := mapEntries(fields["command"].ValueNode, path+".command")
		if err != nil {
			return chain.Source{}, err
		}
		innerFields, err := requireKnownKeys(inner, commandKeys, path+".command")
		if err != nil {
			return chain.Source{}, err
		}
		argvEntry, ok := innerFields["argv"]
		if !ok {
			return chain.Source{}, &SchemaError{Path: path + ".command", Message: "missing required field \"argv\""}
		}
		if argvEntry.ValueNode.Kind != yaml.SequenceNode {
			return chain.Source{}, &SchemaError{Path: path + ".command.argv", Line: argvEntry.ValueNode.Line, Column: argvEntry.ValueNode.Column, Message: "expected a list"}
		}
		var argv []string
		for i, item := range argvEntry.ValueNode.Content {
			s, err := scalarString(item, fmt.Sprintf("%s.command.argv[%d]", path, i))
			if err != nil {
				return chain.Source{}, err
			}
			argv = append(argv, s)
		}
		src := chain.Source{Kind: chain.SourceCommand, Argv: argv}
		if stdinEntry, ok := innerFields["stdin"]; ok {
			s, err := scalarString(stdinEntry.ValueNode, path+".command.stdin")
			if err != nil {
				return chain.Source{}, err
			}
			src.Stdin = &s
		}
		return src, nil

	case has(fields, "file"):
		inner, err := mapEntries(fields["file"].ValueNode, path+".file")
		if err != nil {
			return chain.Source{}, err
		}
		innerFields, err := requireKnownKeys(inner, fileKeys, path+".file")
		if err != nil {
			return chain.Source{}, err
		}
		pathEntry, ok := innerFields["path"]
		if !ok {
			return chain.Source{}, &SchemaError{Path: path + ".file", Message: "missing required field \"path\""}
		}
		p, err := scalarString(pathEntry.ValueNode, path+".file.path")
		if err != nil {
			return chain.Source{}, err
		}
		return chain.Source{Kind: chain.SourceFile, Path: p}, nil

	case has(fields, "prompt"):
		inner, err := mapEntries(fields["prompt"].ValueNode, path+".prompt")
		if err != nil {
			return chain.Source{}, err
		}
		innerFields, err := requireKnownKeys(inner, promptKeys, path+".prompt")
		if err != nil {
			return chain.Source{}, err
		}
		src := chain.Source{Kind: chain.SourcePrompt}
		if m, ok := innerFields["message"]; ok {
			if src.PromptMessage, err = scalarString(m.ValueNode, path+".prompt.message"); err != nil {
				return chain.Source{}, err
			}
		}
		if d, ok := innerFields["default"]; ok {
			s, err := scalarString(d.ValueNode, path+".prompt.default")
			if err != nil {
				return chain.Source{}, err
			}
			src.PromptDefault = &s
		}
		return src, nil

	case has(fields, "select"):
		inner, err := mapEntries(fields["select"].ValueNode, path+".select")
		if err != nil {
			return chain.Source{}, err
		}
		innerFields, err := requireKnownKeys(inner, selectKeys, path+".select")
		if err != nil {
			return chain.Source{}, err
		}
		src := chain.Source{Kind: chain.SourceSelect}
		if m, ok := innerFields["message"]; ok {
			if src.SelectMessage, err = scalarString(m.ValueNode, path+".select.message"); err != nil {
				return chain.Source{}, err
			}
		}
		optsEntry, ok := innerFields["options"]
		if !ok {
			return chain.Source{}, &SchemaError{Path: path + ".select", Message: "missing required field \"options\""}
		}
		if optsEntry.ValueNode.Kind != yaml.SequenceNode {
			return chain.Source{}, &SchemaError{Path: path + ".select.options", Line: optsEntry.ValueNode.Line, Column: optsEntry.ValueNode.Column, Message: "expected a list"}
		}
		for i, item := range optsEntry.ValueNode.Content {
			// Select options are rendered Templates (spec.md §3), but the
			// chain itself only stores their plain text here; rendering
			// the option list happens in internal/render before the
			// select channel publishes its request.
			s, err := scalarString(item, fmt.Sprintf("%s.select.options[%d]", path, i))
			if err != nil {
				return chain.Source{}, err
			}
			// Validate each option parses as a template even though we
			// keep the raw text, so a malformed option fails at load time.
			if _, err := template.Parse(s); err != nil {
				return chain.Source{}, &SchemaError{Path: fmt.Sprintf("%s.select.options[%d]", path, i), Line: item.Line, Column: item.Column, Message: err.Error()}
			}
			src.SelectOptions = append(src.SelectOptions, s)
		}
		return src, nil

	default:
		line, col := nodePos(node)
		return chain.Source{}, &SchemaError{Path: path, Line: line, Column: col, Message: "source must have exactly one of: request, command, file, prompt, select"}
	}
}

func has(fields map[string]entry, k string) bool {
	_, ok := fields[k]
	return ok
}

func parseTrigger(node *yaml.Node, path string) (chain.Trigger, error) {
	if node.Kind == yaml.ScalarNode {
		switch node.Value {
		case "never":
			return chain.Trigger{Kind: chain.TriggerNever}, nil
		case "no_history":
			return chain.Trigger{Kind: chain.TriggerNoHistory}, nil
		case "always":
			return chain.Trigger{Kind: chain.TriggerAlways}, nil
		default:
			return chain.Trigger{}, &SchemaError{Path: path, Line: node.Line, Column: node.Column, Message: "expected never, no_history, always, or {expire: duration}"}
		}
	}
	entries, err := mapEntries(node, path)
	if err != nil {
		return chain.Trigger{}, err
	}
	fields, err := requireKnownKeys(entries, []string{"expire"}, path)
	if err != nil {
		return chain.Trigger{}, err
	}
	e, ok := fields["expire"]
	if !ok {
		return chain.Trigger{}, &SchemaError{Path: path, Message: "missing required field \"expire\""}
	}
	s, err := scalarString(e.ValueNode, path+".expire")
	if err != nil {
		return chain.Trigger{}, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return chain.Trigger{}, &SchemaError{Path: path + ".expire", Line: e.ValueNode.Line, Column: e.ValueNode.Column, Message: "invalid duration: " + err.Error()}
	}
	return chain.Trigger{Kind: chain.TriggerExpire, Expire: d}, nil
}
