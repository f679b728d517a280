package collection

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LucasPickering/slumber/internal/template"
)

// entry is one key/value pair of a YAML mapping, keeping both nodes so
// callers can report errors at the key's or the value's location.
type entry struct {
	Key       string
	KeyNode   *yaml.Node
	ValueNode *yaml.Node
}

// mapEntries returns the entries of a mapping node in document order,
// skipping keys that start with "." (spec.md §6: reserved for user
// comments/anchors).
func mapEntries(node *yaml.Node, path string) ([]entry, error) {
	if node == nil || node.Kind != yaml.MappingNode {
		line, col := nodePos(node)
		return nil, &SchemaError{Path: path, Line: line, Column: col, Message: "expected a mapping"}
	}
	var out []entry
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		for v.Kind == yaml.AliasNode && v.Alias != nil {
			v = v.Alias
		}
		if strings.HasPrefix(k.Value, ".") {
			continue
		}
		out = append(out, entry{Key: k.Value, KeyNode: k, ValueNode: v})
	}
	return out, nil
}

// requireKnownKeys validates that every entry's key is in allowed,
// returning a located SchemaError on the first violation. Use for
// fixed-shape schema objects (Recipe, Chain, ...); never for open
// user-defined maps like profile data.
func requireKnownKeys(entries []entry, allowed []string, path string) (map[string]entry, error) {
	allowedSet := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		allowedSet[k] = true
	}
	out := make(map[string]entry, len(entries))
	for _, e := range entries {
		if !allowedSet[e.Key] {
			return nil, &SchemaError{
				Path: path, Line: e.KeyNode.Line, Column: e.KeyNode.Column,
				Message: fmt.Sprintf("unknown field %q", e.Key),
			}
		}
		out[e.Key] = e
	}
	return out, nil
}

func nodePos(node *yaml.Node) (int, int) {
	if node == nil {
		return 0, 0
	}
	return node.Line, node.Column
}

func scalarString(node *yaml.Node, path string) (string, error) {
	if node == nil || node.Kind != yaml.ScalarNode {
		line, col := nodePos(node)
		return "", &SchemaError{Path: path, Line: line, Column: col, Message: "expected a scalar string"}
	}
	return node.Value, nil
}

func scalarBool(node *yaml.Node, path string, def bool) (bool, error) {
	if node == nil {
		return def, nil
	}
	if node.Kind != yaml.ScalarNode {
		line, col := nodePos(node)
		return false, &SchemaError{Path: path, Line: line, Column: col, Message: "expected a boolean"}
	}
	b, err := strconv.ParseBool(node.Value)
	if err != nil {
		return false, &SchemaError{Path: path, Line: node.Line, Column: node.Column, Message: "invalid boolean: " + node.Value}
	}
	return b, nil
}

// parseTemplateField parses a scalar node as a Template, wrapping any
// parse failure as a located SchemaError.
func parseTemplateField(node *yaml.Node, path string) (*template.Template, error) {
	s, err := scalarString(node, path)
	if err != nil {
		return nil, err
	}
	tpl, err := template.Parse(s)
	if err != nil {
		return nil, &SchemaError{Path: path, Line: node.Line, Column: node.Column, Message: err.Error()}
	}
	return tpl, nil
}
