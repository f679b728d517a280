package chain

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ApplySelectorBytes applies a gjson path selector (spec.md's JSONPath-
// flavored `selector` field and the `jsonpath`/`jq` pipeline functions) to
// body, returning the matched slice as bytes. A JSONPath-style root is
// accepted: "$" selects the whole document and a leading "$." is dropped
// before the rest is handed to gjson.
//
// Scalars are returned as their plain text (so a selected string isn't
// left quoted); objects and arrays are returned as gjson's raw matched
// JSON text, which is a substring of the original document and therefore
// preserves source key order without needing to re-encode through an
// ordered map.
func ApplySelectorBytes(body []byte, selector string) ([]byte, error) {
	var result gjson.Result
	if selector == "$" {
		result = gjson.ParseBytes(body)
	} else {
		result = gjson.GetBytes(body, strings.TrimPrefix(selector, "$."))
	}
	if !result.Exists() {
		return nil, &ChainSourceError{
			Kind:   SourceErrorSelectorMismatch,
			Detail: "selector " + selector + " matched nothing",
		}
	}
	switch result.Type {
	case gjson.String:
		return []byte(result.Str), nil
	case gjson.Null:
		return nil, nil
	default:
		return []byte(result.Raw), nil
	}
}
