package collection

import "fmt"

// SchemaError is a located parse failure: an unknown key, a wrong YAML
// node kind, or a malformed template, reported with the line/column of the
// offending node the way internal/template.ParseError reports a byte
// offset (spec.md §6 "unknown non-. keys fail parsing with a located
// error").
type SchemaError struct {
	Path    string // dotted path within the document, e.g. "recipes.login.method"
	Line    int
	Column  int
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
}
