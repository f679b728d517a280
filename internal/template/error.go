package template

import "fmt"

// ParseError reports that a template's source could not be parsed. Offset
// is the byte offset of the first unparseable byte within the original
// template source (spec.md §4.1).
type ParseError struct {
	Message string
	Offset  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("template parse error at offset %d: %s", e.Offset, e.Message)
}

func parseErrf(offset int, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Offset: offset}
}
