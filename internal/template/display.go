package template

import "strings"

// Display reconstructs source text equivalent to the original: Raw chunks
// are re-escaped byte-for-byte, Expression chunks are rendered as
// "{{ " + expr.String() + " }}". Re-parsing the result reproduces the same
// chunk sequence (spec.md §4.1 round-trip law); it need not be byte-
// identical to arbitrary input, since whitespace inside an expression
// doesn't affect the parsed AST.
func (t *Template) Display() string {
	var b strings.Builder
	for _, c := range t.Chunks {
		switch c.Kind {
		case ChunkRaw:
			b.WriteString(escapeRaw(c.Raw))
		case ChunkExpr:
			b.WriteString("{{ ")
			b.WriteString(c.Expr.String())
			b.WriteString(" }}")
		}
	}
	return b.String()
}

func escapeRaw(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
