// Package template implements the template grammar from spec.md §4.1: a
// parser that turns `text {{ expression }} text` source into an ordered
// chunk sequence, plus a Display that reproduces an equivalent source
// (the round-trip law of spec.md Testable Property 1).
package template

import (
	"strings"

	"github.com/LucasPickering/slumber/internal/ast"
)

// ChunkKind distinguishes a Raw text chunk from an Expression chunk.
type ChunkKind int

const (
	ChunkRaw ChunkKind = iota
	ChunkExpr
)

// Chunk is either Raw(text) or Expression(AST), per spec.md §3. Source
// holds the original source slice that produced this chunk (unescaped raw
// text is NOT the same as Source for Raw chunks; Source is the verbatim
// bytes, Raw is the value after escape processing).
type Chunk struct {
	Kind   ChunkKind
	Raw    string
	Expr   ast.Expression
	Source string
}

// Template is an ordered sequence of chunks. No two adjacent chunks are
// both Raw (spec.md §3 invariant).
type Template struct {
	Source string
	Chunks []Chunk
}

// Parse parses source into a Template. Parsing is pure: no I/O, no context
// lookup (spec.md §4.1).
func Parse(source string) (*Template, error) {
	var chunks []Chunk
	pos := 0
	for pos < len(source) {
		rawText, rawSrc, next, exprStart, hasExpr := scanRaw(source, pos)
		if rawText != "" {
			chunks = append(chunks, Chunk{Kind: ChunkRaw, Raw: rawText, Source: rawSrc})
		}
		if !hasExpr {
			pos = next
			break
		}
		end, err := findExprEnd(source, exprStart)
		if err != nil {
			return nil, err
		}
		rawExpr := source[exprStart:end]
		exprSrc := strings.TrimSpace(rawExpr)
		expr, err := parseExpression(exprSrc, exprStart+strings.Index(rawExpr, exprSrc))
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, Chunk{Kind: ChunkExpr, Expr: expr, Source: source[exprStart:end]})
		pos = end + 2 // skip "}}"
	}
	return &Template{Source: source, Chunks: chunks}, nil
}

// scanRaw consumes raw text from start until an unescaped "{{" or end of
// string, resolving "\{", "\}", and "\\" escapes. It returns the resolved
// text, the verbatim source slice that produced it, the position to resume
// from, and (if an expression follows) the offset just past "{{".
func scanRaw(source string, start int) (text, verbatim string, next, exprStart int, hasExpr bool) {
	var b strings.Builder
	i := start
	for i < len(source) {
		c := source[i]
		if c == '\\' && i+1 < len(source) && isEscapable(source[i+1]) {
			b.WriteByte(source[i+1])
			i += 2
			continue
		}
		if c == '{' && i+1 < len(source) && source[i+1] == '{' {
			return b.String(), source[start:i], i + 2, i + 2, true
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), source[start:i], i, 0, false
}

func isEscapable(c byte) bool { return c == '{' || c == '}' || c == '\\' }

// findExprEnd returns the byte offset of the first unescaped "}}" at or
// after start, skipping over quoted string literals (which may themselves
// contain "}}"). Returns -1 if none is found.
func findExprEnd(source string, start int) (int, error) {
	i := start
	var inString byte
	for i < len(source) {
		c := source[i]
		if inString != 0 {
			if c == '\\' && i+1 < len(source) {
				i += 2
				continue
			}
			if c == inString {
				inString = 0
			}
			i++
			continue
		}
		if c == '\'' || c == '"' {
			inString = c
			i++
			continue
		}
		if c == '}' && i+1 < len(source) && source[i+1] == '}' {
			return i, nil
		}
		i++
	}
	return -1, &ParseError{Message: "unterminated expression", Offset: start}
}
