// Package ast defines the template expression grammar's syntax tree.
//
// The grammar (see SPEC_FULL.md / spec.md §4.1) is small and closed:
// literals, field lookups, arrays, function calls, and pipelines. Nodes are
// immutable once parsed and are shared read-only across concurrent render
// tasks, so nothing here carries mutable state.
package ast

import "github.com/wk8/go-ordered-map/v2"

// Identifier matches [A-Za-z0-9_-]+ and is never empty. It names a field,
// a function, or a keyword argument.
type Identifier string

// KeywordArgs preserves the insertion order of keyword arguments so that
// evaluation errors are reported deterministically (spec.md §5 "Ordering
// guarantees").
type KeywordArgs = orderedmap.OrderedMap[Identifier, Expression]

// NewKeywordArgs returns an empty, ready-to-use keyword argument map.
func NewKeywordArgs() *KeywordArgs {
	return orderedmap.New[Identifier, Expression]()
}

// Expression is any node of the expression grammar. The set of
// implementations is closed: Literal, Field, Array, Call, Pipe.
type Expression interface {
	// Pos is the byte offset of the expression within its enclosing
	// template's source, used for error locations.
	Pos() int
	// String renders the expression back to source text. Re-parsing the
	// result must produce an equal AST (spec.md §4.1 round-trip law).
	String() string
	exprNode()
}

type node struct{ pos int }

func (n node) Pos() int { return n.pos }

// LiteralKind distinguishes which field of Literal is populated.
type LiteralKind int

const (
	KindNull LiteralKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

// Literal is an immediate null/bool/int/float/string value.
type Literal struct {
	node
	Kind  LiteralKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

func NewLiteral(pos int, kind LiteralKind) *Literal { return &Literal{node: node{pos}, Kind: kind} }

func (*Literal) exprNode() {}

// Field is a bare identifier resolved through the render context's field
// lookup (usually a profile entry).
type Field struct {
	node
	Name Identifier
}

func NewField(pos int, name Identifier) *Field { return &Field{node: node{pos}, Name: name} }

func (*Field) exprNode() {}

// Array is a literal list of expressions, evaluated concurrently.
type Array struct {
	node
	Elements []Expression
}

func NewArray(pos int, elems []Expression) *Array { return &Array{node: node{pos}, Elements: elems} }

func (*Array) exprNode() {}

// Call invokes a named function with positional arguments followed by
// keyword arguments. Positional arguments always precede keyword arguments
// (enforced by the parser, not just convention).
type Call struct {
	node
	Name       Identifier
	Positional []Expression
	Keyword    *KeywordArgs
}

func NewCall(pos int, name Identifier, positional []Expression, keyword *KeywordArgs) *Call {
	if keyword == nil {
		keyword = NewKeywordArgs()
	}
	return &Call{node: node{pos}, Name: name, Positional: positional, Keyword: keyword}
}

func (*Call) exprNode() {}

// Pipe evaluates LHS and prepends it as RHS's first positional argument
// before dispatching RHS.
type Pipe struct {
	node
	LHS Expression
	RHS *Call
}

func NewPipe(pos int, lhs Expression, rhs *Call) *Pipe {
	return &Pipe{node: node{pos}, LHS: lhs, RHS: rhs}
}

func (*Pipe) exprNode() {}
