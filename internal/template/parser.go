package template

import "github.com/LucasPickering/slumber/internal/ast"

// parseExpression parses a single expression (the content between {{ and
// }}). base is the byte offset of src within the template source.
func parseExpression(src string, base int) (ast.Expression, error) {
	toks, err := lex(src, base)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	expr, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, parseErrf(p.peek().pos, "unexpected trailing %s", p.peek().kind)
	}
	return expr, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind) (token, error) {
	if p.peek().kind != k {
		return token{}, parseErrf(p.peek().pos, "expected %s, found %s", k, p.peek().kind)
	}
	return p.advance(), nil
}

// parsePipe implements `Pipe := Primary ( "|" Call )*`.
func (p *parser) parsePipe() (ast.Expression, error) {
	lhs, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokPipe {
		pipePos := p.advance().pos
		call, err := p.parseBareCall()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewPipe(pipePos, lhs, call)
	}
	return lhs, nil
}

// parsePrimary implements `Primary := Literal | Identifier | Array | Call`.
func (p *parser) parsePrimary() (ast.Expression, error) {
	t := p.peek()
	switch t.kind {
	case tokNull:
		p.advance()
		return ast.NewLiteral(t.pos, ast.KindNull), nil
	case tokTrue:
		p.advance()
		lit := ast.NewLiteral(t.pos, ast.KindBool)
		lit.Bool = true
		return lit, nil
	case tokFalse:
		p.advance()
		lit := ast.NewLiteral(t.pos, ast.KindBool)
		lit.Bool = false
		return lit, nil
	case tokInt:
		p.advance()
		lit := ast.NewLiteral(t.pos, ast.KindInt)
		lit.Int = t.intVal
		return lit, nil
	case tokFloat:
		p.advance()
		lit := ast.NewLiteral(t.pos, ast.KindFloat)
		lit.Float = t.floatVal
		return lit, nil
	case tokString:
		p.advance()
		lit := ast.NewLiteral(t.pos, ast.KindString)
		lit.Str = t.strVal
		return lit, nil
	case tokLBracket:
		return p.parseArray()
	case tokIdent:
		if p.peekAt(1).kind == tokLParen {
			return p.parseBareCall()
		}
		p.advance()
		return ast.NewField(t.pos, ast.Identifier(t.ident)), nil
	default:
		return nil, parseErrf(t.pos, "unexpected %s", t.kind)
	}
}

// parseArray implements `Array := "[" (Expression ",")* Expression? "]"`.
func (p *parser) parseArray() (ast.Expression, error) {
	open := p.advance() // '['
	var elems []ast.Expression
	if p.peek().kind != tokRBracket {
		for {
			e, err := p.parsePipe()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if p.peek().kind != tokComma {
				break
			}
			p.advance()
			if p.peek().kind == tokRBracket {
				break
			}
		}
	}
	if _, err := p.expect(tokRBracket); err != nil {
		return nil, err
	}
	return ast.NewArray(open.pos, elems), nil
}

// parseBareCall implements `Call := Identifier "(" ArgList? ")"`.
func (p *parser) parseBareCall() (*ast.Call, error) {
	nameTok, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	positional, keyword, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return ast.NewCall(nameTok.pos, ast.Identifier(nameTok.ident), positional, keyword), nil
}

// parseArgList implements `ArgList := (Arg ",")* Arg?` where positional
// arguments must precede keyword arguments.
func (p *parser) parseArgList() ([]ast.Expression, *ast.KeywordArgs, error) {
	var positional []ast.Expression
	keyword := ast.NewKeywordArgs()
	if p.peek().kind == tokRParen {
		return positional, keyword, nil
	}
	seenKeyword := false
	for {
		if p.peek().kind == tokIdent && p.peekAt(1).kind == tokEquals {
			nameTok := p.advance()
			p.advance() // '='
			val, err := p.parsePipe()
			if err != nil {
				return nil, nil, err
			}
			keyword.Set(ast.Identifier(nameTok.ident), val)
			seenKeyword = true
		} else {
			if seenKeyword {
				return nil, nil, parseErrf(p.peek().pos, "positional argument after keyword argument")
			}
			val, err := p.parsePipe()
			if err != nil {
				return nil, nil, err
			}
			positional = append(positional, val)
		}
		if p.peek().kind != tokComma {
			break
		}
		p.advance()
		if p.peek().kind == tokRParen {
			break
		}
	}
	return positional, keyword, nil
}
