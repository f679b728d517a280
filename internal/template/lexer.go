package template

import (
	"strconv"
	"strings"
)

// lex tokenizes the contents of a single {{ ... }} expression. base is the
// byte offset of src within the enclosing template source, so reported
// token positions (and therefore parse errors) point at the original
// template, not the trimmed expression snippet.
func lex(src string, base int) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, pos: base + i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, pos: base + i})
			i++
		case c == '[':
			toks = append(toks, token{kind: tokLBracket, pos: base + i})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokRBracket, pos: base + i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, pos: base + i})
			i++
		case c == '=':
			toks = append(toks, token{kind: tokEquals, pos: base + i})
			i++
		case c == '|':
			toks = append(toks, token{kind: tokPipe, pos: base + i})
			i++
		case c == '\'' || c == '"':
			tok, next, err := lexString(src, i, base)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case c == '-' && i+1 < len(src) && isDigit(src[i+1]):
			tok, next, err := lexNumber(src, i, base)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case isDigit(c):
			tok, next, err := lexNumber(src, i, base)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentChar(src[i]) {
				i++
			}
			word := src[start:i]
			toks = append(toks, identToken(word, base+start))
		default:
			return nil, parseErrf(base+i, "unexpected character %q", c)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: base + len(src)})
	return toks, nil
}

func identToken(word string, pos int) token {
	switch word {
	case "null":
		return token{kind: tokNull, pos: pos, ident: word}
	case "true":
		return token{kind: tokTrue, pos: pos, ident: word}
	case "false":
		return token{kind: tokFalse, pos: pos, ident: word}
	default:
		return token{kind: tokIdent, pos: pos, ident: word}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || isDigit(c)
}

func isIdentChar(c byte) bool { return isIdentStart(c) }

// lexNumber consumes a SignedInt or Float literal starting at i.
func lexNumber(src string, i, base int) (token, int, error) {
	start := i
	if src[i] == '-' {
		i++
	}
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	isFloat := false
	if i < len(src) && src[i] == '.' {
		isFloat = true
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		isFloat = true
		i++
		if i < len(src) && (src[i] == '+' || src[i] == '-') {
			i++
		}
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	text := src[start:i]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token{}, 0, parseErrf(base+start, "invalid float literal %q", text)
		}
		return token{kind: tokFloat, pos: base + start, floatVal: f}, i, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return token{}, 0, parseErrf(base+start, "invalid integer literal %q", text)
	}
	return token{kind: tokInt, pos: base + start, intVal: n}, i, nil
}

// lexString consumes a single- or double-quoted string literal with
// JSON-like escapes, starting at the opening quote.
func lexString(src string, i, base int) (token, int, error) {
	quote := src[i]
	start := i
	i++
	var b strings.Builder
	for i < len(src) {
		c := src[i]
		if c == quote {
			return token{kind: tokString, pos: base + start, strVal: b.String()}, i + 1, nil
		}
		if c == '\\' && i+1 < len(src) {
			switch src[i+1] {
			case '"':
				b.WriteByte('"')
			case '\'':
				b.WriteByte('\'')
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(src[i+1])
			}
			i += 2
			continue
		}
		b.WriteByte(c)
		i++
	}
	return token{}, 0, parseErrf(base+start, "unterminated string literal")
}
