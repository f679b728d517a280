package ast

import (
	"strconv"
	"strings"
)

// String renders a Literal back to source form using canonical decimal
// formatting (matches the Value byte-conversion rules in spec.md §4.4).
func (l *Literal) String() string {
	switch l.Kind {
	case KindNull:
		return "null"
	case KindBool:
		if l.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(l.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(l.Float, 'g', -1, 64)
	case KindString:
		return quoteString(l.Str)
	default:
		return "null"
	}
}

func (f *Field) String() string { return string(f.Name) }

func (a *Array) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (c *Call) String() string {
	var parts []string
	for _, p := range c.Positional {
		parts = append(parts, p.String())
	}
	for pair := c.Keyword.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, string(pair.Key)+"="+pair.Value.String())
	}
	return string(c.Name) + "(" + strings.Join(parts, ", ") + ")"
}

func (p *Pipe) String() string {
	return p.LHS.String() + " | " + p.RHS.String()
}

// quoteString produces a double-quoted string literal with minimal escaping.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
