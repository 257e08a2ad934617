package types

import (
	"math"
	"strconv"
	"strings"
)

// Printing precedence, higher binds tighter.
const (
	precConditional = 1 + iota
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
	precPrimary
)

// BinaryPrecedence returns the binding power of a binary operator, or 0 if
// op is not a binary operator handled by precedence climbing.
func BinaryPrecedence(op string) int {
	switch op {
	case OpOr:
		return precOr
	case OpAnd:
		return precAnd
	case OpEqual, OpNotEqual:
		return precEquality
	case OpLess, OpLessEq, OpGreater, OpGreatEq:
		return precRelational
	case OpPlus, OpMinus:
		return precAdditive
	case OpMultiply, OpDivide, OpModulo:
		return precMultiplicative
	default:
		return 0
	}
}

func precedenceOf(n *ASTNode) int {
	switch n.Type {
	case NodeConditional:
		return precConditional
	case NodeBinary:
		if n.Operator == OpIndex {
			return precPostfix
		}
		return BinaryPrecedence(n.Operator)
	case NodeUnary:
		return precUnary
	case NodeFunctionCall:
		return precPostfix
	default:
		return precPrimary
	}
}

// Format re-serializes the node. The compact form (pretty=false) omits all
// optional whitespace; the pretty form puts spaces around binary operators
// and after separators. Parsing either form yields an Equal tree.
func (n *ASTNode) Format(pretty bool) string {
	var sb strings.Builder
	f := formatter{sb: &sb, pretty: pretty}
	f.node(n)
	return sb.String()
}

type formatter struct {
	sb     *strings.Builder
	pretty bool
}

func (f formatter) sep() {
	if f.pretty {
		f.sb.WriteString(", ")
	} else {
		f.sb.WriteByte(',')
	}
}

func (f formatter) op(op string) {
	if f.pretty {
		f.sb.WriteByte(' ')
		f.sb.WriteString(op)
		f.sb.WriteByte(' ')
	} else {
		f.sb.WriteString(op)
	}
}

// wrap prints child, parenthesised when its precedence is below min.
func (f formatter) wrap(child *ASTNode, min int) {
	if precedenceOf(child) < min {
		f.sb.WriteByte('(')
		f.node(child)
		f.sb.WriteByte(')')
		return
	}
	f.node(child)
}

func (f formatter) node(n *ASTNode) {
	if n == nil {
		return
	}
	switch n.Type {
	case NodeLiteral:
		if v, ok := n.Value.(float64); ok && math.IsInf(v, 1) {
			// Overflowing literals read back as +Inf.
			f.sb.WriteString("1e999")
			return
		}
		f.sb.WriteString(FormatLiteral(n.Value))
	case NodeIdentifier:
		f.sb.WriteString(n.Name)
	case NodeArray:
		f.sb.WriteByte('[')
		for i, el := range n.Elements {
			if i > 0 {
				f.sep()
			}
			f.node(el)
		}
		f.sb.WriteByte(']')
	case NodeObject:
		f.sb.WriteByte('{')
		for i, p := range n.Pairs {
			if i > 0 {
				f.sep()
			}
			f.key(p.Key)
			f.sb.WriteByte(':')
			if f.pretty {
				f.sb.WriteByte(' ')
			}
			f.node(p.Value)
		}
		f.sb.WriteByte('}')
	case NodeConditional:
		f.wrap(n.Condition, precOr)
		if n.Then == nil {
			f.op("?:")
			f.node(n.Else)
			return
		}
		f.op("?")
		f.node(n.Then)
		f.op(":")
		f.node(n.Else)
	case NodeUnary:
		f.sb.WriteString(n.Operator)
		f.wrap(n.LHS, precUnary)
	case NodeBinary:
		if n.Operator == OpIndex {
			f.wrap(n.LHS, precPostfix)
			f.sb.WriteByte('[')
			f.node(n.RHS)
			f.sb.WriteByte(']')
			return
		}
		p := BinaryPrecedence(n.Operator)
		f.wrap(n.LHS, p)
		f.op(n.Operator)
		f.wrap(n.RHS, p+1)
	case NodeFunctionCall:
		if n.LHS != nil {
			if n.LHS.Type == NodeLiteral {
				if _, isNum := n.LHS.Value.(float64); isNum {
					f.sb.WriteByte('(')
					f.node(n.LHS)
					f.sb.WriteByte(')')
				} else {
					f.node(n.LHS)
				}
			} else {
				f.wrap(n.LHS, precPostfix)
			}
			f.sb.WriteByte('.')
		}
		f.sb.WriteString(n.Name)
		if n.Call {
			f.sb.WriteByte('(')
			for i, arg := range n.Arguments {
				if i > 0 {
					f.sep()
				}
				f.node(arg)
			}
			f.sb.WriteByte(')')
		}
	}
}

func (f formatter) key(k *ASTNode) {
	switch {
	case k.Type == NodeLiteral:
		if s, ok := k.Value.(string); ok && IsIdentifier(s) {
			f.sb.WriteString(s)
			return
		}
		f.node(k)
	case k.Type == NodeIdentifier:
		// A bare identifier followed by ':' would reparse as a string key.
		f.sb.WriteByte('(')
		f.node(k)
		f.sb.WriteByte(')')
	default:
		f.node(k)
	}
}

// IsIdentifier reports whether s lexes as a single non-reserved identifier.
func IsIdentifier(s string) bool {
	if s == "" || IsReserved(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c == '$' && i == 0:
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// IsReserved reports whether s is a literal keyword.
func IsReserved(s string) bool {
	switch s {
	case "true", "false", "null", "nil":
		return true
	default:
		return false
	}
}

// FormatLiteral prints a literal value in source form.
func FormatLiteral(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return FormatNumber(x)
	case string:
		return QuoteString(x)
	default:
		return "null"
	}
}

// FormatNumber prints a number the way JavaScript's String(n) does:
// plain decimal notation between 1e-6 and 1e21, exponent form outside.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if i := strings.IndexByte(s, 'e'); i >= 0 && i+2 < len(s) {
		exp := strings.TrimLeft(s[i+2:], "0")
		s = s[:i+2] + exp
	}
	return s
}

// QuoteString double-quotes s using only the escapes the lexer accepts.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				const hex = "0123456789abcdef"
				sb.WriteString(`\u00`)
				sb.WriteByte(hex[r>>4])
				sb.WriteByte(hex[r&0xf])
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
