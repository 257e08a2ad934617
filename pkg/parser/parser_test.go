package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/zhangrenfeng/axexpr/pkg/parser"
	"github.com/zhangrenfeng/axexpr/pkg/types"
)

// Helper functions

func parseExpr(t *testing.T, input string) *types.ASTNode {
	t.Helper()
	expr, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", input, err)
	}
	return expr.AST()
}

func checkNode(t *testing.T, node *types.ASTNode, expectedType types.NodeType, expectedValue interface{}) {
	t.Helper()
	if node == nil {
		t.Fatal("Node is nil")
	}
	if node.Type != expectedType {
		t.Errorf("Expected node type %s, got %s", expectedType, node.Type)
	}
	if expectedValue != nil && node.Value != expectedValue {
		t.Errorf("Expected value %v, got %v", expectedValue, node.Value)
	}
}

func checkBinary(t *testing.T, node *types.ASTNode, op string) {
	t.Helper()
	checkNode(t, node, types.NodeBinary, nil)
	if node.Operator != op {
		t.Fatalf("Expected operator %q, got %q", op, node.Operator)
	}
}

func checkSpan(t *testing.T, node *types.ASTNode, offset, length int) {
	t.Helper()
	if node.Offset != offset || node.Length != length {
		t.Errorf("Expected span %d+%d, got %d+%d", offset, length, node.Offset, node.Length)
	}
}

// Literal tests

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		input string
		value interface{}
	}{
		{"42", 42.0},
		{"'str'", "str"},
		{"true", true},
		{"false", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			checkNode(t, parseExpr(t, tt.input), types.NodeLiteral, tt.value)
		})
	}

	null := parseExpr(t, "null")
	if !null.IsNullLiteral() {
		t.Errorf("expected null literal, got %v", null)
	}
}

// Operator tests

func TestParsePrecedence(t *testing.T) {
	root := parseExpr(t, "2 + 3 * 4")
	checkBinary(t, root, types.OpPlus)
	checkNode(t, root.LHS, types.NodeLiteral, 2.0)
	checkBinary(t, root.RHS, types.OpMultiply)

	root = parseExpr(t, "a || b && c == d < e + f")
	checkBinary(t, root, types.OpOr)
	checkBinary(t, root.RHS, types.OpAnd)
	checkBinary(t, root.RHS.RHS, types.OpEqual)
	checkBinary(t, root.RHS.RHS.RHS, types.OpLess)
	checkBinary(t, root.RHS.RHS.RHS.RHS, types.OpPlus)
}

func TestParseLeftAssociative(t *testing.T) {
	root := parseExpr(t, "a - b - c")
	checkBinary(t, root, types.OpMinus)
	checkBinary(t, root.LHS, types.OpMinus)
	checkNode(t, root.RHS, types.NodeIdentifier, nil)
	if root.RHS.Name != "c" {
		t.Errorf("expected c, got %s", root.RHS.Name)
	}
}

func TestParseUnary(t *testing.T) {
	root := parseExpr(t, "-a * b")
	checkBinary(t, root, types.OpMultiply)
	checkNode(t, root.LHS, types.NodeUnary, nil)
	if root.LHS.Operator != types.OpNegate {
		t.Errorf("expected negate, got %s", root.LHS.Operator)
	}

	root = parseExpr(t, "!!+x")
	checkNode(t, root, types.NodeUnary, nil)
	checkNode(t, root.LHS, types.NodeUnary, nil)
	checkNode(t, root.LHS.LHS, types.NodeUnary, nil)
	if root.LHS.LHS.Operator != types.OpPlus {
		t.Errorf("expected unary plus, got %s", root.LHS.LHS.Operator)
	}
}

func TestParseConditional(t *testing.T) {
	root := parseExpr(t, "a ? b : c ? d : e")
	checkNode(t, root, types.NodeConditional, nil)
	if root.IsElvis() {
		t.Fatal("unexpected elvis")
	}
	checkNode(t, root.Else, types.NodeConditional, nil)

	root = parseExpr(t, "a ?: b")
	checkNode(t, root, types.NodeConditional, nil)
	if !root.IsElvis() || root.Then != nil {
		t.Fatal("expected elvis form")
	}
	checkSpan(t, root, 0, 6)
}

// Postfix tests

func TestParsePostfix(t *testing.T) {
	root := parseExpr(t, "a.b(1)[0].c")
	checkNode(t, root, types.NodeFunctionCall, nil)
	if root.Name != "c" || root.Call {
		t.Fatalf("expected member access c, got %+v", root)
	}
	index := root.LHS
	checkBinary(t, index, types.OpIndex)
	call := index.LHS
	checkNode(t, call, types.NodeFunctionCall, nil)
	if call.Name != "b" || !call.Call || len(call.Arguments) != 1 {
		t.Fatalf("expected call b(1), got %+v", call)
	}
	checkSpan(t, root, 0, 11)
	checkSpan(t, call, 0, 6)
}

func TestParseBareCall(t *testing.T) {
	root := parseExpr(t, "max(1, x, 'y')")
	checkNode(t, root, types.NodeFunctionCall, nil)
	if root.LHS != nil || root.Name != "max" || !root.Call {
		t.Fatalf("unexpected call node %+v", root)
	}
	if len(root.Arguments) != 3 {
		t.Fatalf("expected 3 arguments, got %d", len(root.Arguments))
	}

	empty := parseExpr(t, "now()")
	if empty.Arguments == nil || len(empty.Arguments) != 0 {
		t.Errorf("expected empty argument list, got %v", empty.Arguments)
	}
}

func TestParseArrayAndObject(t *testing.T) {
	arr := parseExpr(t, "[1, 'a', [true]]")
	checkNode(t, arr, types.NodeArray, nil)
	if len(arr.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(arr.Elements))
	}
	checkNode(t, arr.Elements[2], types.NodeArray, nil)

	obj := parseExpr(t, "{a: 1, 'b c': 2, (k): 3, 4: x}")
	checkNode(t, obj, types.NodeObject, nil)
	if len(obj.Pairs) != 4 {
		t.Fatalf("expected 4 pairs, got %d", len(obj.Pairs))
	}
	checkNode(t, obj.Pairs[0].Key, types.NodeLiteral, "a")
	checkNode(t, obj.Pairs[1].Key, types.NodeLiteral, "b c")
	checkNode(t, obj.Pairs[2].Key, types.NodeIdentifier, nil)
	checkNode(t, obj.Pairs[3].Key, types.NodeLiteral, 4.0)

	checkNode(t, parseExpr(t, "{}"), types.NodeObject, nil)
	checkNode(t, parseExpr(t, "[]"), types.NodeArray, nil)
}

func TestParseSpans(t *testing.T) {
	root := parseExpr(t, " (a + b) * 2")
	checkBinary(t, root, types.OpMultiply)
	checkSpan(t, root.LHS, 2, 5)
	checkSpan(t, root.RHS, 11, 1)
	checkSpan(t, root, 2, 10)
}

// Error tests

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input  string
		code   types.ErrorCode
		offset int
	}{
		{"", types.ErrEmptyExpression, 0},
		{"   ", types.ErrEmptyExpression, 3},
		{"1 +", types.ErrExpressionExpected, 3},
		{")", types.ErrExpressionExpected, 0},
		{"a b", types.ErrUnexpectedToken, 2},
		{"a.", types.ErrIdentifierExpected, 2},
		{"a.1", types.ErrIdentifierExpected, 2},
		{"a ? b", types.ErrColonExpected, 5},
		{"{a 1}", types.ErrColonExpected, 3},
		{"[1, 2", types.ErrBracketExpected, 5},
		{"a[1", types.ErrBracketExpected, 3},
		{"{a: 1", types.ErrBraceExpected, 5},
		{"(1", types.ErrParenExpected, 2},
		{"f(1", types.ErrParenExpected, 3},
		{"[,1]", types.ErrUnexpectedComma, 1},
		{"[1,,2]", types.ErrUnexpectedComma, 3},
		{"f(,)", types.ErrUnexpectedComma, 2},
		{"[1,]", types.ErrExpressionExpected, 3},
		{"f(1,)", types.ErrArgumentExpressionExpected, 4},
		{"f(])", types.ErrArgumentExpressionExpected, 2},
		{"{a:1,}", types.ErrArgumentIdentifierExpected, 5},
		{"{:1}", types.ErrArgumentIdentifierExpected, 1},
		{"1 + 'x", types.ErrLexer, 4},
		{"a && & b", types.ErrLexer, 5},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := parser.Parse(tt.input)
			if err == nil {
				t.Fatalf("Expected error parsing %q, got %v", tt.input, expr.AST())
			}
			if expr != nil {
				t.Error("expected nil expression on error")
			}
			var perr *types.Error
			if !errors.As(err, &perr) {
				t.Fatalf("expected *types.Error, got %T", err)
			}
			if perr.Code != tt.code {
				t.Errorf("expected code %s, got %s (%v)", tt.code, perr.Code, err)
			}
			if perr.Position != tt.offset {
				t.Errorf("expected offset %d, got %d", tt.offset, perr.Position)
			}
		})
	}
}

func TestParseLexerErrorCode(t *testing.T) {
	_, err := parser.Parse("1 + 'x")
	var perr *types.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *types.Error, got %v", err)
	}
	if perr.LexCode != types.LexUnclosedString {
		t.Errorf("expected unclosed string, got %v", perr.LexCode)
	}
	d := perr.Diagnostic()
	if d.Severity != types.SeverityError || d.Offset != 4 || d.Length != 2 {
		t.Errorf("unexpected diagnostic %v", d)
	}
}

func TestParseErrorDiagnosticLength(t *testing.T) {
	_, err := parser.Parse("1 +")
	var perr *types.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *types.Error, got %v", err)
	}
	if d := perr.Diagnostic(); d.Length != 1 {
		t.Errorf("expected at least one column, got %d", d.Length)
	}
}

func TestParseMaxDepth(t *testing.T) {
	deep := strings.Repeat("(", 300) + "1" + strings.Repeat(")", 300)

	_, err := parser.Parse(deep)
	var perr *types.Error
	if !errors.As(err, &perr) || perr.Code != types.ErrUnknown {
		t.Fatalf("expected nesting error, got %v", err)
	}

	if _, err := parser.Compile(deep, parser.WithMaxDepth(1000)); err != nil {
		t.Fatalf("unexpected error with raised limit: %v", err)
	}
}

func TestParseSource(t *testing.T) {
	expr, err := parser.Parse("a+1")
	if err != nil {
		t.Fatal(err)
	}
	if expr.Source() != "a+1" || expr.String() != "a+1" {
		t.Errorf("unexpected source %q", expr.Source())
	}
}

// Round trip

func TestFormatRoundTrip(t *testing.T) {
	inputs := []string{
		"2 + 3 * 4",
		"(a + b) * c",
		"a - (b - c)",
		"-(a + b)",
		"(1).toFixed(2)",
		"'x'.length",
		"{a: 1, 'b c': 2, (k): [x, y], 3: null}",
		"(a ? b : c) ? d : e ?: f",
		"a[0].b(c, d)[e]",
		"!(a && b) || c",
		"a - -b",
		"1e21 + 0.0000001 + 1e999",
		`"q\"uote\n" + 'single'`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			orig := parseExpr(t, in)
			for _, pretty := range []bool{false, true} {
				out := orig.Format(pretty)
				again, err := parser.Parse(out)
				if err != nil {
					t.Fatalf("reparse of %q failed: %v", out, err)
				}
				if !types.Equal(orig, again.AST()) {
					t.Errorf("round trip changed the tree: %q -> %q", in, out)
				}
			}
		})
	}
}

func FuzzParse(f *testing.F) {
	seeds := []string{
		`a.b`,
		`items[0].price * count`,
		`max(1, 2)`,
		`a ? b : c`,
		`a ?: b`,
		`{a: [1, 'x'], "b": !c}`,
		`-(1).toFixed(2)`,
		``,
		`(`,
		`f(`,
		`"é😀"`,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		expr, err := parser.Compile(input)
		if err != nil {
			var perr *types.Error
			if !errors.As(err, &perr) {
				t.Fatalf("error is not *types.Error: %v", err)
			}
			return
		}
		for _, pretty := range []bool{false, true} {
			out := expr.Format(pretty)
			again, err := parser.Compile(out, parser.WithMaxDepth(0))
			if err != nil {
				t.Fatalf("reparse of %q (from %q) failed: %v", out, input, err)
			}
			if !types.Equal(expr.AST(), again.AST()) {
				t.Fatalf("round trip changed the tree: %q -> %q", input, out)
			}
		}
	})
}
