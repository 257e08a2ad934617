// Package types defines the shared data model of the expression engine.
//
// This package contains type definitions for:
//   - Expression: a parsed expression and its source
//   - ASTNode: Abstract Syntax Tree nodes and the canonical printer
//   - Error: structured parse errors with codes and source positions
//   - Diagnostic: non-fatal checker findings with severity
package types

// Expression represents a parsed expression.
//
// An Expression is immutable after parsing and is safe for concurrent use
// by multiple goroutines.
type Expression struct {
	ast    *ASTNode
	source string
	arena  *NodeArena
}

// NewExpression creates a new Expression from an AST.
func NewExpression(ast *ASTNode, source string) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
	}
}

// NewArenaExpression creates an Expression whose nodes live in arena.
func NewArenaExpression(ast *ASTNode, source string, arena *NodeArena) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
		arena:  arena,
	}
}

// AST returns the Abstract Syntax Tree of the expression.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original source code of the expression.
func (e *Expression) Source() string {
	return e.source
}

// Format re-prints the expression canonically.
func (e *Expression) Format(pretty bool) string {
	return e.ast.Format(pretty)
}

// String returns the original source of the expression.
func (e *Expression) String() string {
	return e.source
}
