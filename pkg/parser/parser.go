// Package parser implements the lexer and parser of the template expression
// language shared by the AXML and Mist dialects.
//
// The parser is a hand-written recursive descent parser with precedence
// climbing for binary operators. It never panics on bad input: the first
// lexical or syntactic error stops parsing and is returned as a *types.Error
// carrying the error code and the offending token's offset and length.
//
// # Architecture
//
// The parser consists of two components:
//   - Lexer: Tokenizes the input expression into a stream of tokens
//   - Parser: Builds an Abstract Syntax Tree (AST) from tokens
//
// # Example
//
//	expr, err := parser.Parse("item.price * count")
//	if err != nil {
//	    var perr *types.Error
//	    errors.As(err, &perr)
//	    fmt.Println(perr.Code, perr.Position, perr.Length)
//	    return
//	}
//	ast := expr.AST()
package parser

import (
	"github.com/zhangrenfeng/axexpr/pkg/types"
)

// DefaultMaxDepth is the default nesting limit of a parsed expression.
const DefaultMaxDepth = 256

// Parse parses an expression and returns the parsed Expression.
//
// If parsing fails, the error is a *types.Error with position information.
//
// Example:
//
//	expr, err := parser.Parse("a ? b : c")
//	if err != nil {
//	    fmt.Printf("Parse error: %v\n", err)
//	    return
//	}
func Parse(code string) (*types.Expression, error) {
	p := NewParser(code)
	return p.Parse()
}

// Compile is like Parse but accepts options.
func Compile(code string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(code, opts...)
	return p.Parse()
}

// CompileOption configures parsing behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits nesting to prevent stack overflow.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
