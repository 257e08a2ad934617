package parser

import (
	"fmt"

	"github.com/zhangrenfeng/axexpr/pkg/types"
)

// Parser builds an AST from the token stream of a single expression.
//
// Grammar, loosest binding first:
//
//	expression := binary ("?" expression ":" expression | "?" ":" expression)?
//	binary     := unary (binop unary)*          precedence climbing
//	unary      := ("!" | "-" | "+") unary | postfix
//	postfix    := primary ("." name ("(" args ")")? | "[" expression "]")*
//	primary    := literal | name | name "(" args ")" | "(" expression ")"
//	            | "[" elements "]" | "{" pairs "}"
type Parser struct {
	lexer   *Lexer
	current Token
	prev    Token
	err     *types.Error
	depth   int
	opts    CompileOptions
	arena   *types.NodeArena
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		lexer: NewLexer(input),
		opts:  options,
		arena: types.NewNodeArena(),
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire expression and returns the root AST node.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrEmptyExpression, "Empty expression")
	}

	node := p.parseExpression()
	if p.err != nil {
		return nil, p.err
	}

	if p.current.Type != TokenEOF {
		return nil, p.error(types.ErrUnexpectedToken, fmt.Sprintf("Unexpected token %s", p.describe(p.current)))
	}

	return types.NewArenaExpression(node, p.lexer.input, p.arena), nil
}

// binaryPrecedence returns the binding power of a binary operator token,
// 0 for anything else. Indexing is a postfix form and is not listed here.
func binaryPrecedence(tt TokenType) int {
	if op := operatorString(tt); op != "" {
		return types.BinaryPrecedence(op)
	}
	return 0
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.lexer.Next()
	p.current = p.lexer.Token()
}

// peek returns the token after the current one without consuming it.
func (p *Parser) peek() Token {
	ahead := *p.lexer
	ahead.Next()
	return ahead.Token()
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType, code types.ErrorCode) bool {
	if p.current.Type != tt {
		p.error(code, fmt.Sprintf("'%s' expected", tt))
		return false
	}
	p.advance()
	return true
}

// error records the first parse error. A pending lexical error takes
// precedence because it is what stopped the token stream.
func (p *Parser) error(code types.ErrorCode, message string) *types.Error {
	if p.err != nil {
		return p.err
	}
	if lexCode := p.lexer.Err(); lexCode != types.LexNone {
		tok := p.lexer.Token()
		p.err = types.NewLexError(lexCode, tok.Offset, tok.Length)
		return p.err
	}
	p.err = types.NewError(code, message, p.current.Offset, p.current.Length).
		WithToken(p.tokenText(p.current))
	return p.err
}

func (p *Parser) failed() bool {
	return p.err != nil
}

func (p *Parser) tokenText(t Token) string {
	end := t.Offset + t.Length
	if t.Offset < 0 || end > len(p.lexer.input) {
		return ""
	}
	return p.lexer.input[t.Offset:end]
}

func (p *Parser) describe(t Token) string {
	if t.Type == TokenEOF {
		return "end of input"
	}
	return fmt.Sprintf("'%s'", p.tokenText(t))
}

// finish sets the node length to span up to the previous token.
func (p *Parser) finish(node *types.ASTNode, start int) *types.ASTNode {
	node.Offset = start
	node.Length = p.prev.Offset + p.prev.Length - start
	return node
}

func (p *Parser) enter() bool {
	p.depth++
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		p.error(types.ErrUnknown, "Expression too deeply nested")
		return false
	}
	return true
}

func (p *Parser) leave() {
	p.depth--
}

// canStartExpression reports whether tt may begin an expression.
func canStartExpression(tt TokenType) bool {
	switch tt {
	case TokenString, TokenNumber, TokenBoolean, TokenNull, TokenIdentifier,
		TokenParenOpen, TokenBracketOpen, TokenBraceOpen,
		TokenNot, TokenMinus, TokenPlus:
		return true
	default:
		return false
	}
}

// parseExpression parses a full expression including the ternary forms.
func (p *Parser) parseExpression() *types.ASTNode {
	if !p.enter() {
		return nil
	}
	defer p.leave()

	cond := p.parseBinary(1)
	if p.failed() || p.current.Type != TokenCondition {
		return cond
	}
	p.advance() // Skip '?'

	node := p.arena.Alloc(types.NodeConditional, cond.Offset)
	node.Condition = cond

	if p.current.Type == TokenColon {
		// Elvis form "c ?: b" reuses the condition's value.
		p.advance()
	} else {
		node.Then = p.parseExpression()
		if p.failed() {
			return nil
		}
		if !p.expect(TokenColon, types.ErrColonExpected) {
			return nil
		}
	}

	node.Else = p.parseExpression()
	if p.failed() {
		return nil
	}
	return p.finish(node, cond.Offset)
}

// parseBinary implements precedence climbing over the binary operators.
func (p *Parser) parseBinary(minPrec int) *types.ASTNode {
	left := p.parseUnary()
	if p.failed() {
		return nil
	}

	for {
		prec := binaryPrecedence(p.current.Type)
		if prec == 0 || prec < minPrec {
			return left
		}
		op := operatorString(p.current.Type)
		p.advance()

		right := p.parseBinary(prec + 1)
		if p.failed() {
			return nil
		}

		node := p.arena.Alloc(types.NodeBinary, left.Offset)
		node.Operator = op
		node.LHS = left
		node.RHS = right
		left = p.finish(node, left.Offset)
	}
}

// parseUnary parses prefix operators, which bind tighter than any binary
// operator.
func (p *Parser) parseUnary() *types.ASTNode {
	var op string
	switch p.current.Type {
	case TokenNot:
		op = types.OpNot
	case TokenMinus:
		op = types.OpNegate
	case TokenPlus:
		op = types.OpPlus
	default:
		return p.parsePostfix()
	}

	if !p.enter() {
		return nil
	}
	defer p.leave()

	start := p.current.Offset
	p.advance()
	operand := p.parseUnary()
	if p.failed() {
		return nil
	}

	node := p.arena.Alloc(types.NodeUnary, start)
	node.Operator = op
	node.LHS = operand
	return p.finish(node, start)
}

// parsePostfix parses member access, method calls and indexing.
func (p *Parser) parsePostfix() *types.ASTNode {
	left := p.parsePrimary()
	if p.failed() {
		return nil
	}

	for {
		switch p.current.Type {
		case TokenDot:
			p.advance()
			if p.current.Type != TokenIdentifier {
				p.error(types.ErrIdentifierExpected, "Identifier expected")
				return nil
			}
			node := p.arena.Alloc(types.NodeFunctionCall, left.Offset)
			node.LHS = left
			node.Name = p.current.Value.(string)
			p.advance()
			if p.current.Type == TokenParenOpen {
				node.Call = true
				node.Arguments = p.parseArguments()
				if p.failed() {
					return nil
				}
			}
			left = p.finish(node, left.Offset)

		case TokenBracketOpen:
			p.advance()
			index := p.parseExpression()
			if p.failed() {
				return nil
			}
			if !p.expect(TokenBracketClose, types.ErrBracketExpected) {
				return nil
			}
			node := p.arena.Alloc(types.NodeBinary, left.Offset)
			node.Operator = types.OpIndex
			node.LHS = left
			node.RHS = index
			left = p.finish(node, left.Offset)

		default:
			return left
		}
	}
}

// parsePrimary parses literals, names, bare calls, groups, arrays and objects.
func (p *Parser) parsePrimary() *types.ASTNode {
	tok := p.current

	switch tok.Type {
	case TokenString, TokenNumber, TokenBoolean, TokenNull:
		node := p.arena.Alloc(types.NodeLiteral, tok.Offset)
		node.Value = tok.Value
		node.Length = tok.Length
		p.advance()
		return node

	case TokenIdentifier:
		name := tok.Value.(string)
		p.advance()
		if p.current.Type == TokenParenOpen {
			node := p.arena.Alloc(types.NodeFunctionCall, tok.Offset)
			node.Name = name
			node.Call = true
			node.Arguments = p.parseArguments()
			if p.failed() {
				return nil
			}
			return p.finish(node, tok.Offset)
		}
		node := p.arena.Alloc(types.NodeIdentifier, tok.Offset)
		node.Name = name
		node.Length = tok.Length
		return node

	case TokenParenOpen:
		p.advance()
		inner := p.parseExpression()
		if p.failed() {
			return nil
		}
		if !p.expect(TokenParenClose, types.ErrParenExpected) {
			return nil
		}
		return inner

	case TokenBracketOpen:
		return p.parseArray()

	case TokenBraceOpen:
		return p.parseObject()

	case TokenComma:
		p.error(types.ErrUnexpectedComma, "Unexpected ','")
		return nil

	default:
		p.error(types.ErrExpressionExpected, "Expression expected")
		return nil
	}
}

// parseArguments parses "(" args ")"; the current token is "(".
func (p *Parser) parseArguments() []*types.ASTNode {
	p.advance() // Skip '('
	args := []*types.ASTNode{}

	if p.current.Type == TokenParenClose {
		p.advance()
		return args
	}
	if p.current.Type == TokenComma {
		p.error(types.ErrUnexpectedComma, "Unexpected ','")
		return nil
	}

	for {
		if !canStartExpression(p.current.Type) {
			p.error(types.ErrArgumentExpressionExpected, "Argument expression expected")
			return nil
		}
		arg := p.parseExpression()
		if p.failed() {
			return nil
		}
		args = append(args, arg)

		if !p.listContinues(TokenParenClose, types.ErrParenExpected) {
			return args
		}
	}
}

// parseArray parses "[" elements "]"; the current token is "[".
func (p *Parser) parseArray() *types.ASTNode {
	start := p.current.Offset
	p.advance() // Skip '['

	node := p.arena.Alloc(types.NodeArray, start)
	node.Elements = []*types.ASTNode{}

	if p.current.Type == TokenBracketClose {
		p.advance()
		return p.finish(node, start)
	}
	if p.current.Type == TokenComma {
		p.error(types.ErrUnexpectedComma, "Unexpected ','")
		return nil
	}

	for {
		if !canStartExpression(p.current.Type) {
			p.error(types.ErrExpressionExpected, "Expression expected")
			return nil
		}
		el := p.parseExpression()
		if p.failed() {
			return nil
		}
		node.Elements = append(node.Elements, el)

		if !p.listContinues(TokenBracketClose, types.ErrBracketExpected) {
			if p.failed() {
				return nil
			}
			return p.finish(node, start)
		}
	}
}

// parseObject parses "{" pairs "}"; the current token is "{".
func (p *Parser) parseObject() *types.ASTNode {
	start := p.current.Offset
	p.advance() // Skip '{'

	node := p.arena.Alloc(types.NodeObject, start)
	node.Pairs = []types.ObjectPair{}

	if p.current.Type == TokenBraceClose {
		p.advance()
		return p.finish(node, start)
	}
	if p.current.Type == TokenComma {
		p.error(types.ErrUnexpectedComma, "Unexpected ','")
		return nil
	}

	for {
		key := p.parseObjectKey()
		if p.failed() {
			return nil
		}
		if !p.expect(TokenColon, types.ErrColonExpected) {
			return nil
		}
		if !canStartExpression(p.current.Type) {
			p.error(types.ErrExpressionExpected, "Expression expected")
			return nil
		}
		value := p.parseExpression()
		if p.failed() {
			return nil
		}
		node.Pairs = append(node.Pairs, types.ObjectPair{Key: key, Value: value})

		if !p.listContinues(TokenBraceClose, types.ErrBraceExpected) {
			if p.failed() {
				return nil
			}
			return p.finish(node, start)
		}
	}
}

// parseObjectKey parses a key; "name:" yields a string literal key.
func (p *Parser) parseObjectKey() *types.ASTNode {
	tok := p.current
	if tok.Type == TokenIdentifier && p.peek().Type == TokenColon {
		node := p.arena.Alloc(types.NodeLiteral, tok.Offset)
		node.Value = tok.Value
		node.Length = tok.Length
		p.advance()
		return node
	}
	if !canStartExpression(tok.Type) {
		p.error(types.ErrArgumentIdentifierExpected, "Property name expected")
		return nil
	}
	return p.parseExpression()
}

// listContinues consumes the separator after a list item. It returns true
// when another item must follow and false when the list was closed by
// closer or an error was recorded.
func (p *Parser) listContinues(closer TokenType, code types.ErrorCode) bool {
	switch p.current.Type {
	case closer:
		p.advance()
		return false
	case TokenComma:
		p.advance()
		switch p.current.Type {
		case TokenComma:
			p.error(types.ErrUnexpectedComma, "Unexpected ','")
			return false
		case closer:
			if closer == TokenBraceClose {
				p.error(types.ErrArgumentIdentifierExpected, "Property name expected")
			} else if closer == TokenParenClose {
				p.error(types.ErrArgumentExpressionExpected, "Argument expression expected")
			} else {
				p.error(types.ErrExpressionExpected, "Expression expected")
			}
			return false
		}
		return true
	default:
		p.error(code, fmt.Sprintf("'%s' expected", closer))
		return false
	}
}

// operatorString maps a binary operator token to its AST operator.
func operatorString(tt TokenType) string {
	switch tt {
	case TokenPlus:
		return types.OpPlus
	case TokenMinus:
		return types.OpMinus
	case TokenMult:
		return types.OpMultiply
	case TokenDiv:
		return types.OpDivide
	case TokenMod:
		return types.OpModulo
	case TokenLess:
		return types.OpLess
	case TokenLessEqual:
		return types.OpLessEq
	case TokenGreater:
		return types.OpGreater
	case TokenGreaterEqual:
		return types.OpGreatEq
	case TokenEqual:
		return types.OpEqual
	case TokenNotEqual:
		return types.OpNotEqual
	case TokenAnd:
		return types.OpAnd
	case TokenOr:
		return types.OpOr
	default:
		return ""
	}
}
