package types

import "fmt"

// LexErrorCode identifies the first lexical error found in an expression.
type LexErrorCode uint8

// Lexer error codes.
const (
	LexNone LexErrorCode = iota
	LexUnclosedString
	LexUnclosedComment
	LexInvalidNumber
	LexInvalidEscape
	LexInvalidUnicode
	LexInvalidCharacter
	LexUnknownToken
)

// String returns a human readable description of the code.
func (c LexErrorCode) String() string {
	switch c {
	case LexNone:
		return "none"
	case LexUnclosedString:
		return "unclosed string"
	case LexUnclosedComment:
		return "unclosed comment"
	case LexInvalidNumber:
		return "invalid number"
	case LexInvalidEscape:
		return "invalid escape sequence"
	case LexInvalidUnicode:
		return "invalid unicode escape"
	case LexInvalidCharacter:
		return "invalid character in string"
	case LexUnknownToken:
		return "unknown token"
	default:
		return "unknown lexer error"
	}
}

// ErrorCode identifies a parser error.
type ErrorCode uint8

// Parser error codes.
const (
	ErrNone ErrorCode = iota
	ErrLexer
	ErrEmptyExpression
	ErrExpressionExpected
	ErrIdentifierExpected
	ErrArgumentExpressionExpected
	ErrArgumentIdentifierExpected
	ErrColonExpected
	ErrBracketExpected
	ErrBraceExpected
	ErrParenExpected
	ErrUnexpectedComma
	ErrUnexpectedToken
	ErrUnknown
)

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	switch c {
	case ErrNone:
		return "None"
	case ErrLexer:
		return "LexerError"
	case ErrEmptyExpression:
		return "EmptyExpression"
	case ErrExpressionExpected:
		return "ExpressionExpected"
	case ErrIdentifierExpected:
		return "IdentifierExpected"
	case ErrArgumentExpressionExpected:
		return "ArgumentExpressionExpected"
	case ErrArgumentIdentifierExpected:
		return "ArgumentIdentifierExpected"
	case ErrColonExpected:
		return "ColonExpected"
	case ErrBracketExpected:
		return "BracketExpected"
	case ErrBraceExpected:
		return "BraceExpected"
	case ErrParenExpected:
		return "ParenExpected"
	case ErrUnexpectedComma:
		return "UnexpectedComma"
	case ErrUnexpectedToken:
		return "UnexpectedToken"
	default:
		return "Unknown"
	}
}

// Error represents a structured parse failure.
//
// Code is the parser error; when it is ErrLexer, LexCode carries the
// underlying lexical error. Position and Length locate the offending token
// in the source (byte offsets).
type Error struct {
	Code     ErrorCode
	LexCode  LexErrorCode
	Message  string
	Position int
	Length   int
	Token    string
	Err      error
}

// NewError creates a new parser error.
func NewError(code ErrorCode, message string, position, length int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
		Length:   length,
	}
}

// NewLexError creates a parser error wrapping a lexical error.
func NewLexError(code LexErrorCode, position, length int) *Error {
	return &Error{
		Code:     ErrLexer,
		LexCode:  code,
		Message:  code.String(),
		Position: position,
		Length:   length,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// Diagnostic converts the error into a single error-severity diagnostic.
func (e *Error) Diagnostic() Diagnostic {
	length := e.Length
	if length < 1 {
		length = 1
	}
	return Diagnostic{
		Offset:   e.Position,
		Length:   length,
		Severity: SeverityError,
		Message:  e.Message,
	}
}
