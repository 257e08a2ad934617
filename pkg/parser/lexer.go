package parser

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/zhangrenfeng/axexpr/pkg/types"
)

const eof = -1

// Lexer converts an expression into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
//
// The first lexical error is sticky: once Err returns a code other than
// types.LexNone, Next keeps returning false and Token reports TokenNone
// positioned at the offending text.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	token   Token  // Current token
	done    bool   // End of input reached
	err     types.LexErrorCode
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Token returns the current token.
func (l *Lexer) Token() Token {
	return l.token
}

// Err returns the first lexical error encountered, or types.LexNone.
func (l *Lexer) Err() types.LexErrorCode {
	return l.err
}

// Next advances to the next token. It returns false at the end of the
// input (Token is then TokenEOF) or when a lexical error occurs.
func (l *Lexer) Next() bool {
	if l.err != types.LexNone || l.done {
		return false
	}

	if !l.skipWhitespace() {
		return false
	}
	l.ignore()

	ch := l.nextRune()
	switch {
	case ch == eof:
		l.token = Token{Type: TokenEOF, Offset: l.current}
		l.done = true
		return false

	case ch == '"' || ch == '\'':
		return l.scanString(ch)

	case isDigit(ch):
		l.backup()
		return l.scanNumber()

	case isIdentStart(ch):
		return l.scanIdentifier()
	}

	// Check for two-character symbols first (e.g., !=, <=, &&)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.emit(rt.tt, nil)
			}
		}
	}

	// Check for single-character symbols
	if tt := lookupSymbol1(ch); tt != TokenNone {
		return l.emit(tt, nil)
	}

	// A lone '&', '|' or '=' and anything else is unknown.
	return l.fail(types.LexUnknownToken)
}

// scanString reads a string literal; the opening quote has been consumed.
func (l *Lexer) scanString(quote rune) bool {
	var sb strings.Builder
	for {
		r := l.nextRune()
		switch {
		case r == quote:
			return l.emit(TokenString, sb.String())
		case r == eof, r == '\n', r == '\r':
			if r != eof {
				l.backup()
			}
			return l.fail(types.LexUnclosedString)
		case r == '\\':
			if code := l.scanEscape(&sb); code != types.LexNone {
				return l.fail(code)
			}
		case r < 0x20:
			return l.fail(types.LexInvalidCharacter)
		default:
			sb.WriteRune(r)
		}
	}
}

// scanEscape decodes one escape sequence; the backslash has been consumed.
func (l *Lexer) scanEscape(sb *strings.Builder) types.LexErrorCode {
	r := l.nextRune()
	switch r {
	case '"', '\'', '\\', '/':
		sb.WriteRune(r)
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'u':
		cp, ok := l.scanHex4()
		if !ok {
			return types.LexInvalidUnicode
		}
		if utf16.IsSurrogate(cp) {
			// Join a UTF-16 surrogate pair when the low half follows.
			save := l.current
			if l.acceptRune('\\') && l.acceptRune('u') {
				if lo, ok := l.scanHex4(); ok {
					if joined := utf16.DecodeRune(cp, lo); joined != utf8.RuneError {
						sb.WriteRune(joined)
						return types.LexNone
					}
				}
			}
			l.current = save
			l.width = 0
		}
		sb.WriteRune(cp)
	case eof:
		return types.LexUnclosedString
	default:
		return types.LexInvalidEscape
	}
	return types.LexNone
}

func (l *Lexer) scanHex4() (rune, bool) {
	var cp rune
	for i := 0; i < 4; i++ {
		r := l.nextRune()
		switch {
		case r >= '0' && r <= '9':
			cp = cp<<4 | (r - '0')
		case r >= 'a' && r <= 'f':
			cp = cp<<4 | (r - 'a' + 10)
		case r >= 'A' && r <= 'F':
			cp = cp<<4 | (r - 'A' + 10)
		default:
			if r != eof {
				l.backup()
			}
			return 0, false
		}
	}
	return cp, true
}

// scanNumber reads a number literal from the current position.
// Format: (0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]*)?
//
// An exponent without digits is accepted and ignored.
func (l *Lexer) scanNumber() bool {
	// The integer part is either a single zero, or
	// a non-zero digit followed by zero or more digits.
	if l.acceptRune('0') {
		if l.accept(isDigit) {
			l.acceptAll(isDigit)
			return l.fail(types.LexInvalidNumber)
		}
	} else {
		l.accept(isNonZeroDigit)
		l.acceptAll(isDigit)
	}

	// Decimal part
	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) {
			return l.fail(types.LexInvalidNumber)
		}
	}

	// Exponent part
	end := l.current
	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if l.acceptAll(isDigit) {
			end = l.current
		}
	}

	if l.acceptAll(isIdentPart) {
		return l.fail(types.LexInvalidNumber)
	}

	f, err := strconv.ParseFloat(l.input[l.start:end], 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return l.fail(types.LexInvalidNumber)
		}
	}
	return l.emit(TokenNumber, f)
}

// scanIdentifier reads an identifier or literal keyword; the first
// character has been consumed.
func (l *Lexer) scanIdentifier() bool {
	l.acceptAll(isIdentPart)
	tt, v := lookupKeyword(l.input[l.start:l.current])
	return l.emit(tt, v)
}

// Helper methods

func (l *Lexer) emit(tt TokenType, value interface{}) bool {
	l.token = Token{
		Type:   tt,
		Value:  value,
		Offset: l.start,
		Length: l.current - l.start,
	}
	l.width = 0
	l.start = l.current
	return true
}

func (l *Lexer) fail(code types.LexErrorCode) bool {
	l.err = code
	l.token = Token{
		Type:   TokenNone,
		Offset: l.start,
		Length: l.current - l.start,
	}
	return false
}

func (l *Lexer) nextRune() rune {
	if l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
	l.width = 0
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	r := l.nextRune()
	if r != eof && isValid(r) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// skipWhitespace skips blanks and comments. It returns false when a block
// comment is not closed.
func (l *Lexer) skipWhitespace() bool {
	for {
		l.acceptAll(isWhitespace)
		l.ignore()

		if !l.acceptRune('/') {
			return true
		}
		switch {
		case l.acceptRune('/'):
			for {
				r := l.nextRune()
				if r == eof || r == '\n' {
					break
				}
			}
		case l.acceptRune('*'):
			for {
				r := l.nextRune()
				if r == eof {
					return l.fail(types.LexUnclosedComment)
				}
				if r == '*' && l.acceptRune('/') {
					break
				}
			}
		default:
			// A division operator, not a comment.
			l.current = l.start
			l.width = 0
			return true
		}
	}
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNonZeroDigit(r rune) bool {
	return r >= '1' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isIdentPart(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || isDigit(r)
}
