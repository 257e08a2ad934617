package typesystem

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseAnnotation parses a type written in annotation syntax:
//
//	string | number[]
//	"left" | "right"
//	[number, string]
//	{id: number; name?: string; [key]: any}
//	fn(value: number, digits: number): string
//	(string | null) & object
//
// Names resolve against r. The result is built with r's combinators, so
// unions come back normalized.
func ParseAnnotation(r *Registry, src string) (Type, error) {
	p := &annotationParser{reg: r, src: src}
	p.next()
	t := p.parseType()
	if p.err == nil && p.tok.kind != atEOF {
		p.fail("unexpected %s", p.tok.describe())
	}
	if p.err != nil {
		return nil, p.err
	}
	return t, nil
}

// MustParseAnnotation is like ParseAnnotation but panics on error. It is
// meant for built-in type catalogs.
func MustParseAnnotation(r *Registry, src string) Type {
	t, err := ParseAnnotation(r, src)
	if err != nil {
		panic(err)
	}
	return t
}

type annotationTokenKind uint8

const (
	atEOF annotationTokenKind = iota
	atName
	atString
	atNumber
	atPunct
	atBad
)

type annotationToken struct {
	kind  annotationTokenKind
	text  string
	value interface{}
	pos   int
}

func (t annotationToken) describe() string {
	switch t.kind {
	case atEOF:
		return "end of annotation"
	case atString:
		return "string " + strconv.Quote(t.text)
	}
	return strconv.Quote(t.text)
}

type annotationParser struct {
	reg *Registry
	src string
	pos int
	tok annotationToken
	err *AnnotationError
}

func (p *annotationParser) fail(format string, args ...interface{}) {
	if p.err == nil {
		p.err = &AnnotationError{
			Source:   p.src,
			Position: p.tok.pos,
			Message:  fmt.Sprintf(format, args...),
		}
	}
}

func (p *annotationParser) next() {
	for p.pos < len(p.src) && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.src) {
		p.tok = annotationToken{kind: atEOF, pos: start}
		return
	}

	c := p.src[p.pos]
	switch {
	case c == '"' || c == '\'':
		end := strings.IndexByte(p.src[p.pos+1:], c)
		if end < 0 {
			p.tok = annotationToken{kind: atBad, text: p.src[start:], pos: start}
			p.pos = len(p.src)
			return
		}
		text := p.src[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
		p.tok = annotationToken{kind: atString, text: text, value: text, pos: start}

	case c == '-' || c >= '0' && c <= '9':
		p.pos++
		for p.pos < len(p.src) && strings.IndexByte("0123456789.eE+", p.src[p.pos]) >= 0 {
			p.pos++
		}
		text := p.src[start:p.pos]
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.tok = annotationToken{kind: atBad, text: text, pos: start}
			return
		}
		p.tok = annotationToken{kind: atNumber, text: text, value: f, pos: start}

	case c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		p.pos++
		for p.pos < len(p.src) {
			c := p.src[p.pos]
			if c != '_' && !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
				break
			}
			p.pos++
		}
		p.tok = annotationToken{kind: atName, text: p.src[start:p.pos], pos: start}

	case strings.IndexByte("|&[](){}:;,?", c) >= 0:
		p.pos++
		p.tok = annotationToken{kind: atPunct, text: string(c), pos: start}

	default:
		_, w := utf8.DecodeRuneInString(p.src[p.pos:])
		p.pos += w
		p.tok = annotationToken{kind: atBad, text: p.src[start:p.pos], pos: start}
	}
}

func (p *annotationParser) is(punct string) bool {
	return p.tok.kind == atPunct && p.tok.text == punct
}

func (p *annotationParser) accept(punct string) bool {
	if p.is(punct) {
		p.next()
		return true
	}
	return false
}

func (p *annotationParser) expect(punct string) bool {
	if p.accept(punct) {
		return true
	}
	p.fail("expected %q, got %s", punct, p.tok.describe())
	return false
}

// parseType parses a union: intersection ('|' intersection)*.
func (p *annotationParser) parseType() Type {
	p.accept("|")
	ts := []Type{p.parseIntersection()}
	for p.err == nil && p.accept("|") {
		ts = append(ts, p.parseIntersection())
	}
	if p.err != nil {
		return nil
	}
	return p.reg.Union(ts...)
}

func (p *annotationParser) parseIntersection() Type {
	ts := []Type{p.parsePostfix()}
	for p.err == nil && p.accept("&") {
		ts = append(ts, p.parsePostfix())
	}
	if p.err != nil {
		return nil
	}
	return p.reg.Intersection(ts...)
}

func (p *annotationParser) parsePostfix() Type {
	t := p.parsePrimary()
	for p.err == nil && p.is("[") {
		p.next()
		if !p.expect("]") {
			return nil
		}
		t = p.reg.ArrayOf(t)
	}
	return t
}

func (p *annotationParser) parsePrimary() Type {
	tok := p.tok
	switch tok.kind {
	case atString, atNumber:
		p.next()
		return p.reg.Literal(tok.value)

	case atName:
		switch tok.text {
		case "true", "false":
			p.next()
			return p.reg.Literal(tok.text == "true")
		case "fn":
			p.next()
			if p.is("(") {
				return p.parseArrow()
			}
			p.fail("expected \"(\" after fn")
			return nil
		}
		if tok.text == NameNull {
			p.next()
			return p.reg.Literal(nil)
		}
		prim, ok := p.reg.Lookup(tok.text)
		if !ok {
			p.fail("unknown type %q", tok.text)
			p.err.Err = ErrUnknownType
			return nil
		}
		p.next()
		return prim

	case atPunct:
		switch tok.text {
		case "(":
			p.next()
			t := p.parseType()
			if !p.expect(")") {
				return nil
			}
			return t
		case "[":
			return p.parseTuple()
		case "{":
			return p.parseObject()
		}
	}

	p.fail("unexpected %s", tok.describe())
	return nil
}

func (p *annotationParser) parseTuple() Type {
	p.next()
	var elems []Type
	for p.err == nil && !p.is("]") {
		elems = append(elems, p.parseType())
		if !p.accept(",") {
			break
		}
	}
	if !p.expect("]") {
		return nil
	}
	return p.reg.Tuple(elems...)
}

func (p *annotationParser) parseObject() Type {
	p.next()
	var (
		fields []Field
		index  Type
	)
	for p.err == nil && !p.is("}") {
		if p.accept("[") {
			// [key] or [key: string]
			if p.tok.kind != atName {
				p.fail("expected index name, got %s", p.tok.describe())
				return nil
			}
			p.next()
			if p.accept(":") {
				p.parseType()
			}
			if !p.expect("]") || !p.expect(":") {
				return nil
			}
			index = p.parseType()
		} else {
			if p.tok.kind != atName && p.tok.kind != atString {
				p.fail("expected property name, got %s", p.tok.describe())
				return nil
			}
			name := p.tok.text
			p.next()
			optional := p.accept("?")
			if !p.expect(":") {
				return nil
			}
			fields = append(fields, Field{Name: name, Type: p.parseType(), Optional: optional})
		}
		if !p.accept(";") && !p.accept(",") {
			break
		}
	}
	if !p.expect("}") {
		return nil
	}
	return p.reg.ObjectOf(fields, index)
}

func (p *annotationParser) parseArrow() Type {
	p.next()
	var params []Type
	for p.err == nil && !p.is(")") {
		if p.tok.kind == atName {
			// Parameter names are optional: "x: T" or just "T".
			save, saveTok := p.pos, p.tok
			p.next()
			if !p.accept(":") {
				p.pos, p.tok = save, saveTok
			}
		}
		params = append(params, p.parseType())
		if !p.accept(",") {
			break
		}
	}
	if !p.expect(")") || !p.expect(":") {
		return nil
	}
	ret := p.parseType()
	if p.err != nil {
		return nil
	}
	return p.reg.Arrow(params, ret)
}
