package callexpr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseError describes a failure to parse call-expression text against the
// surface grammar. Scoring layers convert it to an output_format result
// rather than propagating it.
type ParseError struct {
	// Offset is the byte offset in the input where parsing failed.
	Offset int

	// Msg describes what was expected or found.
	Msg string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("call expression parse error at offset %d: %s", e.Offset, e.Msg)
}

// Parse parses one or more call expressions from text. Calls may be wrapped
// in a single pair of square brackets and are separated by commas or
// newlines. Emission order is preserved.
//
// The empty sequence "[]" is valid and yields no calls; otherwise at least
// one call is required.
func Parse(text string) ([]Call, error) {
	p := &parser{src: text}
	p.skipSpace()

	bracketed := false
	if p.peek() == '[' {
		bracketed = true
		p.next()
		p.skipSpace()
		if bracketed && p.peek() == ']' {
			p.next()
			p.skipSpace()
			if !p.eof() {
				return nil, p.errf("unexpected trailing text after call list")
			}
			return nil, nil
		}
	}

	var calls []Call
	for {
		call, err := p.parseCall()
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)

		hadSep := p.skipSpaceCountingNewlines()
		if p.peek() == ',' {
			p.next()
			p.skipSpace()
			if bracketed && p.peek() == ']' {
				break
			}
			continue
		}
		if bracketed && p.peek() == ']' {
			break
		}
		if p.eof() {
			if bracketed {
				return nil, p.errf("unbalanced brackets: missing ']'")
			}
			return calls, nil
		}
		// Newline-separated calls without commas.
		if hadSep && isIdentStart(p.peek()) {
			continue
		}
		return nil, p.errf("expected ',' or end of call list, found %q", p.peek())
	}

	// Bracketed list epilogue.
	p.next() // consume ']'
	p.skipSpace()
	if !p.eof() {
		return nil, p.errf("unexpected trailing text after call list")
	}
	return calls, nil
}

// ParseOne parses exactly one call expression. Multiple calls, or any
// trailing text, are a parse error.
func ParseOne(text string) (Call, error) {
	calls, err := Parse(text)
	if err != nil {
		return Call{}, err
	}
	if len(calls) != 1 {
		return Call{}, &ParseError{Msg: fmt.Sprintf("expected exactly one call, found %d", len(calls))}
	}
	return calls[0], nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) next() byte {
	c := p.peek()
	p.pos++
	return c
}

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

// skipSpaceCountingNewlines skips whitespace and reports whether any
// newline was crossed, which acts as a call separator.
func (p *parser) skipSpaceCountingNewlines() bool {
	sawNewline := false
	for !p.eof() && unicode.IsSpace(rune(p.src[p.pos])) {
		if p.src[p.pos] == '\n' {
			sawNewline = true
		}
		p.pos++
	}
	return sawNewline
}

func (p *parser) errf(format string, args ...any) *ParseError {
	return &ParseError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.'
}

func (p *parser) parseIdent() (string, error) {
	start := p.pos
	if !isIdentStart(p.peek()) {
		return "", p.errf("expected identifier, found %q", p.peek())
	}
	for !p.eof() && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos], nil
}

func (p *parser) parseCall() (Call, error) {
	name, err := p.parseIdent()
	if err != nil {
		return Call{}, err
	}
	p.skipSpace()
	if p.peek() != '(' {
		return Call{}, p.errf("expected '(' after function name %q", name)
	}
	p.next()
	p.skipSpace()

	call := Call{Name: name}
	seen := make(map[string]bool)

	if p.peek() == ')' {
		p.next()
		return call, nil
	}

	for {
		argName, err := p.parseIdent()
		if err != nil {
			return Call{}, err
		}
		if seen[argName] {
			return Call{}, p.errf("duplicate argument %q in call to %s", argName, name)
		}
		seen[argName] = true

		p.skipSpace()
		if p.peek() != '=' {
			return Call{}, p.errf("expected '=' after argument %q", argName)
		}
		p.next()
		p.skipSpace()

		value, err := p.parseValue()
		if err != nil {
			return Call{}, err
		}
		call.Args = append(call.Args, Arg{Name: argName, Value: value})

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.next()
			p.skipSpace()
		case ')':
			p.next()
			return call, nil
		default:
			return Call{}, p.errf("expected ',' or ')' in call to %s, found %q", name, p.peek())
		}
	}
}

func (p *parser) parseValue() (Value, error) {
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		return p.parseString()
	case c == '[':
		return p.parseList()
	case c == '{':
		return p.parseMap()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case isIdentStart(c):
		return p.parseWord()
	default:
		return nil, p.errf("expected a value, found %q", c)
	}
}

func (p *parser) parseString() (Value, error) {
	quote := p.next()
	var b strings.Builder
	for {
		if p.eof() {
			return nil, p.errf("unterminated string literal")
		}
		c := p.next()
		if c == quote {
			return String(b.String()), nil
		}
		if c == '\\' {
			if p.eof() {
				return nil, p.errf("unterminated escape sequence")
			}
			switch esc := p.next(); esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '\'', '"':
				b.WriteByte(esc)
			default:
				b.WriteByte('\\')
				b.WriteByte(esc)
			}
			continue
		}
		b.WriteByte(c)
	}
}

func (p *parser) parseNumber() (Value, error) {
	start := p.pos
	if p.peek() == '-' {
		p.next()
	}
	digits := 0
	for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
		digits++
	}
	if digits == 0 {
		return nil, p.errf("expected digits in number literal")
	}
	isFloat := false
	if !p.eof() && p.src[p.pos] == '.' {
		isFloat = true
		p.pos++
		for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	if !p.eof() && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		isFloat = true
		p.pos++
		if !p.eof() && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		expDigits := 0
		for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
			expDigits++
		}
		if expDigits == 0 {
			return nil, p.errf("expected digits in exponent")
		}
	}
	lit := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, p.errf("invalid float literal %q", lit)
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return nil, p.errf("invalid integer literal %q", lit)
	}
	return Int(i), nil
}

// parseWord handles bare keyword literals. Both the Python and JSON
// spellings of booleans and null are accepted.
func (p *parser) parseWord() (Value, error) {
	start := p.pos
	word, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	switch word {
	case "true", "True":
		return Bool(true), nil
	case "false", "False":
		return Bool(false), nil
	case "null", "None":
		return Null{}, nil
	default:
		p.pos = start
		return nil, p.errf("unsupported bare word %q in value position", word)
	}
}

func (p *parser) parseList() (Value, error) {
	p.next() // consume '['
	p.skipSpace()
	list := List{}
	if p.peek() == ']' {
		p.next()
		return list, nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		list = append(list, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.next()
			p.skipSpace()
		case ']':
			p.next()
			return list, nil
		default:
			return nil, p.errf("expected ',' or ']' in list, found %q", p.peek())
		}
	}
}

func (p *parser) parseMap() (Value, error) {
	p.next() // consume '{'
	p.skipSpace()
	m := Map{}
	if p.peek() == '}' {
		p.next()
		return m, nil
	}
	seen := make(map[string]bool)
	for {
		if c := p.peek(); c != '\'' && c != '"' {
			return nil, p.errf("expected string key in map, found %q", c)
		}
		keyVal, err := p.parseString()
		if err != nil {
			return nil, err
		}
		key := string(keyVal.(String))
		if seen[key] {
			return nil, p.errf("duplicate key %q in map", key)
		}
		seen[key] = true

		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errf("expected ':' after map key %q", key)
		}
		p.next()
		p.skipSpace()

		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		m = append(m, MapEntry{Key: key, Value: v})

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.next()
			p.skipSpace()
		case '}':
			p.next()
			return m, nil
		default:
			return nil, p.errf("expected ',' or '}' in map, found %q", p.peek())
		}
	}
}
