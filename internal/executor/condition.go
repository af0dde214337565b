package executor

import (
	"fmt"
	"strings"
	"unicode"
)

// EvalCondition evaluates a step condition against the bound variables.
// The grammar is deliberately small:
//
//	expr   = or
//	or     = and { "||" and }
//	and    = unary { "&&" unary }
//	unary  = "!" unary | primary
//	primary = ident [ ("==" | "!=") string ] | "(" expr ")"
//
// A bare identifier is truthy when the variable is bound and non-empty.
// Comparisons read the variable's value; an unbound variable compares as
// the empty string. An empty condition is true.
func EvalCondition(condition string, vars map[string]string) (bool, error) {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return true, nil
	}
	p := &condParser{input: condition, vars: vars}
	result, err := p.parseOr()
	if err != nil {
		return false, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return false, fmt.Errorf("condition %q: unexpected trailing input at offset %d", condition, p.pos)
	}
	return result, nil
}

type condParser struct {
	input string
	pos   int
	vars  map[string]string
}

func (p *condParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *condParser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.input[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *condParser) parseOr() (bool, error) {
	left, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for p.consume("||") {
		right, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		left = left || right
	}
	return left, nil
}

func (p *condParser) parseAnd() (bool, error) {
	left, err := p.parseUnary()
	if err != nil {
		return false, err
	}
	for {
		p.skipSpace()
		// Do not eat the first & of nothing, and never confuse && with ||.
		if !strings.HasPrefix(p.input[p.pos:], "&&") {
			return left, nil
		}
		p.pos += 2
		right, err := p.parseUnary()
		if err != nil {
			return false, err
		}
		left = left && right
	}
}

func (p *condParser) parseUnary() (bool, error) {
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '!' && !strings.HasPrefix(p.input[p.pos:], "!=") {
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return false, err
		}
		return !v, nil
	}
	return p.parsePrimary()
}

func (p *condParser) parsePrimary() (bool, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return false, fmt.Errorf("condition %q: unexpected end of input", p.input)
	}

	if p.input[p.pos] == '(' {
		p.pos++
		v, err := p.parseOr()
		if err != nil {
			return false, err
		}
		if !p.consume(")") {
			return false, fmt.Errorf("condition %q: missing closing parenthesis", p.input)
		}
		return v, nil
	}

	ident, err := p.parseIdent()
	if err != nil {
		return false, err
	}

	p.skipSpace()
	if strings.HasPrefix(p.input[p.pos:], "==") || strings.HasPrefix(p.input[p.pos:], "!=") {
		op := p.input[p.pos : p.pos+2]
		p.pos += 2
		lit, err := p.parseStringLit()
		if err != nil {
			return false, err
		}
		value := p.vars[ident]
		if op == "==" {
			return value == lit, nil
		}
		return value != lit, nil
	}

	value, ok := p.vars[ident]
	return ok && value != "", nil
}

func (p *condParser) parseIdent() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := rune(p.input[p.pos])
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", fmt.Errorf("condition %q: expected identifier at offset %d", p.input, start)
	}
	return p.input[start:p.pos], nil
}

func (p *condParser) parseStringLit() (string, error) {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != '"' {
		return "", fmt.Errorf("condition %q: expected string literal at offset %d", p.input, p.pos)
	}
	p.pos++
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != '"' {
		p.pos++
	}
	if p.pos >= len(p.input) {
		return "", fmt.Errorf("condition %q: unterminated string literal", p.input)
	}
	lit := p.input[start:p.pos]
	p.pos++
	return lit, nil
}
