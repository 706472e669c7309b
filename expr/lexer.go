package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// lex tokenizes an expression. It recognizes the operators the grammar
// allows (+ - * / % === !== == != > < >= <= && || ! ? : ?? =>), parenthesis,
// brackets, dots, commas, number/string/boolean/null literals, and bare
// identifiers. Anything else is a lex error.
func lex(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	i := 0
	n := len(runes)

	for i < n {
		c := runes[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c >= '0' && c <= '9':
			start := i
			for i < n && (runes[i] >= '0' && runes[i] <= '9' || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("expr: invalid number literal %q", text)
			}
			toks = append(toks, token{kind: tokNumber, text: text, num: f})

		case c == '"' || c == '\'':
			quote := c
			i++
			var b strings.Builder
			closed := false
			for i < n {
				if runes[i] == '\\' && i+1 < n {
					b.WriteRune(unescapeChar(runes[i+1]))
					i += 2
					continue
				}
				if runes[i] == quote {
					i++
					closed = true
					break
				}
				b.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("expr: unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: b.String()})

		case isIdentStart(c):
			start := i
			for i < n && isIdentPart(runes[i]) {
				i++
			}
			text := string(runes[start:i])
			switch text {
			case "true":
				toks = append(toks, token{kind: tokTrue, text: text})
			case "false":
				toks = append(toks, token{kind: tokFalse, text: text})
			case "null", "undefined":
				toks = append(toks, token{kind: tokNull, text: text})
			default:
				toks = append(toks, token{kind: tokIdent, text: text})
			}

		default:
			punct, width, err := lexPunct(runes[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokPunct, text: punct})
			i += width
		}
	}
	toks = append(toks, token{kind: tokEOF})
	return toks, nil
}

func unescapeChar(c rune) rune {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

func isIdentStart(c rune) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// multiCharPuncts is checked longest-first so "===" is not lexed as "==" + "=".
var multiCharPuncts = []string{"===", "!==", "=>", "??", "==", "!=", ">=", "<=", "&&", "||"}

func lexPunct(remaining []rune) (string, int, error) {
	for _, p := range multiCharPuncts {
		if hasPrefixRunes(remaining, p) {
			return p, len(p), nil
		}
	}
	switch remaining[0] {
	case '+', '-', '*', '/', '%', '(', ')', '.', ',', '[', ']', '?', ':', '!', '>', '<':
		return string(remaining[0]), 1, nil
	default:
		return "", 0, fmt.Errorf("expr: unexpected character %q", remaining[0])
	}
}

func hasPrefixRunes(r []rune, s string) bool {
	rs := []rune(s)
	if len(r) < len(rs) {
		return false
	}
	for i, c := range rs {
		if r[i] != c {
			return false
		}
	}
	return true
}
