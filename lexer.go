package xlcalc

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenString // text content, quotes stripped and "" unescaped
	tokenName   // function name, boolean, or bare cell reference
	tokenRef    // sheet-qualified reference, scanned as one unit
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenCaret
	tokenPercent
	tokenAmp
	tokenLParen
	tokenRParen
	tokenComma
	tokenColon
	tokenEq
	tokenNe
	tokenLt
	tokenLe
	tokenGt
	tokenGe
	tokenLBrace
	tokenRBrace
)

type token struct {
	kind tokenKind
	text string
	pos  int // byte offset in the formula body
}

// describe renders the token for error messages.
func (t token) describe() string {
	if t.kind == tokenEOF {
		return "end of formula"
	}
	return fmt.Sprintf("%q", t.text)
}

// lex tokenizes a formula body (leading = already stripped). Whitespace
// between tokens is skipped; positions refer to the original input.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		ch := src[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			i++

		case isDigit(ch) || (ch == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			i = scanNumber(src, i)
			toks = append(toks, token{tokenNumber, src[start:i], start})

		case ch == '"':
			text, next, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokenString, text, i})
			i = next

		case ch == '\'':
			start := i
			next, err := scanQuotedRef(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokenRef, src[start:next], start})
			i = next

		case isNameStart(ch):
			start := i
			for i < len(src) && isNameChar(src[i]) {
				i++
			}
			if i < len(src) && src[i] == '!' {
				i++ // consume '!'
				cellStart := i
				for i < len(src) && isRefChar(src[i]) {
					i++
				}
				if i == cellStart {
					return nil, &SyntaxError{Pos: cellStart, Expected: "cell reference after '!'", Got: restOf(src, cellStart)}
				}
				toks = append(toks, token{tokenRef, src[start:i], start})
				break
			}
			toks = append(toks, token{tokenName, src[start:i], start})

		default:
			kind, width, err := scanOperator(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind, src[i : i+width], i})
			i += width
		}
	}
	toks = append(toks, token{tokenEOF, "", len(src)})
	return toks, nil
}

// scanNumber consumes digits, an optional fraction, and an optional
// exponent, returning the index past the number.
func scanNumber(src string, i int) int {
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			i = j
			for i < len(src) && isDigit(src[i]) {
				i++
			}
		}
	}
	return i
}

// scanString consumes a double-quoted string with "" escaping and returns
// the unescaped content plus the index past the closing quote.
func scanString(src string, i int) (string, int, error) {
	start := i
	i++ // opening quote
	var b strings.Builder
	for i < len(src) {
		if src[i] != '"' {
			b.WriteByte(src[i])
			i++
			continue
		}
		if i+1 < len(src) && src[i+1] == '"' {
			b.WriteByte('"')
			i += 2
			continue
		}
		return b.String(), i + 1, nil
	}
	return "", 0, &SyntaxError{Pos: start, Expected: "closing '\"'", Got: "end of formula"}
}

// scanQuotedRef consumes a quoted-sheet reference like 'My Sheet'!A1 and
// returns the index past the cell part.
func scanQuotedRef(src string, i int) (int, error) {
	start := i
	i++ // opening quote
	for i < len(src) {
		if src[i] != '\'' {
			i++
			continue
		}
		if i+1 < len(src) && src[i+1] == '\'' {
			i += 2
			continue
		}
		i++ // closing quote
		if i >= len(src) || src[i] != '!' {
			return 0, &SyntaxError{Pos: i, Expected: "'!' after quoted sheet name", Got: restOf(src, i)}
		}
		i++
		cellStart := i
		for i < len(src) && isRefChar(src[i]) {
			i++
		}
		if i == cellStart {
			return 0, &SyntaxError{Pos: cellStart, Expected: "cell reference after '!'", Got: restOf(src, cellStart)}
		}
		return i, nil
	}
	return 0, &SyntaxError{Pos: start, Expected: "closing quote in sheet name", Got: "end of formula"}
}

func scanOperator(src string, i int) (tokenKind, int, error) {
	switch src[i] {
	case '+':
		return tokenPlus, 1, nil
	case '-':
		return tokenMinus, 1, nil
	case '*':
		return tokenStar, 1, nil
	case '/':
		return tokenSlash, 1, nil
	case '^':
		return tokenCaret, 1, nil
	case '%':
		return tokenPercent, 1, nil
	case '&':
		return tokenAmp, 1, nil
	case '(':
		return tokenLParen, 1, nil
	case ')':
		return tokenRParen, 1, nil
	case ',':
		return tokenComma, 1, nil
	case ':':
		return tokenColon, 1, nil
	case '{':
		return tokenLBrace, 1, nil
	case '}':
		return tokenRBrace, 1, nil
	case '=':
		return tokenEq, 1, nil
	case '<':
		if i+1 < len(src) {
			switch src[i+1] {
			case '>':
				return tokenNe, 2, nil
			case '=':
				return tokenLe, 2, nil
			}
		}
		return tokenLt, 1, nil
	case '>':
		if i+1 < len(src) && src[i+1] == '=' {
			return tokenGe, 2, nil
		}
		return tokenGt, 1, nil
	}
	return 0, 0, &SyntaxError{Pos: i, Expected: "operator or operand", Got: fmt.Sprintf("%q", src[i : i+1])}
}

// restOf renders what follows position i for an error message.
func restOf(src string, i int) string {
	if i >= len(src) {
		return "end of formula"
	}
	return fmt.Sprintf("%q", src[i:i+1])
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isNameStart(b byte) bool {
	return isAlpha(b) || b == '$' || b == '_'
}

func isNameChar(b byte) bool {
	return isAlpha(b) || isDigit(b) || b == '$' || b == '_' || b == '.'
}

// isRefChar covers the cell part after a sheet qualifier: column letters,
// row digits, and absolute markers.
func isRefChar(b byte) bool {
	return isAlpha(b) || isDigit(b) || b == '$'
}
