package script

import (
	"strings"
)

type lexer struct {
	tokens  []Token
	indents []int
	parens  int
	line    int

	// indentChar is the whitespace of the first indented line; 0 until then.
	indentChar byte
}

// Tokenize splits source text into tokens. Indentation changes become INDENT and
// DEDENT tokens and each logical line ends with NEWLINE.
func Tokenize(src string) ([]Token, error) {
	l := &lexer{indents: []int{0}}
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	for i, raw := range lines {
		l.line = i + 1
		if err := l.scanLine(raw); err != nil {
			return nil, err
		}
	}
	if l.parens > 0 {
		return nil, syntaxErrorf(l.token(EOF, ""), "unclosed '('")
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(DEDENT, "")
	}
	l.emit(EOF, "")
	return l.tokens, nil
}

func (l *lexer) token(t TokenType, lexeme string) Token {
	return Token{Type: t, Lexeme: lexeme, Line: l.line}
}

func (l *lexer) emit(t TokenType, lexeme string) {
	l.tokens = append(l.tokens, l.token(t, lexeme))
}

func (l *lexer) scanLine(raw string) error {
	indent := 0
	for indent < len(raw) && (raw[indent] == ' ' || raw[indent] == '\t') {
		indent++
	}
	rest := raw[indent:]
	if rest == "" || rest[0] == '#' {
		return nil
	}
	if l.parens == 0 {
		if err := l.checkIndentChars(raw[:indent]); err != nil {
			return err
		}
		if err := l.indent(indent); err != nil {
			return err
		}
	}
	if err := l.scan(rest); err != nil {
		return err
	}
	if l.parens == 0 {
		l.emit(NEWLINE, "")
	}
	return nil
}

// checkIndentChars rejects a script that indents with both tabs and spaces.
func (l *lexer) checkIndentChars(ws string) error {
	for i := 0; i < len(ws); i++ {
		if l.indentChar == 0 {
			l.indentChar = ws[i]
		}
		if ws[i] != l.indentChar {
			return syntaxErrorf(l.token(INDENT, ""), "indentation mixes tabs and spaces")
		}
	}
	return nil
}

func (l *lexer) indent(n int) error {
	top := l.indents[len(l.indents)-1]
	if n > top {
		l.indents = append(l.indents, n)
		l.emit(INDENT, "")
		return nil
	}
	for n < top {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(DEDENT, "")
		top = l.indents[len(l.indents)-1]
	}
	if n != top {
		return syntaxErrorf(l.token(DEDENT, ""), "inconsistent dedent to column %d", n)
	}
	return nil
}

func (l *lexer) scan(s string) error {
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '#':
			return nil
		case isDigit(c):
			start := i
			for i < len(s) && isDigit(s[i]) {
				i++
			}
			if i < len(s) && s[i] == '.' {
				i++
				if i >= len(s) || !isDigit(s[i]) {
					return syntaxErrorf(l.token(NUMBER, s[start:i]), "expected digit after '.'")
				}
				for i < len(s) && isDigit(s[i]) {
					i++
				}
			}
			l.emit(NUMBER, s[start:i])
		case isIdentStart(c):
			start := i
			for i < len(s) && (isIdentStart(s[i]) || isDigit(s[i])) {
				i++
			}
			word := s[start:i]
			if kw, ok := keywords[word]; ok {
				l.emit(kw, word)
			} else {
				l.emit(IDENT, word)
			}
		case c == '"':
			n, err := l.scanString(s[i:])
			if err != nil {
				return err
			}
			i += n
		default:
			n, err := l.scanOperator(s[i:])
			if err != nil {
				return err
			}
			i += n
		}
	}
	return nil
}

// scanString consumes a double-quoted literal and returns the bytes used.
func (l *lexer) scanString(s string) (int, error) {
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			l.emit(STRING, sb.String())
			return i + 1, nil
		case '\\':
			i++
			if i >= len(s) {
				break
			}
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"', '\\':
				sb.WriteByte(s[i])
			default:
				return 0, syntaxErrorf(l.token(STRING, s[:i+1]), "unknown escape '\\%c'", s[i])
			}
		default:
			sb.WriteByte(c)
		}
	}
	return 0, syntaxErrorf(l.token(STRING, s), "unterminated string")
}

func (l *lexer) scanOperator(s string) (int, error) {
	two := ""
	if len(s) >= 2 {
		two = s[:2]
	}
	switch two {
	case "==":
		l.emit(EQ, two)
		return 2, nil
	case "!=":
		l.emit(NEQ, two)
		return 2, nil
	case "<=":
		l.emit(LTE, two)
		return 2, nil
	case ">=":
		l.emit(GTE, two)
		return 2, nil
	}
	var t TokenType
	switch s[0] {
	case '+':
		t = PLUS
	case '-':
		t = MINUS
	case '*':
		t = STAR
	case '/':
		t = SLASH
	case '!':
		t = BANG
	case '=':
		t = ASSIGN
	case '<':
		t = LT
	case '>':
		t = GT
	case ':':
		t = COLON
	case ',':
		t = COMMA
	case '(':
		t = LPAREN
		l.parens++
	case ')':
		if l.parens == 0 {
			return 0, syntaxErrorf(l.token(RPAREN, ")"), "unmatched ')'")
		}
		t = RPAREN
		l.parens--
	default:
		return 0, syntaxErrorf(l.token(ILLEGAL, s[:1]), "unexpected character")
	}
	l.emit(t, s[:1])
	return 1, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
