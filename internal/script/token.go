package script

import "fmt"

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF
	NEWLINE
	INDENT
	DEDENT

	IDENT
	NUMBER
	STRING

	TRUE
	FALSE
	IF
	ELIF
	ELSE

	PLUS
	MINUS
	STAR
	SLASH
	BANG
	ASSIGN
	EQ
	NEQ
	LT
	LTE
	GT
	GTE

	LPAREN
	RPAREN
	COMMA
	COLON
)

var tokenNames = map[TokenType]string{
	ILLEGAL: "illegal character",
	EOF:     "end of input",
	NEWLINE: "newline",
	INDENT:  "indent",
	DEDENT:  "dedent",
	IDENT:   "identifier",
	NUMBER:  "number",
	STRING:  "string",
	TRUE:    "'true'",
	FALSE:   "'false'",
	IF:      "'if'",
	ELIF:    "'elif'",
	ELSE:    "'else'",
	PLUS:    "'+'",
	MINUS:   "'-'",
	STAR:    "'*'",
	SLASH:   "'/'",
	BANG:    "'!'",
	ASSIGN:  "'='",
	EQ:      "'=='",
	NEQ:     "'!='",
	LT:      "'<'",
	LTE:     "'<='",
	GT:      "'>'",
	GTE:     "'>='",
	LPAREN:  "'('",
	RPAREN:  "')'",
	COMMA:   "','",
	COLON:   "':'",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

var keywords = map[string]TokenType{
	"true":  TRUE,
	"false": FALSE,
	"if":    IF,
	"elif":  ELIF,
	"else":  ELSE,
}

type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
}

func (t Token) String() string {
	switch t.Type {
	case IDENT, NUMBER, ILLEGAL:
		return fmt.Sprintf("%s %q", t.Type, t.Lexeme)
	case STRING:
		return fmt.Sprintf("string %q", t.Lexeme)
	default:
		return t.Type.String()
	}
}
