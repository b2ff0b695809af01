package script

import (
	"github.com/shopspring/decimal"
)

type parser struct {
	tokens    []Token
	pos       int
	functions map[string]struct{}
}

// Parse compiles source text into a Program. Parsing is all-or-nothing: the
// first problem is returned as a *SyntaxError.
func Parse(src string) (*Program, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, functions: make(map[string]struct{})}
	var stmts []Stmt
	for !p.check(EOF) {
		if p.match(NEWLINE) {
			continue
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return &Program{Statements: stmts, functions: p.functions}, nil
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) peekNext() Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

func (p *parser) check(t TokenType) bool {
	return p.peek().Type == t
}

func (p *parser) match(types ...TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) expect(t TokenType, what string) (Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return Token{}, syntaxErrorf(p.peek(), "expected %s", what)
}

func (p *parser) statement() (Stmt, error) {
	tok := p.peek()
	switch {
	case tok.Type == IF:
		return p.ifStatement()
	case tok.Type == ELIF || tok.Type == ELSE:
		return nil, syntaxErrorf(tok, "%s without matching 'if'", tok.Type)
	case tok.Type == INDENT:
		return nil, syntaxErrorf(tok, "unexpected indent")
	case tok.Type == IDENT && p.peekNext().Type == ASSIGN:
		p.advance()
		p.advance()
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(NEWLINE, "end of line after assignment"); err != nil {
			return nil, err
		}
		return &AssignStmt{Name: tok.Lexeme, Value: value, Line: tok.Line}, nil
	}
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(NEWLINE, "end of line after expression"); err != nil {
		return nil, err
	}
	return &ExprStmt{Expr: expr, Line: tok.Line}, nil
}

func (p *parser) ifStatement() (Stmt, error) {
	stmt := &IfStmt{Line: p.advance().Line}
	branch, err := p.conditionalBranch()
	if err != nil {
		return nil, err
	}
	stmt.Branches = append(stmt.Branches, branch)
	for p.match(ELIF) {
		branch, err := p.conditionalBranch()
		if err != nil {
			return nil, err
		}
		stmt.Branches = append(stmt.Branches, branch)
	}
	if p.match(ELSE) {
		body, err := p.blockAfterColon()
		if err != nil {
			return nil, err
		}
		stmt.Else = body
	}
	return stmt, nil
}

func (p *parser) conditionalBranch() (CondBranch, error) {
	cond, err := p.expression()
	if err != nil {
		return CondBranch{}, err
	}
	body, err := p.blockAfterColon()
	if err != nil {
		return CondBranch{}, err
	}
	return CondBranch{Cond: cond, Body: body}, nil
}

func (p *parser) blockAfterColon() ([]Stmt, error) {
	if _, err := p.expect(COLON, "':'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(NEWLINE, "newline after ':'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(INDENT, "indented block"); err != nil {
		return nil, err
	}
	var body []Stmt
	for !p.match(DEDENT) {
		if p.check(EOF) {
			return nil, syntaxErrorf(p.peek(), "expected end of block")
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	return body, nil
}

func (p *parser) expression() (Expr, error) {
	return p.equality()
}

// binary parses a left-associative chain of the given operators.
func (p *parser) binary(next func() (Expr, error), ops ...TokenType) (Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if !p.match(ops...) {
			return left, nil
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right, Line: op.Line}
	}
}

func (p *parser) equality() (Expr, error) {
	return p.binary(p.comparison, EQ, NEQ)
}

func (p *parser) comparison() (Expr, error) {
	return p.binary(p.additive, LT, LTE, GT, GTE)
}

func (p *parser) additive() (Expr, error) {
	return p.binary(p.multiplicative, PLUS, MINUS)
}

func (p *parser) multiplicative() (Expr, error) {
	return p.binary(p.unary, STAR, SLASH)
}

func (p *parser) unary() (Expr, error) {
	op := p.peek()
	if p.match(BANG, MINUS) {
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op.Type, Operand: operand, Line: op.Line}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case NUMBER:
		p.advance()
		d, err := decimal.NewFromString(tok.Lexeme)
		if err != nil {
			return nil, syntaxErrorf(tok, "invalid number")
		}
		return &NumberLit{Value: d, Line: tok.Line}, nil
	case STRING:
		p.advance()
		return &StringLit{Value: tok.Lexeme, Line: tok.Line}, nil
	case TRUE, FALSE:
		p.advance()
		return &BoolLit{Value: tok.Type == TRUE, Line: tok.Line}, nil
	case IDENT:
		p.advance()
		if p.check(LPAREN) {
			return p.call(tok)
		}
		return &Ident{Name: tok.Lexeme, Line: tok.Line}, nil
	case LPAREN:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, syntaxErrorf(tok, "expected expression")
}

func (p *parser) call(name Token) (Expr, error) {
	p.advance() // (
	call := &CallExpr{Name: name.Lexeme, Line: name.Line}
	if !p.match(RPAREN) {
		for {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.match(RPAREN) {
				break
			}
			if _, err := p.expect(COMMA, "',' or ')'"); err != nil {
				return nil, err
			}
		}
	}
	p.functions[call.Name] = struct{}{}
	return call, nil
}
