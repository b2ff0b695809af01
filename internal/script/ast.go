package script

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Stmt is one of *AssignStmt, *ExprStmt or *IfStmt.
type Stmt interface {
	stmtNode()
}

// Expr is one of *NumberLit, *StringLit, *BoolLit, *Ident, *UnaryExpr,
// *BinaryExpr or *CallExpr.
type Expr interface {
	exprNode()
}

type AssignStmt struct {
	Name  string
	Value Expr
	Line  int
}

type ExprStmt struct {
	Expr Expr
	Line int
}

type CondBranch struct {
	Cond Expr
	Body []Stmt
}

// IfStmt holds the if branch followed by any elif branches. Else is nil
// when the statement has no else clause.
type IfStmt struct {
	Branches []CondBranch
	Else     []Stmt
	Line     int
}

type NumberLit struct {
	Value decimal.Decimal
	Line  int
}

type StringLit struct {
	Value string
	Line  int
}

type BoolLit struct {
	Value bool
	Line  int
}

type Ident struct {
	Name string
	Line int
}

type UnaryExpr struct {
	Op      TokenType
	Operand Expr
	Line    int
}

type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
	Line  int
}

type CallExpr struct {
	Name string
	Args []Expr
	Line int
}

func (*AssignStmt) stmtNode() {}
func (*ExprStmt) stmtNode()   {}
func (*IfStmt) stmtNode()     {}

func (*NumberLit) exprNode()  {}
func (*StringLit) exprNode()  {}
func (*BoolLit) exprNode()    {}
func (*Ident) exprNode()      {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*CallExpr) exprNode()   {}

// Program is a parsed script. It is not modified after Parse returns and can be
// shared by concurrent runs.
type Program struct {
	Statements []Stmt
	functions  map[string]struct{}
}

// References reports whether the script calls the named function anywhere.
func (p *Program) References(name string) bool {
	_, ok := p.functions[name]
	return ok
}

// FunctionNames lists the referenced functions in sorted order.
func (p *Program) FunctionNames() []string {
	names := make([]string, 0, len(p.functions))
	for n := range p.functions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
