package script

import (
	"errors"
	"reflect"
	"testing"
)

const crossoverScript = `
fast = sma(20)
slow = sma(50)
if crossover(fast, slow):
    createOrder("long", true, 100)
elif crossover(slow, fast):
    createOrder("short", false, 100)
else:
    x = 1
`

func TestParse_Structure(t *testing.T) {
	prog, err := Parse(crossoverScript)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(prog.Statements) != 3 {
		t.Fatalf("len(Statements) = %d, want 3", len(prog.Statements))
	}
	assign, ok := prog.Statements[0].(*AssignStmt)
	if !ok || assign.Name != "fast" {
		t.Fatalf("statement 0 = %#v", prog.Statements[0])
	}
	ifStmt, ok := prog.Statements[2].(*IfStmt)
	if !ok {
		t.Fatalf("statement 2 = %T, want *IfStmt", prog.Statements[2])
	}
	if len(ifStmt.Branches) != 2 {
		t.Errorf("branches = %d, want 2", len(ifStmt.Branches))
	}
	if len(ifStmt.Else) != 1 {
		t.Errorf("else statements = %d, want 1", len(ifStmt.Else))
	}
	want := []string{"createOrder", "crossover", "sma"}
	if got := prog.FunctionNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("FunctionNames() = %v, want %v", got, want)
	}
	if prog.References("close") {
		t.Error("References(close) = true for a script that never calls close")
	}
}

func TestParse_Precedence(t *testing.T) {
	prog, err := Parse("x = 1 + 2 * 3 > 4 == true\n")
	if err != nil {
		t.Fatal(err)
	}
	eq := prog.Statements[0].(*AssignStmt).Value.(*BinaryExpr)
	if eq.Op != EQ {
		t.Fatalf("root op = %s, want ==", eq.Op)
	}
	gt := eq.Left.(*BinaryExpr)
	if gt.Op != GT {
		t.Fatalf("left of == = %s, want >", gt.Op)
	}
	plus := gt.Left.(*BinaryExpr)
	if plus.Op != PLUS {
		t.Fatalf("left of > = %s, want +", plus.Op)
	}
	if mul := plus.Right.(*BinaryExpr); mul.Op != STAR {
		t.Fatalf("right of + = %s, want *", mul.Op)
	}
}

func TestParse_UnaryAndGrouping(t *testing.T) {
	prog, err := Parse("x = -(1 - 2)\ny = !!true\n")
	if err != nil {
		t.Fatal(err)
	}
	neg := prog.Statements[0].(*AssignStmt).Value.(*UnaryExpr)
	if neg.Op != MINUS {
		t.Errorf("op = %s, want -", neg.Op)
	}
	if _, ok := neg.Operand.(*BinaryExpr); !ok {
		t.Errorf("operand = %T, want grouped *BinaryExpr", neg.Operand)
	}
	not := prog.Statements[1].(*AssignStmt).Value.(*UnaryExpr)
	if _, ok := not.Operand.(*UnaryExpr); !ok {
		t.Errorf("operand = %T, want nested *UnaryExpr", not.Operand)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want TokenType
	}{
		{"missing colon", "if true\n    x()\n", NEWLINE},
		{"missing block", "if true:\nx()\n", IDENT},
		{"else without if", "else:\n    x()\n", ELSE},
		{"unexpected indent", "x = 1\n    y = 2\n", INDENT},
		{"dangling operator", "x = 1 +\n", NEWLINE},
		{"two expressions", "x = 1 2\n", NUMBER},
		{"bad argument list", "f(1 2)\n", NUMBER},
		{"assign to call", "f() = 2\n", ASSIGN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Parse(tt.src)
			if prog != nil {
				t.Errorf("Parse() returned a partial program")
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("Parse() error = %v, want *SyntaxError", err)
			}
			if se.Token.Type != tt.want {
				t.Errorf("offending token = %s, want %s", se.Token.Type, tt.want)
			}
			if se.Message == "" {
				t.Error("empty expectation message")
			}
		})
	}
}
