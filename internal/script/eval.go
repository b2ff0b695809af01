package script

import (
	"fmt"
)

// Function implements a built-in. It returns VoidValue for pure side effects.
type Function func(args []Value) (Value, error)

type Registry map[string]Function

// Evaluator executes a program once per bar. Variable bindings survive between
// executions so re-running the same text is idempotent.
type Evaluator struct {
	program *Program
	funcs   Registry
	vars    map[string]Value
}

func NewEvaluator(program *Program, funcs Registry) *Evaluator {
	return &Evaluator{
		program: program,
		funcs:   funcs,
		vars:    make(map[string]Value),
	}
}

// Run executes every statement. The first error aborts the execution.
func (e *Evaluator) Run() error {
	return e.execBlock(e.program.Statements)
}

// Lookup returns the last value bound to name.
func (e *Evaluator) Lookup(name string) (Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

func (e *Evaluator) execBlock(stmts []Stmt) error {
	for _, stmt := range stmts {
		if err := e.exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) exec(stmt Stmt) error {
	switch s := stmt.(type) {
	case *AssignStmt:
		v, err := e.eval(s.Value)
		if err != nil {
			return err
		}
		if v.Kind() == KindVoid {
			return fmt.Errorf("line %d: assigning to %s: %w", s.Line, s.Name, ErrVoidValue)
		}
		e.vars[s.Name] = v
		return nil
	case *ExprStmt:
		_, err := e.eval(s.Expr)
		return err
	case *IfStmt:
		for _, b := range s.Branches {
			cond, err := e.eval(b.Cond)
			if err != nil {
				return err
			}
			ok, err := truthy(cond)
			if err != nil {
				return fmt.Errorf("line %d: condition: %w", s.Line, err)
			}
			if ok {
				return e.execBlock(b.Body)
			}
		}
		return e.execBlock(s.Else)
	default:
		return fmt.Errorf("statement %T: %w", stmt, ErrUnknownNode)
	}
}

func (e *Evaluator) eval(expr Expr) (Value, error) {
	switch x := expr.(type) {
	case *NumberLit:
		return NumberValue(x.Value), nil
	case *StringLit:
		return StringValue(x.Value), nil
	case *BoolLit:
		return BoolValue(x.Value), nil
	case *Ident:
		v, ok := e.vars[x.Name]
		if !ok {
			return Value{}, fmt.Errorf("line %d: %s: %w", x.Line, x.Name, ErrUnresolvedIdentifier)
		}
		return v, nil
	case *UnaryExpr:
		return e.evalUnary(x)
	case *BinaryExpr:
		return e.evalBinary(x)
	case *CallExpr:
		return e.evalCall(x)
	default:
		return Value{}, fmt.Errorf("expression %T: %w", expr, ErrUnknownNode)
	}
}

func (e *Evaluator) evalUnary(x *UnaryExpr) (Value, error) {
	v, err := e.operand(x.Operand, x.Line)
	if err != nil {
		return Value{}, err
	}
	switch x.Op {
	case BANG:
		b, ok := v.Bool()
		if !ok {
			return Value{}, fmt.Errorf("line %d: '!' on %s: %w", x.Line, v.Kind(), ErrTypeMismatch)
		}
		return BoolValue(!b), nil
	case MINUS:
		n, ok := v.Number()
		if !ok {
			return Value{}, fmt.Errorf("line %d: '-' on %s: %w", x.Line, v.Kind(), ErrTypeMismatch)
		}
		return NumberValue(n.Neg()), nil
	}
	return Value{}, fmt.Errorf("line %d: unary %s: %w", x.Line, x.Op, ErrUnknownNode)
}

func (e *Evaluator) evalBinary(x *BinaryExpr) (Value, error) {
	l, err := e.operand(x.Left, x.Line)
	if err != nil {
		return Value{}, err
	}
	r, err := e.operand(x.Right, x.Line)
	if err != nil {
		return Value{}, err
	}
	if x.Op == EQ || x.Op == NEQ {
		eq, err := equal(l, r)
		if err != nil {
			return Value{}, fmt.Errorf("line %d: %s: %w", x.Line, x.Op, err)
		}
		return BoolValue(eq == (x.Op == EQ)), nil
	}

	a, aok := l.Number()
	b, bok := r.Number()
	if !aok || !bok {
		return Value{}, fmt.Errorf("line %d: %s %s %s: %w", x.Line, l.Kind(), x.Op, r.Kind(), ErrTypeMismatch)
	}
	switch x.Op {
	case LT:
		return BoolValue(a.LessThan(b)), nil
	case LTE:
		return BoolValue(a.LessThanOrEqual(b)), nil
	case GT:
		return BoolValue(a.GreaterThan(b)), nil
	case GTE:
		return BoolValue(a.GreaterThanOrEqual(b)), nil
	case PLUS:
		return NumberValue(a.Add(b)), nil
	case MINUS:
		return NumberValue(a.Sub(b)), nil
	case STAR:
		return NumberValue(a.Mul(b)), nil
	case SLASH:
		if b.IsZero() {
			return Value{}, fmt.Errorf("line %d: %w", x.Line, ErrDivisionByZero)
		}
		return NumberValue(a.Div(b)), nil
	}
	return Value{}, fmt.Errorf("line %d: binary %s: %w", x.Line, x.Op, ErrUnknownNode)
}

// operand evaluates an operator argument down to a scalar.
func (e *Evaluator) operand(expr Expr, line int) (Value, error) {
	v, err := e.eval(expr)
	if err != nil {
		return Value{}, err
	}
	v = v.Unwrap()
	if v.Kind() == KindVoid {
		return Value{}, fmt.Errorf("line %d: %w", line, ErrVoidValue)
	}
	return v, nil
}

func (e *Evaluator) evalCall(x *CallExpr) (Value, error) {
	fn, ok := e.funcs[x.Name]
	if !ok {
		return Value{}, fmt.Errorf("line %d: %s: %w", x.Line, x.Name, ErrUnknownFunction)
	}
	args := make([]Value, len(x.Args))
	for i, a := range x.Args {
		v, err := e.eval(a)
		if err != nil {
			return Value{}, err
		}
		if v.Kind() == KindVoid {
			return Value{}, fmt.Errorf("line %d: argument %d of %s: %w", x.Line, i+1, x.Name, ErrVoidValue)
		}
		args[i] = v
	}
	v, err := fn(args)
	if err != nil {
		return Value{}, fmt.Errorf("line %d: %s: %w", x.Line, x.Name, err)
	}
	return v, nil
}

func equal(l, r Value) (bool, error) {
	if l.Kind() != r.Kind() {
		return false, fmt.Errorf("%s vs %s: %w", l.Kind(), r.Kind(), ErrTypeMismatch)
	}
	switch l.Kind() {
	case KindNumber:
		return l.num.Equal(r.num), nil
	case KindBool:
		return l.flag == r.flag, nil
	case KindString:
		return l.str == r.str, nil
	}
	return false, fmt.Errorf("%s: %w", l.Kind(), ErrTypeMismatch)
}

// truthy treats false, zero and the empty string as false.
func truthy(v Value) (bool, error) {
	v = v.Unwrap()
	switch v.Kind() {
	case KindBool:
		return v.flag, nil
	case KindNumber:
		return !v.num.IsZero(), nil
	case KindString:
		return v.str != "", nil
	}
	return false, ErrVoidValue
}
