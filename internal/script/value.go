package script

import (
	"strconv"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindVoid Kind = iota
	KindNumber
	KindBool
	KindString
	KindHandle
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindHandle:
		return "handle"
	default:
		return "void"
	}
}

// Handle is a live object owned by the host, such as an indicator, that
// scripts can bind to variables. Scalar reports its value on the current bar.
type Handle interface {
	Scalar() Value
}

// Value is the result of evaluating an expression.
type Value struct {
	kind   Kind
	num    decimal.Decimal
	flag   bool
	str    string
	handle Handle
}

func VoidValue() Value {
	return Value{}
}

func NumberValue(d decimal.Decimal) Value {
	return Value{kind: KindNumber, num: d}
}

func IntValue(n int64) Value {
	return NumberValue(decimal.NewFromInt(n))
}

func BoolValue(b bool) Value {
	return Value{kind: KindBool, flag: b}
}

func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

func HandleValue(h Handle) Value {
	return Value{kind: KindHandle, handle: h}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) Number() (decimal.Decimal, bool) {
	return v.num, v.kind == KindNumber
}

func (v Value) Bool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) Handle() (Handle, bool) {
	return v.handle, v.kind == KindHandle
}

// Unwrap replaces a handle with its current scalar value.
func (v Value) Unwrap() Value {
	if v.kind == KindHandle {
		return v.handle.Scalar()
	}
	return v
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return v.num.String()
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindString:
		return strconv.Quote(v.str)
	case KindHandle:
		return "handle(" + v.handle.Scalar().String() + ")"
	default:
		return "void"
	}
}
