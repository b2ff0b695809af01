package accumulator

import (
	"fmt"

	"strategylab/types"
)

type Kind int

const (
	KindSMA Kind = iota + 1
	KindField
	KindCrossover
)

// Key identifies an accumulator by structure, so equal requests made on
// different bars resolve to the same cached instance.
type Key struct {
	kind     Kind
	field    types.Field
	param    int
	operands string
}

func SMAKey(days int) Key {
	return Key{kind: KindSMA, param: days}
}

func FieldKey(f types.Field, lookback int) Key {
	return Key{kind: KindField, field: f, param: lookback}
}

// CrossoverKey is ordered: CrossoverKey(a, b) != CrossoverKey(b, a).
func CrossoverKey(a, b Key) Key {
	return Key{kind: KindCrossover, operands: a.String() + "," + b.String()}
}

func (k Key) Kind() Kind {
	return k.kind
}

func (k Key) String() string {
	switch k.kind {
	case KindSMA:
		return fmt.Sprintf("sma(%d)", k.param)
	case KindField:
		return fmt.Sprintf("%s(%d)", k.field, k.param)
	case KindCrossover:
		return "crossover(" + k.operands + ")"
	default:
		return "invalid"
	}
}
