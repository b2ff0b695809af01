package accumulator

import (
	"errors"

	"github.com/shopspring/decimal"

	"strategylab/types"
)

var (
	ErrInvalidWindow    = errors.New("window length must be positive")
	ErrNegativeLookback = errors.New("lookback must not be negative")
)

// Accumulator is a stateful computation advanced one bar at a time.
type Accumulator interface {
	Key() Key
	// Roll advances the state to include bar, which must follow the last bar seen.
	Roll(bar types.Bar) error
	Clone() Accumulator
}

// NumberSource is an accumulator with a numeric output.
type NumberSource interface {
	Accumulator
	Number() decimal.Decimal
}

// BoolSource is an accumulator with a boolean output.
type BoolSource interface {
	Accumulator
	Bool() bool
}
