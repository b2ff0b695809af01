package accumulator

import (
	"strategylab/types"
)

// Crossover fires on the bar where the sign of a-b changes from non-zero to
// strictly positive. A move from equal to above does not fire, and the
// detector never fires on the bar it is created.
type Crossover struct {
	a, b  NumberSource
	last  int
	fired bool
}

// NewCrossover wraps two accumulators that already live in the cache.
func NewCrossover(a, b NumberSource) *Crossover {
	return &Crossover{a: a, b: b, last: diffSign(a, b)}
}

func (c *Crossover) Key() Key {
	return CrossoverKey(c.a.Key(), c.b.Key())
}

// Roll must run after both operands were rolled for the same bar.
func (c *Crossover) Roll(types.Bar) error {
	s := diffSign(c.a, c.b)
	c.fired = c.last != 0 && s > 0 && s != c.last
	c.last = s
	return nil
}

func (c *Crossover) Bool() bool {
	return c.fired
}

// Clone copies the detector state and shares the operands, which stay owned
// by the cache that rolls them.
func (c *Crossover) Clone() Accumulator {
	return &Crossover{
		a:     c.a,
		b:     c.b,
		last:  c.last,
		fired: c.fired,
	}
}

func diffSign(a, b NumberSource) int {
	return a.Number().Sub(b.Number()).Sign()
}
