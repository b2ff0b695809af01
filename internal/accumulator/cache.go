package accumulator

import (
	"fmt"

	"strategylab/types"
)

// Cache maps keys to live accumulators for one run. Accumulators roll in
// insertion order, which places composites after their operands.
type Cache struct {
	entries map[Key]Accumulator
	order   []Accumulator
}

func NewCache() *Cache {
	return &Cache{entries: make(map[Key]Accumulator)}
}

// GetOrCreate returns the accumulator for key, calling create on a miss.
func (c *Cache) GetOrCreate(key Key, create func() (Accumulator, error)) (Accumulator, error) {
	if acc, ok := c.entries[key]; ok {
		return acc, nil
	}
	acc, err := create()
	if err != nil {
		return nil, err
	}
	c.entries[key] = acc
	c.order = append(c.order, acc)
	return acc, nil
}

func (c *Cache) Get(key Key) (Accumulator, bool) {
	acc, ok := c.entries[key]
	return acc, ok
}

func (c *Cache) Len() int {
	return len(c.order)
}

// Roll advances every live accumulator by exactly one bar.
func (c *Cache) Roll(bar types.Bar) error {
	for _, acc := range c.order {
		if err := acc.Roll(bar); err != nil {
			return fmt.Errorf("roll %s: %w", acc.Key(), err)
		}
	}
	return nil
}
