package montecarlo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/shopspring/decimal"

	"strategylab/internal/series"
	"strategylab/types"
)

var ErrNonPositivePrice = errors.New("close prices must be positive")

// PathGenerator builds synthetic price paths from a base series with a
// Brownian bridge on log closes. Bars up to and including the anchor (the
// bar before start) are copied unchanged; every later close is simulated and
// the last one lands exactly on the base series' final close.
type PathGenerator struct {
	base      *series.Series
	anchor    int
	sigma     float64
	logCloses []float64
}

func NewPathGenerator(base *series.Series, start int) (*PathGenerator, error) {
	if start < 0 || start >= base.Len() {
		return nil, fmt.Errorf("start index %d outside series of %d bars", start, base.Len())
	}
	logCloses := make([]float64, base.Len())
	for i := range logCloses {
		c := base.At(i).Close
		if !c.IsPositive() {
			return nil, fmt.Errorf("bar %d close %s: %w", i, c, ErrNonPositivePrice)
		}
		logCloses[i] = math.Log(c.InexactFloat64())
	}
	return &PathGenerator{
		base:      base,
		anchor:    max(start-1, 0),
		sigma:     logReturnStdDev(logCloses),
		logCloses: logCloses,
	}, nil
}

// Sigma is the sample standard deviation of the base daily log returns.
func (g *PathGenerator) Sigma() float64 {
	return g.sigma
}

// Generate returns the path for seed. The same seed always yields the same
// path.
func (g *PathGenerator) Generate(seed int64) (*series.Series, error) {
	bars := g.base.Bars()
	n := len(bars)
	steps := n - 1 - g.anchor
	if steps <= 0 {
		return series.New(g.base.Symbol(), bars)
	}

	rng := rand.New(rand.NewSource(seed))
	increments := make([]float64, steps)
	var sum float64
	for j := range increments {
		increments[j] = g.sigma * rng.NormFloat64()
		sum += increments[j]
	}
	drift := (g.logCloses[n-1] - g.logCloses[g.anchor] - sum) / float64(steps)

	level := g.logCloses[g.anchor]
	for j, inc := range increments {
		i := g.anchor + 1 + j
		level += inc + drift
		px := decimal.NewFromFloat(math.Exp(level))
		if i == n-1 {
			px = bars[i].Close
		}
		bars[i] = rescale(bars[i], px)
	}
	return series.New(g.base.Symbol(), bars)
}

// rescale moves a bar to a new close keeping open, high and low at the same
// ratio to close.
func rescale(b types.Bar, px decimal.Decimal) types.Bar {
	ratio := func(p decimal.Decimal) decimal.Decimal {
		return px.Mul(p).Div(b.Close)
	}
	return types.NewBar(b.Index, b.Date, ratio(b.Open), ratio(b.High), ratio(b.Low), px, b.Volume)
}

func logReturnStdDev(logCloses []float64) float64 {
	if len(logCloses) < 3 {
		return 0
	}
	returns := make([]float64, len(logCloses)-1)
	var sum float64
	for i := 1; i < len(logCloses); i++ {
		returns[i-1] = logCloses[i] - logCloses[i-1]
		sum += returns[i-1]
	}
	m := sum / float64(len(returns))
	var varianceSum float64
	for _, r := range returns {
		varianceSum += (r - m) * (r - m)
	}
	return math.Sqrt(varianceSum / float64(len(returns)-1))
}
