package montecarlo

import (
	"math"
	"sort"
)

// Summary describes the distribution of one metric across permutations.
// Non-finite samples are left out; with no samples every field is NaN.
type Summary struct {
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	P5      float64 `json:"p5"`
	P25     float64 `json:"p25"`
	P75     float64 `json:"p75"`
	P95     float64 `json:"p95"`
	Samples int     `json:"samples"`
}

func Summarize(values []float64) Summary {
	sorted := finiteSorted(values)
	if len(sorted) == 0 {
		nan := math.NaN()
		return Summary{Mean: nan, Median: nan, P5: nan, P25: nan, P75: nan, P95: nan}
	}
	return Summary{
		Mean:    mean(sorted),
		Median:  percentile(sorted, 50),
		P5:      percentile(sorted, 5),
		P25:     percentile(sorted, 25),
		P75:     percentile(sorted, 75),
		P95:     percentile(sorted, 95),
		Samples: len(sorted),
	}
}

// Bands are cross-sectional statistics of the equity curves, one value per
// evaluated bar.
type Bands struct {
	Mean []float64 `json:"mean"`
	P5   []float64 `json:"p5"`
	P25  []float64 `json:"p25"`
	P50  []float64 `json:"p50"`
	P75  []float64 `json:"p75"`
	P95  []float64 `json:"p95"`
}

// equityBands expects every curve to have the same length.
func equityBands(curves [][]float64) Bands {
	if len(curves) == 0 {
		return Bands{}
	}
	n := len(curves[0])
	b := Bands{
		Mean: make([]float64, n),
		P5:   make([]float64, n),
		P25:  make([]float64, n),
		P50:  make([]float64, n),
		P75:  make([]float64, n),
		P95:  make([]float64, n),
	}
	column := make([]float64, len(curves))
	for i := 0; i < n; i++ {
		for k, c := range curves {
			column[k] = c[i]
		}
		sort.Float64s(column)
		b.Mean[i] = mean(column)
		b.P5[i] = percentile(column, 5)
		b.P25[i] = percentile(column, 25)
		b.P50[i] = percentile(column, 50)
		b.P75[i] = percentile(column, 75)
		b.P95[i] = percentile(column, 95)
	}
	return b
}

// probabilityOfLoss is the fraction of values below zero.
func probabilityOfLoss(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	losses := 0
	for _, v := range values {
		if v < 0 {
			losses++
		}
	}
	return float64(losses) / float64(len(values))
}

// expectedShortfall averages the worst ceil(tail*n) values, at least one.
func expectedShortfall(values []float64, tail float64) float64 {
	sorted := finiteSorted(values)
	if len(sorted) == 0 {
		return math.NaN()
	}
	k := max(int(math.Ceil(tail*float64(len(sorted)))), 1)
	return mean(sorted[:k])
}

// percentile linearly interpolates between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	index := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func finiteSorted(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
