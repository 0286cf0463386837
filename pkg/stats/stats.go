package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Stats keeps the most recent size samples for summary statistics. Until the
// history is full only the samples seen so far are used.
type Stats struct {
	size   int
	count  int
	values []float64
	x      []float64
	sorted []float64
}

func NewStats(size int) *Stats {
	if size < 2 {
		size = 2
	}
	x := make([]float64, size)
	for i := range x {
		x[i] = float64(i + 1)
	}
	return &Stats{
		size:   size,
		values: make([]float64, size),
		x:      x,
		sorted: make([]float64, size),
	}
}

func (p *Stats) getValues() []float64 {
	return p.values[p.size-p.count:]
}

func (p *Stats) Add(value float64) {
	copy(p.values, p.values[1:])
	p.values[p.size-1] = value
	if p.count < p.size {
		p.count++
	}
}

func (p *Stats) Len() int {
	return p.count
}

func (p *Stats) Mean() float64 {
	if p.count == 0 {
		return math.NaN()
	}
	return stat.Mean(p.getValues(), nil)
}

func (p *Stats) StdDev() float64 {
	if p.count < 2 {
		return 0
	}
	return stat.StdDev(p.getValues(), nil)
}

// Slope returns the least squares trend in units per sample.
func (p *Stats) Slope() float64 {
	if p.count < 2 {
		return 0
	}
	_, m := stat.LinearRegression(p.x[:p.count], p.getValues(), nil, false)
	return m
}

// QuantileSpread returns the distance between the pct and 1-pct quantiles.
func (p *Stats) QuantileSpread(pct float64) float64 {
	if p.count == 0 {
		return 0
	}
	s := p.sorted[:p.count]
	copy(s, p.getValues())
	sort.Float64s(s)
	lo, hi := pct, 1-pct
	if lo > hi {
		lo, hi = hi, lo
	}
	return stat.Quantile(hi, stat.Empirical, s, nil) - stat.Quantile(lo, stat.Empirical, s, nil)
}
