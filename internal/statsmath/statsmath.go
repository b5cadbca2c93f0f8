// Package statsmath holds the numeric primitives shared by the archetype,
// synergy, and fusion stages: empirical-Bayes shrinkage, min-max
// normalization, and sample-weighted averaging.
package statsmath

// Shrink blends an observed statistic with a prior mean, weighted by sample
// size against a fixed prior strength. With n = 0 the result is the prior;
// as n grows the raw signal dominates.
func Shrink(raw, n, priorMean, priorStrength float64) float64 {
	denom := n + priorStrength
	if denom == 0 {
		return priorMean
	}
	return (raw*n + priorMean*priorStrength) / denom
}

// MinMaxNormalize scales values to [lo, hi]. A zero-variance population maps
// every element to the midpoint rather than dividing by zero.
func MinMaxNormalize(values []float64, lo, hi float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(values))
	if max == min {
		mid := (lo + hi) / 2
		for i := range out {
			out[i] = mid
		}
		return out
	}
	scale := (hi - lo) / (max - min)
	for i, v := range values {
		out[i] = lo + (v-min)*scale
	}
	return out
}

// ScaleToRange maps a single value from [min, max] to [lo, hi], returning the
// midpoint when the source range is degenerate.
func ScaleToRange(value, min, max, lo, hi float64) float64 {
	if max == min {
		return (lo + hi) / 2
	}
	return lo + (value-min)*(hi-lo)/(max-min)
}

// WeightedMean returns the weighted average of values. A zero or negative
// total weight yields 0 (no signal).
func WeightedMean(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}
	var sum, wsum float64
	for i, v := range values {
		sum += v * weights[i]
		wsum += weights[i]
	}
	if wsum <= 0 {
		return 0
	}
	return sum / wsum
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
