package fusion

import "math"

// neumaierSum adds values with Neumaier's compensated summation so fusion
// results do not depend on accumulation order.
func neumaierSum(values []float64) float64 {
	var sum, comp float64
	for _, v := range values {
		t := sum + v
		if math.Abs(sum) >= math.Abs(v) {
			comp += (sum - t) + v
		} else {
			comp += (v - t) + sum
		}
		sum = t
	}
	return sum + comp
}

// weightedMean returns the weighted mean and the weight total. A non-positive
// weight total yields (0, 0).
func weightedMean(values, weights []float64) (mean, totalWeight float64) {
	products := make([]float64, len(values))
	for i := range values {
		products[i] = values[i] * weights[i]
	}
	totalWeight = neumaierSum(weights)
	if totalWeight <= 0 {
		return 0, 0
	}
	return neumaierSum(products) / totalWeight, totalWeight
}

// weightedStd returns the weighted standard deviation around mean. A single
// sample has zero spread.
func weightedStd(values, weights []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	terms := make([]float64, len(values))
	for i := range values {
		d := values[i] - mean
		terms[i] = weights[i] * d * d
	}
	totalWeight := neumaierSum(weights)
	if totalWeight <= 0 {
		return 0
	}
	variance := neumaierSum(terms) / totalWeight
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
