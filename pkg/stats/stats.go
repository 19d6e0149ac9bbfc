// Package stats provides the correlation statistics used by the discovery
// engine: Pearson, Spearman and Kendall coefficients, significance estimates
// based on Fisher's z-transformation, and small helpers for series math.
// It has no dependencies and operates on plain float64 slices.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
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

// StdDev returns the sample standard deviation (n-1 denominator), or 0 when
// fewer than two values are given.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	sumSquares := 0.0
	for _, v := range values {
		diff := v - m
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}

// Pearson returns the product-moment correlation coefficient of x and y.
// Mismatched lengths, fewer than two points, or a zero-variance input all
// yield 0.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}

	meanX := Mean(x)
	meanY := Mean(y)

	numerator := 0.0
	sumXX := 0.0
	sumYY := 0.0

	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		numerator += dx * dy
		sumXX += dx * dx
		sumYY += dy * dy
	}

	denominator := math.Sqrt(sumXX * sumYY)
	if denominator == 0 {
		return 0
	}

	return numerator / denominator
}

// Ranks returns the 1-based ranks of the values, with tied values assigned
// the average of the ranks they span.
func Ranks(values []float64) []float64 {
	n := len(values)
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	sort.SliceStable(indexes, func(a, b int) bool {
		return values[indexes[a]] < values[indexes[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[indexes[j+1]] == values[indexes[i]] {
			j++
		}
		// Ranks i+1 .. j+1 average out for the tie group.
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			ranks[indexes[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// Spearman returns the rank correlation coefficient: Pearson applied to the
// tie-averaged ranks of both inputs.
func Spearman(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	return Pearson(Ranks(x), Ranks(y))
}

// KendallTau returns Kendall's tau-b, the concordance coefficient with tie
// correction. The pairwise scan is quadratic, which is fine at the sample
// sizes the engine works with.
func KendallTau(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}

	n := len(x)
	var concordant, discordant float64
	var tiesX, tiesY float64

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := x[i] - x[j]
			dy := y[i] - y[j]
			switch {
			case dx == 0 && dy == 0:
				tiesX++
				tiesY++
			case dx == 0:
				tiesX++
			case dy == 0:
				tiesY++
			case dx*dy > 0:
				concordant++
			default:
				discordant++
			}
		}
	}

	n0 := float64(n*(n-1)) / 2
	denominator := math.Sqrt((n0 - tiesX) * (n0 - tiesY))
	if denominator == 0 {
		return 0
	}
	return (concordant - discordant) / denominator
}

// PValue estimates the two-tailed significance of a Pearson or Spearman
// coefficient via Fisher's z-transformation with a normal approximation.
// Small values are clamped at 1e-10.
func PValue(r float64, n int) float64 {
	absR := math.Abs(r)
	if absR >= 1.0 {
		return 1e-10
	}
	if absR == 0 || n < 4 {
		return 1.0
	}

	z := 0.5 * math.Log((1+absR)/(1-absR))
	se := 1.0 / math.Sqrt(float64(n-3))
	testStat := math.Abs(z / se)

	pValue := 2 * (1 - 0.5*(1+math.Erf(testStat/math.Sqrt2)))

	if pValue < 1e-10 {
		pValue = 1e-10
	}
	return pValue
}

// KendallPValue estimates the two-tailed significance of a tau coefficient
// using the normal approximation of tau's null distribution.
func KendallPValue(tau float64, n int) float64 {
	if n < 3 {
		return 1.0
	}
	absTau := math.Abs(tau)
	if absTau >= 1.0 {
		return 1e-10
	}

	// Var(tau) under the null is 2(2n+5) / (9n(n-1)).
	variance := float64(2*(2*n+5)) / float64(9*n*(n-1))
	testStat := absTau / math.Sqrt(variance)

	pValue := 2 * (1 - 0.5*(1+math.Erf(testStat/math.Sqrt2)))

	if pValue < 1e-10 {
		pValue = 1e-10
	}
	return pValue
}

// LinearRegression returns the least-squares slope and intercept of y on x.
// A zero-variance x yields a flat line at the mean of y.
func LinearRegression(x, y []float64) (slope, intercept float64) {
	if len(x) != len(y) || len(x) == 0 {
		return 0, 0
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var covXY, varX float64
	for i := range x {
		dx := x[i] - meanX
		covXY += dx * (y[i] - meanY)
		varX += dx * dx
	}

	if varX == 0 {
		return 0, meanY
	}
	slope = covXY / varX
	return slope, meanY - slope*meanX
}
