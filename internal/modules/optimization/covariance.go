package optimization

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/advisor/pkg/formulas"
)

// alignedPair returns the returns of a and b on the days both have an observation
func alignedPair(a, b ReturnSeries) ([]float64, []float64) {
	var xs, ys []float64
	i, j := 0, 0
	for i < len(a.Days) && j < len(b.Days) {
		switch {
		case a.Days[i] == b.Days[j]:
			xs = append(xs, a.Returns[i])
			ys = append(ys, b.Returns[j])
			i++
			j++
		case a.Days[i] < b.Days[j]:
			i++
		default:
			j++
		}
	}
	return xs, ys
}

// CovarianceMatrix builds the annualised covariance matrix. Each variance uses the
// asset's own history; each covariance uses the date-aligned overlap of the pair.
// Entries without enough observations are zero.
func CovarianceMatrix(series []ReturnSeries, minHistory, minOverlap int) *mat.SymDense {
	n := len(series)
	sigma := mat.NewSymDense(n, nil)

	for i := 0; i < n; i++ {
		if series[i].Len() >= minHistory {
			sigma.SetSym(i, i, stat.Variance(series[i].Returns, nil)*formulas.TradingDaysPerYear)
		}
		for j := i + 1; j < n; j++ {
			xs, ys := alignedPair(series[i], series[j])
			if len(xs) < minOverlap || len(xs) < 2 {
				continue
			}
			sigma.SetSym(i, j, stat.Covariance(xs, ys, nil)*formulas.TradingDaysPerYear)
		}
	}

	return sigma
}
