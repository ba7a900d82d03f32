package scorers

import (
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

// Blender combines the four sub-scores into the final score and a confidence
type Blender struct {
	weights []float64
}

// NewBlender creates a blender for the given factor weights
func NewBlender(weights config.FactorWeights) *Blender {
	return &Blender{weights: weights.Slice()}
}

// Blend returns a copy of b with Final and Confidence set.
// Final is the weighted mean of the sub-scores; confidence is 100 minus their
// population-weighted standard deviation, so agreeing factors mean high confidence.
func (bl *Blender) Blend(b domain.ScoreBreakdown) domain.ScoreBreakdown {
	mean, std := stat.PopMeanStdDev(b.SubScores(), bl.weights)

	b.Final = formulas.Round(formulas.Clamp(mean, 0, 100), 2)
	b.Confidence = formulas.Round(formulas.Clamp(100-std, 0, 100), 2)
	return b
}
