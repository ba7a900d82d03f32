package scorers

import (
	"math"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

// SentimentScore passes the provider's reading through, defaulting to neutral 50
func SentimentScore(reading *domain.SentimentReading) float64 {
	if reading == nil || reading.Neutral || math.IsNaN(reading.Score) {
		return domain.NeutralSentimentScore
	}
	return formulas.Round(formulas.Clamp(reading.Score, 0, 100), 2)
}
