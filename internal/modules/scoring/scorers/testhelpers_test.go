package scorers

import (
	"time"

	"github.com/aristath/advisor/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func linearCloses(n int, start, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)*step
	}
	return closes
}

func barsFromCloses(closes []float64) []domain.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}
