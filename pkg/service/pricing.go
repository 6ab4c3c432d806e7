package service

import (
	"math"

	"github.com/plotwise/plotwise/pkg/models"
)

// Price verdict thresholds, in percent above or below the locality average.
const (
	aboveMarketPct = 15
	greatValuePct  = -10
)

// AnalyzePrice compares the listing's rate per square foot against a stable
// per-city benchmark. It makes no backend call.
func AnalyzePrice(l models.Listing) models.PriceAnalysis {
	hash := 0
	for _, r := range l.Location.City {
		hash += int(r)
	}
	cityAvg := float64(hash%500 + 1000)
	localityAvg := cityAvg * 1.1

	pps := l.PricePerSqFt
	if pps == 0 && l.Area > 0 {
		pps = math.Round(float64(l.Price) / l.Area)
	}
	diff := (pps - localityAvg) / localityAvg * 100

	status := models.PriceFair
	switch {
	case diff > aboveMarketPct:
		status = models.PriceAboveMarket
	case diff < greatValuePct:
		status = models.PriceGreatValue
	}
	return models.PriceAnalysis{
		PricePerSqFt:   pps,
		CityAvg:        cityAvg,
		LocalityAvg:    localityAvg,
		DiffPercentage: diff,
		Status:         status,
	}
}
