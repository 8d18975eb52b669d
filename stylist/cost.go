package stylist

import "math"

const (
	DefaultTargetWears  = 30
	DefaultBaseImpactKg = 10.0
)

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// TargetWears falls back to the default for unset or non-positive configuration.
func TargetWears(configured int) int {
	if configured <= 0 {
		return DefaultTargetWears
	}
	return configured
}

func CostPerWear(price float64, wearCount int) float64 {
	if wearCount <= 0 {
		return price
	}
	return round2(price / float64(wearCount))
}

// EcoImpact spreads the garment's production footprint across its wears.
func EcoImpact(wearCount int, baseImpactKg float64) float64 {
	if wearCount <= 0 {
		return baseImpactKg
	}
	return round2(baseImpactKg / float64(wearCount))
}

func BreakEvenPct(wearCount, targetWears int) int {
	targetWears = TargetWears(targetWears)
	if wearCount >= targetWears {
		return 100
	}
	if wearCount <= 0 {
		return 0
	}
	return 100 * wearCount / targetWears
}
