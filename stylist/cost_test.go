package stylist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostPerWear(t *testing.T) {
	assert.Equal(t, 1000.0, CostPerWear(1000, 0))
	assert.Equal(t, 1000.0, CostPerWear(1000, 1))
	assert.Equal(t, 333.33, CostPerWear(1000, 3))
	assert.Equal(t, 100.0, CostPerWear(100, -1))
	assert.Equal(t, 0.0, CostPerWear(0, 5))
}

func TestCostPerWearNeverIncreases(t *testing.T) {
	prev := CostPerWear(2499, 0)
	for w := 1; w <= 60; w++ {
		cur := CostPerWear(2499, w)
		assert.LessOrEqual(t, cur, prev, "wears=%d", w)
		prev = cur
	}
}

func TestEcoImpact(t *testing.T) {
	assert.Equal(t, 10.0, EcoImpact(0, DefaultBaseImpactKg))
	assert.Equal(t, 3.33, EcoImpact(3, DefaultBaseImpactKg))
	assert.Equal(t, 0.5, EcoImpact(20, DefaultBaseImpactKg))
}

func TestBreakEvenPct(t *testing.T) {
	assert.Equal(t, 0, BreakEvenPct(0, 30))
	assert.Equal(t, 3, BreakEvenPct(1, 30))
	assert.Equal(t, 50, BreakEvenPct(15, 30))
	assert.Equal(t, 100, BreakEvenPct(30, 30))
	assert.Equal(t, 100, BreakEvenPct(45, 30))
	assert.Equal(t, 29, BreakEvenPct(29, 100))
	// unset target uses the default
	assert.Equal(t, 50, BreakEvenPct(15, 0))

	prev := 0
	for w := 0; w <= 40; w++ {
		cur := BreakEvenPct(w, 30)
		assert.GreaterOrEqual(t, cur, prev)
		assert.LessOrEqual(t, cur, 100)
		prev = cur
	}
}

func TestTargetWears(t *testing.T) {
	assert.Equal(t, 30, TargetWears(0))
	assert.Equal(t, 30, TargetWears(-5))
	assert.Equal(t, 12, TargetWears(12))
}
