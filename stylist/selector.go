package stylist

import (
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"wardrobeapi/models"
)

const (
	recentWearDays = 3
	staleWearDays  = 180
	seasonBonus    = 3.0
	costBoost      = 5.0
	staleBonus     = 2.0
	costPercentile = 0.75
)

// Picker draws one index with probability proportional to its weight.
type Picker interface {
	Pick(weights []float64) int
}

type randomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker draws from the runtime's shared source.
func NewRandomPicker() Picker {
	return &randomPicker{}
}

// NewSeededPicker gives reproducible draws for a seed.
func NewSeededPicker(seed uint64) Picker {
	return &randomPicker{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (p *randomPicker) float() float64 {
	if p.rng == nil {
		return rand.Float64()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

func (p *randomPicker) Pick(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := p.float() * total
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}

type Selector struct {
	Picker Picker
	Now    func() time.Time
}

func NewSelector() *Selector {
	return &Selector{Picker: NewRandomPicker(), Now: time.Now}
}

type SelectOptions struct {
	Season   models.Season
	Advanced bool
	Weather  *models.WeatherContext
}

func (s *Selector) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Selector) picker() Picker {
	if s.Picker == nil {
		return NewRandomPicker()
	}
	return s.Picker
}

// Choose draws one garment from candidates. It returns nil only for an empty list:
// when every candidate is filtered out the draw falls back to all of them with equal weight.
func (s *Selector) Choose(candidates []models.Garment, opts SelectOptions) *models.Garment {
	if len(candidates) == 0 {
		return nil
	}
	today := s.now()
	threshold, boost := 0.0, false
	if opts.Advanced {
		threshold, boost = CPWThreshold(candidates)
	}

	eligible := make([]models.Garment, 0, len(candidates))
	weights := make([]float64, 0, len(candidates))
	for _, g := range candidates {
		if opts.Advanced && g.LastWorn != nil && models.DaysSince(*g.LastWorn, today) <= recentWearDays {
			continue
		}
		weight := 1.0
		seasonMatch := opts.Season.Known() && IsSeasonMatch(g.ColorHex, opts.Season)
		if seasonMatch {
			weight *= seasonBonus
		}
		if opts.Advanced {
			weight *= WeatherWeight(g, opts.Weather)
			if weight == 0 {
				continue
			}
			if boost && rawCostPerWear(g) >= threshold {
				weight *= costBoost
			}
			if g.LastWorn != nil && models.DaysSince(*g.LastWorn, today) >= staleWearDays && seasonMatch {
				weight *= staleBonus
			}
		}
		eligible = append(eligible, g)
		weights = append(weights, weight)
	}

	if len(eligible) == 0 {
		eligible = candidates
		weights = make([]float64, len(candidates))
		for i := range weights {
			weights[i] = 1
		}
	}
	chosen := eligible[s.picker().Pick(weights)]
	return &chosen
}

func rawCostPerWear(g models.Garment) float64 {
	return g.PurchasePrice / float64(max(1, g.WearCount))
}

// CPWThreshold is the 75th percentile cost-per-wear over priced garments.
// The second result is false when no garment has a price.
func CPWThreshold(garments []models.Garment) (float64, bool) {
	values := make([]float64, 0, len(garments))
	for _, g := range garments {
		if g.PurchasePrice > 0 {
			values = append(values, rawCostPerWear(g))
		}
	}
	if len(values) == 0 {
		return 0, false
	}
	sort.Float64s(values)
	idx := min(int(float64(len(values))*costPercentile), len(values)-1)
	return values[idx], true
}

var (
	outerwearWords = []string{"blazer", "hoodie", "jacket", "coat", "layer", "sweater"}
	summerCutWords = []string{"short", "sleeveless", "tank"}
	rainWords      = []string{"rain", "drizzle", "shower", "storm"}
)

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// WeatherWeight scores a garment for the weather. Zero means it must not be worn today.
// Unknown temperature or description leaves the matching rules out.
func WeatherWeight(g models.Garment, weather *models.WeatherContext) float64 {
	if weather == nil {
		return 1
	}
	weight := 1.0
	text := strings.ToLower(string(g.Category) + " " + g.Name)
	fabric := ""
	if g.FabricType != nil {
		fabric = strings.ToLower(string(*g.FabricType))
	}

	if weather.TempC != nil {
		temp := *weather.TempC
		if temp > 30 {
			if containsAny(text, outerwearWords) {
				return 0
			}
			if containsAny(fabric, []string{"cotton", "linen"}) {
				weight *= 1.5
			}
		}
		if temp < 15 {
			if containsAny(text, summerCutWords) {
				return 0
			}
			if containsAny(fabric, []string{"wool", "denim"}) {
				weight *= 1.5
			}
			if strings.Contains(text, "layer") {
				weight *= 1.3
			}
		}
	}

	if weather.Description != nil && containsAny(strings.ToLower(*weather.Description), rainWords) {
		if containsAny(fabric, []string{"suede", "leather"}) {
			return 0
		}
		if containsAny(fabric, []string{"polyester", "nylon", "synthetic"}) {
			weight *= 1.4
		}
		if rgb, ok := ParseHex(g.ColorHex); ok && rgb.Average() < 90 {
			weight *= 1.2
		}
	}
	return weight
}
