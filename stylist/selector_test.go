package stylist

import (
	"testing"
	"time"

	"wardrobeapi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPicker always picks the first index and keeps the weights it was offered.
type recordingPicker struct {
	weights [][]float64
}

func (p *recordingPicker) Pick(weights []float64) int {
	p.weights = append(p.weights, append([]float64(nil), weights...))
	return 0
}

func (p *recordingPicker) last() []float64 {
	if len(p.weights) == 0 {
		return nil
	}
	return p.weights[len(p.weights)-1]
}

var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestSelector(p Picker) *Selector {
	return &Selector{Picker: p, Now: func() time.Time { return fixedNow }}
}

func garment(id uint, category models.Category, name, hex string) models.Garment {
	g := models.Garment{Name: name, Category: category, ColorHex: hex, IsActive: true}
	g.ID = id
	return g
}

func daysAgo(n int) *time.Time {
	d := models.Date(fixedNow.AddDate(0, 0, -n))
	return &d
}

func fabric(f models.Fabric) *models.Fabric {
	return &f
}

func weather(temp *int, description string) *models.WeatherContext {
	w := &models.WeatherContext{City: "Delhi", TempC: temp}
	if description != "" {
		w.Description = &description
	}
	return w
}

func intPtr(v int) *int {
	return &v
}

func TestChooseEmpty(t *testing.T) {
	s := newTestSelector(&recordingPicker{})
	assert.Nil(t, s.Choose(nil, SelectOptions{}))
	assert.Nil(t, s.Choose([]models.Garment{}, SelectOptions{Advanced: true}))
}

func TestChooseSeasonBonus(t *testing.T) {
	p := &recordingPicker{}
	s := newTestSelector(p)
	candidates := []models.Garment{
		garment(1, models.CategoryTop, "Black Tee", "#000000"),
		garment(2, models.CategoryTop, "Red Tee", "#FF0000"),
	}

	chosen := s.Choose(candidates, SelectOptions{Season: models.SeasonWinter})
	require.NotNil(t, chosen)
	assert.Equal(t, uint(1), chosen.ID)
	assert.Equal(t, []float64{3, 1}, p.last())

	s.Choose(candidates, SelectOptions{Season: models.SeasonUnknown})
	assert.Equal(t, []float64{1, 1}, p.last())
}

func TestChooseBasicModeIgnoresRecency(t *testing.T) {
	p := &recordingPicker{}
	s := newTestSelector(p)
	worn := garment(1, models.CategoryTop, "Tee", "#FF0000")
	worn.LastWorn = daysAgo(0)

	chosen := s.Choose([]models.Garment{worn}, SelectOptions{})
	require.NotNil(t, chosen)
	assert.Equal(t, []float64{1}, p.last())
}

func TestChooseAdvancedExcludesRecentlyWorn(t *testing.T) {
	p := &recordingPicker{}
	s := newTestSelector(p)
	today := garment(1, models.CategoryTop, "Today", "#FF0000")
	today.LastWorn = daysAgo(0)
	threeDays := garment(2, models.CategoryTop, "Three days", "#FF0000")
	threeDays.LastWorn = daysAgo(3)
	fourDays := garment(3, models.CategoryTop, "Four days", "#FF0000")
	fourDays.LastWorn = daysAgo(4)

	chosen := s.Choose([]models.Garment{today, threeDays, fourDays}, SelectOptions{Advanced: true})
	require.NotNil(t, chosen)
	assert.Equal(t, uint(3), chosen.ID)
	assert.Equal(t, []float64{1}, p.last())
}

func TestChooseFallsBackWhenEverythingFiltered(t *testing.T) {
	p := &recordingPicker{}
	s := newTestSelector(p)
	a := garment(1, models.CategoryTop, "A", "#000000")
	a.LastWorn = daysAgo(1)
	b := garment(2, models.CategoryLayer, "Wool Jacket", "#000000")

	chosen := s.Choose([]models.Garment{a, b}, SelectOptions{
		Advanced: true,
		Season:   models.SeasonWinter,
		Weather:  weather(intPtr(35), "clear sky"),
	})
	require.NotNil(t, chosen)
	assert.Equal(t, uint(1), chosen.ID)
	assert.Equal(t, []float64{1, 1}, p.last())
}

func TestChooseHotWeatherNeverPicksOuterwear(t *testing.T) {
	jacket := garment(1, models.CategoryLayer, "Denim Jacket", "#000080")
	tee := garment(2, models.CategoryTop, "Linen Shirt", "#FFFFFF")
	tee.FabricType = fabric(models.FabricLinen)
	opts := SelectOptions{Advanced: true, Weather: weather(intPtr(35), "clear sky")}

	p := &recordingPicker{}
	chosen := newTestSelector(p).Choose([]models.Garment{jacket, tee}, opts)
	require.NotNil(t, chosen)
	assert.Equal(t, uint(2), chosen.ID)
	assert.Equal(t, []float64{1.5}, p.last())

	s := newTestSelector(NewSeededPicker(42))
	for i := 0; i < 200; i++ {
		assert.Equal(t, uint(2), s.Choose([]models.Garment{jacket, tee}, opts).ID)
	}
}

func TestChooseColdWeatherNeverPicksShorts(t *testing.T) {
	shorts := garment(1, models.CategoryBottom, "Denim Shorts", "#000080")
	trousers := garment(2, models.CategoryBottom, "Grey Trousers", "#808080")
	trousers.FabricType = fabric(models.FabricWool)
	opts := SelectOptions{Advanced: true, Weather: weather(intPtr(5), "overcast clouds")}

	p := &recordingPicker{}
	chosen := newTestSelector(p).Choose([]models.Garment{shorts, trousers}, opts)
	require.NotNil(t, chosen)
	assert.Equal(t, uint(2), chosen.ID)
	assert.Equal(t, []float64{1.5}, p.last())

	s := newTestSelector(NewSeededPicker(7))
	for i := 0; i < 200; i++ {
		assert.Equal(t, uint(2), s.Choose([]models.Garment{shorts, trousers}, opts).ID)
	}
}

func TestChooseRainNeverPicksSuedeOrLeather(t *testing.T) {
	suede := garment(1, models.CategoryBottom, "Tan Skirt", "#D2B48C")
	suede.FabricType = fabric(models.FabricSuede)
	leather := garment(2, models.CategoryBottom, "Biker Trousers", "#000000")
	leather.FabricType = fabric(models.FabricLeather)
	nylon := garment(3, models.CategoryBottom, "Track Pants", "#FFFFFF")
	nylon.FabricType = fabric(models.FabricNylon)
	candidates := []models.Garment{suede, leather, nylon}
	opts := SelectOptions{Advanced: true, Weather: weather(nil, "light rain")}

	p := &recordingPicker{}
	chosen := newTestSelector(p).Choose(candidates, opts)
	require.NotNil(t, chosen)
	assert.Equal(t, uint(3), chosen.ID)
	assert.Equal(t, []float64{1.4}, p.last())

	s := newTestSelector(NewSeededPicker(99))
	for i := 0; i < 200; i++ {
		assert.Equal(t, uint(3), s.Choose(candidates, opts).ID)
	}
}

func TestChooseCostBoost(t *testing.T) {
	p := &recordingPicker{}
	s := newTestSelector(p)
	cheap := garment(1, models.CategoryTop, "Cheap", "#FF0000")
	cheap.PurchasePrice = 100
	pricey := garment(2, models.CategoryTop, "Pricey", "#FF0000")
	pricey.PurchasePrice = 400
	pricey.WearCount = 1
	gift := garment(3, models.CategoryTop, "Gift", "#FF0000")

	s.Choose([]models.Garment{cheap, pricey, gift}, SelectOptions{Advanced: true})
	assert.Equal(t, []float64{1, 5, 1}, p.last())

	// basic mode has no cost boost
	s.Choose([]models.Garment{cheap, pricey, gift}, SelectOptions{})
	assert.Equal(t, []float64{1, 1, 1}, p.last())
}

func TestChooseStaleSeasonMatchBonus(t *testing.T) {
	p := &recordingPicker{}
	s := newTestSelector(p)
	stale := garment(1, models.CategoryTop, "Old Black Tee", "#000000")
	stale.LastWorn = daysAgo(200)
	staleOffSeason := garment(2, models.CategoryTop, "Old Red Tee", "#FF0000")
	staleOffSeason.LastWorn = daysAgo(200)
	fresh := garment(3, models.CategoryTop, "Black Tee", "#000000")
	fresh.LastWorn = daysAgo(10)

	s.Choose([]models.Garment{stale, staleOffSeason, fresh}, SelectOptions{Advanced: true, Season: models.SeasonWinter})
	assert.Equal(t, []float64{6, 1, 3}, p.last())
}

func TestChooseReturnsCopy(t *testing.T) {
	candidates := []models.Garment{garment(1, models.CategoryTop, "Tee", "#FF0000")}
	chosen := newTestSelector(&recordingPicker{}).Choose(candidates, SelectOptions{})
	chosen.Name = "changed"
	assert.Equal(t, "Tee", candidates[0].Name)
}

func TestCPWThreshold(t *testing.T) {
	_, ok := CPWThreshold(nil)
	assert.False(t, ok)

	_, ok = CPWThreshold([]models.Garment{garment(1, models.CategoryTop, "Gift", "#FFFFFF")})
	assert.False(t, ok)

	single := garment(1, models.CategoryTop, "Shirt", "#FFFFFF")
	single.PurchasePrice = 900
	single.WearCount = 3
	threshold, ok := CPWThreshold([]models.Garment{single})
	assert.True(t, ok)
	assert.Equal(t, 300.0, threshold)

	var many []models.Garment
	for i, price := range []float64{40, 10, 30, 20} {
		g := garment(uint(i+1), models.CategoryTop, "g", "#FFFFFF")
		g.PurchasePrice = price
		many = append(many, g)
	}
	threshold, ok = CPWThreshold(many)
	assert.True(t, ok)
	assert.Equal(t, 40.0, threshold)
}

func TestWeatherWeight(t *testing.T) {
	tee := garment(1, models.CategoryTop, "Cotton Tee", "#FFFFFF")
	tee.FabricType = fabric(models.FabricCotton)
	shorts := garment(2, models.CategoryBottom, "Denim Shorts", "#000080")
	shorts.FabricType = fabric(models.FabricDenim)
	sweater := garment(3, models.CategoryLayer, "Wool Sweater", "#808080")
	sweater.FabricType = fabric(models.FabricWool)
	boots := garment(4, models.CategoryShoes, "Chelsea Boots", "#402010")
	boots.FabricType = fabric(models.FabricSuede)
	shell := garment(5, models.CategoryLayer, "Rain Shell", "#101010")
	shell.FabricType = fabric(models.FabricPolyester)
	plain := garment(6, models.CategoryTop, "Plain Tee", "#FFFFFF")

	assert.Equal(t, 1.0, WeatherWeight(tee, nil))
	assert.Equal(t, 1.0, WeatherWeight(tee, weather(nil, "")))

	hot := weather(intPtr(33), "")
	assert.Equal(t, 1.5, WeatherWeight(tee, hot))
	assert.Equal(t, 0.0, WeatherWeight(sweater, hot))

	cold := weather(intPtr(8), "")
	assert.Equal(t, 0.0, WeatherWeight(shorts, cold))
	assert.InDelta(t, 1.95, WeatherWeight(sweater, cold), 1e-9)
	assert.Equal(t, 1.0, WeatherWeight(tee, cold))

	rain := weather(intPtr(22), "Light Rain")
	assert.Equal(t, 0.0, WeatherWeight(boots, rain))
	assert.InDelta(t, 1.68, WeatherWeight(shell, rain), 1e-9)
	assert.Equal(t, 1.0, WeatherWeight(plain, rain))

	// the description alone still applies the rain rules
	assert.Equal(t, 0.0, WeatherWeight(boots, weather(nil, "thunderstorm")))
}
