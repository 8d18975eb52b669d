package sustainability

import (
	"context"
	"math"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/stylist"

	"gorm.io/gorm"
)

// Factors describe the production footprint of one garment and the emission factor of each input.
type Factors struct {
	ElectricityKWh       float64 `json:"electricity_kwh"`
	WaterL               float64 `json:"water_l"`
	YarnKg               float64 `json:"yarn_kg"`
	ElectricityCO2PerKWh float64 `json:"electricity_kgco2_per_kwh"`
	WaterCO2PerL         float64 `json:"water_kgco2_per_l"`
	YarnCO2PerKg         float64 `json:"yarn_kgco2_per_kg"`
}

func DefaultFactors() Factors {
	return Factors{
		ElectricityKWh:       5.5,
		WaterL:               2700,
		YarnKg:               0.3,
		ElectricityCO2PerKWh: 0.82,
		WaterCO2PerL:         0.000344,
		YarnCO2PerKg:         9.5,
	}
}

func (f Factors) CarbonKg() float64 {
	return f.ElectricityKWh*f.ElectricityCO2PerKWh + f.WaterL*f.WaterCO2PerL + f.YarnKg*f.YarnCO2PerKg
}

type ImpactSummary struct {
	TotalItems     int     `json:"total_items"`
	TotalWears     int     `json:"total_wears"`
	AvgWears       float64 `json:"avg_wears"`
	CarbonSavedKg  float64 `json:"carbon_saved_kg"`
	WaterSavedL    int     `json:"water_saved_l"`
	EnergySavedKWh float64 `json:"energy_saved_kwh"`
	DonatedCount   int64   `json:"donated_count"`
	RecycledCount  int64   `json:"recycled_count"`
	BaseCarbonKg   float64 `json:"base_carbon_kg"`
	BaseWaterL     int     `json:"base_water_l"`
	BaseEnergyKWh  float64 `json:"base_energy_kwh"`
}

// GarmentImpact is the per garment footprint shown on the detail screen.
type GarmentImpact struct {
	CarbonKg  float64 `json:"carbon_kg"`
	WaterL    int     `json:"water_l"`
	EnergyKWh float64 `json:"energy_kwh"`
}

type FabricShare struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// MonthRange parses YYYY-MM. Anything unparseable falls back to the month of now.
func MonthRange(month string, now time.Time) (time.Time, time.Time) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return start, start.AddDate(0, 1, 0)
}

func (e *Engine) perWear(total float64) float64 {
	return total / float64(e.TargetWears)
}

func (e *Engine) GarmentImpact(g models.Garment) GarmentImpact {
	wears := float64(max(1, g.WearCount))
	return GarmentImpact{
		CarbonKg:  stylist.EcoImpact(g.WearCount, stylist.DefaultBaseImpactKg),
		WaterL:    int(e.perWear(e.Factors.WaterL) * wears),
		EnergyKWh: round(e.perWear(e.Factors.ElectricityKWh)*wears, 1),
	}
}

// Summary aggregates the user's active wardrobe. With a month only wears
// dated inside that month count.
func (e *Engine) Summary(ctx context.Context, userID uint, month string) (ImpactSummary, error) {
	var active []models.Garment
	db := e.DB.WithContext(ctx)
	if err := activeGarments(db, userID).Find(&active).Error; err != nil {
		return ImpactSummary{}, err
	}
	return e.summarize(db, userID, active, month)
}

func activeGarments(db *gorm.DB, userID uint) *gorm.DB {
	return db.Where("owner_id = ? AND is_active = ?", userID, true)
}

func (e *Engine) summarize(db *gorm.DB, userID uint, active []models.Garment, month string) (ImpactSummary, error) {
	totalWears, extraWears := 0, 0
	for _, g := range active {
		totalWears += g.WearCount
		extraWears += max(0, g.WearCount-1)
	}

	if month != "" {
		start, end := MonthRange(month, e.now())
		monthWears := 0
		for _, g := range active {
			if g.LastWorn == nil {
				continue
			}
			day := models.Date(g.LastWorn.UTC())
			if !day.Before(start) && day.Before(end) {
				monthWears++
			}
		}
		totalWears, extraWears = monthWears, monthWears
	}

	var donated, recycled int64
	err := db.Model(&models.Garment{}).
		Where("owner_id = ? AND disposal_method IN ?", userID, []string{"Donated", "Donate"}).
		Count(&donated).Error
	if err != nil {
		return ImpactSummary{}, err
	}
	err = db.Model(&models.Garment{}).
		Where("owner_id = ? AND disposal_method IN ?", userID, []string{"Recycled", "Recycle"}).
		Count(&recycled).Error
	if err != nil {
		return ImpactSummary{}, err
	}

	f := e.Factors
	extra := float64(extraWears)
	summary := ImpactSummary{
		TotalItems:     len(active),
		TotalWears:     totalWears,
		CarbonSavedKg:  round(extra*e.perWear(f.CarbonKg()), 2),
		WaterSavedL:    int(extra * e.perWear(f.WaterL)),
		EnergySavedKWh: round(extra*e.perWear(f.ElectricityKWh), 1),
		DonatedCount:   donated,
		RecycledCount:  recycled,
		BaseCarbonKg:   round(f.CarbonKg(), 2),
		BaseWaterL:     int(f.WaterL),
		BaseEnergyKWh:  round(f.ElectricityKWh, 1),
	}
	if len(active) > 0 {
		summary.AvgWears = round(float64(totalWears)/float64(len(active)), 1)
	}
	return summary, nil
}

// FabricBreakdown gives each fabric's share of the wardrobe in whole percent,
// in order of first appearance. Unset fabrics count as Other.
func FabricBreakdown(garments []models.Garment) []FabricShare {
	counts := map[string]int{}
	var order []string
	for _, g := range garments {
		name := string(models.FabricOther)
		if g.FabricType != nil && *g.FabricType != "" {
			name = string(*g.FabricType)
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	total := float64(max(1, len(garments)))
	shares := make([]FabricShare, 0, len(order))
	for _, name := range order {
		shares = append(shares, FabricShare{
			Name:  name,
			Value: int(math.Round(float64(counts[name]) / total * 100)),
			Color: models.PaletteColor(name),
		})
	}
	return shares
}
