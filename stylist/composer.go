package stylist

import (
	"fmt"
	"slices"

	"wardrobeapi/models"
)

const (
	MoodFormal = "Formal"
	MoodSport  = "Sport"
	MoodParty  = "Party"
	MoodCasual = "Casual"

	DefaultCurrency = "INR"
)

type moodRule struct {
	tops    []models.Category
	bottoms []models.Category
}

var moodRules = map[string]moodRule{
	MoodFormal: {
		tops:    []models.Category{models.CategoryTop, models.CategoryLayer, models.CategoryDress},
		bottoms: []models.Category{models.CategoryBottom},
	},
	MoodSport: {
		tops:    []models.Category{models.CategoryTop},
		bottoms: []models.Category{models.CategoryBottom},
	},
	MoodParty: {
		tops:    []models.Category{models.CategoryTop, models.CategoryLayer, models.CategoryDress},
		bottoms: []models.Category{models.CategoryBottom},
	},
	MoodCasual: {
		tops:    []models.Category{models.CategoryTop, models.CategoryLayer, models.CategoryDress},
		bottoms: []models.Category{models.CategoryBottom},
	},
}

var Moods = []string{MoodCasual, MoodFormal, MoodParty, MoodSport}

func ruleFor(mood string) moodRule {
	if r, ok := moodRules[mood]; ok {
		return r
	}
	return moodRules[MoodCasual]
}

type RecommendationRequest struct {
	Mood           string
	LockedTopID    *uint
	LockedBottomID *uint
	Advanced       bool
	Season         models.Season
	Weather        *models.WeatherContext
}

type GuiltMessages struct {
	Top    *string `json:"top"`
	Bottom *string `json:"bottom"`
}

type RecommendationResult struct {
	Mood          string          `json:"mood"`
	Top           *models.Garment `json:"top"`
	Bottom        *models.Garment `json:"bottom"`
	TopLocked     bool            `json:"top_locked"`
	BottomLocked  bool            `json:"bottom_locked"`
	GuiltMessages GuiltMessages   `json:"guilt_messages"`
}

type Composer struct {
	Selector *Selector
	Currency string
}

func NewComposer(currency string) *Composer {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Composer{Selector: NewSelector(), Currency: currency}
}

// Compose builds an outfit for the mood from the user's active wardrobe.
// Locked ids are honoured only when they are part of that wardrobe.
func (c *Composer) Compose(wardrobe []models.Garment, req RecommendationRequest) RecommendationResult {
	rule := ruleFor(req.Mood)
	tops := filterCategories(wardrobe, rule.tops)
	bottoms := filterCategories(wardrobe, rule.bottoms)
	opts := SelectOptions{Season: req.Season, Advanced: req.Advanced, Weather: req.Weather}

	result := RecommendationResult{Mood: req.Mood}
	if locked := findGarment(wardrobe, req.LockedTopID); locked != nil {
		result.Top, result.TopLocked = locked, true
	} else {
		result.Top = c.Selector.Choose(tops, opts)
	}
	if locked := findGarment(wardrobe, req.LockedBottomID); locked != nil {
		result.Bottom, result.BottomLocked = locked, true
	} else {
		result.Bottom = c.Selector.Choose(bottoms, opts)
	}

	if req.Advanced {
		if threshold, ok := CPWThreshold(append(slices.Clone(tops), bottoms...)); ok {
			result.GuiltMessages.Top = c.guilt(result.Top, threshold)
			result.GuiltMessages.Bottom = c.guilt(result.Bottom, threshold)
		}
	}
	return result
}

func (c *Composer) guilt(g *models.Garment, threshold float64) *string {
	if g == nil {
		return nil
	}
	cpw := rawCostPerWear(*g)
	if cpw < threshold {
		return nil
	}
	next := g.PurchasePrice / float64(max(1, g.WearCount+1))
	msg := fmt.Sprintf(
		"This %s costs you %s %.0f per wear now. Wear it today to bring it down to %s %.0f.",
		g.Name, c.Currency, cpw, c.Currency, next,
	)
	return &msg
}

func filterCategories(garments []models.Garment, categories []models.Category) []models.Garment {
	out := make([]models.Garment, 0, len(garments))
	for _, g := range garments {
		if g.IsActive && slices.Contains(categories, g.Category) {
			out = append(out, g)
		}
	}
	return out
}

func findGarment(garments []models.Garment, id *uint) *models.Garment {
	if id == nil {
		return nil
	}
	for _, g := range garments {
		if g.ID == *id && g.IsActive {
			found := g
			return &found
		}
	}
	return nil
}
