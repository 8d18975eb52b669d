package stylist

import (
	"fmt"

	"wardrobeapi/models"
)

// SkinSample is what the face sampling step measures on a selfie.
type SkinSample struct {
	Value      float64 `json:"skin_value"`      // V in HSV, 0..255
	Saturation float64 `json:"skin_saturation"` // S in HSV, 0..255
	Contrast   float64 `json:"contrast"`        // skin to hair brightness difference
}

// DefaultSkinSample is used when no face could be sampled.
var DefaultSkinSample = SkinSample{Value: 150, Saturation: 50, Contrast: 100}

type SeasonAnalysis struct {
	Season        models.Season `json:"season"`
	ContrastLevel string        `json:"contrast_level"`
}

// AnalyzeSeason runs the season decision table, first matching branch wins.
func AnalyzeSeason(sample SkinSample, undertone models.Undertone) SeasonAnalysis {
	return SeasonAnalysis{
		Season:        seasonFor(sample, undertone),
		ContrastLevel: fmt.Sprintf("%d (Diff)", int(sample.Contrast)),
	}
}

func seasonFor(s SkinSample, undertone models.Undertone) models.Season {
	if s.Value < 100 {
		switch undertone {
		case models.UndertoneCool:
			return models.SeasonWinter
		case models.UndertoneWarm, models.UndertoneNeutral:
			return models.SeasonAutumn
		}
		return models.SeasonUnknown
	}
	switch undertone {
	case models.UndertoneCool:
		if s.Contrast > 60 || s.Saturation > 100 {
			return models.SeasonWinter
		}
		return models.SeasonSummer
	case models.UndertoneWarm:
		if s.Contrast > 50 || s.Saturation > 90 {
			return models.SeasonSpring
		}
		return models.SeasonAutumn
	case models.UndertoneNeutral:
		if s.Contrast > 60 {
			if s.Saturation > 100 {
				return models.SeasonSpring
			}
			return models.SeasonWinter
		}
		if s.Value > 160 {
			return models.SeasonSummer
		}
		return models.SeasonAutumn
	}
	return models.SeasonUnknown
}

type SeasonProfile struct {
	Season      models.Season `json:"season"`
	Formula     string        `json:"formula"`
	Description string        `json:"description"`
	BestColors  []string      `json:"best_colors"`
	AvoidColors []string      `json:"avoid_colors"`
	Icon        string        `json:"icon"`
}

var seasonProfiles = map[models.Season]SeasonProfile{
	models.SeasonWinter: {
		Formula:     "Cool Undertone + High Contrast",
		Description: "You have a sharp, intense look. You shine in high-contrast colors.",
		BestColors:  []string{"Pure Black", "Stark White", "Royal Blue", "Neon Pink"},
		AvoidColors: []string{"Earth Tones", "Beige", "Mustard", "Orange"},
		Icon:        "snow",
	},
	models.SeasonSummer: {
		Formula:     "Cool Undertone + Low/Medium Contrast",
		Description: "You have a soft, delicate look. Muted and dusty colors make you glow.",
		BestColors:  []string{"Pastel Blue", "Soft Grey", "Lavender", "Mauve"},
		AvoidColors: []string{"Pure Black", "Bright Orange", "Neon Yellow"},
		Icon:        "sun",
	},
	models.SeasonAutumn: {
		Formula:     "Warm Undertone + Low/Medium Contrast",
		Description: "You have a rich, earthy look. Warm, golden tones suit you best.",
		BestColors:  []string{"Olive Green", "Mustard", "Rust", "Warm Brown"},
		AvoidColors: []string{"Neon Pink", "Cyan", "Stark White"},
		Icon:        "leaf",
	},
	models.SeasonSpring: {
		Formula:     "Warm Undertone + High Contrast",
		Description: "You have a fresh, bright look. You can pull off vibrant, warm colors.",
		BestColors:  []string{"Coral", "Bright Yellow", "Kelly Green", "Turquoise"},
		AvoidColors: []string{"Black", "Grey", "Dusty Pink"},
		Icon:        "sprout",
	},
}

// SeasonDetails returns the static descriptor for a season. Lists are copies.
func SeasonDetails(season models.Season) SeasonProfile {
	p, ok := seasonProfiles[season]
	if !ok {
		return SeasonProfile{
			Season:      models.SeasonUnknown,
			Formula:     "Unknown",
			Description: "We need more data to analyze your style.",
			BestColors:  []string{},
			AvoidColors: []string{},
			Icon:        "?",
		}
	}
	p.Season = season
	p.BestColors = append([]string(nil), p.BestColors...)
	p.AvoidColors = append([]string(nil), p.AvoidColors...)
	return p
}

var paletteHex = map[string]string{
	"Pure Black":    "#000000",
	"Stark White":   "#FFFFFF",
	"Royal Blue":    "#4169E1",
	"Neon Pink":     "#FF4FA3",
	"Pastel Blue":   "#AEC6CF",
	"Soft Grey":     "#BFC5C9",
	"Lavender":      "#C4A3C3",
	"Mauve":         "#B784A7",
	"Olive Green":   "#7A8450",
	"Mustard":       "#C9A24D",
	"Rust":          "#C96A4A",
	"Warm Brown":    "#6B4423",
	"Coral":         "#FF7F50",
	"Bright Yellow": "#FFD200",
	"Kelly Green":   "#4CBB17",
	"Turquoise":     "#40E0D0",
}

const fallbackPaletteHex = "#EADFC8"

// Palette renders a season's best colors as hex swatches.
func Palette(season models.Season) []string {
	best := SeasonDetails(season).BestColors
	out := make([]string, 0, len(best))
	for _, name := range best {
		hex, ok := paletteHex[name]
		if !ok {
			hex = fallbackPaletteHex
		}
		out = append(out, hex)
	}
	return out
}
