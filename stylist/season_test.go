package stylist

import (
	"testing"

	"wardrobeapi/models"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeSeason(t *testing.T) {
	cases := []struct {
		name      string
		sample    SkinSample
		undertone models.Undertone
		want      models.Season
	}{
		{"dark cool", SkinSample{Value: 90, Saturation: 50, Contrast: 10}, models.UndertoneCool, models.SeasonWinter},
		{"dark warm", SkinSample{Value: 90, Saturation: 50, Contrast: 10}, models.UndertoneWarm, models.SeasonAutumn},
		{"dark neutral", SkinSample{Value: 90, Saturation: 50, Contrast: 10}, models.UndertoneNeutral, models.SeasonAutumn},
		{"cool high contrast", SkinSample{Value: 150, Saturation: 50, Contrast: 70}, models.UndertoneCool, models.SeasonWinter},
		{"cool saturated", SkinSample{Value: 150, Saturation: 120, Contrast: 40}, models.UndertoneCool, models.SeasonWinter},
		{"cool soft", SkinSample{Value: 150, Saturation: 50, Contrast: 40}, models.UndertoneCool, models.SeasonSummer},
		{"warm contrast", SkinSample{Value: 150, Saturation: 50, Contrast: 55}, models.UndertoneWarm, models.SeasonSpring},
		{"warm saturated", SkinSample{Value: 150, Saturation: 95, Contrast: 40}, models.UndertoneWarm, models.SeasonSpring},
		{"warm soft", SkinSample{Value: 150, Saturation: 50, Contrast: 40}, models.UndertoneWarm, models.SeasonAutumn},
		{"neutral contrast saturated", SkinSample{Value: 150, Saturation: 120, Contrast: 70}, models.UndertoneNeutral, models.SeasonSpring},
		{"neutral contrast", SkinSample{Value: 150, Saturation: 50, Contrast: 70}, models.UndertoneNeutral, models.SeasonWinter},
		{"neutral light", SkinSample{Value: 170, Saturation: 50, Contrast: 40}, models.UndertoneNeutral, models.SeasonSummer},
		{"neutral medium", SkinSample{Value: 150, Saturation: 50, Contrast: 40}, models.UndertoneNeutral, models.SeasonAutumn},
		{"missing undertone", SkinSample{Value: 150, Saturation: 50, Contrast: 40}, "", models.SeasonUnknown},
		{"dark missing undertone", SkinSample{Value: 50, Saturation: 50, Contrast: 40}, "Olive", models.SeasonUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AnalyzeSeason(tc.sample, tc.undertone).Season)
		})
	}
}

func TestAnalyzeSeasonBoundaries(t *testing.T) {
	// thresholds are strict
	assert.Equal(t, models.SeasonSummer, AnalyzeSeason(SkinSample{Value: 100, Saturation: 100, Contrast: 60}, models.UndertoneCool).Season)
	assert.Equal(t, models.SeasonAutumn, AnalyzeSeason(SkinSample{Value: 100, Saturation: 90, Contrast: 50}, models.UndertoneWarm).Season)
	assert.Equal(t, models.SeasonAutumn, AnalyzeSeason(SkinSample{Value: 160, Saturation: 50, Contrast: 60}, models.UndertoneNeutral).Season)
}

func TestAnalyzeSeasonContrastLabel(t *testing.T) {
	res := AnalyzeSeason(SkinSample{Value: 150, Saturation: 50, Contrast: 72.9}, models.UndertoneWarm)
	assert.Equal(t, "72 (Diff)", res.ContrastLevel)
}

func TestAnalyzeSeasonDefaultSample(t *testing.T) {
	res := AnalyzeSeason(DefaultSkinSample, models.UndertoneWarm)
	assert.Equal(t, models.SeasonSpring, res.Season)
	assert.Equal(t, "100 (Diff)", res.ContrastLevel)
}

func TestSeasonDetails(t *testing.T) {
	winter := SeasonDetails(models.SeasonWinter)
	assert.Equal(t, models.SeasonWinter, winter.Season)
	assert.Equal(t, "Cool Undertone + High Contrast", winter.Formula)
	assert.Equal(t, []string{"Pure Black", "Stark White", "Royal Blue", "Neon Pink"}, winter.BestColors)
	assert.Equal(t, "snow", winter.Icon)

	for _, s := range []models.Season{models.SeasonSummer, models.SeasonAutumn, models.SeasonSpring} {
		p := SeasonDetails(s)
		assert.Equal(t, s, p.Season)
		assert.NotEmpty(t, p.BestColors)
		assert.NotEmpty(t, p.AvoidColors)
	}

	unknown := SeasonDetails("Monsoon")
	assert.Equal(t, models.SeasonUnknown, unknown.Season)
	assert.Equal(t, "Unknown", unknown.Formula)
	assert.Equal(t, "We need more data to analyze your style.", unknown.Description)
	assert.Empty(t, unknown.BestColors)
	assert.NotNil(t, unknown.BestColors)
	assert.Equal(t, "?", unknown.Icon)
}

func TestSeasonDetailsReturnsCopies(t *testing.T) {
	p := SeasonDetails(models.SeasonAutumn)
	p.BestColors[0] = "Hot Pink"
	assert.Equal(t, "Olive Green", SeasonDetails(models.SeasonAutumn).BestColors[0])
}

func TestPalette(t *testing.T) {
	assert.Equal(t, []string{"#000000", "#FFFFFF", "#4169E1", "#FF4FA3"}, Palette(models.SeasonWinter))
	assert.Equal(t, []string{"#FF7F50", "#FFD200", "#4CBB17", "#40E0D0"}, Palette(models.SeasonSpring))
	assert.Empty(t, Palette(models.SeasonUnknown))
}
