package stylist

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"wardrobeapi/models"
)

type RGB struct {
	R, G, B int
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c RGB) Average() float64 {
	return float64(c.R+c.G+c.B) / 3
}

// Spread is the difference between the strongest and the weakest channel.
func (c RGB) Spread() int {
	return max(c.R, c.G, c.B) - min(c.R, c.G, c.B)
}

// ParseHex reads the first six hex digits after any leading '#'.
func ParseHex(hex string) (RGB, bool) {
	h := strings.TrimLeft(hex, "#")
	if len(h) < 6 {
		return RGB{}, false
	}
	var channels [3]int
	for i := range channels {
		v, err := strconv.ParseUint(h[i*2:i*2+2], 16, 8)
		if err != nil {
			return RGB{}, false
		}
		channels[i] = int(v)
	}
	return RGB{R: channels[0], G: channels[1], B: channels[2]}, true
}

type namedColor struct {
	Name string
	RGB  RGB
}

// order matters, the first of equally distant entries wins
var palette = []namedColor{
	{"Black", RGB{0, 0, 0}},
	{"White", RGB{255, 255, 255}},
	{"Grey", RGB{128, 128, 128}},
	{"Red", RGB{255, 0, 0}},
	{"Blue", RGB{0, 0, 255}},
	{"Green", RGB{0, 128, 0}},
	{"Yellow", RGB{255, 255, 0}},
	{"Orange", RGB{255, 165, 0}},
	{"Purple", RGB{128, 0, 128}},
	{"Pink", RGB{255, 192, 203}},
	{"Brown", RGB{165, 42, 42}},
	{"Beige", RGB{245, 245, 220}},
	{"Navy", RGB{0, 0, 128}},
	{"Khaki", RGB{195, 176, 145}},
	{"Cream", RGB{255, 253, 208}},
}

func distance(a, b RGB) float64 {
	dr := float64(a.R - b.R)
	dg := float64(a.G - b.G)
	db := float64(a.B - b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// NearestColorName returns the palette name closest to hex, or "" when hex is not a '#' color.
func NearestColorName(hex string) string {
	if !strings.HasPrefix(hex, "#") {
		return ""
	}
	rgb, ok := ParseHex(hex)
	if !ok {
		return ""
	}
	best := ""
	bestDistance := math.MaxFloat64
	for _, c := range palette {
		if d := distance(rgb, c.RGB); d < bestDistance {
			bestDistance = d
			best = c.Name
		}
	}
	return best
}

const (
	ReasonNotBest      = "Not your best color"
	ReasonInvalidColor = "Invalid Color"
)

type colorRule struct {
	reason string
	match  func(c RGB) bool
}

var seasonRules = map[models.Season][]colorRule{
	models.SeasonWinter: {
		{"Great High Contrast", func(c RGB) bool {
			return (c.R < 40 && c.G < 40 && c.B < 40) || (c.R > 200 && c.G > 200 && c.B > 200)
		}},
		{"Cool Winter Tone", func(c RGB) bool {
			return c.B > c.R+30 && c.B > c.G+30
		}},
	},
	models.SeasonSummer: {
		{"Soft Summer Tone", func(c RGB) bool {
			return summerBand(c) && c.B >= c.R
		}},
		{"Perfect Neutral", func(c RGB) bool {
			return summerBand(c) && c.Spread() < 30
		}},
	},
	models.SeasonAutumn: {
		{"Warm Earth Tone", func(c RGB) bool {
			return c.R > c.B+40 || c.G > c.B+20
		}},
	},
	models.SeasonSpring: {
		{"Bright Spring Color", func(c RGB) bool {
			return c.Spread() > 50 && c.R > c.B
		}},
	},
}

func summerBand(c RGB) bool {
	avg := c.Average()
	return avg > 80 && avg < 200
}

// SeasonMatch checks a color against the season's rules. Every rule is evaluated;
// the result is true if any matched and the reason comes from the last one that did.
func SeasonMatch(hex string, season models.Season) (bool, string) {
	rgb, ok := ParseHex(hex)
	if !ok {
		return false, ReasonInvalidColor
	}
	match := false
	reason := ReasonNotBest
	for _, rule := range seasonRules[season] {
		if rule.match(rgb) {
			match = true
			reason = rule.reason
		}
	}
	return match, reason
}

// IsSeasonMatch is SeasonMatch without the reason.
func IsSeasonMatch(hex string, season models.Season) bool {
	ok, _ := SeasonMatch(hex, season)
	return ok
}

const (
	GroupDark    = "Dark"
	GroupNeutral = "Neutral"
	GroupWarm    = "Warm"
	GroupCool    = "Cool"
)

var colorGroups = []struct {
	group string
	names []string
}{
	{GroupNeutral, []string{"White", "Black", "Grey", "Navy", "Cream", "Khaki", "Beige"}},
	{GroupWarm, []string{"Red", "Orange", "Yellow", "Brown"}},
	{GroupCool, []string{"Blue", "Green", "Purple", "Pink"}},
}

// ColorGroup buckets a garment color for the wardrobe filter. Dark wins over the name.
func ColorGroup(hex string) string {
	rgb, ok := ParseHex(hex)
	if !ok || !strings.HasPrefix(hex, "#") {
		return GroupNeutral
	}
	if rgb.Average() < 70 {
		return GroupDark
	}
	name := NearestColorName(hex)
	for _, g := range colorGroups {
		for _, n := range g.names {
			if n == name {
				return g.group
			}
		}
	}
	return GroupNeutral
}
