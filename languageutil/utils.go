package languageutil

import (
	"math/rand"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var TitleCaser = cases.Title(language.English)
var LowerCaser = cases.Lower(language.English)

var Adjs []string = []string{
	"Breezy",
	"Bold",
	"Crisp",
	"Easy",
	"Sharp",
	"Sunny",
	"Cosy",
	"Classic",
	"Fresh",
	"Smart",
	"Weekend",
	"Golden",
	"Urban",
	"Quiet",
	"Bright",
}

var Nouns []string = []string{
	"Look",
	"Fit",
	"Edit",
	"Combo",
	"Layers",
	"Mood",
	"Style",
	"Pairing",
}

func RandomAdjective() string {

	pick := rand.Intn(len(Adjs))
	return Adjs[pick]
}

func RandomNounlike() string {

	pick := rand.Intn(len(Nouns))
	return Nouns[pick]
}

// RandomOutfitName names a lookbook entry the user left unnamed.
func RandomOutfitName() string {
	return RandomAdjective() + " " + RandomNounlike()
}

// TitleName cleans a free-form garment label, "  navy   t-shirt" becomes "Navy T-Shirt".
func TitleName(raw string) string {
	words := strings.Fields(raw)
	if len(words) == 0 {
		return ""
	}
	return TitleCaser.String(LowerCaser.String(strings.Join(words, " ")))
}
