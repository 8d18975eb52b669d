package models

import (
	"database/sql/driver"
	"strings"

	"github.com/go-playground/validator"
)

type Fabric string

const (
	FabricCotton    Fabric = "Cotton"
	FabricLinen     Fabric = "Linen"
	FabricWool      Fabric = "Wool"
	FabricDenim     Fabric = "Denim"
	FabricSilk      Fabric = "Silk"
	FabricPolyester Fabric = "Polyester"
	FabricNylon     Fabric = "Nylon"
	FabricSynthetic Fabric = "Synthetic"
	FabricLeather   Fabric = "Leather"
	FabricSuede     Fabric = "Suede"
	FabricOther     Fabric = "Other"
)

var Fabrics = []Fabric{
	FabricCotton, FabricLinen, FabricWool, FabricDenim, FabricSilk, FabricPolyester,
	FabricNylon, FabricSynthetic, FabricLeather, FabricSuede, FabricOther,
}

// chart colors for the wardrobe fabric breakdown
var FabricPalette = map[Fabric]string{
	FabricCotton:    "#F4D06F",
	FabricLinen:     "#E6A57E",
	FabricWool:      "#8E7DBE",
	FabricDenim:     "#4E79A7",
	FabricSilk:      "#E07A5F",
	FabricPolyester: "#5DADEC",
	FabricNylon:     "#9C88FF",
	FabricSynthetic: "#6CC5B3",
	FabricLeather:   "#A65D57",
	FabricSuede:     "#C9975B",
	FabricOther:     "#C2C7CF",
}

const fallbackFabricColor = "#BFC5C9"

// PaletteColor is the chart color for a fabric name, unknown names get a neutral grey.
func PaletteColor(name string) string {
	if c, ok := FabricPalette[Fabric(name)]; ok {
		return c
	}
	return fallbackFabricColor
}

func (f *Fabric) Scan(value interface{}) error {
	v, err := scanString(value)
	*f = Fabric(v)
	return err
}

func (f Fabric) Value() (driver.Value, error) {
	return string(f), nil
}

// Natural reports whether the fabric counts towards the sustainable wardrobe share.
func (f Fabric) Natural() bool {
	switch f {
	case FabricCotton, FabricLinen, FabricWool, FabricDenim, FabricSilk, FabricLeather, FabricSuede:
		return true
	}
	return false
}

func ValidateFabric(fl validator.FieldLevel) bool {
	return ValidateFabricRaw(fl.Field().String())
}

func ValidateFabricRaw(value string) bool {
	for _, f := range Fabrics {
		if string(f) == value {
			return true
		}
	}
	return false
}

// ParseFabric matches a classifier material label against the known fabrics.
func ParseFabric(raw string) (Fabric, bool) {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return "", false
	}
	for _, f := range Fabrics {
		if f != FabricOther && strings.Contains(label, strings.ToLower(string(f))) {
			return f, true
		}
	}
	return "", false
}
