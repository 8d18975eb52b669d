package models

import (
	"database/sql/driver"
	"strings"

	"github.com/go-playground/validator"
)

type Category string

const (
	CategoryTop       Category = "Top"
	CategoryBottom    Category = "Bottom"
	CategoryDress     Category = "Dress"
	CategoryLayer     Category = "Layer"
	CategoryShoes     Category = "Shoes"
	CategoryAccessory Category = "Accessory"
)

var Categories = []Category{CategoryTop, CategoryBottom, CategoryDress, CategoryLayer, CategoryShoes, CategoryAccessory}

func (c *Category) Scan(value interface{}) error {
	v, err := scanString(value)
	*c = Category(v)
	return err
}

func (c Category) Value() (driver.Value, error) {
	return string(c), nil
}

func ValidateCategory(fl validator.FieldLevel) bool {
	return ValidateCategoryRaw(fl.Field().String())
}

func ValidateCategoryRaw(value string) bool {
	for _, c := range Categories {
		if string(c) == value {
			return true
		}
	}
	return false
}

type categoryKeyword struct {
	keyword  string
	category Category
}

// first keyword contained in the label wins
var categoryKeywords = []categoryKeyword{
	{"dress", CategoryDress},
	{"skirt", CategoryBottom},
	{"jean", CategoryBottom},
	{"trouser", CategoryBottom},
	{"pant", CategoryBottom},
	{"short", CategoryBottom},
	{"shirt", CategoryTop},
	{"t-shirt", CategoryTop},
	{"tee", CategoryTop},
	{"top", CategoryTop},
	{"blazer", CategoryLayer},
	{"jacket", CategoryLayer},
	{"coat", CategoryLayer},
	{"layer", CategoryLayer},
	{"hoodie", CategoryLayer},
	{"sweater", CategoryLayer},
	{"shoe", CategoryShoes},
}

// NormalizeCategory maps a free-form classifier label onto a catalog category.
// Exact category names are kept, known keywords are mapped, everything else is a Top.
func NormalizeCategory(raw string) Category {
	label := strings.TrimSpace(raw)
	if label == "" {
		return CategoryTop
	}
	for _, c := range Categories {
		if strings.EqualFold(string(c), label) {
			return c
		}
	}
	lower := strings.ToLower(label)
	for _, k := range categoryKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.category
		}
	}
	return CategoryTop
}
