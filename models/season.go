package models

import (
	"database/sql/driver"

	"github.com/go-playground/validator"
)

type Season string

const (
	SeasonWinter  Season = "Winter"
	SeasonSummer  Season = "Summer"
	SeasonAutumn  Season = "Autumn"
	SeasonSpring  Season = "Spring"
	SeasonUnknown Season = "Unknown"
)

func (s *Season) Scan(value interface{}) error {
	v, err := scanString(value)
	*s = Season(v)
	return err
}

func (s Season) Value() (driver.Value, error) {
	return string(s), nil
}

// Known reports whether s is one of the four palette seasons.
func (s Season) Known() bool {
	switch s {
	case SeasonWinter, SeasonSummer, SeasonAutumn, SeasonSpring:
		return true
	}
	return false
}

type Undertone string

const (
	UndertoneCool    Undertone = "Cool"
	UndertoneWarm    Undertone = "Warm"
	UndertoneNeutral Undertone = "Neutral"
)

func (u *Undertone) Scan(value interface{}) error {
	v, err := scanString(value)
	*u = Undertone(v)
	return err
}

func (u Undertone) Value() (driver.Value, error) {
	return string(u), nil
}

func ValidateUndertone(fl validator.FieldLevel) bool {
	return ValidateUndertoneRaw(fl.Field().String())
}

func ValidateUndertoneRaw(value string) bool {
	switch Undertone(value) {
	case UndertoneCool, UndertoneWarm, UndertoneNeutral:
		return true
	}
	return false
}
