package models

import (
	"time"

	"gorm.io/gorm"
)

type TryOnStatus string

const (
	TryOnPending TryOnStatus = "pending"
	TryOnRunning TryOnStatus = "running"
	TryOnSuccess TryOnStatus = "success"
	TryOnFailed  TryOnStatus = "failed"
)

type TryOnJob struct {
	JsonModel
	UserAccountID uint        `gorm:"index" json:"-"`
	UserAccount   UserAccount `json:"-"`
	TopID         *uint       `json:"top_id"`
	Top           *Garment    `json:"-"`
	BottomID      *uint       `json:"bottom_id"`
	Bottom        *Garment    `json:"-"`
	Status        TryOnStatus `json:"status"`

	// body photo at the point of generation
	BodyImageKey   string  `json:"-"`
	ResultImageKey *string `json:"-"`
	ErrorMessage   *string `json:"error_message"`

	Duration            *float64 `json:"duration"`
	LLMModel            *string  `json:"-"`
	LLMInputTokenCount  *int32   `json:"-"`
	LLMOutputTokenCount *int32   `json:"-"`
	LLMTotalTokenCount  *int32   `json:"-"`
	RetryTimes          int      `json:"-"`
}

// Outfit is a look saved to the user's lookbook.
type Outfit struct {
	JsonModel
	UserAccountID uint      `gorm:"index" json:"-"`
	Name          string    `json:"name"`
	TopID         *uint     `json:"top_id"`
	BottomID      *uint     `json:"bottom_id"`
	TryOnJobID    *uint     `json:"try_on_job_id"`
	TryOnJob      *TryOnJob `json:"-"`
	ImageKey      *string   `json:"-"`
}

type ScheduledOutfit struct {
	JsonModel
	UserAccountID uint      `gorm:"index" json:"-"`
	Date          time.Time `gorm:"index" json:"date"`
	TopID         *uint     `json:"top_id"`
	Top           *Garment  `json:"top,omitempty"`
	BottomID      *uint     `json:"bottom_id"`
	Bottom        *Garment  `json:"bottom,omitempty"`
	Occasion      string    `json:"occasion"`

	// "ai" for a recommendation, "tryon" for a generated look
	Source      string  `json:"source"`
	ImageKey    *string `json:"-"`
	NotifyOnDay bool    `json:"notify_on_day"`
	IsNotified  bool    `json:"is_notified"`
}

// ScheduledOn limits scheduled outfits to the calendar day of t.
func ScheduledOn(t time.Time) func(db *gorm.DB) *gorm.DB {
	day := Date(t)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1))
	}
}
