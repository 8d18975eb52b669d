package models

import (
	"time"

	"gorm.io/gorm"
)

const DefaultGarmentColor = "#FFFFFF"

type AIStatus string

const (
	AIStatusPending    AIStatus = "pending"
	AIStatusProcessing AIStatus = "processing"
	AIStatusComplete   AIStatus = "complete"
	AIStatusFailed     AIStatus = "failed"
)

type DisposalMethod string

const (
	DisposalDonated  DisposalMethod = "Donated"
	DisposalRecycled DisposalMethod = "Recycled"
	DisposalResold   DisposalMethod = "Resold"
)

type Garment struct {
	JsonModel
	Owner            UserAccount `json:"-"`
	OwnerID          uint        `gorm:"index" json:"-"`
	Name             string      `json:"name"`
	Category         Category    `gorm:"index" json:"category"`
	ColorHex         string      `json:"color_hex"`
	FabricType       *Fabric     `json:"fabric_type"`
	DetectedMaterial *string     `json:"detected_material"`
	PurchasePrice    float64     `gorm:"type:decimal(10,2)" json:"purchase_price"`
	WearCount        int         `json:"wear_count"`
	LastWorn         *time.Time  `json:"last_worn"`
	IsActive         bool        `gorm:"index" json:"is_active"`
	DisposalMethod   *string     `json:"disposal_method"`

	AIStatus       AIStatus `json:"ai_status"`
	AIErrorMessage *string  `json:"ai_error_message"`
	ProcessRetries int      `json:"-"`
	// original upload and the background-whitened copy
	ImageKey          *string `json:"-"`
	ProcessedImageKey *string `json:"-"`
}

func (g *Garment) BeforeCreate(tx *gorm.DB) error {
	if g.ColorHex == "" {
		g.ColorHex = DefaultGarmentColor
	}
	return nil
}

// DisplayImageKey prefers the processed photo when there is one.
func (g Garment) DisplayImageKey() *string {
	if g.ProcessedImageKey != nil && *g.ProcessedImageKey != "" {
		return g.ProcessedImageKey
	}
	return g.ImageKey
}

// Date truncates t to a calendar day in t's location and returns it as UTC midnight,
// so stored days compare the same on every backend.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysSince counts whole calendar days from a stored day up to the local day of now.
func DaysSince(storedDay, now time.Time) int {
	return int(Date(now).Sub(Date(storedDay.UTC())).Hours() / 24)
}
