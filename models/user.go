package models

import "time"

type UserAccount struct {
	JsonModel
	Name   string `json:"name"`
	Email  string `json:"email" gorm:"index"`
	Banned bool   `json:"-"`
	LastIp string `json:"-"`
	//"STARTED_AUTH", "FINISHED_AUTH"
	Status           string   `json:"-"`
	GoogleID         string   `gorm:"index" json:"-"`
	AppleID          string   `gorm:"index" json:"-"`
	Platform         Platform `json:"platform"`
	TelegramUsername string   `gorm:"index" json:"telegram_username"`
	AvatarURL        string   `json:"avatar_url"`
	// Notifications settings
	ReceiveNotifications bool `json:"receive_notifications"`
	// full body photo used for try-ons
	FullBodyImageKey *string `json:"-"`

	// season profile, Season and ContrastLevel are derived
	Undertone      Undertone `json:"undertone"`
	Season         Season    `json:"season"`
	ContrastLevel  string    `json:"contrast_level"`
	SkinValue      *float64  `json:"-"`
	SkinSaturation *float64  `json:"-"`
	HairContrast   *float64  `json:"-"`
	GreenPoints    int       `json:"green_points"`

	City                   string `json:"city"`
	Timezone               string `json:"timezone"`
	AdvancedStylistEnabled bool   `json:"advanced_stylist_enabled"`

	Claims []AchievementClaim `gorm:"foreignKey:UserAccountID" json:"-"`
}

type UserPushToken struct {
	JsonModel
	UserAccountID uint
	UserAccount   UserAccount `json:"user_account"`
	Platform      Platform    `json:"platform"`
	Token         string      `json:"token"`
	Active        bool        `json:"-"`
}

type UserPushIn struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,platform"`
}

// AchievementClaim rows are append-only, one per user and achievement key.
type AchievementClaim struct {
	JsonModel
	UserAccountID uint   `gorm:"uniqueIndex:idx_claim_user_key" json:"-"`
	Key           string `gorm:"uniqueIndex:idx_claim_user_key;size:64" json:"key"`
	Points        int    `json:"points"`
}

// Location resolves the user's timezone, UTC when unset or unknown.
func (u UserAccount) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
