package wardrobe

import (
	"context"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/stylist"

	"gorm.io/gorm"
)

// ActiveGarments loads the garments a user can still wear.
func ActiveGarments(db *gorm.DB, userID uint) ([]models.Garment, error) {
	var garments []models.Garment
	err := db.Where("owner_id = ? AND is_active = ?", userID, true).Order("id").Find(&garments).Error
	return garments, err
}

type Recommender struct {
	DB       *gorm.DB
	Composer *stylist.Composer
	// Weather is optional, without it the stylist runs on the unavailable reading.
	Weather           services.WeatherProvider
	AdvancedAvailable bool
}

type Options struct {
	Mood           string
	LockedTopID    *uint
	LockedBottomID *uint
}

type Recommendation struct {
	stylist.RecommendationResult
	Weather  models.WeatherContext `json:"weather"`
	Advanced bool                  `json:"advanced"`
}

func (r *Recommender) Recommend(ctx context.Context, user models.UserAccount, opts Options) (Recommendation, error) {
	garments, err := ActiveGarments(r.DB, user.ID)
	if err != nil {
		return Recommendation{}, err
	}

	mood := opts.Mood
	if mood == "" {
		mood = stylist.MoodCasual
	}
	weather := models.UnavailableWeather(user.City)
	if r.Weather != nil {
		weather = r.Weather.Context(ctx, user.City)
	}
	advanced := r.AdvancedAvailable && user.AdvancedStylistEnabled

	result := r.Composer.Compose(garments, stylist.RecommendationRequest{
		Mood:           mood,
		LockedTopID:    opts.LockedTopID,
		LockedBottomID: opts.LockedBottomID,
		Advanced:       advanced,
		Season:         user.Season,
		Weather:        &weather,
	})
	return Recommendation{RecommendationResult: result, Weather: weather, Advanced: advanced}, nil
}
