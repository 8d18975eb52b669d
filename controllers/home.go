package controllers

import (
	"net/http"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/sustainability"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type HomeOut struct {
	Greeting      string                       `json:"greeting"`
	Date          string                       `json:"date"`
	Time          string                       `json:"time"`
	Weather       models.WeatherContext        `json:"weather"`
	Speech        string                       `json:"speech"`
	GreenPoints   int                          `json:"green_points"`
	WardrobeCount int64                        `json:"wardrobe_count"`
	Impact        sustainability.ImpactSummary `json:"impact"`
	TodaysOutfit  *ScheduledOutfitOut          `json:"todays_outfit"`
}

type HomeController struct {
	Media   Media
	Engine  *sustainability.Engine
	Weather services.WeatherProvider
}

func (controller *HomeController) HomeRoutes(g *echo.Group) {
	g.GET("", controller.Home)
}

func greetingFor(hour int) string {
	switch {
	case hour < 12:
		return "Good Morning"
	case hour < 17:
		return "Good Afternoon"
	default:
		return "Good Evening"
	}
}

// todaysOutfit returns the first reminder-enabled outfit planned for today and
// marks today's reminders delivered, the home screen shows it in place of a push.
func todaysOutfit(db *gorm.DB, userID uint, now time.Time) (*models.ScheduledOutfit, error) {
	var items []models.ScheduledOutfit
	err := db.Preload("Top").Preload("Bottom").
		Scopes(models.ScheduledOn(now)).
		Where("user_account_id = ? AND notify_on_day = ?", userID, true).
		Order("id").Find(&items).Error
	if err != nil || len(items) == 0 {
		return nil, err
	}
	ids := make([]uint, 0, len(items))
	for _, s := range items {
		ids = append(ids, s.ID)
	}
	if err := db.Model(&models.ScheduledOutfit{}).Where("id IN ?", ids).Update("is_notified", true).Error; err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (controller *HomeController) Home(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	ctx := c.Request().Context()

	now := time.Now().In(user.Location())
	weather := models.UnavailableWeather(user.City)
	if controller.Weather != nil {
		weather = controller.Weather.Context(ctx, user.City)
	}

	var wardrobeCount int64
	db.Model(&models.Garment{}).Where("owner_id = ? AND is_active = ?", user.ID, true).Count(&wardrobeCount)

	impact, err := controller.Engine.Summary(ctx, user.ID, now.Format("2006-01"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load your impact"})
	}

	out := HomeOut{
		Greeting:      greetingFor(now.Hour()),
		Date:          now.Format("Monday, Jan 02"),
		Time:          now.Format("3:04 PM"),
		Weather:       weather,
		Speech:        services.WeatherSpeech(weather),
		GreenPoints:   user.GreenPoints,
		WardrobeCount: wardrobeCount,
		Impact:        impact,
	}
	scheduled, err := todaysOutfit(db, user.ID, now)
	if err != nil {
		c.Logger().Errorf("[Home] todays outfit for user %d: %v", user.ID, err)
	}
	if scheduled != nil {
		item := scheduledOut(ctx, controller.Media, *scheduled)
		out.TodaysOutfit = &item
	}
	return c.JSON(http.StatusOK, out)
}
