package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/stylist"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type ProfileOut struct {
	ID                     uint                  `json:"id"`
	Name                   string                `json:"name"`
	Email                  string                `json:"email"`
	AvatarURL              string                `json:"avatar_url"`
	City                   string                `json:"city"`
	Timezone               string                `json:"timezone"`
	GreenPoints            int                   `json:"green_points"`
	Undertone              models.Undertone      `json:"undertone"`
	Season                 models.Season         `json:"season"`
	ContrastLevel          string                `json:"contrast_level"`
	SeasonDetails          stylist.SeasonProfile `json:"season_details"`
	Palette                []string              `json:"palette"`
	AdvancedStylistEnabled bool                  `json:"advanced_stylist_enabled"`
	AdvancedAvailable      bool                  `json:"advanced_available"`
	TelegramUsername       string                `json:"telegram_username"`
	HasBodyPhoto           bool                  `json:"has_body_photo"`
	BodyPhotoURL           *string               `json:"body_photo_url"`
}

type ProfileController struct {
	Media    Media
	Geocoder services.GeocoderProvider
	Config   services.StylistConfig
}

func (controller *ProfileController) ProfileRoutes(g *echo.Group) {
	g.GET("/me", controller.Me)
	g.PUT("/season", controller.UpdateSeason)
	g.PUT("/location", controller.UpdateLocation)
	g.PUT("/advanced", controller.ToggleAdvanced)
	g.POST("/body-photo", controller.BodyPhotoUpload)
	g.POST("/selfie", controller.SelfieUpload)
	g.PUT("/telegram", controller.LinkTelegram)
}

func (controller *ProfileController) profileOut(c echo.Context, user models.UserAccount) ProfileOut {
	hasBody := user.FullBodyImageKey != nil && *user.FullBodyImageKey != ""
	out := ProfileOut{
		ID:                     user.ID,
		Name:                   user.Name,
		Email:                  user.Email,
		AvatarURL:              user.AvatarURL,
		City:                   user.City,
		Timezone:               user.Timezone,
		GreenPoints:            user.GreenPoints,
		Undertone:              user.Undertone,
		Season:                 user.Season,
		ContrastLevel:          user.ContrastLevel,
		SeasonDetails:          stylist.SeasonDetails(user.Season),
		Palette:                stylist.Palette(user.Season),
		AdvancedStylistEnabled: controller.Config.AdvancedStylistEnabled && user.AdvancedStylistEnabled,
		AdvancedAvailable:      controller.Config.AdvancedStylistEnabled,
		TelegramUsername:       user.TelegramUsername,
		HasBodyPhoto:           hasBody,
	}
	if hasBody {
		out.BodyPhotoURL = controller.Media.ReadURL(c.Request().Context(), user.FullBodyImageKey)
	}
	return out
}

func (controller *ProfileController) Me(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	return c.JSON(http.StatusOK, controller.profileOut(c, user))
}

func storedSample(user models.UserAccount) (stylist.SkinSample, bool) {
	if user.SkinValue == nil || user.SkinSaturation == nil || user.HairContrast == nil {
		return stylist.SkinSample{}, false
	}
	return stylist.SkinSample{Value: *user.SkinValue, Saturation: *user.SkinSaturation, Contrast: *user.HairContrast}, true
}

// UpdateSeason stores the undertone and the skin sample, re-running the season
// analysis only when one of them changed.
func (controller *ProfileController) UpdateSeason(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var req models.SeasonIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	previous, hasPrevious := storedSample(user)
	sample := previous
	switch {
	case req.SelfieKey != nil && *req.SelfieKey != "":
		if !strings.HasPrefix(*req.SelfieKey, fmt.Sprintf("selfies/%d/", user.ID)) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown selfie"})
		}
		photo, err := controller.Media.Storage.Download(c.Request().Context(), *req.SelfieKey)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Selfie is not uploaded yet"})
		}
		sample, err = services.SampleSkin(photo)
		if err != nil {
			log.Printf("[Season] could not sample selfie of user %v: %v", user.ID, err)
			sample = stylist.DefaultSkinSample
		}
	case req.SkinValue != nil && req.SkinSaturation != nil && req.Contrast != nil:
		sample = stylist.SkinSample{Value: *req.SkinValue, Saturation: *req.SkinSaturation, Contrast: *req.Contrast}
	case !hasPrevious:
		sample = stylist.DefaultSkinSample
	}

	undertone := models.Undertone(req.Undertone)
	changed := !hasPrevious || sample != previous || undertone != user.Undertone || !user.Season.Known()
	if changed {
		analysis := stylist.AnalyzeSeason(sample, undertone)
		user.Undertone = undertone
		user.Season = analysis.Season
		user.ContrastLevel = analysis.ContrastLevel
		user.SkinValue = &sample.Value
		user.SkinSaturation = &sample.Saturation
		user.HairContrast = &sample.Contrast
		err := db.Model(&user).Updates(map[string]interface{}{
			"undertone":       user.Undertone,
			"season":          user.Season,
			"contrast_level":  user.ContrastLevel,
			"skin_value":      sample.Value,
			"skin_saturation": sample.Saturation,
			"hair_contrast":   sample.Contrast,
		}).Error
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save your season"})
		}
		fmt.Printf("[Season] user %v is now %s (%s)\n", user.ID, user.Season, user.ContrastLevel)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"changed":        changed,
		"season":         user.Season,
		"contrast_level": user.ContrastLevel,
		"details":        stylist.SeasonDetails(user.Season),
		"palette":        stylist.Palette(user.Season),
	})
}

func (controller *ProfileController) UpdateLocation(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var req models.LocationIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	city := ""
	if req.City != nil {
		city = strings.TrimSpace(*req.City)
	}
	if city == "" && req.Lat != nil && req.Lon != nil && controller.Geocoder != nil {
		resolved, err := controller.Geocoder.ReverseCity(c.Request().Context(), *req.Lat, *req.Lon)
		if err != nil {
			log.Printf("[Location] reverse geocoding failed for user %v: %v", user.ID, err)
		}
		city = strings.TrimSpace(resolved)
	}
	if city == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unable to resolve city."})
	}

	updates := map[string]interface{}{"city": city}
	timezone := user.Timezone
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown timezone"})
		}
		timezone = *req.Timezone
		updates["timezone"] = timezone
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save your location"})
	}
	return c.JSON(http.StatusOK, echo.Map{"city": city, "timezone": timezone})
}

func (controller *ProfileController) ToggleAdvanced(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var req models.ToggleIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	available := controller.Config.AdvancedStylistEnabled
	if !available {
		return c.JSON(http.StatusOK, echo.Map{"enabled": false, "available": false})
	}
	if err := db.Model(&user).Update("advanced_stylist_enabled", *req.Enabled).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update the stylist mode"})
	}
	return c.JSON(http.StatusOK, echo.Map{"enabled": *req.Enabled, "available": true})
}

func (controller *ProfileController) presignPhoto(c echo.Context, prefix string) (models.PhotoUploadOut, error) {
	var req models.PhotoUploadIn
	if err := c.Bind(&req); err != nil {
		return models.PhotoUploadOut{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return models.PhotoUploadOut{}, err
	}
	if !services.AllowedImageExtension(req.FileName) {
		return models.PhotoUploadOut{}, echo.NewHTTPError(http.StatusBadRequest, "Please upload a JPEG, PNG or WEBP photo")
	}
	key := uploadKey(prefix, req.FileName)
	url, err := controller.Media.Storage.PresignUpload(c.Request().Context(), key)
	if err != nil {
		sentry.CaptureException(err)
		return models.PhotoUploadOut{}, echo.NewHTTPError(http.StatusInternalServerError, "Error while preparing your upload, please try again")
	}
	return models.PhotoUploadOut{FileKey: key, UploadUrl: url}, nil
}

func httpErrorJSON(c echo.Context, err error) error {
	if he, ok := err.(*echo.HTTPError); ok {
		return c.JSON(he.Code, map[string]interface{}{"error": he.Message})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// BodyPhotoUpload presigns the full body photo used by every later try-on.
func (controller *ProfileController) BodyPhotoUpload(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	out, err := controller.presignPhoto(c, fmt.Sprintf("bodies/%d", user.ID))
	if err != nil {
		return httpErrorJSON(c, err)
	}
	if err := db.Model(&user).Update("full_body_image_key", out.FileKey).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save your photo"})
	}
	return c.JSON(http.StatusOK, out)
}

func (controller *ProfileController) SelfieUpload(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	out, err := controller.presignPhoto(c, fmt.Sprintf("selfies/%d", user.ID))
	if err != nil {
		return httpErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (controller *ProfileController) LinkTelegram(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var req models.TelegramLinkIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	username := strings.TrimPrefix(strings.TrimSpace(req.Username), "@")
	if username != "" {
		var taken int64
		db.Model(&models.UserAccount{}).Where("LOWER(telegram_username) = ? AND id <> ?", strings.ToLower(username), user.ID).Count(&taken)
		if taken > 0 {
			return c.JSON(http.StatusConflict, map[string]string{"error": "This Telegram account is linked to another user"})
		}
	}
	if err := db.Model(&user).Update("telegram_username", username).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to link Telegram"})
	}
	return c.JSON(http.StatusOK, echo.Map{"telegram_username": username})
}
