package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"wardrobeapi/languageutil"
	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/stylist"
	"wardrobeapi/sustainability"
	"wardrobeapi/wardrobe"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type RecommendationOut struct {
	Mood          string                `json:"mood"`
	Top           *GarmentOut           `json:"top"`
	Bottom        *GarmentOut           `json:"bottom"`
	TopLocked     bool                  `json:"top_locked"`
	BottomLocked  bool                  `json:"bottom_locked"`
	GuiltMessages stylist.GuiltMessages `json:"guilt_messages"`
	Weather       models.WeatherContext `json:"weather"`
	Speech        string                `json:"speech"`
	Advanced      bool                  `json:"advanced"`
}

type OutfitOut struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	TopID     *uint   `json:"top_id"`
	BottomID  *uint   `json:"bottom_id"`
	ImageURL  *string `json:"image_url"`
	CreatedAt string  `json:"created_at"`
}

type OutfitController struct {
	Media       Media
	Engine      *sustainability.Engine
	Recommender *wardrobe.Recommender
}

func (controller *OutfitController) OutfitRoutes(g *echo.Group) {
	g.GET("/recommend", controller.Recommend)
	g.POST("/wear", controller.WearOutfit)
	g.POST("", controller.SaveOutfit)
	g.GET("", controller.Lookbook)
}

// lockedID reads a frozen slot, e.g. freeze_top=1&top_id=4.
func lockedID(c echo.Context, freezeParam, idParam string) *uint {
	if c.QueryParam(freezeParam) != "1" && !strings.EqualFold(c.QueryParam(freezeParam), "true") {
		return nil
	}
	id, err := strconv.ParseUint(c.QueryParam(idParam), 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	v := uint(id)
	return &v
}

func (controller *OutfitController) garmentOut(c echo.Context, g *models.Garment, season models.Season) *GarmentOut {
	if g == nil {
		return nil
	}
	out := garmentOut(*g, controller.Media.ReadURL(c.Request().Context(), g.DisplayImageKey()), season)
	return &out
}

func (controller *OutfitController) Recommend(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)

	rec, err := controller.Recommender.Recommend(c.Request().Context(), user, wardrobe.Options{
		Mood:           c.QueryParam("mood"),
		LockedTopID:    lockedID(c, "freeze_top", "top_id"),
		LockedBottomID: lockedID(c, "freeze_bottom", "bottom_id"),
	})
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Recommend] user %d: %w", user.ID, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not build an outfit right now"})
	}

	return c.JSON(http.StatusOK, RecommendationOut{
		Mood:          rec.Mood,
		Top:           controller.garmentOut(c, rec.Top, user.Season),
		Bottom:        controller.garmentOut(c, rec.Bottom, user.Season),
		TopLocked:     rec.TopLocked,
		BottomLocked:  rec.BottomLocked,
		GuiltMessages: rec.GuiltMessages,
		Weather:       rec.Weather,
		Speech:        services.WeatherSpeech(rec.Weather),
		Advanced:      rec.Advanced,
	})
}

// WearOutfit registers a wear for each garment of the confirmed outfit, all or nothing.
func (controller *OutfitController) WearOutfit(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)

	var req models.WearConfirmIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	var ids []uint
	for _, id := range []*uint{req.TopID, req.BottomID} {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	if len(ids) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Select at least a top or bottom."})
	}

	result, err := controller.Engine.RegisterWears(c.Request().Context(), user.ID, ids...)
	if errors.Is(err, sustainability.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Garment not found"})
	}
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[WearOutfit] garments %v user %d: %w", ids, user.ID, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not register the wear, please try again"})
	}
	pointsAdded, totalPoints := result.PointsAdded, result.TotalPoints

	return c.JSON(http.StatusOK, echo.Map{
		"message":      fmt.Sprintf("Great choice! +%d Green Points added.", pointsAdded),
		"points_added": pointsAdded,
		"total_points": totalPoints,
	})
}

func (controller *OutfitController) SaveOutfit(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var req models.OutfitSaveIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if req.TryOnJobID == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No image to save!"})
	}

	var job models.TryOnJob
	err := db.Where("id = ? AND user_account_id = ?", *req.TryOnJobID, user.ID).First(&job).Error
	if err != nil || job.Status != models.TryOnSuccess || job.ResultImageKey == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No image to save!"})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = languageutil.RandomOutfitName()
	}
	outfit := models.Outfit{
		UserAccountID: user.ID,
		Name:          name,
		TopID:         job.TopID,
		BottomID:      job.BottomID,
		TryOnJobID:    &job.ID,
		ImageKey:      job.ResultImageKey,
	}
	if err := db.Create(&outfit).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save the outfit"})
	}
	fmt.Printf("[Outfit: %v] Saved to lookbook of user %v\n", outfit.ID, user.ID)

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Outfit saved to Lookbook!",
		"outfit":  controller.outfitOut(c, outfit),
	})
}

func (controller *OutfitController) outfitOut(c echo.Context, o models.Outfit) OutfitOut {
	return OutfitOut{
		ID:        o.ID,
		Name:      o.Name,
		TopID:     o.TopID,
		BottomID:  o.BottomID,
		ImageURL:  controller.Media.ReadURL(c.Request().Context(), o.ImageKey),
		CreatedAt: o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func (controller *OutfitController) Lookbook(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var outfits []models.Outfit
	if err := db.Where("user_account_id = ?", user.ID).Order("created_at DESC").Order("id DESC").Find(&outfits).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load your lookbook"})
	}
	out := make([]OutfitOut, 0, len(outfits))
	for _, o := range outfits {
		out = append(out, controller.outfitOut(c, o))
	}
	return c.JSON(http.StatusOK, echo.Map{"outfits": out})
}
