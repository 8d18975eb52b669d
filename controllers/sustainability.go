package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/sustainability"
	"wardrobeapi/wardrobe"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type ImpactItemOut struct {
	ID         uint                         `json:"id"`
	Name       string                       `json:"name"`
	ImageURL   *string                      `json:"image_url"`
	WearCount  int                          `json:"wear_count"`
	FabricType *models.Fabric               `json:"fabric_type"`
	Impact     sustainability.GarmentImpact `json:"impact"`
}

type SustainabilityController struct {
	Media  Media
	Engine *sustainability.Engine
}

func (controller *SustainabilityController) SustainabilityRoutes(g *echo.Group) {
	g.GET("", controller.Overview)
	g.POST("/achievements/claim", controller.Claim)
}

func (controller *SustainabilityController) Overview(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	ctx := c.Request().Context()

	month := c.QueryParam("month")
	start, _ := sustainability.MonthRange(month, time.Now().In(user.Location()))
	month = start.Format("2006-01")

	impact, err := controller.Engine.Summary(ctx, user.ID, month)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Sustainability] summary user %d: %w", user.ID, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load your impact"})
	}
	achievements, err := controller.Engine.Achievements(ctx, user.ID)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Sustainability] achievements user %d: %w", user.ID, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load your achievements"})
	}
	garments, err := wardrobe.ActiveGarments(db, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load your wardrobe"})
	}

	urls := controller.Media.GarmentURLs(ctx, garments)
	items := make([]ImpactItemOut, 0, len(garments))
	for i, g := range garments {
		items = append(items, ImpactItemOut{
			ID:         g.ID,
			Name:       g.Name,
			ImageURL:   urls[i],
			WearCount:  g.WearCount,
			FabricType: g.FabricType,
			Impact:     controller.Engine.GarmentImpact(g),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"month":        month,
		"impact":       impact,
		"fabric":       sustainability.FabricBreakdown(garments),
		"items":        items,
		"achievements": achievements,
	})
}

func (controller *SustainabilityController) Claim(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)

	var req models.ClaimIn
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Key) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing key"})
	}

	result, err := controller.Engine.ClaimAchievement(c.Request().Context(), user.ID, strings.TrimSpace(req.Key))
	if errors.Is(err, sustainability.ErrNotEarned) || errors.Is(err, sustainability.ErrUnknownAchievement) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Not earned"})
	}
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Claim] %s user %d: %w", req.Key, user.ID, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not claim the achievement, please try again"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"claimed":         true,
		"key":             result.Key,
		"points":          result.Points,
		"already_claimed": result.AlreadyClaimed,
		"total_points":    result.TotalPoints,
	})
}
