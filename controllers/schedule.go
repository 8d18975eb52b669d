package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wardrobeapi/models"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	SourceAI     = "ai"
	SourceTryOn  = "tryon"
	SourceManual = "manual"
)

type ScheduledOutfitOut struct {
	ID             uint    `json:"id"`
	Date           string  `json:"date"`
	TopID          *uint   `json:"top_id"`
	TopName        *string `json:"top_name"`
	TopImageURL    *string `json:"top_image_url"`
	BottomID       *uint   `json:"bottom_id"`
	BottomName     *string `json:"bottom_name"`
	BottomImageURL *string `json:"bottom_image_url"`
	ImageURL       *string `json:"image_url"`
	Occasion       string  `json:"occasion"`
	Source         string  `json:"source"`
	NotifyOnDay    bool    `json:"notify_on_day"`
}

type ScheduleController struct {
	Media Media
}

func (controller *ScheduleController) ScheduleRoutes(g *echo.Group) {
	g.POST("", controller.CreateSchedule)
	g.GET("", controller.ListSchedule)
	g.DELETE("/:id", controller.DeleteSchedule)
	g.PUT("/:id/notify", controller.ToggleNotify)
}

func scheduledOut(ctx context.Context, media Media, s models.ScheduledOutfit) ScheduledOutfitOut {
	out := ScheduledOutfitOut{
		ID:          s.ID,
		Date:        s.Date.UTC().Format(time.DateOnly),
		TopID:       s.TopID,
		BottomID:    s.BottomID,
		ImageURL:    media.ReadURL(ctx, s.ImageKey),
		Occasion:    s.Occasion,
		Source:      s.Source,
		NotifyOnDay: s.NotifyOnDay,
	}
	if s.Top != nil {
		out.TopName = StrPointer(s.Top.Name)
		out.TopImageURL = media.ReadURL(ctx, s.Top.DisplayImageKey())
	}
	if s.Bottom != nil {
		out.BottomName = StrPointer(s.Bottom.Name)
		out.BottomImageURL = media.ReadURL(ctx, s.Bottom.DisplayImageKey())
	}
	return out
}

func (controller *ScheduleController) CreateSchedule(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var req models.ScheduleIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if strings.TrimSpace(req.ScheduledDate) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Please select a date."})
	}
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(req.ScheduledDate))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid date format."})
	}
	today := models.Date(time.Now().In(user.Location()))
	if day.Before(today) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Scheduled date must be today or later."})
	}

	source := req.Source
	var imageKey *string
	if req.TryOnJobID != nil {
		var job models.TryOnJob
		if err := db.Where("id = ? AND user_account_id = ?", *req.TryOnJobID, user.ID).First(&job).Error; err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Try-on not found"})
		}
		if job.Status == models.TryOnSuccess {
			imageKey = job.ResultImageKey
		}
		if req.TopID == nil && req.BottomID == nil {
			req.TopID, req.BottomID = job.TopID, job.BottomID
		}
		if source == "" {
			source = SourceTryOn
		}
	}
	if source == "" {
		source = SourceAI
	}
	if req.TopID == nil && req.BottomID == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Select at least a top or bottom."})
	}
	if !ownsGarments(db, user.ID, req.TopID, req.BottomID) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Garment not found"})
	}

	notify := true
	if req.NotifyOnDay != nil {
		notify = *req.NotifyOnDay
	}
	scheduled := models.ScheduledOutfit{
		UserAccountID: user.ID,
		Date:          day,
		TopID:         req.TopID,
		BottomID:      req.BottomID,
		Occasion:      strings.TrimSpace(req.Occasion),
		Source:        source,
		ImageKey:      imageKey,
		NotifyOnDay:   notify,
	}
	if err := db.Create(&scheduled).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to schedule the outfit"})
	}
	fmt.Printf("[Schedule: %v] %s planned by user %v\n", scheduled.ID, req.ScheduledDate, user.ID)

	db.Preload("Top").Preload("Bottom").First(&scheduled, scheduled.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Outfit scheduled successfully.",
		"item":    scheduledOut(c.Request().Context(), controller.Media, scheduled),
	})
}

func (controller *ScheduleController) ListSchedule(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	now := time.Now().In(user.Location())
	start, err := time.Parse("2006-01", c.QueryParam("month"))
	if err != nil {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	end := start.AddDate(0, 1, 0)

	var items []models.ScheduledOutfit
	err = db.Preload("Top").Preload("Bottom").
		Where("user_account_id = ? AND date >= ? AND date < ?", user.ID, start, end).
		Order("date").Order("id").Find(&items).Error
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load your calendar"})
	}

	out := make([]ScheduledOutfitOut, 0, len(items))
	for _, s := range items {
		out = append(out, scheduledOut(c.Request().Context(), controller.Media, s))
	}
	return c.JSON(http.StatusOK, echo.Map{"month": start.Format("2006-01"), "items": out})
}

func (controller *ScheduleController) DeleteSchedule(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid schedule id"})
	}
	res := db.Where("id = ? AND user_account_id = ?", id, user.ID).Delete(&models.ScheduledOutfit{})
	if res.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete the schedule"})
	}
	if res.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Schedule not found"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Schedule removed."})
}

func (controller *ScheduleController) ToggleNotify(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid schedule id"})
	}
	var req models.ScheduleNotifyIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var scheduled models.ScheduledOutfit
	if err := db.Where("id = ? AND user_account_id = ?", id, user.ID).First(&scheduled).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Schedule not found"})
	}
	updates := map[string]interface{}{"notify_on_day": *req.Enabled}
	if *req.Enabled {
		// re-arm the reminder when it is switched back on
		updates["is_notified"] = false
	}
	if err := db.Model(&scheduled).Updates(updates).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update the schedule"})
	}
	return c.JSON(http.StatusOK, echo.Map{"notify_on_day": *req.Enabled})
}
