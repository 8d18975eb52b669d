package controllers

import (
	"fmt"
	"net/http"

	"wardrobeapi/models"
	"wardrobeapi/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type TryOnStatusOut struct {
	Status   models.TryOnStatus `json:"status"`
	JobID    uint               `json:"job_id"`
	ImageURL *string            `json:"image_url"`
	Error    *string            `json:"error"`
}

type TryOnController struct {
	Media Media
}

func (controller *TryOnController) TryOnRoutes(g *echo.Group) {
	g.POST("", controller.StartTryOn)
	g.GET("/:id", controller.TryOnStatus)
}

// ownsGarments reports whether every non nil id is an active garment of the user.
func ownsGarments(db *gorm.DB, userID uint, ids ...*uint) bool {
	var want []uint
	for _, id := range ids {
		if id != nil {
			want = append(want, *id)
		}
	}
	if len(want) == 0 {
		return true
	}
	var count int64
	db.Model(&models.Garment{}).Where("id IN ? AND owner_id = ? AND is_active = ?", want, userID, true).Count(&count)
	return int(count) == len(want)
}

func (controller *TryOnController) StartTryOn(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	asynqClient, ok := c.Get("__asynqclient").(tasks.Enqueuer)
	if !ok || asynqClient == nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Service is not available, please try again a bit later"})
	}

	var req models.TryOnIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if user.FullBodyImageKey == nil || *user.FullBodyImageKey == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Please upload a full body photo first!"})
	}
	if req.TopID == nil && req.BottomID == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Select at least a top or bottom."})
	}
	if !ownsGarments(db, user.ID, req.TopID, req.BottomID) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Garment not found"})
	}

	job := models.TryOnJob{
		UserAccountID: user.ID,
		TopID:         req.TopID,
		BottomID:      req.BottomID,
		Status:        models.TryOnPending,
		BodyImageKey:  *user.FullBodyImageKey,
	}
	if err := db.Create(&job).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to start the try-on"})
	}

	task, err := tasks.NewTryOnGenerationTask(job.ID)
	if err == nil {
		_, err = tasks.EnqueueGenerate(asynqClient, task)
	}
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[TryOn: %d] %w", job.ID, err))
		db.Model(&job).Updates(map[string]interface{}{"status": models.TryOnFailed, "error_message": "Could not queue the try-on"})
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not start the try-on, please try again"})
	}

	return c.JSON(http.StatusAccepted, echo.Map{"status": "processing", "job_id": job.ID})
}

func (controller *TryOnController) TryOnStatus(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid job id"})
	}

	var job models.TryOnJob
	if err := db.Where("id = ? AND user_account_id = ?", id, user.ID).First(&job).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Try-on not found"})
	}

	out := TryOnStatusOut{Status: job.Status, JobID: job.ID, Error: job.ErrorMessage}
	if job.Status == models.TryOnSuccess {
		out.ImageURL = controller.Media.ReadURL(c.Request().Context(), job.ResultImageKey)
	}
	return c.JSON(http.StatusOK, out)
}
