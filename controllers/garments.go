package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/stylist"
	"wardrobeapi/sustainability"
	"wardrobeapi/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	defaultGarmentPageSize = 200
	maxGarmentPageSize     = 500
)

type GarmentOut struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Category      models.Category `json:"category"`
	ImageURL      *string         `json:"image_url"`
	PurchasePrice float64         `json:"purchase_price"`
	WearCount     int             `json:"wear_count"`
	CostPerWear   float64         `json:"cost_per_wear"`
	ColorHex      string          `json:"color_hex"`
	ColorName     string          `json:"color_name"`
	ColorGroup    string          `json:"color_group"`
	FabricType    *models.Fabric  `json:"fabric_type"`
	AIStatus      models.AIStatus `json:"ai_status"`
	SeasonMatch   bool            `json:"season_match"`
	SeasonReason  string          `json:"season_reason"`
}

type GarmentDetailOut struct {
	GarmentOut
	DetectedMaterial *string                      `json:"detected_material"`
	LastWorn         *string                      `json:"last_worn"`
	BreakEvenStatus  int                          `json:"break_even_status"`
	AIErrorMessage   *string                      `json:"ai_error_message"`
	EcoImpact        sustainability.GarmentImpact `json:"eco_impact"`
}

type GarmentCreatedOut struct {
	Garment   GarmentOut `json:"garment"`
	UploadUrl string     `json:"upload_url"`
}

type GarmentListOut struct {
	Garments   []GarmentOut                     `json:"garments"`
	Categories map[models.Category][]GarmentOut `json:"categories"`
	TotalCount int                              `json:"total_count"`
	TotalValue float64                          `json:"total_value"`
	Currency   string                           `json:"currency"`
}

func garmentOut(g models.Garment, imageURL *string, season models.Season) GarmentOut {
	match, reason := stylist.SeasonMatch(g.ColorHex, season)
	return GarmentOut{
		ID:            g.ID,
		Name:          g.Name,
		Category:      g.Category,
		ImageURL:      imageURL,
		PurchasePrice: g.PurchasePrice,
		WearCount:     g.WearCount,
		CostPerWear:   stylist.CostPerWear(g.PurchasePrice, g.WearCount),
		ColorHex:      g.ColorHex,
		ColorName:     stylist.NearestColorName(g.ColorHex),
		ColorGroup:    stylist.ColorGroup(g.ColorHex),
		FabricType:    g.FabricType,
		AIStatus:      g.AIStatus,
		SeasonMatch:   match,
		SeasonReason:  reason,
	}
}

type filterClause struct {
	sql  string
	args []interface{}
}

// quick filter chips of the wardrobe screen, several chips widen the result
var garmentFilterTags = map[string]filterClause{
	"shorts": {"LOWER(name) LIKE ?", []interface{}{"%short%"}},
	"pants":  {"LOWER(name) LIKE ? OR LOWER(name) LIKE ?", []interface{}{"%pant%", "%trouser%"}},
	"tops":   {"category IN ?", []interface{}{[]string{string(models.CategoryTop), string(models.CategoryLayer)}}},
	"graphic": {
		"LOWER(detected_material) LIKE ? OR LOWER(detected_material) LIKE ? OR LOWER(name) LIKE ?",
		[]interface{}{"%graphic%", "%logo%", "%graphic%"},
	},
	"jeans": {"LOWER(name) LIKE ? OR fabric_type = ?", []interface{}{"%jean%", string(models.FabricDenim)}},
}

type GarmentController struct {
	Media  Media
	Engine *sustainability.Engine
	Config services.StylistConfig
}

func (controller *GarmentController) GarmentRoutes(g *echo.Group) {
	g.POST("", controller.CreateGarment)
	g.GET("", controller.ListGarments)
	g.GET("/:id", controller.GarmentDetail)
	g.PATCH("/:id", controller.UpdateFabric)
	g.PUT("/:id/uploaded", controller.SetAsUploaded)
	g.POST("/:id/wear", controller.Wear)
	g.POST("/:id/discard", controller.Discard)
}

func pathID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func findOwnedGarment(db *gorm.DB, id, userID uint) (*models.Garment, error) {
	var garment models.Garment
	if err := db.Where("id = ? AND owner_id = ?", id, userID).First(&garment).Error; err != nil {
		return nil, err
	}
	return &garment, nil
}

func (controller *GarmentController) CreateGarment(c echo.Context) error {
	var req models.GarmentCreateIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if !services.AllowedImageExtension(req.FileName) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Please upload a JPEG, PNG or WEBP photo"})
	}

	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	key := uploadKey("garments", req.FileName)
	uploadUrl, err := controller.Media.Storage.PresignUpload(c.Request().Context(), key)
	if err != nil {
		log.Printf("Unable to presign garment upload for user %v: %s", user.ID, err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error while preparing your upload, please try again"})
	}

	garment := models.Garment{
		OwnerID:       user.ID,
		Name:          strings.TrimSpace(req.Name),
		Category:      models.CategoryTop,
		PurchasePrice: req.PurchasePrice,
		IsActive:      true,
		AIStatus:      models.AIStatusPending,
		ImageKey:      &key,
	}
	if req.FabricType != nil {
		fabric := models.Fabric(*req.FabricType)
		garment.FabricType = &fabric
	}
	if err := db.Create(&garment).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save the garment"})
	}
	fmt.Printf("[Garment: %v] Created for user %v, waiting for upload %s\n", garment.ID, user.ID, key)

	return c.JSON(http.StatusCreated, GarmentCreatedOut{
		Garment:   garmentOut(garment, nil, user.Season),
		UploadUrl: uploadUrl,
	})
}

// SetAsUploaded starts classification once the client finished the photo upload.
func (controller *GarmentController) SetAsUploaded(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	asynqClient, ok := c.Get("__asynqclient").(tasks.Enqueuer)
	if !ok || asynqClient == nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Service is not available, please try again a bit later"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid garment id"})
	}
	garment, err := findOwnedGarment(db, id, user.ID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Garment not found"})
	}
	if garment.AIStatus == models.AIStatusProcessing || garment.AIStatus == models.AIStatusComplete {
		return c.JSON(http.StatusOK, map[string]string{"message": "Garment is already processed", "ai_status": string(garment.AIStatus)})
	}

	task, err := tasks.NewGarmentProcessTask(garment.ID)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not process garment, please try again"})
	}
	if _, err := tasks.EnqueueGenerate(asynqClient, task); err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not process garment, please try again"})
	}
	db.Model(garment).Updates(map[string]interface{}{"ai_status": models.AIStatusPending, "process_retries": 0})
	return c.JSON(http.StatusOK, map[string]string{"message": "Garment is being processed", "ai_status": string(models.AIStatusPending)})
}

func pageParams(c echo.Context) (int, int) {
	limit := defaultGarmentPageSize
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		limit = min(max(v, 1), maxGarmentPageSize)
	}
	offset := 0
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil {
		offset = max(v, 0)
	}
	return limit, offset
}

func (controller *GarmentController) ListGarments(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	query := db.Model(&models.Garment{}).Where("owner_id = ? AND is_active = ?", user.ID, true)
	if q := strings.ToLower(strings.TrimSpace(c.QueryParam("q"))); q != "" {
		like := "%" + q + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(category) LIKE ?", like, like)
	}
	if category := strings.TrimSpace(c.QueryParam("category")); category != "" && !strings.EqualFold(category, "all") {
		query = query.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	var clauses []string
	var args []interface{}
	for _, tag := range c.QueryParams()["filter"] {
		if fc, ok := garmentFilterTags[strings.ToLower(tag)]; ok {
			clauses = append(clauses, "("+fc.sql+")")
			args = append(args, fc.args...)
		}
	}
	if len(clauses) > 0 {
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}

	var garments []models.Garment
	if err := query.Order("created_at DESC").Order("id DESC").Find(&garments).Error; err != nil {
		log.Println("[Garments] list failed", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load your wardrobe"})
	}

	if group := strings.TrimSpace(c.QueryParam("color")); group != "" && !strings.EqualFold(group, "all") {
		filtered := garments[:0]
		for _, g := range garments {
			if strings.EqualFold(stylist.ColorGroup(g.ColorHex), group) {
				filtered = append(filtered, g)
			}
		}
		garments = filtered
	}

	var totalValue float64
	db.Model(&models.Garment{}).Where("owner_id = ? AND is_active = ?", user.ID, true).
		Select("COALESCE(SUM(purchase_price), 0)").Scan(&totalValue)

	total := len(garments)
	limit, offset := pageParams(c)
	start := min(offset, total)
	end := min(start+limit, total)
	page := garments[start:end]

	urls := controller.Media.GarmentURLs(c.Request().Context(), page)
	out := GarmentListOut{
		Garments:   make([]GarmentOut, 0, len(page)),
		Categories: map[models.Category][]GarmentOut{},
		TotalCount: total,
		TotalValue: totalValue,
		Currency:   controller.Config.Currency,
	}
	for i, g := range page {
		item := garmentOut(g, urls[i], user.Season)
		out.Garments = append(out.Garments, item)
		out.Categories[g.Category] = append(out.Categories[g.Category], item)
	}
	return c.JSON(http.StatusOK, out)
}

func (controller *GarmentController) GarmentDetail(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid garment id"})
	}
	garment, err := findOwnedGarment(db, id, user.ID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Garment not found"})
	}

	var lastWorn *string
	if garment.LastWorn != nil {
		lastWorn = StrPointer(garment.LastWorn.UTC().Format(time.DateOnly))
	}
	imageURL := controller.Media.ReadURL(c.Request().Context(), garment.DisplayImageKey())
	return c.JSON(http.StatusOK, echo.Map{
		"garment": GarmentDetailOut{
			GarmentOut:       garmentOut(*garment, imageURL, user.Season),
			DetectedMaterial: garment.DetectedMaterial,
			LastWorn:         lastWorn,
			BreakEvenStatus:  stylist.BreakEvenPct(garment.WearCount, controller.Engine.TargetWears),
			AIErrorMessage:   garment.AIErrorMessage,
			EcoImpact:        controller.Engine.GarmentImpact(*garment),
		},
	})
}

func (controller *GarmentController) UpdateFabric(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid garment id"})
	}
	var req models.GarmentFabricIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown fabric type"})
	}
	garment, err := findOwnedGarment(db, id, user.ID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Garment not found"})
	}
	if err := db.Model(garment).Update("fabric_type", models.Fabric(req.FabricType)).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update the garment"})
	}
	return c.JSON(http.StatusOK, echo.Map{"fabric_type": req.FabricType})
}

func (controller *GarmentController) Wear(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid garment id"})
	}
	result, err := controller.Engine.RegisterWear(c.Request().Context(), id, user.ID)
	if errors.Is(err, sustainability.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Garment not found"})
	}
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Wear] garment %d user %d: %w", id, user.ID, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not register the wear, please try again"})
	}
	return c.JSON(http.StatusOK, result)
}

func (controller *GarmentController) Discard(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing data"})
	}
	var req models.DiscardIn
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Method) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing data"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	points, err := controller.Engine.DiscardItem(c.Request().Context(), id, user.ID, req.Method)
	if errors.Is(err, sustainability.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Garment not found"})
	}
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Discard] garment %d user %d: %w", id, user.ID, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not discard the garment, please try again"})
	}
	return c.JSON(http.StatusOK, echo.Map{"points": points})
}
