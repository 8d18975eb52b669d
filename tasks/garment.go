package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"wardrobeapi/languageutil"
	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/stylist"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

var classifiedColumns = []string{
	"category", "color_hex", "detected_material", "fabric_type", "name",
	"ai_status", "ai_error_message", "processed_image_key",
}

func processedImageKey(garmentID uint) string {
	return fmt.Sprintf("garments/processed/%d.jpg", garmentID)
}

// HandleGarmentProcessTask classifies an uploaded garment photo and fills in the catalog fields.
func HandleGarmentProcessTask(
	ctx context.Context, t *asynq.Task, db *gorm.DB, llm services.LLMProcessor,
	storage services.StorageProvider, cfg services.StylistConfig) error {
	var payload GarmentProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	fmt.Printf("[Garment: %v] Start Processing\n", payload.GarmentID)

	var garment models.Garment
	res := db.First(&garment, payload.GarmentID)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("[Garment: %v] not found: %w", payload.GarmentID, asynq.SkipRetry)
	}
	if res.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on retrieving garment for processing %v", payload.GarmentID))
		return res.Error
	}
	if garment.ImageKey == nil {
		saveGarmentProcessingFail(db, garment, "Garment has no photo", false)
		return fmt.Errorf("[Garment: %v] no photo to process: %w", garment.ID, asynq.SkipRetry)
	}

	garment.AIStatus = models.AIStatusProcessing
	db.Model(&garment).Update("ai_status", garment.AIStatus)

	original, err := storage.Download(ctx, *garment.ImageKey)
	if err != nil {
		saveGarmentProcessingFail(db, garment, "Failed to read the garment photo, please upload it again", true)
		sentry.CaptureException(fmt.Errorf("[Garment: %v] Error on downloading %s: %v", garment.ID, *garment.ImageKey, err))
		return err
	}
	fmt.Printf("[Garment: %v] Downloaded photo size: %d bytes\n", garment.ID, len(original))

	photo := original
	prepared, err := services.PrepareGarmentPhoto(original, !cfg.DisableBackgroundRemoval)
	if err != nil {
		fmt.Printf("[Garment: %v] Photo preparation skipped: %v\n", garment.ID, err)
	} else {
		photo = prepared
		key := processedImageKey(garment.ID)
		if err := storage.Upload(ctx, key, prepared); err != nil {
			fmt.Printf("[Garment: %v] Could not store processed photo: %v\n", garment.ID, err)
		} else {
			garment.ProcessedImageKey = &key
		}
	}

	path, err := services.CreateTempFile(photo, "garment.jpg")
	if err != nil {
		saveGarmentProcessingFail(db, garment, "Failed to prepare the garment photo", true)
		return err
	}
	defer os.Remove(path)

	classification, llmResponse, err := llm.ClassifyGarment(ctx, path, services.Flash25)
	if err != nil || classification == nil {
		saveGarmentProcessingFail(db, garment, "We could not recognise this garment, please try another photo", false)
		sentry.CaptureException(fmt.Errorf("[Garment: %v] Error on classifying: %v", garment.ID, err))
		return fmt.Errorf("[Garment: %v] classification failed: %v: %w", garment.ID, err, asynq.SkipRetry)
	}
	if llmResponse != nil {
		fmt.Printf("[Garment: %v] Classified, tokens in/out: %d/%d\n", garment.ID, llmResponse.InputTokenCount, llmResponse.OutputTokenCount)
	}

	applyClassification(&garment, *classification, photo)
	garment.AIStatus = models.AIStatusComplete
	garment.AIErrorMessage = nil
	// wear and disposal columns may have moved while the classifier ran
	err = db.Model(&garment).Select(classifiedColumns).Updates(&garment).Error
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Garment: %v] Error on saving classification: %v", garment.ID, err))
		return err
	}
	fmt.Printf("[Garment: %v] Done: %s (%s, %s)\n", garment.ID, garment.Name, garment.Category, garment.ColorHex)
	return nil
}

// applyClassification keeps what the user entered and fills the rest from the classifier.
func applyClassification(g *models.Garment, c services.GarmentClassification, photo []byte) {
	g.Category = models.NormalizeCategory(c.Category)

	hex := strings.TrimSpace(c.ColorHex)
	if rgb, ok := stylist.ParseHex(hex); ok && strings.HasPrefix(hex, "#") {
		g.ColorHex = rgb.Hex()
	} else if local, err := services.DominantCenterColor(photo); err == nil {
		g.ColorHex = local
	} else {
		g.ColorHex = models.DefaultGarmentColor
	}

	if material := strings.TrimSpace(c.Material); material != "" {
		g.DetectedMaterial = &material
		if g.FabricType == nil {
			if fabric, ok := models.ParseFabric(material); ok {
				g.FabricType = &fabric
			}
		}
	}

	if strings.TrimSpace(g.Name) == "" {
		g.Name = languageutil.TitleName(c.Name)
	}
	if g.Name == "" {
		g.Name = strings.TrimSpace(stylist.NearestColorName(g.ColorHex) + " " + string(g.Category))
	}
}

func saveGarmentProcessingFail(db *gorm.DB, garment models.Garment, msg string, shouldRetry bool) error {
	garment.ProcessRetries = garment.ProcessRetries + 1
	garment.AIErrorMessage = &msg
	if !shouldRetry || garment.ProcessRetries >= maxProcessRetries {

		garment.AIStatus = models.AIStatusFailed
	}
	tx := db.Model(&garment).Select("process_retries", "ai_error_message", "ai_status").Updates(&garment)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Fail Garment %v] Error on saving garment for failed status", garment.ID))
		return tx.Error
	}
	return nil
}
