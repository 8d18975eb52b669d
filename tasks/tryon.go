package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const noPersonMessage = "No person detected on your body photo, please upload a full body photo."

// downloadToTemp fetches every key concurrently into temp files, in the order given.
func downloadToTemp(ctx context.Context, storage services.StorageProvider, keys []string) ([]string, error) {
	paths := make([]string, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			data, err := storage.Download(gctx, key)
			if err != nil {
				return fmt.Errorf("download %s: %w", key, err)
			}
			path, err := services.CreateTempFile(data, filepath.Base(key))
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		removeAll(paths)
		return nil, err
	}
	return paths, nil
}

func removeAll(paths []string) {
	for _, p := range paths {
		if p != "" {
			os.Remove(p)
		}
	}
}

func tryOnResultKey(job models.TryOnJob) string {
	return fmt.Sprintf("tryons/%d/%d-%s.png", job.UserAccountID, job.ID, uuid.NewString())
}

// HandleTryOnGenerationTask renders the user's body photo wearing the chosen top and bottom.
func HandleTryOnGenerationTask(ctx context.Context, t *asynq.Task, db *gorm.DB, llm services.LLMProcessor, storage services.StorageProvider) error {
	var payload TryOnGenerationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	fmt.Printf("[TryOn: %v] Start Processing\n", payload.TryOnID)

	var job models.TryOnJob
	res := db.Preload("Top").Preload("Bottom").First(&job, payload.TryOnID)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("[TryOn: %v] not found: %w", payload.TryOnID, asynq.SkipRetry)
	}
	if res.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on retrieving try-on %v", payload.TryOnID))
		return res.Error
	}
	if job.Status == models.TryOnSuccess {
		return nil
	}

	start := time.Now()
	job.Status = models.TryOnRunning
	db.Model(&job).Update("status", job.Status)

	garmentKeys := []string{}
	for _, g := range []*models.Garment{job.Top, job.Bottom} {
		if g != nil && g.DisplayImageKey() != nil {
			garmentKeys = append(garmentKeys, *g.DisplayImageKey())
		}
	}
	if len(garmentKeys) == 0 {
		saveTryOnFail(db, job, "Selected garments have no photos", false)
		return fmt.Errorf("[TryOn: %v] no garment photos: %w", job.ID, asynq.SkipRetry)
	}

	paths, err := downloadToTemp(ctx, storage, append([]string{job.BodyImageKey}, garmentKeys...))
	if err != nil {
		saveTryOnFail(db, job, "Failed to read the photos for this try-on", true)
		sentry.CaptureException(fmt.Errorf("[TryOn: %v] Error on downloading photos: %v", job.ID, err))
		return err
	}
	defer removeAll(paths)

	model := services.Flash25Image
	response, err := llm.GenerateTryOn(ctx, paths[0], paths[1:], model)
	if err != nil {
		msg := "We could not generate this try-on, please try again"
		if response != nil && strings.Contains(response.Response, services.NoPersonResponse) {
			msg = noPersonMessage
		}
		saveTryOnFail(db, job, msg, false)
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("failure_type", "tryon_generation")
			scope.SetExtra("try_on_id", job.ID)
			sentry.CaptureException(err)
		})
		return fmt.Errorf("[TryOn: %v] generation failed: %v: %w", job.ID, err, asynq.SkipRetry)
	}

	key := tryOnResultKey(job)
	if err := storage.Upload(ctx, key, response.Images[0]); err != nil {
		saveTryOnFail(db, job, "Failed to store the generated image", true)
		sentry.CaptureException(fmt.Errorf("[TryOn: %v] Error on uploading result: %v", job.ID, err))
		return err
	}

	duration := time.Since(start).Seconds()
	modelName := model.String()
	job.Status = models.TryOnSuccess
	job.ResultImageKey = &key
	job.ErrorMessage = nil
	job.Duration = &duration
	job.LLMModel = &modelName
	job.LLMInputTokenCount = &response.InputTokenCount
	job.LLMOutputTokenCount = &response.OutputTokenCount
	job.LLMTotalTokenCount = &response.TotalTokenCount
	if err := db.Omit("Top", "Bottom").Save(&job).Error; err != nil {
		sentry.CaptureException(fmt.Errorf("[TryOn: %v] Error on saving result: %v", job.ID, err))
		return err
	}
	fmt.Printf("[TryOn: %v] Done in %.1fs\n", job.ID, duration)
	return nil
}

func saveTryOnFail(db *gorm.DB, job models.TryOnJob, msg string, shouldRetry bool) error {
	job.RetryTimes = job.RetryTimes + 1
	job.ErrorMessage = &msg
	if !shouldRetry || job.RetryTimes >= maxProcessRetries {

		job.Status = models.TryOnFailed
	}
	tx := db.Omit("Top", "Bottom").Save(&job)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Fail TryOn %v] Error on saving try-on for failed status", job.ID))
		return tx.Error
	}
	return nil
}
