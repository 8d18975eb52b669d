package tasks

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"wardrobeapi/dbhelper"
	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/test"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedTryOn(t *testing.T, db *gorm.DB, storage *test.StorageMock) models.TryOnJob {
	user := test.FakeUser(db)
	top := test.FakeGarment(db, user.ID, "Navy Tee", models.CategoryTop)
	bottom := test.FakeGarment(db, user.ID, "Black Jeans", models.CategoryBottom)
	storage.Put(*top.ImageKey, test.GarmentPhoto(16, 16, color.RGBA{B: 128, A: 255}))
	storage.Put(*bottom.ImageKey, test.GarmentPhoto(16, 16, color.RGBA{A: 255}))
	storage.Put("bodies/1/me.jpg", test.GarmentPhoto(16, 32, color.RGBA{R: 200, G: 150, B: 100, A: 255}))

	job := models.TryOnJob{
		UserAccountID: user.ID,
		TopID:         &top.ID,
		BottomID:      &bottom.ID,
		Status:        models.TryOnPending,
		BodyImageKey:  "bodies/1/me.jpg",
	}
	require.NoError(t, db.Create(&job).Error)
	return job
}

func TestHandleTryOnGenerationTask(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	storage := test.NewStorageMock()
	job := seedTryOn(t, db, storage)
	llm := &test.LLMMock{}

	task, _ := NewTryOnGenerationTask(job.ID)
	require.NoError(t, HandleTryOnGenerationTask(context.Background(), task, db, llm, storage))

	var saved models.TryOnJob
	require.NoError(t, db.First(&saved, job.ID).Error)
	assert.Equal(t, models.TryOnSuccess, saved.Status)
	require.NotNil(t, saved.ResultImageKey)
	assert.Contains(t, storage.Uploads, *saved.ResultImageKey)
	assert.Equal(t, int32(1390), *saved.LLMTotalTokenCount)
	assert.Equal(t, services.Flash25Image.String(), *saved.LLMModel)
	assert.NotNil(t, saved.Duration)
	assert.Len(t, llm.TryOnGarments, 2)

	// a finished job is not generated twice
	require.NoError(t, HandleTryOnGenerationTask(context.Background(), task, db, llm, storage))
	assert.Len(t, llm.TryOnGarments, 2)
}

func TestHandleTryOnGenerationTaskNoPerson(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	storage := test.NewStorageMock()
	job := seedTryOn(t, db, storage)
	llm := &test.LLMMock{TryOnErr: errors.New("no person detected"), TryOnText: services.NoPersonResponse}

	task, _ := NewTryOnGenerationTask(job.ID)
	err := HandleTryOnGenerationTask(context.Background(), task, db, llm, storage)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var saved models.TryOnJob
	require.NoError(t, db.First(&saved, job.ID).Error)
	assert.Equal(t, models.TryOnFailed, saved.Status)
	assert.Equal(t, noPersonMessage, *saved.ErrorMessage)
	assert.Nil(t, saved.ResultImageKey)
}

func TestHandleTryOnGenerationTaskMissingBodyPhoto(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	storage := test.NewStorageMock()
	job := seedTryOn(t, db, storage)
	db.Model(&job).Update("body_image_key", "bodies/1/gone.jpg")

	task, _ := NewTryOnGenerationTask(job.ID)
	err := HandleTryOnGenerationTask(context.Background(), task, db, &test.LLMMock{}, storage)
	require.Error(t, err)

	var saved models.TryOnJob
	require.NoError(t, db.First(&saved, job.ID).Error)
	// download failures are retried
	assert.Equal(t, models.TryOnRunning, saved.Status)
	assert.Equal(t, 1, saved.RetryTimes)
}
