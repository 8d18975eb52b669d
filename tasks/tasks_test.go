package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"testing"

	"wardrobeapi/dbhelper"
	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/stylist"
	"wardrobeapi/sustainability"
	"wardrobeapi/test"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGarmentProcessTask(t *testing.T) {
	task, err := NewGarmentProcessTask(42)
	require.NoError(t, err)
	assert.Equal(t, TypeGarmentProcess, task.Type())

	var payload GarmentProcessPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, uint(42), payload.GarmentID)
}

func TestEnqueueGenerate(t *testing.T) {
	queue := &test.EnqueuerMock{}
	task, err := NewTryOnGenerationTask(7)
	require.NoError(t, err)

	info, err := EnqueueGenerate(queue, task)
	require.NoError(t, err)
	assert.Equal(t, "task-1", info.ID)
	assert.Equal(t, []string{TypeTryOnGenerate}, queue.Types())

	queue.Err = errors.New("redis down")
	_, err = EnqueueGenerate(queue, task)
	assert.ErrorContains(t, err, "redis down")
}

func TestHandleGarmentProcessTask(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	user := test.FakeUser(db)
	storage := test.NewStorageMock()
	garment := test.FakeGarment(db, user.ID, "", models.CategoryTop, func(g *models.Garment) {
		g.AIStatus = models.AIStatusPending
		g.ColorHex = ""
	})
	storage.Put(*garment.ImageKey, test.GarmentPhoto(64, 64, color.RGBA{R: 0, G: 0, B: 128, A: 255}))

	llm := &test.LLMMock{Classification: &services.GarmentClassification{
		Category: "denim jeans", ColorHex: "#1f2a44", Material: "Denim blend", Name: "dark  wash jeans",
	}}
	task, _ := NewGarmentProcessTask(garment.ID)
	err := HandleGarmentProcessTask(context.Background(), task, db, llm, storage, services.StylistConfig{DisableBackgroundRemoval: true})
	require.NoError(t, err)

	var saved models.Garment
	require.NoError(t, db.First(&saved, garment.ID).Error)
	assert.Equal(t, models.AIStatusComplete, saved.AIStatus)
	assert.Equal(t, models.CategoryBottom, saved.Category)
	assert.Equal(t, "#1F2A44", saved.ColorHex)
	assert.Equal(t, "Dark Wash Jeans", saved.Name)
	require.NotNil(t, saved.FabricType)
	assert.Equal(t, models.FabricDenim, *saved.FabricType)
	assert.Equal(t, "Denim blend", *saved.DetectedMaterial)
	require.NotNil(t, saved.ProcessedImageKey)
	_, stored := storage.Object(*saved.ProcessedImageKey)
	assert.True(t, stored)
	assert.Equal(t, 1, llm.ClassifyCalls)
}

func TestHandleGarmentProcessTaskKeepsUserInput(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	user := test.FakeUser(db)
	storage := test.NewStorageMock()
	wool := models.FabricWool
	garment := test.FakeGarment(db, user.ID, "Grandma's Cardigan", models.CategoryTop, func(g *models.Garment) {
		g.AIStatus = models.AIStatusPending
		g.FabricType = &wool
	})
	storage.Put(*garment.ImageKey, test.GarmentPhoto(64, 64, color.RGBA{R: 200, G: 0, B: 0, A: 255}))

	// no usable hex, the color comes from the photo itself
	llm := &test.LLMMock{Classification: &services.GarmentClassification{Category: "sweater", ColorHex: "red", Material: "cotton"}}
	task, _ := NewGarmentProcessTask(garment.ID)
	require.NoError(t, HandleGarmentProcessTask(context.Background(), task, db, llm, storage, services.StylistConfig{DisableBackgroundRemoval: true}))

	var saved models.Garment
	require.NoError(t, db.First(&saved, garment.ID).Error)
	assert.Equal(t, "Grandma's Cardigan", saved.Name)
	assert.Equal(t, models.CategoryLayer, saved.Category)
	assert.Equal(t, models.FabricWool, *saved.FabricType)
	assert.Equal(t, "Red", stylist.NearestColorName(saved.ColorHex))
}

func TestHandleGarmentProcessTaskKeepsConcurrentWearAndDiscard(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	user := test.FakeUser(db)
	storage := test.NewStorageMock()
	garment := test.FakeGarment(db, user.ID, "", models.CategoryTop, func(g *models.Garment) {
		g.AIStatus = models.AIStatusPending
	})
	storage.Put(*garment.ImageKey, test.GarmentPhoto(32, 32, color.RGBA{R: 0, G: 0, B: 128, A: 255}))

	engine := sustainability.NewEngine(db, 30, sustainability.DefaultFactors())
	llm := &test.LLMMock{OnClassify: func() {
		_, err := engine.RegisterWear(context.Background(), garment.ID, user.ID)
		require.NoError(t, err)
		points, err := engine.DiscardItem(context.Background(), garment.ID, user.ID, "Recycled")
		require.NoError(t, err)
		require.Equal(t, 150, points)
	}}
	task, _ := NewGarmentProcessTask(garment.ID)
	require.NoError(t, HandleGarmentProcessTask(context.Background(), task, db, llm, storage, services.StylistConfig{DisableBackgroundRemoval: true}))

	var saved models.Garment
	require.NoError(t, db.First(&saved, garment.ID).Error)
	assert.Equal(t, models.AIStatusComplete, saved.AIStatus)
	assert.Equal(t, "Navy Tee", saved.Name)
	assert.Equal(t, 1, saved.WearCount)
	assert.NotNil(t, saved.LastWorn)
	assert.False(t, saved.IsActive)
	require.NotNil(t, saved.DisposalMethod)
	assert.Equal(t, "Recycled", *saved.DisposalMethod)

	// the discard is not undone, so it cannot pay twice
	points, err := engine.DiscardItem(context.Background(), garment.ID, user.ID, "Recycled")
	require.NoError(t, err)
	assert.Zero(t, points)
	var owner models.UserAccount
	require.NoError(t, db.First(&owner, user.ID).Error)
	assert.Equal(t, 160, owner.GreenPoints)
}

func TestHandleGarmentProcessTaskClassifierFailure(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	user := test.FakeUser(db)
	storage := test.NewStorageMock()
	garment := test.FakeGarment(db, user.ID, "", models.CategoryTop, func(g *models.Garment) {
		g.AIStatus = models.AIStatusPending
	})
	storage.Put(*garment.ImageKey, test.GarmentPhoto(32, 32, color.RGBA{A: 255}))

	llm := &test.LLMMock{ClassifyErr: errors.New("quota exceeded")}
	task, _ := NewGarmentProcessTask(garment.ID)
	err := HandleGarmentProcessTask(context.Background(), task, db, llm, storage, services.StylistConfig{})
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var saved models.Garment
	require.NoError(t, db.First(&saved, garment.ID).Error)
	assert.Equal(t, models.AIStatusFailed, saved.AIStatus)
	assert.NotNil(t, saved.AIErrorMessage)
}

func TestHandleGarmentProcessTaskRetriesDownloads(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	user := test.FakeUser(db)
	garment := test.FakeGarment(db, user.ID, "", models.CategoryTop, func(g *models.Garment) {
		g.AIStatus = models.AIStatusPending
	})
	task, _ := NewGarmentProcessTask(garment.ID)
	storage := test.NewStorageMock()
	llm := &test.LLMMock{}

	for attempt := 1; attempt <= 3; attempt++ {
		if attempt == 2 {
			db.Model(garment).Update("wear_count", 4)
		}
		err := HandleGarmentProcessTask(context.Background(), task, db, llm, storage, services.StylistConfig{})
		require.Error(t, err)
		var saved models.Garment
		require.NoError(t, db.First(&saved, garment.ID).Error)
		assert.Equal(t, attempt, saved.ProcessRetries)
		if attempt >= 2 {
			assert.Equal(t, 4, saved.WearCount)
		}
		if attempt < 3 {
			assert.Equal(t, models.AIStatusProcessing, saved.AIStatus)
		} else {
			assert.Equal(t, models.AIStatusFailed, saved.AIStatus)
		}
	}
	assert.Equal(t, 0, llm.ClassifyCalls)
}

func TestHandleGarmentProcessTaskMissingGarment(t *testing.T) {
	db := dbhelper.SetupTestDB()
	task, _ := NewGarmentProcessTask(999)
	err := HandleGarmentProcessTask(context.Background(), task, db, &test.LLMMock{}, test.NewStorageMock(), services.StylistConfig{})
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

