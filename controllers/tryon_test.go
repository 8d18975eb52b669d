package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"wardrobeapi/models"
	"wardrobeapi/tasks"
	"wardrobeapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBodyPhoto(t *testing.T, s *testServer, user *models.UserAccount) {
	t.Helper()
	require.NoError(t, s.db.Model(user).Update("full_body_image_key", "bodies/1/me.jpg").Error)
}

func TestStartTryOn(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db)
	withBodyPhoto(t, s, user)
	top := test.FakeGarment(s.db, user.ID, "Navy Tee", models.CategoryTop)

	rec := s.do("POST", "/tryon", user.ID, models.TryOnIn{TopID: &top.ID})
	requireStatus(t, rec, http.StatusAccepted)
	resp := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "processing", resp["status"])

	var job models.TryOnJob
	require.NoError(t, s.db.First(&job, uint(resp["job_id"].(float64))).Error)
	assert.Equal(t, models.TryOnPending, job.Status)
	assert.Equal(t, "bodies/1/me.jpg", job.BodyImageKey)
	assert.Equal(t, top.ID, *job.TopID)
	assert.Nil(t, job.BottomID)
	assert.Equal(t, []string{tasks.TypeTryOnGenerate}, s.queue.Types())
}

func TestStartTryOnValidation(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db)
	top := test.FakeGarment(s.db, user.ID, "Navy Tee", models.CategoryTop)

	rec := s.do("POST", "/tryon", user.ID, models.TryOnIn{TopID: &top.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please upload a full body photo first!", errorOf(t, rec))

	withBodyPhoto(t, s, user)
	rec = s.do("POST", "/tryon", user.ID, models.TryOnIn{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Select at least a top or bottom.", errorOf(t, rec))

	other := test.FakeUserV2(s.db, "Other", "other@example.com")
	foreign := test.FakeGarment(s.db, other.ID, "Foreign Jeans", models.CategoryBottom)
	rec = s.do("POST", "/tryon", user.ID, models.TryOnIn{TopID: &top.ID, BottomID: &foreign.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var count int64
	s.db.Model(&models.TryOnJob{}).Count(&count)
	assert.Zero(t, count)
	assert.Empty(t, s.queue.Tasks)
}

func TestStartTryOnQueueDown(t *testing.T) {
	s := newTestServer(t)
	s.queue.Err = errors.New("redis: connection refused")
	user := test.FakeUser(s.db)
	withBodyPhoto(t, s, user)
	top := test.FakeGarment(s.db, user.ID, "Navy Tee", models.CategoryTop)

	rec := s.do("POST", "/tryon", user.ID, models.TryOnIn{TopID: &top.ID})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var job models.TryOnJob
	require.NoError(t, s.db.First(&job).Error)
	assert.Equal(t, models.TryOnFailed, job.Status)
}

func TestTryOnStatus(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db)
	running := seedSucceededTryOn(t, s, user, models.TryOnRunning)
	done := seedSucceededTryOn(t, s, user, models.TryOnSuccess)

	rec := s.do("GET", fmt.Sprintf("/tryon/%d", running.ID), user.ID, nil)
	requireStatus(t, rec, http.StatusOK)
	resp := decode[TryOnStatusOut](t, rec)
	assert.Equal(t, models.TryOnRunning, resp.Status)
	assert.Nil(t, resp.ImageURL)

	rec = s.do("GET", fmt.Sprintf("/tryon/%d", done.ID), user.ID, nil)
	requireStatus(t, rec, http.StatusOK)
	resp = decode[TryOnStatusOut](t, rec)
	assert.Equal(t, models.TryOnSuccess, resp.Status)
	require.NotNil(t, resp.ImageURL)
	assert.Equal(t, test.FakeBucketURL+"tryons/1/result.png", *resp.ImageURL)

	other := test.FakeUserV2(s.db, "Other", "other@example.com")
	rec = s.do("GET", fmt.Sprintf("/tryon/%d", done.ID), other.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
