package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wardrobeapi/dbhelper"
	"wardrobeapi/services"
	"wardrobeapi/test"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	e        *echo.Echo
	db       *gorm.DB
	storage  *test.StorageMock
	queue    *test.EnqueuerMock
	geocoder *test.GeocoderMock
}

func testConfig() services.StylistConfig {
	return services.StylistConfig{
		TargetWears:              30,
		AdvancedStylistEnabled:   true,
		Currency:                 "INR",
		DefaultWeatherCity:       "Delhi",
		DisableBackgroundRemoval: true,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := dbhelper.SetupTestDB()
	t.Cleanup(dbhelper.SetupCleaner(db))

	s := &testServer{
		db:       db,
		storage:  test.NewStorageMock(),
		queue:    &test.EnqueuerMock{},
		geocoder: &test.GeocoderMock{City: "Lonavala"},
	}
	s.e = SetupServer(db, test.GoogleServiceMock{}, s.storage, test.URLCacheMock{}, test.NewWeatherMock(22, "clear sky"), s.geocoder, s.queue, testConfig())
	return s
}

func (s *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) do(method, target string, userID uint, body interface{}) *httptest.ResponseRecorder {
	return s.serve(test.NewJSONAuthRequest(method, target, UIntToStr(userID), body))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decode[map[string]interface{}](t, rec)["error"].(string)
	return msg
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
}
