package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/golang-jwt/jwt/v4"
	"github.com/hibiken/asynq"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"
)

const FakeBucketURL = "https://fakebucketurl.com/"

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {

	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func GenerateUserToken(userPk string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userPk,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	t, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		log.Fatalf("Error when signing user token for %s. Error %s ", userPk, err)
	}
	return t
}

func NewJSONAuthRequest(method string, target string, userPk string, param interface{}) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	token := GenerateUserToken(userPk)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

func NewJSONAuthRequestRaw(method string, target string, userPk string, json string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(json))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	token := GenerateUserToken(userPk)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

func UintPointer(i uint) *uint {
	return &i
}

func FakeUser(db *gorm.DB) *models.UserAccount {
	return FakeUserV2(db, "OurName", "email@example.com")
}

func FakeUserV2(db *gorm.DB, userName string, email string) *models.UserAccount {
	user := &models.UserAccount{
		Name:                 userName,
		Email:                email,
		GoogleID:             "12232",
		Platform:             models.PlatformIOS,
		LastIp:               "123.122.122.122",
		Status:               "FINISHED_AUTH",
		AvatarURL:            "pictureurl",
		ReceiveNotifications: true,
		Undertone:            models.UndertoneCool,
		Season:               models.SeasonWinter,
		City:                 "Pune",
	}
	db.Create(user)

	tokenDb := models.UserPushToken{
		UserAccountID: user.ID,
		Platform:      "android",
		Token:         "cX-UZ3zwQEiPt-2GJkG2gA:APA91bGqRflaGrJrnynhRwZ442HdgUjVcO7mWMFnx6IwAdJ9RRKopvSP4QU7hbvTmk1XAp8XGvtHZLvo5JmOPTVKBbGqqvhfbZWKlXA9csEjx1hgpNvrWepU-rqG1sxS8_WCF5cGZchf",
		Active:        true,
	}
	db.Save(&tokenDb)
	db.First(user, user.ID)

	return user
}

// FakeGarment stores an active, classified garment. Mutators run before the insert.
func FakeGarment(db *gorm.DB, ownerID uint, name string, category models.Category, mutators ...func(g *models.Garment)) *models.Garment {
	imageKey := fmt.Sprintf("garments/%s.jpg", strings.ReplaceAll(strings.ToLower(name), " ", "-"))
	g := &models.Garment{
		OwnerID:       ownerID,
		Name:          name,
		Category:      category,
		ColorHex:      "#000080",
		PurchasePrice: 1000,
		IsActive:      true,
		AIStatus:      models.AIStatusComplete,
		ImageKey:      &imageKey,
	}
	for _, m := range mutators {
		m(g)
	}
	db.Create(g)
	return g
}

// GarmentPhoto is a PNG with a light studio background and a solid garment in the middle.
func GarmentPhoto(w, h int, garment color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 245, G: 245, B: 245, A: 255}
			if x >= w/4 && x < w*3/4 && y >= h/4 && y < h*3/4 {
				c = garment
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

type GoogleServiceMock struct{}

func (gsm GoogleServiceMock) ValidateIdToken(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error) {

	return &idtoken.Payload{Issuer: "Issue", Audience: "AAA", Expires: 119919191919, IssuedAt: 12312321321, Subject: "fake@example.com", Claims: map[string]interface{}{
		"email":   "fake@example.com",
		"picture": "pictureurl",
		"sub":     "123googleid",
		"name":    "Fake Name",
	}}, nil

}

// StorageMock keeps objects in memory.
type StorageMock struct {
	mu      sync.Mutex
	objects map[string][]byte
	Uploads []string
}

func NewStorageMock() *StorageMock {
	return &StorageMock{objects: map[string][]byte{}}
}

func (s *StorageMock) Put(key string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = content
}

func (s *StorageMock) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.objects[key]
	return content, ok
}

func (s *StorageMock) PresignUpload(ctx context.Context, key string) (string, error) {
	return FakeBucketURL + "upload/" + key, nil
}

func (s *StorageMock) PresignRead(ctx context.Context, key string) (string, error) {
	return FakeBucketURL + key, nil
}

func (s *StorageMock) Upload(ctx context.Context, key string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = content
	s.Uploads = append(s.Uploads, key)
	return nil
}

func (s *StorageMock) Download(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return content, nil
}

type URLCacheMock struct{}

func (URLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	return FakeBucketURL + objectKey, nil
}

// WeatherMock answers every city with the same reading.
type WeatherMock struct {
	Reading models.WeatherContext
}

func NewWeatherMock(tempC int, description string) *WeatherMock {
	return &WeatherMock{Reading: models.WeatherContext{
		TempC:       &tempC,
		Description: &description,
		Condition:   models.WeatherCondition(float64(tempC)),
	}}
}

func (w *WeatherMock) Context(ctx context.Context, city string) models.WeatherContext {
	reading := w.Reading
	if reading.Condition == "" {
		reading = models.UnavailableWeather(city)
	}
	reading.City = city
	return reading
}

func (w *WeatherMock) Speech(ctx context.Context, city string) string {
	return services.WeatherSpeech(w.Context(ctx, city))
}

type GeocoderMock struct {
	City string
	Err  error
}

func (g GeocoderMock) ReverseCity(ctx context.Context, lat, lon float64) (string, error) {
	return g.City, g.Err
}

// LLMMock returns canned classifier and try-on answers and records what it was asked.
type LLMMock struct {
	Classification *services.GarmentClassification
	ClassifyErr    error
	TryOnImage     []byte
	TryOnErr       error
	// model text returned alongside TryOnErr
	TryOnText string
	// OnClassify runs before the canned classification is returned
	OnClassify func()

	mu            sync.Mutex
	ClassifyCalls int
	TryOnGarments []string
}

func (m *LLMMock) ClassifyGarment(ctx context.Context, imagePath string, modelName services.LLMModelName) (*services.GarmentClassification, *services.LLMResponse, error) {
	m.mu.Lock()
	m.ClassifyCalls++
	m.mu.Unlock()
	if m.OnClassify != nil {
		m.OnClassify()
	}
	if m.ClassifyErr != nil {
		return nil, nil, m.ClassifyErr
	}
	classification := services.GarmentClassification{Category: "t-shirt", ColorHex: "#000080", Material: "cotton", Name: "navy tee"}
	if m.Classification != nil {
		classification = *m.Classification
	}
	return &classification, &services.LLMResponse{
		Response:         JsonString(classification),
		InputTokenCount:  10,
		OutputTokenCount: 13,
		TotalTokenCount:  23,
	}, nil
}

func (m *LLMMock) GenerateTryOn(ctx context.Context, personImagePath string, garmentImagePaths []string, modelName services.LLMModelName) (*services.LLMResponse, error) {
	m.mu.Lock()
	m.TryOnGarments = append(m.TryOnGarments, garmentImagePaths...)
	m.mu.Unlock()
	if m.TryOnErr != nil {
		return &services.LLMResponse{Response: m.TryOnText}, m.TryOnErr
	}
	img := m.TryOnImage
	if img == nil {
		img = GarmentPhoto(8, 16, color.RGBA{R: 0, G: 0, B: 128, A: 255})
	}
	return &services.LLMResponse{
		Images:           [][]byte{img},
		InputTokenCount:  100,
		OutputTokenCount: 1290,
		TotalTokenCount:  1390,
	}, nil
}

type Notification struct {
	UserID  uint
	Title   string
	Message string
	Data    map[string]string
}

type NotifierMock struct {
	mu   sync.Mutex
	Sent []Notification
	Err  error
}

func (n *NotifierMock) Notify(ctx context.Context, userID uint, title string, message string, customData map[string]string) error {
	if n.Err != nil {
		return n.Err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notification{UserID: userID, Title: title, Message: message, Data: customData})
	return nil
}

// EnqueuerMock stands in for the asynq client.
type EnqueuerMock struct {
	mu    sync.Mutex
	Tasks []*asynq.Task
	Err   error
}

func (q *EnqueuerMock) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.Err != nil {
		return nil, q.Err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Tasks = append(q.Tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(q.Tasks)), Type: task.Type(), Payload: task.Payload()}, nil
}

func (q *EnqueuerMock) Types() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	types := make([]string, 0, len(q.Tasks))
	for _, t := range q.Tasks {
		types = append(types, t.Type())
	}
	return types
}
