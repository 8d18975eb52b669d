package controllers

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const presignConcurrency = 8

func BoolPointer(b bool) *bool {
	return &b
}

func StrPointer(b string) *string {
	return &b
}

func UIntToStr(value uint) string {
	return strconv.FormatUint(uint64(value), 10)
}

func IfThenElse(condition bool, a interface{}, b interface{}) interface{} {
	if condition {
		return a
	}
	return b
}

func GenerateUserToken(userPk string, c echo.Context, hours uint64) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userPk,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * time.Duration(hours))),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	t, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		c.Logger().Errorf("Error when signing user token for %s. Error %s ", userPk, err)
	}
	return t
}

func GenerateRefreshToken(userPk string) (string, error) {
	refreshToken := jwt.New(jwt.SigningMethodHS256)
	rtClaims := refreshToken.Claims.(jwt.MapClaims)
	rtClaims["sub"] = userPk
	rtClaims["exp"] = time.Now().Add(time.Hour * 24 * 30 * 12).Unix()
	rt, err := refreshToken.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		return "", err
	}
	return rt, nil
}

// uploadKey builds a collision free object key under prefix, keeping only the base name of the client file.
func uploadKey(prefix string, fileName string) string {
	base := strings.ReplaceAll(filepath.Base(fileName), " ", "")
	return fmt.Sprintf("%s/%s-%s", prefix, uuid.NewString(), base)
}

// Media signs stored object keys for clients.
type Media struct {
	Storage  services.StorageProvider
	URLCache services.URLCacheServiceProvider
}

// ReadURL signs key through the cache. When the cache itself fails it presigns directly.
func (m Media) ReadURL(ctx context.Context, key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	url, err := m.URLCache.GetReadURL(ctx, *key)
	if err == nil {
		return &url
	}
	log.Printf("CACHE WARNING: Cache system failed for key '%s': %v. Triggering manual R2 fallback.", *key, err)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("failure_type", "cache_system")
		scope.SetExtra("objectKey", *key)
		sentry.CaptureException(err)
	})

	fallbackUrl, err := m.Storage.PresignRead(ctx, *key)
	if err != nil {
		log.Printf("CRITICAL: Manual R2 fallback also failed for key '%s': %v", *key, err)
		sentry.CaptureException(err)
		return nil
	}
	return &fallbackUrl
}

// GarmentURLs signs the display photo of every garment concurrently, index aligned.
func (m Media) GarmentURLs(ctx context.Context, garments []models.Garment) []*string {
	urls := make([]*string, len(garments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(presignConcurrency)
	for i := range garments {
		g.Go(func() error {
			urls[i] = m.ReadURL(gctx, garments[i].DisplayImageKey())
			return nil
		})
	}
	g.Wait()
	return urls
}
