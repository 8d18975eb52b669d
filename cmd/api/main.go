package main

import (
	"context"
	"log"
	"os"
	"time"

	"wardrobeapi/controllers"
	"wardrobeapi/dbhelper"
	"wardrobeapi/services"
	"wardrobeapi/stylist"
	"wardrobeapi/telegram"
	"wardrobeapi/wardrobe"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET environment variable is not set!")
	}
	err := sentry.Init(sentry.ClientOptions{
		// DSN comes from the SENTRY_DSN environment variable.
		Environment:      services.GetEnv("ENV", "local"),
		Release:          "wardrobeapi@1.0.0",
		Debug:            false,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Recover()
	defer sentry.Flush(2 * time.Second)

	cfg := services.LoadStylistConfig()
	db := dbhelper.SetupDB()

	storage, err := services.NewR2Service(context.Background(), cfg.BucketName)
	if err != nil {
		log.Fatalf("[API] Failed to initialize storage: %v", err)
	}
	urlCache, err := services.NewURLCacheService(storage)
	if err != nil {
		log.Fatal("Failed to initialize URL cache service")
	}
	weather, err := services.NewOpenWeatherService(cfg.OpenWeatherAPIKey, cfg.DefaultWeatherCity)
	if err != nil {
		log.Fatalf("[API] Failed to initialize weather service: %v", err)
	}
	geocoder, err := services.NewNominatimGeocoder()
	if err != nil {
		log.Fatalf("[API] Failed to initialize geocoder: %v", err)
	}
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")})
	defer asynqClient.Close()

	if os.Getenv("TELEGRAM_BOT") == "true" {
		telegram.RunStylistBot(&telegram.Bot{
			DB: db,
			Recommender: &wardrobe.Recommender{
				DB:                db,
				Composer:          stylist.NewComposer(cfg.Currency),
				Weather:           weather,
				AdvancedAvailable: cfg.AdvancedStylistEnabled,
			},
		})
		return
	}

	e := controllers.SetupServer(
		db, services.GoogleService{}, storage, urlCache,
		weather, geocoder, asynqClient, cfg,
	)
	e.Debug = services.GetEnv("ENV", "local") != "production"
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(10)))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	e.Logger.Fatal(e.Start(services.GetEnv("LISTEN_ADDR", ":8083")))
}
