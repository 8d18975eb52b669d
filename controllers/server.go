package controllers

import (
	"net/http"
	"os"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/stylist"
	"wardrobeapi/sustainability"
	"wardrobeapi/tasks"
	"wardrobeapi/wardrobe"

	"github.com/go-playground/validator"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("platform", models.ValidatePlatform)
	v.RegisterValidation("category", models.ValidateCategory)
	v.RegisterValidation("fabric", models.ValidateFabric)
	v.RegisterValidation("undertone", models.ValidateUndertone)
	return &CustomValidator{validator: v}
}

// LoadImpactFactors overrides the default textile footprint with TEXTILE_* variables.
func LoadImpactFactors() sustainability.Factors {
	d := sustainability.DefaultFactors()
	return sustainability.Factors{
		ElectricityKWh:       services.GetEnvFloat("TEXTILE_ELECTRICITY_KWH", d.ElectricityKWh),
		WaterL:               services.GetEnvFloat("TEXTILE_WATER_L", d.WaterL),
		YarnKg:               services.GetEnvFloat("TEXTILE_YARN_KG", d.YarnKg),
		ElectricityCO2PerKWh: services.GetEnvFloat("TEXTILE_ELECTRICITY_KGCO2_PER_KWH", d.ElectricityCO2PerKWh),
		WaterCO2PerL:         services.GetEnvFloat("TEXTILE_WATER_KGCO2_PER_L", d.WaterCO2PerL),
		YarnCO2PerKg:         services.GetEnvFloat("TEXTILE_YARN_KGCO2_PER_KG", d.YarnCO2PerKg),
	}
}

func SetupServer(
	db *gorm.DB,
	googleService services.GoogleServiceProvider,
	storage services.StorageProvider,
	urlCache services.URLCacheServiceProvider,
	weather services.WeatherProvider,
	geocoder services.GeocoderProvider,
	asynqClient tasks.Enqueuer,
	cfg services.StylistConfig,
) *echo.Echo {

	e := echo.New()
	e.Validator = NewValidator()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__db", db)
			c.Set("__asynqclient", asynqClient)
			return next(c)
		}
	})

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	media := Media{Storage: storage, URLCache: urlCache}
	engine := sustainability.NewEngine(db, cfg.TargetWears, LoadImpactFactors())
	recommender := &wardrobe.Recommender{
		DB:                db,
		Composer:          stylist.NewComposer(cfg.Currency),
		Weather:           weather,
		AdvancedAvailable: cfg.AdvancedStylistEnabled,
	}

	authController := AuthController{Google: googleService}
	authController.AuthRoutes(e.Group("/auth"))

	jwtMiddleware := echojwt.JWT([]byte(os.Getenv("JWT_SECRET")))
	userGroup := func(prefix string) *echo.Group {
		return e.Group(prefix, jwtMiddleware, UserMiddleware)
	}

	garmentController := GarmentController{Media: media, Engine: engine, Config: cfg}
	garmentController.GarmentRoutes(userGroup("/garments"))

	outfitController := OutfitController{Media: media, Engine: engine, Recommender: recommender}
	outfitController.OutfitRoutes(userGroup("/outfits"))

	tryOnController := TryOnController{Media: media}
	tryOnController.TryOnRoutes(userGroup("/tryon"))

	scheduleController := ScheduleController{Media: media}
	scheduleController.ScheduleRoutes(userGroup("/schedule"))

	profileController := ProfileController{Media: media, Geocoder: geocoder, Config: cfg}
	profileController.ProfileRoutes(userGroup("/profile"))

	homeController := HomeController{Media: media, Engine: engine, Weather: weather}
	homeController.HomeRoutes(userGroup("/home"))

	sustainabilityController := SustainabilityController{Media: media, Engine: engine}
	sustainabilityController.SustainabilityRoutes(userGroup("/sustainability"))

	return e
}
