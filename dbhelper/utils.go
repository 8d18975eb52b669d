package dbhelper

import (
	"log"

	"wardrobeapi/models"

	"gorm.io/gorm"
)

func SetupCleaner(db *gorm.DB) func() {

	return func() {

		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ScheduledOutfit{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Outfit{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.TryOnJob{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Garment{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.AchievementClaim{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.UserPushToken{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.UserAccount{})

	}
}

func MigrateAll(db *gorm.DB) {
	Migrate(db, &models.UserAccount{})
	Migrate(db, &models.UserPushToken{})
	Migrate(db, &models.AchievementClaim{})
	Migrate(db, &models.Garment{})
	Migrate(db, &models.TryOnJob{})
	Migrate(db, &models.Outfit{})
	Migrate(db, &models.ScheduledOutfit{})
}

func Migrate(db *gorm.DB, model interface{}) {
	err := db.AutoMigrate(model)
	if err != nil {
		log.Printf("Error while migrating %T", model)
		log.Fatal(err)
	}
}
