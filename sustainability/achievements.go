package sustainability

import (
	"context"
	"errors"
	"log"

	"wardrobeapi/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUnknownAchievement = errors.New("unknown achievement")
	ErrNotEarned          = errors.New("achievement not earned")
)

const (
	minimalistMaxItems  = 100
	recyclerMinItems    = 10
	sustainableMinShare = 50.0
)

type Achievement struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"desc"`
	Earned      bool   `json:"earned"`
	Points      int    `json:"points"`
	Claimed     bool   `json:"claimed"`
}

type ClaimResult struct {
	Key            string `json:"key"`
	Points         int    `json:"points"`
	AlreadyClaimed bool   `json:"already_claimed"`
	TotalPoints    int    `json:"total_points"`
}

func buildAchievements(active []models.Garment, summary ImpactSummary, claimed map[string]bool) []Achievement {
	natural := 0
	for _, g := range active {
		if g.FabricType != nil && g.FabricType.Natural() {
			natural++
		}
	}
	naturalShare := 0.0
	if len(active) > 0 {
		naturalShare = float64(natural) / float64(len(active)) * 100
	}

	achievements := []Achievement{
		{
			Key:         "minimalist",
			Title:       "Minimalist",
			Description: "Own under 100 items",
			Earned:      len(active) > 0 && len(active) <= minimalistMaxItems,
			Points:      120,
		},
		{
			Key:         "recycler",
			Title:       "Recycler",
			Description: "Donate or recycle 10+ items",
			Earned:      summary.DonatedCount+summary.RecycledCount >= recyclerMinItems,
			Points:      150,
		},
		{
			Key:         "sustainable",
			Title:       "Sustainable",
			Description: "50%+ natural fabrics",
			Earned:      naturalShare >= sustainableMinShare,
			Points:      200,
		},
	}
	for i := range achievements {
		achievements[i].Claimed = claimed[achievements[i].Key]
	}
	return achievements
}

func (e *Engine) achievements(db *gorm.DB, userID uint) ([]Achievement, error) {
	var active []models.Garment
	if err := activeGarments(db, userID).Find(&active).Error; err != nil {
		return nil, err
	}
	summary, err := e.summarize(db, userID, active, "")
	if err != nil {
		return nil, err
	}
	var claims []models.AchievementClaim
	if err := db.Where("user_account_id = ?", userID).Find(&claims).Error; err != nil {
		return nil, err
	}
	claimed := make(map[string]bool, len(claims))
	for _, c := range claims {
		claimed[c.Key] = true
	}
	return buildAchievements(active, summary, claimed), nil
}

func (e *Engine) Achievements(ctx context.Context, userID uint) ([]Achievement, error) {
	return e.achievements(e.DB.WithContext(ctx), userID)
}

// ClaimAchievement awards an earned achievement once. Claiming it again reports
// AlreadyClaimed and adds nothing.
func (e *Engine) ClaimAchievement(ctx context.Context, userID uint, key string) (ClaimResult, error) {
	var result ClaimResult
	err := e.transaction(ctx, "Claim", func(tx *gorm.DB) error {
		list, err := e.achievements(tx, userID)
		if err != nil {
			return err
		}
		var target *Achievement
		for i := range list {
			if list[i].Key == key {
				target = &list[i]
			}
		}
		if target == nil {
			return ErrUnknownAchievement
		}
		if !target.Earned {
			return ErrNotEarned
		}

		claim := models.AchievementClaim{UserAccountID: userID, Key: key, Points: target.Points}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&claim)
		if res.Error != nil {
			return res.Error
		}
		result = ClaimResult{Key: key}
		if res.RowsAffected == 0 {
			result.AlreadyClaimed = true
			var user models.UserAccount
			if err := tx.Select("id", "green_points").First(&user, userID).Error; err != nil {
				return err
			}
			result.TotalPoints = user.GreenPoints
			return nil
		}

		total, err := addPoints(tx, userID, target.Points)
		if err != nil {
			return err
		}
		result.Points = target.Points
		result.TotalPoints = total
		log.Printf("[Claim] user %d claimed %s for %d points", userID, key, target.Points)
		return nil
	})
	return result, err
}
