package sustainability

import (
	"context"
	"errors"
	"log"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/stylist"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("garment not found")

const (
	PointsPerWear      = 10
	PointsBreakEven    = 5
	PointsDonation     = 100
	PointsRecycle      = 150
	defaultMaxAttempts = 3
)

var disposalSynonyms = map[string]string{
	"Donate":   string(models.DisposalDonated),
	"Donated":  string(models.DisposalDonated),
	"Recycle":  string(models.DisposalRecycled),
	"Recycled": string(models.DisposalRecycled),
	"Resell":   string(models.DisposalResold),
	"Resold":   string(models.DisposalResold),
}

// NormalizeDisposal maps known synonyms to the stored method name.
// Anything else is kept as a custom label.
func NormalizeDisposal(method string) string {
	if normalized, ok := disposalSynonyms[method]; ok {
		return normalized
	}
	return method
}

func DisposalPoints(normalized string) int {
	switch models.DisposalMethod(normalized) {
	case models.DisposalDonated:
		return PointsDonation
	case models.DisposalRecycled:
		return PointsRecycle
	}
	return 0
}

type Engine struct {
	DB          *gorm.DB
	TargetWears int
	Factors     Factors
	Now         func() time.Time
	MaxAttempts int
}

func NewEngine(db *gorm.DB, targetWears int, factors Factors) *Engine {
	return &Engine{
		DB:          db,
		TargetWears: stylist.TargetWears(targetWears),
		Factors:     factors,
		Now:         time.Now,
		MaxAttempts: defaultMaxAttempts,
	}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

type WearResult struct {
	NewCostPerWear float64 `json:"new_cpw"`
	PointsAdded    int     `json:"points_added"`
	TotalPoints    int     `json:"total_points"`
}

// RegisterWear counts one wear of the garment for today and credits the owner.
// Discarded garments cannot be worn and report ErrNotFound.
func (e *Engine) RegisterWear(ctx context.Context, garmentID, userID uint) (WearResult, error) {
	var result WearResult
	today := models.Date(e.now())

	err := e.transaction(ctx, "Wear", func(tx *gorm.DB) error {
		var err error
		result, err = e.wear(tx, garmentID, userID, today)
		return err
	})
	return result, err
}

// RegisterWears counts one wear of each distinct garment in a single transaction.
// When any of them is missing nothing is counted.
func (e *Engine) RegisterWears(ctx context.Context, userID uint, garmentIDs ...uint) (WearResult, error) {
	var total WearResult
	today := models.Date(e.now())
	seen := make(map[uint]bool, len(garmentIDs))

	err := e.transaction(ctx, "Wear", func(tx *gorm.DB) error {
		total = WearResult{}
		clear(seen)
		for _, id := range garmentIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			res, err := e.wear(tx, id, userID, today)
			if err != nil {
				return err
			}
			total.NewCostPerWear = res.NewCostPerWear
			total.PointsAdded += res.PointsAdded
			total.TotalPoints = res.TotalPoints
		}
		return nil
	})
	if err != nil {
		return WearResult{}, err
	}
	return total, nil
}

func (e *Engine) wear(tx *gorm.DB, garmentID, userID uint, today time.Time) (WearResult, error) {
	var garment models.Garment
	err := tx.Where("id = ? AND owner_id = ? AND is_active = ?", garmentID, userID, true).First(&garment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return WearResult{}, ErrNotFound
	}
	if err != nil {
		return WearResult{}, err
	}

	lastWorn := today
	if garment.LastWorn != nil && garment.LastWorn.After(today) {
		lastWorn = *garment.LastWorn
	}
	err = tx.Model(&models.Garment{}).Where("id = ?", garment.ID).Updates(map[string]interface{}{
		"wear_count": gorm.Expr("wear_count + ?", 1),
		"last_worn":  lastWorn,
	}).Error
	if err != nil {
		return WearResult{}, err
	}
	if err := tx.First(&garment, garment.ID).Error; err != nil {
		return WearResult{}, err
	}

	points := PointsPerWear
	if garment.WearCount > 1 && stylist.BreakEvenPct(garment.WearCount, e.TargetWears) == 100 {
		points += PointsBreakEven
	}
	total, err := addPoints(tx, userID, points)
	if err != nil {
		return WearResult{}, err
	}
	return WearResult{
		NewCostPerWear: stylist.CostPerWear(garment.PurchasePrice, garment.WearCount),
		PointsAdded:    points,
		TotalPoints:    total,
	}, nil
}

// DiscardItem retires an active garment and returns the points it earned.
// Discarding a garment that is already inactive is a no-op worth zero points.
func (e *Engine) DiscardItem(ctx context.Context, garmentID, userID uint, method string) (int, error) {
	normalized := NormalizeDisposal(method)
	points := 0

	err := e.transaction(ctx, "Discard", func(tx *gorm.DB) error {
		points = 0
		res := tx.Model(&models.Garment{}).
			Where("id = ? AND owner_id = ? AND is_active = ?", garmentID, userID, true).
			Updates(map[string]interface{}{
				"is_active":       false,
				"disposal_method": normalized,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var owned int64
			if err := tx.Model(&models.Garment{}).Where("id = ? AND owner_id = ?", garmentID, userID).Count(&owned).Error; err != nil {
				return err
			}
			if owned == 0 {
				return ErrNotFound
			}
			log.Printf("[Discard] garment %d already inactive", garmentID)
			return nil
		}

		earned := DisposalPoints(normalized)
		if earned > 0 {
			if _, err := addPoints(tx, userID, earned); err != nil {
				return err
			}
		}
		points = earned
		return nil
	})
	if err != nil {
		return 0, err
	}
	return points, nil
}

// addPoints increments in place and reads the new balance back inside the same transaction.
func addPoints(tx *gorm.DB, userID uint, points int) (int, error) {
	err := tx.Model(&models.UserAccount{}).Where("id = ?", userID).
		Update("green_points", gorm.Expr("green_points + ?", points)).Error
	if err != nil {
		return 0, err
	}
	var user models.UserAccount
	if err := tx.Select("id", "green_points").First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.GreenPoints, nil
}
