package sustainability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wardrobeapi/dbhelper"
	"wardrobeapi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)

func newTestEngine(db *gorm.DB) *Engine {
	e := NewEngine(db, 30, DefaultFactors())
	e.Now = func() time.Time { return testNow }
	return e
}

func createUser(t *testing.T, db *gorm.DB, email string) models.UserAccount {
	user := models.UserAccount{Name: "Asha", Email: email, Platform: models.PlatformAndroid}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createGarment(t *testing.T, db *gorm.DB, owner uint, price float64, wears int) models.Garment {
	g := models.Garment{
		OwnerID:       owner,
		Name:          "Linen Shirt",
		Category:      models.CategoryTop,
		ColorHex:      "#FFFFFF",
		PurchasePrice: price,
		WearCount:     wears,
		IsActive:      true,
		AIStatus:      models.AIStatusComplete,
	}
	require.NoError(t, db.Create(&g).Error)
	return g
}

func reloadGarment(t *testing.T, db *gorm.DB, id uint) models.Garment {
	var g models.Garment
	require.NoError(t, db.First(&g, id).Error)
	return g
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) models.UserAccount {
	var u models.UserAccount
	require.NoError(t, db.First(&u, id).Error)
	return u
}

func TestRegisterWearFirstWear(t *testing.T) {
	db := dbhelper.SetupTestDB()
	e := newTestEngine(db)
	user := createUser(t, db, "first@example.com")
	g := createGarment(t, db, user.ID, 1000, 0)

	res, err := e.RegisterWear(context.Background(), g.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, res.NewCostPerWear)
	assert.Equal(t, 10, res.PointsAdded)
	assert.Equal(t, 10, res.TotalPoints)

	stored := reloadGarment(t, db, g.ID)
	assert.Equal(t, 1, stored.WearCount)
	require.NotNil(t, stored.LastWorn)
	assert.Equal(t, 0, models.DaysSince(*stored.LastWorn, testNow))
}

func TestRegisterWearBreakEvenBonus(t *testing.T) {
	db := dbhelper.SetupTestDB()
	e := newTestEngine(db)
	user := createUser(t, db, "bonus@example.com")
	g := createGarment(t, db, user.ID, 3000, 29)

	res, err := e.RegisterWear(context.Background(), g.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, res.PointsAdded)
	assert.Equal(t, 100.0, res.NewCostPerWear)
	assert.Equal(t, 15, res.TotalPoints)
}

func TestRegisterWearKeepsLaterLastWorn(t *testing.T) {
	db := dbhelper.SetupTestDB()
	e := newTestEngine(db)
	user := createUser(t, db, "later@example.com")
	g := createGarment(t, db, user.ID, 100, 2)
	future := models.Date(testNow.AddDate(0, 0, 2))
	require.NoError(t, db.Model(&g).Update("last_worn", future).Error)

	_, err := e.RegisterWear(context.Background(), g.ID, user.ID)
	require.NoError(t, err)
	stored := reloadGarment(t, db, g.ID)
	assert.Equal(t, 3, stored.WearCount)
	assert.Equal(t, -2, models.DaysSince(*stored.LastWorn, testNow))
}

func TestRegisterWearNotOwned(t *testing.T) {
	db := dbhelper.SetupTestDB()
	e := newTestEngine(db)
	owner := createUser(t, db, "owner@example.com")
	other := createUser(t, db, "other@example.com")
	g := createGarment(t, db, owner.ID, 500, 0)

	_, err := e.RegisterWear(context.Background(), g.ID, other.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = e.RegisterWear(context.Background(), 9999, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 0, reloadGarment(t, db, g.ID).WearCount)
	assert.Equal(t, 0, reloadUser(t, db, other.ID).GreenPoints)
}

func TestRegisterWearTwice(t *testing.T) {
	db := dbhelper.SetupTestDB()
	e := newTestEngine(db)
	user := createUser(t, db, "twice@example.com")
	g := createGarment(t, db, user.ID, 900, 0)

	_, err := e.RegisterWear(context.Background(), g.ID, user.ID)
	require.NoError(t, err)
	res, err := e.RegisterWear(context.Background(), g.ID, user.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, reloadGarment(t, db, g.ID).WearCount)
	assert.Equal(t, 450.0, res.NewCostPerWear)
	assert.Equal(t, 20, res.TotalPoints)
}

func TestRegisterWearConcurrent(t *testing.T) {
	db := dbhelper.SetupTestDB()
	e := newTestEngine(db)
	user := createUser(t, db, "concurrent@example.com")
	g := createGarment(t, db, user.ID, 1200, 0)

	const workers = 12
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.RegisterWear(context.Background(), g.ID, user.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, workers, reloadGarment(t, db, g.ID).WearCount)
	assert.Equal(t, workers*PointsPerWear, reloadUser(t, db, user.ID).GreenPoints)
}

func TestRegisterWearDiscardedGarment(t *testing.T) {
	db := dbhelper.SetupTestDB()
	e := newTestEngine(db)
	user := createUser(t, db, "discarded@example.com")
	g := createGarment(t, db, user.ID, 800, 2)

	_, err := e.DiscardItem(context.Background(), g.ID, user.ID, "Donate")
	require.NoError(t, err)
	_, err = e.RegisterWear(context.Background(), g.ID, user.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Equal(t, 2, reloadGarment(t, db, g.ID).WearCount)
	assert.Equal(t, PointsDonation, reloadUser(t, db, user.ID).GreenPoints)
}

func TestRegisterWears(t *testing.T) {
	db := dbhelper.SetupTestDB()
	e := newTestEngine(db)
	user := createUser(t, db, "outfit@example.com")
	top := createGarment(t, db, user.ID, 1000, 0)
	bottom := createGarment(t, db, user.ID, 600, 0)

	res, err := e.RegisterWears(context.Background(), user.ID, top.ID, bottom.ID, top.ID)
	require.NoError(t, err)
	assert.Equal(t, 2*PointsPerWear, res.PointsAdded)
	assert.Equal(t, 2*PointsPerWear, res.TotalPoints)
	assert.Equal(t, 1, reloadGarment(t, db, top.ID).WearCount)
	assert.Equal(t, 1, reloadGarment(t, db, bottom.ID).WearCount)
}

func TestRegisterWearsAllOrNothing(t *testing.T) {
	db := dbhelper.SetupTestDB()
	e := newTestEngine(db)
	user := createUser(t, db, "atomic@example.com")
	other := createUser(t, db, "atomic-other@example.com")
	top := createGarment(t, db, user.ID, 1000, 0)
	foreign := createGarment(t, db, other.ID, 600, 0)

	_, err := e.RegisterWears(context.Background(), user.ID, top.ID, foreign.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Zero(t, reloadGarment(t, db, top.ID).WearCount)
	assert.Nil(t, reloadGarment(t, db, top.ID).LastWorn)
	assert.Zero(t, reloadUser(t, db, user.ID).GreenPoints)
}

func TestDiscardItemDonate(t *testing.T) {
	db := dbhelper.SetupTestDB()
	e := newTestEngine(db)
	user := createUser(t, db, "donate@example.com")
	g := createGarment(t, db, user.ID, 700, 4)

	points, err := e.DiscardItem(context.Background(), g.ID, user.ID, "Donate")
	require.NoError(t, err)
	assert.Equal(t, 100, points)

	stored := reloadGarment(t, db, g.ID)
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.DisposalMethod)
	assert.Equal(t, "Donated", *stored.DisposalMethod)
	assert.Equal(t, 4, stored.WearCount)
	assert.Equal(t, 100, reloadUser(t, db, user.ID).GreenPoints)

	// a second discard of the same garment earns nothing
	points, err = e.DiscardItem(context.Background(), g.ID, user.ID, "Donate")
	require.NoError(t, err)
	assert.Equal(t, 0, points)
	assert.Equal(t, 100, reloadUser(t, db, user.ID).GreenPoints)
}

func TestDiscardItemMethods(t *testing.T) {
	db := dbhelper.SetupTestDB()
	e := newTestEngine(db)
	user := createUser(t, db, "methods@example.com")

	cases := []struct {
		method string
		stored string
		points int
	}{
		{"Recycle", "Recycled", 150},
		{"Recycled", "Recycled", 150},
		{"Resell", "Resold", 0},
		{"Donated", "Donated", 100},
		{"Upcycled into a bag", "Upcycled into a bag", 0},
	}
	total := 0
	for _, tc := range cases {
		g := createGarment(t, db, user.ID, 100, 1)
		points, err := e.DiscardItem(context.Background(), g.ID, user.ID, tc.method)
		require.NoError(t, err, tc.method)
		assert.Equal(t, tc.points, points, tc.method)
		assert.Equal(t, tc.stored, *reloadGarment(t, db, g.ID).DisposalMethod)
		total += tc.points
	}
	assert.Equal(t, total, reloadUser(t, db, user.ID).GreenPoints)
}

func TestDiscardItemNotOwned(t *testing.T) {
	db := dbhelper.SetupTestDB()
	e := newTestEngine(db)
	owner := createUser(t, db, "keeper@example.com")
	other := createUser(t, db, "thief@example.com")
	g := createGarment(t, db, owner.ID, 100, 1)

	_, err := e.DiscardItem(context.Background(), g.ID, other.ID, "Donate")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, reloadGarment(t, db, g.ID).IsActive)
}

func TestNormalizeDisposal(t *testing.T) {
	assert.Equal(t, "Donated", NormalizeDisposal("Donate"))
	assert.Equal(t, "Resold", NormalizeDisposal("Resold"))
	assert.Equal(t, "donate", NormalizeDisposal("donate"))
	assert.Equal(t, "", NormalizeDisposal(""))
}
