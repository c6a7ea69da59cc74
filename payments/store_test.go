package payments

import (
	"context"
	"errors"
	"testing"

	"lms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.Enrollment{}))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, sessionID string, userID, courseID uint, status string) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:      userID,
		CourseID:    courseID,
		ProviderSID: sessionID,
		AmountCents: 4999,
		Currency:    "USD",
		Status:      status,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestGormStoreFindOrderBySessionID(t *testing.T) {
	db := openTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	seeded := seedOrder(t, db, "cs_1", 7, 42, models.OrderStatusPending)

	found, err := store.FindOrderBySessionID(ctx, "cs_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, models.OrderStatusPending, found.Status)

	missing, err := store.FindOrderBySessionID(ctx, "cs_unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormStoreCASOrderStatus(t *testing.T) {
	db := openTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	order := seedOrder(t, db, "cs_1", 7, 42, models.OrderStatusPending)

	won, err := store.CASOrderStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, won)

	// Precondition no longer holds; the second transition must lose.
	won, err = store.CASOrderStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusPaid)
	require.NoError(t, err)
	assert.False(t, won)

	// Terminal statuses never move again, to any status.
	won, err = store.CASOrderStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusFailed)
	require.NoError(t, err)
	assert.False(t, won)

	var persisted models.Order
	require.NoError(t, db.First(&persisted, order.ID).Error)
	assert.Equal(t, models.OrderStatusPaid, persisted.Status)
}

func TestGormStoreCreateEnrollmentIfAbsent(t *testing.T) {
	db := openTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	order := seedOrder(t, db, "cs_1", 7, 42, models.OrderStatusPaid)

	first, err := store.CreateEnrollmentIfAbsent(ctx, 7, 42, order.ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, models.EnrollmentStatusActive, first.Status)
	require.NotNil(t, first.OrderID)
	assert.Equal(t, order.ID, *first.OrderID)

	// Duplicate insert collapses onto the existing row.
	second, err := store.CreateEnrollmentIfAbsent(ctx, 7, 42, order.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Enrollment{}).Where("user_id = ? AND course_id = ?", 7, 42).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGormStoreTransactionRollsBack(t *testing.T) {
	db := openTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	order := seedOrder(t, db, "cs_1", 7, 42, models.OrderStatusPending)

	failure := errors.New("downstream write failed")
	err := store.Transaction(ctx, func(tx Store) error {
		won, err := tx.CASOrderStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusPaid)
		require.NoError(t, err)
		require.True(t, won)
		return failure
	})
	assert.ErrorIs(t, err, failure)

	// The status transition inside the failed transaction did not persist.
	var persisted models.Order
	require.NoError(t, db.First(&persisted, order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, persisted.Status)
}

func TestReconcilerAgainstGormStore(t *testing.T) {
	db := openTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	order := seedOrder(t, db, "cs_live_1", 7, 42, models.OrderStatusPending)
	r := NewReconciler(store, nil)
	event := completedEvent("cs_live_1", 7, 42)

	result, err := r.Reconcile(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReconciled, result.Outcome)

	redelivered, err := r.Reconcile(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyProcessed, redelivered.Outcome)

	var persisted models.Order
	require.NoError(t, db.First(&persisted, order.ID).Error)
	assert.Equal(t, models.OrderStatusPaid, persisted.Status)

	var count int64
	require.NoError(t, db.Model(&models.Enrollment{}).Where("user_id = ? AND course_id = ?", 7, 42).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
