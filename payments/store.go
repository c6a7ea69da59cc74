package payments

import (
	"context"
	"errors"
	"time"

	"lms/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the persistence surface the reconciler depends on. Both mutating
// operations are atomic per key at the storage layer: CASOrderStatus is a
// conditional update and CreateEnrollmentIfAbsent is backed by the unique
// (user, course) index, so concurrent deliveries contend safely without any
// global lock.
type Store interface {
	FindOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	CASOrderStatus(ctx context.Context, orderID uint, expectedStatus, newStatus string) (bool, error)
	FindEnrollment(ctx context.Context, userID, courseID uint) (*models.Enrollment, error)
	CreateEnrollmentIfAbsent(ctx context.Context, userID, courseID, orderID uint) (*models.Enrollment, error)

	// Transaction runs fn against a transactional view of the store. Writes
	// made inside fn commit together or not at all.
	Transaction(ctx context.Context, fn func(Store) error) error
}

// GormStore implements Store on a gorm connection. The handle is injected at
// construction; this package never reaches for a global database instance.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an existing gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FindOrderBySessionID returns the order for a provider session id, or nil
// when no order matches.
func (s *GormStore) FindOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("provider_session_id = ?", sessionID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CASOrderStatus transitions an order from expectedStatus to newStatus as a
// single conditional UPDATE. Returns false when the precondition failed,
// i.e. another delivery already moved the order.
func (s *GormStore) CASOrderStatus(ctx context.Context, orderID uint, expectedStatus, newStatus string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, expectedStatus).
		Update("status", newStatus)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindEnrollment returns the enrollment for (user, course), or nil when none
// exists.
func (s *GormStore) FindEnrollment(ctx context.Context, userID, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := s.db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CreateEnrollmentIfAbsent inserts an ACTIVE enrollment referencing the
// originating order. A concurrent duplicate collapses onto the existing row
// via the unique (user, course) index; the existing row is returned untouched.
func (s *GormStore) CreateEnrollmentIfAbsent(ctx context.Context, userID, courseID, orderID uint) (*models.Enrollment, error) {
	enrollment := models.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Status:     models.EnrollmentStatusActive,
		OrderID:    &orderID,
		EnrolledAt: time.Now(),
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(&enrollment)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		return &enrollment, nil
	}

	// Insert collapsed; fetch the pre-existing row.
	existing, err := s.FindEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return existing, nil
}

// Transaction runs fn inside a database transaction scoped to this store.
func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
