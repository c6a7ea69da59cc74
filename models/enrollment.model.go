package models

import (
	"time"

	"gorm.io/gorm"
)

// EnrollmentStatus values. An ACTIVE enrollment for a paid course always
// references a PAID order through OrderID; free enrollments keep OrderID nil.
const (
	EnrollmentStatusActive    = "ACTIVE"
	EnrollmentStatusSuspended = "SUSPENDED"
	EnrollmentStatusCanceled  = "CANCELED"
)

// Enrollment tracks a user's access to a course with progress.
// At most one enrollment per (user, course), enforced by the unique index.
type Enrollment struct {
	gorm.Model
	UserID           uint       `json:"user_id" gorm:"not null;uniqueIndex:ux_enrollments_user_course"`
	CourseID         uint       `json:"course_id" gorm:"not null;uniqueIndex:ux_enrollments_user_course"`
	Status           string     `json:"status" gorm:"default:'ACTIVE'"`
	OrderID          *uint      `json:"order_id" gorm:"index"`     // nil for free enrollments
	Progress         float64    `json:"progress" gorm:"default:0"` // Completion percentage (0-100)
	CompletedLessons int        `json:"completed_lessons" gorm:"default:0"`
	TotalLessons     int        `json:"total_lessons" gorm:"default:0"`
	EnrolledAt       time.Time  `json:"enrolled_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	IsDeleted        bool       `gorm:"default:false"`
	User             User       `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Course           Course     `json:"course,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

// LessonProgress tracks per-lesson completion for a user.
// Unique per (user, lesson); completion is an idempotent upsert.
type LessonProgress struct {
	gorm.Model
	UserID         uint       `json:"user_id" gorm:"not null;uniqueIndex:ux_lesson_progress_user_lesson"`
	LessonID       uint       `json:"lesson_id" gorm:"not null;uniqueIndex:ux_lesson_progress_user_lesson"`
	CourseID       uint       `json:"course_id" gorm:"index;not null"`
	WatchedSeconds int        `json:"watched_seconds" gorm:"default:0"`
	Completed      bool       `json:"completed" gorm:"default:false"`
	CompletedAt    *time.Time `json:"completed_at"`
	IsDeleted      bool       `gorm:"default:false"`
}
