package models

import (
	"time"

	"gorm.io/gorm"
)

// Points reasons recorded in the ledger
const (
	PointsReasonEnrollment      = "ENROLLMENT"
	PointsReasonLessonCompleted = "LESSON_COMPLETED"
	PointsReasonCourseCompleted = "COURSE_COMPLETED"
	PointsReasonStreakMilestone = "STREAK_MILESTONE"
)

// PointsTransaction is an append-only ledger of points awarded to a user
type PointsTransaction struct {
	gorm.Model
	UserID        uint   `json:"user_id" gorm:"index;not null"`
	Points        int    `json:"points" gorm:"not null"`
	Reason        string `json:"reason" gorm:"type:varchar(50);not null"`
	ReferenceType string `json:"reference_type" gorm:"type:varchar(50)"` // course, lesson
	ReferenceID   uint   `json:"reference_id" gorm:"default:0"`
	IsDeleted     bool   `gorm:"default:false"`
}

// UserStats aggregates gamification state per user
type UserStats struct {
	gorm.Model
	UserID         uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	TotalPoints    int        `json:"total_points" gorm:"default:0"`
	CurrentStreak  int        `json:"current_streak" gorm:"default:0"` // consecutive active days
	LongestStreak  int        `json:"longest_streak" gorm:"default:0"`
	LastActivityAt *time.Time `json:"last_activity_at"`
	IsDeleted      bool       `gorm:"default:false"`
}

// Badge is an awardable achievement definition
type Badge struct {
	gorm.Model
	Code        string `json:"code" gorm:"uniqueIndex;not null"` // e.g. FIRST_ENROLLMENT
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
	IsDeleted   bool   `gorm:"default:false"`
}

// UserBadge links a user to an earned badge; at most once per badge
type UserBadge struct {
	gorm.Model
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:ux_user_badges_user_badge"`
	BadgeID   uint      `json:"badge_id" gorm:"not null;uniqueIndex:ux_user_badges_user_badge"`
	EarnedAt  time.Time `json:"earned_at"`
	IsDeleted bool      `gorm:"default:false"`
	Badge     Badge     `json:"badge,omitempty" gorm:"foreignKey:BadgeID"`
}
